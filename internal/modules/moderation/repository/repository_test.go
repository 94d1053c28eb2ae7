package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"anoa.com/forumguard/internal/model"
	"anoa.com/forumguard/pkg/apperror"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Thread{},
		&model.Post{},
		&model.Flag{},
		&model.ModerationAction{},
	))
	return db
}

type modFixture struct {
	db        *gorm.DB
	repo      ModerationRepository
	moderator *model.User
	author    *model.User
	thread    *model.Thread
	post      *model.Post
}

func newModFixture(t *testing.T) *modFixture {
	t.Helper()
	db := newTestDB(t)

	seedUser := func(role string) *model.User {
		u := &model.User{
			Username:     fmt.Sprintf("%s-%s", role, uuid.NewString()[:8]),
			Email:        fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
			PasswordHash: "x",
			Role:         role,
			IsActive:     true,
		}
		require.NoError(t, db.Create(u).Error)
		return u
	}

	author := seedUser(model.RoleMember)
	thread := &model.Thread{UserID: author.ID, Title: "t", Content: "opener", IsActive: true}
	require.NoError(t, db.Create(thread).Error)
	post := &model.Post{ThreadID: thread.ID, UserID: author.ID, Content: "hello", IsActive: true}
	require.NoError(t, db.Create(post).Error)

	return &modFixture{
		db:        db,
		repo:      NewModerationRepository(db),
		moderator: seedUser(model.RoleModerator),
		author:    author,
		thread:    thread,
		post:      post,
	}
}

func (f *modFixture) pendingPostFlag(t *testing.T, reporterID *uuid.UUID) *model.Flag {
	t.Helper()
	id := f.post.ID
	flag := &model.Flag{
		ContentType: model.ContentTypePost,
		PostID:      &id,
		ReporterID:  reporterID,
		Reason:      model.FlagReasonSpam,
		Status:      model.FlagPending,
	}
	require.NoError(t, f.repo.CreateFlag(context.Background(), flag))
	return flag
}

func (f *modFixture) pendingThreadFlag(t *testing.T) *model.Flag {
	t.Helper()
	id := f.thread.ID
	flag := &model.Flag{
		ContentType: model.ContentTypeThread,
		ThreadID:    &id,
		Reason:      model.FlagReasonSpam,
		Status:      model.FlagPending,
	}
	require.NoError(t, f.repo.CreateFlag(context.Background(), flag))
	return flag
}

func (f *modFixture) actionCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&model.ModerationAction{}).Count(&count).Error)
	return count
}

func TestResolveRemovePost(t *testing.T) {
	f := newModFixture(t)
	ctx := context.Background()
	flag := f.pendingPostFlag(t, nil)

	resolved, action, err := f.repo.Resolve(ctx, ResolveParams{
		FlagID:      flag.ID,
		ModeratorID: f.moderator.ID,
		Action:      model.ActionRemovePost,
		Reason:      "spam confirmed",
	})
	require.NoError(t, err)
	assert.Equal(t, model.FlagRemoved, resolved.Status)
	require.NotNil(t, resolved.ReviewerID)
	assert.Equal(t, f.moderator.ID, *resolved.ReviewerID)
	assert.NotNil(t, resolved.ReviewedAt)

	var post model.Post
	require.NoError(t, f.db.First(&post, "id = ?", f.post.ID).Error)
	assert.False(t, post.IsActive)

	// Exactly one audit row, pointing at the content author.
	assert.Equal(t, int64(1), f.actionCount(t))
	assert.Equal(t, model.ActionRemovePost, action.ActionType)
	require.NotNil(t, action.TargetUserID)
	assert.Equal(t, f.author.ID, *action.TargetUserID)
}

func TestResolveRejectLeavesContentAlone(t *testing.T) {
	f := newModFixture(t)
	ctx := context.Background()
	flag := f.pendingPostFlag(t, nil)

	resolved, _, err := f.repo.Resolve(ctx, ResolveParams{
		FlagID:      flag.ID,
		ModeratorID: f.moderator.ID,
		Action:      model.ActionReject,
	})
	require.NoError(t, err)
	assert.Equal(t, model.FlagRejected, resolved.Status)

	var post model.Post
	require.NoError(t, f.db.First(&post, "id = ?", f.post.ID).Error)
	assert.True(t, post.IsActive)
}

func TestResolveApproveWithWarning(t *testing.T) {
	f := newModFixture(t)
	ctx := context.Background()
	flag := f.pendingPostFlag(t, nil)

	resolved, action, err := f.repo.Resolve(ctx, ResolveParams{
		FlagID:      flag.ID,
		ModeratorID: f.moderator.ID,
		Action:      model.ActionWarning,
		Notes:       "first offense",
	})
	require.NoError(t, err)
	assert.Equal(t, model.FlagApproved, resolved.Status)
	assert.Equal(t, "first offense", resolved.ModNotes)
	assert.Equal(t, model.ActionWarning, action.ActionType)

	var post model.Post
	require.NoError(t, f.db.First(&post, "id = ?", f.post.ID).Error)
	assert.True(t, post.IsActive, "a warning never touches content")
}

func TestResolveLockThreadViaPostFlag(t *testing.T) {
	f := newModFixture(t)
	ctx := context.Background()
	flag := f.pendingPostFlag(t, nil)

	resolved, _, err := f.repo.Resolve(ctx, ResolveParams{
		FlagID:      flag.ID,
		ModeratorID: f.moderator.ID,
		Action:      model.ActionLockThread,
	})
	require.NoError(t, err)
	assert.Equal(t, model.FlagApproved, resolved.Status)

	var thread model.Thread
	require.NoError(t, f.db.First(&thread, "id = ?", f.thread.ID).Error)
	assert.True(t, thread.IsLocked)
	assert.True(t, thread.IsActive)
}

func TestResolveRemoveThread(t *testing.T) {
	f := newModFixture(t)
	ctx := context.Background()
	flag := f.pendingThreadFlag(t)

	resolved, action, err := f.repo.Resolve(ctx, ResolveParams{
		FlagID:      flag.ID,
		ModeratorID: f.moderator.ID,
		Action:      model.ActionRemoveThread,
	})
	require.NoError(t, err)
	assert.Equal(t, model.FlagRemoved, resolved.Status)
	require.NotNil(t, action.TargetUserID)
	assert.Equal(t, f.author.ID, *action.TargetUserID)

	var thread model.Thread
	require.NoError(t, f.db.First(&thread, "id = ?", f.thread.ID).Error)
	assert.False(t, thread.IsActive)
}

func TestResolveMismatchedActionAndTarget(t *testing.T) {
	f := newModFixture(t)
	ctx := context.Background()

	flag := f.pendingThreadFlag(t)
	_, _, err := f.repo.Resolve(ctx, ResolveParams{
		FlagID:      flag.ID,
		ModeratorID: f.moderator.ID,
		Action:      model.ActionRemovePost,
	})
	assert.True(t, errors.Is(err, apperror.ErrInvalidInput))

	// The failed attempt leaves the flag pending and writes no audit row.
	reloaded, ferr := f.repo.FindFlagByID(ctx, flag.ID)
	require.NoError(t, ferr)
	assert.Equal(t, model.FlagPending, reloaded.Status)
	assert.Zero(t, f.actionCount(t))
}

func TestResolveTwiceConflicts(t *testing.T) {
	f := newModFixture(t)
	ctx := context.Background()
	flag := f.pendingPostFlag(t, nil)

	_, _, err := f.repo.Resolve(ctx, ResolveParams{
		FlagID:      flag.ID,
		ModeratorID: f.moderator.ID,
		Action:      model.ActionApprove,
	})
	require.NoError(t, err)

	_, _, err = f.repo.Resolve(ctx, ResolveParams{
		FlagID:      flag.ID,
		ModeratorID: f.moderator.ID,
		Action:      model.ActionReject,
	})
	var stateErr *apperror.InvalidFlagStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "approved", stateErr.Status)

	// The second attempt never reaches the audit log.
	assert.Equal(t, int64(1), f.actionCount(t))
}

func TestHasPendingFlagDistinguishesReporters(t *testing.T) {
	f := newModFixture(t)
	ctx := context.Background()

	reporter := uuid.New()
	f.pendingPostFlag(t, &reporter)

	exists, err := f.repo.HasPendingFlag(ctx, &reporter, model.ContentTypePost, f.post.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	other := uuid.New()
	exists, err = f.repo.HasPendingFlag(ctx, &other, model.ContentTypePost, f.post.ID)
	require.NoError(t, err)
	assert.False(t, exists, "another reporter may still flag the same content")

	// Auto flags (nil reporter) are tracked separately from user reports.
	exists, err = f.repo.HasPendingFlag(ctx, nil, model.ContentTypePost, f.post.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	f.pendingPostFlag(t, nil)
	exists, err = f.repo.HasPendingFlag(ctx, nil, model.ContentTypePost, f.post.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPendingQueueOrderAndPaging(t *testing.T) {
	f := newModFixture(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		id := f.post.ID
		reporter := uuid.New()
		flag := &model.Flag{
			ContentType: model.ContentTypePost,
			PostID:      &id,
			ReporterID:  &reporter,
			Reason:      model.FlagReasonSpam,
			Status:      model.FlagPending,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, f.db.Create(flag).Error)
		ids = append(ids, flag.ID)
	}

	flags, total, err := f.repo.PendingQueue(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, flags, 3)
	assert.Equal(t, ids[0], flags[0].ID, "oldest first")

	flags, _, err = f.repo.PendingQueue(ctx, 2, 3)
	require.NoError(t, err)
	require.Len(t, flags, 2)
	assert.Equal(t, ids[3], flags[0].ID)
}

func TestStatusForAction(t *testing.T) {
	assert.Equal(t, model.FlagRejected, statusForAction(model.ActionReject))
	assert.Equal(t, model.FlagRemoved, statusForAction(model.ActionRemovePost))
	assert.Equal(t, model.FlagRemoved, statusForAction(model.ActionRemoveThread))
	assert.Equal(t, model.FlagApproved, statusForAction(model.ActionApprove))
	assert.Equal(t, model.FlagApproved, statusForAction(model.ActionLockThread))
	assert.Equal(t, model.FlagApproved, statusForAction(model.ActionWarning))
}
