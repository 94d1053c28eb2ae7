package gate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"anoa.com/forumguard/internal/model"
	contentRepo "anoa.com/forumguard/internal/modules/content/repository"
	moderationRepo "anoa.com/forumguard/internal/modules/moderation/repository"
	moderation "anoa.com/forumguard/internal/modules/moderation/service"
	spam "anoa.com/forumguard/internal/modules/spam/service"
	trustRepo "anoa.com/forumguard/internal/modules/trust/repository"
	trust "anoa.com/forumguard/internal/modules/trust/service"
	userRepo "anoa.com/forumguard/internal/modules/user/repository"
	"anoa.com/forumguard/pkg/apperror"
	"anoa.com/forumguard/pkg/cache"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixture struct {
	db  *gorm.DB
	svc GateService
}

func newFixture(t *testing.T) *fixture {
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
		&model.TrustProfile{},
		&model.Thread{},
		&model.Post{},
		&model.Reaction{},
		&model.Flag{},
		&model.ModerationAction{},
	))

	content := contentRepo.NewContentRepository(db)
	trustSvc := trust.NewTrustService(
		trustRepo.NewTrustRepository(db),
		userRepo.NewUserRepository(db),
		content,
		cache.New(nil),
		time.Hour,
		nil,
	)
	spamSvc := spam.NewSpamService(content, trustSvc, cache.New(nil), 5*time.Minute)
	moderationSvc := moderation.NewModerationService(
		moderationRepo.NewModerationRepository(db),
		content,
		cache.New(nil),
		5*time.Minute,
		moderation.NewFlagIndexer(nil),
	)

	return &fixture{db: db, svc: NewGateService(trustSvc, spamSvc, moderationSvc)}
}

func (f *fixture) seedUser(t *testing.T) *model.User {
	t.Helper()
	user := &model.User{
		Username:     fmt.Sprintf("user-%s", uuid.NewString()[:8]),
		Email:        fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		PasswordHash: "x",
		Role:         model.RoleMember,
		IsActive:     true,
	}
	require.NoError(t, f.db.Create(user).Error)
	return user
}

func (f *fixture) seedPost(t *testing.T, userID uuid.UUID, content string, createdAt time.Time, active bool) *model.Post {
	t.Helper()
	thread := &model.Thread{UserID: userID, Title: "t", Content: "opener", IsActive: true}
	require.NoError(t, f.db.Create(thread).Error)
	post := &model.Post{
		ThreadID:  thread.ID,
		UserID:    userID,
		Content:   content,
		IsActive:  active,
		CreatedAt: createdAt,
	}
	require.NoError(t, f.db.Create(post).Error)
	return post
}

func TestCheckWriteAllowsCleanContent(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t)

	err := f.svc.CheckWrite(context.Background(), user.ID,
		"Has anyone tried the new release? Works fine here.", model.ActionKindPost)
	assert.NoError(t, err)
}

func TestCheckWriteQuotaExceeded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t)

	for i := 0; i < 10; i++ {
		f.seedPost(t, user.ID, fmt.Sprintf("earlier post %d", i), time.Now().UTC(), true)
	}

	err := f.svc.CheckWrite(ctx, user.ID, "one more for today", model.ActionKindPost)
	var quotaErr *apperror.QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, 10, quotaErr.Limit)
}

func TestCheckWriteSpamRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t)
	f.seedPost(t, user.ID, "something from a moment ago", time.Now().UTC().Add(-2*time.Second), true)

	err := f.svc.CheckWrite(ctx, user.ID,
		"great stuff http://a.example http://b.example http://c.example", model.ActionKindPost)
	var spamErr *apperror.SpamRejectedError
	require.ErrorAs(t, err, &spamErr)
	assert.GreaterOrEqual(t, spamErr.Score, 100)
	assert.Contains(t, spamErr.Reasons, "rapid_posting")
	assert.Contains(t, spamErr.Reasons, "link_spam")
}

func TestCheckWriteReactionSkipsSpamScoring(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t)

	// A reaction seconds after a post would trip the rapid check if scored;
	// reactions are gated by quota alone.
	f.seedPost(t, user.ID, "just posted", time.Now().UTC().Add(-1*time.Second), true)
	assert.NoError(t, f.svc.CheckWrite(ctx, user.ID, "", model.ActionKindReaction))
}

func TestQuarantineContentFilesAutoFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t)

	// Rejected spam is stored deactivated, then quarantined.
	post := f.seedPost(t, user.ID, "spammy rejected content", time.Now().UTC(), false)

	rejection := &apperror.SpamRejectedError{Score: 110, Reasons: []string{"duplicate_content", "link_spam"}}
	flag, err := f.svc.QuarantineContent(ctx, model.ContentTypePost, post.ID, rejection)
	require.NoError(t, err)
	assert.Equal(t, model.FlagReasonAutoSpam, flag.Reason)
	assert.Nil(t, flag.ReporterID)
	assert.Contains(t, flag.Explanation, "110")

	_, err = f.svc.QuarantineContent(ctx, model.ContentTypePost, post.ID, rejection)
	assert.True(t, errors.Is(err, apperror.ErrDuplicateFlag))
}

func TestRecordWriteAdvancesTrust(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t)

	require.NoError(t, f.svc.RecordWrite(ctx, user.ID, model.ActionKindPost))

	var profile model.TrustProfile
	require.NoError(t, f.db.First(&profile, "user_id = ?", user.ID).Error)
	assert.Equal(t, 1, profile.PostCount)
}
