package main

import (
	"log/slog"
	"os"

	"anoa.com/forumguard/internal/config"
	"anoa.com/forumguard/internal/model"
	"anoa.com/forumguard/internal/server"
	"anoa.com/forumguard/pkg/cache"
	"anoa.com/forumguard/pkg/database"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	db, err := database.Connect()
	if err != nil {
		slog.Error("failed to connect to database", "err", err)
		os.Exit(1)
	}

	if err := db.AutoMigrate(
		&model.User{},
		&model.TrustProfile{},
		&model.Thread{},
		&model.Post{},
		&model.Reaction{},
		&model.Flag{},
		&model.ModerationAction{},
	); err != nil {
		slog.Error("failed to run migrations", "err", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = cache.Connect(cfg.RedisURL)
		if err != nil {
			// Cached paths degrade; quota checks refuse writes until redis
			// is back, but the process still serves reads.
			slog.Warn("redis unavailable, continuing without cache", "err", err)
			redisClient = nil
		}
	}

	if cfg.AppEnv == "development" {
		if err := seedModerator(db); err != nil {
			slog.Error("failed to seed moderator", "err", err)
			os.Exit(1)
		}
	}

	srv := server.NewServer(cfg, db, redisClient)
	if err := srv.StartCron(); err != nil {
		slog.Error("failed to start cron", "err", err)
		os.Exit(1)
	}
	defer srv.Stop()

	slog.Info("starting server", "port", cfg.Port, "env", cfg.AppEnv)
	if err := srv.Run(":" + cfg.Port); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}

// seedModerator creates a default moderator account so the moderation
// endpoints are reachable on a fresh dev database.
func seedModerator(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.User{}).Where("username = ?", "moderator").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("moderator123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	mod := &model.User{
		Username:     "moderator",
		Email:        "moderator@localhost",
		PasswordHash: string(hash),
		Role:         model.RoleModerator,
		IsActive:     true,
	}
	if err := db.Create(mod).Error; err != nil {
		return err
	}

	profile := &model.TrustProfile{
		UserID: mod.ID,
		Tier:   model.TierExpert,
	}
	if err := db.Create(profile).Error; err != nil {
		return err
	}

	slog.Info("seeded development moderator", "username", mod.Username)
	return nil
}
