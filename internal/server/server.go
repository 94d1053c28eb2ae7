package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"anoa.com/forumguard/internal/config"
	"anoa.com/forumguard/internal/middleware"
	"anoa.com/forumguard/internal/model"
	"anoa.com/forumguard/pkg/cache"
	customvalidator "anoa.com/forumguard/pkg/validator"

	contentRepo "anoa.com/forumguard/internal/modules/content/repository"
	userRepo "anoa.com/forumguard/internal/modules/user/repository"

	trustHttp "anoa.com/forumguard/internal/modules/trust/delivery/http"
	trustRepo "anoa.com/forumguard/internal/modules/trust/repository"
	trustService "anoa.com/forumguard/internal/modules/trust/service"

	spamService "anoa.com/forumguard/internal/modules/spam/service"

	reactionHttp "anoa.com/forumguard/internal/modules/reaction/delivery/http"
	reactionRepo "anoa.com/forumguard/internal/modules/reaction/repository"
	reactionService "anoa.com/forumguard/internal/modules/reaction/service"

	moderationHttp "anoa.com/forumguard/internal/modules/moderation/delivery/http"
	moderationRepo "anoa.com/forumguard/internal/modules/moderation/repository"
	moderationService "anoa.com/forumguard/internal/modules/moderation/service"

	gateHttp "anoa.com/forumguard/internal/modules/gate/delivery/http"
	gateService "anoa.com/forumguard/internal/modules/gate/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

type Server struct {
	engine *gin.Engine
	cfg    *config.Config
	cron   *cron.Cron
	trust  trustService.TrustService
}

// slogNotifier is the fallback tier-change consumer; the notification
// collaborator replaces it in a full deployment.
type slogNotifier struct{}

func (slogNotifier) TierChanged(ctx context.Context, userID uuid.UUID, oldTier, newTier model.Tier) {
	slog.Info("tier change notification", "user_id", userID, "old", oldTier, "new", newTier)
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	cacheClient := cache.New(redisClient)

	users := userRepo.NewUserRepository(db)
	content := contentRepo.NewContentRepository(db)

	trustRepository := trustRepo.NewTrustRepository(db)
	trustSvc := trustService.NewTrustService(trustRepository, users, content, cacheClient, cfg.TrustCacheTTL, slogNotifier{})
	trustHandler := trustHttp.NewTrustHandler(trustSvc)

	spamSvc := spamService.NewSpamService(content, trustSvc, cacheClient, cfg.SpamDupCacheTTL)

	reactionRepository := reactionRepo.NewReactionRepository(db)
	reactionSvc := reactionService.NewReactionService(reactionRepository, content, trustSvc)
	reactionHandler := reactionHttp.NewReactionHandler(reactionSvc)

	var meiliClient meilisearch.ServiceManager
	if cfg.MeiliMasterKey != "" {
		meiliClient = meilisearch.New(cfg.MeiliSearchHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	}
	flagIndexer := moderationService.NewFlagIndexer(meiliClient)

	moderationRepository := moderationRepo.NewModerationRepository(db)
	moderationSvc := moderationService.NewModerationService(moderationRepository, content, cacheClient, cfg.DashboardCacheTTL, flagIndexer)
	moderationHandler := moderationHttp.NewModerationHandler(moderationSvc)

	gateSvc := gateService.NewGateService(trustSvc, spamSvc, moderationSvc)
	gateHandler := gateHttp.NewGateHandler(gateSvc)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	customvalidator.RegisterCustomValidators()
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	setupCORS(router, cfg.AllowedOrigins)

	authMiddleware := middleware.NewAuthMiddleware(users, cfg.JWTSecret)

	api := router.Group("/api")
	api.Use(authMiddleware.RequireAuth())
	{
		api.POST("/gate/check", gateHandler.CheckWrite)
		api.POST("/reactions/toggle", reactionHandler.Toggle)
		api.POST("/flags", moderationHandler.SubmitFlag)
		api.GET("/trust/me", trustHandler.GetMyTierInfo)

		mod := api.Group("/moderation")
		mod.Use(authMiddleware.RequireModerator())
		{
			mod.GET("/queue", moderationHandler.Queue)
			mod.GET("/queue/search", moderationHandler.SearchQueue)
			mod.POST("/flags/:id/resolve", moderationHandler.Resolve)
			mod.GET("/stats", moderationHandler.Stats)
			mod.GET("/dashboard", moderationHandler.Dashboard)
			mod.GET("/users/:id/history", moderationHandler.UserHistory)
			mod.POST("/users/:id/promote", trustHandler.Promote)
		}
	}

	return &Server{
		engine: router,
		cfg:    cfg,
		trust:  trustSvc,
	}
}

// StartCron registers the nightly tier sweep.
func (s *Server) StartCron() error {
	c := cron.New()
	_, err := c.AddFunc(s.cfg.PromoteCronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		changed, err := s.trust.PromoteAll(ctx)
		if err != nil {
			slog.Error("nightly tier sweep failed", "err", err)
			return
		}
		slog.Info("nightly tier sweep done", "changed", changed)
	})
	if err != nil {
		return err
	}
	c.Start()
	s.cron = c
	return nil
}

// Run serves until SIGINT/SIGTERM, then drains in-flight requests.
func (s *Server) Run(addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	origins := []string{"http://localhost:3000"}
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
