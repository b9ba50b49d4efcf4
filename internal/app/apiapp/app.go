package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Jelisos/wallpaper-site-sub000/internal/config"
	s3infra "github.com/Jelisos/wallpaper-site-sub000/internal/infra/s3"
	pgrepo "github.com/Jelisos/wallpaper-site-sub000/internal/repo/postgres"
	redrepo "github.com/Jelisos/wallpaper-site-sub000/internal/repo/redis"
	authsvc "github.com/Jelisos/wallpaper-site-sub000/internal/services/auth"
	deliverysvc "github.com/Jelisos/wallpaper-site-sub000/internal/services/delivery"
	derivativesvc "github.com/Jelisos/wallpaper-site-sub000/internal/services/derivative"
	moderationsvc "github.com/Jelisos/wallpaper-site-sub000/internal/services/moderation"
	overlaysvc "github.com/Jelisos/wallpaper-site-sub000/internal/services/overlay"
	ratesvc "github.com/Jelisos/wallpaper-site-sub000/internal/services/rate"
	syncbus "github.com/Jelisos/wallpaper-site-sub000/internal/services/sync"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	bus        *syncbus.Bus
	delivery   *deliverysvc.Service
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	overlayRepo := redrepo.NewOverlayRepo(redisClient)
	rateRepo := redrepo.NewRateRepo(redisClient)
	catalogRepo := pgrepo.NewCatalogRepo(pool)
	moderationRepo := pgrepo.NewModerationRepo(pool)

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}

	bus := syncbus.NewBus()
	tokens := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)

	assetStore := s3infra.NewAssetStore(s3Client, cfg.S3.Bucket)
	derivativeService := derivativesvc.NewService(
		derivativesvc.NewCache(cfg.Cache.BudgetBytes),
		assetStore,
		assetStore,
	)

	moderationService := moderationsvc.NewService(moderationRepo, catalogRepo, bus)
	deliveryService := deliverysvc.NewService(
		catalogRepo,
		moderationService,
		overlayRepo,
		derivativeService,
		deliverysvc.Config{
			PageSize:            cfg.Delivery.PageSize,
			PrefetchConcurrency: cfg.Delivery.PrefetchConcurrency,
		},
		log,
	)
	rateLimiter := ratesvc.NewLimiter(rateRepo, cfg.Rate.TogglesPerMinute, cfg.Rate.TogglesPer10Sec)
	overlayService := overlaysvc.NewService(overlayRepo, catalogRepo, rateLimiter, bus)

	RegisterRoutes(r, Dependencies{
		DeliveryService:   deliveryService,
		ModerationService: moderationService,
		OverlayService:    overlayService,
		ViewCounter:       catalogRepo,
		SyncBus:           bus,
		Tokens:            tokens,
		Logger:            log,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		bus:        bus,
		delivery:   deliveryService,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	a.bus.Close()
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}

// Delivery exposes the session service for the idle-session sweeper.
func (a *App) Delivery() *deliverysvc.Service {
	return a.delivery
}
