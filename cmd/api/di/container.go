package di

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"library-service/cmd/api/infrastructure"
	ginhandler "library-service/internal/adapter/gin/handler"
	"library-service/internal/adapter/repository/postgres"
	"library-service/internal/adapter/session"
	"library-service/internal/config"
	"library-service/internal/usecase/auth"
	"library-service/internal/usecase/library"
	redisclient "library-service/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config         *config.Config
	Logger         *zap.Logger
	DB             *gorm.DB
	RedisClient    *redisclient.Client
	Sessions       session.Store
	AuthUC         auth.Service
	LibraryUC      library.Service
	AuthHandler    *ginhandler.AuthHandler
	LibraryHandler *ginhandler.LibraryHandler
}

// NewContainer creates and initializes all application dependencies
func NewContainer(cfg *config.Config, l *zap.Logger) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	db, err := infrastructure.NewDatabase(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	rdb, err := infrastructure.NewRedisClient(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	sessions := session.NewRedisStore(
		rdb.Client,
		time.Duration(cfg.Session.TTLSeconds)*time.Second,
		l,
	)

	userRepo := postgres.NewUserRepoPG(db, l)
	bookRepo := postgres.NewBookRepoPG(db, l)
	issueRepo := postgres.NewIssueRepoPG(db, l)

	authUC := auth.New(userRepo, l)
	libraryUC := library.New(bookRepo, issueRepo, l)

	authHandler := ginhandler.NewAuthHandler(authUC, sessions, cfg.Session, l)
	libraryHandler := ginhandler.NewLibraryHandler(libraryUC, sessions, cfg.Session, l)

	return &Container{
		Config:         cfg,
		Logger:         l,
		DB:             db,
		RedisClient:    rdb,
		Sessions:       sessions,
		AuthUC:         authUC,
		LibraryUC:      libraryUC,
		AuthHandler:    authHandler,
		LibraryHandler: libraryHandler,
	}, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("container close errors: %v", errs)
	}

	return nil
}
