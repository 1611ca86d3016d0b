package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/bni-7/medireturn/internal/cache"
	"github.com/bni-7/medireturn/internal/config"
	"github.com/bni-7/medireturn/internal/db"
	"github.com/bni-7/medireturn/internal/http/api/admin"
	"github.com/bni-7/medireturn/internal/http/api/front"
	"github.com/bni-7/medireturn/internal/logging"
)

// Migrate opens the database, runs migrations and seeds the admin account.
func Migrate(ctx context.Context, cfg *config.AppConfig) error {
	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	if cfg.Admin.Password != "" {
		return db.EnsureAdmin(ctx, conn, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password)
	}
	return nil
}

// RunServer boots the API server and blocks until ctx is cancelled.
func RunServer(ctx context.Context, cfg *config.AppConfig) error {
	logging.Setup(cfg.Logging)

	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	if cfg.Admin.Password != "" {
		if errSeed := db.EnsureAdmin(ctx, conn, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); errSeed != nil {
			return errSeed
		}
	}

	var store cache.Cache
	if cfg.Redis.Addr != "" {
		redisStore, errRedis := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if errRedis != nil {
			log.Warnf("redis unavailable, falling back to in-process cache: %v", errRedis)
			store = cache.NewMemoryCache()
		} else {
			store = redisStore
		}
	} else {
		store = cache.NewMemoryCache()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	front.RegisterFrontRoutes(engine, conn, cfg.JWT, store)
	admin.RegisterAdminRoutes(engine, conn, cfg.JWT)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return errShutdown
		}
		log.Info("server stopped")
		return nil
	case errServe := <-errCh:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return errServe
	}
}
