package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"

	"blog-backend/internal/config"
	apphttp "blog-backend/internal/http"
	"blog-backend/internal/repository/gormstore"
	"blog-backend/internal/repository/migrations"
	"blog-backend/internal/service"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:        "serve",
		Usage:       "Serve the blog HTTP API",
		Description: `Opens the database, applies pending migrations (unless disabled) and serves the HTTP API until interrupted.`,
		Action:      serve,
	}
}

func serve(cliCtx *cli.Context) error {
	cfg, logger, err := loadConfig(cliCtx)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cliCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Database.AutoMigrate {
		if err := migrations.Up(cfg.Database.Driver, cfg.Database.DSN, logger); err != nil {
			return err
		}
	}

	db, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer gormstore.Close(db)

	postRepo := gormstore.NewPostRepository(db)
	userRepo := gormstore.NewUserRepository(db)

	postService := service.NewPostService(postRepo, userRepo, cfg.Feed.DefaultTake, logger)
	userService := service.NewUserService(userRepo)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(postService, userService, logger)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
	return nil
}

func openDatabase(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*gorm.DB, error) {
	logger.WithFields(logrus.Fields{
		"driver": cfg.Database.Driver,
	}).Info("opening database")
	return gormstore.Open(ctx, gormstore.Options{
		Driver:         cfg.Database.Driver,
		DSN:            cfg.Database.DSN,
		MaxOpenConns:   cfg.Database.MaxOpenConns,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		Logger:         logger,
	})
}
