package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wichananm65/pet-shop-admin/internal/app"
	"github.com/wichananm65/pet-shop-admin/internal/config"
	"github.com/wichananm65/pet-shop-admin/internal/database"
	"github.com/wichananm65/pet-shop-admin/internal/logger"
	"github.com/wichananm65/pet-shop-admin/internal/media"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.Format = cfg.LogFormat
	logCfg.File = cfg.LogFile
	if err := logger.Init(logCfg); err != nil {
		logrus.WithError(err).Fatal("init logger")
	}
	log := logger.App()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	db, err := database.Setup(startCtx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		cancel()
		log.WithError(err).Fatal("database setup failed")
	}
	defer db.Close()

	uploader, err := newUploader(cfg)
	if err != nil {
		cancel()
		log.WithError(err).Fatal("media setup failed")
	}

	server, err := app.New(startCtx, cfg, db, uploader)
	cancel()
	if err != nil {
		log.WithError(err).Fatal("app setup failed")
	}

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Error("shutdown")
		}
	}()

	log.WithFields(logrus.Fields{"addr": cfg.Addr, "driver": cfg.DBDriver}).Info("listening")
	if err := server.Listen(cfg.Addr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

// newUploader prefers Cloudinary and falls back to the local upload directory.
func newUploader(cfg config.Config) (media.Uploader, error) {
	if cfg.CloudinaryURL != "" {
		return media.NewCloudinary(cfg.CloudinaryURL, "pet-shop")
	}
	return media.NewLocal(cfg.UploadDir, "/uploads")
}
