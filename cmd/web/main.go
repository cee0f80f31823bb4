package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/lumenfeed/lumenfeed/cmd/web/auth"
	"github.com/lumenfeed/lumenfeed/cmd/web/internal/web"
	"github.com/lumenfeed/lumenfeed/internal/application"
	"github.com/lumenfeed/lumenfeed/internal/config"
	"github.com/lumenfeed/lumenfeed/internal/db"
	"github.com/lumenfeed/lumenfeed/internal/ingest"
	"github.com/lumenfeed/lumenfeed/internal/storage"
	"github.com/lumenfeed/lumenfeed/pkg/watermark"
)

const watermarkCacheSize = 256

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting web service")

	conf, err := config.LoadConfig(ctx)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if conf.DatabaseRetries <= 0 {
		conf.DatabaseRetries = 10
	}

	pool, err := application.OpenDBPoolWithRetry(ctx, *conf)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	dbc, err := db.NewDatabaseConnection(ctx, pool)
	if err != nil {
		slog.Error("failed to create database connection", "error", err)
		os.Exit(1)
	}
	defer dbc.Close()

	projectRef := conf.StorageProjectRef
	if projectRef == "" {
		projectRef = storage.ProjectRefFromURL(conf.StorageURL)
	}
	store := storage.NewClient(conf.StorageURL, conf.StorageServiceKey, projectRef)

	composer, err := watermark.NewComposer(conf.WatermarkLogoPath, watermarkCacheSize)
	if err != nil {
		slog.Error("failed to load watermark logo", "path", conf.WatermarkLogoPath, "error", err)
		os.Exit(1)
	}

	pipeline := ingest.NewPipeline(ingest.Config{
		Store:            store,
		Catalog:          dbc.Queries(ctx),
		StagingBucket:    conf.StagingBucket,
		MediaBucket:      conf.MediaBucket,
		TranscodeTimeout: time.Duration(conf.TranscodeTimeoutSeconds) * time.Second,
		Logger:           slog.Default(),
	})

	sessionMgr := auth.NewSessionManager(conf.SessionSecret)

	e, err := web.NewWebserver(ctx, conf, dbc, store, pipeline, composer, sessionMgr)
	if err != nil {
		slog.Error("failed to create webserver", "error", err)
		os.Exit(1)
	}

	addr := ":" + strconv.Itoa(conf.WebServerPort)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = e.Shutdown(shutdownCtx)
	}()

	slog.Info("Listening", "addr", addr)
	if err := e.Start(addr); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		// Echo returns an error on Shutdown; treat it as normal if context is done.
		if ctx.Err() != nil {
			return
		}
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
