package web

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lumenfeed/lumenfeed/cmd/web/auth"
	"github.com/lumenfeed/lumenfeed/cmd/web/handlers/api/tag_api"
	"github.com/lumenfeed/lumenfeed/cmd/web/handlers/api/upload_api"
	"github.com/lumenfeed/lumenfeed/internal/config"
	"github.com/lumenfeed/lumenfeed/internal/db"
	"github.com/lumenfeed/lumenfeed/internal/ingest"
	"github.com/lumenfeed/lumenfeed/internal/metrics"
	"github.com/lumenfeed/lumenfeed/internal/storage"
	"github.com/lumenfeed/lumenfeed/pkg/watermark"
)

type Webserver struct {
	*echo.Echo
	conf           *config.Config
	sessionManager *auth.SessionManager
	dbc            *db.DatabaseConnection
	store          *storage.Client
	pipeline       *ingest.Pipeline
	composer       *watermark.Composer
}

func NewWebserver(
	_ context.Context,
	conf *config.Config,
	dbc *db.DatabaseConnection,
	store *storage.Client,
	pipeline *ingest.Pipeline,
	composer *watermark.Composer,
	sessionManager *auth.SessionManager,
) (*Webserver, error) {
	e := echo.New()

	webserver := &Webserver{
		Echo:           e,
		conf:           conf,
		sessionManager: sessionManager,
		dbc:            dbc,
		store:          store,
		pipeline:       pipeline,
		composer:       composer,
	}

	webserver.registerRoutes()

	if err := webserver.setupMiddleware(); err != nil {
		return nil, err
	}

	return webserver, nil
}

func (s *Webserver) setupMiddleware() error {
	s.HideBanner = true
	s.HidePort = true
	s.Use(middleware.BodyLimit("2M"))
	s.Use(middleware.Recover())
	s.Use(middleware.RequestID())
	s.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
	}))
	s.Use(metrics.HTTP())
	s.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			switch c.Path() {
			case "/healthz", "/metrics":
				return true
			default:
				return false
			}
		},
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  false,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				fields = append(fields, "error", v.Error)
			}
			slog.Info("request", fields...)
			return nil
		},
	}))

	return nil
}

func (s *Webserver) registerRoutes() {
	apiGroup := s.Group("/api")

	apiGroup.POST("/uploads/create", upload_api.HandleCreate(s.sessionManager, s.store, s.conf.MediaBucket))
	apiGroup.POST("/video/trim-watermark", upload_api.HandleTrimWatermark(s.sessionManager, s.pipeline))
	apiGroup.POST("/media/finalize-image", upload_api.HandleFinalizeImage(s.sessionManager, s.pipeline))
	apiGroup.POST("/media/finalize-images", upload_api.HandleFinalizeImages(s.sessionManager, s.pipeline))
	apiGroup.GET("/watermark", upload_api.HandleWatermark(s.sessionManager, s.composer))

	apiGroup.GET("/tags/suggestions", tag_api.HandleSuggestions(s.sessionManager, s.dbc))
	apiGroup.POST("/tags/ensure", tag_api.HandleEnsure(s.sessionManager, s.dbc))

	// Health check
	s.GET("/healthz", func(c echo.Context) error {
		return c.String(200, "ok")
	})

	s.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
