package config

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	// WebServer Configuration
	WebServerPort int    `mapstructure:"WEBSERVER_PORT"`
	SessionSecret string `mapstructure:"SESSION_SECRET" validate:"required,min=16"`

	// Database Configuration
	DatabaseDSN     string `mapstructure:"DATABASE_DSN" validate:"required"`
	DatabaseRetries int    `mapstructure:"DATABASE_RETRIES"`

	// Object storage (signed-URL REST provider)
	StorageURL        string `mapstructure:"STORAGE_URL" validate:"required,url"`
	StorageServiceKey string `mapstructure:"STORAGE_SERVICE_KEY" validate:"required"`
	StorageProjectRef string `mapstructure:"STORAGE_PROJECT_REF"`
	StagingBucket     string `mapstructure:"STAGING_BUCKET"`
	MediaBucket       string `mapstructure:"MEDIA_BUCKET"`

	// Transcode pipeline
	WatermarkLogoPath       string `mapstructure:"WATERMARK_LOGO_PATH" validate:"required"`
	TranscodeTimeoutSeconds int    `mapstructure:"TRANSCODE_TIMEOUT_SECONDS" validate:"gt=0"`
}

// use reflect to bind environment variables based on mapstructure tags
func bindEnv(c Config) {
	val := reflect.ValueOf(c)
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		fieldVal := val.Field(i)
		tag := field.Tag.Get("mapstructure")

		if tag != "" {
			viper.BindEnv(tag)
		}

		// Handle nested structs
		if field.Type.Kind() == reflect.Struct && tag == "" {
			nestedTyp := fieldVal.Type()
			for j := 0; j < fieldVal.NumField(); j++ {
				nestedField := nestedTyp.Field(j)
				nestedTag := nestedField.Tag.Get("mapstructure")
				if nestedTag != "" {
					viper.BindEnv(nestedTag)
				}
			}
		}
	}
}

func LoadConfig(ctx context.Context) (*Config, error) {
	bindEnv(Config{})
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("WEBSERVER_PORT", 8080)
	viper.SetDefault("DATABASE_RETRIES", 10)
	viper.SetDefault("STAGING_BUCKET", "uploads-staging")
	viper.SetDefault("MEDIA_BUCKET", "media")
	viper.SetDefault("WATERMARK_LOGO_PATH", "static/watermark-1.png")
	viper.SetDefault("TRANSCODE_TIMEOUT_SECONDS", 300)

	cfg := Config{}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	slog.Info("Loaded configuration",
		"port", cfg.WebServerPort,
		"storage_url", cfg.StorageURL,
		"staging_bucket", cfg.StagingBucket,
		"media_bucket", cfg.MediaBucket,
	)

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
