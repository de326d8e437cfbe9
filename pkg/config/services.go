package config

import (
	"errors"
	"time"
)

// CatalogConfig extends BaseConfig with catalog service settings.
type CatalogConfig struct {
	BaseConfig `koanf:",squash"`
	Catalog    CatalogSettings `koanf:"catalog"`
}

// CatalogSettings contains catalog service specific settings.
type CatalogSettings struct {
	MaxVideosPerCourse     int           `koanf:"max_videos_per_course"`
	MaxActivitiesPerCourse int           `koanf:"max_activities_per_course"`
	CourseCacheTTL         time.Duration `koanf:"course_cache_ttl"`
}

// Validate validates the catalog configuration.
func (c *CatalogConfig) Validate() error {
	if err := c.BaseConfig.Validate(); err != nil {
		return err
	}
	if c.Catalog.MaxVideosPerCourse < 1 {
		return errors.New("max videos per course must be at least 1")
	}
	if c.Catalog.MaxActivitiesPerCourse < 1 {
		return errors.New("max activities per course must be at least 1")
	}
	return nil
}

// GetDefaults returns default base configuration values.
func GetDefaults() *BaseConfig {
	return &BaseConfig{
		Service: ServiceConfig{
			Name:        "skola",
			Environment: "development",
			Port:        8080,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "skola",
			Password:        "skola_dev",
			Database:        "skola_dev",
			SSLMode:         "disable",
			MaxConnections:  25,
			MinConnections:  5,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
		},
		NATS: NATSConfig{
			URL:    "nats://localhost:4222",
			Stream: "SKOLA",
		},
		Storage: StorageConfig{
			Bucket:          "skola-media-dev",
			Region:          "us-east-1",
			PresignedExpiry: 15 * time.Minute,
		},
		Logger: LoggerConfig{
			Level:       "info",
			Format:      "json",
			Development: true,
		},
		Auth: AuthConfig{
			JWTSecret: "dev-secret-change-me",
			Issuer:    "skola-identity",
		},
		Pagination: PaginationConfig{
			MaxPageSize:     100,
			DefaultPageSize: 20,
		},
	}
}

// GetDefaultCatalogConfig returns default catalog service configuration.
func GetDefaultCatalogConfig() *CatalogConfig {
	base := GetDefaults()
	base.Service.Name = "catalog"

	return &CatalogConfig{
		BaseConfig: *base,
		Catalog: CatalogSettings{
			MaxVideosPerCourse:     500,
			MaxActivitiesPerCourse: 200,
			CourseCacheTTL:         5 * time.Minute,
		},
	}
}
