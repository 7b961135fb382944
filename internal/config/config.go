package config

import (
	"github.com/rideshare-platform/service-rides/internal/pkg/config"
	"github.com/rideshare-platform/service-rides/internal/pkg/database"
)

// ServiceConfig holds all configuration for the rides service.
type ServiceConfig struct {
	Port           string
	AppEnv         string
	DBConfig       database.PostgresConfig
	JWTConfig      config.JWTConfig
	KafkaConfig    config.KafkaConfig
	IdentityConfig config.IdentityConfig
}

// Load reads configuration from environment variables.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("RIDES")
	if err != nil {
		return nil, err
	}

	return &ServiceConfig{
		Port:           config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:         config.GetAppEnv(v),
		DBConfig:       config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:      config.LoadJWTConfig(v),
		KafkaConfig:    config.LoadKafkaConfig(v),
		IdentityConfig: config.LoadIdentityConfig(v),
	}, nil
}
