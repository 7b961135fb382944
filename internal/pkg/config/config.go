package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rideshare-platform/service-rides/internal/pkg/database"
)

// JWTConfig holds bearer-token settings shared with the identity service.
type JWTConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// KafkaConfig holds broker addresses and the consumer group prefix.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// IdentityConfig holds settings for the outbound identity-service client.
type IdentityConfig struct {
	BaseURL        string
	ConnectTimeout time.Duration
	TotalTimeout   time.Duration
}

// Load initializes viper with the given env prefix and sane defaults.
func Load(prefix string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("SERVICE_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("JWT_SECRET", "dev-secret-change-me")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("JWT_REFRESH_TTL", "168h")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_PREFIX", "")
	v.SetDefault("IDENTITY_BASE_URL", "http://localhost:8081")
	v.SetDefault("IDENTITY_CONNECT_TIMEOUT", "5s")
	v.SetDefault("IDENTITY_TOTAL_TIMEOUT", "10s")

	return v, nil
}

// GetServicePort returns the listen address for the given port key.
func GetServicePort(v *viper.Viper, key string) string {
	port := v.GetString(key)
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

// GetAppEnv returns the application environment name.
func GetAppEnv(v *viper.Viper) string {
	return v.GetString("APP_ENV")
}

// LoadDatabaseConfig reads the PostgreSQL settings, using dbNameKey for the
// database name.
func LoadDatabaseConfig(v *viper.Viper, dbNameKey string) database.PostgresConfig {
	return database.PostgresConfig{
		Host:     v.GetString("DB_HOST"),
		Port:     v.GetString("DB_PORT"),
		User:     v.GetString("DB_USER"),
		Password: v.GetString("DB_PASSWORD"),
		DBName:   v.GetString(dbNameKey),
		SSLMode:  v.GetString("DB_SSLMODE"),
	}
}

// LoadJWTConfig reads the bearer-token settings.
func LoadJWTConfig(v *viper.Viper) JWTConfig {
	return JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		AccessTTL:  v.GetDuration("JWT_ACCESS_TTL"),
		RefreshTTL: v.GetDuration("JWT_REFRESH_TTL"),
	}
}

// LoadKafkaConfig reads the broker list and group prefix.
func LoadKafkaConfig(v *viper.Viper) KafkaConfig {
	return KafkaConfig{
		Brokers:     strings.Split(v.GetString("KAFKA_BROKERS"), ","),
		GroupPrefix: v.GetString("KAFKA_GROUP_PREFIX"),
	}
}

// LoadIdentityConfig reads the identity-service client settings.
func LoadIdentityConfig(v *viper.Viper) IdentityConfig {
	return IdentityConfig{
		BaseURL:        v.GetString("IDENTITY_BASE_URL"),
		ConnectTimeout: v.GetDuration("IDENTITY_CONNECT_TIMEOUT"),
		TotalTimeout:   v.GetDuration("IDENTITY_TOTAL_TIMEOUT"),
	}
}
