package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr         string `env:"HTTP_ADDR" envDefault:":8080"`
	AdminAddr        string `env:"ADMIN_ADDR" envDefault:":9091"`
	RedisAddr        string `env:"REDIS_ADDR,required"`
	PostgresURL      string `env:"POSTGRES_URL,required"`
	JWTSecret        string `env:"JWT_SECRET,required"`
	StorageKeyPrefix string `env:"STORAGE_KEY_PREFIX" envDefault:"user_prefs"`
	ChangeStream     string `env:"CHANGE_STREAM" envDefault:"preference_changes"`

	TenantCacheTTL time.Duration `env:"TENANT_CACHE_TTL" envDefault:"5m"`

	AuditDir         string `env:"AUDIT_DIR" envDefault:""`
	AuditSegmentSize int64  `env:"AUDIT_SEGMENT_SIZE_BYTES" envDefault:"10485760"`   // 10MB
	AuditMaxDiskSize int64  `env:"AUDIT_MAX_DISK_SIZE_BYTES" envDefault:"104857600"` // 100MB

	ProfileAPIURL   string `env:"PROFILE_API_URL" envDefault:""`
	ProfileAPIToken string `env:"PROFILE_API_TOKEN" envDefault:""`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"50"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"100"`

	SyncBatchSize int           `env:"SYNC_BATCH_SIZE" envDefault:"500"`
	SyncInterval  time.Duration `env:"SYNC_INTERVAL" envDefault:"1s"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
