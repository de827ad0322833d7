package config

import (
	"strings"
	"time"

	platformconfig "github.com/example/user-platform/internal/platform/config"
)

// Config holds the users service settings beyond the shared AppConfig.
// Empty URLs disable the corresponding backend.
type Config struct {
	GRPCAddr    string        `env:"GRPC_ADDR" envDefault:":9090"`
	DatabaseURL string        `env:"DATABASE_URL"`
	DBMaxConns  int32         `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns  int32         `env:"DB_MIN_CONNS" envDefault:"1"`
	RedisURL    string        `env:"REDIS_URL"`
	CacheTTL    time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	NATSURL     string        `env:"NATS_URL"`
	HealthEvery time.Duration `env:"GRPC_HEALTH_INTERVAL" envDefault:"15s"`
}

func Load() (Config, error) {
	var cfg Config
	if err := platformconfig.Parse(&cfg); err != nil {
		return Config{}, err
	}
	cfg.GRPCAddr = strings.TrimSpace(cfg.GRPCAddr)
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	cfg.RedisURL = strings.TrimSpace(cfg.RedisURL)
	cfg.NATSURL = strings.TrimSpace(cfg.NATSURL)
	if cfg.HealthEvery <= 0 {
		cfg.HealthEvery = 15 * time.Second
	}
	return cfg, nil
}
