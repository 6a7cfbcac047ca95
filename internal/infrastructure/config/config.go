package config

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port          string        `env:"PORT,           default=8080"`
	Env           string        `env:"ENV,            default=development"`
	LogLevel      string        `env:"LOG_LEVEL,      default=info"`
	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL,    default=168h"`

	Accounts  AccountsConfig
	Inventory InventoryConfig
	Redis     RedisConfig
}

type AccountsConfig struct {
	BaseURL string `env:"ACCOUNTS_URL,  default=http://localhost:8000/api/accounts"`
}

type InventoryConfig struct {
	BaseURL string `env:"INVENTORY_URL, default=http://localhost:8000/api/inventory"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
// Upstream base URLs are normalized without a trailing slash so path
// joining stays uniform across clients.
func Load(logger *slog.Logger) *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		logger.Error("Failed to load configuration", "error", err)
		panic(err)
	}
	cfg.Accounts.BaseURL = strings.TrimRight(cfg.Accounts.BaseURL, "/")
	cfg.Inventory.BaseURL = strings.TrimRight(cfg.Inventory.BaseURL, "/")
	return &cfg
}
