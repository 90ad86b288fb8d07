package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string

	DatabaseURL string
	RedisURL    string

	MeiliSearchHost string
	MeiliMasterKey  string

	StoreDriver string
	SQLitePath  string

	RobloxGroupsURL    string
	RobloxInventoryURL string
	HTTPTimeout        time.Duration

	MemberMaxPages  int
	WealthMaxPages  int
	WealthThreshold int64
	RankWorkers     int

	SearchCooldown  time.Duration
	RefreshSchedule string
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		MeiliSearchHost: os.Getenv("MEILISEARCH_HOST"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreSQLite)),
		SQLitePath:  getEnv("SQLITE_PATH", "community_wealth.db"),

		RobloxGroupsURL:    getEnv("ROBLOX_GROUPS_URL", "https://groups.roblox.com"),
		RobloxInventoryURL: getEnv("ROBLOX_INVENTORY_URL", "https://inventory.roblox.com"),

		RefreshSchedule: os.Getenv("REFRESH_SCHEDULE"),
	}

	var err error
	cfg.HTTPTimeout, err = parseDuration(getEnv("HTTP_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.SearchCooldown, err = parseDuration(getEnv("SEARCH_COOLDOWN", "0s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SEARCH_COOLDOWN: %w", err)
	}

	if cfg.MemberMaxPages, err = getEnvAsInt("MEMBER_MAX_PAGES", 100); err != nil {
		return nil, err
	}
	if cfg.WealthMaxPages, err = getEnvAsInt("WEALTH_MAX_PAGES", 50); err != nil {
		return nil, err
	}
	threshold, err := getEnvAsInt("WEALTH_THRESHOLD", 10000)
	if err != nil {
		return nil, err
	}
	cfg.WealthThreshold = int64(threshold)
	if cfg.RankWorkers, err = getEnvAsInt("RANK_WORKERS", 1); err != nil {
		return nil, err
	}

	switch cfg.StoreDriver {
	case StoreMemory, StoreRedis, StorePostgres, StoreSQLite:
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.StoreDriver == StoreRedis && cfg.RedisURL == "" {
		return nil, fmt.Errorf("STORE_DRIVER=redis requires REDIS_URL")
	}

	return cfg, nil
}

// Origins splits ALLOWED_ORIGINS on commas.
func (c *Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return origins
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}
