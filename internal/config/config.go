package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port             int                `json:"port"`
	JWTSecret        string             `json:"jwt_secret"`
	JWTTTLHours      int                `json:"jwt_ttl_hours"`
	Database         DatabaseConfig     `json:"database"`
	LogConfig        logger.LogConfig   `json:"log_config"`
	FileStore        FileStoreConfig    `json:"file_store"`
	MaxUploadMB      int64              `json:"max_upload_mb"`
	CORSAllowlist    []string           `json:"cors_allowlist"`
	UserCache        UserCacheConfig    `json:"user_cache"`
	ImageCleanup     ImageCleanupConfig `json:"image_cleanup"`
	LoginRateLimitMS int64              `json:"login_rate_limit_ms"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type UserCacheConfig struct {
	Size       int   `json:"size"`
	TTLSeconds int64 `json:"ttl_seconds"`
}

type ImageCleanupConfig struct {
	Enabled    bool   `json:"enabled"`
	Spec       string `json:"spec"`
	GraceHours int64  `json:"grace_hours"`
}

const envPrefix = "PINBOARD_"

// Load reads the JSON config at path, then applies a .env file (if present)
// and PINBOARD_* environment overrides.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv(envPrefix + "JWT_SECRET")); v != "" {
		cfg.JWTSecret = v
	}
	if v := strings.TrimSpace(os.Getenv(envPrefix + "DB_DSN")); v != "" {
		cfg.Database.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(envPrefix + "PORT")); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sPORT: %w", envPrefix, err)
		}
		cfg.Port = port
	}
	return nil
}

func (cfg *Config) normalize() error {
	if cfg.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if cfg.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 72
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 10
	}
	if cfg.UserCache.Size <= 0 {
		cfg.UserCache.Size = 1024
	}
	if cfg.UserCache.TTLSeconds <= 0 {
		cfg.UserCache.TTLSeconds = 60
	}
	if cfg.ImageCleanup.Spec == "" {
		cfg.ImageCleanup.Spec = "30 3 * * *"
	}
	if cfg.ImageCleanup.GraceHours <= 0 {
		cfg.ImageCleanup.GraceHours = 24
	}
	if cfg.LoginRateLimitMS == 0 {
		cfg.LoginRateLimitMS = 1000
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	switch cfg.FileStore.Type {
	case "local", "s3":
	default:
		return fmt.Errorf("file_store.type must be local or s3")
	}
	if cfg.FileStore.Data == nil {
		return fmt.Errorf("file_store.data is required")
	}
	return nil
}
