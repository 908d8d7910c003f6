package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Backend BackendConfig `yaml:"backend"`
	Minio   MinioConfig   `yaml:"minio"`
	Auth    AuthConfig    `yaml:"auth"`
	Log     LogConfig     `yaml:"log"`
	Drafts  DraftsConfig  `yaml:"drafts"`
	Cache   CacheConfig   `yaml:"cache"`
	Catalog CatalogConfig `yaml:"catalog"`
	Users   []User        `yaml:"users"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
	// PublicBaseURL prefixes the wizard locations returned to clients.
	PublicBaseURL string `yaml:"public_base_url"`
}

// BackendConfig describes the remote IP management API the wizard writes to.
type BackendConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIToken       string `yaml:"api_token"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	LicensePath    string `yaml:"license_path"`
	CatalogPath    string `yaml:"catalog_path"`
}

func (c BackendConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type MinioConfig struct {
	Endpoint   string `yaml:"endpoint"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Bucket     string `yaml:"bucket"`
	UseSSL     bool   `yaml:"use_ssl"`
	Region     string `yaml:"region"`
	ExpireDays int    `yaml:"expire_days"`
}

type AuthConfig struct {
	JWTSecret        string `yaml:"jwt_secret"`
	TokenExpireHours int    `yaml:"token_expire_hours"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DraftsConfig selects where local-backed wizard drafts are kept.
type DraftsConfig struct {
	Driver     string      `yaml:"driver"` // memory, redis, sqlite
	KeyPrefix  string      `yaml:"key_prefix"`
	MaxEntries int         `yaml:"max_entries"`
	SQLitePath string      `yaml:"sqlite_path"`
	Redis      RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTLHours int    `yaml:"ttl_hours"`
}

func (c RedisConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

type CacheConfig struct {
	EntityTTLSeconds int `yaml:"entity_ttl_seconds"`
}

func (c CacheConfig) EntityTTL() time.Duration {
	return time.Duration(c.EntityTTLSeconds) * time.Second
}

type CatalogConfig struct {
	DebounceMS int `yaml:"debounce_ms"`
	PageSize   int `yaml:"page_size"`
}

func (c CatalogConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

type User struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Tenant   string `yaml:"tenant"`
}

const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Backend.TimeoutSeconds == 0 {
		cfg.Backend.TimeoutSeconds = 30
	}
	if cfg.Backend.LicensePath == "" {
		cfg.Backend.LicensePath = "/licenses"
	}
	if cfg.Backend.CatalogPath == "" {
		cfg.Backend.CatalogPath = "/ip-catalog"
	}
	if cfg.Minio.ExpireDays == 0 {
		cfg.Minio.ExpireDays = 7
	}
	if cfg.Auth.TokenExpireHours == 0 {
		cfg.Auth.TokenExpireHours = 24
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Drafts.Driver == "" {
		cfg.Drafts.Driver = DriverMemory
	}
	if cfg.Drafts.MaxEntries == 0 {
		cfg.Drafts.MaxEntries = 1000
	}
	if cfg.Drafts.SQLitePath == "" {
		cfg.Drafts.SQLitePath = "drafts.db"
	}
	if cfg.Drafts.Redis.Addr == "" {
		cfg.Drafts.Redis.Addr = "localhost:6379"
	}
	if cfg.Cache.EntityTTLSeconds == 0 {
		cfg.Cache.EntityTTLSeconds = 300
	}
	if cfg.Catalog.DebounceMS == 0 {
		cfg.Catalog.DebounceMS = 300
	}
	if cfg.Catalog.PageSize == 0 {
		cfg.Catalog.PageSize = 20
	}
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.Drafts.Driver {
	case DriverMemory, DriverRedis, DriverSQLite:
	default:
		return fmt.Errorf("unknown drafts driver %q", c.Drafts.Driver)
	}
	if c.Catalog.PageSize < 0 {
		return fmt.Errorf("catalog page_size must not be negative")
	}
	return nil
}

// loadDotEnv loads an optional .env next to the config file. Variables already
// present in the environment win.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"IPMS_BACKEND_URL":    &cfg.Backend.BaseURL,
		"IPMS_BACKEND_TOKEN":  &cfg.Backend.APIToken,
		"IPMS_JWT_SECRET":     &cfg.Auth.JWTSecret,
		"IPMS_DRAFTS_DRIVER":  &cfg.Drafts.Driver,
		"IPMS_REDIS_ADDR":     &cfg.Drafts.Redis.Addr,
		"IPMS_REDIS_PASSWORD": &cfg.Drafts.Redis.Password,
		"IPMS_SQLITE_PATH":    &cfg.Drafts.SQLitePath,
		"IPMS_MINIO_ENDPOINT": &cfg.Minio.Endpoint,
		"IPMS_MINIO_ACCESS":   &cfg.Minio.AccessKey,
		"IPMS_MINIO_SECRET":   &cfg.Minio.SecretKey,
		"IPMS_LOG_LEVEL":      &cfg.Log.Level,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv("IPMS_SERVER_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid IPMS_SERVER_PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	return nil
}

// FindUser finds a user by username
func (c *Config) FindUser(username string) *User {
	for i := range c.Users {
		if c.Users[i].Username == username {
			return &c.Users[i]
		}
	}
	return nil
}
