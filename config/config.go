package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// 支持的存储驱动
const (
	DriverPostgREST = "postgrest"
	DriverPostgres  = "postgres"
	DriverMySQL     = "mysql"
	DriverMemory    = "memory"
)

// Config stores the application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Store    StoreConfig    `toml:"store"`
	Auth     AuthConfig     `toml:"auth"`
	Log      LogConfig      `toml:"log"`
	Supabase SupabaseConfig `toml:"supabase"`
	Database DatabaseConfig `toml:"database"`
}

type ServerConfig struct {
	Addr            string        `toml:"addr"`
	APIPrefix       string        `toml:"api_prefix"`
	AllowedOrigins  []string      `toml:"cors_allowed_origins"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

type StoreConfig struct {
	Driver  string        `toml:"driver"`
	Timeout time.Duration `toml:"timeout"`
}

// AuthConfig 为空 Secret 时只解码 token，不校验签名
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
}

type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSize    int    `toml:"max_size"`
	MaxBackups int    `toml:"max_backups"`
	MaxAge     int    `toml:"max_age"`
	Compress   bool   `toml:"compress"`
}

type SupabaseConfig struct {
	URL        string `toml:"url"`
	ServiceKey string `toml:"service_key"`
}

// DatabaseConfig URL 给 postgres 驱动用，Host/Port/... 给 mysql 驱动用
type DatabaseConfig struct {
	URL      string `toml:"url"`
	Host     string `toml:"host"`
	Port     string `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Name     string `toml:"name"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			APIPrefix:       "/api/v1",
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: 5 * time.Second,
		},
		Store: StoreConfig{
			Driver:  DriverPostgREST,
			Timeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
		},
		Database: DatabaseConfig{
			Host: "127.0.0.1",
			Port: "3306",
			User: "root",
			Name: "practice",
		},
	}
}

// Load 按 默认值 -> TOML 文件 -> 环境变量(.env) 的顺序合并配置。
// path 为空时读取 CONFIG_FILE，仍为空则跳过文件。
func Load(path string) (*Config, error) {
	// .env 不存在不算错误，已有的环境变量不会被覆盖
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Addr, "SERVER_ADDR")
	setString(&c.Server.APIPrefix, "API_PREFIX")
	if v, ok := os.LookupEnv("CORS_ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = splitList(v)
	}

	setString(&c.Store.Driver, "STORE_DRIVER")
	setString(&c.Supabase.URL, "SUPABASE_URL")
	setString(&c.Supabase.ServiceKey, "SUPABASE_SERVICE_KEY")
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.Port, "DB_PORT")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Name, "DB_NAME")
	setString(&c.Auth.JWTSecret, "AUTH_JWT_SECRET")

	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.File, "LOG_FILE")

	var errs []error
	errs = append(errs,
		setDuration(&c.Server.ShutdownTimeout, "SHUTDOWN_TIMEOUT"),
		setDuration(&c.Store.Timeout, "STORE_TIMEOUT"),
		setInt(&c.Log.MaxSize, "LOG_MAX_SIZE"),
		setInt(&c.Log.MaxBackups, "LOG_MAX_BACKUPS"),
		setInt(&c.Log.MaxAge, "LOG_MAX_AGE"),
		setBool(&c.Log.Compress, "LOG_COMPRESS"),
	)
	return errors.Join(errs...)
}

// Validate checks the settings required by the selected store driver.
func (c *Config) Validate() error {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	c.Server.APIPrefix = "/" + strings.Trim(c.Server.APIPrefix, "/")
	if c.Server.APIPrefix == "/" {
		c.Server.APIPrefix = ""
	}

	switch c.Store.Driver {
	case DriverPostgREST:
		if c.Supabase.URL == "" || c.Supabase.ServiceKey == "" {
			return errors.New("SUPABASE_URL and SUPABASE_SERVICE_KEY are required for the postgrest store")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	case DriverMySQL:
		if c.Database.Host == "" || c.Database.Name == "" {
			return errors.New("DB_HOST and DB_NAME are required for the mysql store")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	if c.Store.Timeout <= 0 {
		return errors.New("STORE_TIMEOUT must be positive")
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
