// Package config loads the application configuration from YAML, .env files
// and SALES_RFM_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"sales-rfm/pkg/logger"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "SALES_RFM_"

const (
	SourceCSV   = "csv"
	SourceMySQL = "mysql"
)

type Config struct {
	Data   DataConfig    `yaml:"data" json:"data"`
	Server ServerConfig  `yaml:"server" json:"server"`
	Redis  RedisConfig   `yaml:"redis" json:"redis"`
	RFM    RFMConfig     `yaml:"rfm" json:"rfm"`
	Export ExportConfig  `yaml:"export" json:"export"`
	Log    logger.Config `yaml:"log" json:"log"`

	// File is the config file that was read, empty when none was found.
	File string `yaml:"-" json:"-"`
}

// DataConfig selects where the order dataset is loaded from.
type DataConfig struct {
	Source   string `yaml:"source" json:"source"` // csv or mysql
	CSVPath  string `yaml:"csv_path" json:"csv_path"`
	DSN      string `yaml:"dsn" json:"-"`
	Table    string `yaml:"table" json:"table"`
	Progress bool   `yaml:"progress" json:"progress"`

	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr" json:"addr"`
	Mode         string        `yaml:"mode" json:"mode"` // debug, release, test
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
}

// RedisConfig enables report memoization when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr" json:"addr"`
	Password string        `yaml:"password" json:"-"`
	DB       int           `yaml:"db" json:"db"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
	Prefix   string        `yaml:"prefix" json:"prefix"`
}

type RFMConfig struct {
	StrictQuantiles bool `yaml:"strict_quantiles" json:"strict_quantiles"`
}

type ExportConfig struct {
	Dir string `yaml:"dir" json:"dir"`
}

// Load reads path (optional; a missing file is not an error and leaves File
// empty), applies .env files, environment overrides and defaults, then
// validates the result.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			content := os.ExpandEnv(string(data))
			if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
			cfg.File = path
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadEnvFiles loads .env then .env.<GO_ENV>; variables already set win.
func loadEnvFiles() error {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}
	for _, file := range []string{".env", ".env." + env} {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return err
		}
	}
	return nil
}

func loadFromEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}
	str("DATA_SOURCE", &cfg.Data.Source)
	str("CSV_PATH", &cfg.Data.CSVPath)
	str("DSN", &cfg.Data.DSN)
	str("TABLE", &cfg.Data.Table)
	str("SERVER_ADDR", &cfg.Server.Addr)
	str("SERVER_MODE", &cfg.Server.Mode)
	str("REDIS_ADDR", &cfg.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Redis.Password)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	str("EXPORT_DIR", &cfg.Export.Dir)

	if v, ok := os.LookupEnv(envPrefix + "REDIS_DB"); ok {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sREDIS_DB: %w", envPrefix, err)
		}
		cfg.Redis.DB = db
	}
	if v, ok := os.LookupEnv(envPrefix + "REDIS_TTL"); ok {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sREDIS_TTL: %w", envPrefix, err)
		}
		cfg.Redis.TTL = ttl
	}
	if v, ok := os.LookupEnv(envPrefix + "STRICT_QUANTILES"); ok {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sSTRICT_QUANTILES: %w", envPrefix, err)
		}
		cfg.RFM.StrictQuantiles = strict
	}
	return nil
}

func applyDefaults(cfg *Config) {
	cfg.Data.Source = strings.ToLower(strings.TrimSpace(cfg.Data.Source))
	if cfg.Data.Source == "" {
		cfg.Data.Source = SourceCSV
	}
	if cfg.Data.CSVPath == "" {
		cfg.Data.CSVPath = "data/main_data.csv"
	}
	if cfg.Data.Table == "" {
		cfg.Data.Table = "orders"
	}
	if cfg.Data.MaxOpenConns == 0 {
		cfg.Data.MaxOpenConns = 10
	}
	if cfg.Data.MaxIdleConns == 0 {
		cfg.Data.MaxIdleConns = cfg.Data.MaxOpenConns
	}
	if cfg.Data.ConnMaxLifetime == 0 {
		cfg.Data.ConnMaxLifetime = 30 * time.Minute
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Redis.TTL == 0 {
		cfg.Redis.TTL = 10 * time.Minute
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "sales-rfm:report:"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Log.ServiceName == "" {
		cfg.Log.ServiceName = "sales-rfm"
	}
	if cfg.Export.Dir == "" {
		cfg.Export.Dir = "reports"
	}
}

func (c *Config) Validate() error {
	switch c.Data.Source {
	case SourceCSV:
		if c.Data.CSVPath == "" {
			return errors.New("data.csv_path is required for the csv source")
		}
	case SourceMySQL:
		if c.Data.DSN == "" {
			return errors.New("data.dsn is required for the mysql source")
		}
	default:
		return fmt.Errorf("unknown data.source %q", c.Data.Source)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("unknown server.mode %q", c.Server.Mode)
	}
	if c.Data.MaxOpenConns < 0 || c.Data.MaxIdleConns < 0 || c.Data.ConnMaxLifetime < 0 {
		return errors.New("data connection pool settings must not be negative")
	}
	if c.Redis.TTL < 0 {
		return errors.New("redis.ttl must not be negative")
	}
	return nil
}
