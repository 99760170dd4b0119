package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv      string `mapstructure:"APP_ENV"`
	ServiceName string `mapstructure:"SERVICE_NAME"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	Server      ServerConfig
	Posts       PostsConfig
	Audit       AuditConfig
	Redis       RedisConfig
	Tracing     TracingConfig
}

type ServerConfig struct {
	Port    string        `mapstructure:"SERVER_PORT"`
	Timeout time.Duration `mapstructure:"SERVER_TIMEOUT"`
}

type PostsConfig struct {
	IDPolicy string `mapstructure:"POST_ID_POLICY"`
}

type AuditConfig struct {
	Driver    string `mapstructure:"AUDIT_DB_DRIVER"`
	DSN       string `mapstructure:"AUDIT_DB_DSN"`
	Workers   int    `mapstructure:"AUDIT_WORKERS"`
	QueueSize int    `mapstructure:"AUDIT_QUEUE_SIZE"`
}

// RedisConfig with an empty Addr disables the user cache.
type RedisConfig struct {
	Addr     string        `mapstructure:"REDIS_ADDR"`
	Password string        `mapstructure:"REDIS_PASSWORD"`
	DB       int           `mapstructure:"REDIS_DB"`
	CacheTTL time.Duration `mapstructure:"CACHE_TTL"`
}

func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type TracingConfig struct {
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

var defaults = map[string]interface{}{
	"APP_ENV":          "production",
	"SERVICE_NAME":     "blogapi",
	"LOG_LEVEL":        "info",
	"SERVER_PORT":      "3003",
	"SERVER_TIMEOUT":   15 * time.Second,
	"POST_ID_POLICY":   "length",
	"AUDIT_DB_DRIVER":  "sqlite3",
	"AUDIT_DB_DSN":     ":memory:",
	"AUDIT_WORKERS":    2,
	"AUDIT_QUEUE_SIZE": 256,
	"REDIS_DB":         0,
	"CACHE_TTL":        30 * time.Minute,
}

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"port":           "SERVER_PORT",
	"log-level":      "LOG_LEVEL",
	"post-id-policy": "POST_ID_POLICY",
}

// RegisterFlags declares the flags that can override the environment.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("port", "", "HTTP port (SERVER_PORT)")
	flags.String("log-level", "", "debug, info, warn or error (LOG_LEVEL)")
	flags.String("post-id-policy", "", "length or sequence (POST_ID_POLICY)")
}

// Load reads an optional .env file, then the environment, then any flag
// explicitly set in flags. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf(".env não pôde ser carregado: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if flags != nil {
		for flag, key := range flagKeys {
			if f := flags.Lookup(flag); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("flag %s inválida: %w", flag, err)
				}
			}
		}
	}

	var cfg Config

	cfg.AppEnv = v.GetString("APP_ENV")
	cfg.ServiceName = v.GetString("SERVICE_NAME")
	cfg.LogLevel = v.GetString("LOG_LEVEL")

	cfg.Server.Port = v.GetString("SERVER_PORT")
	cfg.Server.Timeout = v.GetDuration("SERVER_TIMEOUT")

	cfg.Posts.IDPolicy = v.GetString("POST_ID_POLICY")

	cfg.Audit.Driver = v.GetString("AUDIT_DB_DRIVER")
	cfg.Audit.DSN = v.GetString("AUDIT_DB_DSN")
	cfg.Audit.Workers = v.GetInt("AUDIT_WORKERS")
	cfg.Audit.QueueSize = v.GetInt("AUDIT_QUEUE_SIZE")

	cfg.Redis.Addr = v.GetString("REDIS_ADDR")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")
	cfg.Redis.CacheTTL = v.GetDuration("CACHE_TTL")

	cfg.Tracing.OTLPEndpoint = v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Posts.IDPolicy {
	case "length", "sequence":
	default:
		return fmt.Errorf("POST_ID_POLICY inválido: %q (use length ou sequence)", c.Posts.IDPolicy)
	}

	switch c.Audit.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("AUDIT_DB_DRIVER inválido: %q (use sqlite3 ou postgres)", c.Audit.Driver)
	}

	if c.Server.Port == "" {
		return errors.New("SERVER_PORT não pode ser vazio")
	}

	return nil
}
