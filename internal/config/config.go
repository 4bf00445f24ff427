package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const devSecret = "dev-secret-change-me"

type Config struct {
	Mode     Mode   `mapstructure:"mode"`
	HTTPAddr string `mapstructure:"http_addr"`

	DBDriver string `mapstructure:"db_driver"`
	DBDSN    string `mapstructure:"db_dsn"`

	EnableLocalAuth bool          `mapstructure:"enable_local_auth"`
	AuthHMACSecret  string        `mapstructure:"auth_hmac_secret"`
	TokenTTL        time.Duration `mapstructure:"token_ttl"`

	AdminUser     string `mapstructure:"admin_user"`
	AdminPassHash string `mapstructure:"admin_pass_hash"` // bcrypt; empty disables admin login

	CORSOriginsOnline  []string `mapstructure:"cors_origins_online"`
	CORSOriginsOffline []string `mapstructure:"cors_origins_offline"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"` // json|console

	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", string(ModeOffline))
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_dsn", "")
	v.SetDefault("enable_local_auth", true)
	v.SetDefault("auth_hmac_secret", devSecret)
	v.SetDefault("token_ttl", 8*time.Hour)
	v.SetDefault("admin_user", "admin")
	v.SetDefault("admin_pass_hash", "")
	v.SetDefault("cors_origins_online", "https://home-teacher.app")
	v.SetDefault("cors_origins_offline", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("request_timeout", 30*time.Second)
}

// Load reads defaults, then the optional config file at path, then the
// environment (MODE, HTTP_ADDR, DB_DSN, ...). An empty path skips the file.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.CORSOriginsOnline = trimAll(cfg.CORSOriginsOnline)
	cfg.CORSOriginsOffline = trimAll(cfg.CORSOriginsOffline)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv loads configuration from the environment only.
func FromEnv() (Config, error) { return Load("") }

func (c Config) Validate() error {
	switch c.Mode {
	case ModeOffline, ModeOnline:
	default:
		return fmt.Errorf("config: unknown mode %q", c.Mode)
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unsupported db driver %q", c.DBDriver)
	}
	if c.Mode == ModeOnline && (c.AuthHMACSecret == "" || c.AuthHMACSecret == devSecret) {
		return errors.New("config: AUTH_HMAC_SECRET must be set in online mode")
	}
	if c.TokenTTL <= 0 {
		return errors.New("config: TOKEN_TTL must be positive")
	}
	return nil
}

// CORSOrigins returns the allowed origins for the current mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
