// Package config loads server settings from the environment and an optional
// mileswise.yaml file. Environment variables use the MILESWISE_ prefix with
// dots replaced by underscores, e.g. MILESWISE_BACKEND_URL.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port       string
	DBPath     string
	LogLevel   string
	LogFormat  string
	SessionTTL time.Duration
	SeedDemo   bool

	Admin   AdminConfig
	Backend BackendConfig
	Archive ArchiveConfig
	Login   LoginConfig

	WSOrigins []string
}

// AdminConfig is the console account created on first start.
type AdminConfig struct {
	Email    string
	Name     string
	Password string
}

type BackendConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// ArchiveConfig points at the S3-compatible bucket holding history archives.
// Archiving is disabled while Bucket is empty.
type ArchiveConfig struct {
	Endpoint      string
	Bucket        string
	Region        string
	AccessKey     string
	SecretKey     string
	RetentionDays int
}

func (a ArchiveConfig) Enabled() bool {
	return a.Bucket != ""
}

type LoginConfig struct {
	RateLimit  int
	RateWindow time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("db_path", "mileswise.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("session_ttl", "24h")
	v.SetDefault("seed_demo", false)

	v.SetDefault("admin.email", "admin@mileswise.local")
	v.SetDefault("admin.name", "Admin User")
	v.SetDefault("admin.password", "")

	v.SetDefault("backend.url", "")
	v.SetDefault("backend.token", "")
	v.SetDefault("backend.timeout", "10s")

	v.SetDefault("archive.endpoint", "")
	v.SetDefault("archive.bucket", "")
	v.SetDefault("archive.region", "us-east-1")
	v.SetDefault("archive.access_key", "")
	v.SetDefault("archive.secret_key", "")
	v.SetDefault("archive.retention_days", 90)

	v.SetDefault("login.rate_limit", 5)
	v.SetDefault("login.rate_window", "1m")

	v.SetDefault("ws.origins", []string{})
}

// Load reads configuration. An empty path looks for mileswise.yaml in the
// working directory; a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MILESWISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("mileswise")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		Port:       v.GetString("port"),
		DBPath:     v.GetString("db_path"),
		LogLevel:   v.GetString("log_level"),
		LogFormat:  v.GetString("log_format"),
		SessionTTL: v.GetDuration("session_ttl"),
		SeedDemo:   v.GetBool("seed_demo"),
		Admin: AdminConfig{
			Email:    v.GetString("admin.email"),
			Name:     v.GetString("admin.name"),
			Password: v.GetString("admin.password"),
		},
		Backend: BackendConfig{
			URL:     strings.TrimRight(v.GetString("backend.url"), "/"),
			Token:   v.GetString("backend.token"),
			Timeout: v.GetDuration("backend.timeout"),
		},
		Archive: ArchiveConfig{
			Endpoint:      v.GetString("archive.endpoint"),
			Bucket:        v.GetString("archive.bucket"),
			Region:        v.GetString("archive.region"),
			AccessKey:     v.GetString("archive.access_key"),
			SecretKey:     v.GetString("archive.secret_key"),
			RetentionDays: v.GetInt("archive.retention_days"),
		},
		Login: LoginConfig{
			RateLimit:  v.GetInt("login.rate_limit"),
			RateWindow: v.GetDuration("login.rate_window"),
		},
		WSOrigins: splitList(v.GetStringSlice("ws.origins")),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive, got %s", c.SessionTTL)
	}
	if c.Login.RateLimit <= 0 || c.Login.RateWindow <= 0 {
		return errors.New("login.rate_limit and login.rate_window must be positive")
	}
	if c.Archive.RetentionDays < 0 {
		return errors.New("archive.retention_days must not be negative")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// splitList accepts both YAML lists and comma-separated env values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, s := range strings.Split(item, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
