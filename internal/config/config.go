// Package config loads site settings from sunrise.yaml, .env and SUNRISE_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"sunrise/internal/domain/forum"
)

// DefaultPath is the config file read when SUNRISE_CONFIG is unset.
const DefaultPath = "sunrise.yaml"

// Config is the merged runtime configuration. Environment variables override the file.
type Config struct {
	Env      string `yaml:"env"`
	Addr     string `yaml:"addr"`
	SiteName string `yaml:"site_name"`
	LogLevel string `yaml:"log_level"`
	DBPath   string `yaml:"db_path"`

	ContentDir string `yaml:"content_dir"`
	Timezone   string `yaml:"timezone"`

	Backend struct {
		URL     string        `yaml:"url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"backend"`

	Forum struct {
		PollInterval    time.Duration `yaml:"poll_interval"`
		MentionDebounce time.Duration `yaml:"mention_debounce"`
		Topics          []forum.Topic `yaml:"topics"`
	} `yaml:"forum"`

	Redis struct {
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		Prefix   string        `yaml:"prefix"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"redis"`

	Email struct {
		ResendKey string `yaml:"-"`
		From      string `yaml:"from"`
		Staff     string `yaml:"staff"`
	} `yaml:"email"`

	Perf struct {
		SlowRequest time.Duration `yaml:"slow_request"`
		SlowQuery   time.Duration `yaml:"slow_query"`
	} `yaml:"perf"`

	// Secret seeds the CSRF and cookie keys. Only ever read from the environment.
	Secret string `yaml:"-"`

	location *time.Location
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	var c Config
	c.Env = "development"
	c.Addr = ":8080"
	c.SiteName = "Sunrise Coaching Centre"
	c.LogLevel = "info"
	c.DBPath = "sunrise.db"
	c.ContentDir = "content"
	c.Timezone = "Asia/Kolkata"
	c.Backend.URL = "http://localhost:5000"
	c.Backend.Timeout = 10 * time.Second
	c.Forum.PollInterval = 30 * time.Second
	c.Forum.MentionDebounce = 250 * time.Millisecond
	c.Redis.Prefix = "sunrise:forum:"
	c.Redis.TTL = 24 * time.Hour
	c.Email.From = "Sunrise Coaching Centre <noreply@sunrise.example>"
	c.Perf.SlowRequest = 200 * time.Millisecond
	c.Perf.SlowQuery = 50 * time.Millisecond
	return c
}

// Load reads .env (if present), then the YAML file at path (if present), then environment overrides.
// An empty path means SUNRISE_CONFIG or DefaultPath.
// PRE: none
// POST: returns a validated config or an error naming the bad setting
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	if path == "" {
		path = envOrDefault("SUNRISE_CONFIG", DefaultPath)
	}

	c := Defaults()
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &c); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	if err := c.applyEnv(); err != nil {
		return Config{}, err
	}
	return c, c.validate()
}

// Parse decodes YAML over the defaults without consulting the environment.
func Parse(raw []byte) (Config, error) {
	c := Defaults()
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Config{}, err
	}
	return c, c.validate()
}

func (c *Config) applyEnv() error {
	c.Env = envOrDefault("SUNRISE_ENV", c.Env)
	c.Addr = envOrDefault("SUNRISE_ADDR", c.Addr)
	c.SiteName = envOrDefault("SUNRISE_SITE_NAME", c.SiteName)
	c.LogLevel = envOrDefault("SUNRISE_LOG_LEVEL", c.LogLevel)
	c.DBPath = envOrDefault("SUNRISE_DB_PATH", c.DBPath)
	c.ContentDir = envOrDefault("SUNRISE_CONTENT_DIR", c.ContentDir)
	c.Timezone = envOrDefault("SUNRISE_TIMEZONE", c.Timezone)
	c.Backend.URL = envOrDefault("SUNRISE_BACKEND_URL", c.Backend.URL)
	c.Redis.Addr = envOrDefault("SUNRISE_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = envOrDefault("SUNRISE_REDIS_PASSWORD", c.Redis.Password)
	c.Email.ResendKey = envOrDefault("SUNRISE_RESEND_KEY", c.Email.ResendKey)
	c.Email.From = envOrDefault("SUNRISE_RESEND_FROM", c.Email.From)
	c.Email.Staff = envOrDefault("SUNRISE_STAFF_EMAIL", c.Email.Staff)
	c.Secret = envOrDefault("SUNRISE_SECRET", c.Secret)

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"SUNRISE_BACKEND_TIMEOUT", &c.Backend.Timeout},
		{"SUNRISE_POLL_INTERVAL", &c.Forum.PollInterval},
		{"SUNRISE_MENTION_DEBOUNCE", &c.Forum.MentionDebounce},
		{"SUNRISE_REDIS_TTL", &c.Redis.TTL},
	}
	for _, d := range durations {
		if v := os.Getenv(d.key); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", d.key, err)
			}
			*d.dst = parsed
		}
	}

	millis := []struct {
		key string
		dst *time.Duration
	}{
		{"SUNRISE_SLOW_REQUEST_MS", &c.Perf.SlowRequest},
		{"SUNRISE_SLOW_QUERY_MS", &c.Perf.SlowQuery},
	}
	for _, m := range millis {
		if v := os.Getenv(m.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				return fmt.Errorf("%s must be a positive integer", m.key)
			}
			*m.dst = time.Duration(n) * time.Millisecond
		}
	}
	return nil
}

func (c *Config) validate() error {
	if c.Backend.URL == "" {
		return errors.New("backend url is required")
	}
	if c.Forum.PollInterval <= 0 {
		return errors.New("forum poll_interval must be positive")
	}
	if c.Forum.MentionDebounce < 0 {
		return errors.New("forum mention_debounce cannot be negative")
	}
	seen := map[string]bool{}
	for _, t := range c.Forum.Topics {
		if t.ID == "" || t.Name == "" {
			return fmt.Errorf("topic %q needs both id and name", t.ID)
		}
		if t.ID == forum.AllTopicID {
			return fmt.Errorf("topic id %q is reserved", forum.AllTopicID)
		}
		if seen[t.ID] {
			return fmt.Errorf("duplicate topic id %q", t.ID)
		}
		seen[t.ID] = true
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	c.location = loc
	if c.IsProduction() && c.Secret == "" {
		return errors.New("SUNRISE_SECRET is required in production")
	}
	return nil
}

// Location is the viewer time zone used for dates and backend timestamps without an offset.
func (c Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// IsProduction reports whether the site runs in production mode.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Catalogue returns the configured topics.
func (c Config) Catalogue() forum.Catalogue {
	return forum.Catalogue(c.Forum.Topics)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
