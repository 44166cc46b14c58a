// Package config loads settings from the environment and an optional YAML
// file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/itsmostafa/docai/internal/docai"
)

const (
	DefaultRegion   = "us"
	DefaultHost     = "localhost"
	DefaultPort     = 3001
	DefaultLogLevel = "info"
)

// S3 configures the S3 client used for s3:// URIs.
type S3 struct {
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

// Proxy configures the token injecting proxy.
type Proxy struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Config holds every setting. Environment variables are read first, then
// non-empty values from the YAML file override them.
type Config struct {
	// URL is the API base URL. When empty it is derived from Region.
	URL         string   `yaml:"url"`
	Region      string   `yaml:"region"`
	Token       string   `yaml:"token"`
	LogLevel    string   `yaml:"log_level"`
	DatabaseURL string   `yaml:"database_url"`
	Fields      []string `yaml:"fields"`
	S3          S3       `yaml:"s3"`
	Proxy       Proxy    `yaml:"proxy"`
}

// Load reads .env from the working directory if present, then the
// environment, then the YAML file at path (if path is non-empty).
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := FromEnv()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var fc Config
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.merge(&fc)
	return cfg, nil
}

// FromEnv builds a Config from environment variables and defaults.
func FromEnv() *Config {
	cfg := &Config{
		URL:         firstEnv("DOCAI_URL", "BASE_URL"),
		Region:      getEnvOrDefault("DOCAI_REGION", DefaultRegion),
		Token:       firstEnv("DOCAI_TOKEN", "ZUVA_TOKEN", "TOKEN"),
		LogLevel:    getEnvOrDefault("DOCAI_LOG_LEVEL", DefaultLogLevel),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		S3: S3{
			Region:   os.Getenv("S3_REGION"),
			Endpoint: os.Getenv("S3_ENDPOINT"),
		},
		Proxy: Proxy{
			Host: getEnvOrDefault("HOST", DefaultHost),
			Port: DefaultPort,
		},
	}
	if p, err := strconv.Atoi(os.Getenv("PORT")); err == nil && p > 0 {
		cfg.Proxy.Port = p
	}
	return cfg
}

func (c *Config) merge(o *Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.URL, o.URL)
	set(&c.Region, o.Region)
	set(&c.Token, o.Token)
	set(&c.LogLevel, o.LogLevel)
	set(&c.DatabaseURL, o.DatabaseURL)
	set(&c.S3.Region, o.S3.Region)
	set(&c.S3.Endpoint, o.S3.Endpoint)
	set(&c.Proxy.Host, o.Proxy.Host)
	if o.Proxy.Port > 0 {
		c.Proxy.Port = o.Proxy.Port
	}
	if len(o.Fields) > 0 {
		c.Fields = o.Fields
	}
}

// BaseURL returns URL, or the hosted URL of Region.
func (c *Config) BaseURL() string {
	if c.URL != "" {
		return c.URL
	}
	region := c.Region
	if region == "" {
		region = DefaultRegion
	}
	return docai.RegionURL(region)
}

// Addr returns the proxy listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Proxy.Host, c.Proxy.Port)
}

// Validate checks the settings every API call needs.
func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("API token not provided in config file or DOCAI_TOKEN environment variable")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return nil
}

// NewLogger returns a text logger writing to w at the configured level.
func (c *Config) NewLogger(w io.Writer) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level := c.LogLevel
	if level == "" {
		level = DefaultLogLevel
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetLevel(lvl)
	return log, nil
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
