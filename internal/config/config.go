package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const minSecretLen = 32

// Config is read from an optional YAML file, then overridden by environment
// variables so container deployments need no file at all.
type Config struct {
	Addr string `yaml:"addr"`

	// Exactly one of DataDir / DataURL feeds the catalog: a local static
	// tree or a remote base URL.
	DataDir string `yaml:"data_dir"`
	DataURL string `yaml:"data_url"`

	// ProductsFile is where the admin write-back lands. Defaults to the
	// products file inside DataDir; required explicitly when DataURL is
	// used and the admin API is enabled.
	ProductsFile string `yaml:"products_file"`

	// AdminPasswordHash is a bcrypt hash; empty disables the admin API.
	AdminPasswordHash string `yaml:"admin_password_hash"`
	JWTSecret         string `yaml:"jwt_secret"`

	MetricsEnabled bool   `yaml:"metrics_enabled"`
	MetricsToken   string `yaml:"metrics_token"`
}

func Load(path string) (Config, error) {
	cfg := Config{
		Addr:    ":8080",
		DataDir: "./public",
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if cfg.DataURL != "" {
		cfg.DataDir = ""
	}
	if cfg.ProductsFile == "" && cfg.DataDir != "" {
		cfg.ProductsFile = filepath.Join(cfg.DataDir, "data", "products.json")
	}

	return cfg, cfg.validate()
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Addr = ":" + v
	}
	setenv(&cfg.Addr, "ADDR")
	setenv(&cfg.DataDir, "DATA_DIR")
	setenv(&cfg.DataURL, "DATA_URL")
	setenv(&cfg.ProductsFile, "PRODUCTS_FILE")
	setenv(&cfg.AdminPasswordHash, "ADMIN_PASSWORD_HASH")
	setenv(&cfg.JWTSecret, "JWT_SECRET")
	setenv(&cfg.MetricsToken, "METRICS_TOKEN")

	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		cfg.MetricsEnabled = v == "true" || v == "1"
	}
}

func setenv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c Config) validate() error {
	if c.DataDir == "" && c.DataURL == "" {
		return errors.New("one of data_dir or data_url is required")
	}
	if c.AdminPasswordHash != "" {
		if len(c.JWTSecret) < minSecretLen {
			return fmt.Errorf("jwt_secret must be at least %d chars when the admin API is enabled", minSecretLen)
		}
		if c.ProductsFile == "" {
			return errors.New("products_file is required with a remote data_url and the admin API enabled")
		}
	}
	return nil
}

// AdminEnabled reports whether the admin routes should be mounted.
func (c Config) AdminEnabled() bool {
	return c.AdminPasswordHash != ""
}
