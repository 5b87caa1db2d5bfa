package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env string `yaml:"env"`

	Server struct {
		Port         int           `yaml:"port"`
		ReadTimeout  time.Duration `yaml:"readTimeout"`
		WriteTimeout time.Duration `yaml:"writeTimeout"`
		IdleTimeout  time.Duration `yaml:"idleTimeout"`
	} `yaml:"server"`

	Store StoreConfig `yaml:"store"`

	Model struct {
		Path string `yaml:"path"`
	} `yaml:"model"`

	ModelStore ModelStoreConfig `yaml:"model_store"`

	Log LogConfig `yaml:"log"`
}

// StoreConfig selects the prediction store. Driver is one of mongo,
// postgres, mysql or sqlite; URI is the driver's connection string. An
// empty URI runs the service without a store.
type StoreConfig struct {
	Driver     string        `yaml:"driver"`
	URI        string        `yaml:"uri"`
	Database   string        `yaml:"database"`
	Collection string        `yaml:"collection"`
	Timeout    time.Duration `yaml:"timeout"`
}

type ModelStoreConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	ObjectKey string `yaml:"object_key"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"useSSL"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	cfg := &Config{Env: EnvProduction}
	cfg.Server.Port = 5001
	cfg.Server.ReadTimeout = 15 * time.Second
	cfg.Server.WriteTimeout = 15 * time.Second
	cfg.Server.IdleTimeout = 60 * time.Second
	cfg.Store = StoreConfig{
		Driver:     "mongo",
		URI:        "",
		Database:   "heart_disease_db",
		Collection: "predictions",
		Timeout:    5 * time.Second,
	}
	cfg.Model.Path = "model.json"
	cfg.ModelStore.ObjectKey = "model.json"
	cfg.Log = LogConfig{Level: "info", MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 28}
	return cfg
}

// Load reads the yaml file at path over the defaults, then applies .env and
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, eris.Wrapf(err, "config: read %s", path)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, eris.Wrapf(err, "config: parse %s", path)
			}
		}
	}

	// .env is optional; real environment variables win over it
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return eris.Wrapf(err, "config: PORT %q", v)
		}
		c.Server.Port = port
	}
	if v, ok := lookup("MONGO_URI"); ok && v != "" {
		c.Store.URI = v
	}
	if v, ok := lookup("STORE_DRIVER"); ok && v != "" {
		c.Store.Driver = v
	}
	if v, ok := lookup("STORE_URI"); ok && v != "" {
		c.Store.URI = v
	}
	if v, ok := lookup("FLASK_ENV"); ok && v != "" {
		c.Env = v
	}
	if v, ok := lookup("APP_ENV"); ok && v != "" {
		c.Env = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup("MODEL_STORE_ENDPOINT"); ok && v != "" {
		c.ModelStore.Endpoint = v
	}
	if v, ok := lookup("MODEL_STORE_ACCESS_KEY"); ok && v != "" {
		c.ModelStore.AccessKey = v
	}
	if v, ok := lookup("MODEL_STORE_SECRET_KEY"); ok && v != "" {
		c.ModelStore.SecretKey = v
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return eris.Errorf("config: invalid port %d", c.Server.Port)
	}
	switch c.Store.Driver {
	case "mongo", "postgres", "mysql", "sqlite":
	default:
		return eris.Errorf("config: unsupported store driver %q", c.Store.Driver)
	}
	if c.Store.Timeout <= 0 {
		return eris.Errorf("config: store timeout must be positive, got %s", c.Store.Timeout)
	}
	if c.ModelStore.Endpoint != "" && c.ModelStore.Bucket == "" {
		return eris.New("config: model_store.bucket is required when model_store.endpoint is set")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, EnvDevelopment)
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
