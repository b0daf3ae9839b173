package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"brick-manager/core/database"
	"brick-manager/core/imagecache"
	"brick-manager/core/logger"
	"brick-manager/core/server"
	"brick-manager/core/storage"
	"brick-manager/feature/catalog"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the object storage backing the image mirror.
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the collection database.
	Database database.Config `mapstructure:"database"`
	// Images holds configuration for the image cache.
	Images imagecache.Config `mapstructure:"images"`
	// Catalog holds configuration for catalog lookups.
	Catalog catalog.Config `mapstructure:"catalog"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. IMAGES_DIR -> images.dir)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate rejects settings the components cannot run with.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Database.Driver) {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Errorf("database.driver: unsupported driver %q", c.Database.Driver))
	}
	if c.Images.Dir == "" {
		errs = append(errs, errors.New("images.dir: required"))
	}
	if c.Images.Workers < 1 {
		errs = append(errs, errors.New("images.workers: must be at least 1"))
	}
	if c.Images.MaxBytes <= 0 {
		errs = append(errs, errors.New("images.max_bytes: must be positive"))
	}
	if c.Images.Mirror && c.Storage.Bucket == "" {
		errs = append(errs, errors.New("storage.bucket: required when images.mirror is enabled"))
	}
	if c.Catalog.BatchSize < 1 {
		errs = append(errs, errors.New("catalog.batch_size: must be at least 1"))
	}

	return errors.Join(errs...)
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
