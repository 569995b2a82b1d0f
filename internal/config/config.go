// Package config provides application configuration management.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/oszuidwest/minnal/internal/types"
)

// DatabaseConfig contains PostgreSQL database connection parameters.
type DatabaseConfig struct {
	Host            string `yaml:"host" validate:"required"`                                                             // Database host address
	Port            string `yaml:"port" validate:"required,numeric"`                                                     // Database port number
	Name            string `yaml:"name" validate:"required"`                                                             // Database name
	User            string `yaml:"user" validate:"required"`                                                             // Database username
	Password        string `yaml:"password" validate:"required"`                                                         // Database password
	Schema          string `yaml:"schema" validate:"required"`                                                           // Schema the function is installed in (typically "public")
	SSLMode         string `yaml:"sslmode" validate:"required,oneof=disable allow prefer require verify-ca verify-full"` // SSL connection mode
	MaxOpenConns    int    `yaml:"max_open_conns" validate:"gte=0"`                                                      // Maximum number of open connections (default: 5)
	MaxIdleConns    int    `yaml:"max_idle_conns" validate:"gte=0"`                                                      // Maximum number of idle connections (default: 2)
	ConnMaxLifetime int    `yaml:"conn_max_lifetime" validate:"gte=0"`                                                   // Connection max lifetime in minutes (default: 5)
	ConnectRetries  int    `yaml:"connect_retries" validate:"gte=0"`                                                     // Ping attempts before giving up (default: 5)
}

// APIConfig contains API authentication and server settings.
// When enabled, the /api/extension endpoints require a valid API key in the X-API-Key header.
type APIConfig struct {
	Enabled        bool     `yaml:"enabled"`                                  // Whether API key authentication is enabled
	Keys           []string `yaml:"keys" validate:"required_if=Enabled true"` // List of valid API keys
	RequestTimeout int      `yaml:"request_timeout" validate:"gte=0"`         // Request timeout in seconds (default: 30)
}

// WatcherConfig contains settings for the scheduled installation check.
type WatcherConfig struct {
	Enabled          bool   `yaml:"enabled"`            // Whether the watcher runs while serving
	Schedule         string `yaml:"schedule"`           // Cron expression (default: every 15 minutes)
	Timezone         string `yaml:"timezone"`           // IANA timezone for the schedule (default: local)
	ReinstallOnDrift bool   `yaml:"reinstall_on_drift"` // Reinstall when the installed version differs from the build
}

// Config represents the complete application configuration loaded from YAML.
// The zero value is not usable; use Load.
type Config struct {
	Database DatabaseConfig `yaml:"database"` // Database connection settings
	API      APIConfig      `yaml:"api"`      // API authentication settings
	Watcher  WatcherConfig  `yaml:"watcher"`  // Installation watcher settings
}

// Default configuration values
const (
	DefaultMaxOpenConns    = 5
	DefaultMaxIdleConns    = 2
	DefaultConnMaxLifetime = 5 // minutes
	DefaultConnectRetries  = 5
	DefaultRequestTimeout  = 30 // seconds
	DefaultSchedule        = "*/15 * * * *"
	DefaultConfigFile      = "config.yaml"
	DefaultEnvFile         = ".env"
)

// Environment variables that override values from the configuration file.
const (
	EnvDBHost     = "MINNAL_DB_HOST"
	EnvDBPort     = "MINNAL_DB_PORT"
	EnvDBName     = "MINNAL_DB_NAME"
	EnvDBUser     = "MINNAL_DB_USER"
	EnvDBPassword = "MINNAL_DB_PASSWORD"
	EnvDBSchema   = "MINNAL_DB_SCHEMA"
	EnvDBSSLMode  = "MINNAL_DB_SSLMODE"
)

// GetMaxOpenConns returns the max open connections, using default if not configured.
func (c *DatabaseConfig) GetMaxOpenConns() int {
	if c.MaxOpenConns <= 0 {
		return DefaultMaxOpenConns
	}
	return c.MaxOpenConns
}

// GetMaxIdleConns returns the max idle connections, using default if not configured.
func (c *DatabaseConfig) GetMaxIdleConns() int {
	if c.MaxIdleConns <= 0 {
		return DefaultMaxIdleConns
	}
	return c.MaxIdleConns
}

// GetConnMaxLifetime returns the connection max lifetime.
func (c *DatabaseConfig) GetConnMaxLifetime() time.Duration {
	if c.ConnMaxLifetime <= 0 {
		return time.Duration(DefaultConnMaxLifetime) * time.Minute
	}
	return time.Duration(c.ConnMaxLifetime) * time.Minute
}

// GetConnectRetries returns the number of ping attempts when connecting.
func (c *DatabaseConfig) GetConnectRetries() int {
	if c.ConnectRetries <= 0 {
		return DefaultConnectRetries
	}
	return c.ConnectRetries
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		quoteDSN(c.Host), quoteDSN(c.Port), quoteDSN(c.User), quoteDSN(c.Password), quoteDSN(c.Name), quoteDSN(c.SSLMode))
}

// quoteDSN quotes a key/value connection string value when it contains spaces or quotes.
func quoteDSN(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

// GetRequestTimeout returns the request timeout duration.
func (c *APIConfig) GetRequestTimeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return time.Duration(DefaultRequestTimeout) * time.Second
	}
	return time.Duration(c.RequestTimeout) * time.Second
}

// GetSchedule returns the cron schedule, using default if not configured.
func (c *WatcherConfig) GetSchedule() string {
	if c.Schedule == "" {
		return DefaultSchedule
	}
	return c.Schedule
}

// Load loads and validates application configuration from a YAML file.
// If configPath is empty, it attempts to load "config.yaml" from the current directory.
// A ".env" file next to the working directory is loaded first when present, and
// MINNAL_DB_* environment variables override the file values.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("lezen van %s mislukt: %w", DefaultEnvFile, err)
	}

	if configPath == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			configPath = DefaultConfigFile
		} else {
			return nil, fmt.Errorf("configuratiebestand %s niet gevonden", DefaultConfigFile)
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("lezen van configuratiebestand mislukt: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration data, applies environment overrides and validates the result.
func Parse(data []byte) (*Config, error) {
	config := &Config{}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("fout in configuratiebestand: %w", err)
	}

	applyEnv(config)

	if err := validate(config); err != nil {
		return nil, fmt.Errorf("configuratie is onvolledig: %w", err)
	}

	return config, nil
}

func applyEnv(config *Config) {
	overrides := map[string]*string{
		EnvDBHost:     &config.Database.Host,
		EnvDBPort:     &config.Database.Port,
		EnvDBName:     &config.Database.Name,
		EnvDBUser:     &config.Database.User,
		EnvDBPassword: &config.Database.Password,
		EnvDBSchema:   &config.Database.Schema,
		EnvDBSSLMode:  &config.Database.SSLMode,
	}
	for env, field := range overrides {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			*field = v
		}
	}
}

var validate = func() func(*Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		return name
	})

	return func(config *Config) error {
		var missing []string

		if err := v.Struct(config); err != nil {
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				return err
			}
			for _, fe := range verrs {
				missing = append(missing, fieldPath(fe))
			}
		}

		if len(missing) > 0 {
			return fmt.Errorf("configuratie mist de volgende velden: %v", missing)
		}

		// Validate schema name for SQL safety
		if !types.IsValidIdentifier(config.Database.Schema) {
			return &types.ConfigurationError{Field: "database.schema", Message: "bevat ongeldige tekens"}
		}

		if config.Watcher.Timezone != "" {
			if _, err := time.LoadLocation(config.Watcher.Timezone); err != nil {
				return &types.ConfigurationError{Field: "watcher.timezone", Message: err.Error()}
			}
		}

		return nil
	}
}()

// fieldPath turns "Config.database.host" into "database.host".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		ns = rest
	}
	if fe.Tag() == "required" || fe.Tag() == "required_if" {
		return ns
	}
	return fmt.Sprintf("%s (%s)", ns, fe.Tag())
}
