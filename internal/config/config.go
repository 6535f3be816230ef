package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"cocreview/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Storage    StorageConfig
	Extraction ExtractionConfig
	Auth       AuthConfig
	Profiling  ProfilingConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver       string
	URL          string
	MaxOpenConns int
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port          string
	GinMode       string
	SessionCookie string
}

// StorageConfig holds uploaded PDF storage settings
type StorageConfig struct {
	UploadDir   string
	MaxUploadMB int64
}

// ExtractionConfig holds extraction service settings
type ExtractionConfig struct {
	URL           string
	APIKey        string
	Timeout       time.Duration
	MaxConcurrent int
	// HeuristicFallback routes OCR-only responses to the local regex
	// extractor.
	HeuristicFallback bool
}

// AuthConfig holds session and bootstrap account settings
type AuthConfig struct {
	SessionTTL             time.Duration
	BcryptCost             int
	BootstrapAdminEmail    string
	BootstrapAdminPassword string
	BootstrapLabName       string
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// Load reads configuration from the optional file named by COC_CONFIG, then
// environment variables, and validates it.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("COC_CONFIG"))
}

// LoadFile is Load with an explicit config file path. An empty path skips
// the file layer.
func LoadFile(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	config := &Config{
		Database: DatabaseConfig{
			Driver:       strings.ToLower(v.GetString("database.driver")),
			URL:          v.GetString("database.url"),
			MaxOpenConns: v.GetInt("database.max_open_conns"),
		},
		Server: ServerConfig{
			Port:          v.GetString("server.port"),
			GinMode:       v.GetString("server.gin_mode"),
			SessionCookie: v.GetString("server.session_cookie"),
		},
		Storage: StorageConfig{
			UploadDir:   v.GetString("storage.upload_dir"),
			MaxUploadMB: v.GetInt64("storage.max_upload_mb"),
		},
		Extraction: ExtractionConfig{
			URL:               v.GetString("extraction.url"),
			APIKey:            v.GetString("extraction.api_key"),
			Timeout:           v.GetDuration("extraction.timeout"),
			MaxConcurrent:     v.GetInt("extraction.max_concurrent"),
			HeuristicFallback: v.GetBool("extraction.heuristic_fallback"),
		},
		Auth: AuthConfig{
			SessionTTL:             v.GetDuration("auth.session_ttl"),
			BcryptCost:             v.GetInt("auth.bcrypt_cost"),
			BootstrapAdminEmail:    v.GetString("auth.bootstrap_admin_email"),
			BootstrapAdminPassword: v.GetString("auth.bootstrap_admin_password"),
			BootstrapLabName:       v.GetString("auth.bootstrap_lab_name"),
		},
		Profiling: ProfilingConfig{
			Port:    v.GetString("pprof.port"),
			Enabled: v.GetBool("pprof.enabled"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

// newViper maps nested keys onto the flat environment names, so
// database.url reads DATABASE_URL.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.gin_mode", "debug")
	v.SetDefault("server.session_cookie", "coc_session")
	v.SetDefault("storage.upload_dir", "./uploads")
	v.SetDefault("storage.max_upload_mb", 25)
	v.SetDefault("extraction.url", "")
	v.SetDefault("extraction.api_key", "")
	v.SetDefault("extraction.timeout", 2*time.Minute)
	v.SetDefault("extraction.max_concurrent", 4)
	v.SetDefault("extraction.heuristic_fallback", true)
	v.SetDefault("auth.session_ttl", 12*time.Hour)
	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("auth.bootstrap_admin_email", "")
	v.SetDefault("auth.bootstrap_admin_password", "")
	v.SetDefault("auth.bootstrap_lab_name", "Default Lab")
	v.SetDefault("pprof.port", "6060")
	v.SetDefault("pprof.enabled", false)
	return v
}

func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case "postgres", "sqlite":
	default:
		return errors.ConfigInvalid("DATABASE_DRIVER must be postgres or sqlite")
	}
	if config.Database.URL == "" {
		return errors.ConfigInvalid("DATABASE_URL is required")
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("SERVER_PORT is required")
	}
	if config.Extraction.MaxConcurrent < 1 {
		return errors.ConfigInvalid("EXTRACTION_MAX_CONCURRENT must be at least 1")
	}
	if config.Extraction.Timeout <= 0 {
		return errors.ConfigInvalid("EXTRACTION_TIMEOUT must be positive")
	}
	if config.Auth.SessionTTL <= 0 {
		return errors.ConfigInvalid("AUTH_SESSION_TTL must be positive")
	}
	if config.Storage.MaxUploadMB < 1 {
		return errors.ConfigInvalid("STORAGE_MAX_UPLOAD_MB must be at least 1")
	}
	return nil
}
