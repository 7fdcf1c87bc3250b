package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/s0up4200/marquee/backend"
	"github.com/s0up4200/marquee/kvstore"
	"github.com/s0up4200/marquee/tmdb"
)

// EnvPrefix is prepended to every environment override, e.g. MARQUEE_TMDB_API_KEY
const EnvPrefix = "MARQUEE"

// keys that may only come from the environment or .env
var envKeys = []string{
	"tmdb.base_url",
	"tmdb.api_key",
	"appwrite.endpoint",
	"appwrite.project_id",
	"appwrite.database_id",
	"appwrite.saved_collection_id",
	"appwrite.search_collection_id",
	"appwrite.sign_in_policy",
	"appwrite.self_signed",
	"storage.driver",
	"storage.dir",
	"search.kind",
	"search.debounce",
	"logging.level",
	"logging.format",
	"logging.file",
}

// Load loads the configuration from .env, the config file and the environment.
// The config file is optional; an explicit configPath must exist.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env: %w", err)
	}

	v := viper.New()

	// Set default values
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", key, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "marquee"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Catalog defaults
	v.SetDefault("tmdb.base_url", tmdb.DefaultBaseURL)
	v.SetDefault("tmdb.timeout", "15s")

	// Backend defaults
	v.SetDefault("appwrite.sign_in_policy", string(backend.PolicyReplace))
	v.SetDefault("appwrite.timeout", "15s")

	// Storage defaults
	v.SetDefault("storage.driver", kvstore.DriverSQLite)
	v.SetDefault("storage.dir", defaultStorageDir())

	// Search defaults
	v.SetDefault("search.debounce", "500ms")
	v.SetDefault("search.kind", string(tmdb.KindMovie))

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
}

func defaultStorageDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "marquee")
	}
	return ".marquee"
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.TMDB.BaseURL == "" {
		return fmt.Errorf("tmdb.base_url is required")
	}

	if cfg.TMDB.APIKey == "" || cfg.TMDB.APIKey == "your-api-key-here" {
		return fmt.Errorf("tmdb.api_key must be set to a valid API key")
	}

	required := []struct{ key, value string }{
		{"appwrite.endpoint", cfg.Appwrite.Endpoint},
		{"appwrite.project_id", cfg.Appwrite.ProjectID},
		{"appwrite.database_id", cfg.Appwrite.DatabaseID},
		{"appwrite.saved_collection_id", cfg.Appwrite.SavedCollectionID},
		{"appwrite.search_collection_id", cfg.Appwrite.SearchCollectionID},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%s is required", r.key)
		}
	}

	if _, err := backend.ParseSignInPolicy(cfg.Appwrite.SignInPolicy); err != nil {
		return fmt.Errorf("invalid appwrite.sign_in_policy: %w", err)
	}

	switch cfg.Storage.Driver {
	case kvstore.DriverSQLite, kvstore.DriverFile:
	default:
		return fmt.Errorf("invalid storage.driver: %s (must be '%s' or '%s')", cfg.Storage.Driver, kvstore.DriverSQLite, kvstore.DriverFile)
	}

	if _, err := tmdb.ParseMediaKind(cfg.Search.Kind); err != nil {
		return fmt.Errorf("invalid search.kind: %w", err)
	}

	if cfg.Search.Debounce < 0 {
		return fmt.Errorf("search.debounce must not be negative")
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}
