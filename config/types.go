package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	TMDB     TMDBConfig     `mapstructure:"tmdb"`
	Appwrite AppwriteConfig `mapstructure:"appwrite"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Search   SearchConfig   `mapstructure:"search"`
	Filter   FilterConfig   `mapstructure:"filter"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// TMDBConfig holds the catalog API connection details
type TMDBConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AppwriteConfig holds the backend project and collection identifiers
type AppwriteConfig struct {
	Endpoint           string        `mapstructure:"endpoint"`
	ProjectID          string        `mapstructure:"project_id"`
	DatabaseID         string        `mapstructure:"database_id"`
	SavedCollectionID  string        `mapstructure:"saved_collection_id"`
	SearchCollectionID string        `mapstructure:"search_collection_id"`
	SignInPolicy       string        `mapstructure:"sign_in_policy"`
	SelfSigned         bool          `mapstructure:"self_signed"`
	Timeout            time.Duration `mapstructure:"timeout"`
}

// StorageConfig selects where sessions and search history are kept
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	Dir    string `mapstructure:"dir"`
}

// SearchConfig contains search screen settings
type SearchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
	Kind     string        `mapstructure:"kind"`
}

// FilterConfig contains named filter expressions
type FilterConfig map[string]string

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Color      bool   `mapstructure:"color"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}
