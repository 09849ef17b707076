package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

type EngineConfig struct {
	Binary       string   `mapstructure:"binary"`
	RetryCount   int      `mapstructure:"retry_count"`
	RetryWaitSec int      `mapstructure:"retry_wait_sec"`
	Threads      int      `mapstructure:"threads"`
	ExcludeFiles []string `mapstructure:"exclude_files"`
	ExcludeDirs  []string `mapstructure:"exclude_dirs"`
	TimeoutMin   int      `mapstructure:"timeout_min"`
}

// SeverityRule maps all overall codes up to and including Max to Band.
// Rules are evaluated in ascending Max order; the first match wins.
type SeverityRule struct {
	Max  int    `mapstructure:"max"`
	Band string `mapstructure:"band"`
}

type Config struct {
	LogRoot           string         `mapstructure:"log_root"`
	RetentionDays     int            `mapstructure:"retention_days"`
	AlertAPIURL       string         `mapstructure:"alert_api_url"`
	AlertAPIKey       string         `mapstructure:"alert_api_key"`
	AlertResponders   []string       `mapstructure:"alert_responders"`
	DBPath            string         `mapstructure:"db_path"`
	ServePort         int            `mapstructure:"serve_port"`
	CapacityWarnRatio float64        `mapstructure:"capacity_warn_ratio"`
	SourceShare       string         `mapstructure:"source_share"`
	SourceProfile     string         `mapstructure:"source_profile"`
	DestShare         string         `mapstructure:"dest_share"`
	DestProfile       string         `mapstructure:"dest_profile"`
	Engine            EngineConfig   `mapstructure:"engine"`
	SeverityRules     []SeverityRule `mapstructure:"severity_rules"`
}

var Default = Config{
	LogRoot:           "/var/log/locmirror",
	RetentionDays:     30,
	DBPath:            "locmirror.db",
	ServePort:         9301,
	CapacityWarnRatio: 0.10,
	SourceShare:       "/srv/share",
	SourceProfile:     "/srv/profiles",
	DestShare:         "/mnt/mirror/loc{code}/share",
	DestProfile:       "/mnt/mirror/loc{code}/profiles",
	Engine: EngineConfig{
		Binary:       "robocopy",
		RetryCount:   3,
		RetryWaitSec: 30,
		Threads:      8,
		ExcludeFiles: []string{"~$*", "*.tmp", "Thumbs.db", "desktop.ini"},
		ExcludeDirs:  []string{"$RECYCLE.BIN", "System Volume Information"},
		TimeoutMin:   360,
	},
	SeverityRules: []SeverityRule{
		{Max: 1, Band: "success"},
		{Max: 7, Band: "warning"},
	},
}

func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home dir: %w", err)
	}

	configDir := filepath.Join(home, ".locmirror")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config dir: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)

	viper.SetDefault("log_root", Default.LogRoot)
	viper.SetDefault("retention_days", Default.RetentionDays)
	viper.SetDefault("db_path", Default.DBPath)
	viper.SetDefault("serve_port", Default.ServePort)
	viper.SetDefault("capacity_warn_ratio", Default.CapacityWarnRatio)
	viper.SetDefault("source_share", Default.SourceShare)
	viper.SetDefault("source_profile", Default.SourceProfile)
	viper.SetDefault("dest_share", Default.DestShare)
	viper.SetDefault("dest_profile", Default.DestProfile)
	viper.SetDefault("engine.binary", Default.Engine.Binary)
	viper.SetDefault("engine.retry_count", Default.Engine.RetryCount)
	viper.SetDefault("engine.retry_wait_sec", Default.Engine.RetryWaitSec)
	viper.SetDefault("engine.threads", Default.Engine.Threads)
	viper.SetDefault("engine.exclude_files", Default.Engine.ExcludeFiles)
	viper.SetDefault("engine.exclude_dirs", Default.Engine.ExcludeDirs)
	viper.SetDefault("engine.timeout_min", Default.Engine.TimeoutMin)
	viper.SetDefault("severity_rules", []map[string]any{
		{"max": 1, "band": "success"},
		{"max": 7, "band": "warning"},
	})

	viper.SetEnvPrefix("LOCMIRROR")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if ok := errors.As(err, &notFound); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
