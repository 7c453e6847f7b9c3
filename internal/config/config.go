package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	BackendURL       string        `mapstructure:"BACKEND_URL"`
	ListenAddr       string        `mapstructure:"LISTEN_ADDR"`
	DatabasePath     string        `mapstructure:"DATABASE_PATH"`
	ExportDir        string        `mapstructure:"EXPORT_DIR"`
	RequestTimeout   time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	TurnTimeout      time.Duration `mapstructure:"TURN_TIMEOUT"`
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	LogFile          string        `mapstructure:"LOG_FILE"`
	SourceFilename   string        `mapstructure:"SOURCE_FILENAME"`
	RenderedFilename string        `mapstructure:"RENDERED_FILENAME"`
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("BACKEND_URL", "http://localhost:8000/api")
	viper.SetDefault("LISTEN_ADDR", ":8090")
	viper.SetDefault("DATABASE_PATH", defaultDatabasePath())
	viper.SetDefault("EXPORT_DIR", ".")
	viper.SetDefault("REQUEST_TIMEOUT", 30*time.Second)
	viper.SetDefault("TURN_TIMEOUT", time.Duration(0))
	viper.SetDefault("LOG_LEVEL", "INFO")
	viper.SetDefault("LOG_FILE", "")
	viper.SetDefault("SOURCE_FILENAME", "terms-of-service.md")
	viper.SetDefault("RENDERED_FILENAME", "terms-of-service.html")

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".drafter"))
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")

	return &cfg, nil
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "drafter.db"
	}
	return filepath.Join(home, ".local", "share", "drafter", "drafter.db")
}
