/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/josephgoksu/CreditDesk/internal/config"
	"github.com/josephgoksu/CreditDesk/types"
	"github.com/spf13/viper"
)

const (
	configName = "config"
	envPrefix  = "CREDITDESK"
	localDir   = ".creditdesk"
)

// GlobalAppConfig holds the global application configuration instance.
var GlobalAppConfig types.AppConfig

// validate is a single instance of Translate, it caches struct info
var validate = validator.New()

// validateAppConfig performs validation on the AppConfig struct.
func validateAppConfig(cfg *types.AppConfig) error {
	return validate.Struct(cfg)
}

// setDefaults registers every default with viper.
func setDefaults() {
	viper.SetDefault("api.baseURL", config.DefaultBaseURL)
	viper.SetDefault("api.timeoutSeconds", config.DefaultTimeoutSeconds)

	viper.SetDefault("poll.bankerIntervalSeconds", int(config.DefaultBankerInterval.Seconds()))
	viper.SetDefault("poll.clientIntervalSeconds", int(config.DefaultClientInterval.Seconds()))
	viper.SetDefault("poll.focusMinGapMillis", int(config.DefaultFocusMinGap.Milliseconds()))

	viper.SetDefault("render.maxItems", config.DefaultMaxItems)
	viper.SetDefault("render.output", "text")
	viper.SetDefault("cache.size", config.DefaultCacheSize)

	viper.SetDefault("session.file", config.GetSessionPath())
	viper.SetDefault("snapshot.enabled", true)
	viper.SetDefault("policy.enabled", true)
}

// InitConfig reads in config file and ENV variables if set.
func InitConfig() {
	if err := loadConfig(); err != nil {
		HandleFatalError("Configuration invalide. Relancez avec --verbose pour le détail.", err)
	}
}

// loadConfig is InitConfig without the exit, so tests can inspect errors.
func loadConfig() error {
	// A missing .env is fine.
	_ = godotenv.Load()

	viper.SetEnvPrefix(envPrefix) // e.g., CREDITDESK_API_BASEURL
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfgFileFlag := viper.GetString("config")
	if cfgFileFlag != "" {
		viper.SetConfigFile(cfgFileFlag)
	} else {
		viper.SetConfigName(configName)
		viper.SetConfigType("yaml")
		// Project-local config wins over the global one.
		if info, err := os.Stat(localDir); err == nil && info.IsDir() {
			viper.AddConfigPath(localDir)
		}
		if dir, err := config.GetGlobalConfigDir(); err == nil {
			viper.AddConfigPath(dir)
		}
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err == nil {
		LogError("Using config file: "+viper.ConfigFileUsed(), nil)
	} else {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case cfgFileFlag != "" && (errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)):
			return fmt.Errorf("config file not found: %s", cfgFileFlag)
		case errors.As(err, &notFound):
			LogError("No config file found. Using defaults and environment variables.", nil)
		default:
			return fmt.Errorf("read config %s: %w", viper.ConfigFileUsed(), err)
		}
	}

	setDefaults()

	if err := viper.Unmarshal(&GlobalAppConfig); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	if GlobalAppConfig.Session.File != "" && !filepath.IsAbs(GlobalAppConfig.Session.File) {
		if abs, err := filepath.Abs(GlobalAppConfig.Session.File); err == nil {
			GlobalAppConfig.Session.File = abs
		}
	}

	if err := validateAppConfig(&GlobalAppConfig); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

// GetConfig returns a pointer to the global types.AppConfig instance.
func GetConfig() *types.AppConfig {
	return &GlobalAppConfig
}
