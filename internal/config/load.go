package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppDirName is the per-user directory holding the database and config file.
const AppDirName = ".goblin-messenger"

// Config is a typed snapshot of the loaded settings.
type Config struct {
	StoreType       string
	StorePath       string
	StoreDSN        string
	HTTPTimeout     time.Duration
	SampleDelay     time.Duration
	Verbose         bool
	LogFile         string
	MetricsTextfile string
}

// AppDir returns $HOME/.goblin-messenger, falling back to the working directory.
func AppDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return AppDirName
	}
	return filepath.Join(home, AppDirName)
}

// SetDefaults registers every default on the global viper instance.
func SetDefaults() {
	viper.SetDefault("store.type", "sqlite")
	viper.SetDefault("store.path", filepath.Join(AppDir(), "webhooks.db"))
	viper.SetDefault("store.dsn", "")
	viper.SetDefault("http.timeout", "10s")
	viper.SetDefault("run.sample_delay", "100ms")
	viper.SetDefault("verbose", false)
	viper.SetDefault("log_file", "")
	viper.SetDefault("metrics.textfile", "")
}

// Load initializes the configuration from file and environment variables.
// A missing config file is not an error unless cfgFile names it explicitly.
func Load(cfgFile string) error {
	// .env is optional
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(AppDir())
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("GOBLIN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	SetDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	slog.Debug("using config file", "path", viper.ConfigFileUsed())
	return nil
}

// Current returns the settings as currently resolved by viper.
func Current() Config {
	return Config{
		StoreType:       strings.ToLower(strings.TrimSpace(viper.GetString("store.type"))),
		StorePath:       viper.GetString("store.path"),
		StoreDSN:        viper.GetString("store.dsn"),
		HTTPTimeout:     durationOrZero("http.timeout"),
		SampleDelay:     durationOrZero("run.sample_delay"),
		Verbose:         viper.GetBool("verbose"),
		LogFile:         viper.GetString("log_file"),
		MetricsTextfile: viper.GetString("metrics.textfile"),
	}
}

func durationOrZero(key string) time.Duration {
	d, err := durationValue(key)
	if err != nil {
		return 0
	}
	return d
}
