package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ValidateConfig validates configuration values and returns an error if any are invalid.
// This function should be called after viper has loaded the configuration.
func ValidateConfig() error {
	var errs []string

	storeType := strings.ToLower(strings.TrimSpace(viper.GetString("store.type")))
	switch storeType {
	case "", "sqlite", "sqlite3":
		if strings.TrimSpace(viper.GetString("store.path")) == "" {
			errs = append(errs, "store.path is required for sqlite")
		}
	case "postgres", "postgresql":
		if strings.TrimSpace(viper.GetString("store.dsn")) == "" {
			errs = append(errs, "store.dsn is required for postgres")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.type must be sqlite or postgres, got: %s", storeType))
	}

	for _, key := range []string{"http.timeout", "run.sample_delay"} {
		if msg := checkPositiveDuration(key); msg != "" {
			errs = append(errs, msg)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// checkPositiveDuration reports a problem with key, or "" when it is a positive duration.
func checkPositiveDuration(key string) string {
	if !viper.IsSet(key) {
		return ""
	}
	d, err := durationValue(key)
	if err != nil {
		return fmt.Sprintf("%s must be a duration, got: %q", key, viper.GetString(key))
	}
	if d <= 0 {
		return fmt.Sprintf("%s must be positive, got: %v", key, d)
	}
	return ""
}

// durationValue accepts Go durations ("10s") or bare integers as seconds.
func durationValue(key string) (time.Duration, error) {
	raw := strings.TrimSpace(viper.GetString(key))
	d, err := time.ParseDuration(raw)
	if err == nil {
		return d, nil
	}
	if s, convErr := strconv.Atoi(raw); convErr == nil {
		return time.Duration(s) * time.Second, nil
	}
	return 0, err
}
