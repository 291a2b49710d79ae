// Package core contains the business logic for FlowPulse: event synthesis,
// summarization, import validation, the stream state machine, the scheduled
// synthesis runner, and configuration loading.
package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/valter-silva-au/flowpulse/pkg/models"
)

// ConfigFileName is the config file base name, resolved with a .yaml extension.
const ConfigFileName = ".flowpulse"

// ConfigurationManager defines the interface for loading and validating
// configuration from the .flowpulse.yaml file.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
	ValidateConfig(cfg *models.GlobalConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading YAML configuration files.
type viperConfigManager struct {
	// basePath is the root directory where .flowpulse.yaml resides.
	basePath string
}

// NewConfigurationManager creates a new ConfigurationManager that reads
// configuration files relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultGlobalConfig returns a GlobalConfig populated with sensible defaults.
func DefaultGlobalConfig() *models.GlobalConfig {
	return &models.GlobalConfig{
		Stream: models.StreamConfig{Interval: 900 * time.Millisecond},
		Export: models.ExportConfig{Dir: "."},
		Alerts: models.AlertConfig{
			ErrorRatePercent: 25,
			AvgLatencyMs:     450,
			MinEvents:        10,
		},
	}
}

// LoadGlobalConfig reads .flowpulse.yaml from the base path using Viper.
// If the file does not exist, defaults are returned.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	cfg := DefaultGlobalConfig()

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	v.SetDefault("stream.interval", cfg.Stream.Interval)
	v.SetDefault("export.dir", cfg.Export.Dir)
	v.SetDefault("alerts.error_rate_percent", cfg.Alerts.ErrorRatePercent)
	v.SetDefault("alerts.avg_latency_ms", cfg.Alerts.AvgLatencyMs)
	v.SetDefault("alerts.min_events", cfg.Alerts.MinEvents)
	v.SetDefault("notifications.enabled", false)
	v.SetDefault("notifications.slack.webhook_url", "")

	v.SetEnvPrefix("FLOWPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading %s.yaml: %w", ConfigFileName, err)
		}
	}

	cfg.Stream.Interval = v.GetDuration("stream.interval")
	cfg.Export.Dir = v.GetString("export.dir")
	cfg.Alerts.ErrorRatePercent = v.GetInt("alerts.error_rate_percent")
	cfg.Alerts.AvgLatencyMs = v.GetInt("alerts.avg_latency_ms")
	cfg.Alerts.MinEvents = v.GetInt("alerts.min_events")
	cfg.Notifications.Enabled = v.GetBool("notifications.enabled")
	cfg.Notifications.Slack.WebhookURL = v.GetString("notifications.slack.webhook_url")

	return cfg, nil
}

// ValidateConfig checks the provided configuration for invalid values and
// returns a clear error message identifying every problem.
func (cm *viperConfigManager) ValidateConfig(cfg *models.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if cfg.Stream.Interval <= 0 {
		errs = append(errs, fmt.Sprintf("stream.interval must be positive, got %s", cfg.Stream.Interval))
	}

	if cfg.Export.Dir == "" {
		errs = append(errs, "export.dir must not be empty")
	}

	if cfg.Alerts.ErrorRatePercent < 0 || cfg.Alerts.ErrorRatePercent > 100 {
		errs = append(errs, fmt.Sprintf(
			"alerts.error_rate_percent %d is invalid, must be between 0 and 100",
			cfg.Alerts.ErrorRatePercent,
		))
	}

	if cfg.Alerts.AvgLatencyMs < 0 {
		errs = append(errs, fmt.Sprintf("alerts.avg_latency_ms must be non-negative, got %d", cfg.Alerts.AvgLatencyMs))
	}

	if cfg.Alerts.MinEvents < 0 {
		errs = append(errs, fmt.Sprintf("alerts.min_events must be non-negative, got %d", cfg.Alerts.MinEvents))
	}

	if cfg.Notifications.Enabled && cfg.Notifications.Slack.WebhookURL == "" {
		errs = append(errs, "notifications.slack.webhook_url must be set when notifications are enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
