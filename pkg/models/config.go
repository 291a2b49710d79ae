package models

import "time"

// StreamConfig controls the synthesis cadence.
type StreamConfig struct {
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// ExportConfig controls where exported event logs are written.
type ExportConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// AlertConfig holds the thresholds used when evaluating demo alerts.
type AlertConfig struct {
	ErrorRatePercent int `yaml:"error_rate_percent" mapstructure:"error_rate_percent"`
	AvgLatencyMs     int `yaml:"avg_latency_ms" mapstructure:"avg_latency_ms"`
	MinEvents        int `yaml:"min_events" mapstructure:"min_events"`
}

// SlackConfig holds Slack webhook settings.
type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// NotificationConfig controls whether alerts are pushed anywhere.
type NotificationConfig struct {
	Enabled bool        `yaml:"enabled" mapstructure:"enabled"`
	Slack   SlackConfig `yaml:"slack" mapstructure:"slack"`
}

// GlobalConfig holds system-wide settings read from .flowpulse.yaml via Viper.
type GlobalConfig struct {
	Stream        StreamConfig       `yaml:"stream" mapstructure:"stream"`
	Export        ExportConfig       `yaml:"export" mapstructure:"export"`
	Alerts        AlertConfig        `yaml:"alerts" mapstructure:"alerts"`
	Notifications NotificationConfig `yaml:"notifications" mapstructure:"notifications"`
}
