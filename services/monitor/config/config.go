package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// MetricsConfig bounds the in-memory histories
type MetricsConfig struct {
	SnapshotCapacity  int `toml:"SnapshotCapacity"`
	ExecutionCapacity int `toml:"ExecutionCapacity"`
}

// AlertsConfig tunes the alert lifecycle manager and its evaluation cadence
type AlertsConfig struct {
	HistoryCapacity           int    `toml:"HistoryCapacity"`
	NotifyTimeoutInSeconds    uint32 `toml:"NotifyTimeoutInSeconds"`
	EvaluateIntervalInSeconds uint32 `toml:"EvaluateIntervalInSeconds"`
}

// SnapshotPaths holds the JSON paths used to extract each snapshot field from the
// skills service metrics endpoint response
type SnapshotPaths struct {
	ErrorRate      string `toml:"ErrorRate"`
	TimeoutRate    string `toml:"TimeoutRate"`
	P95LatencyMs   string `toml:"P95LatencyMs"`
	AvgLatencyMs   string `toml:"AvgLatencyMs"`
	HourlyCost     string `toml:"HourlyCost"`
	CostSpikeRatio string `toml:"CostSpikeRatio"`
	CacheHitRate   string `toml:"CacheHitRate"`
}

// CollectorConfig points the collector at the skills service
type CollectorConfig struct {
	URL              string        `toml:"URL"`
	TimeoutInSeconds uint32        `toml:"TimeoutInSeconds"`
	Paths            SnapshotPaths `toml:"Paths"`
}

// ArchiveConfig controls the optional SQLite archive
type ArchiveConfig struct {
	Enabled          bool   `toml:"Enabled"`
	DBPath           string `toml:"DBPath"`
	RetentionSeconds int    `toml:"RetentionSeconds"`
}

// PagerConfig configures the paging channel; the routing key comes from the environment
type PagerConfig struct {
	Enabled          bool   `toml:"Enabled"`
	URL              string `toml:"URL"`
	TimeoutInSeconds uint32 `toml:"TimeoutInSeconds"`
}

// ChatConfig configures the team-chat webhook channel
type ChatConfig struct {
	Enabled          bool   `toml:"Enabled"`
	WebhookURL       string `toml:"WebhookURL"`
	TimeoutInSeconds uint32 `toml:"TimeoutInSeconds"`
}

// EmailConfig configures the SMTP channel; the password comes from the environment
type EmailConfig struct {
	Enabled  bool     `toml:"Enabled"`
	Host     string   `toml:"Host"`
	Port     int      `toml:"Port"`
	From     string   `toml:"From"`
	To       []string `toml:"To"`
	Username string   `toml:"Username"`
}

// NotifiersConfig groups the notification channel settings
type NotifiersConfig struct {
	Pager PagerConfig `toml:"Pager"`
	Chat  ChatConfig  `toml:"Chat"`
	Email EmailConfig `toml:"Email"`
}

// Config maps to the config.toml file for the monitor service
type Config struct {
	ListenAddress string          `toml:"ListenAddress"`
	Metrics       MetricsConfig   `toml:"Metrics"`
	Alerts        AlertsConfig    `toml:"Alerts"`
	Collector     CollectorConfig `toml:"Collector"`
	Archive       ArchiveConfig   `toml:"Archive"`
	Notifiers     NotifiersConfig `toml:"Notifiers"`
}

// LoadConfig parses a TOML file into the Config struct
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", filepath, err)
	}

	var cfg Config
	err = toml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return &cfg, nil
}
