// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Push          PushConfig              `mapstructure:"push"`
	Email         EmailConfig             `mapstructure:"email"`
	Schedules     map[string]Schedule     `mapstructure:"schedules"`
	Maintenance   MaintenanceConfig       `mapstructure:"maintenance"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Server        ServerConfig            `mapstructure:"server"`
	Tracing       TracingConfig           `mapstructure:"tracing"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// ElasticsearchConfig configures the optional audit mirror.
type ElasticsearchConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every Zeebe worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Notification pipeline ---

// NotificationConfig holds settings shared by resolvers, dispatcher and audit writer.
type NotificationConfig struct {
	Timezone        string `mapstructure:"timezone"`
	SentinelDate    string `mapstructure:"sentinel_date"` // YYYY-MM-DD
	CreatedBy       string `mapstructure:"created_by"`
	ExcludedGroup   string `mapstructure:"excluded_group"`
	SuppressionTTL  int    `mapstructure:"suppression_ttl"` // seconds
	AuditIndex      string `mapstructure:"audit_index"`
	DispatchTimeout int    `mapstructure:"dispatch_timeout"` // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// Location parses Timezone. An unknown zone is a configuration error.
func (n NotificationConfig) Location() (*time.Location, error) {
	return time.LoadLocation(n.Timezone)
}

// Sentinel parses SentinelDate as midnight UTC.
func (n NotificationConfig) Sentinel() (time.Time, error) {
	return time.Parse("2006-01-02", n.SentinelDate)
}

// PushConfig selects and configures the push gateway.
type PushConfig struct {
	Provider string `mapstructure:"provider"` // sns | fcm
	Timeout  int    `mapstructure:"timeout"`  // milliseconds
	FCM      struct {
		Endpoint  string `mapstructure:"endpoint"`
		ServerKey string `mapstructure:"server_key"`
	} `mapstructure:"fcm"`
	SNS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"sns"`
}

// EmailConfig configures the SES collaborator used by the reassignment scan.
type EmailConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	Region     string   `mapstructure:"region"`
	FromEmail  string   `mapstructure:"from_email"`
	Recipients []string `mapstructure:"recipients"`
}

// Schedule describes when a batch producer runs. Kind is one of
// interval, hourly or daily.
type Schedule struct {
	Enabled  bool   `mapstructure:"enabled"`
	Kind     string `mapstructure:"kind"`
	Interval int    `mapstructure:"interval"` // seconds, kind=interval
	Hour     int    `mapstructure:"hour"`
	Minute   int    `mapstructure:"minute"`
}

// MaintenanceConfig holds retention windows for delete-only scans.
type MaintenanceConfig struct {
	ChatRoomIdleDays    int `mapstructure:"chat_room_idle_days"`
	NotificationLogDays int `mapstructure:"notification_log_days"`
	LiveCoordinateHours int `mapstructure:"live_coordinate_hours"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ServerConfig is the ops HTTP surface.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// TracingConfig configures the Jaeger exporter. Empty endpoint disables tracing export.
type TracingConfig struct {
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}
