// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges configs/config.<APP_ENVIRONMENT>.yaml
// and applies environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	// NOTIFICATIONS_TIMEZONE overrides notifications.timezone
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // ignore error if not found

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads .env from the first location that has one.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				fmt.Printf("Loaded .env from: %s\n", path)
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// Direct override if config values are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
	if cfg.Database.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Database.Redis.Password = val
		}
	}
	if cfg.Push.FCM.ServerKey == "" {
		if val := os.Getenv("FCM_SERVER_KEY"); val != "" {
			cfg.Push.FCM.ServerKey = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "assignment-notifier"
	}

	// Camunda defaults
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	// Database defaults
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	// Notification defaults
	if cfg.Notifications.Timezone == "" {
		cfg.Notifications.Timezone = "America/Los_Angeles"
	}
	if cfg.Notifications.SentinelDate == "" {
		cfg.Notifications.SentinelDate = "1900-01-01"
	}
	if cfg.Notifications.CreatedBy == "" {
		cfg.Notifications.CreatedBy = "system"
	}
	if cfg.Notifications.SuppressionTTL == 0 {
		cfg.Notifications.SuppressionTTL = 7 * 24 * 3600
	}
	if cfg.Notifications.AuditIndex == "" {
		cfg.Notifications.AuditIndex = "notification-audit"
	}
	if cfg.Notifications.DispatchTimeout == 0 {
		cfg.Notifications.DispatchTimeout = 30000
	}
	if cfg.Notifications.ShutdownTimeout == 0 {
		cfg.Notifications.ShutdownTimeout = 10000
	}

	// Push defaults
	if cfg.Push.Provider == "" {
		cfg.Push.Provider = "sns"
	}
	if cfg.Push.Timeout == 0 {
		cfg.Push.Timeout = 10000
	}
	if cfg.Push.FCM.Endpoint == "" {
		cfg.Push.FCM.Endpoint = "https://fcm.googleapis.com/fcm/send"
	}
	if cfg.Push.SNS.Region == "" {
		cfg.Push.SNS.Region = "us-east-1"
	}
	if cfg.Email.Region == "" {
		cfg.Email.Region = cfg.Push.SNS.Region
	}

	// Maintenance defaults
	if cfg.Maintenance.ChatRoomIdleDays == 0 {
		cfg.Maintenance.ChatRoomIdleDays = 30
	}
	if cfg.Maintenance.NotificationLogDays == 0 {
		cfg.Maintenance.NotificationLogDays = 90
	}
	if cfg.Maintenance.LiveCoordinateHours == 0 {
		cfg.Maintenance.LiveCoordinateHours = 24
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = 1
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required when camunda is enabled")
	}

	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}

	if cfg.Database.Elasticsearch.Enabled && cfg.Database.Elasticsearch.GetURL() == "" {
		return fmt.Errorf("database.elasticsearch.addresses or url is required when the audit mirror is enabled")
	}

	if cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}

	if _, err := cfg.Notifications.Location(); err != nil {
		return fmt.Errorf("notifications.timezone: %w", err)
	}
	if _, err := cfg.Notifications.Sentinel(); err != nil {
		return fmt.Errorf("notifications.sentinel_date: %w", err)
	}

	switch cfg.Push.Provider {
	case "sns":
	case "fcm":
		if cfg.Push.FCM.ServerKey == "" {
			return fmt.Errorf("push.fcm.server_key is required for the fcm provider")
		}
	default:
		return fmt.Errorf("push.provider must be sns or fcm, got %q", cfg.Push.Provider)
	}

	if cfg.Email.Enabled && (cfg.Email.FromEmail == "" || len(cfg.Email.Recipients) == 0) {
		return fmt.Errorf("email.from_email and email.recipients are required when email is enabled")
	}

	for name, s := range cfg.Schedules {
		if err := validateSchedule(s); err != nil {
			return fmt.Errorf("schedules.%s: %w", name, err)
		}
	}

	return nil
}

func validateSchedule(s Schedule) error {
	switch s.Kind {
	case "interval":
		if s.Interval <= 0 {
			return fmt.Errorf("interval must be positive")
		}
	case "hourly":
		if s.Minute < 0 || s.Minute > 59 {
			return fmt.Errorf("minute out of range: %d", s.Minute)
		}
	case "daily":
		if s.Hour < 0 || s.Hour > 23 {
			return fmt.Errorf("hour out of range: %d", s.Hour)
		}
		if s.Minute < 0 || s.Minute > 59 {
			return fmt.Errorf("minute out of range: %d", s.Minute)
		}
	default:
		return fmt.Errorf("unknown kind %q", s.Kind)
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}

	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}

// GetSchedule returns the schedule configured for a batch task, or fallback
// when the task has no entry.
func GetSchedule(cfg *Config, task string, fallback Schedule) Schedule {
	if s, exists := cfg.Schedules[task]; exists {
		return s
	}
	return fallback
}
