package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// Default server settings
	defaultListenAddress   = ":8080"
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultShutdownTimeout = 30 * time.Second

	// Default backend settings
	defaultInfrahubTimeout = 30 * time.Second
	defaultBranchPrefix    = "implement_"

	// Default Kafka settings
	defaultBootstrapServers = "localhost:9092"
	defaultTopicPrefix      = "franc"

	// Default options catalog settings
	defaultRefreshSchedule = "@every 5m"

	// Default monitoring settings
	defaultMetricsPrefix = "franc_portal"
	defaultJobName       = "portal"

	// Default logging settings
	defaultLogLevel  = "info"
	defaultLogFormat = "json"
	defaultLogOutput = "stdout"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Infrahub   InfrahubConfig   `yaml:"infrahub"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Options    OptionsConfig    `yaml:"options"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Simulator  SimulatorConfig  `yaml:"simulator"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	// ListenAddress is the host:port the portal listens on
	ListenAddress string `yaml:"listen_address"`

	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// ShutdownTimeout bounds how long in-flight requests may run after a
	// shutdown signal
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// InfrahubConfig holds the graph backend connection settings
type InfrahubConfig struct {
	// Address of the Infrahub API. The INFRAHUB_ADDRESS environment
	// variable overrides this value.
	Address string `yaml:"address"`

	Timeout time.Duration `yaml:"timeout"`

	// BranchPrefix is prepended to the lowercased change number to form
	// the change branch name
	BranchPrefix string `yaml:"branch_prefix"`
}

// KafkaConfig holds event publishing settings. The KAFKA_ENABLED,
// KAFKA_BOOTSTRAP_SERVERS and KAFKA_TOPIC_PREFIX environment variables
// override the file values.
type KafkaConfig struct {
	Enabled          bool     `yaml:"enabled"`
	BootstrapServers []string `yaml:"bootstrap_servers"`
	TopicPrefix      string   `yaml:"topic_prefix"`
}

// OptionsConfig controls the select-option catalog
type OptionsConfig struct {
	// RefreshSchedule is a cron expression for catalog refreshes
	RefreshSchedule string `yaml:"refresh_schedule"`
}

// MonitoringConfig holds metrics and monitoring settings
type MonitoringConfig struct {
	// PushURL is the remote-write endpoint for push mode. Empty means
	// scrape mode only.
	PushURL       string `yaml:"push_url"`
	MetricsPrefix string `yaml:"metrics_prefix"`
	JobName       string `yaml:"jobname"`
}

// SimulatorConfig controls the task execution simulator
type SimulatorConfig struct {
	// Enabled runs the scripted task simulation after each submission
	Enabled bool `yaml:"enabled"`

	// Instant skips the per-step delays, for tests and demos
	Instant bool `yaml:"instant"`
}

// LoggingConfig defines logging behavior settings
type LoggingConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	Output    string `yaml:"output"`
	AddSource bool   `yaml:"add_source"`
}

// Validate performs basic validation on the configuration
func (c *Config) Validate() error {
	if c.Server.ListenAddress == "" {
		return fmt.Errorf("server listen address is required")
	}
	if c.Infrahub.Address == "" {
		return fmt.Errorf("Infrahub address is required")
	}
	if c.Infrahub.Timeout <= 0 {
		return fmt.Errorf("Infrahub timeout must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.BootstrapServers) == 0 {
		return fmt.Errorf("Kafka bootstrap servers are required when Kafka is enabled")
	}
	return nil
}

// SetDefaults sets reasonable default values for optional fields
func (c *Config) SetDefaults() {
	if c.Server.ListenAddress == "" {
		c.Server.ListenAddress = defaultListenAddress
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = defaultReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = defaultWriteTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = defaultShutdownTimeout
	}
	if c.Infrahub.Timeout == 0 {
		c.Infrahub.Timeout = defaultInfrahubTimeout
	}
	if c.Infrahub.BranchPrefix == "" {
		c.Infrahub.BranchPrefix = defaultBranchPrefix
	}
	if len(c.Kafka.BootstrapServers) == 0 {
		c.Kafka.BootstrapServers = []string{defaultBootstrapServers}
	}
	if c.Kafka.TopicPrefix == "" {
		c.Kafka.TopicPrefix = defaultTopicPrefix
	}
	if c.Options.RefreshSchedule == "" {
		c.Options.RefreshSchedule = defaultRefreshSchedule
	}
	if c.Monitoring.MetricsPrefix == "" {
		c.Monitoring.MetricsPrefix = defaultMetricsPrefix
	}
	if c.Monitoring.JobName == "" {
		c.Monitoring.JobName = defaultJobName
	}
	// Set logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Output == "" {
		c.Logging.Output = defaultLogOutput
	}
	// Defaults for boolean fields are already false, which is appropriate
}

// applyEnvOverrides lets the deployment environment override connection
// settings without editing the config file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("INFRAHUB_ADDRESS"); v != "" {
		c.Infrahub.Address = v
	}
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes", "on":
			c.Kafka.Enabled = true
		default:
			c.Kafka.Enabled = false
		}
	}
	if v := os.Getenv("KAFKA_BOOTSTRAP_SERVERS"); v != "" {
		c.Kafka.BootstrapServers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC_PREFIX"); v != "" {
		c.Kafka.TopicPrefix = v
	}
}

// LoadConfig reads the YAML config file at the given path and returns a Config struct
func LoadConfig(path string) (Config, error) {
	var cfg Config
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, err
	}
	cfg.SetDefaults()
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
