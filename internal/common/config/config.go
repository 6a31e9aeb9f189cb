// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Sources  SourcesConfig  `mapstructure:"sources"`
	Audit    AuditConfig    `mapstructure:"audit"`
	Bus      BusConfig      `mapstructure:"bus"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	MetricsAddress  string `mapstructure:"metrics_address"`
	ReadTimeoutMS   int    `mapstructure:"read_timeout"`     // milliseconds
	RequestTimeout  int    `mapstructure:"request_timeout"`  // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
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

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

// --- Pipeline Config ---

// PipelineConfig holds settings shared by every input pipeline instance.
// Safety limits are configuration, not hardcoded constants: different
// deployments want different ceilings.
type PipelineConfig struct {
	PermissionStore string `mapstructure:"permission_store"` // "static", "redis", "postgres"
	// Optional path to a JSON manifest declaring extra capability providers.
	CapabilityManifest string       `mapstructure:"capability_manifest"`
	Safety             SafetyLimits `mapstructure:"safety"`
}

// SafetyLimits bounds what the safety validator accepts.
type SafetyLimits struct {
	MaxTextLength  int `mapstructure:"max_text_length"`
	MaxTotalSize   int `mapstructure:"max_total_size"`
	MaxAttachments int `mapstructure:"max_attachments"`
}

// --- Source Adapter Config ---

type SourcesConfig struct {
	API     APISourceConfig     `mapstructure:"api"`
	Webhook WebhookSourceConfig `mapstructure:"webhook"`
	Slack   SlackSourceConfig   `mapstructure:"slack"`
}

type APISourceConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type WebhookSourceConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	SigningSecret   string `mapstructure:"signing_secret"`
	SignatureHeader string `mapstructure:"signature_header"`
}

type SlackSourceConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	BotToken      string `mapstructure:"bot_token"`
	SigningSecret string `mapstructure:"signing_secret"`
}

// --- Collaborator Config ---

type AuditConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Backend string `mapstructure:"backend"` // "elasticsearch" or "log"
}

type BusConfig struct {
	Backend    string `mapstructure:"backend"` // "memory" or "redis"
	BufferSize int    `mapstructure:"buffer_size"`
	ChannelFmt string `mapstructure:"channel_format"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultSafetyLimits mirror what the safety validator documents as sensible
// ceilings: 10KB of text, 1MB total, 5 attachments.
func DefaultSafetyLimits() SafetyLimits {
	return SafetyLimits{
		MaxTextLength:  10000,
		MaxTotalSize:   1048576,
		MaxAttachments: 5,
	}
}

func (s SafetyLimits) Validate() error {
	if s.MaxTextLength <= 0 {
		return fmt.Errorf("max_text_length must be positive")
	}
	if s.MaxTotalSize < s.MaxTextLength {
		return fmt.Errorf("max_total_size must be >= max_text_length")
	}
	if s.MaxAttachments < 0 {
		return fmt.Errorf("max_attachments must not be negative")
	}
	return nil
}
