// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like JANUS_WEBHOOK_SIGNING_SECRET
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.SetEnvPrefix("janus")
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, config.<env>.yaml
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig() // ignore error if not found

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads .env from the working directory or the project root so the
// loader behaves the same from cmd/, tests, and the repo root.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up directories looking for go.mod.
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

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "janus"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.MetricsAddress == "" {
		cfg.Server.MetricsAddress = ":9100"
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 10000
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 5000
	}
	if cfg.Pipeline.PermissionStore == "" {
		cfg.Pipeline.PermissionStore = "static"
	}
	if cfg.Pipeline.Safety == (SafetyLimits{}) {
		cfg.Pipeline.Safety = DefaultSafetyLimits()
	}
	if cfg.Sources.API.KeyPrefix == "" {
		cfg.Sources.API.KeyPrefix = "jk_"
	}
	if cfg.Sources.Webhook.SignatureHeader == "" {
		cfg.Sources.Webhook.SignatureHeader = "X-Janus-Signature"
	}
	if cfg.Bus.Backend == "" {
		cfg.Bus.Backend = "memory"
	}
	if cfg.Bus.BufferSize <= 0 {
		cfg.Bus.BufferSize = 64
	}
	if cfg.Bus.ChannelFmt == "" {
		cfg.Bus.ChannelFmt = "janus:events:%s"
	}
	if cfg.Audit.Backend == "" {
		cfg.Audit.Backend = "log"
	}
	if cfg.Database.Elasticsearch.Index == "" {
		cfg.Database.Elasticsearch.Index = "janus-pipeline-audit"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validateConfig(cfg *Config) error {
	if err := cfg.Pipeline.Safety.Validate(); err != nil {
		return fmt.Errorf("pipeline.safety: %w", err)
	}
	switch cfg.Pipeline.PermissionStore {
	case "static", "redis", "postgres":
	default:
		return fmt.Errorf("pipeline.permission_store must be static, redis, or postgres")
	}
	if cfg.Sources.Webhook.Enabled && cfg.Sources.Webhook.SigningSecret == "" {
		return fmt.Errorf("sources.webhook.signing_secret is required when the webhook source is enabled")
	}
	if cfg.Sources.Slack.Enabled && cfg.Sources.Slack.SigningSecret == "" {
		return fmt.Errorf("sources.slack.signing_secret is required when the slack source is enabled")
	}
	switch cfg.Bus.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("bus.backend must be memory or redis")
	}
	return nil
}
