package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Equal(t, "janus", cfg.App.Name)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, ":9100", cfg.Server.MetricsAddress)
	assert.Equal(t, "static", cfg.Pipeline.PermissionStore)
	assert.Equal(t, DefaultSafetyLimits(), cfg.Pipeline.Safety)
	assert.Equal(t, "jk_", cfg.Sources.API.KeyPrefix)
	assert.Equal(t, "X-Janus-Signature", cfg.Sources.Webhook.SignatureHeader)
	assert.Equal(t, "memory", cfg.Bus.Backend)
	assert.Equal(t, "janus:events:%s", cfg.Bus.ChannelFmt)
	assert.Equal(t, "log", cfg.Audit.Backend)
}

func TestApplyDefaults_DoesNotOverrideExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Address = ":9999"
	cfg.Pipeline.Safety = SafetyLimits{MaxTextLength: 5, MaxTotalSize: 10, MaxAttachments: 1}

	applyDefaults(cfg)

	assert.Equal(t, ":9999", cfg.Server.Address)
	assert.Equal(t, 5, cfg.Pipeline.Safety.MaxTextLength)
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	t.Run("defaults validate", func(t *testing.T) {
		require.NoError(t, validateConfig(valid()))
	})

	t.Run("bad permission store rejected", func(t *testing.T) {
		cfg := valid()
		cfg.Pipeline.PermissionStore = "etcd"
		assert.Error(t, validateConfig(cfg))
	})

	t.Run("webhook enabled without secret rejected", func(t *testing.T) {
		cfg := valid()
		cfg.Sources.Webhook.Enabled = true
		assert.Error(t, validateConfig(cfg))

		cfg.Sources.Webhook.SigningSecret = "s3cret"
		assert.NoError(t, validateConfig(cfg))
	})

	t.Run("slack enabled without secret rejected", func(t *testing.T) {
		cfg := valid()
		cfg.Sources.Slack.Enabled = true
		assert.Error(t, validateConfig(cfg))
	})

	t.Run("bad bus backend rejected", func(t *testing.T) {
		cfg := valid()
		cfg.Bus.Backend = "kafka"
		assert.Error(t, validateConfig(cfg))
	})
}

func TestSafetyLimits_Validate(t *testing.T) {
	assert.NoError(t, DefaultSafetyLimits().Validate())
	assert.Error(t, SafetyLimits{MaxTextLength: 0, MaxTotalSize: 10}.Validate())
	assert.Error(t, SafetyLimits{MaxTextLength: 100, MaxTotalSize: 10}.Validate())
	assert.Error(t, SafetyLimits{MaxTextLength: 10, MaxTotalSize: 100, MaxAttachments: -1}.Validate())
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	dsn := PostgresConfig{
		Host: "db", Port: 5432, Database: "janus", User: "svc", Password: "pw", SSLMode: "disable",
	}.GetDSN()
	assert.Equal(t, "host=db port=5432 user=svc password=pw dbname=janus sslmode=disable", dsn)
}
