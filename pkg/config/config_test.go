package config

import (
	"testing"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessDefaults(t *testing.T) {
	var cfg Config
	require.NoError(t, envconfig.Process("", &cfg))

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 4*time.Hour, cfg.Bot.MaxDuration)
	assert.Equal(t, "llama-3.1-70b-versatile", cfg.Groq.Model)
	assert.Equal(t, 3, cfg.Pipeline.Workers)
	require.NoError(t, cfg.Validate())
}

func TestProcessNestedPrefixes(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("BOT_WEBHOOK_SECRET", "s3cret")
	t.Setenv("SERVER_PUBLIC_URL", "https://notes.example.com")

	var cfg Config
	require.NoError(t, envconfig.Process("", &cfg))

	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "s3cret", cfg.Bot.WebhookSecret)
	assert.Equal(t, "https://notes.example.com/v1/webhooks/bot", cfg.BotWebhookURL())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: true},
		{name: "no workers", mutate: func(c *Config) { c.Pipeline.Workers = 0 }, wantErr: true},
		{name: "production without webhook secret", mutate: func(c *Config) { c.Environment = "production" }, wantErr: true},
		{name: "production with webhook secret", mutate: func(c *Config) {
			c.Environment = "production"
			c.Bot.WebhookSecret = "x"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				Database: DatabaseConfig{Driver: "postgres"},
				Pipeline: PipelineConfig{Workers: 1},
			}
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
