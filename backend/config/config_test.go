package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "auth:\n  jwt_secret: a-very-long-test-secret\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 48*time.Hour, cfg.Substitution.ExpiryImmediate)
	assert.Equal(t, 7*24*time.Hour, cfg.Substitution.ExpirySpecificDate)
	assert.Equal(t, 14*24*time.Hour, cfg.Substitution.ExpiryDateRange)
	assert.Equal(t, 7*24*time.Hour, cfg.Substitution.ExpiryDefault)
	assert.Equal(t, 2, cfg.Substitution.DailyToggleLimit)
	assert.Equal(t, 3, cfg.Substitution.LockoutThreshold)
	assert.Equal(t, 5, cfg.Substitution.MaxCodeAttempts)
	assert.Equal(t, "log", cfg.Notify.Sink)
	assert.Equal(t, "30 3 * * *", cfg.Notify.PurgeSchedule)
	assert.Equal(t, 30*24*time.Hour, cfg.Notify.Retention)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "auth:\n  jwt_secret: a-very-long-test-secret\nserver:\n  port: 9000\n")
	t.Setenv("PLANTAO_SERVER_PORT", "9100")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
}

func TestLoad_MissingSecret(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8080\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestValidate_WhatsAppNeedsURL(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{Port: 8080},
		Auth:   AuthConfig{JWTSecret: "a-very-long-test-secret"},
		Substitution: SubstitutionConfig{
			DailyToggleLimit: 2,
			LockoutThreshold: 3,
			MaxCodeAttempts:  5,
			Timezone:         "America/Sao_Paulo",
		},
		Notify: NotifyConfig{Sink: "whatsapp"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "whatsapp_url")

	cfg.Notify.WhatsAppURL = "https://graph.example.com/v1/messages"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_BadTimezone(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{Port: 8080},
		Auth:   AuthConfig{JWTSecret: "a-very-long-test-secret"},
		Substitution: SubstitutionConfig{
			DailyToggleLimit: 2,
			LockoutThreshold: 3,
			MaxCodeAttempts:  5,
			Timezone:         "Mars/Olympus",
		},
	}
	assert.Error(t, cfg.Validate())
}

func TestValidate_PurgeSchedule(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{Port: 8080},
		Auth:   AuthConfig{JWTSecret: "a-very-long-test-secret"},
		Substitution: SubstitutionConfig{
			DailyToggleLimit: 2,
			LockoutThreshold: 3,
			MaxCodeAttempts:  5,
			Timezone:         "America/Sao_Paulo",
		},
		Notify: NotifyConfig{PurgeSchedule: "toda noite"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "purge_schedule")

	cfg.Notify.PurgeSchedule = "@daily"
	assert.NoError(t, cfg.Validate())

	cfg.Notify.PurgeSchedule = ""
	assert.NoError(t, cfg.Validate(), "vazio desliga a limpeza")
}

func TestValidate_MaxCodeAttempts(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{Port: 8080},
		Auth:   AuthConfig{JWTSecret: "a-very-long-test-secret"},
		Substitution: SubstitutionConfig{
			DailyToggleLimit: 2,
			LockoutThreshold: 3,
			Timezone:         "America/Sao_Paulo",
		},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_code_attempts")

	cfg.Substitution.MaxCodeAttempts = 5
	assert.NoError(t, cfg.Validate())
}
