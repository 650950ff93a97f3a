package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("DATABASE_PATH", "test.db")
	os.Setenv("TELEGRAM_BOT_TOKEN", "test-token")
	os.Setenv("OPENAI_API_KEY", "test-key")
	os.Setenv("PORT", "8080")
	defer func() {
		os.Unsetenv("DATABASE_PATH")
		os.Unsetenv("TELEGRAM_BOT_TOKEN")
		os.Unsetenv("OPENAI_API_KEY")
		os.Unsetenv("PORT")
	}()

	cfg := LoadFromEnv()
	assert.NotNil(t, cfg)
	assert.Equal(t, "test.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "test-token", cfg.Telegram.BotToken)
	assert.Equal(t, "test-key", cfg.OpenAI.APIKey)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	os.Unsetenv("DATABASE_PATH")
	os.Unsetenv("OPENAI_MODEL")
	os.Unsetenv("PORT")

	cfg := LoadFromEnv()
	assert.NotNil(t, cfg)
	assert.Equal(t, "receipts.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.False(t, cfg.Twilio.Disabled)
}

func TestLoadFromEnv_DisableTwilio(t *testing.T) {
	os.Setenv("DISABLE_TWILIO", "true")
	defer os.Unsetenv("DISABLE_TWILIO")

	cfg := LoadFromEnv()
	assert.True(t, cfg.Twilio.Disabled)
}

func TestLoadOrEnv_FallbackToEnv(t *testing.T) {
	os.Setenv("DATABASE_PATH", "fallback.db")
	defer os.Unsetenv("DATABASE_PATH")

	// Try to load from non-existent file
	cfg := LoadOrEnv_WithPath("nonexistent.yaml")
	assert.NotNil(t, cfg)
	assert.Equal(t, "fallback.db", cfg.Storage.DatabasePath)
}

func TestEnvVarExpansion(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
storage:
  database_path: "${TEST_DB_PATH}"
telegram:
  bot_token: "${TEST_BOT_TOKEN}"
server:
  port: 9000
`

	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	os.Setenv("TEST_DB_PATH", "expanded.db")
	os.Setenv("TEST_BOT_TOKEN", "expanded-token")
	defer func() {
		os.Unsetenv("TEST_DB_PATH")
		os.Unsetenv("TEST_BOT_TOKEN")
	}()

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "expanded.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "expanded-token", cfg.Telegram.BotToken)
	assert.Equal(t, 9000, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		OpenAI: OpenAIConfig{APIKey: "key"},
		Web:    WebConfig{UploadPassword: "pw"},
		Twilio: TwilioConfig{Disabled: true},
	}
	assert.NoError(t, cfg.Validate())
}

func TestValidate_MissingOpenAIKey(t *testing.T) {
	cfg := &Config{
		Web:    WebConfig{UploadPassword: "pw"},
		Twilio: TwilioConfig{Disabled: true},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestValidate_TwilioRequiredWhenEnabled(t *testing.T) {
	cfg := &Config{
		OpenAI: OpenAIConfig{APIKey: "key"},
		Web:    WebConfig{UploadPassword: "pw"},
		Twilio: TwilioConfig{
			AccountSID:     "sid",
			AuthToken:      "token",
			PhoneNumber:    "+15550001111",
			SenderNumber:   "+15550002222",
			ReceiverNumber: "",
		},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RECEIVER_PHONE_NUMBER")
}
