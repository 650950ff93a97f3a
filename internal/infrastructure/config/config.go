// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	dbPath := cfg.Storage.DatabasePath
//	botToken := cfg.Telegram.BotToken
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	OpenAI        OpenAIConfig        `yaml:"openai"`
	Telegram      TelegramConfig      `yaml:"telegram"`
	Twilio        TwilioConfig        `yaml:"twilio"`
	Web           WebConfig           `yaml:"web"`
	Storage       StorageConfig       `yaml:"storage"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port int `yaml:"port"`
}

// OpenAIConfig holds OpenAI API configuration
type OpenAIConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// TelegramConfig holds Telegram bot settings. SenderChatID is the chat that
// submits receipts; ReceiverChatID is the chat that receives the summaries.
type TelegramConfig struct {
	BotToken       string `yaml:"bot_token"`
	SenderChatID   string `yaml:"sender_chat_id"`
	ReceiverChatID string `yaml:"receiver_chat_id"`
}

// TwilioConfig holds SMS transport settings
type TwilioConfig struct {
	Disabled       bool   `yaml:"disabled"`
	AccountSID     string `yaml:"account_sid"`
	AuthToken      string `yaml:"auth_token"`
	PhoneNumber    string `yaml:"phone_number"`
	SenderNumber   string `yaml:"sender_number"`
	ReceiverNumber string `yaml:"receiver_number"`
}

// WebConfig holds web upload settings
type WebConfig struct {
	UploadPassword string `yaml:"upload_password"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${OPENAI_API_KEY})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnvInt("PORT", 3000),
		},
		OpenAI: OpenAIConfig{
			APIKey: os.Getenv("OPENAI_API_KEY"),
			Model:  getEnv("OPENAI_MODEL", "gpt-4o"),
		},
		Telegram: TelegramConfig{
			BotToken:       os.Getenv("TELEGRAM_BOT_TOKEN"),
			SenderChatID:   os.Getenv("SENDER_CHAT_ID"),
			ReceiverChatID: os.Getenv("RECEIVER_CHAT_ID"),
		},
		Twilio: TwilioConfig{
			Disabled:       os.Getenv("DISABLE_TWILIO") == "true",
			AccountSID:     os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:      os.Getenv("TWILIO_AUTH_TOKEN"),
			PhoneNumber:    os.Getenv("TWILIO_PHONE_NUMBER"),
			SenderNumber:   os.Getenv("SENDER_PHONE_NUMBER"),
			ReceiverNumber: os.Getenv("RECEIVER_PHONE_NUMBER"),
		},
		Web: WebConfig{
			UploadPassword: os.Getenv("UPLOAD_PASSWORD"),
		},
		Storage: StorageConfig{
			DatabasePath: getEnv("DATABASE_PATH", "receipts.db"),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "text"),
			},
		},
	}
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnv_WithPath("config.yaml")
}

// LoadOrEnv_WithPath tries to load from specified path, falls back to environment variables
func LoadOrEnv_WithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// Validate checks that the settings required to run the server are present.
// Twilio credentials are only required when the SMS transport is enabled.
func (c *Config) Validate() error {
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("missing required setting: OPENAI_API_KEY")
	}
	if c.Web.UploadPassword == "" {
		return fmt.Errorf("missing required setting: UPLOAD_PASSWORD")
	}
	if !c.Twilio.Disabled {
		for name, val := range map[string]string{
			"TWILIO_ACCOUNT_SID":    c.Twilio.AccountSID,
			"TWILIO_AUTH_TOKEN":     c.Twilio.AuthToken,
			"TWILIO_PHONE_NUMBER":   c.Twilio.PhoneNumber,
			"SENDER_PHONE_NUMBER":   c.Twilio.SenderNumber,
			"RECEIVER_PHONE_NUMBER": c.Twilio.ReceiverNumber,
		} {
			if val == "" {
				return fmt.Errorf("missing required setting: %s", name)
			}
		}
	}
	return nil
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}
