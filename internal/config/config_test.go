package config

import (
	"testing"
	"time"
)

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := Config{
		App:   AppConfig{Env: "production", Port: 8080, BaseURL: "https://voice.example.com"},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "voice", SSLMode: ""},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret", JWTIssuer: "voice", JWTAudience: "voice"},
	}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "voice", SSLMode: ""},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret"},
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.Voice.Greeting == "" || c.Voice.Goodbye == "" {
		t.Fatalf("expected voice prompt defaults")
	}
	if c.Voice.RecordSeconds != 30 {
		t.Fatalf("expected record seconds default 30, got %d", c.Voice.RecordSeconds)
	}
	if c.OpenAI.RequestTimeout != 8*time.Second {
		t.Fatalf("expected openai timeout default, got %v", c.OpenAI.RequestTimeout)
	}
}

func TestValidate_OpenAIModelDefaultsOnlyWithKey(t *testing.T) {
	c := Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "voice"},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret"},
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.OpenAI.ChatModel != "" {
		t.Fatalf("expected no chat model without api key, got %q", c.OpenAI.ChatModel)
	}

	c.OpenAI.APIKey = "sk-test"
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.OpenAI.ChatModel != "gpt-4o" || c.OpenAI.EmbeddingModel != "text-embedding-3-small" {
		t.Fatalf("expected model defaults with api key")
	}
}

func TestValidate_RecordSecondsBounded(t *testing.T) {
	c := Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "voice"},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret"},
		Voice: VoiceConfig{RecordSeconds: 600},
	}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for oversized record window")
	}
}
