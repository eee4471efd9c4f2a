package config

import (
	"os"
	"testing"
	"time"
)

// clearEnv unsets the given variables for the test, restoring their
// previous values afterwards.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok {
			t.Setenv(key, value)
			os.Unsetenv(key)
		}
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t,
		"ENV", "SERVER_PORT", "DB_HOST", "DB_PORT", "DB_NAME",
		"JWT_TTL_HOURS", "SMTP_PORT", "SMTP_USE_TLS",
		"RESET_CODE_VALIDITY_MINUTES", "RATE_LIMIT_REQUESTS",
		"RATE_LIMIT_WINDOW_SECONDS", "MQ_EMAIL_QUEUE", "MINIO_BUCKET",
		"PUBSUB_SUBSCRIPTION_SUFFIX", "LOG_LEVEL", "LOG_FORMAT",
	)

	cfg := LoadConfig()

	if cfg.ServerPort != 5000 {
		t.Errorf("ServerPort = %d, want 5000", cfg.ServerPort)
	}
	if cfg.Database.Host != "localhost" || cfg.Database.Port != 5432 {
		t.Errorf("database defaults = %s:%d", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.Database.DBName != "lamarato_db" {
		t.Errorf("DBName = %q", cfg.Database.DBName)
	}
	if cfg.JWT.TokenTTL != 672*time.Hour {
		t.Errorf("TokenTTL = %v, want 672h", cfg.JWT.TokenTTL)
	}
	if cfg.SMTP.Port != 587 || !cfg.SMTP.UseTLS {
		t.Errorf("SMTP defaults = port %d, tls %v", cfg.SMTP.Port, cfg.SMTP.UseTLS)
	}
	if cfg.Reset.CodeValidityMinutes != 15 {
		t.Errorf("CodeValidityMinutes = %d, want 15", cfg.Reset.CodeValidityMinutes)
	}
	if cfg.RateLimit.Requests != 100 || cfg.RateLimit.Window != time.Minute {
		t.Errorf("rate limit defaults = %d per %v", cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}
	if cfg.Logs.Level != "info" || cfg.Logs.Format != "text" {
		t.Errorf("log defaults = %s/%s", cfg.Logs.Level, cfg.Logs.Format)
	}
	if cfg.MQ.EmailQueue != "emails" {
		t.Errorf("EmailQueue = %q", cfg.MQ.EmailQueue)
	}
	if cfg.Minio.Bucket != "lamarato-reports" {
		t.Errorf("Minio.Bucket = %q", cfg.Minio.Bucket)
	}
	if cfg.PubSub.SubscriptionSuffix != "-sub" {
		t.Errorf("SubscriptionSuffix = %q", cfg.PubSub.SubscriptionSuffix)
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	clearEnv(t, "ENV")
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("DB_SSL", "true")
	t.Setenv("JWT_TTL_HOURS", "1")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("MQ_BACKEND", "rabbitmq")
	t.Setenv("RATE_LIMIT_WINDOW_SECONDS", "5")

	cfg := LoadConfig()

	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want 8080", cfg.ServerPort)
	}
	if !cfg.Database.UseSSL {
		t.Error("DB_SSL=true not applied")
	}
	if cfg.JWT.TokenTTL != time.Hour {
		t.Errorf("TokenTTL = %v, want 1h", cfg.JWT.TokenTTL)
	}
	if cfg.Logs.Format != "json" {
		t.Errorf("Logs.Format = %q", cfg.Logs.Format)
	}
	if cfg.MQ.Backend != "rabbitmq" {
		t.Errorf("MQ.Backend = %q", cfg.MQ.Backend)
	}
	if cfg.RateLimit.Window != 5*time.Second {
		t.Errorf("RateLimit.Window = %v", cfg.RateLimit.Window)
	}
}

func TestLoadConfigSMTPFromFallsBackToUsername(t *testing.T) {
	clearEnv(t, "ENV", "SMTP_FROM")
	t.Setenv("SMTP_USERNAME", "relay@example.com")

	cfg := LoadConfig()

	if cfg.SMTP.From != "relay@example.com" {
		t.Errorf("SMTP.From = %q, want the username fallback", cfg.SMTP.From)
	}
}

func TestGetEnvBoolRejectsGarbage(t *testing.T) {
	t.Setenv("DB_SSL", "potser")

	if getEnvBool("DB_SSL", true) != true {
		t.Error("unparsable value should keep the default")
	}
	if getEnvBool("DB_SSL", false) != false {
		t.Error("unparsable value should keep the default")
	}
}
