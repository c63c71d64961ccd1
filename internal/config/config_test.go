package config

import (
	"strings"
	"testing"
	"time"
)

func validLocal() Config {
	return Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "missedcall"},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret"},
	}
}

func TestLoad_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLModeAndBaseURL(t *testing.T) {
	c := validLocal()
	c.App.Env = "production"
	c.Auth.JWTIssuer, c.Auth.JWTAudience = "iss", "aud"
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected errors for production defaults")
	}
	for _, want := range []string{"DB_SSLMODE", "PUBLIC_BASE_URL"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %s in %v", want, err)
		}
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := validLocal()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.OTP.RateLimit != 3 || c.OTP.RateWindow != 10*time.Minute || c.OTP.TTL != 10*time.Minute {
		t.Fatalf("unexpected otp defaults %+v", c.OTP)
	}
	if c.Scheduling.SlotIntervalMinutes != 30 || c.Twilio.CredentialsCacheTTL != time.Minute {
		t.Fatalf("unexpected defaults %+v %+v", c.Scheduling, c.Twilio)
	}
	if c.App.PublicBaseURL != "http://localhost:8080" || c.Location() != time.UTC {
		t.Fatalf("unexpected app defaults %+v", c.App)
	}
}

func TestValidate_PairedSettings(t *testing.T) {
	c := validLocal()
	c.Twilio.AccountSID = "AC1"
	c.Audio.S3Bucket = "audio"
	c.Scheduling.SlotIntervalMinutes = 7
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected errors")
	}
	for _, want := range []string{"TWILIO_AUTH_TOKEN", "TTS_ENDPOINT", "SLOT_INTERVAL_MINUTES"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %s in %v", want, err)
		}
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_PORT", "9000")
	t.Setenv("APP_TIMEZONE", "America/Chicago")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "p@ss")
	t.Setenv("DB_NAME", "missedcall")
	t.Setenv("DB_AUTO_MIGRATE", "true")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("OTP_RATE_LIMIT", "5")
	t.Setenv("IVR_GATHER_TIMEOUT", "5s")

	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !c.DB.AutoMigrate || c.OTP.RateLimit != 5 || c.Scheduling.IVRGatherTimeout != 5*time.Second {
		t.Fatalf("unexpected config %+v", c)
	}
	if c.Location().String() != "America/Chicago" {
		t.Fatalf("unexpected location %s", c.Location())
	}
	if got := c.MigrateURL(); got != "postgres://app:p%40ss@db:5432/missedcall?sslmode=disable" {
		t.Fatalf("unexpected migrate url %s", got)
	}
}

func TestLoad_BadInt(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_PORT", "eighty")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("REDIS_PORT", "6379")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "APP_PORT") {
		t.Fatalf("expected APP_PORT error, got %v", err)
	}
}
