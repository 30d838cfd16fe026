package config

import (
	"testing"
	"time"
)

// clearEnv blanks every variable the loader reads so tests observe
// pure defaults regardless of the host environment.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PORT", "READ_TIMEOUT", "READ_HEADER_TIMEOUT", "WRITE_TIMEOUT", "IDLE_TIMEOUT",
		"MAX_HEADER_BYTES", "GIN_MODE", "LOG_LEVEL", "LOG_PRETTY",
		"DB_PATH", "PUBLIC_BASE_URL", "API_BASE_PATH", "UPLOAD_DIR",
		"RATE_RPS", "RATE_BURST", "CORS_ALLOWED_ORIGINS",
		"ENABLE_HSTS", "HSTS_MAX_AGE",
		"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD", "SMTP_FROM", "SMTP_USE_TLS",
		"CONFIRMATION_WINDOW", "AUTO_CONFIRM_AFTER", "CONFIRMATION_LINK_TTL",
		"MAX_MATCH_RESULTS", "MAX_UPLOAD_BYTES",
		"OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_INSECURE",
		"OTEL_SERVICE_NAME", "OTEL_TRACES_SAMPLER_ARG",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Errorf("APIBasePath = %q, want /api/v1", cfg.APIBasePath)
	}
	if cfg.Workflow.AutoConfirmAfter != 48*time.Hour {
		t.Errorf("AutoConfirmAfter = %v, want 48h", cfg.Workflow.AutoConfirmAfter)
	}
	if cfg.Workflow.ConfirmationLinkTTL != 7*24*time.Hour {
		t.Errorf("ConfirmationLinkTTL = %v, want 168h", cfg.Workflow.ConfirmationLinkTTL)
	}
	if cfg.Workflow.MaxUploadBytes != 10<<20 {
		t.Errorf("MaxUploadBytes = %d, want 10MiB", cfg.Workflow.MaxUploadBytes)
	}
	if cfg.SMTP.Port != 587 || !cfg.SMTP.UseTLS {
		t.Errorf("SMTP defaults wrong: %+v", cfg.SMTP)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PUBLIC_BASE_URL", "https://portal.example.de/")
	t.Setenv("AUTO_CONFIRM_AFTER", "72h")
	t.Setenv("LOG_LEVEL", "warning")
	t.Setenv("API_BASE_PATH", "v2/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PublicBase != "https://portal.example.de" {
		t.Errorf("PublicBase = %q, trailing slash should be stripped", cfg.PublicBase)
	}
	if cfg.Workflow.AutoConfirmAfter != 72*time.Hour {
		t.Errorf("AutoConfirmAfter = %v, want 72h", cfg.Workflow.AutoConfirmAfter)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn (normalized)", cfg.LogLevel)
	}
	if cfg.APIBasePath != "/v2" {
		t.Errorf("APIBasePath = %q, want /v2", cfg.APIBasePath)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		key, val string
	}{
		{"LOG_LEVEL", "loud"},
		{"PUBLIC_BASE_URL", "portal.example.de"},
		{"RATE_BURST", "0"},
		{"MAX_MATCH_RESULTS", "0"},
		{"SMTP_PORT", "70000"},
		{"OTEL_TRACES_SAMPLER_ARG", "1.5"},
	}
	for _, c := range cases {
		t.Run(c.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(c.key, c.val)
			if _, err := Load(); err == nil {
				t.Errorf("Load with %s=%s should fail", c.key, c.val)
			}
		})
	}
}
