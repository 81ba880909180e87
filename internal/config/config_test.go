package config

import (
	"testing"
	"time"
)

func TestConfig_Defaults(t *testing.T) {
	for _, key := range []string{"PREDICTION_DEBOUNCE", "SUGGESTION_STAGGER", "CONFIRM_COUNTDOWN", "DRAFT_IDLE_TTL", "CORS_ORIGINS", "AUTO_MIGRATE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.PredictionDebounce != 800*time.Millisecond {
		t.Errorf("PredictionDebounce = %v, want 800ms", cfg.PredictionDebounce)
	}
	if cfg.SuggestionStagger != 200*time.Millisecond {
		t.Errorf("SuggestionStagger = %v, want 200ms", cfg.SuggestionStagger)
	}
	if cfg.ConfirmCountdown != 5*time.Second {
		t.Errorf("ConfirmCountdown = %v, want 5s", cfg.ConfirmCountdown)
	}
	if cfg.DraftIdleTTL != 30*time.Minute {
		t.Errorf("DraftIdleTTL = %v, want 30m", cfg.DraftIdleTTL)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins = %v, want [*]", cfg.CORSOrigins)
	}
	if !cfg.AutoMigrate {
		t.Error("AutoMigrate should default to true")
	}
}

func TestConfig_FromEnv(t *testing.T) {
	t.Setenv("PREDICTION_DEBOUNCE", "1s")
	t.Setenv("SUGGESTION_STAGGER", "150")
	t.Setenv("CORS_ORIGINS", "https://app.example.com, https://admin.example.com")
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("HTTP_PORT", "8080")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.PredictionDebounce != time.Second {
		t.Errorf("PredictionDebounce = %v, want 1s", cfg.PredictionDebounce)
	}
	if cfg.SuggestionStagger != 150*time.Millisecond {
		t.Errorf("SuggestionStagger = %v, want 150ms", cfg.SuggestionStagger)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://admin.example.com" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.AutoMigrate {
		t.Error("AutoMigrate should be false")
	}
	if cfg.HTTPPort != 8080 {
		t.Errorf("HTTPPort = %d, want 8080", cfg.HTTPPort)
	}
}

func TestConfig_BadDurationKeepsDefault(t *testing.T) {
	t.Setenv("CONFIRM_COUNTDOWN", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ConfirmCountdown != 5*time.Second {
		t.Errorf("ConfirmCountdown = %v, want 5s", cfg.ConfirmCountdown)
	}
}
