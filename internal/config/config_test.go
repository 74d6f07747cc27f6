package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		t.Setenv("SERVER_HOST", "0.0.0.0")
		t.Setenv("SERVER_PORT", "8080")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() returned unexpected error: %v", err)
		}

		if cfg.Server.Addr != "0.0.0.0:8080" {
			t.Errorf("Expected addr 0.0.0.0:8080, got %s", cfg.Server.Addr)
		}
		if cfg.Render.Retries != 3 || cfg.Render.Timeout != 30*time.Second {
			t.Errorf("Unexpected render defaults %+v", cfg.Render)
		}
		if cfg.Artifact.BaseURL != "http://0.0.0.0:8080/artifacts" {
			t.Errorf("Unexpected artifact base URL %s", cfg.Artifact.BaseURL)
		}
		if cfg.Quote.CacheTTL != 3*time.Minute {
			t.Errorf("Expected 3m quote cache TTL, got %s", cfg.Quote.CacheTTL)
		}
	})

	t.Run("parses lists and durations", func(t *testing.T) {
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
		t.Setenv("LOCK_TTL", "45s")
		t.Setenv("SWEEP_CONCURRENCY", "0")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() returned unexpected error: %v", err)
		}

		if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://b.example" {
			t.Errorf("Unexpected origins %v", cfg.CORS.AllowedOrigins)
		}
		if cfg.Lock.TTL != 45*time.Second {
			t.Errorf("Expected 45s, got %s", cfg.Lock.TTL)
		}
		if cfg.Sweep.Concurrency != 1 {
			t.Errorf("Expected concurrency clamped to 1, got %d", cfg.Sweep.Concurrency)
		}
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		tests := []struct {
			key, value string
		}{
			{"RENDER_FORMAT", "docx"},
			{"RENDER_TIMEOUT", "soon"},
			{"RENDER_RETRIES", "-1"},
			{"ARTIFACT_BACKEND", "s3"},
			{"NOTIFY_BACKEND", "mailgun"},
			{"LOCK_TTL", "500ms"},
		}
		for _, tt := range tests {
			t.Run(tt.key, func(t *testing.T) {
				t.Setenv(tt.key, tt.value)
				if _, err := Load(); err == nil {
					t.Errorf("Expected error for %s=%s", tt.key, tt.value)
				}
			})
		}
	})
}
