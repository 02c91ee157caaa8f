package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("GENAI_API_KEY", "test-key")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port mismatch: got %q", cfg.Port)
	}
	if cfg.StorageBackend != "file" {
		t.Fatalf("StorageBackend mismatch: got %q", cfg.StorageBackend)
	}
	if cfg.RetryMaxAttempts != 3 || cfg.RetryBaseDelay != 2*time.Second || cfg.RetryMaxDelay != 5*time.Second || cfg.RetryPerAttemptTimeout != 20*time.Second {
		t.Fatalf("retry defaults mismatch: %+v", cfg)
	}
	if cfg.RequestDeadline != 110*time.Second {
		t.Fatalf("RequestDeadline mismatch: got %v", cfg.RequestDeadline)
	}
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("GENAI_API_KEY", "test-key")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for missing DATABASE_URL")
	}
}

func TestLoadConfigRequiresAPIKey(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("GENAI_API_KEY", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for missing GENAI_API_KEY")
	}
}

func TestLoadConfigRequiresMinioEndpoint(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("GENAI_API_KEY", "test-key")
	t.Setenv("STORAGE_BACKEND", "minio")
	t.Setenv("MINIO_ENDPOINT", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for minio backend without endpoint")
	}
}

func TestLoadConfigRaisesWriteTimeoutAboveDeadline(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("GENAI_API_KEY", "test-key")
	t.Setenv("HTTP_WRITE_TIMEOUT_SECONDS", "30")
	t.Setenv("REQUEST_DEADLINE_SECONDS", "110")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.HTTPWriteTimeout <= cfg.RequestDeadline {
		t.Fatalf("write timeout must exceed the request deadline: %v <= %v", cfg.HTTPWriteTimeout, cfg.RequestDeadline)
	}
}
