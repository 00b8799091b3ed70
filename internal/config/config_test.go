package config

import (
	"testing"
	"time"
)

func TestLoad_DefaultsWithRequiredSecrets(t *testing.T) {
	t.Setenv("MINIO_ACCESS_KEY_ID", "minio")
	t.Setenv("MINIO_SECRET_ACCESS_KEY", "minio-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.API.Port)
	}
	if cfg.Upload.MaxBytes != 20*1024*1024 {
		t.Fatalf("expected 20MB upload limit, got %d", cfg.Upload.MaxBytes)
	}
	if cfg.OpenRouter.ParseModel != "openai/gpt-4o" {
		t.Fatalf("unexpected parse model %q", cfg.OpenRouter.ParseModel)
	}
	if cfg.Auth.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("unexpected access ttl %s", cfg.Auth.AccessTokenTTL)
	}
}

func TestLoad_MissingMinIOCredentials(t *testing.T) {
	t.Setenv("MINIO_ACCESS_KEY_ID", "")
	t.Setenv("MINIO_SECRET_ACCESS_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without minio credentials")
	}
}

func TestAPIConfig_Origins(t *testing.T) {
	cfg := APIConfig{AllowedOrigins: " https://a.example ,, https://b.example"}
	got := cfg.Origins()
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", got)
	}
}
