package config

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(context.Background(), WithEnvironment(map[string]string{
		"FIREBASE_PROJECT_ID": "aroma-notes-test",
	}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Fatalf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Firestore.ProjectID != "aroma-notes-test" {
		t.Fatalf("Firestore.ProjectID should inherit Firebase project, got %q", cfg.Firestore.ProjectID)
	}
	if cfg.Content.CacheTTL != 60*time.Second {
		t.Fatalf("Content.CacheTTL = %v, want 60s", cfg.Content.CacheTTL)
	}
	if cfg.Checkout.MaxSlipSizeBytes != 5*1024*1024 {
		t.Fatalf("MaxSlipSizeBytes = %d, want 5MiB", cfg.Checkout.MaxSlipSizeBytes)
	}
	if !cfg.Idempotency.Enabled {
		t.Fatal("idempotency should default to enabled")
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(context.Background(), WithEnvironment(map[string]string{
		"FIRESTORE_PROJECT_ID":   "aroma-notes-prod",
		"SERVER_PORT":            "9090",
		"SERVER_ALLOWED_ORIGINS": "https://aromanotes.lk, https://admin.aromanotes.lk",
		"SANITY_CACHE_TTL":       "2m",
		"SANITY_USE_CDN":         "false",
	}))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Fatalf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "https://admin.aromanotes.lk" {
		t.Fatalf("unexpected origins: %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Content.CacheTTL != 2*time.Minute {
		t.Fatalf("Content.CacheTTL = %v, want 2m", cfg.Content.CacheTTL)
	}
	if cfg.Content.UseCDN {
		t.Fatal("UseCDN should be false")
	}
}

func TestLoadRequiresProject(t *testing.T) {
	_, err := Load(context.Background(), WithEnvironment(map[string]string{}))
	if err == nil {
		t.Fatal("expected error without a project id")
	}
}

type staticResolver map[string]string

func (r staticResolver) Resolve(_ context.Context, ref string) (string, error) {
	v, ok := r[ref]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func TestLoadResolvesSecretRefs(t *testing.T) {
	cfg, err := Load(context.Background(),
		WithEnvironment(map[string]string{
			"FIREBASE_PROJECT_ID": "aroma-notes-test",
			"SANITY_TOKEN":        "sm://projects/p/secrets/sanity-token/versions/latest",
		}),
		WithSecretResolver(staticResolver{
			"sm://projects/p/secrets/sanity-token/versions/latest": "sk-sanity",
		}),
	)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Content.Token != "sk-sanity" {
		t.Fatalf("Content.Token = %q, want resolved secret", cfg.Content.Token)
	}
}

func TestLoadReportsMissingSecrets(t *testing.T) {
	_, err := Load(context.Background(), WithEnvironment(map[string]string{
		"FIREBASE_PROJECT_ID": "aroma-notes-test",
		"SANITY_TOKEN":        "sm://projects/p/secrets/sanity-token/versions/latest",
	}))

	var missing *MissingSecretsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingSecretsError, got %v", err)
	}
	if len(missing.Refs) != 1 {
		t.Fatalf("unexpected refs: %v", missing.Refs)
	}
}
