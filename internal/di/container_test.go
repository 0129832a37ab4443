package di

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-signdesk/pkg/config"
	"github.com/goliatone/go-signdesk/pkg/domain"
	"github.com/goliatone/go-signdesk/pkg/locales"
	"github.com/goliatone/go-signdesk/pkg/secrets"
	"github.com/goliatone/go-signdesk/pkg/settings"
	"github.com/goliatone/go-signdesk/pkg/signing"
	"github.com/goliatone/go-signdesk/pkg/storage"
)

func TestNewDefaultsToMemory(t *testing.T) {
	c, err := New(context.Background(), Options{})
	if err != nil {
		t.Fatalf("container: %v", err)
	}
	defer c.Close()
	if c.Config.Storage.Driver != "memory" {
		t.Fatalf("expected memory driver, got %q", c.Config.Storage.Driver)
	}
	if c.Storage.KV == nil || c.Metrics == nil {
		t.Fatalf("expected substrate and metrics")
	}
	if c.Signing == nil || c.Commands == nil || c.Settings == nil {
		t.Fatalf("expected services to be wired")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Storage.CorruptionPolicy = "ignore"
	if _, err := New(context.Background(), Options{Config: cfg}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestNewRejectsMalformedSecretsKey(t *testing.T) {
	_, err := New(context.Background(), Options{
		Storage: storage.NewMemoryProviders(),
		Env:     config.Env{SecretsKey: "not-hex"},
	})
	if err == nil || !strings.Contains(err.Error(), "hex") {
		t.Fatalf("expected hex error, got %v", err)
	}
}

func TestEnvKeysReachAssistant(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{"parts": []map[string]any{{"text": "resposta"}}},
			}},
		})
	}))
	defer server.Close()

	cfg := config.Defaults()
	cfg.Assistant.BaseURL = server.URL
	c, err := New(context.Background(), Options{
		Config:  cfg,
		Storage: storage.NewMemoryProviders(),
		Env: config.Env{
			AssistantAPIKey: "gem-key",
			SecretsKey:      strings.Repeat("ab", 32),
		},
	})
	if err != nil {
		t.Fatalf("container: %v", err)
	}

	if got := c.Assistant.AskAssistant(context.Background(), "O que é ICP-Brasil?"); got != "resposta" {
		t.Fatalf("unexpected answer %q", got)
	}
	if gotKey != "gem-key" {
		t.Fatalf("expected env key to be sent, got %q", gotKey)
	}
}

func TestSavedUserKeyOverridesEnvironment(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	}))
	defer server.Close()

	cfg := config.Defaults()
	cfg.Assistant.BaseURL = server.URL
	ctx := context.Background()
	c, err := New(ctx, Options{
		Config:  cfg,
		Storage: storage.NewMemoryProviders(),
		Env: config.Env{
			AssistantAPIKey: "system-key",
			SecretsKey:      strings.Repeat("0f", 32),
		},
	})
	if err != nil {
		t.Fatalf("container: %v", err)
	}
	if c.Vault == nil {
		t.Fatalf("expected vault")
	}
	if _, err := c.Vault.Save(ctx, "local", secrets.ServiceAssistant, secrets.KeyAPIKey, "user-key"); err != nil {
		t.Fatalf("save: %v", err)
	}

	c.Assistant.AskAssistant(ctx, "ping")
	if gotKey != "user-key" {
		t.Fatalf("expected saved user key, got %q", gotKey)
	}
}

func TestUserLocaleDrivesAuditDetails(t *testing.T) {
	ctx := context.Background()
	providers := storage.NewMemoryProviders()

	first, err := New(ctx, Options{Storage: providers, UserID: "u1"})
	if err != nil {
		t.Fatalf("container: %v", err)
	}
	if err := first.Settings.Set(ctx, "u1", settings.KeyLocale, locales.English); err != nil {
		t.Fatalf("set locale: %v", err)
	}

	english, err := New(ctx, Options{Storage: providers, UserID: "u1"})
	if err != nil {
		t.Fatalf("container: %v", err)
	}
	cert := signing.GenerateTestCertificate(nil, time.Now().UTC(), domain.CertificateTest)
	if err := english.Records.AddCertificate(ctx, cert); err != nil {
		t.Fatalf("add certificate: %v", err)
	}
	logs, err := english.Records.AuditLogs(ctx)
	if err != nil || len(logs) != 1 {
		t.Fatalf("audit logs: %v %+v", err, logs)
	}
	if !strings.HasPrefix(logs[0].Details, "Action ") {
		t.Fatalf("expected english details, got %q", logs[0].Details)
	}

	other, err := New(ctx, Options{Storage: providers, UserID: "u2"})
	if err != nil {
		t.Fatalf("container: %v", err)
	}
	if err := other.Records.RemoveCertificate(ctx, cert.ID); err != nil {
		t.Fatalf("remove certificate: %v", err)
	}
	logs, _ = other.Records.AuditLogs(ctx)
	if !strings.HasPrefix(logs[0].Details, "Ação ") {
		t.Fatalf("expected default locale details, got %q", logs[0].Details)
	}
}
