package logger

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedaction(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := FromZap(zap.New(core))

	apiKey := "AIza" + strings.Repeat("x", 35)
	log.Info("request",
		"api_key", "secret-value",
		"X-Goog-Api-Key", "abc",
		"model", "gemini-2.5-flash",
		"note", apiKey,
	)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["api_key"] != "[REDACTED]" {
		t.Errorf("api_key = %v", fields["api_key"])
	}
	if fields["X-Goog-Api-Key"] != "[REDACTED]" {
		t.Errorf("X-Goog-Api-Key = %v", fields["X-Goog-Api-Key"])
	}
	if fields["model"] != "gemini-2.5-flash" {
		t.Errorf("model = %v", fields["model"])
	}
	if fields["note"] != "[REDACTED]" {
		t.Errorf("value shaped like an API key should be redacted, got %v", fields["note"])
	}
}

func TestWithRedacts(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := FromZap(zap.New(core)).With("auth_token", "t0k3n")

	log.Debug("hello")
	if got := logs.All()[0].ContextMap()["auth_token"]; got != "[REDACTED]" {
		t.Errorf("auth_token = %v", got)
	}
}

func TestNewLevels(t *testing.T) {
	if _, err := New("dev"); err != nil {
		t.Errorf("New(dev): %v", err)
	}
	if _, err := New("production", "warn"); err != nil {
		t.Errorf("New(production, warn): %v", err)
	}
	if _, err := New("dev", "loud"); err == nil {
		t.Error("invalid level should fail")
	}
}

func TestOddKeyValues(t *testing.T) {
	got := sanitizeKVs([]interface{}{"token", "x", "dangling"})
	if len(got) != 3 || got[1] != "[REDACTED]" || got[2] != "dangling" {
		t.Errorf("sanitizeKVs = %v", got)
	}
}
