package configutil

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidateSettings(t *testing.T) {
	schema := Schema{Required: []string{"api_key"}, Optional: []string{"model"}}

	if err := ValidateSettings(map[string]any{"API-Key": "k", "model": "nova-2"}, schema); err != nil {
		t.Fatalf("expected normalized keys to validate, got %v", err)
	}
	err := ValidateSettings(map[string]any{"api_key": " ", "voice": "x"}, schema)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "missing: api_key") || !strings.Contains(err.Error(), "unknown: voice") {
		t.Fatalf("unexpected error %q", err.Error())
	}
	if err := ValidateSettings(map[string]any{}, schema); err == nil || !strings.Contains(err.Error(), "missing: api_key") {
		t.Fatalf("expected missing key error, got %v", err)
	}
	if err := ValidateSettings(map[string]any{"api_key": "k", "extra": 1}, Schema{Required: []string{"api_key"}, AllowUnknown: true}); err != nil {
		t.Fatalf("expected unknown keys allowed, got %v", err)
	}
}

func TestDecodeSettings(t *testing.T) {
	var out struct {
		BaseURL string        `mapstructure:"base_url"`
		Timeout time.Duration `mapstructure:"timeout"`
		Origins []string      `mapstructure:"allowed_origins"`
		Port    int           `mapstructure:"port"`
	}
	input := map[string]any{
		"BaseURL":         "http://localhost:8000",
		"timeout":         "1500ms",
		"allowed-origins": "a.com,b.com",
		"port":            "8080",
	}
	if err := DecodeSettings(input, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.BaseURL != "http://localhost:8000" {
		t.Fatalf("unexpected base url %q", out.BaseURL)
	}
	if out.Timeout != 1500*time.Millisecond {
		t.Fatalf("unexpected timeout %v", out.Timeout)
	}
	if len(out.Origins) != 2 || out.Origins[1] != "b.com" {
		t.Fatalf("unexpected origins %v", out.Origins)
	}
	if out.Port != 8080 {
		t.Fatalf("unexpected port %d", out.Port)
	}
}

func TestDecodeValidatesFirst(t *testing.T) {
	var out struct {
		APIKey string `mapstructure:"api_key"`
	}
	if err := Decode(map[string]any{"nope": 1}, Schema{Required: []string{"api_key"}}, &out); err == nil {
		t.Fatalf("expected schema error")
	}
	if err := Decode(map[string]any{"api_key": "k"}, Schema{Required: []string{"api_key"}}, &out); err != nil || out.APIKey != "k" {
		t.Fatalf("unexpected result %q %v", out.APIKey, err)
	}
}

func TestHelpers(t *testing.T) {
	if err := RequireString(" ", "vendors.speech.settings.api_key"); err == nil {
		t.Fatalf("expected required error")
	}
	if StringValue("", "x") != "x" || StringValue("y", "x") != "y" {
		t.Fatalf("unexpected StringValue behaviour")
	}
}

func TestSchemaForUsesTagsAndSkipsInternalFields(t *testing.T) {
	type settings struct {
		APIKey    string        `mapstructure:"api_key"`
		Model     string        `mapstructure:"model"`
		Timeout   time.Duration `mapstructure:"timeout"`
		SessionID string        `mapstructure:"-"`
		Language  string
		internal  int
	}
	schema := SchemaFor(&settings{}, "api_key")
	if len(schema.Required) != 1 || schema.Required[0] != "api_key" {
		t.Fatalf("unexpected required %v", schema.Required)
	}
	want := []string{"model", "timeout", "Language"}
	if strings.Join(schema.Optional, ",") != strings.Join(want, ",") {
		t.Fatalf("expected optional %v, got %v", want, schema.Optional)
	}
	if err := ValidateSettings(map[string]any{"api_key": "k", "session_id": "x"}, schema); err == nil {
		t.Fatalf("expected internal field to be rejected")
	}
}

func TestSettingsErrorHintsTypos(t *testing.T) {
	schema := Schema{Required: []string{"api_key"}, Optional: []string{"utterance_end_ms", "no_speech_timeout"}}
	err := ValidateSettings(map[string]any{"api_key": "k", "no_speach_timeout": "5s", "zzz": 1}, schema)
	var serr *SettingsError
	if !errors.As(err, &serr) {
		t.Fatalf("expected *SettingsError, got %T", err)
	}
	if serr.Hints["no_speach_timeout"] != "no_speech_timeout" {
		t.Fatalf("expected hint for typo, got %v", serr.Hints)
	}
	if _, ok := serr.Hints["zzz"]; ok {
		t.Fatalf("unexpected hint for unrelated key")
	}
	if !strings.Contains(err.Error(), "unknown: no_speach_timeout (did you mean no_speech_timeout?), zzz") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
