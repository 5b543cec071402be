package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, "environment: test\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Environment != "test" {
		t.Fatalf("expected environment from file, got %q", cfg.Environment)
	}
	if cfg.Transports.Provider != "console" || cfg.Vendors.Backend.Provider != "http" {
		t.Fatalf("unexpected provider defaults: %+v", cfg)
	}
	if cfg.Session.GreetingRate != 1.0 || cfg.Session.AnswerRate != 1.1 {
		t.Fatalf("unexpected rates: %+v", cfg.Session)
	}
	if !cfg.Session.Greeting || !cfg.Privacy.RedactPII {
		t.Fatalf("expected greeting and redaction on by default")
	}
	if cfg.Audio.SampleRate != 16000 {
		t.Fatalf("expected 16k sample rate, got %d", cfg.Audio.SampleRate)
	}
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	t.Setenv("MYCHATBOT_TEST_KEY", "secret")
	t.Setenv("MYCHATBOT_TEST_URL", "http://localhost:8000")
	path := writeConfig(t, strings.Join([]string{
		"vendors:",
		"  capture:",
		"    provider: deepgram",
		"    settings:",
		"      api_key: ${MYCHATBOT_TEST_KEY}",
		"  backend:",
		"    provider: http",
		"    settings:",
		"      base_url: $MYCHATBOT_TEST_URL",
		"session:",
		"  voice: ${MYCHATBOT_TEST_KEY}-voice",
		"",
	}, "\n"))
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := cfg.Vendors.Capture.Settings["api_key"]; got != "secret" {
		t.Fatalf("expected expanded api key, got %v", got)
	}
	if got := cfg.Vendors.Backend.Settings["base_url"]; got != "http://localhost:8000" {
		t.Fatalf("expected expanded base url, got %v", got)
	}
	if cfg.Session.Voice != "secret-voice" {
		t.Fatalf("expected expanded voice, got %q", cfg.Session.Voice)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	cases := map[string]string{
		"empty transport": "transports:\n  provider: \"\"\n",
		"bad log format":  "log_format: xml\n",
		"bad device":      "audio:\n  device: alsa\n",
		"bad sample rate": "observability:\n  sample_rate: 2\n",
	}
	for name, body := range cases {
		if _, err := LoadConfig(writeConfig(t, body)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestDefault(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if cfg.Vendors.Capture.Provider != "mock" {
		t.Fatalf("unexpected capture provider %q", cfg.Vendors.Capture.Provider)
	}
}
