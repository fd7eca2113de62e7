package gawin

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeTempConfig(t, "gawin.yaml", `
providers:
  - groq
  - gemini
  - deepseek
degrade_mode: graceful
aliases:
  fast: llama-3.3-70b-versatile
content_policy:
  blocked_terms:
    - badword
plugins:
  - name: max-token
    stage: before_request
    enabled: true
    config:
      max_tokens: 2048
history:
  enabled: true
  driver: sqlite
  dsn: gawin.db
sessions:
  ttl_seconds: 900
  sweep_seconds: 30
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.Providers) != 3 || cfg.Providers[0] != "groq" {
		t.Errorf("providers = %v", cfg.Providers)
	}
	if cfg.DegradeMode != DegradeGraceful {
		t.Errorf("degrade_mode = %q", cfg.DegradeMode)
	}
	if cfg.Aliases["fast"] != "llama-3.3-70b-versatile" {
		t.Errorf("aliases = %v", cfg.Aliases)
	}
	if len(cfg.ContentPolicy.BlockedTerms) != 1 {
		t.Errorf("blocked terms = %v", cfg.ContentPolicy.BlockedTerms)
	}
	if len(cfg.Plugins) != 1 || cfg.Plugins[0].Name != "max-token" {
		t.Errorf("plugins = %+v", cfg.Plugins)
	}
	if !cfg.History.Enabled || cfg.History.Driver != "sqlite" {
		t.Errorf("history = %+v", cfg.History)
	}
	if cfg.Sessions.TTLSeconds != 900 {
		t.Errorf("sessions = %+v", cfg.Sessions)
	}
	if err := ValidateConfig(*cfg); err != nil {
		t.Errorf("ValidateConfig: %v", err)
	}
}

func TestLoadConfigJSON(t *testing.T) {
	path := writeTempConfig(t, "gawin.json", `{
  "providers": ["groq", "perplexity"],
  "degrade_mode": "unavailable"
}`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.Providers) != 2 || cfg.Providers[1] != "perplexity" {
		t.Errorf("providers = %v", cfg.Providers)
	}
	if cfg.DegradeMode != DegradeUnavailable {
		t.Errorf("degrade_mode = %q", cfg.DegradeMode)
	}
}

func TestLoadConfigUnsupportedExtension(t *testing.T) {
	path := writeTempConfig(t, "gawin.toml", `providers = ["groq"]`)
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"minimal valid", Config{Providers: []string{"groq"}}, false},
		{"empty providers", Config{}, true},
		{"blank provider name", Config{Providers: []string{"groq", ""}}, true},
		{"duplicate provider", Config{Providers: []string{"groq", "groq"}}, true},
		{"bad degrade mode", Config{Providers: []string{"groq"}, DegradeMode: "retry"}, true},
		{"unavailable mode", Config{Providers: []string{"groq"}, DegradeMode: DegradeUnavailable}, false},
		{"bad history driver", Config{Providers: []string{"groq"}, History: HistoryConfig{Driver: "mysql"}}, true},
		{"postgres without dsn", Config{Providers: []string{"groq"}, History: HistoryConfig{Enabled: true, Driver: "postgres"}}, true},
		{"postgres with dsn", Config{Providers: []string{"groq"}, History: HistoryConfig{Enabled: true, Driver: "postgres", DSN: "postgres://x"}}, false},
		{"negative session ttl", Config{Providers: []string{"groq"}, Sessions: SessionConfig{TTLSeconds: -1}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
