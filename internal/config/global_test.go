package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/matsen/quill/internal/style"
)

func noEnv(string) string { return "" }

func TestGlobalConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got, want := GlobalConfigPath(), "/custom/config/quill/config.yml"; got != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", got, want)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	if got, want := GlobalConfigPath(), filepath.Join(home, ".config", "quill", "config.yml"); got != want {
		t.Errorf("GlobalConfigPath() = %q, want %q", got, want)
	}
}

func TestLoadGlobalConfig_NotFound(t *testing.T) {
	cfg, err := LoadGlobalConfig(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}
	if *cfg != (GlobalConfig{}) {
		t.Errorf("LoadGlobalConfig() = %+v, want empty config", cfg)
	}
}

func TestLoadGlobalConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("assistant_url: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadGlobalConfig(path); err == nil {
		t.Error("LoadGlobalConfig() should fail on invalid YAML")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	data := `assistant_api_key: file-key
s2_api_key: s2-key
search_provider: Scholar
default_style: apa
locale: de
coalesce_delay: 750ms
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path, noEnv)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if s.Credentials.AssistantAPIKey != "file-key" || s.Credentials.S2APIKey != "s2-key" {
		t.Errorf("Credentials = %+v", s.Credentials)
	}
	if s.Credentials.AssistantURL != DefaultAssistantURL || s.Credentials.AssistantModel != DefaultAssistantModel {
		t.Errorf("defaults not applied: %+v", s.Credentials)
	}
	if s.SearchProvider != ProviderScholar {
		t.Errorf("SearchProvider = %q", s.SearchProvider)
	}
	if s.Style != style.APA7 {
		t.Errorf("Style = %q", s.Style)
	}
	if s.Locale != language.German {
		t.Errorf("Locale = %v", s.Locale)
	}
	if s.CoalesceDelay != 750*time.Millisecond {
		t.Errorf("CoalesceDelay = %v", s.CoalesceDelay)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("assistant_api_key: file-key\n"), 0644); err != nil {
		t.Fatal(err)
	}
	env := map[string]string{
		EnvAssistantAPIKey: "env-key",
		EnvAssistantURL:    "http://localhost:8080/v1/",
	}

	s, err := Load(path, func(k string) string { return env[k] })
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Credentials.AssistantAPIKey != "env-key" {
		t.Errorf("AssistantAPIKey = %q, want env override", s.Credentials.AssistantAPIKey)
	}
	if s.Credentials.AssistantURL != "http://localhost:8080/v1" {
		t.Errorf("AssistantURL = %q, want trailing slash trimmed", s.Credentials.AssistantURL)
	}
}

func TestResolveDefaults(t *testing.T) {
	s, err := (&GlobalConfig{}).Resolve()
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if s.SearchProvider != ProviderAssistant || s.Style != style.Default ||
		s.Locale != language.English || s.CoalesceDelay != DefaultCoalesceDelay {
		t.Errorf("Resolve() defaults = %+v", s)
	}
}

func TestResolveInvalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  GlobalConfig
	}{
		{"provider", GlobalConfig{SearchProvider: "bing"}},
		{"style", GlobalConfig{DefaultStyle: "Turabian"}},
		{"locale", GlobalConfig{Locale: "not a tag!"}},
		{"delay", GlobalConfig{CoalesceDelay: "soon"}},
		{"negative delay", GlobalConfig{CoalesceDelay: "-1s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.cfg.Resolve(); err == nil {
				t.Error("Resolve() should fail")
			}
		})
	}
}
