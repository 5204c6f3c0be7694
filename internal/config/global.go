// Package config handles global configuration and collaborator credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/matsen/quill/internal/style"
)

// GlobalConfig represents configuration stored in ~/.config/quill/config.yml.
type GlobalConfig struct {
	AssistantURL    string `yaml:"assistant_url,omitempty"`
	AssistantModel  string `yaml:"assistant_model,omitempty"`
	AssistantAPIKey string `yaml:"assistant_api_key,omitempty"`
	S2APIKey        string `yaml:"s2_api_key,omitempty"`
	SearchProvider  string `yaml:"search_provider,omitempty"` // assistant or scholar
	DefaultStyle    string `yaml:"default_style,omitempty"`
	Locale          string `yaml:"locale,omitempty"`         // BCP 47 tag for bibliography ordering
	CoalesceDelay   string `yaml:"coalesce_delay,omitempty"` // Go duration, e.g. "1s"
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "quill"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// Search providers.
const (
	ProviderAssistant = "assistant"
	ProviderScholar   = "scholar"
)

// Defaults applied by Resolve.
const (
	DefaultAssistantURL   = "https://api.openai.com/v1"
	DefaultAssistantModel = "gpt-4o-mini"
	DefaultLocale         = "en"
	DefaultCoalesceDelay  = time.Second
)

// Environment variables that override the config file.
const (
	EnvAssistantURL    = "QUILL_ASSISTANT_URL"
	EnvAssistantModel  = "QUILL_ASSISTANT_MODEL"
	EnvAssistantAPIKey = "QUILL_ASSISTANT_API_KEY"
	EnvS2APIKey        = "QUILL_S2_API_KEY"
)

// Credentials are passed explicitly to collaborator clients at construction;
// clients never read the environment at call time.
type Credentials struct {
	AssistantURL    string
	AssistantModel  string
	AssistantAPIKey string
	S2APIKey        string
}

// Settings is the validated configuration used by the CLI.
type Settings struct {
	Credentials    Credentials
	SearchProvider string
	Style          style.Style
	Locale         language.Tag
	CoalesceDelay  time.Duration
}

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/quill/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the configuration file at path.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig(path string) (*GlobalConfig, error) {
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}
	return &cfg, nil
}

// ApplyEnv overrides credentials with non-empty environment values.
func (c *GlobalConfig) ApplyEnv(getenv func(string) string) {
	override := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	override(&c.AssistantURL, EnvAssistantURL)
	override(&c.AssistantModel, EnvAssistantModel)
	override(&c.AssistantAPIKey, EnvAssistantAPIKey)
	override(&c.S2APIKey, EnvS2APIKey)
}

// Resolve validates the config and fills in defaults.
func (c *GlobalConfig) Resolve() (*Settings, error) {
	s := &Settings{
		Credentials: Credentials{
			AssistantURL:    strings.TrimRight(orDefault(c.AssistantURL, DefaultAssistantURL), "/"),
			AssistantModel:  orDefault(c.AssistantModel, DefaultAssistantModel),
			AssistantAPIKey: c.AssistantAPIKey,
			S2APIKey:        c.S2APIKey,
		},
		SearchProvider: orDefault(strings.ToLower(c.SearchProvider), ProviderAssistant),
		Style:          style.Default,
		CoalesceDelay:  DefaultCoalesceDelay,
	}

	if s.SearchProvider != ProviderAssistant && s.SearchProvider != ProviderScholar {
		return nil, fmt.Errorf("invalid search_provider: %s (valid: %s, %s)", c.SearchProvider, ProviderAssistant, ProviderScholar)
	}

	if c.DefaultStyle != "" {
		st, err := style.Parse(c.DefaultStyle)
		if err != nil {
			return nil, fmt.Errorf("invalid default_style: %w", err)
		}
		s.Style = st
	}

	tag, err := language.Parse(orDefault(c.Locale, DefaultLocale))
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", c.Locale, err)
	}
	s.Locale = tag

	if c.CoalesceDelay != "" {
		d, err := time.ParseDuration(c.CoalesceDelay)
		if err != nil {
			return nil, fmt.Errorf("invalid coalesce_delay: %w", err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("invalid coalesce_delay: must be positive, got %s", d)
		}
		s.CoalesceDelay = d
	}

	return s, nil
}

// Load reads the config at path, applies environment overrides and resolves it.
func Load(path string, getenv func(string) string) (*Settings, error) {
	cfg, err := LoadGlobalConfig(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(getenv)
	return cfg.Resolve()
}

// HelpfulConfigMessage explains how to configure collaborator credentials.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`No assistant API key configured.

Tip: Create %s with your credentials:
  mkdir -p %s
  echo 'assistant_api_key: sk-...' > %s

or set %s in the environment (a .env file in the working directory is also read).`,
		configPath,
		filepath.Dir(configPath),
		configPath,
		EnvAssistantAPIKey)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}
