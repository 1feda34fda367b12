// Package config holds the settings shared by all pleader commands.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/go-go-golems/pleader/pkg/assistant"
)

const (
	BackendHTTP  = "http"
	BackendLocal = "local"

	AssistantEcho   = "echo"
	AssistantOpenAI = "openai"
)

type Settings struct {
	ServerURL string `yaml:"server-url"`
	Token     string `yaml:"token,omitempty"`
	Backend   string `yaml:"backend"`
	DB        string `yaml:"db"`

	Assistant      string `yaml:"assistant"`
	OpenAIAPIKey   string `yaml:"openai-api-key,omitempty"`
	OpenAIModel    string `yaml:"openai-model"`
	OpenAIBaseURL  string `yaml:"openai-base-url,omitempty"`
	HistoryContext int    `yaml:"history-context"`

	Listen string `yaml:"listen"`

	LogLevel   string `yaml:"log-level"`
	LogFormat  string `yaml:"log-format"`
	LogFile    string `yaml:"log-file,omitempty"`
	WithCaller bool   `yaml:"with-caller,omitempty"`
}

func Default() *Settings {
	return &Settings{
		ServerURL:      "http://localhost:8001",
		Backend:        BackendHTTP,
		DB:             DefaultDBPath(),
		Assistant:      AssistantEcho,
		OpenAIModel:    assistant.DefaultModel,
		HistoryContext: assistant.DefaultContextMessages,
		Listen:         "127.0.0.1:8001",
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

func DefaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "pleader", "pleader.db")
}

// SetDefaults registers the defaults so unset keys resolve through viper.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("server-url", d.ServerURL)
	v.SetDefault("backend", d.Backend)
	v.SetDefault("db", d.DB)
	v.SetDefault("assistant", d.Assistant)
	v.SetDefault("openai-model", d.OpenAIModel)
	v.SetDefault("history-context", d.HistoryContext)
	v.SetDefault("listen", d.Listen)
	v.SetDefault("log-level", d.LogLevel)
	v.SetDefault("log-format", d.LogFormat)
}

func FromViper(v *viper.Viper) *Settings {
	return &Settings{
		ServerURL:      v.GetString("server-url"),
		Token:          v.GetString("token"),
		Backend:        strings.ToLower(v.GetString("backend")),
		DB:             v.GetString("db"),
		Assistant:      strings.ToLower(v.GetString("assistant")),
		OpenAIAPIKey:   v.GetString("openai-api-key"),
		OpenAIModel:    v.GetString("openai-model"),
		OpenAIBaseURL:  v.GetString("openai-base-url"),
		HistoryContext: v.GetInt("history-context"),
		Listen:         v.GetString("listen"),
		LogLevel:       v.GetString("log-level"),
		LogFormat:      v.GetString("log-format"),
		LogFile:        v.GetString("log-file"),
		WithCaller:     v.GetBool("with-caller"),
	}
}

func (s *Settings) Validate() error {
	switch s.Backend {
	case BackendHTTP:
		if s.ServerURL == "" {
			return errors.New("server-url is required for the http backend")
		}
	case BackendLocal:
		if s.DB == "" {
			return errors.New("db is required for the local backend")
		}
	default:
		return errors.Errorf("unknown backend %q (expected %s or %s)", s.Backend, BackendHTTP, BackendLocal)
	}

	switch s.Assistant {
	case AssistantEcho:
	case AssistantOpenAI:
		if s.Backend == BackendLocal && s.OpenAIAPIKey == "" {
			return errors.New("openai-api-key is required for the openai assistant")
		}
	default:
		return errors.Errorf("unknown assistant %q (expected %s or %s)", s.Assistant, AssistantEcho, AssistantOpenAI)
	}

	if s.HistoryContext < 0 {
		return errors.New("history-context must not be negative")
	}
	return nil
}

// WriteDefault writes the default settings as YAML. It refuses to overwrite
// an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return errors.Errorf("config file %s already exists", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "could not create config directory")
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "could not create config file")
	}
	defer func() {
		_ = f.Close()
	}()

	encoder := yaml.NewEncoder(f)
	encoder.SetIndent(2)
	if err := encoder.Encode(Default()); err != nil {
		return errors.Wrap(err, "could not write config file")
	}
	return errors.Wrap(encoder.Close(), "could not write config file")
}
