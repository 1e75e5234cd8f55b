package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the process-wide configuration. It is read once at startup and
// treated as read-only afterwards; nothing in the core mutates it.
type Config struct {
	Server   ServerConfig             `mapstructure:"server"`
	LLM      LLMConfig                `mapstructure:"llm"`
	Retry    RetryConfig              `mapstructure:"retry"`
	Cache    CacheConfig              `mapstructure:"cache"`
	Services map[string]ServiceConfig `mapstructure:"services"`
	Sessions SessionsConfig           `mapstructure:"sessions"`
	Skills   SkillsConfig             `mapstructure:"skills"`
}

// ServerConfig configures the HTTP API surface.
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

// LLMConfig configures the completion collaborator. Token and temperature
// settings are fixed here, not negotiable per call.
type LLMConfig struct {
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
	TopP        float64 `mapstructure:"top_p"`
}

// RetryConfig configures the downstream-call retry policy.
type RetryConfig struct {
	MaxRetries int           `mapstructure:"max_retries"`
	BaseDelay  time.Duration `mapstructure:"base_delay"`
	MaxDelay   time.Duration `mapstructure:"max_delay"`
}

// CacheConfig configures the response cache.
type CacheConfig struct {
	Namespace   string        `mapstructure:"namespace"`
	DefaultTTL  time.Duration `mapstructure:"default_ttl"`
	ResponseTTL time.Duration `mapstructure:"response_ttl"`
	MaxEntries  int           `mapstructure:"max_entries"`
}

// ServiceConfig describes one downstream ERP service.
type ServiceConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// SessionsConfig configures session persistence. An empty Dir selects the
// in-memory store.
type SessionsConfig struct {
	Dir string `mapstructure:"dir"`
}

// SkillsConfig configures the skill registry. An empty File starts with an
// empty registry populated through the API.
type SkillsConfig struct {
	File string `mapstructure:"file"`
}

// Load reads configuration from an optional YAML file plus COPILOT_* env
// overrides. path may be empty, in which case ./config.yaml is used when
// present.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("COPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)

	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.max_tokens", 1000)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.top_p", 0.95)

	v.SetDefault("retry.max_retries", 3)
	v.SetDefault("retry.base_delay", 2*time.Second)
	v.SetDefault("retry.max_delay", 30*time.Second)

	v.SetDefault("cache.namespace", "copilot_agent")
	v.SetDefault("cache.default_ttl", 30*time.Minute)
	v.SetDefault("cache.response_ttl", 15*time.Minute)
	v.SetDefault("cache.max_entries", 1024)

	v.SetDefault("services.hrservice.base_url", "http://localhost:5001")
	v.SetDefault("services.inventoryservice.base_url", "http://localhost:5002")
	v.SetDefault("services.accountingservice.base_url", "http://localhost:5003")
	v.SetDefault("services.workflowservice.base_url", "http://localhost:5004")

	v.SetDefault("sessions.dir", "")
	v.SetDefault("skills.file", "")
}
