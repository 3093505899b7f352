package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	CRM        CRMConfig        `yaml:"crm" mapstructure:"crm"`
	HubSpot    HubSpotConfig    `yaml:"hubspot" mapstructure:"hubspot"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Groq       GroqConfig       `yaml:"groq" mapstructure:"groq"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port            int      `yaml:"port" mapstructure:"port"`
	AppURL          string   `yaml:"app_url" mapstructure:"app_url"`
	AllowedOrigins  []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	ToolTimeoutSecs int      `yaml:"tool_timeout_secs" mapstructure:"tool_timeout_secs"`
}

// CRMConfig selects the CRM backend used by the tools.
type CRMConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"`
}

// HubSpotConfig holds HubSpot API, OAuth and signing settings.
type HubSpotConfig struct {
	AccessToken     string  `yaml:"access_token" mapstructure:"access_token"`
	ClientID        string  `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret    string  `yaml:"client_secret" mapstructure:"client_secret"`
	SignatureSecret string  `yaml:"signature_secret" mapstructure:"signature_secret"`
	BaseURL         string  `yaml:"base_url" mapstructure:"base_url"`
	AuthorizeURL    string  `yaml:"authorize_url" mapstructure:"authorize_url"`
	RateLimit       float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// SalesforceConfig holds Salesforce JWT auth settings.
type SalesforceConfig struct {
	ClientID  string  `yaml:"client_id" mapstructure:"client_id"`
	Username  string  `yaml:"username" mapstructure:"username"`
	KeyPath   string  `yaml:"key_path" mapstructure:"key_path"`
	LoginURL  string  `yaml:"login_url" mapstructure:"login_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// LLMConfig selects the completion provider for LLM-backed tools.
type LLMConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// GroqConfig holds settings for Groq's OpenAI-compatible API.
type GroqConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DEALPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"https://app.hubspot.com"})
	v.SetDefault("server.tool_timeout_secs", 25)
	v.SetDefault("crm.provider", "hubspot")
	v.SetDefault("hubspot.base_url", "https://api.hubapi.com")
	v.SetDefault("hubspot.authorize_url", "https://app.hubspot.com/oauth/authorize")
	v.SetDefault("hubspot.rate_limit", 10)
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("salesforce.rate_limit", 5)
	v.SetDefault("llm.provider", "anthropic")
	v.SetDefault("llm.temperature", 0.8)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("groq.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("groq.model", "llama-3.3-70b-versatile")
	v.SetDefault("groq.max_tokens", 1024)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Secrets have no default, so AutomaticEnv alone will not surface them
	// through Unmarshal.
	for _, key := range []string{
		"server.app_url",
		"hubspot.access_token",
		"hubspot.client_id",
		"hubspot.client_secret",
		"hubspot.signature_secret",
		"salesforce.client_id",
		"salesforce.username",
		"salesforce.key_path",
		"anthropic.key",
		"groq.key",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, eris.Wrap(err, fmt.Sprintf("config: bind env %s", key))
		}
	}

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the settings required by mode are present.
// Supported modes are "serve" and "tools".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.ToolTimeoutSecs <= 0 {
			errs = append(errs, "server.tool_timeout_secs must be > 0")
		}
		errs = append(errs, c.crmErrors()...)
		errs = append(errs, c.llmErrors()...)
	case "tools":
		errs = append(errs, c.crmErrors()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) crmErrors() []string {
	var errs []string
	switch c.CRM.Provider {
	case "hubspot":
		if c.HubSpot.BaseURL == "" {
			errs = append(errs, "hubspot.base_url is required")
		}
	case "salesforce":
		if c.Salesforce.ClientID == "" {
			errs = append(errs, "salesforce.client_id is required")
		}
		if c.Salesforce.Username == "" {
			errs = append(errs, "salesforce.username is required")
		}
		if c.Salesforce.KeyPath == "" {
			errs = append(errs, "salesforce.key_path is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("crm.provider %q is not supported", c.CRM.Provider))
	}
	return errs
}

func (c *Config) llmErrors() []string {
	var errs []string
	switch c.LLM.Provider {
	case "anthropic", "groq":
	default:
		errs = append(errs, fmt.Sprintf("llm.provider %q is not supported", c.LLM.Provider))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, "llm.temperature must be between 0 and 2")
	}
	return errs
}

// Redacted returns a copy of c with every secret masked.
func (c *Config) Redacted() Config {
	out := *c
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "****"
	}
	out.HubSpot.AccessToken = mask(c.HubSpot.AccessToken)
	out.HubSpot.ClientSecret = mask(c.HubSpot.ClientSecret)
	out.HubSpot.SignatureSecret = mask(c.HubSpot.SignatureSecret)
	out.Anthropic.Key = mask(c.Anthropic.Key)
	out.Groq.Key = mask(c.Groq.Key)
	return out
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
