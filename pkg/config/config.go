// Package config loads the voltgate configuration: provider
// credentials, pipeline thresholds, and service settings. Environment
// variables take precedence over the config file. Components never
// read ambient state themselves; the config is constructed once and
// passed into constructors.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Pipeline defaults.
const (
	DefaultConfidenceThreshold  = 0.75
	DefaultMaxTries             = 3
	DefaultBaseBackoffSeconds   = 1.0
	DefaultRequestTimeoutSecond = 20.0
	DefaultImprovementThreshold = 0.02
	DefaultHTTPBind             = ":8080"
	DefaultWorkers              = 4
)

// Config holds the application configuration.
type Config struct {
	// Provider credentials and endpoints. An empty key means the
	// provider is unavailable, not misconfigured.
	DeepSeekAPIKey  string
	DeepSeekAPIURL  string
	GroqAPIKey      string
	GroqAPIURL      string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	GoogleAPIKey    string

	// ProviderChain is the fallback order. Primary first; the order is
	// part of the orchestrator contract.
	ProviderChain []string

	// Pipeline thresholds.
	ConfidenceThreshold  float64
	MaxTries             int
	BaseBackoff          time.Duration
	RequestTimeout       time.Duration
	ImprovementThreshold float64
	ProviderRate         float64 // sends per second per provider, 0 = unlimited

	// Service settings.
	HTTPBind    string
	PostgresDSN string // empty means in-memory job store
	Workers     int

	ConfigDir string
}

// FileConfig is the shape of ~/.voltgate/config.yaml.
type FileConfig struct {
	APIKeys   APIKeysConfig  `yaml:"api_keys"`
	Providers ProviderConfig `yaml:"providers"`
	Pipeline  PipelineConfig `yaml:"pipeline"`
	Server    ServerConfig   `yaml:"server"`
}

// APIKeysConfig holds API key configuration from file.
type APIKeysConfig struct {
	DeepSeek  string `yaml:"deepseek"`
	Groq      string `yaml:"groq"`
	Anthropic string `yaml:"anthropic"`
	OpenAI    string `yaml:"openai"`
	Google    string `yaml:"google"`
}

// ProviderConfig holds endpoint and ordering configuration.
type ProviderConfig struct {
	Chain       []string `yaml:"chain"`
	DeepSeekURL string   `yaml:"deepseek_url"`
	GroqURL     string   `yaml:"groq_url"`
}

// PipelineConfig holds enhancement pipeline tuning.
type PipelineConfig struct {
	ConfidenceThreshold   *float64 `yaml:"confidence_threshold"`
	MaxTries              *int     `yaml:"max_tries"`
	BaseBackoffSeconds    *float64 `yaml:"base_backoff_seconds"`
	RequestTimeoutSeconds *float64 `yaml:"request_timeout_seconds"`
	ImprovementThreshold  *float64 `yaml:"improvement_threshold"`
	ProviderRate          *float64 `yaml:"provider_rate"`
}

// ServerConfig holds HTTP service settings.
type ServerConfig struct {
	Bind        string `yaml:"bind"`
	PostgresDSN string `yaml:"postgres_dsn"`
	Workers     *int   `yaml:"workers"`
}

// Load reads configuration from the default config directory and
// environment variables. Environment variables take precedence.
func Load() (*Config, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	return LoadFile(filepath.Join(configDir, "config.yaml"), configDir)
}

// LoadFile reads configuration from an explicit file path.
func LoadFile(path, configDir string) (*Config, error) {
	fileConfig := loadFileConfig(path)

	cfg := &Config{
		DeepSeekAPIKey:  getEnvOrDefault("DEEPSEEK_API_KEY", fileConfig.APIKeys.DeepSeek),
		DeepSeekAPIURL:  getEnvOrDefault("DEEPSEEK_API_URL", fileConfig.Providers.DeepSeekURL),
		GroqAPIKey:      getEnvOrDefault("GROQ_API_KEY", fileConfig.APIKeys.Groq),
		GroqAPIURL:      getEnvOrDefault("GROQ_API_URL", fileConfig.Providers.GroqURL),
		AnthropicAPIKey: getEnvOrDefault("ANTHROPIC_API_KEY", fileConfig.APIKeys.Anthropic),
		OpenAIAPIKey:    getEnvOrDefault("OPENAI_API_KEY", fileConfig.APIKeys.OpenAI),
		GoogleAPIKey:    getEnvOrDefault("GOOGLE_API_KEY", fileConfig.APIKeys.Google),

		ProviderChain: fileConfig.Providers.Chain,

		ConfidenceThreshold:  floatOr(fileConfig.Pipeline.ConfidenceThreshold, DefaultConfidenceThreshold),
		MaxTries:             intOr(fileConfig.Pipeline.MaxTries, DefaultMaxTries),
		BaseBackoff:          secondsToDuration(floatOr(fileConfig.Pipeline.BaseBackoffSeconds, DefaultBaseBackoffSeconds)),
		RequestTimeout:       secondsToDuration(floatOr(fileConfig.Pipeline.RequestTimeoutSeconds, DefaultRequestTimeoutSecond)),
		ImprovementThreshold: floatOr(fileConfig.Pipeline.ImprovementThreshold, DefaultImprovementThreshold),
		ProviderRate:         floatOr(fileConfig.Pipeline.ProviderRate, 0),

		HTTPBind:    getEnvOrDefault("VOLTGATE_HTTP_BIND", orString(fileConfig.Server.Bind, DefaultHTTPBind)),
		PostgresDSN: getEnvOrDefault("VOLTGATE_POSTGRES_DSN", fileConfig.Server.PostgresDSN),
		Workers:     intOr(fileConfig.Server.Workers, DefaultWorkers),

		ConfigDir: configDir,
	}

	if len(cfg.ProviderChain) == 0 {
		cfg.ProviderChain = []string{"deepseek", "groq"}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides lets environment variables override pipeline
// tuning from the file.
func applyEnvOverrides(cfg *Config) {
	if v, ok := envFloat("AI_CONFIDENCE_THRESHOLD"); ok {
		cfg.ConfidenceThreshold = v
	}
	if v, ok := envFloat("AI_MAX_TRIES"); ok {
		cfg.MaxTries = int(v)
	}
	if v, ok := envFloat("AI_BASE_BACKOFF"); ok {
		cfg.BaseBackoff = secondsToDuration(v)
	}
	if v, ok := envFloat("AI_IMPROVEMENT_THRESHOLD"); ok {
		cfg.ImprovementThreshold = v
	}
}

// HasProvider returns true if the named provider has credentials.
func (c *Config) HasProvider(name string) bool {
	switch name {
	case "deepseek":
		return c.DeepSeekAPIKey != ""
	case "groq":
		return c.GroqAPIKey != ""
	case "anthropic":
		return c.AnthropicAPIKey != ""
	case "openai":
		return c.OpenAIAPIKey != ""
	case "google":
		return c.GoogleAPIKey != ""
	default:
		return false
	}
}

// loadFileConfig reads the config file, returning empty config if not found.
func loadFileConfig(path string) *FileConfig {
	cfg := &FileConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg // Return empty config if file doesn't exist
	}

	_ = yaml.Unmarshal(data, cfg) // Ignore parse errors, use defaults
	return cfg
}

// getEnvOrDefault returns the environment variable value if set,
// otherwise returns the default value.
func getEnvOrDefault(envVar, defaultValue string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return defaultValue
}

func envFloat(envVar string) (float64, bool) {
	raw := os.Getenv(envVar)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func orString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func getConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, ".voltgate")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}
	return configDir, nil
}
