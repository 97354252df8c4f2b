package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

// setHomeEnv points the home directory at dir so Load resolves the
// config dir inside the test sandbox.
func setHomeEnv(t *testing.T, dir string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Setenv("USERPROFILE", dir)
	} else {
		t.Setenv("HOME", dir)
	}
}

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, v := range []string{
		"DEEPSEEK_API_KEY", "DEEPSEEK_API_URL",
		"GROQ_API_KEY", "GROQ_API_URL",
		"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GOOGLE_API_KEY",
		"VOLTGATE_HTTP_BIND", "VOLTGATE_POSTGRES_DSN",
		"AI_CONFIDENCE_THRESHOLD", "AI_MAX_TRIES",
		"AI_BASE_BACKOFF", "AI_IMPROVEMENT_THRESHOLD",
	} {
		t.Setenv(v, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearProviderEnv(t)
	setHomeEnv(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ConfidenceThreshold != DefaultConfidenceThreshold {
		t.Errorf("ConfidenceThreshold = %v, want %v", cfg.ConfidenceThreshold, DefaultConfidenceThreshold)
	}
	if cfg.MaxTries != DefaultMaxTries {
		t.Errorf("MaxTries = %d, want %d", cfg.MaxTries, DefaultMaxTries)
	}
	if cfg.BaseBackoff != time.Second {
		t.Errorf("BaseBackoff = %v, want 1s", cfg.BaseBackoff)
	}
	if cfg.ImprovementThreshold != DefaultImprovementThreshold {
		t.Errorf("ImprovementThreshold = %v, want %v", cfg.ImprovementThreshold, DefaultImprovementThreshold)
	}
	if cfg.HTTPBind != DefaultHTTPBind {
		t.Errorf("HTTPBind = %q, want %q", cfg.HTTPBind, DefaultHTTPBind)
	}
	if cfg.Workers != DefaultWorkers {
		t.Errorf("Workers = %d, want %d", cfg.Workers, DefaultWorkers)
	}
	want := []string{"deepseek", "groq"}
	if len(cfg.ProviderChain) != 2 || cfg.ProviderChain[0] != want[0] || cfg.ProviderChain[1] != want[1] {
		t.Errorf("ProviderChain = %v, want %v", cfg.ProviderChain, want)
	}
	if cfg.HasProvider("deepseek") {
		t.Error("HasProvider(deepseek) = true with no key set")
	}
}

func TestConfigUsesEnvAPIKeys(t *testing.T) {
	clearProviderEnv(t)
	setHomeEnv(t, t.TempDir())
	t.Setenv("DEEPSEEK_API_KEY", "env-deepseek-key")
	t.Setenv("GROQ_API_KEY", "env-groq-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DeepSeekAPIKey != "env-deepseek-key" {
		t.Errorf("DeepSeekAPIKey = %q, want env value", cfg.DeepSeekAPIKey)
	}
	if !cfg.HasProvider("deepseek") || !cfg.HasProvider("groq") {
		t.Error("providers with env keys must report as configured")
	}
	if cfg.HasProvider("anthropic") {
		t.Error("anthropic should be unconfigured")
	}
}

func TestLoadFileValues(t *testing.T) {
	clearProviderEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `api_keys:
  deepseek: file-deepseek-key
providers:
  chain: [groq, deepseek]
  groq_url: https://groq.example.com/v1
pipeline:
  confidence_threshold: 0.6
  max_tries: 5
  base_backoff_seconds: 0.5
  improvement_threshold: 0.01
server:
  bind: ":9090"
  workers: 8
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path, dir)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.DeepSeekAPIKey != "file-deepseek-key" {
		t.Errorf("DeepSeekAPIKey = %q, want file value", cfg.DeepSeekAPIKey)
	}
	if cfg.GroqAPIURL != "https://groq.example.com/v1" {
		t.Errorf("GroqAPIURL = %q", cfg.GroqAPIURL)
	}
	if len(cfg.ProviderChain) != 2 || cfg.ProviderChain[0] != "groq" {
		t.Errorf("ProviderChain = %v, want groq first", cfg.ProviderChain)
	}
	if cfg.ConfidenceThreshold != 0.6 {
		t.Errorf("ConfidenceThreshold = %v, want 0.6", cfg.ConfidenceThreshold)
	}
	if cfg.MaxTries != 5 {
		t.Errorf("MaxTries = %d, want 5", cfg.MaxTries)
	}
	if cfg.BaseBackoff != 500*time.Millisecond {
		t.Errorf("BaseBackoff = %v, want 500ms", cfg.BaseBackoff)
	}
	if cfg.ImprovementThreshold != 0.01 {
		t.Errorf("ImprovementThreshold = %v, want 0.01", cfg.ImprovementThreshold)
	}
	if cfg.HTTPBind != ":9090" {
		t.Errorf("HTTPBind = %q, want :9090", cfg.HTTPBind)
	}
	if cfg.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Workers)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearProviderEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `api_keys:
  deepseek: file-key
pipeline:
  confidence_threshold: 0.6
  max_tries: 5
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("DEEPSEEK_API_KEY", "env-key")
	t.Setenv("AI_CONFIDENCE_THRESHOLD", "0.85")
	t.Setenv("AI_MAX_TRIES", "2")
	t.Setenv("AI_BASE_BACKOFF", "3")

	cfg, err := LoadFile(path, dir)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.DeepSeekAPIKey != "env-key" {
		t.Errorf("DeepSeekAPIKey = %q, env must win", cfg.DeepSeekAPIKey)
	}
	if cfg.ConfidenceThreshold != 0.85 {
		t.Errorf("ConfidenceThreshold = %v, want 0.85", cfg.ConfidenceThreshold)
	}
	if cfg.MaxTries != 2 {
		t.Errorf("MaxTries = %d, want 2", cfg.MaxTries)
	}
	if cfg.BaseBackoff != 3*time.Second {
		t.Errorf("BaseBackoff = %v, want 3s", cfg.BaseBackoff)
	}
}

func TestMalformedFileFallsBackToDefaults(t *testing.T) {
	clearProviderEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("{not yaml: ["), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFile(path, dir)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.ConfidenceThreshold != DefaultConfidenceThreshold {
		t.Errorf("ConfidenceThreshold = %v, want default", cfg.ConfidenceThreshold)
	}
}
