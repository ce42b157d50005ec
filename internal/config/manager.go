package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the user's persistent configuration preferences.
type Config struct {
	LLMProvider  string `json:"llm_provider,omitempty"`  // openai, anthropic, gemini, ollama
	APIKey       string `json:"api_key,omitempty"`       // The API key for the selected provider
	Model        string `json:"model,omitempty"`         // Default model name
	BaseURL      string `json:"base_url,omitempty"`      // Optional override for API base URL
	EmbeddingKey string `json:"embedding_key,omitempty"` // Optional separate key for embeddings
	ServerURL    string `json:"server_url,omitempty"`    // Default Q&A server for the client
}

// Manager handles loading and saving the configuration.
type Manager struct {
	configDir string
}

// NewManager creates a new configuration manager.
func NewManager() (*Manager, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user config dir: %w", err)
	}

	return &Manager{
		configDir: filepath.Join(configDir, "documentor"),
	}, nil
}

// GetConfigPath returns the absolute path to the config.json file.
func (m *Manager) GetConfigPath() string {
	return filepath.Join(m.configDir, "config.json")
}

// Load reads the configuration from disk.
// If the file does not exist, it returns an empty Config and no error.
func (m *Manager) Load() (*Config, error) {
	path := m.GetConfigPath()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config json: %w", err)
	}

	return &cfg, nil
}

// Save writes the configuration to disk with restricted permissions (0600).
func (m *Manager) Save(cfg *Config) error {
	if err := os.MkdirAll(m.configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// API keys live here, so keep the file owner-only.
	if err := os.WriteFile(m.GetConfigPath(), data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Exists checks if the configuration file has been created.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.GetConfigPath())
	return !os.IsNotExist(err)
}

// ApplyToEnv exports config values into the process environment so the
// env-driven factories pick them up. Values already set in the environment
// win.
func (cfg *Config) ApplyToEnv() {
	setIfEmpty("LLM_PROVIDER", cfg.LLMProvider)
	setIfEmpty("EMBEDDING_API_KEY", cfg.EmbeddingKey)

	switch cfg.LLMProvider {
	case "openai":
		setIfEmpty("OPENAI_API_KEY", cfg.APIKey)
		setIfEmpty("OPENAI_MODEL", cfg.Model)
		setIfEmpty("OPENAI_BASE_URL", cfg.BaseURL)
	case "anthropic":
		setIfEmpty("ANTHROPIC_API_KEY", cfg.APIKey)
		setIfEmpty("ANTHROPIC_MODEL", cfg.Model)
	case "gemini":
		setIfEmpty("GEMINI_API_KEY", cfg.APIKey)
		setIfEmpty("GEMINI_MODEL", cfg.Model)
	case "ollama":
		setIfEmpty("OLLAMA_BASE_URL", cfg.BaseURL)
		setIfEmpty("OLLAMA_MODEL", cfg.Model)
	}
}

func setIfEmpty(key, value string) {
	if value != "" && os.Getenv(key) == "" {
		os.Setenv(key, value)
	}
}
