package providers

import (
	"fmt"
	"os"
)

// NewAnswererFromEnv creates an Answerer based on environment variables.
// LLM_PROVIDER selects the backend; each provider reads its own key and
// model variables.
func NewAnswererFromEnv() (Answerer, string, error) {
	provider := os.Getenv("LLM_PROVIDER")
	if provider == "" {
		provider = "gemini"
	}

	switch provider {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, "", fmt.Errorf("OPENAI_API_KEY not set")
		}

		modelName := os.Getenv("OPENAI_MODEL")
		if modelName == "" {
			modelName = "gpt-4o-mini"
		}

		baseURL := os.Getenv("OPENAI_BASE_URL") // For OpenAI-compatible APIs

		return NewOpenAIAnswerer(apiKey, modelName, baseURL), modelName, nil

	case "anthropic":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, "", fmt.Errorf("ANTHROPIC_API_KEY not set")
		}

		modelName := os.Getenv("ANTHROPIC_MODEL")
		if modelName == "" {
			modelName = "claude-3-5-haiku-20241022"
		}

		return NewAnthropicAnswerer(apiKey, modelName), modelName, nil

	case "gemini":
		// Google Gemini via its OpenAI-compatible endpoint
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			return nil, "", fmt.Errorf("GEMINI_API_KEY not set")
		}

		modelName := os.Getenv("GEMINI_MODEL")
		if modelName == "" {
			modelName = "gemini-1.5-flash"
		}

		baseURL := "https://generativelanguage.googleapis.com/v1beta/openai"

		return NewOpenAIAnswerer(apiKey, modelName, baseURL), modelName, nil

	case "ollama":
		// Ollama local server (OpenAI-compatible)
		baseURL := os.Getenv("OLLAMA_BASE_URL")
		if baseURL == "" {
			baseURL = "http://localhost:11434/v1"
		}

		modelName := os.Getenv("OLLAMA_MODEL")
		if modelName == "" {
			modelName = "llama3.1"
		}

		apiKey := os.Getenv("OLLAMA_API_KEY")
		if apiKey == "" {
			apiKey = "ollama"
		}

		return NewOpenAIAnswerer(apiKey, modelName, baseURL), modelName, nil

	default:
		return nil, "", fmt.Errorf("unknown LLM_PROVIDER: %s (supported: openai, anthropic, gemini, ollama)", provider)
	}
}
