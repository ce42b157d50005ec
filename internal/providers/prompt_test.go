package providers

import (
	"strings"
	"testing"
)

func TestBuildUserPrompt(t *testing.T) {
	prompt := buildUserPrompt("What is the warranty?", []string{"Two years.", "Parts only."})

	if !strings.HasPrefix(prompt, "Context:\n") {
		t.Errorf("Prompt should start with the context block: %q", prompt)
	}
	if !strings.Contains(prompt, "Two years.\n\nParts only.") {
		t.Errorf("Passages should be joined with blank lines: %q", prompt)
	}
	if !strings.HasSuffix(prompt, "Question: What is the warranty?") {
		t.Errorf("Prompt should end with the question: %q", prompt)
	}
}

func TestNewAnswererFromEnv(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "")
	if _, _, err := NewAnswererFromEnv(); err == nil {
		t.Error("Expected error when GEMINI_API_KEY is missing")
	}

	t.Setenv("GEMINI_API_KEY", "test-key")
	answerer, model, err := NewAnswererFromEnv()
	if err != nil {
		t.Fatalf("NewAnswererFromEnv failed: %v", err)
	}
	if answerer == nil {
		t.Fatal("Expected an answerer")
	}
	if model != "gemini-1.5-flash" {
		t.Errorf("Unexpected default model: %s", model)
	}

	t.Setenv("LLM_PROVIDER", "something-else")
	if _, _, err := NewAnswererFromEnv(); err == nil {
		t.Error("Expected error for unknown provider")
	}
}
