package providers

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are a helpful assistant for question-answering tasks. " +
	"Answer the following question based only on the provided context. " +
	"If you don't know the answer, just say that you don't know. " +
	"Don't try to make up an answer."

// answerTemperature keeps answers grounded rather than creative.
const answerTemperature = float32(0.3)

// buildUserPrompt joins the retrieved passages into the context block the
// model answers from.
func buildUserPrompt(question string, passages []string) string {
	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s", strings.Join(passages, "\n\n"), question)
}
