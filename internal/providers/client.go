package providers

import "context"

// Answerer generates an answer to a question grounded in retrieved passages.
type Answerer interface {
	Answer(ctx context.Context, question string, passages []string) (string, error)
}
