package intelligence

import (
	"context"

	"github.com/johnquangdev/meeting-intelligence/pkg/ai"
)

// LLM is the language model every generator talks to. *ai.GroqClient satisfies it.
type LLM interface {
	Complete(ctx context.Context, req *ai.CompletionRequest) (*ai.CompletionResponse, error)
	Model() string
}

var _ LLM = (*ai.GroqClient)(nil)
