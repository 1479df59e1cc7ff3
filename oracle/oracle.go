// Package oracle wraps the language model behind a one-method interface so
// the pipeline stays testable with a canned client.
package oracle

import (
	"context"
	"errors"
)

// ErrEmptyCompletion indicates the model returned no usable text.
var ErrEmptyCompletion = errors.New("empty completion from model")

// Client produces a completion for one prompt pair. Implementations must be
// safe for concurrent use.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// SystemPrompt frames every request. Task-specific instructions travel in the
// user prompt so one client serves all pipeline steps.
const SystemPrompt = "You are a careful assistant that translates natural language questions " +
	"about a relational database into SQL building blocks. Follow the output format " +
	"instructions in each request exactly."
