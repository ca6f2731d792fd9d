package repositories

import (
	"context"

	"github.com/aicode-cli/aicode/internal/domain/entities"
)

// ModelRepository is the narrow capability interface to the language-model
// backend. It is injected into the agent and refactor workflows only; the
// dependency reconciliation core never depends on it.
type ModelRepository interface {
	Name() string
	// Submit sends one prompt and returns the model's text verbatim.
	// Implementations must honor context cancellation and apply their own
	// request timeout.
	Submit(ctx context.Context, req entities.ModelRequest) (string, error)
}
