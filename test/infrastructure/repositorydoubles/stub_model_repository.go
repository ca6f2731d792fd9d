package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"errors"

	"github.com/aicode-cli/aicode/internal/domain/entities"
	"github.com/aicode-cli/aicode/internal/domain/repositories"
)

// SpyModelRepository implements repositories.ModelRepository as a
// configurable spy. Responses are consumed in order; requests are
// recorded for inspection.
type SpyModelRepository struct {
	// --- Submit ---
	Responses []string
	SubmitErr error

	// spy: requests received
	Requests []entities.ModelRequest
}

var _ repositories.ModelRepository = (*SpyModelRepository)(nil)

func (m *SpyModelRepository) Name() string { return "spy" }

func (m *SpyModelRepository) Submit(
	_ context.Context,
	req entities.ModelRequest,
) (string, error) {
	m.Requests = append(m.Requests, req)
	if m.SubmitErr != nil {
		return "", m.SubmitErr
	}
	if len(m.Requests) > len(m.Responses) {
		return "", errors.New("spy model ran out of scripted responses")
	}
	return m.Responses[len(m.Requests)-1], nil
}

// DummyModelRepository is a no-op implementation of repositories.ModelRepository.
type DummyModelRepository struct{}

var _ repositories.ModelRepository = (*DummyModelRepository)(nil)

func (d *DummyModelRepository) Name() string { return "dummy" }

func (d *DummyModelRepository) Submit(
	_ context.Context,
	_ entities.ModelRequest,
) (string, error) {
	return "", nil
}
