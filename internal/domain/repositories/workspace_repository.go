package repositories

import (
	"context"

	"github.com/aicode-cli/aicode/internal/domain/entities"
)

// SourceFile is one file read from the project, with the checksum
// captured at read time for staleness detection at apply time.
type SourceFile struct {
	Path     string
	Text     string
	Checksum string
}

// WorkspaceRepository is the only component that touches the filesystem:
// checksummed reads, read-only traversal, and the apply gate's atomic
// confirmed write.
type WorkspaceRepository interface {
	// ReadFile reads one file and records its checksum.
	ReadFile(path string) (*SourceFile, error)
	// WalkSources traverses the project root, calling visit for every
	// regular file that passes the exclusion and size rules. Traversal
	// stops when the context is cancelled or visit returns an error.
	WalkSources(ctx context.Context, root string, settings *entities.Settings,
		visit func(path, content string) error) error
	// Apply writes newText to path only when confirmed, as an atomic
	// replace, after verifying the file still matches the checksum
	// captured at read time.
	Apply(path, checksum, newText string, confirmed bool) (entities.ApplyStatus, error)
}
