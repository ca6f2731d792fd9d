package repositories

import (
	"github.com/aicode-cli/aicode/internal/domain/entities"
)

// AdapterRepository is one manifest-dialect adapter. Parse must uphold the
// round-trip invariant: rendering an unmodified document reproduces the
// input byte-for-byte. Unparsable content degrades to opaque segments
// with a diagnostic; it is never dropped and never fatal.
type AdapterRepository interface {
	entities.DialectFormatter

	// Name is the dialect name, e.g. "requirements".
	Name() string
	// Ecosystem is the ecosystem the dialect belongs to.
	Ecosystem() string
	// Detect reports whether a file name belongs to this dialect.
	Detect(filename string) bool
	// Parse builds the segment model from manifest text.
	Parse(text, path string) (*entities.ManifestDocument, error)
}
