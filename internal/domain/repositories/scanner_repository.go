package repositories

import (
	"github.com/aicode-cli/aicode/internal/domain/entities"
)

// ScannerRepository extracts import-like references from source files of
// one ecosystem. Scanners are lexical best-effort heuristics, not
// compiler front ends, and perform no I/O themselves.
type ScannerRepository interface {
	// Ecosystem is the ecosystem whose manifests the usages match against.
	Ecosystem() string
	// Extensions lists the source file extensions to scan.
	Extensions() []string
	// ScanFile extracts the module references from one file's content.
	ScanFile(path, content string) []entities.UsageRecord
}
