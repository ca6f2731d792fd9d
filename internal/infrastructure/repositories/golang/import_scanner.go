package golang

import (
	"regexp"
	"strings"

	"github.com/aicode-cli/aicode/internal/domain/entities"
	domainRepos "github.com/aicode-cli/aicode/internal/domain/repositories"
)

var (
	importBlockOpen = regexp.MustCompile(`^import\s+\(\s*$`)
	importSingle    = regexp.MustCompile(`^import\s+(?:[\w.]+\s+)?"([^"]+)"`)
	importMember    = regexp.MustCompile(`^\s*(?:[\w.]+\s+)?"([^"]+)"`)
)

// ImportScannerRepository extracts third-party import paths from Go
// sources. Standard-library paths are recognized by their dotless first
// segment; matching against go.mod entries happens later by module-path
// prefix.
type ImportScannerRepository struct{}

// NewImportScannerRepository creates the Go usage scanner.
func NewImportScannerRepository() domainRepos.ScannerRepository {
	return &ImportScannerRepository{}
}

func (s *ImportScannerRepository) Ecosystem() string { return entities.EcosystemGo }

func (s *ImportScannerRepository) Extensions() []string { return []string{".go"} }

func (s *ImportScannerRepository) ScanFile(path, content string) []entities.UsageRecord {
	var records []entities.UsageRecord
	inBlock := false
	for i, raw := range entities.SplitLinesKeepEnds(content) {
		lineNo := i + 1
		line := entities.TrimLineEnding(raw)
		trimmed := strings.TrimSpace(line)

		if inBlock {
			if trimmed == ")" {
				inBlock = false
				continue
			}
			if m := importMember.FindStringSubmatch(line); m != nil {
				records = appendUsage(records, path, lineNo, m[1])
			}
			continue
		}

		if importBlockOpen.MatchString(line) {
			inBlock = true
			continue
		}
		if m := importSingle.FindStringSubmatch(line); m != nil {
			records = appendUsage(records, path, lineNo, m[1])
		}
	}
	return records
}

func appendUsage(records []entities.UsageRecord, path string, lineNo int, importPath string) []entities.UsageRecord {
	first := importPath
	if idx := strings.IndexByte(first, '/'); idx >= 0 {
		first = first[:idx]
	}
	// No dot in the first segment means standard library.
	if !strings.Contains(first, ".") {
		return records
	}
	return append(records, entities.UsageRecord{
		ModuleName: importPath,
		Ecosystem:  entities.EcosystemGo,
		FilePath:   path,
		LineNumber: lineNo,
	})
}
