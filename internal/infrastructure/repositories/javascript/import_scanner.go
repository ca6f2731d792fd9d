package javascript

import (
	"regexp"
	"strings"

	"github.com/aicode-cli/aicode/internal/domain/entities"
	domainRepos "github.com/aicode-cli/aicode/internal/domain/repositories"
)

var (
	importFromPattern = regexp.MustCompile(`(?:^|\s)(?:import|export)\s+(?:[^'"]*?\s+from\s+)?['"]([^'"]+)['"]`)
	requirePattern    = regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`)
	dynImportPattern  = regexp.MustCompile(`import\(\s*['"]([^'"]+)['"]\s*\)`)
)

// nodeBuiltins are the bare module names resolvable without an install.
// The node: prefix form is handled separately.
var nodeBuiltins = map[string]struct{}{
	"assert": {}, "async_hooks": {}, "buffer": {}, "child_process": {},
	"cluster": {}, "console": {}, "constants": {}, "crypto": {}, "dgram": {},
	"dns": {}, "domain": {}, "events": {}, "fs": {}, "http": {}, "http2": {},
	"https": {}, "inspector": {}, "module": {}, "net": {}, "os": {},
	"path": {}, "perf_hooks": {}, "process": {}, "punycode": {},
	"querystring": {}, "readline": {}, "repl": {}, "stream": {},
	"string_decoder": {}, "timers": {}, "tls": {}, "trace_events": {},
	"tty": {}, "url": {}, "util": {}, "v8": {}, "vm": {}, "worker_threads": {},
	"zlib": {},
}

// ImportScannerRepository extracts package usage from JavaScript and
// TypeScript sources. Scoped packages report both segments; deep imports
// report only the package portion of the path.
type ImportScannerRepository struct{}

// NewImportScannerRepository creates the JavaScript usage scanner.
func NewImportScannerRepository() domainRepos.ScannerRepository {
	return &ImportScannerRepository{}
}

func (s *ImportScannerRepository) Ecosystem() string { return entities.EcosystemJavaScript }

func (s *ImportScannerRepository) Extensions() []string {
	return []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs"}
}

func (s *ImportScannerRepository) ScanFile(path, content string) []entities.UsageRecord {
	var records []entities.UsageRecord
	for i, raw := range entities.SplitLinesKeepEnds(content) {
		lineNo := i + 1
		line := entities.TrimLineEnding(raw)

		seen := map[string]struct{}{}
		for _, pattern := range []*regexp.Regexp{importFromPattern, requirePattern, dynImportPattern} {
			for _, m := range pattern.FindAllStringSubmatch(line, -1) {
				name, ok := packageName(m[1])
				if !ok {
					continue
				}
				if _, dup := seen[name]; dup {
					continue
				}
				seen[name] = struct{}{}
				records = append(records, entities.UsageRecord{
					ModuleName: name,
					Ecosystem:  entities.EcosystemJavaScript,
					FilePath:   path,
					LineNumber: lineNo,
				})
			}
		}
	}
	return records
}

// packageName reduces an import path to the installable package name, or
// reports false for relative paths and node builtins.
func packageName(spec string) (string, bool) {
	if spec == "" || strings.HasPrefix(spec, ".") || strings.HasPrefix(spec, "/") {
		return "", false
	}
	if strings.HasPrefix(spec, "node:") {
		return "", false
	}

	parts := strings.Split(spec, "/")
	if strings.HasPrefix(spec, "@") {
		if len(parts) < 2 {
			return "", false
		}
		return parts[0] + "/" + parts[1], true
	}
	if _, ok := nodeBuiltins[parts[0]]; ok {
		return "", false
	}
	return parts[0], true
}
