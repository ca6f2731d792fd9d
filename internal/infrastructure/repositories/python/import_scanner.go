package python

import (
	"regexp"
	"strings"

	"github.com/aicode-cli/aicode/internal/domain/entities"
	domainRepos "github.com/aicode-cli/aicode/internal/domain/repositories"
)

var (
	importPattern = regexp.MustCompile(`^\s*import\s+(.+)$`)
	fromPattern   = regexp.MustCompile(`^\s*from\s+([A-Za-z_][A-Za-z0-9_.]*)\s+import\b`)
)

// stdlibModules holds the top-level standard library modules that never
// count as external usage.
var stdlibModules = map[string]struct{}{
	"__future__": {}, "abc": {}, "argparse": {}, "ast": {}, "asyncio": {},
	"base64": {}, "binascii": {}, "bisect": {}, "builtins": {}, "calendar": {},
	"collections": {}, "concurrent": {}, "configparser": {}, "contextlib": {},
	"copy": {}, "csv": {}, "ctypes": {}, "dataclasses": {}, "datetime": {},
	"decimal": {}, "difflib": {}, "dis": {}, "email": {}, "enum": {},
	"errno": {}, "fcntl": {}, "fnmatch": {}, "fractions": {}, "functools": {},
	"gc": {}, "getpass": {}, "gettext": {}, "glob": {}, "gzip": {},
	"hashlib": {}, "heapq": {}, "hmac": {}, "html": {}, "http": {},
	"importlib": {}, "inspect": {}, "io": {}, "ipaddress": {}, "itertools": {},
	"json": {}, "keyword": {}, "locale": {}, "logging": {}, "math": {},
	"mimetypes": {}, "multiprocessing": {}, "numbers": {}, "operator": {},
	"os": {}, "pathlib": {}, "pickle": {}, "platform": {}, "pprint": {},
	"queue": {}, "random": {}, "re": {}, "secrets": {}, "select": {},
	"selectors": {}, "shlex": {}, "shutil": {}, "signal": {}, "site": {},
	"smtplib": {}, "socket": {}, "sqlite3": {}, "ssl": {}, "stat": {},
	"statistics": {}, "string": {}, "struct": {}, "subprocess": {}, "sys": {},
	"tarfile": {}, "tempfile": {}, "textwrap": {}, "threading": {}, "time": {},
	"token": {}, "tokenize": {}, "traceback": {}, "types": {}, "typing": {},
	"unicodedata": {}, "unittest": {}, "urllib": {}, "uuid": {}, "venv": {},
	"warnings": {}, "weakref": {}, "webbrowser": {}, "xml": {}, "zipfile": {},
	"zlib": {},
}

// ImportScannerRepository extracts external module usage from Python
// sources with line-oriented matching. Only the top-level package segment
// is reported; relative imports and standard-library modules are skipped.
type ImportScannerRepository struct{}

// NewImportScannerRepository creates the Python usage scanner.
func NewImportScannerRepository() domainRepos.ScannerRepository {
	return &ImportScannerRepository{}
}

func (s *ImportScannerRepository) Ecosystem() string { return entities.EcosystemPython }

func (s *ImportScannerRepository) Extensions() []string { return []string{".py"} }

func (s *ImportScannerRepository) ScanFile(path, content string) []entities.UsageRecord {
	var records []entities.UsageRecord
	for i, raw := range entities.SplitLinesKeepEnds(content) {
		lineNo := i + 1
		line := entities.TrimLineEnding(raw)

		if m := fromPattern.FindStringSubmatch(line); m != nil {
			records = appendUsage(records, path, lineNo, m[1])
			continue
		}
		if m := importPattern.FindStringSubmatch(line); m != nil {
			for _, clause := range strings.Split(m[1], ",") {
				name := strings.TrimSpace(clause)
				if idx := strings.Index(name, " as "); idx >= 0 {
					name = name[:idx]
				}
				records = appendUsage(records, path, lineNo, strings.TrimSpace(name))
			}
		}
	}
	return records
}

// appendUsage records the top-level segment of a dotted module path unless
// it is relative, empty or part of the standard library.
func appendUsage(records []entities.UsageRecord, path string, lineNo int, module string) []entities.UsageRecord {
	if module == "" || strings.HasPrefix(module, ".") {
		return records
	}
	top := module
	if idx := strings.IndexByte(top, '.'); idx >= 0 {
		top = top[:idx]
	}
	if !isIdentifier(top) {
		return records
	}
	if _, ok := stdlibModules[top]; ok {
		return records
	}
	return append(records, entities.UsageRecord{
		ModuleName: top,
		Ecosystem:  entities.EcosystemPython,
		FilePath:   path,
		LineNumber: lineNo,
	})
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}
