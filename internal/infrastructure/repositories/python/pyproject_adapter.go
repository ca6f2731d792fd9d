package python

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/aicode-cli/aicode/internal/domain/entities"
	domainRepos "github.com/aicode-cli/aicode/internal/domain/repositories"
)

const pyprojectDialect = "pyproject"

var (
	sectionPattern     = regexp.MustCompile(`^\[([^\]]+)\]\s*(?:#.*)?$`)
	arrayOpenPattern   = regexp.MustCompile(`^\s*([A-Za-z0-9._-]+)\s*=\s*\[\s*(?:#.*)?$`)
	arrayClosePattern  = regexp.MustCompile(`^\s*\]\s*,?\s*(?:#.*)?$`)
	arrayItemPattern   = regexp.MustCompile(`^(\s*)(['"])(.*?)(['"])(\s*,?\s*)(#.*)?$`)
	inlineArrayPattern = regexp.MustCompile(`^\s*([A-Za-z0-9._-]+)\s*=\s*\[.*\]\s*(?:#.*)?$`)
	poetryDepPattern   = regexp.MustCompile(`^(\s*)([A-Za-z0-9._-]+)\s*=\s*(.+?)\s*(?:#.*)?$`)
	poetryVersionValue = regexp.MustCompile(`^(['"])([^'"]*)(['"])$`)
	poetryInlineTable  = regexp.MustCompile(`version\s*=\s*(['"])([^'"]*)(['"])`)
)

// PyprojectAdapterRepository parses pyproject.toml dependency tables. TOML
// well-formedness is checked with a real decoder, but entry locations come
// from a line scan so untouched lines survive byte-for-byte. It understands
// PEP 621 dependency arrays and poetry dependency tables; everything else
// in the file is opaque.
type PyprojectAdapterRepository struct{}

// NewPyprojectAdapterRepository creates the pyproject.toml adapter.
func NewPyprojectAdapterRepository() domainRepos.AdapterRepository {
	return &PyprojectAdapterRepository{}
}

func (a *PyprojectAdapterRepository) Name() string      { return pyprojectDialect }
func (a *PyprojectAdapterRepository) Ecosystem() string { return entities.EcosystemPython }

func (a *PyprojectAdapterRepository) Detect(filename string) bool {
	return strings.EqualFold(filepath.Base(filename), "pyproject.toml")
}

// Parse validates the TOML and walks the file line by line tracking the
// current table, opening entries only inside known dependency groups.
func (a *PyprojectAdapterRepository) Parse(text, path string) (*entities.ManifestDocument, error) {
	doc := &entities.ManifestDocument{
		Path:      path,
		Dialect:   pyprojectDialect,
		Ecosystem: entities.EcosystemPython,
	}

	var decoded map[string]any
	if _, err := toml.Decode(text, &decoded); err != nil {
		doc.AddDiagnostic(0, fmt.Sprintf("invalid TOML: %v", err))
		for i, raw := range entities.SplitLinesKeepEnds(text) {
			appendOpaque(doc, raw, i+1)
		}
		return doc, nil
	}

	section := ""
	group := ""
	for i, raw := range entities.SplitLinesKeepEnds(text) {
		lineNo := i + 1
		line := entities.TrimLineEnding(raw)

		if m := sectionPattern.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			section = strings.TrimSpace(m[1])
			group = ""
			appendOpaque(doc, raw, lineNo)
			continue
		}

		if group != "" {
			if arrayClosePattern.MatchString(line) {
				group = ""
				appendOpaque(doc, raw, lineNo)
				continue
			}
			a.parseArrayItem(doc, raw, line, lineNo, group)
			continue
		}

		switch {
		case section == "project" && arrayOpenPattern.MatchString(line):
			if m := arrayOpenPattern.FindStringSubmatch(line); m[1] == "dependencies" {
				group = "project.dependencies"
			}
			appendOpaque(doc, raw, lineNo)
		case section == "project.optional-dependencies" && arrayOpenPattern.MatchString(line):
			m := arrayOpenPattern.FindStringSubmatch(line)
			group = "project.optional-dependencies." + m[1]
			appendOpaque(doc, raw, lineNo)
		case isDependencyArrayOwner(section) && inlineArrayPattern.MatchString(line):
			doc.AddDiagnostic(lineNo, "single-line dependency arrays are not editable")
			appendOpaque(doc, raw, lineNo)
		case isPoetryDependencyTable(section):
			a.parsePoetryItem(doc, raw, line, lineNo, section)
		default:
			appendOpaque(doc, raw, lineNo)
		}
	}
	return doc, nil
}

func isDependencyArrayOwner(section string) bool {
	return section == "project" || section == "project.optional-dependencies"
}

func isPoetryDependencyTable(section string) bool {
	if section == "tool.poetry.dependencies" || section == "tool.poetry.dev-dependencies" {
		return true
	}
	return strings.HasPrefix(section, "tool.poetry.group.") &&
		strings.HasSuffix(section, ".dependencies")
}

// parseArrayItem handles one element of a PEP 621 dependency array. The
// element is a full requirement string, so the requirements.txt grammar
// applies inside the quotes.
func (a *PyprojectAdapterRepository) parseArrayItem(
	doc *entities.ManifestDocument,
	raw, line string,
	lineNo int,
	group string,
) {
	m := arrayItemPattern.FindStringSubmatch(line)
	if m == nil || m[2] != m[4] {
		doc.AddDiagnostic(lineNo, "unrecognized dependency array element")
		appendOpaque(doc, raw, lineNo)
		return
	}

	requirement := m[3]
	name, _, rest, ok := splitRequirementLine(requirement)
	if !ok {
		doc.AddDiagnostic(lineNo, "unrecognized requirement string")
		appendOpaque(doc, raw, lineNo)
		return
	}

	kind := entities.KindRuntime
	if strings.Contains(rest, ";") {
		kind = entities.KindConditional
	}
	appendEntry(doc, raw, lineNo, &entities.DependencyEntry{
		Name:         entities.NormalizePythonName(name),
		RawSpecifier: strings.TrimSpace(rest),
		Kind:         kind,
		Group:        group,
		SourceSpan:   entities.Span{StartLine: lineNo, EndLine: lineNo},
		LineText:     line,
	})
}

// parsePoetryItem handles one `name = "^1.2"` line of a poetry dependency
// table. Inline tables contribute their version field; tables without one
// (path or git dependencies) stay opaque.
func (a *PyprojectAdapterRepository) parsePoetryItem(
	doc *entities.ManifestDocument,
	raw, line string,
	lineNo int,
	section string,
) {
	m := poetryDepPattern.FindStringSubmatch(line)
	if m == nil {
		appendOpaque(doc, raw, lineNo)
		return
	}
	name, value := m[2], m[3]
	if strings.EqualFold(name, "python") {
		appendOpaque(doc, raw, lineNo)
		return
	}

	specifier := ""
	switch {
	case poetryVersionValue.MatchString(value):
		specifier = poetryVersionValue.FindStringSubmatch(value)[2]
	case strings.HasPrefix(value, "{"):
		vm := poetryInlineTable.FindStringSubmatch(value)
		if vm == nil {
			doc.AddDiagnostic(lineNo, "poetry dependency without a version field")
			appendOpaque(doc, raw, lineNo)
			return
		}
		specifier = vm[2]
	default:
		doc.AddDiagnostic(lineNo, "unrecognized poetry dependency value")
		appendOpaque(doc, raw, lineNo)
		return
	}

	appendEntry(doc, raw, lineNo, &entities.DependencyEntry{
		Name:         entities.NormalizePythonName(name),
		RawSpecifier: specifier,
		Kind:         entities.KindRuntime,
		Group:        section,
		SourceSpan:   entities.Span{StartLine: lineNo, EndLine: lineNo},
		LineText:     line,
	})
}

// FormatEntry renders a PEP 621 array element with the house indentation.
// The trailing comma is safe because insertion always lands before an
// existing element.
func (a *PyprojectAdapterRepository) FormatEntry(name, specifier string) string {
	return fmt.Sprintf("    \"%s%s\",", name, specifier)
}

// RequiresSpecifier is false: a bare name is a valid PEP 508 requirement.
func (a *PyprojectAdapterRepository) RequiresSpecifier() bool { return false }

// InsertAnchor places new entries immediately before the first element of
// the [project] dependencies array, so no existing line needs a comma
// added. Files without that array refuse inserts.
func (a *PyprojectAdapterRepository) InsertAnchor(doc *entities.ManifestDocument) (int, bool) {
	for _, seg := range doc.Segments {
		if seg.Kind == entities.SegmentEntry && seg.Entry.Group == "project.dependencies" {
			return seg.Span.StartLine - 1, true
		}
	}
	return 0, false
}

// ReplaceSpecifier rewrites the version constraint inside the quoted value
// while keeping indentation, quoting style and trailing bytes intact.
func (a *PyprojectAdapterRepository) ReplaceSpecifier(
	entry *entities.DependencyEntry,
	specifier string,
) (string, bool) {
	if strings.HasPrefix(entry.Group, "tool.poetry") {
		return a.replacePoetrySpecifier(entry, specifier)
	}

	m := arrayItemPattern.FindStringSubmatch(entry.LineText)
	if m == nil {
		return "", false
	}
	_, namePart, rest, ok := splitRequirementLine(m[3])
	if !ok {
		return "", false
	}
	tail := ""
	if idx := strings.Index(rest, ";"); idx >= 0 {
		tail = " " + strings.TrimLeft(rest[idx:], " \t")
	}
	return m[1] + m[2] + namePart + specifier + tail + m[4] + m[5] + m[6], true
}

func (a *PyprojectAdapterRepository) replacePoetrySpecifier(
	entry *entities.DependencyEntry,
	specifier string,
) (string, bool) {
	m := poetryDepPattern.FindStringSubmatch(entry.LineText)
	if m == nil {
		return "", false
	}
	value := m[3]
	switch {
	case poetryVersionValue.MatchString(value):
		vm := poetryVersionValue.FindStringSubmatch(value)
		newValue := vm[1] + specifier + vm[3]
		return strings.Replace(entry.LineText, value, newValue, 1), true
	case strings.HasPrefix(value, "{"):
		vm := poetryInlineTable.FindStringSubmatch(value)
		if vm == nil {
			return "", false
		}
		newValue := strings.Replace(value, vm[0],
			"version = "+vm[1]+specifier+vm[3], 1)
		return strings.Replace(entry.LineText, value, newValue, 1), true
	}
	return "", false
}
