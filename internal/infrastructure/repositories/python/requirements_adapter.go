package python

import (
	"path/filepath"
	"strings"

	"github.com/aicode-cli/aicode/internal/domain/entities"
	domainRepos "github.com/aicode-cli/aicode/internal/domain/repositories"
)

const requirementsDialect = "requirements"

// RequirementsAdapterRepository parses pip requirements files into the
// ordered-segment model. One entry per non-blank, non-comment line;
// editable installs keep their kind, environment markers stay inside the
// raw specifier, and inclusion directives (-r/-c) are opaque because
// recursive resolution is out of scope.
type RequirementsAdapterRepository struct{}

// NewRequirementsAdapterRepository creates the requirements adapter.
func NewRequirementsAdapterRepository() domainRepos.AdapterRepository {
	return &RequirementsAdapterRepository{}
}

func (a *RequirementsAdapterRepository) Name() string      { return requirementsDialect }
func (a *RequirementsAdapterRepository) Ecosystem() string { return entities.EcosystemPython }

// Detect matches requirements.txt and the usual variants such as
// requirements-dev.txt or dev-requirements.txt.
func (a *RequirementsAdapterRepository) Detect(filename string) bool {
	base := strings.ToLower(filepath.Base(filename))
	if !strings.HasSuffix(base, ".txt") {
		return false
	}
	return strings.HasPrefix(base, "requirements") || strings.HasSuffix(base, "-requirements.txt")
}

// Parse builds the segment model. Unrecognizable lines stay opaque with a
// diagnostic; nothing is ever dropped.
func (a *RequirementsAdapterRepository) Parse(text, path string) (*entities.ManifestDocument, error) {
	doc := &entities.ManifestDocument{
		Path:      path,
		Dialect:   requirementsDialect,
		Ecosystem: entities.EcosystemPython,
	}

	for i, raw := range entities.SplitLinesKeepEnds(text) {
		lineNo := i + 1
		line := entities.TrimLineEnding(raw)
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "" || strings.HasPrefix(trimmed, "#"):
			appendOpaque(doc, raw, lineNo)
		case strings.HasPrefix(trimmed, "-e ") || strings.HasPrefix(trimmed, "--editable "):
			a.parseEditable(doc, raw, line, trimmed, lineNo)
		case strings.HasPrefix(trimmed, "-"):
			// -r/-c inclusion directives and pip options are preserved
			// untouched and never followed.
			appendOpaque(doc, raw, lineNo)
		case strings.HasSuffix(trimmed, "\\"):
			doc.AddDiagnostic(lineNo, "line continuations are not interpreted")
			appendOpaque(doc, raw, lineNo)
		default:
			a.parseRequirement(doc, raw, line, trimmed, lineNo)
		}
	}
	return doc, nil
}

// parseEditable handles -e entries. The name comes from the #egg=
// fragment; editable paths without one cannot be reconciled by name and
// stay opaque.
func (a *RequirementsAdapterRepository) parseEditable(
	doc *entities.ManifestDocument,
	raw, line, trimmed string,
	lineNo int,
) {
	target := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(trimmed, "--editable"), "-e"))
	name := ""
	if idx := strings.Index(target, "#egg="); idx >= 0 {
		name = target[idx+len("#egg="):]
		if amp := strings.IndexAny(name, "&[ "); amp >= 0 {
			name = name[:amp]
		}
	}
	if name == "" {
		doc.AddDiagnostic(lineNo, "editable requirement without an egg name")
		appendOpaque(doc, raw, lineNo)
		return
	}

	appendEntry(doc, raw, lineNo, &entities.DependencyEntry{
		Name:       entities.NormalizePythonName(name),
		Kind:       entities.KindEditable,
		SourceSpan: entities.Span{StartLine: lineNo, EndLine: lineNo},
		LineText:   line,
	})
}

func (a *RequirementsAdapterRepository) parseRequirement(
	doc *entities.ManifestDocument,
	raw, line, trimmed string,
	lineNo int,
) {
	name, _, rest, ok := splitRequirementLine(trimmed)
	if !ok {
		doc.AddDiagnostic(lineNo, "unrecognized requirement line")
		appendOpaque(doc, raw, lineNo)
		return
	}

	specifier, _ := splitInlineComment(rest)
	kind := entities.KindRuntime
	if strings.Contains(specifier, ";") {
		kind = entities.KindConditional
	}

	appendEntry(doc, raw, lineNo, &entities.DependencyEntry{
		Name:         entities.NormalizePythonName(name),
		RawSpecifier: strings.TrimSpace(specifier),
		Kind:         kind,
		SourceSpan:   entities.Span{StartLine: lineNo, EndLine: lineNo},
		LineText:     line,
	})
}

// FormatEntry renders the canonical requirement line.
func (a *RequirementsAdapterRepository) FormatEntry(name, specifier string) string {
	return name + specifier
}

// RequiresSpecifier is false: a bare name means "any version".
func (a *RequirementsAdapterRepository) RequiresSpecifier() bool { return false }

// InsertAnchor appends new entries after the last existing entry, or at
// the end of the file when there is none.
func (a *RequirementsAdapterRepository) InsertAnchor(doc *entities.ManifestDocument) (int, bool) {
	lastEntry, lastLine := 0, 0
	for _, seg := range doc.Segments {
		lastLine = seg.Span.EndLine
		if seg.Kind == entities.SegmentEntry {
			lastEntry = seg.Span.EndLine
		}
	}
	if lastEntry > 0 {
		return lastEntry, true
	}
	return lastLine, true
}

// ReplaceSpecifier swaps the version constraint while keeping the name,
// extras, environment marker and inline comment bytes intact.
func (a *RequirementsAdapterRepository) ReplaceSpecifier(
	entry *entities.DependencyEntry,
	specifier string,
) (string, bool) {
	if entry.Kind == entities.KindEditable {
		return "", false
	}
	leading := entry.LineText[:len(entry.LineText)-len(strings.TrimLeft(entry.LineText, " \t"))]
	trimmed := strings.TrimLeft(entry.LineText, " \t")

	_, namePart, rest, ok := splitRequirementLine(trimmed)
	if !ok {
		return "", false
	}

	// Keep everything from the environment marker (or inline comment)
	// onward byte-for-byte.
	tail := ""
	if idx := strings.Index(rest, ";"); idx >= 0 {
		tail = " " + strings.TrimLeft(rest[idx:], " \t")
	} else if _, comment := splitInlineComment(rest); comment != "" {
		tail = " " + comment
	}
	return leading + namePart + specifier + tail, true
}

// splitRequirementLine splits "name[extras]>=1.0 ; marker" into the
// normalized-source name, the verbatim name-plus-extras prefix, and the
// remainder starting at the specifier.
func splitRequirementLine(line string) (name, prefix, rest string, ok bool) {
	end := 0
	for end < len(line) && isNameChar(line[end]) {
		end++
	}
	if end == 0 {
		return "", "", "", false
	}
	name = line[:end]

	prefixEnd := end
	if prefixEnd < len(line) && line[prefixEnd] == '[' {
		close := strings.IndexByte(line[prefixEnd:], ']')
		if close < 0 {
			return "", "", "", false
		}
		prefixEnd += close + 1
	}

	rest = line[prefixEnd:]
	if rest != "" {
		head := strings.TrimLeft(rest, " \t")
		if head != "" && !strings.ContainsRune("=<>!~;#", rune(head[0])) {
			return "", "", "", false
		}
	}
	return name, line[:prefixEnd], rest, true
}

func isNameChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' || c == '.' || c == '_' || c == '-'
}

// splitInlineComment separates a trailing " # ..." comment from the
// specifier portion of a requirement line.
func splitInlineComment(rest string) (specifier, comment string) {
	if idx := strings.Index(rest, " #"); idx >= 0 {
		return rest[:idx], strings.TrimLeft(rest[idx:], " \t")
	}
	if strings.HasPrefix(strings.TrimLeft(rest, " \t"), "#") {
		return "", strings.TrimLeft(rest, " \t")
	}
	return rest, ""
}

func appendOpaque(doc *entities.ManifestDocument, raw string, lineNo int) {
	doc.Segments = append(doc.Segments, entities.Segment{
		Kind: entities.SegmentOpaque,
		Text: raw,
		Span: entities.Span{StartLine: lineNo, EndLine: lineNo},
	})
}

func appendEntry(doc *entities.ManifestDocument, raw string, lineNo int, entry *entities.DependencyEntry) {
	doc.Segments = append(doc.Segments, entities.Segment{
		Kind:  entities.SegmentEntry,
		Text:  raw,
		Span:  entities.Span{StartLine: lineNo, EndLine: lineNo},
		Entry: entry,
	})
}
