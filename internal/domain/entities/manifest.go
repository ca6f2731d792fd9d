package entities

import "strings"

// EntryKind classifies how a dependency is declared.
type EntryKind string

const (
	KindRuntime     EntryKind = "runtime"
	KindEditable    EntryKind = "editable"
	KindConditional EntryKind = "marker-conditional"
)

// Span is an inclusive 1-based line range in the original manifest text.
type Span struct {
	StartLine int
	EndLine   int
}

// Contains reports whether the given 1-based line falls inside the span.
func (s Span) Contains(line int) bool {
	return line >= s.StartLine && line <= s.EndLine
}

// Overlaps reports whether two spans share at least one line.
func (s Span) Overlaps(other Span) bool {
	return s.StartLine <= other.EndLine && other.StartLine <= s.EndLine
}

// GroupIndirect marks go.mod requires pulled in transitively. Indirect
// modules are never imported directly, so the reconciler exempts them
// from Unused classification.
const GroupIndirect = "indirect"

// DependencyEntry is one declared dependency, immutable once parsed.
type DependencyEntry struct {
	Name         string // normalized identifier (PEP 503 for Python, verbatim elsewhere)
	RawSpecifier string // version constraint as written, including environment markers
	Kind         EntryKind
	Group        string // declaring section, e.g. "dependencies", "require", "project.dependencies"
	SourceSpan   Span
	LineText     string // verbatim original text, without the line ending
}

// SegmentKind distinguishes dependency entries from passthrough text.
type SegmentKind int

const (
	SegmentOpaque SegmentKind = iota
	SegmentEntry
)

// Segment is one slice of the original manifest: either a dependency entry
// or opaque text (comments, blank lines, unrelated structure) carried
// verbatim so the document can be rendered back byte-for-byte.
type Segment struct {
	Kind  SegmentKind
	Text  string // verbatim, including original line endings
	Span  Span
	Entry *DependencyEntry // nil for opaque segments
}

// Diagnostic records a non-fatal parsing problem.
type Diagnostic struct {
	Path    string
	Line    int
	Message string
}

// ManifestDocument is the ordered-segment model of one manifest file.
// Concatenating every segment's text in order reproduces the original file
// exactly; this is the round-trip invariant every adapter must uphold.
type ManifestDocument struct {
	Path        string
	Dialect     string // adapter name, e.g. "requirements", "pyproject"
	Ecosystem   string // "python", "javascript", "golang", "terraform"
	Checksum    string // content checksum captured at read time
	Segments    []Segment
	Diagnostics []Diagnostic
}

// Render reproduces the manifest text from the segments.
func (d *ManifestDocument) Render() string {
	var sb strings.Builder
	for _, seg := range d.Segments {
		sb.WriteString(seg.Text)
	}
	return sb.String()
}

// Entries returns the dependency entries in document order.
func (d *ManifestDocument) Entries() []*DependencyEntry {
	var entries []*DependencyEntry
	for _, seg := range d.Segments {
		if seg.Kind == SegmentEntry && seg.Entry != nil {
			entries = append(entries, seg.Entry)
		}
	}
	return entries
}

// EntryAt returns the entry covering the given line, or nil.
func (d *ManifestDocument) EntryAt(line int) *DependencyEntry {
	for _, seg := range d.Segments {
		if seg.Kind == SegmentEntry && seg.Entry != nil && seg.Entry.SourceSpan.Contains(line) {
			return seg.Entry
		}
	}
	return nil
}

// IsOpaqueLine reports whether the given line belongs to an opaque segment.
func (d *ManifestDocument) IsOpaqueLine(line int) bool {
	for _, seg := range d.Segments {
		if seg.Span.Contains(line) {
			return seg.Kind == SegmentOpaque
		}
	}
	return false
}

// AddDiagnostic records a non-fatal parse problem on the document.
func (d *ManifestDocument) AddDiagnostic(line int, message string) {
	d.Diagnostics = append(d.Diagnostics, Diagnostic{Path: d.Path, Line: line, Message: message})
}

// SplitLinesKeepEnds splits text into lines, each keeping its original
// line ending, so that strings.Join(lines, "") == text.
func SplitLinesKeepEnds(text string) []string {
	if text == "" {
		return nil
	}
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, text[start:i+1])
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}

// TrimLineEnding removes a trailing CRLF or LF from a single line.
func TrimLineEnding(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}

// DialectFormatter is implemented by format adapters so the patch planner
// can produce and rewrite declaration lines without knowing the dialect.
type DialectFormatter interface {
	// FormatEntry renders a canonical declaration line for a new dependency.
	// An empty specifier means "any version" where the dialect allows it.
	FormatEntry(name, specifier string) string
	// InsertAnchor returns the 1-based line after which a new entry should
	// be inserted (0 means the top of the file), and whether inserting is
	// supported for this document at all.
	InsertAnchor(doc *ManifestDocument) (int, bool)
	// ReplaceSpecifier rewrites the entry's line with a new version
	// specifier, leaving every other byte of the line alone.
	ReplaceSpecifier(entry *DependencyEntry, specifier string) (string, bool)
	// RequiresSpecifier reports whether a declaration line is invalid
	// without a version (go.mod requires one; requirements.txt does not).
	RequiresSpecifier() bool
}
