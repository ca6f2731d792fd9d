package golang

import (
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/mod/module"

	"github.com/aicode-cli/aicode/internal/domain/entities"
	domainRepos "github.com/aicode-cli/aicode/internal/domain/repositories"
)

const gomodDialect = "gomod"

var (
	blockOpenPattern    = regexp.MustCompile(`^(\w+)\s+\(\s*$`)
	singleRequire       = regexp.MustCompile(`^require\s+(\S+)\s+(\S+)\s*(//.*)?$`)
	blockRequireMember  = regexp.MustCompile(`^\s+(\S+)\s+(\S+)\s*(//.*)?$`)
	requireLinePattern  = regexp.MustCompile(`^(\s*(?:require\s+)?)(\S+)(\s+)(\S+)(.*)$`)
	indirectCommentMark = "// indirect"
)

// GomodAdapterRepository parses go.mod require directives, both the block
// and single-line forms. Replace, exclude and retract blocks are opaque;
// the indirect marker survives inside the line text and tags the entry's
// group.
type GomodAdapterRepository struct{}

// NewGomodAdapterRepository creates the go.mod adapter.
func NewGomodAdapterRepository() domainRepos.AdapterRepository {
	return &GomodAdapterRepository{}
}

func (a *GomodAdapterRepository) Name() string      { return gomodDialect }
func (a *GomodAdapterRepository) Ecosystem() string { return entities.EcosystemGo }

func (a *GomodAdapterRepository) Detect(filename string) bool {
	return filepath.Base(filename) == "go.mod"
}

func (a *GomodAdapterRepository) Parse(text, path string) (*entities.ManifestDocument, error) {
	doc := &entities.ManifestDocument{
		Path:      path,
		Dialect:   gomodDialect,
		Ecosystem: entities.EcosystemGo,
	}

	block := ""
	for i, raw := range entities.SplitLinesKeepEnds(text) {
		lineNo := i + 1
		line := entities.TrimLineEnding(raw)
		trimmed := strings.TrimSpace(line)

		if block != "" {
			if trimmed == ")" {
				block = ""
				appendOpaque(doc, raw, lineNo)
				continue
			}
			if block == "require" && trimmed != "" && !strings.HasPrefix(trimmed, "//") {
				a.parseRequire(doc, raw, line, lineNo, blockRequireMember)
				continue
			}
			appendOpaque(doc, raw, lineNo)
			continue
		}

		if m := blockOpenPattern.FindStringSubmatch(trimmed); m != nil {
			block = m[1]
			appendOpaque(doc, raw, lineNo)
			continue
		}
		if singleRequire.MatchString(line) {
			a.parseRequire(doc, raw, line, lineNo, singleRequire)
			continue
		}
		appendOpaque(doc, raw, lineNo)
	}
	return doc, nil
}

func (a *GomodAdapterRepository) parseRequire(
	doc *entities.ManifestDocument,
	raw, line string,
	lineNo int,
	pattern *regexp.Regexp,
) {
	m := pattern.FindStringSubmatch(line)
	if m == nil {
		doc.AddDiagnostic(lineNo, "unrecognized require directive")
		appendOpaque(doc, raw, lineNo)
		return
	}
	path, version := m[1], m[2]
	if err := module.CheckPath(path); err != nil {
		doc.AddDiagnostic(lineNo, "invalid module path: "+path)
		appendOpaque(doc, raw, lineNo)
		return
	}

	group := ""
	if strings.Contains(m[3], indirectCommentMark) {
		group = entities.GroupIndirect
	}
	doc.Segments = append(doc.Segments, entities.Segment{
		Kind: entities.SegmentEntry,
		Text: raw,
		Span: entities.Span{StartLine: lineNo, EndLine: lineNo},
		Entry: &entities.DependencyEntry{
			Name:         path,
			RawSpecifier: version,
			Kind:         entities.KindRuntime,
			Group:        group,
			SourceSpan:   entities.Span{StartLine: lineNo, EndLine: lineNo},
			LineText:     line,
		},
	})
}

// FormatEntry renders a require-block member line.
func (a *GomodAdapterRepository) FormatEntry(name, specifier string) string {
	return "\t" + name + " " + specifier
}

// RequiresSpecifier is true: a require directive without a version is
// invalid go.mod syntax.
func (a *GomodAdapterRepository) RequiresSpecifier() bool { return true }

// InsertAnchor appends after the last require-block member. Files whose
// requires are all single-line refuse inserts rather than emit a member
// line outside a block.
func (a *GomodAdapterRepository) InsertAnchor(doc *entities.ManifestDocument) (int, bool) {
	anchor := 0
	for _, seg := range doc.Segments {
		if seg.Kind != entities.SegmentEntry {
			continue
		}
		if len(seg.Entry.LineText) > 0 &&
			(seg.Entry.LineText[0] == '\t' || seg.Entry.LineText[0] == ' ') {
			anchor = seg.Span.EndLine
		}
	}
	return anchor, anchor > 0
}

// ReplaceSpecifier swaps the version token, keeping the module path,
// indentation and any trailing comment as they were.
func (a *GomodAdapterRepository) ReplaceSpecifier(
	entry *entities.DependencyEntry,
	specifier string,
) (string, bool) {
	m := requireLinePattern.FindStringSubmatch(entry.LineText)
	if m == nil {
		return "", false
	}
	return m[1] + m[2] + m[3] + specifier + m[5], true
}

func appendOpaque(doc *entities.ManifestDocument, raw string, lineNo int) {
	doc.Segments = append(doc.Segments, entities.Segment{
		Kind: entities.SegmentOpaque,
		Text: raw,
		Span: entities.Span{StartLine: lineNo, EndLine: lineNo},
	})
}
