package javascript

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/aicode-cli/aicode/internal/domain/entities"
	domainRepos "github.com/aicode-cli/aicode/internal/domain/repositories"
)

const packageJSONDialect = "package.json"

var (
	blockOpenPattern  = regexp.MustCompile(`^\s*"(dependencies|devDependencies|optionalDependencies)"\s*:\s*\{\s*$`)
	blockClosePattern = regexp.MustCompile(`^\s*\}\s*,?\s*$`)
	memberPattern     = regexp.MustCompile(`^(\s*)"((?:@[^/"]+/)?[^"]+)"\s*:\s*"([^"]*)"(\s*,?\s*)$`)
)

// PackageJSONAdapterRepository parses npm manifests. The document is
// validated as JSON first; entry locations then come from a line scan of
// the dependency blocks so the rest of the file is never reformatted.
type PackageJSONAdapterRepository struct{}

// NewPackageJSONAdapterRepository creates the package.json adapter.
func NewPackageJSONAdapterRepository() domainRepos.AdapterRepository {
	return &PackageJSONAdapterRepository{}
}

func (a *PackageJSONAdapterRepository) Name() string      { return packageJSONDialect }
func (a *PackageJSONAdapterRepository) Ecosystem() string { return entities.EcosystemJavaScript }

func (a *PackageJSONAdapterRepository) Detect(filename string) bool {
	return filepath.Base(filename) == "package.json"
}

func (a *PackageJSONAdapterRepository) Parse(text, path string) (*entities.ManifestDocument, error) {
	doc := &entities.ManifestDocument{
		Path:      path,
		Dialect:   packageJSONDialect,
		Ecosystem: entities.EcosystemJavaScript,
	}

	if !gjson.Valid(text) {
		doc.AddDiagnostic(0, "invalid JSON")
		for i, raw := range entities.SplitLinesKeepEnds(text) {
			appendOpaque(doc, raw, i+1)
		}
		return doc, nil
	}

	group := ""
	for i, raw := range entities.SplitLinesKeepEnds(text) {
		lineNo := i + 1
		line := entities.TrimLineEnding(raw)

		if group != "" {
			if blockClosePattern.MatchString(line) {
				group = ""
				appendOpaque(doc, raw, lineNo)
				continue
			}
			a.parseMember(doc, raw, line, lineNo, group)
			continue
		}

		if m := blockOpenPattern.FindStringSubmatch(line); m != nil {
			// Cross-check with the decoded document so a block nested
			// somewhere unexpected is not mistaken for a dependency map.
			if gjson.Get(text, m[1]).IsObject() {
				group = m[1]
			}
			appendOpaque(doc, raw, lineNo)
			continue
		}
		appendOpaque(doc, raw, lineNo)
	}
	return doc, nil
}

func (a *PackageJSONAdapterRepository) parseMember(
	doc *entities.ManifestDocument,
	raw, line string,
	lineNo int,
	group string,
) {
	m := memberPattern.FindStringSubmatch(line)
	if m == nil {
		doc.AddDiagnostic(lineNo, "unrecognized dependency member")
		appendOpaque(doc, raw, lineNo)
		return
	}

	doc.Segments = append(doc.Segments, entities.Segment{
		Kind: entities.SegmentEntry,
		Text: raw,
		Span: entities.Span{StartLine: lineNo, EndLine: lineNo},
		Entry: &entities.DependencyEntry{
			Name:         m[2],
			RawSpecifier: m[3],
			Kind:         entities.KindRuntime,
			Group:        group,
			SourceSpan:   entities.Span{StartLine: lineNo, EndLine: lineNo},
			LineText:     line,
		},
	})
}

// FormatEntry renders a dependency member with the house indentation. The
// trailing comma is safe because insertion always lands before an existing
// member.
func (a *PackageJSONAdapterRepository) FormatEntry(name, specifier string) string {
	return fmt.Sprintf("    %q: %q,", name, specifier)
}

// RequiresSpecifier is false: npm reads an empty range as "any version".
func (a *PackageJSONAdapterRepository) RequiresSpecifier() bool { return false }

// InsertAnchor places new entries immediately before the first member of
// the dependencies block. Manifests without one refuse inserts rather than
// restructure the JSON.
func (a *PackageJSONAdapterRepository) InsertAnchor(doc *entities.ManifestDocument) (int, bool) {
	for _, seg := range doc.Segments {
		if seg.Kind == entities.SegmentEntry && seg.Entry.Group == "dependencies" {
			return seg.Span.StartLine - 1, true
		}
	}
	return 0, false
}

// ReplaceSpecifier rewrites the version range inside the value string,
// keeping indentation and the trailing comma untouched.
func (a *PackageJSONAdapterRepository) ReplaceSpecifier(
	entry *entities.DependencyEntry,
	specifier string,
) (string, bool) {
	m := memberPattern.FindStringSubmatch(entry.LineText)
	if m == nil {
		return "", false
	}
	if strings.ContainsAny(specifier, `"\`) {
		return "", false
	}
	return fmt.Sprintf(`%s"%s": "%s"%s`, m[1], m[2], specifier,
		strings.TrimRight(m[4], " \t")), true
}

func appendOpaque(doc *entities.ManifestDocument, raw string, lineNo int) {
	doc.Segments = append(doc.Segments, entities.Segment{
		Kind: entities.SegmentOpaque,
		Text: raw,
		Span: entities.Span{StartLine: lineNo, EndLine: lineNo},
	})
}
