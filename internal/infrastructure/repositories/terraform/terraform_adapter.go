package terraform

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/aicode-cli/aicode/internal/domain/entities"
	domainRepos "github.com/aicode-cli/aicode/internal/domain/repositories"
)

const terraformDialect = "terraform"

var (
	refPattern          = regexp.MustCompile(`\?ref=([^&\s"]+)`)
	moduleSourcePattern = regexp.MustCompile(`(?s)module\s+"([^"]+)"\s*\{[^}]*?source\s*=\s*"([^"]+)"`)
	sourceLinePattern   = regexp.MustCompile(`^\s*source\s*=\s*"([^"]+)"\s*$`)
)

// TerraformAdapterRepository extracts git-pinned module sources from .tf
// files. An entry is the single source attribute line carrying a ?ref=
// tag; module blocks without one, and everything else in the file, stay
// opaque. When HCL parsing fails the adapter falls back to a regex scan so
// partially broken files still yield their pins.
type TerraformAdapterRepository struct{}

// NewTerraformAdapterRepository creates the Terraform adapter.
func NewTerraformAdapterRepository() domainRepos.AdapterRepository {
	return &TerraformAdapterRepository{}
}

func (a *TerraformAdapterRepository) Name() string      { return terraformDialect }
func (a *TerraformAdapterRepository) Ecosystem() string { return entities.EcosystemTerraform }

func (a *TerraformAdapterRepository) Detect(filename string) bool {
	return strings.HasSuffix(filename, ".tf")
}

func (a *TerraformAdapterRepository) Parse(text, path string) (*entities.ManifestDocument, error) {
	doc := &entities.ManifestDocument{
		Path:      path,
		Dialect:   terraformDialect,
		Ecosystem: entities.EcosystemTerraform,
	}

	entryLines := a.collectEntryLines(doc, text, path)

	for i, raw := range entities.SplitLinesKeepEnds(text) {
		lineNo := i + 1
		if entry, ok := entryLines[lineNo]; ok {
			doc.Segments = append(doc.Segments, entities.Segment{
				Kind:  entities.SegmentEntry,
				Text:  raw,
				Span:  entities.Span{StartLine: lineNo, EndLine: lineNo},
				Entry: entry,
			})
			continue
		}
		doc.Segments = append(doc.Segments, entities.Segment{
			Kind: entities.SegmentOpaque,
			Text: raw,
			Span: entities.Span{StartLine: lineNo, EndLine: lineNo},
		})
	}
	return doc, nil
}

// collectEntryLines maps line numbers to dependency entries, preferring
// the HCL parser and degrading to the regex scan on parse failure.
func (a *TerraformAdapterRepository) collectEntryLines(
	doc *entities.ManifestDocument,
	text, path string,
) map[int]*entities.DependencyEntry {
	lines := entities.SplitLinesKeepEnds(text)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL([]byte(text), path)
	if diags.HasErrors() || file.Body == nil {
		doc.AddDiagnostic(0, fmt.Sprintf("HCL parse degraded to regex scan: %s", diags.Error()))
		return a.scanWithRegex(text, lines)
	}

	content, _, diags := file.Body.PartialContent(&hcl.BodySchema{
		Blocks: []hcl.BlockHeaderSchema{
			{Type: "module", LabelNames: []string{"name"}},
		},
	})
	if diags.HasErrors() {
		doc.AddDiagnostic(0, fmt.Sprintf("HCL parse degraded to regex scan: %s", diags.Error()))
		return a.scanWithRegex(text, lines)
	}

	entryLines := map[int]*entities.DependencyEntry{}
	for _, block := range content.Blocks {
		attrs, _ := block.Body.JustAttributes()
		sourceAttr, hasSource := attrs["source"]
		if !hasSource {
			continue
		}

		sourceVal, diags := sourceAttr.Expr.Value(&hcl.EvalContext{})
		if diags.HasErrors() || sourceVal.Type() != cty.String {
			continue
		}

		rng := sourceAttr.Expr.Range()
		if rng.Start.Line != rng.End.Line {
			doc.AddDiagnostic(rng.Start.Line, "multi-line source attribute is not editable")
			continue
		}

		group := ""
		if len(block.Labels) > 0 {
			group = block.Labels[0]
		}
		if entry := buildEntry(sourceVal.AsString(), group, rng.Start.Line, lines); entry != nil {
			entryLines[entry.SourceSpan.StartLine] = entry
		}
	}
	return entryLines
}

// scanWithRegex finds module source pins when the file is not valid HCL.
func (a *TerraformAdapterRepository) scanWithRegex(
	text string,
	lines []string,
) map[int]*entities.DependencyEntry {
	entryLines := map[int]*entities.DependencyEntry{}
	for _, match := range moduleSourcePattern.FindAllStringSubmatchIndex(text, -1) {
		name := text[match[2]:match[3]]
		source := text[match[4]:match[5]]
		lineNo := strings.Count(text[:match[4]], "\n") + 1
		if entry := buildEntry(source, name, lineNo, lines); entry != nil {
			entryLines[lineNo] = entry
		}
	}
	return entryLines
}

// buildEntry turns a git-pinned module source into an entry. The name is
// the source with the ref stripped so the same module pinned in two files
// reconciles under one subject.
func buildEntry(source, group string, lineNo int, lines []string) *entities.DependencyEntry {
	if !isGitModule(source) {
		return nil
	}
	m := refPattern.FindStringSubmatch(source)
	if m == nil {
		return nil
	}
	if lineNo < 1 || lineNo > len(lines) {
		return nil
	}

	lineText := entities.TrimLineEnding(lines[lineNo-1])
	if !sourceLinePattern.MatchString(lineText) {
		return nil
	}
	return &entities.DependencyEntry{
		Name:         refPattern.ReplaceAllString(source, ""),
		RawSpecifier: m[1],
		Kind:         entities.KindRuntime,
		Group:        group,
		SourceSpan:   entities.Span{StartLine: lineNo, EndLine: lineNo},
		LineText:     lineText,
	}
}

func isGitModule(source string) bool {
	return strings.HasPrefix(source, "git::") ||
		strings.HasPrefix(source, "git@") ||
		strings.Contains(source, "github.com") ||
		strings.Contains(source, "gitlab.com") ||
		strings.Contains(source, "bitbucket.org") ||
		strings.Contains(source, "dev.azure.com") ||
		strings.Contains(source, "_git/")
}

// FormatEntry renders a pinned source attribute. Inserting new module
// blocks is out of scope, so this only ever feeds diffs for replacements.
func (a *TerraformAdapterRepository) FormatEntry(name, specifier string) string {
	return fmt.Sprintf(`  source = "%s?ref=%s"`, name, specifier)
}

// RequiresSpecifier is true: a git source line is only an entry when it
// carries a ref.
func (a *TerraformAdapterRepository) RequiresSpecifier() bool { return true }

// InsertAnchor always refuses: a dependency cannot be added as a single
// line, it needs a whole module block.
func (a *TerraformAdapterRepository) InsertAnchor(_ *entities.ManifestDocument) (int, bool) {
	return 0, false
}

// ReplaceSpecifier rewrites the ?ref= tag in place.
func (a *TerraformAdapterRepository) ReplaceSpecifier(
	entry *entities.DependencyEntry,
	specifier string,
) (string, bool) {
	loc := refPattern.FindStringSubmatchIndex(entry.LineText)
	if loc == nil {
		return "", false
	}
	return entry.LineText[:loc[2]] + specifier + entry.LineText[loc[3]:], true
}
