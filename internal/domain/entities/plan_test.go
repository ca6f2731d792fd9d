package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aicode-cli/aicode/internal/domain/entities"
)

// fakeFormatter is a minimal dialect formatter for planner tests.
type fakeFormatter struct {
	anchor       int
	anchorOK     bool
	rewriteOK    bool
	requiresSpec bool
}

func (f *fakeFormatter) FormatEntry(name, specifier string) string { return name + specifier }

func (f *fakeFormatter) InsertAnchor(_ *entities.ManifestDocument) (int, bool) {
	return f.anchor, f.anchorOK
}

func (f *fakeFormatter) ReplaceSpecifier(entry *entities.DependencyEntry, specifier string) (string, bool) {
	if !f.rewriteOK {
		return "", false
	}
	return entry.Name + specifier, true
}

func (f *fakeFormatter) RequiresSpecifier() bool { return f.requiresSpec }

func planDoc() *entities.ManifestDocument {
	doc := &entities.ManifestDocument{Path: "requirements.txt", Dialect: "requirements", Ecosystem: entities.EcosystemPython}
	doc.Segments = []entities.Segment{
		{Kind: entities.SegmentOpaque, Text: "# deps\n", Span: entities.Span{StartLine: 1, EndLine: 1}},
		{Kind: entities.SegmentEntry, Text: "requests==2.0\n", Span: entities.Span{StartLine: 2, EndLine: 2},
			Entry: &entities.DependencyEntry{Name: "requests", RawSpecifier: "==2.0",
				SourceSpan: entities.Span{StartLine: 2, EndLine: 2}, LineText: "requests==2.0"}},
		{Kind: entities.SegmentEntry, Text: "flask<3.0\n", Span: entities.Span{StartLine: 3, EndLine: 3},
			Entry: &entities.DependencyEntry{Name: "flask", RawSpecifier: "<3.0",
				SourceSpan: entities.Span{StartLine: 3, EndLine: 3}, LineText: "flask<3.0"}},
	}
	return doc
}

func allKinds() map[entities.FindingKind]bool {
	return map[entities.FindingKind]bool{
		entities.FindingUnused:      true,
		entities.FindingMissing:     true,
		entities.FindingConflicting: true,
		entities.FindingOutdated:    true,
	}
}

func TestPlan(t *testing.T) {
	t.Parallel()

	t.Run("should plan a delete for an unused finding", func(t *testing.T) {
		t.Parallel()
		// given
		doc := planDoc()
		finding := entities.NewFinding(entities.FindingUnused, "requests", entities.EcosystemPython, "")
		finding.ManifestPath = doc.Path
		finding.Entry = doc.Entries()[0]

		// when
		plan, skipped, err := entities.Plan(doc, []entities.Finding{finding}, allKinds(),
			nil, &fakeFormatter{rewriteOK: true}, false)

		// then
		require.NoError(t, err)
		assert.Empty(t, skipped)
		require.Len(t, plan.Ops, 1)
		assert.Equal(t, entities.OpDelete, plan.Ops[0].Kind)
		assert.Equal(t, 2, plan.Ops[0].Span.StartLine)
	})

	t.Run("should plan an insert only on the ecosystem's insert target", func(t *testing.T) {
		t.Parallel()
		// given
		doc := planDoc()
		finding := entities.NewFinding(entities.FindingMissing, "numpy", entities.EcosystemPython, "")
		resolutions := map[string]string{"numpy": ">=1.26"}
		formatter := &fakeFormatter{anchor: 3, anchorOK: true, rewriteOK: true}

		// when
		asTarget, _, err := entities.Plan(doc, []entities.Finding{finding}, allKinds(), resolutions, formatter, true)
		require.NoError(t, err)
		asOther, _, otherErr := entities.Plan(doc, []entities.Finding{finding}, allKinds(), resolutions, formatter, false)

		// then
		require.NoError(t, otherErr)
		require.Len(t, asTarget.Ops, 1)
		assert.Equal(t, entities.OpInsert, asTarget.Ops[0].Kind)
		assert.Equal(t, "numpy>=1.26", asTarget.Ops[0].NewText)
		assert.True(t, asOther.Empty())
	})

	t.Run("should skip an unresolved insert when the dialect needs a version", func(t *testing.T) {
		t.Parallel()
		// given
		doc := planDoc()
		finding := entities.NewFinding(entities.FindingMissing, "numpy", entities.EcosystemPython, "")
		formatter := &fakeFormatter{anchor: 3, anchorOK: true, requiresSpec: true}

		// when
		plan, skipped, err := entities.Plan(doc, []entities.Finding{finding}, allKinds(), nil, formatter, true)

		// then
		require.NoError(t, err)
		assert.True(t, plan.Empty())
		require.Len(t, skipped, 1)
		assert.Equal(t, "numpy", skipped[0].Subject)
	})

	t.Run("should plan a replace for an outdated finding with a resolution", func(t *testing.T) {
		t.Parallel()
		// given
		doc := planDoc()
		finding := entities.NewFinding(entities.FindingOutdated, "flask", entities.EcosystemPython, "")
		finding.ManifestPath = doc.Path
		finding.Entry = doc.Entries()[1]

		// when
		plan, skipped, err := entities.Plan(doc, []entities.Finding{finding}, allKinds(),
			map[string]string{"flask": ">=3.0"}, &fakeFormatter{rewriteOK: true}, false)

		// then
		require.NoError(t, err)
		assert.Empty(t, skipped)
		require.Len(t, plan.Ops, 1)
		assert.Equal(t, entities.OpReplace, plan.Ops[0].Kind)
		assert.Equal(t, "flask>=3.0", plan.Ops[0].NewText)
	})

	t.Run("should skip findings that have no resolution", func(t *testing.T) {
		t.Parallel()
		// given
		doc := planDoc()
		finding := entities.NewFinding(entities.FindingConflicting, "flask", entities.EcosystemPython, "")
		finding.ManifestPath = doc.Path
		finding.Entry = doc.Entries()[1]

		// when
		plan, skipped, err := entities.Plan(doc, []entities.Finding{finding}, allKinds(),
			nil, &fakeFormatter{rewriteOK: true}, false)

		// then
		require.NoError(t, err)
		assert.True(t, plan.Empty())
		require.Len(t, skipped, 1)
		assert.Equal(t, "flask", skipped[0].Subject)
	})

	t.Run("should ignore findings of unaccepted kinds", func(t *testing.T) {
		t.Parallel()
		// given
		doc := planDoc()
		finding := entities.NewFinding(entities.FindingUnused, "requests", entities.EcosystemPython, "")
		finding.ManifestPath = doc.Path
		finding.Entry = doc.Entries()[0]

		// when
		plan, _, err := entities.Plan(doc, []entities.Finding{finding},
			map[entities.FindingKind]bool{}, nil, &fakeFormatter{}, false)

		// then
		require.NoError(t, err)
		assert.True(t, plan.Empty())
	})

	t.Run("should refuse any operation that touches an opaque line", func(t *testing.T) {
		t.Parallel()
		// given
		doc := planDoc()
		finding := entities.NewFinding(entities.FindingUnused, "requests", entities.EcosystemPython, "")
		finding.ManifestPath = doc.Path
		finding.Entry = &entities.DependencyEntry{
			Name:       "requests",
			SourceSpan: entities.Span{StartLine: 1, EndLine: 1}, // the comment line
		}

		// when
		_, _, err := entities.Plan(doc, []entities.Finding{finding}, allKinds(),
			nil, &fakeFormatter{}, false)

		// then
		assert.Error(t, err)
	})
}
