package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	testkit "github.com/rios0rios0/testkit/pkg/test"

	"github.com/aicode-cli/aicode/internal/domain/entities"
)

// EntryBuilder helps create test dependency entries with a fluent interface.
type EntryBuilder struct {
	*testkit.BaseBuilder
	name         string
	rawSpecifier string
	kind         entities.EntryKind
	group        string
	line         int
	lineText     string
}

// NewEntryBuilder creates a new entry builder with sensible defaults.
func NewEntryBuilder() *EntryBuilder {
	return &EntryBuilder{
		BaseBuilder:  testkit.NewBaseBuilder(),
		name:         "requests",
		rawSpecifier: "==2.0",
		kind:         entities.KindRuntime,
		line:         1,
		lineText:     "requests==2.0",
	}
}

// WithName sets the dependency name.
func (b *EntryBuilder) WithName(name string) *EntryBuilder {
	b.name = name
	return b
}

// WithSpecifier sets the raw version specifier.
func (b *EntryBuilder) WithSpecifier(specifier string) *EntryBuilder {
	b.rawSpecifier = specifier
	return b
}

// WithKind sets the entry kind.
func (b *EntryBuilder) WithKind(kind entities.EntryKind) *EntryBuilder {
	b.kind = kind
	return b
}

// WithGroup sets the dependency group.
func (b *EntryBuilder) WithGroup(group string) *EntryBuilder {
	b.group = group
	return b
}

// WithLine sets the source line and span.
func (b *EntryBuilder) WithLine(line int) *EntryBuilder {
	b.line = line
	return b
}

// WithLineText sets the verbatim line text.
func (b *EntryBuilder) WithLineText(text string) *EntryBuilder {
	b.lineText = text
	return b
}

// Build creates the entry (satisfies testkit.Builder interface).
func (b *EntryBuilder) Build() interface{} {
	return b.BuildEntry()
}

// BuildEntry creates the entry with a concrete return type.
func (b *EntryBuilder) BuildEntry() *entities.DependencyEntry {
	return &entities.DependencyEntry{
		Name:         b.name,
		RawSpecifier: b.rawSpecifier,
		Kind:         b.kind,
		Group:        b.group,
		SourceSpan:   entities.Span{StartLine: b.line, EndLine: b.line},
		LineText:     b.lineText,
	}
}

// Reset clears the builder state, allowing it to be reused.
func (b *EntryBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.name = "requests"
	b.rawSpecifier = "==2.0"
	b.kind = entities.KindRuntime
	b.group = ""
	b.line = 1
	b.lineText = "requests==2.0"
	return b
}

// Clone creates a deep copy of the EntryBuilder.
func (b *EntryBuilder) Clone() testkit.Builder {
	return &EntryBuilder{
		BaseBuilder:  b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		name:         b.name,
		rawSpecifier: b.rawSpecifier,
		kind:         b.kind,
		group:        b.group,
		line:         b.line,
		lineText:     b.lineText,
	}
}
