package entities

import (
	"fmt"
	"sort"
	"strings"
)

// EditOpKind is the type of one line-level operation.
type EditOpKind string

const (
	OpDelete  EditOpKind = "delete"
	OpReplace EditOpKind = "replace"
	OpInsert  EditOpKind = "insert"
)

// EditOp is one line-level operation against the original manifest text.
// For inserts, Span.StartLine is the line AFTER which the new text goes
// (0 inserts at the top) and Span.EndLine equals Span.StartLine.
type EditOp struct {
	Kind    EditOpKind
	Span    Span
	NewText string // replacement or inserted lines, without trailing newline
	Finding *Finding
}

// EditPlan is an ordered list of non-overlapping line-level operations
// against one manifest document. Operations are sorted by source line so
// sequential application has no overlap hazards.
type EditPlan struct {
	Path string
	Ops  []EditOp
}

// Empty reports whether the plan contains no operations.
func (p *EditPlan) Empty() bool {
	return p == nil || len(p.Ops) == 0
}

// normalize sorts the operations by line and rejects overlapping spans.
func (p *EditPlan) normalize() error {
	sort.SliceStable(p.Ops, func(i, j int) bool {
		return p.Ops[i].Span.StartLine < p.Ops[j].Span.StartLine
	})
	for i := 1; i < len(p.Ops); i++ {
		prev, cur := p.Ops[i-1], p.Ops[i]
		if prev.Kind != OpInsert && cur.Kind != OpInsert && prev.Span.Overlaps(cur.Span) {
			return fmt.Errorf("edit plan for %s has overlapping operations at lines %d and %d",
				p.Path, prev.Span.StartLine, cur.Span.StartLine)
		}
	}
	return nil
}

// Apply produces the post-edit text. Every line not named by an operation
// is carried over byte-for-byte; this is the core safety guarantee.
func (p *EditPlan) Apply(original string) (string, error) {
	if err := p.normalize(); err != nil {
		return "", err
	}

	lines := SplitLinesKeepEnds(original)

	deletes := map[int]bool{}
	replacements := map[int]string{}
	inserts := map[int][]string{} // keyed by the line they follow

	for i := range p.Ops {
		op := &p.Ops[i]
		switch op.Kind {
		case OpDelete:
			for line := op.Span.StartLine; line <= op.Span.EndLine; line++ {
				deletes[line] = true
			}
		case OpReplace:
			if op.Span.StartLine != op.Span.EndLine {
				return "", fmt.Errorf("replace operations must target a single line, got %d-%d",
					op.Span.StartLine, op.Span.EndLine)
			}
			replacements[op.Span.StartLine] = op.NewText
		case OpInsert:
			inserts[op.Span.StartLine] = append(inserts[op.Span.StartLine], op.NewText)
		}
		if op.Span.StartLine < 0 || op.Span.EndLine > len(lines) {
			return "", fmt.Errorf("operation span %d-%d outside document of %d lines",
				op.Span.StartLine, op.Span.EndLine, len(lines))
		}
	}

	var sb strings.Builder
	writeInserts := func(after int) {
		for _, text := range inserts[after] {
			sb.WriteString(text)
			sb.WriteString("\n")
		}
	}

	writeInserts(0)
	for i, line := range lines {
		lineNo := i + 1
		if replacement, ok := replacements[lineNo]; ok {
			sb.WriteString(replacement)
			sb.WriteString(lineEnding(line))
		} else if !deletes[lineNo] {
			sb.WriteString(line)
		}
		writeInserts(lineNo)
	}
	return sb.String(), nil
}

// lineEnding returns the original line's ending so replacements keep it.
func lineEnding(line string) string {
	if strings.HasSuffix(line, "\r\n") {
		return "\r\n"
	}
	if strings.HasSuffix(line, "\n") {
		return "\n"
	}
	return ""
}
