package entities

import "fmt"

// Plan turns accepted findings into a minimal ordered list of line-level
// edits against one manifest document. Only findings whose kind is in
// acceptedKinds produce edits. Resolutions supply the replacement
// specifier for Conflicting and Outdated findings and the initial
// specifier for Missing inserts; the planner never invents one.
//
// insertTarget marks the document that receives Missing inserts for its
// ecosystem (the command picks one manifest per ecosystem).
//
// Findings that cannot be planned (no resolution, no insert anchor) are
// returned as skipped so the caller can surface them.
func Plan(
	doc *ManifestDocument,
	findings []Finding,
	acceptedKinds map[FindingKind]bool,
	resolutions map[string]string,
	formatter DialectFormatter,
	insertTarget bool,
) (*EditPlan, []Finding, error) {
	plan := &EditPlan{Path: doc.Path}
	var skipped []Finding

	for i := range findings {
		finding := findings[i]
		if !acceptedKinds[finding.Kind] {
			continue
		}

		switch finding.Kind {
		case FindingUnused:
			if finding.ManifestPath != doc.Path || finding.Entry == nil {
				continue
			}
			plan.Ops = append(plan.Ops, EditOp{
				Kind:    OpDelete,
				Span:    finding.Entry.SourceSpan,
				Finding: &findings[i],
			})

		case FindingMissing:
			if !insertTarget || finding.Ecosystem != doc.Ecosystem {
				continue
			}
			resolution := resolutions[finding.Subject]
			if resolution == "" && formatter.RequiresSpecifier() {
				skipped = append(skipped, finding)
				continue
			}
			anchor, ok := formatter.InsertAnchor(doc)
			if !ok {
				skipped = append(skipped, finding)
				continue
			}
			plan.Ops = append(plan.Ops, EditOp{
				Kind:    OpInsert,
				Span:    Span{StartLine: anchor, EndLine: anchor},
				NewText: formatter.FormatEntry(finding.Subject, resolution),
				Finding: &findings[i],
			})

		case FindingConflicting, FindingOutdated:
			if finding.ManifestPath != doc.Path || finding.Entry == nil {
				continue
			}
			resolution, ok := resolutions[finding.Subject]
			if !ok {
				skipped = append(skipped, finding)
				continue
			}
			newLine, rewritten := formatter.ReplaceSpecifier(finding.Entry, resolution)
			if !rewritten {
				skipped = append(skipped, finding)
				continue
			}
			plan.Ops = append(plan.Ops, EditOp{
				Kind:    OpReplace,
				Span:    finding.Entry.SourceSpan,
				NewText: newLine,
				Finding: &findings[i],
			})
		}
	}

	if err := validatePlan(doc, plan); err != nil {
		return nil, nil, err
	}
	return plan, skipped, nil
}

// validatePlan enforces the core safety guarantee: no operation may touch
// an opaque segment of the document.
func validatePlan(doc *ManifestDocument, plan *EditPlan) error {
	for _, op := range plan.Ops {
		if op.Kind == OpInsert {
			continue
		}
		for line := op.Span.StartLine; line <= op.Span.EndLine; line++ {
			if doc.IsOpaqueLine(line) {
				return fmt.Errorf("refusing to %s line %d of %s: not a dependency entry",
					op.Kind, line, doc.Path)
			}
		}
	}
	return plan.normalize()
}
