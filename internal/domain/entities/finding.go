package entities

import "sort"

// FindingKind classifies one reconciliation discrepancy.
type FindingKind string

const (
	FindingUnused      FindingKind = "unused"
	FindingMissing     FindingKind = "missing"
	FindingConflicting FindingKind = "conflicting"
	FindingOutdated    FindingKind = "outdated"
	FindingUnparseable FindingKind = "unparseable"
)

// kindOrder fixes the report order: Unused, Missing, Conflicting,
// Outdated, then Unparseable diagnostics.
var kindOrder = map[FindingKind]int{
	FindingUnused:      0,
	FindingMissing:     1,
	FindingConflicting: 2,
	FindingOutdated:    3,
	FindingUnparseable: 4,
}

// Severity grades a finding for reporting.
type Severity string

const (
	SeverityHigh    Severity = "high"
	SeverityMedium  Severity = "medium"
	SeverityLow     Severity = "low"
	SeverityWarning Severity = "warning"
)

// severityFor maps each finding kind to its fixed severity.
func severityFor(kind FindingKind) Severity {
	switch kind {
	case FindingConflicting:
		return SeverityHigh
	case FindingMissing:
		return SeverityMedium
	case FindingUnparseable:
		return SeverityWarning
	default:
		return SeverityLow
	}
}

// Finding is one classified discrepancy between declared and used
// dependencies. Findings are derived data: never mutated, regenerated
// each run.
type Finding struct {
	Kind      FindingKind
	Subject   string // normalized dependency name
	Ecosystem string
	Severity  Severity
	Detail    string

	// Evidence. Entry is the primary manifest entry (for Conflicting, the
	// narrower range cited as the likely error source); OtherEntry is the
	// wider counterpart; Usages are the source references involved.
	ManifestPath string
	Entry        *DependencyEntry
	OtherPath    string
	OtherEntry   *DependencyEntry
	Usages       []UsageRecord
}

// NewFinding builds a finding with its kind-derived severity.
func NewFinding(kind FindingKind, subject, ecosystem, detail string) Finding {
	return Finding{
		Kind:      kind,
		Subject:   subject,
		Ecosystem: ecosystem,
		Severity:  severityFor(kind),
		Detail:    detail,
	}
}

// SortFindings orders findings by kind group, then alphabetically by
// subject, then by manifest path, so repeated runs produce identical
// reports and diffs.
func SortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		if kindOrder[findings[i].Kind] != kindOrder[findings[j].Kind] {
			return kindOrder[findings[i].Kind] < kindOrder[findings[j].Kind]
		}
		if findings[i].Subject != findings[j].Subject {
			return findings[i].Subject < findings[j].Subject
		}
		return findings[i].ManifestPath < findings[j].ManifestPath
	})
}
