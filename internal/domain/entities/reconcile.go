package entities

import (
	"fmt"
	"sort"
	"strings"
)

// Ecosystem names shared by adapters, scanners and the reconciler.
const (
	EcosystemPython     = "python"
	EcosystemJavaScript = "javascript"
	EcosystemGo         = "golang"
	EcosystemTerraform  = "terraform"
)

// builtinImportAliases maps import names to the distribution that provides
// them when the two differ. Extended through Settings.ImportAliases.
var builtinImportAliases = map[string]string{
	"yaml":     "pyyaml",
	"PIL":      "pillow",
	"cv2":      "opencv-python",
	"sklearn":  "scikit-learn",
	"bs4":      "beautifulsoup4",
	"dotenv":   "python-dotenv",
	"dateutil": "python-dateutil",
}

// scannableEcosystems are the ecosystems with a usage scanner; Unused and
// Missing findings are only meaningful for these.
var scannableEcosystems = map[string]bool{
	EcosystemPython:     true,
	EcosystemJavaScript: true,
	EcosystemGo:         true,
}

// entryRef ties an entry to the document that declared it.
type entryRef struct {
	doc   *ManifestDocument
	entry *DependencyEntry
}

// Reconcile compares declared entries against used-name sets and against
// each other, producing the typed findings of one analysis run. Pure
// aggregation over immutable snapshots; callers run it after all parse
// and scan tasks have joined.
func Reconcile(docs []*ManifestDocument, usages []UsageRecord, settings *Settings) []Finding {
	sorted := make([]*ManifestDocument, len(docs))
	copy(sorted, docs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	declared := map[string]map[string][]entryRef{} // ecosystem -> name -> entries
	ecosystems := map[string]bool{}
	for _, doc := range sorted {
		ecosystems[doc.Ecosystem] = true
		byName, ok := declared[doc.Ecosystem]
		if !ok {
			byName = map[string][]entryRef{}
			declared[doc.Ecosystem] = byName
		}
		for _, entry := range doc.Entries() {
			byName[entry.Name] = append(byName[entry.Name], entryRef{doc: doc, entry: entry})
		}
	}

	used := collectUsages(usages, ecosystems, settings)

	var findings []Finding
	findings = append(findings, unusedFindings(declared, used, settings)...)
	findings = append(findings, missingFindings(declared, used, settings)...)
	conflicted := map[string]bool{}
	findings = append(findings, conflictingFindings(declared, settings, conflicted)...)
	findings = append(findings, outdatedFindings(declared, settings, conflicted)...)
	findings = append(findings, unparseableFindings(declared)...)

	SortFindings(findings)
	return findings
}

// collectUsages groups usage records by ecosystem and resolved name,
// dropping records for ecosystems without any manifest.
func collectUsages(
	usages []UsageRecord,
	ecosystems map[string]bool,
	settings *Settings,
) map[string]map[string][]UsageRecord {
	used := map[string]map[string][]UsageRecord{}
	for _, usage := range usages {
		if !ecosystems[usage.Ecosystem] {
			continue
		}
		name := resolveUsageName(usage.Ecosystem, usage.ModuleName, settings)
		byName, ok := used[usage.Ecosystem]
		if !ok {
			byName = map[string][]UsageRecord{}
			used[usage.Ecosystem] = byName
		}
		byName[name] = append(byName[name], usage)
	}
	return used
}

// resolveUsageName maps an import name to the manifest name it should
// match, applying the alias tables for Python.
func resolveUsageName(ecosystem, moduleName string, settings *Settings) string {
	if ecosystem != EcosystemPython {
		return moduleName
	}
	if alias, ok := settings.ImportAliases[moduleName]; ok {
		return NormalizePythonName(alias)
	}
	if alias, ok := builtinImportAliases[moduleName]; ok {
		return NormalizePythonName(alias)
	}
	return NormalizePythonName(moduleName)
}

// NormalizePythonName applies PEP 503 normalization: lowercase with runs
// of '-', '_' and '.' collapsed to a single '-'.
func NormalizePythonName(name string) string {
	var sb strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(name) {
		if r == '-' || r == '_' || r == '.' {
			if !lastDash {
				sb.WriteRune('-')
			}
			lastDash = true
			continue
		}
		lastDash = false
		sb.WriteRune(r)
	}
	return sb.String()
}

// entryMatchesUsage reports whether a declared name covers a used name.
// Go modules match by path-segment prefix; everything else matches exactly.
func entryMatchesUsage(ecosystem, entryName, usageName string) bool {
	if ecosystem == EcosystemGo {
		return usageName == entryName || strings.HasPrefix(usageName, entryName+"/")
	}
	return usageName == entryName
}

func unusedFindings(
	declared map[string]map[string][]entryRef,
	used map[string]map[string][]UsageRecord,
	settings *Settings,
) []Finding {
	if settings.IsExemptKind(FindingUnused) {
		return nil
	}

	var findings []Finding
	for _, ecosystem := range sortedKeys(declared) {
		if !scannableEcosystems[ecosystem] {
			continue
		}
		for _, name := range sortedKeys(declared[ecosystem]) {
			if settings.IsExemptPackage(name) {
				continue
			}
			if hasMatchingUsage(ecosystem, name, used[ecosystem]) {
				continue
			}
			for _, ref := range declared[ecosystem][name] {
				// Indirect requires are transitive; no import will ever
				// reference them directly.
				if ref.entry.Group == GroupIndirect {
					continue
				}
				finding := NewFinding(FindingUnused, name, ecosystem,
					fmt.Sprintf("declared in %s but never imported", ref.doc.Path))
				finding.ManifestPath = ref.doc.Path
				finding.Entry = ref.entry
				findings = append(findings, finding)
			}
		}
	}
	return findings
}

func hasMatchingUsage(ecosystem, entryName string, byName map[string][]UsageRecord) bool {
	if byName == nil {
		return false
	}
	if _, ok := byName[entryName]; ok {
		return true
	}
	if ecosystem == EcosystemGo {
		for usageName := range byName {
			if entryMatchesUsage(ecosystem, entryName, usageName) {
				return true
			}
		}
	}
	return false
}

func missingFindings(
	declared map[string]map[string][]entryRef,
	used map[string]map[string][]UsageRecord,
	settings *Settings,
) []Finding {
	if settings.IsExemptKind(FindingMissing) {
		return nil
	}

	var findings []Finding
	for _, ecosystem := range sortedKeys(used) {
		for _, name := range sortedKeys(used[ecosystem]) {
			if isDeclared(ecosystem, name, declared[ecosystem]) {
				continue
			}
			records := used[ecosystem][name]
			finding := NewFinding(FindingMissing, name, ecosystem,
				fmt.Sprintf("imported in %d place(s) but declared in no manifest", len(records)))
			finding.Usages = records
			findings = append(findings, finding)
		}
	}
	return findings
}

func isDeclared(ecosystem, usageName string, byName map[string][]entryRef) bool {
	if byName == nil {
		return false
	}
	if _, ok := byName[usageName]; ok {
		return true
	}
	if ecosystem == EcosystemGo {
		for entryName := range byName {
			if entryMatchesUsage(ecosystem, entryName, usageName) {
				return true
			}
		}
	}
	return false
}

func conflictingFindings(
	declared map[string]map[string][]entryRef,
	settings *Settings,
	conflicted map[string]bool,
) []Finding {
	if settings.IsExemptKind(FindingConflicting) {
		return nil
	}

	var findings []Finding
	for _, ecosystem := range sortedKeys(declared) {
		for _, name := range sortedKeys(declared[ecosystem]) {
			refs := declared[ecosystem][name]
			if len(refs) < 2 {
				continue
			}
			findings = append(findings,
				conflictsForName(ecosystem, name, refs, conflicted)...)
		}
	}
	return findings
}

// conflictsForName checks every entry pair for an empty range
// intersection, citing the narrower range as the likely error source.
func conflictsForName(ecosystem, name string, refs []entryRef, conflicted map[string]bool) []Finding {
	type parsedRef struct {
		ref entryRef
		set *SpecifierSet
	}
	var parsed []parsedRef
	for _, ref := range refs {
		set, err := ParseSpecifier(ref.entry.RawSpecifier)
		if err != nil {
			continue // surfaced separately as Unparseable
		}
		parsed = append(parsed, parsedRef{ref: ref, set: set})
	}

	var findings []Finding
	for i := 0; i < len(parsed); i++ {
		for j := i + 1; j < len(parsed); j++ {
			if parsed[i].set.Intersects(parsed[j].set) {
				continue
			}
			narrow, wide := parsed[i], parsed[j]
			if wide.set.NarrowerThan(narrow.set) {
				narrow, wide = wide, narrow
			}
			conflicted[ecosystem+"/"+name] = true

			finding := NewFinding(FindingConflicting, name, ecosystem,
				fmt.Sprintf("%q and %q cannot both be satisfied",
					narrow.ref.entry.RawSpecifier, wide.ref.entry.RawSpecifier))
			finding.ManifestPath = narrow.ref.doc.Path
			finding.Entry = narrow.ref.entry
			finding.OtherPath = wide.ref.doc.Path
			finding.OtherEntry = wide.ref.entry
			findings = append(findings, finding)
		}
	}
	return findings
}

func outdatedFindings(
	declared map[string]map[string][]entryRef,
	settings *Settings,
	conflicted map[string]bool,
) []Finding {
	if settings.IsExemptKind(FindingOutdated) || len(settings.Freshness) == 0 {
		return nil
	}

	var findings []Finding
	for _, ecosystem := range sortedKeys(declared) {
		for _, name := range sortedKeys(declared[ecosystem]) {
			// Conflicting takes priority: a conflicted range has no
			// meaningful freshness.
			if conflicted[ecosystem+"/"+name] {
				continue
			}
			reference, ok := settings.Freshness[name]
			if !ok {
				continue
			}
			for _, ref := range declared[ecosystem][name] {
				set, err := ParseSpecifier(ref.entry.RawSpecifier)
				if err != nil {
					continue
				}
				ceiling, hasCeiling := set.Ceiling()
				if !hasCeiling || CompareVersions(ceiling, reference) >= 0 {
					continue
				}
				finding := NewFinding(FindingOutdated, name, ecosystem,
					fmt.Sprintf("capped at %s, freshness reference is %s", ceiling, reference))
				finding.ManifestPath = ref.doc.Path
				finding.Entry = ref.entry
				findings = append(findings, finding)
			}
		}
	}
	return findings
}

func unparseableFindings(declared map[string]map[string][]entryRef) []Finding {
	var findings []Finding
	for _, ecosystem := range sortedKeys(declared) {
		for _, name := range sortedKeys(declared[ecosystem]) {
			for _, ref := range declared[ecosystem][name] {
				if _, err := ParseSpecifier(ref.entry.RawSpecifier); err != nil {
					finding := NewFinding(FindingUnparseable, name, ecosystem, err.Error())
					finding.ManifestPath = ref.doc.Path
					finding.Entry = ref.entry
					findings = append(findings, finding)
				}
			}
		}
	}
	return findings
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
