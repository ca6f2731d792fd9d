package entities

import (
	"fmt"
	"strings"

	mmsemver "github.com/Masterminds/semver/v3"
	"golang.org/x/mod/semver"
)

// bound is one side of a version interval.
type bound struct {
	version   *mmsemver.Version
	inclusive bool
}

// SpecifierSet is the interval reduction of one version constraint as
// written in a manifest. Exclusions (!=) never narrow the interval; they
// are kept only so the raw text can be reported faithfully.
type SpecifierSet struct {
	Raw    string
	Marker string // environment marker after ';', verbatim (Python only)

	lower *bound
	upper *bound
	pin   *mmsemver.Version
}

// ParseSpecifier parses a version constraint in any of the supported
// dialect styles (pip specifier sets, npm ranges, go.mod/Terraform pins)
// into an interval. An empty or wildcard constraint parses to the
// unbounded interval.
func ParseSpecifier(raw string) (*SpecifierSet, error) {
	set := &SpecifierSet{Raw: raw}

	spec := raw
	if idx := strings.Index(spec, ";"); idx >= 0 {
		set.Marker = strings.TrimSpace(spec[idx+1:])
		spec = spec[:idx]
	}
	spec = strings.TrimSpace(spec)
	if spec == "" || spec == "*" || spec == "latest" {
		return set, nil
	}

	// Union ranges (npm "a || b") cannot be reduced to one interval.
	// Keep them valid but unbounded rather than misreport them.
	if strings.Contains(spec, "||") {
		return set, nil
	}

	// pip separates clauses with commas, npm with spaces. Treat both as AND.
	spec = strings.ReplaceAll(spec, ",", " ")
	for _, token := range normalizeTokens(strings.Fields(spec)) {
		if err := set.applyToken(token); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// normalizeTokens rejoins clauses that whitespace split apart: an operator
// written with a space before its version (">= 2.0") and npm hyphen ranges
// ("1.2.3 - 2.3.4", rewritten as inclusive bounds).
func normalizeTokens(tokens []string) []string {
	var out []string
	for i := 0; i < len(tokens); i++ {
		token := tokens[i]
		if isOperatorToken(token) && i+1 < len(tokens) {
			out = append(out, token+tokens[i+1])
			i++
			continue
		}
		if token == "-" && len(out) > 0 && i+1 < len(tokens) {
			out[len(out)-1] = ">=" + out[len(out)-1]
			out = append(out, "<="+tokens[i+1])
			i++
			continue
		}
		out = append(out, token)
	}
	return out
}

// isOperatorToken reports whether a token is a bare constraint operator
// with its version in the next token.
func isOperatorToken(token string) bool {
	return token != "" && strings.Trim(token, "=<>!~^") == ""
}

func (s *SpecifierSet) applyToken(token string) error {
	switch {
	case strings.HasPrefix(token, "==="), strings.HasPrefix(token, "=="):
		return s.applyPin(strings.TrimLeft(token, "="))
	case strings.HasPrefix(token, "!="):
		// Exclusions cannot empty an interval on their own.
		return nil
	case strings.HasPrefix(token, ">="):
		return s.applyLower(token[2:], true)
	case strings.HasPrefix(token, "<="):
		return s.applyUpper(token[2:], true)
	case strings.HasPrefix(token, ">"):
		return s.applyLower(token[1:], false)
	case strings.HasPrefix(token, "<"):
		return s.applyUpper(token[1:], false)
	case strings.HasPrefix(token, "~="):
		return s.applyCompatible(token[2:])
	case strings.HasPrefix(token, "^"):
		return s.applyCaret(token[1:])
	case strings.HasPrefix(token, "~"):
		return s.applyTilde(token[1:])
	case strings.HasPrefix(token, "="):
		return s.applyPin(token[1:])
	case token == "*" || token == "x" || token == "X":
		return nil
	default:
		return s.applyPin(token)
	}
}

func parseVersionToken(raw string) (*mmsemver.Version, error) {
	v, err := mmsemver.NewVersion(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid version %q: %w", raw, err)
	}
	return v, nil
}

func (s *SpecifierSet) applyPin(raw string) error {
	raw = strings.TrimSpace(raw)
	// ==2.1.* (pip) and 2.1.x (npm) are ranges, not pins.
	for _, wildcard := range []string{".*", ".x", ".X"} {
		trimmed, ok := strings.CutSuffix(raw, wildcard)
		if !ok {
			continue
		}
		v, err := parseVersionToken(trimmed)
		if err != nil {
			return err
		}
		if err := s.tightenLower(v, true); err != nil {
			return err
		}
		next := nextRelease(v, strings.Count(trimmed, ".")+1)
		return s.tightenUpper(&next, false)
	}

	v, err := parseVersionToken(raw)
	if err != nil {
		return err
	}
	s.pin = v
	if err := s.tightenLower(v, true); err != nil {
		return err
	}
	return s.tightenUpper(v, true)
}

func (s *SpecifierSet) applyLower(raw string, inclusive bool) error {
	v, err := parseVersionToken(raw)
	if err != nil {
		return err
	}
	return s.tightenLower(v, inclusive)
}

func (s *SpecifierSet) applyUpper(raw string, inclusive bool) error {
	v, err := parseVersionToken(raw)
	if err != nil {
		return err
	}
	return s.tightenUpper(v, inclusive)
}

// applyCompatible handles pip's compatible-release operator: ~=2.2 means
// >=2.2,<3.0 and ~=2.2.3 means >=2.2.3,<2.3.0.
func (s *SpecifierSet) applyCompatible(raw string) error {
	raw = strings.TrimSpace(raw)
	v, err := parseVersionToken(raw)
	if err != nil {
		return err
	}
	if err := s.tightenLower(v, true); err != nil {
		return err
	}
	next := nextRelease(v, strings.Count(raw, "."))
	return s.tightenUpper(&next, false)
}

// applyCaret handles npm's caret range: ^1.2.3 means >=1.2.3,<2.0.0.
func (s *SpecifierSet) applyCaret(raw string) error {
	v, err := parseVersionToken(raw)
	if err != nil {
		return err
	}
	if err := s.tightenLower(v, true); err != nil {
		return err
	}
	var next mmsemver.Version
	if v.Major() == 0 {
		next = v.IncMinor()
	} else {
		next = v.IncMajor()
	}
	return s.tightenUpper(&next, false)
}

// applyTilde handles npm's tilde range: ~1.2.3 means >=1.2.3,<1.3.0.
func (s *SpecifierSet) applyTilde(raw string) error {
	raw = strings.TrimSpace(raw)
	v, err := parseVersionToken(raw)
	if err != nil {
		return err
	}
	if err := s.tightenLower(v, true); err != nil {
		return err
	}
	next := nextRelease(v, strings.Count(raw, ".")+1)
	return s.tightenUpper(&next, false)
}

// nextRelease returns the smallest version above v at the given precision:
// precision 1 bumps the major component, anything deeper bumps the minor.
func nextRelease(v *mmsemver.Version, precision int) mmsemver.Version {
	if precision <= 1 {
		return v.IncMajor()
	}
	return v.IncMinor()
}

func (s *SpecifierSet) tightenLower(v *mmsemver.Version, inclusive bool) error {
	if s.lower == nil || v.GreaterThan(s.lower.version) ||
		(v.Equal(s.lower.version) && !inclusive) {
		s.lower = &bound{version: v, inclusive: inclusive}
	}
	return nil
}

func (s *SpecifierSet) tightenUpper(v *mmsemver.Version, inclusive bool) error {
	if s.upper == nil || v.LessThan(s.upper.version) ||
		(v.Equal(s.upper.version) && !inclusive) {
		s.upper = &bound{version: v, inclusive: inclusive}
	}
	return nil
}

// Pin returns the exact pinned version, if the constraint is a pin.
func (s *SpecifierSet) Pin() (string, bool) {
	if s.pin == nil {
		return "", false
	}
	return s.pin.Original(), true
}

// Ceiling returns the version that caps this constraint: the pin when
// present, otherwise the upper bound. Used for freshness classification.
func (s *SpecifierSet) Ceiling() (string, bool) {
	if s.pin != nil {
		return s.pin.Original(), true
	}
	if s.upper != nil {
		return s.upper.version.Original(), true
	}
	return "", false
}

// Intersects reports whether two constraint intervals share any version.
func (s *SpecifierSet) Intersects(other *SpecifierSet) bool {
	return intervalOverlaps(s.lower, other.upper) && intervalOverlaps(other.lower, s.upper)
}

// intervalOverlaps checks one direction: the lower bound of one interval
// against the upper bound of the other.
func intervalOverlaps(lower, upper *bound) bool {
	if lower == nil || upper == nil {
		return true
	}
	if lower.version.LessThan(upper.version) {
		return true
	}
	if lower.version.Equal(upper.version) {
		return lower.inclusive && upper.inclusive
	}
	return false
}

// narrownessScore ranks how constrained an interval is: a pin outranks a
// fully bounded range, which outranks a half-open one.
func (s *SpecifierSet) narrownessScore() int {
	if s.pin != nil {
		return 3
	}
	score := 0
	if s.lower != nil {
		score++
	}
	if s.upper != nil {
		score++
	}
	return score
}

// NarrowerThan reports whether this constraint allows fewer versions than
// the other. Containment decides when both are equally bounded.
func (s *SpecifierSet) NarrowerThan(other *SpecifierSet) bool {
	if s.narrownessScore() != other.narrownessScore() {
		return s.narrownessScore() > other.narrownessScore()
	}
	return s.containedIn(other) && !other.containedIn(s)
}

func (s *SpecifierSet) containedIn(other *SpecifierSet) bool {
	if other.lower != nil {
		if s.lower == nil || s.lower.version.LessThan(other.lower.version) {
			return false
		}
	}
	if other.upper != nil {
		if s.upper == nil || s.upper.version.GreaterThan(other.upper.version) {
			return false
		}
	}
	return true
}

// CompareVersions compares two version strings, preferring semver ordering
// and falling back to lexical comparison for non-semver values.
func CompareVersions(a, b string) int {
	av := normalizeVersion(a)
	bv := normalizeVersion(b)
	if semver.IsValid(av) && semver.IsValid(bv) {
		return semver.Compare(av, bv)
	}
	return strings.Compare(a, b)
}

// normalizeVersion ensures a version has the 'v' prefix that
// golang.org/x/mod/semver requires.
func normalizeVersion(version string) string {
	version = strings.TrimSpace(version)
	if strings.HasPrefix(version, "v") {
		return version
	}
	return "v" + version
}
