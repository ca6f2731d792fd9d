package entities

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

const diffContextLines = 3

// UnifiedDiff renders a standard unified diff between the original and
// post-edit manifest text. Pure function; no side effects.
func UnifiedDiff(path, original, modified string) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(original),
		B:        difflib.SplitLines(modified),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  diffContextLines,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("failed to compute diff for %s: %w", path, err)
	}
	return text, nil
}
