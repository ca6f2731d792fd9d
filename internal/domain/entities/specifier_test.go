package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aicode-cli/aicode/internal/domain/entities"
)

func mustParse(t *testing.T, raw string) *entities.SpecifierSet {
	t.Helper()
	set, err := entities.ParseSpecifier(raw)
	require.NoError(t, err)
	return set
}

func TestParseSpecifier(t *testing.T) {
	t.Parallel()

	t.Run("should treat empty and wildcard constraints as unbounded", func(t *testing.T) {
		t.Parallel()
		for _, raw := range []string{"", "*", "latest"} {
			set, err := entities.ParseSpecifier(raw)
			require.NoError(t, err, raw)
			_, hasCeiling := set.Ceiling()
			assert.False(t, hasCeiling, raw)
		}
	})

	t.Run("should recognize pins across dialects", func(t *testing.T) {
		t.Parallel()
		for _, raw := range []string{"==2.31.0", "=2.31.0", "2.31.0", "v2.31.0"} {
			set, err := entities.ParseSpecifier(raw)
			require.NoError(t, err, raw)
			_, pinned := set.Pin()
			assert.True(t, pinned, raw)
		}
	})

	t.Run("should split off the environment marker", func(t *testing.T) {
		t.Parallel()
		// when
		set, err := entities.ParseSpecifier(`>=0.4 ; sys_platform == "win32"`)

		// then
		require.NoError(t, err)
		assert.Contains(t, set.Marker, "sys_platform")
	})

	t.Run("should accept a space between operator and version", func(t *testing.T) {
		t.Parallel()
		for _, raw := range []string{">= 2.0", "> 1.0", "~= 2.2", "== 2.2.0", ">= 1.0, < 3.0"} {
			set, err := entities.ParseSpecifier(raw)
			require.NoError(t, err, raw)
			assert.True(t, set.Intersects(mustParse(t, "==2.2.0")), raw)
		}
	})

	t.Run("should read npm wildcard components as ranges", func(t *testing.T) {
		t.Parallel()
		// when
		set, err := entities.ParseSpecifier("1.x")

		// then
		require.NoError(t, err)
		assert.True(t, set.Intersects(mustParse(t, "==1.5.0")))
		assert.False(t, set.Intersects(mustParse(t, "==2.0.0")))
	})

	t.Run("should read npm hyphen ranges as inclusive bounds", func(t *testing.T) {
		t.Parallel()
		// when
		set, err := entities.ParseSpecifier("1.2.3 - 2.3.4")

		// then
		require.NoError(t, err)
		assert.True(t, set.Intersects(mustParse(t, "==2.3.4")))
		assert.False(t, set.Intersects(mustParse(t, "==2.4.0")))
		ceiling, ok := set.Ceiling()
		require.True(t, ok)
		assert.Equal(t, "2.3.4", ceiling)
	})

	t.Run("should keep union ranges valid but unbounded", func(t *testing.T) {
		t.Parallel()
		// when
		set, err := entities.ParseSpecifier(">=1.0 || <0.5")

		// then
		require.NoError(t, err)
		_, hasCeiling := set.Ceiling()
		assert.False(t, hasCeiling)
		assert.True(t, set.Intersects(mustParse(t, "==0.1.0")))
	})

	t.Run("should reject garbage version tokens", func(t *testing.T) {
		t.Parallel()
		// when
		_, err := entities.ParseSpecifier(">=not.a.version")

		// then
		assert.Error(t, err)
	})
}

func TestSpecifierSet_Intersects(t *testing.T) {
	t.Parallel()

	parse := func(t *testing.T, raw string) *entities.SpecifierSet {
		t.Helper()
		set, err := entities.ParseSpecifier(raw)
		require.NoError(t, err)
		return set
	}

	t.Run("should find disjoint ranges", func(t *testing.T) {
		t.Parallel()
		assert.False(t, parse(t, ">=2.0").Intersects(parse(t, "<1.0")))
		assert.False(t, parse(t, "==1.0").Intersects(parse(t, "==2.0")))
	})

	t.Run("should find overlapping ranges", func(t *testing.T) {
		t.Parallel()
		assert.True(t, parse(t, ">=1.0,<3.0").Intersects(parse(t, ">=2.0")))
		assert.True(t, parse(t, "^4.18.0").Intersects(parse(t, ">=4.19")))
		assert.True(t, parse(t, "").Intersects(parse(t, "==1.0")))
	})

	t.Run("should honor bound exclusivity at the touching point", func(t *testing.T) {
		t.Parallel()
		assert.True(t, parse(t, ">=2.0").Intersects(parse(t, "<=2.0")))
		assert.False(t, parse(t, ">2.0").Intersects(parse(t, "<=2.0")))
	})

	t.Run("should widen compatible-release by written precision", func(t *testing.T) {
		t.Parallel()
		// ~=2.2 reaches up to 3.0, ~=2.2.3 only up to 2.3
		assert.True(t, parse(t, "~=2.2").Intersects(parse(t, "==2.9.0")))
		assert.False(t, parse(t, "~=2.2.3").Intersects(parse(t, "==2.9.0")))
	})

	t.Run("should never let exclusions empty a range", func(t *testing.T) {
		t.Parallel()
		assert.True(t, parse(t, ">=1.0,!=1.5").Intersects(parse(t, "==1.5")))
	})
}

func TestSpecifierSet_NarrowerThan(t *testing.T) {
	t.Parallel()

	parse := func(t *testing.T, raw string) *entities.SpecifierSet {
		t.Helper()
		set, err := entities.ParseSpecifier(raw)
		require.NoError(t, err)
		return set
	}

	t.Run("should rank a pin above any range", func(t *testing.T) {
		t.Parallel()
		assert.True(t, parse(t, "==1.0").NarrowerThan(parse(t, ">=2.0")))
		assert.False(t, parse(t, ">=2.0").NarrowerThan(parse(t, "==1.0")))
	})

	t.Run("should rank a bounded range above a half-open one", func(t *testing.T) {
		t.Parallel()
		assert.True(t, parse(t, ">=1.0,<2.0").NarrowerThan(parse(t, ">=1.0")))
	})
}

func TestSpecifierSet_Ceiling(t *testing.T) {
	t.Parallel()

	t.Run("should use the pin when present", func(t *testing.T) {
		t.Parallel()
		set, err := entities.ParseSpecifier("==1.26.0")
		require.NoError(t, err)
		ceiling, ok := set.Ceiling()
		require.True(t, ok)
		assert.Equal(t, "1.26.0", ceiling)
	})

	t.Run("should use the upper bound otherwise", func(t *testing.T) {
		t.Parallel()
		set, err := entities.ParseSpecifier(">=1.0,<2.0")
		require.NoError(t, err)
		ceiling, ok := set.Ceiling()
		require.True(t, ok)
		assert.Equal(t, "2.0", ceiling)
	})
}

func TestCompareVersions(t *testing.T) {
	t.Parallel()

	t.Run("should order semver values with or without the v prefix", func(t *testing.T) {
		t.Parallel()
		assert.Negative(t, entities.CompareVersions("1.9.0", "1.10.0"))
		assert.Positive(t, entities.CompareVersions("v2.0.0", "1.9.9"))
		assert.Zero(t, entities.CompareVersions("v1.2.3", "1.2.3"))
	})

	t.Run("should fall back to lexical order for non-semver values", func(t *testing.T) {
		t.Parallel()
		assert.Negative(t, entities.CompareVersions("alpha", "beta"))
	})
}
