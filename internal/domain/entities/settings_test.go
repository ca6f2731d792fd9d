package entities_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aicode-cli/aicode/internal/domain/entities"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".aicode.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewSettings(t *testing.T) {
	t.Run("should parse a full configuration file", func(t *testing.T) {
		// given
		path := writeConfig(t, `
freshness:
  django: "4.2.0"
exempt_kinds:
  - outdated
exempt_packages:
  - pytest
import_aliases:
  yaml: pyyaml
exclude_dirs:
  - generated
max_file_size: 100000
scan_timeout_seconds: 30
model: gpt-4o-mini
`)

		// when
		settings, err := entities.NewSettings(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "4.2.0", settings.Freshness["django"])
		assert.Equal(t, "pyyaml", settings.ImportAliases["yaml"])
		assert.Equal(t, int64(100000), settings.MaxFileSize)
		assert.Equal(t, "gpt-4o-mini", settings.Model)
		assert.True(t, settings.IsExemptKind(entities.FindingOutdated))
		assert.True(t, settings.AllExcludeDirs()["generated"])
	})

	t.Run("should expand environment references in the api key", func(t *testing.T) {
		// given
		t.Setenv("AICODE_TEST_KEY", "sk-test-value")
		path := writeConfig(t, `openai_api_key: ${AICODE_TEST_KEY}`)

		// when
		settings, err := entities.NewSettings(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "sk-test-value", settings.OpenAIAPIKey)
	})

	t.Run("should reject unknown exempt kinds", func(t *testing.T) {
		// given
		path := writeConfig(t, `
exempt_kinds:
  - bogus
`)

		// when
		_, err := entities.NewSettings(path)

		// then
		assert.Error(t, err)
	})

	t.Run("should fail on a missing file", func(t *testing.T) {
		// when
		_, err := entities.NewSettings(filepath.Join(t.TempDir(), "nope.yaml"))

		// then
		assert.Error(t, err)
	})
}

func TestSettings_Defaults(t *testing.T) {
	t.Parallel()

	t.Run("should carry usable defaults", func(t *testing.T) {
		t.Parallel()
		// when
		settings := entities.DefaultSettings()

		// then
		assert.Positive(t, settings.MaxFileSize)
		assert.Positive(t, int(settings.ScanTimeout()))
		assert.NotEmpty(t, settings.Model)
		assert.True(t, settings.AllExcludeDirs()["node_modules"])
		assert.True(t, settings.AllExcludeDirs()[".git"])
	})
}

func TestSettings_IsExemptPackage(t *testing.T) {
	t.Parallel()

	t.Run("should exempt stub packages by convention", func(t *testing.T) {
		t.Parallel()
		// given
		settings := entities.DefaultSettings()

		// then
		assert.True(t, settings.IsExemptPackage("types-requests"))
		assert.True(t, settings.IsExemptPackage("pandas-stubs"))
		assert.False(t, settings.IsExemptPackage("requests"))
	})

	t.Run("should exempt configured packages case-insensitively", func(t *testing.T) {
		t.Parallel()
		// given
		settings := entities.DefaultSettings()
		settings.ExemptPackages = []string{"Pytest"}

		// then
		assert.True(t, settings.IsExemptPackage("pytest"))
	})
}
