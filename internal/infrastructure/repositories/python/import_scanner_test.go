package python_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aicode-cli/aicode/internal/infrastructure/repositories/python"
)

func TestImportScannerRepository_ScanFile(t *testing.T) {
	t.Parallel()
	scanner := python.NewImportScannerRepository()

	t.Run("should report top-level packages with line numbers", func(t *testing.T) {
		t.Parallel()
		// given
		content := "import requests\nfrom flask.helpers import url_for\nimport numpy as np, pandas\n"

		// when
		records := scanner.ScanFile("app/main.py", content)

		// then
		require.Len(t, records, 4)
		assert.Equal(t, "requests", records[0].ModuleName)
		assert.Equal(t, 1, records[0].LineNumber)
		assert.Equal(t, "flask", records[1].ModuleName)
		assert.Equal(t, "numpy", records[2].ModuleName)
		assert.Equal(t, "pandas", records[3].ModuleName)
		assert.Equal(t, "app/main.py", records[0].FilePath)
	})

	t.Run("should skip stdlib and relative imports", func(t *testing.T) {
		t.Parallel()
		// given
		content := "import os\nimport sys, json\nfrom . import sibling\nfrom .models import User\n"

		// when
		records := scanner.ScanFile("pkg/mod.py", content)

		// then
		assert.Empty(t, records)
	})

	t.Run("should keep the original casing for alias resolution", func(t *testing.T) {
		t.Parallel()
		// given
		content := "from PIL import Image\n"

		// when
		records := scanner.ScanFile("img.py", content)

		// then
		require.Len(t, records, 1)
		assert.Equal(t, "PIL", records[0].ModuleName)
	})

	t.Run("should ignore indented and string-like lines that are not imports", func(t *testing.T) {
		t.Parallel()
		// given
		content := "x = \"import requests\"\nprint('from flask import x')\n"

		// when
		records := scanner.ScanFile("noise.py", content)

		// then
		assert.Empty(t, records)
	})
}
