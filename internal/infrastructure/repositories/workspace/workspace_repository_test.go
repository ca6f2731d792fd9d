package workspace_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aicode-cli/aicode/internal/domain/entities"
	"github.com/aicode-cli/aicode/internal/infrastructure/repositories/workspace"
)

func TestRepository_ReadFile(t *testing.T) {
	t.Parallel()
	repo := workspace.NewWorkspaceRepository()

	t.Run("should read content and capture a stable checksum", func(t *testing.T) {
		t.Parallel()
		// given
		path := filepath.Join(t.TempDir(), "requirements.txt")
		require.NoError(t, os.WriteFile(path, []byte("requests==2.0\n"), 0o644))

		// when
		first, err := repo.ReadFile(path)
		require.NoError(t, err)
		second, err := repo.ReadFile(path)

		// then
		require.NoError(t, err)
		assert.Equal(t, "requests==2.0\n", first.Text)
		assert.Equal(t, first.Checksum, second.Checksum)
	})

	t.Run("should wrap missing files as IO failures", func(t *testing.T) {
		t.Parallel()
		// when
		_, err := repo.ReadFile(filepath.Join(t.TempDir(), "absent.txt"))

		// then
		require.Error(t, err)
		assert.ErrorIs(t, err, entities.ErrIOFailure)
	})
}

func TestRepository_WalkSources(t *testing.T) {
	t.Parallel()
	repo := workspace.NewWorkspaceRepository()

	t.Run("should visit regular files and skip excluded directories", func(t *testing.T) {
		t.Parallel()
		// given
		root := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules", "x"), 0o755))
		require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "x", "index.js"), []byte("x"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(root, "src", "app.py"), []byte("import requests\n"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(root, "blob.bin"), []byte{0x00, 0x01, 0x02}, 0o644))

		// when
		var visited []string
		err := repo.WalkSources(context.Background(), root, entities.DefaultSettings(),
			func(path, _ string) error {
				visited = append(visited, filepath.Base(path))
				return nil
			})

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"app.py"}, visited)
	})

	t.Run("should report a timeout when the context expires", func(t *testing.T) {
		t.Parallel()
		// given
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, "a.py"), []byte("import os\n"), 0o644))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// when
		err := repo.WalkSources(ctx, root, entities.DefaultSettings(),
			func(string, string) error { return nil })

		// then
		require.Error(t, err)
		assert.ErrorIs(t, err, entities.ErrScanTimeout)
	})
}

func TestRepository_Apply(t *testing.T) {
	t.Parallel()
	repo := workspace.NewWorkspaceRepository()

	t.Run("should replace the file atomically when confirmed", func(t *testing.T) {
		t.Parallel()
		// given
		path := filepath.Join(t.TempDir(), "requirements.txt")
		require.NoError(t, os.WriteFile(path, []byte("requests==2.0\n"), 0o644))
		source, err := repo.ReadFile(path)
		require.NoError(t, err)

		// when
		status, err := repo.Apply(path, source.Checksum, "requests==2.31.0\n", true)

		// then
		require.NoError(t, err)
		assert.Equal(t, entities.ApplyApplied, status)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "requests==2.31.0\n", string(data))
	})

	t.Run("should leave the file untouched when declined", func(t *testing.T) {
		t.Parallel()
		// given
		path := filepath.Join(t.TempDir(), "requirements.txt")
		require.NoError(t, os.WriteFile(path, []byte("requests==2.0\n"), 0o644))
		source, err := repo.ReadFile(path)
		require.NoError(t, err)

		// when
		status, err := repo.Apply(path, source.Checksum, "requests==9.9\n", false)

		// then
		require.NoError(t, err)
		assert.Equal(t, entities.ApplyAborted, status)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "requests==2.0\n", string(data))
	})

	t.Run("should refuse to write over a file changed since analysis", func(t *testing.T) {
		t.Parallel()
		// given
		path := filepath.Join(t.TempDir(), "requirements.txt")
		require.NoError(t, os.WriteFile(path, []byte("requests==2.0\n"), 0o644))
		source, err := repo.ReadFile(path)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, []byte("requests==3.0\n"), 0o644))

		// when
		status, err := repo.Apply(path, source.Checksum, "requests==2.31.0\n", true)

		// then
		require.Error(t, err)
		assert.ErrorIs(t, err, entities.ErrStaleFile)
		assert.Equal(t, entities.ApplyAborted, status)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "requests==3.0\n", string(data))
	})
}
