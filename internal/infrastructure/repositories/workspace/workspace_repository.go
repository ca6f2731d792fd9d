package workspace

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	logger "github.com/sirupsen/logrus"

	"github.com/aicode-cli/aicode/internal/domain/entities"
	domainRepos "github.com/aicode-cli/aicode/internal/domain/repositories"
)

// Repository is the filesystem boundary: checksummed reads, filtered
// traversal and the atomic confirmed write behind the apply gate.
type Repository struct{}

// NewWorkspaceRepository creates the filesystem workspace repository.
func NewWorkspaceRepository() domainRepos.WorkspaceRepository {
	return &Repository{}
}

// ReadFile reads one file and captures its checksum for staleness
// detection at apply time.
func (r *Repository) ReadFile(path string) (*domainRepos.SourceFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", entities.ErrIOFailure, path, err)
	}
	return &domainRepos.SourceFile{
		Path:     path,
		Text:     string(data),
		Checksum: checksum(data),
	}, nil
}

// WalkSources traverses root, skipping excluded directories, oversized
// files and binary content. The visit callback receives file contents so
// scanning needs no second read.
func (r *Repository) WalkSources(
	ctx context.Context,
	root string,
	settings *entities.Settings,
	visit func(path, content string) error,
) error {
	excluded := settings.AllExcludeDirs()

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.WithError(err).WithField("path", path).Debug("skipping unreadable path")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if excluded[d.Name()] && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if settings.MaxFileSize > 0 && info.Size() > settings.MaxFileSize {
			logger.WithField("path", path).Debug("skipping oversized file")
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			logger.WithError(err).WithField("path", path).Debug("skipping unreadable file")
			return nil
		}
		if isBinary(data) {
			return nil
		}
		return visit(path, string(data))
	})
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return fmt.Errorf("%w: %w", entities.ErrScanTimeout, err)
	}
	return err
}

// Apply writes newText to path as an atomic replace. The write happens
// only when confirmed and only when the file on disk still matches the
// checksum captured at read time.
func (r *Repository) Apply(path, sum, newText string, confirmed bool) (entities.ApplyStatus, error) {
	if !confirmed {
		return entities.ApplyAborted, nil
	}

	current, err := os.ReadFile(path)
	if err != nil {
		return entities.ApplyAborted, fmt.Errorf("%w: rereading %s: %w", entities.ErrIOFailure, path, err)
	}
	if checksum(current) != sum {
		return entities.ApplyAborted,
			fmt.Errorf("%w: %s changed since it was analyzed", entities.ErrStaleFile, path)
	}

	warnDirtyWorktree(path)

	info, err := os.Stat(path)
	if err != nil {
		return entities.ApplyAborted, fmt.Errorf("%w: stat %s: %w", entities.ErrIOFailure, path, err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return entities.ApplyAborted, fmt.Errorf("%w: creating temp file in %s: %w", entities.ErrIOFailure, dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(newText); err != nil {
		tmp.Close()
		return entities.ApplyAborted, fmt.Errorf("%w: writing %s: %w", entities.ErrIOFailure, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return entities.ApplyAborted, fmt.Errorf("%w: closing %s: %w", entities.ErrIOFailure, tmpName, err)
	}
	if err := os.Chmod(tmpName, info.Mode().Perm()); err != nil {
		return entities.ApplyAborted, fmt.Errorf("%w: chmod %s: %w", entities.ErrIOFailure, tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return entities.ApplyAborted, fmt.Errorf("%w: replacing %s: %w", entities.ErrIOFailure, path, err)
	}
	return entities.ApplyApplied, nil
}

// warnDirtyWorktree logs when the target file already carries uncommitted
// changes, so an apply cannot be untangled from earlier edits later.
func warnDirtyWorktree(path string) {
	repo, err := git.PlainOpenWithOptions(filepath.Dir(path), &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return
	}
	status, err := worktree.Status()
	if err != nil {
		return
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	rel, err := filepath.Rel(worktree.Filesystem.Root(), abs)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	if fileStatus := status.File(rel); fileStatus.Worktree != git.Unmodified {
		logger.WithField("path", path).Warn("file has uncommitted changes")
	}
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// isBinary applies the NUL-byte heuristic on the first kilobytes.
func isBinary(data []byte) bool {
	probe := data
	if len(probe) > 8192 {
		probe = probe[:8192]
	}
	return strings.ContainsRune(string(probe), 0)
}
