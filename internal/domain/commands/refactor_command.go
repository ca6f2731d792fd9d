package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/aicode-cli/aicode/internal/domain/entities"
	domainRepos "github.com/aicode-cli/aicode/internal/domain/repositories"
)

const (
	// maxChunkBytes bounds the code sent in a single model request.
	maxChunkBytes = 48_000
	// maxRefactorFiles bounds a directory-wide refactor run.
	maxRefactorFiles = 50
)

const refactorSystemPrompt = `You are a careful code refactoring assistant.
Apply the requested change to the code you are given and return the complete
revised code. Return only code, with no commentary and no markdown fences.
If the requested change does not apply, return the code unchanged.`

// Refactor is the interface for the model-assisted refactor command.
type Refactor interface {
	Execute(ctx context.Context, opts RefactorOptions) (*RefactorReport, error)
}

// RefactorOptions holds runtime options for one refactor run.
type RefactorOptions struct {
	Target      string
	Instruction string
	Yes         bool
	Out         io.Writer
	In          io.Reader
}

// RefactorReport counts what the apply gate did.
type RefactorReport struct {
	Changed int
	Aborted int
}

// RefactorCommand rewrites files through the model, one file at a time,
// with the same diff-preview-confirm-apply gate as dependency fixes.
type RefactorCommand struct {
	workspace domainRepos.WorkspaceRepository
	model     domainRepos.ModelRepository
	settings  *entities.Settings
}

// NewRefactorCommand creates a new RefactorCommand.
func NewRefactorCommand(
	workspace domainRepos.WorkspaceRepository,
	model domainRepos.ModelRepository,
	settings *entities.Settings,
) *RefactorCommand {
	return &RefactorCommand{workspace: workspace, model: model, settings: settings}
}

// Execute is the entry point for one refactor run.
func (it *RefactorCommand) Execute(ctx context.Context, opts RefactorOptions) (*RefactorReport, error) {
	if strings.TrimSpace(opts.Instruction) == "" {
		return nil, errors.New("refactor needs an instruction")
	}

	paths, err := it.collectTargets(ctx, opts.Target)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		fmt.Fprintln(opts.Out, "No files to refactor.")
		return &RefactorReport{}, nil
	}

	report := &RefactorReport{}
	confirm := bufio.NewReader(opts.In)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := it.refactorFile(ctx, path, opts, confirm, report); err != nil {
			logger.WithError(err).WithField("path", path).Error("refactor failed, skipping file")
		}
	}
	return report, nil
}

// collectTargets resolves the target argument to concrete files.
func (it *RefactorCommand) collectTargets(ctx context.Context, target string) ([]string, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %w", entities.ErrIOFailure, target, err)
	}
	if !info.IsDir() {
		return []string{target}, nil
	}

	var paths []string
	err = it.workspace.WalkSources(ctx, target, it.settings, func(path, _ string) error {
		if len(paths) >= maxRefactorFiles {
			return fmt.Errorf("more than %d files under %s, narrow the target", maxRefactorFiles, target)
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// refactorFile sends one file through the model chunk by chunk, then runs
// the result through the diff and apply gate.
func (it *RefactorCommand) refactorFile(
	ctx context.Context,
	path string,
	opts RefactorOptions,
	confirm *bufio.Reader,
	report *RefactorReport,
) error {
	source, err := it.workspace.ReadFile(path)
	if err != nil {
		return err
	}

	var revised strings.Builder
	chunks := chunkByLines(source.Text, maxChunkBytes)
	for i, chunk := range chunks {
		prompt := buildRefactorPrompt(opts.Instruction, path, chunk, i, len(chunks))
		answer, err := it.model.Submit(ctx, entities.ModelRequest{
			SystemPrompt: refactorSystemPrompt,
			UserPrompt:   prompt,
		})
		if err != nil {
			return err
		}
		revised.WriteString(ensureTrailingNewline(stripCodeFences(answer)))
	}

	modified := revised.String()
	if modified == source.Text {
		fmt.Fprintf(opts.Out, "no changes for %s\n", path)
		return nil
	}

	diff, err := entities.UnifiedDiff(path, source.Text, modified)
	if err != nil {
		return err
	}
	fmt.Fprint(opts.Out, diff)

	confirmed := opts.Yes
	if !confirmed {
		confirmed = askConfirmation(confirm, opts.Out, path)
	}

	status, err := it.workspace.Apply(path, source.Checksum, modified, confirmed)
	if err != nil {
		return err
	}
	switch status {
	case entities.ApplyApplied:
		fmt.Fprintf(opts.Out, "applied %s\n", path)
		report.Changed++
	case entities.ApplyAborted:
		fmt.Fprintf(opts.Out, "skipped %s\n", path)
		report.Aborted++
	}
	return nil
}

func buildRefactorPrompt(instruction, path, chunk string, index, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Change requested: %s\n\n", instruction)
	if total > 1 {
		fmt.Fprintf(&b, "This is part %d of %d of file %s. Rewrite only this part.\n\n", index+1, total, path)
	} else {
		fmt.Fprintf(&b, "File: %s\n\n", path)
	}
	b.WriteString(chunk)
	return b.String()
}

// chunkByLines splits text into pieces under maxBytes, cutting only on
// line boundaries so the pieces concatenate back to the original shape.
func chunkByLines(text string, maxBytes int) []string {
	if len(text) <= maxBytes {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	for _, line := range entities.SplitLinesKeepEnds(text) {
		if current.Len() > 0 && current.Len()+len(line) > maxBytes {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// stripCodeFences removes a surrounding markdown code fence when the model
// adds one despite instructions.
func stripCodeFences(answer string) string {
	trimmed := strings.TrimSpace(answer)
	if !strings.HasPrefix(trimmed, "```") {
		return answer
	}

	lines := entities.SplitLinesKeepEnds(trimmed)
	if len(lines) < 2 {
		return answer
	}
	last := len(lines) - 1
	if strings.TrimSpace(entities.TrimLineEnding(lines[last])) != "```" {
		return answer
	}
	return strings.Join(lines[1:last], "")
}

func ensureTrailingNewline(text string) string {
	if text == "" || strings.HasSuffix(text, "\n") {
		return text
	}
	return text + "\n"
}
