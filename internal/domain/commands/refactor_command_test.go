package commands_test

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aicode-cli/aicode/internal/domain/commands"
	"github.com/aicode-cli/aicode/internal/domain/entities"
	"github.com/aicode-cli/aicode/internal/infrastructure/repositories/workspace"
	"github.com/aicode-cli/aicode/test/infrastructure/repositorydoubles"
)

func newRefactorCommand(model *repositorydoubles.SpyModelRepository) *commands.RefactorCommand {
	return commands.NewRefactorCommand(workspace.NewWorkspaceRepository(), model, entities.DefaultSettings())
}

func TestRefactorCommand_Execute(t *testing.T) {
	t.Parallel()

	t.Run("should require an instruction", func(t *testing.T) {
		t.Parallel()
		// when
		_, err := newRefactorCommand(&repositorydoubles.SpyModelRepository{}).Execute(context.Background(),
			commands.RefactorOptions{Target: ".", Instruction: "  ", Out: &bytes.Buffer{}, In: strings.NewReader("")})

		// then
		assert.Error(t, err)
	})

	t.Run("should rewrite a file with the model's answer", func(t *testing.T) {
		t.Parallel()
		// given
		dir := t.TempDir()
		path := writeFile(t, dir, "greeting.py", "def hello():\n    return 'hi'\n")
		model := &repositorydoubles.SpyModelRepository{
			Responses: []string{"def greet():\n    return 'hi'\n"},
		}
		var out bytes.Buffer

		// when
		report, err := newRefactorCommand(model).Execute(context.Background(),
			commands.RefactorOptions{
				Target: path, Instruction: "rename hello to greet",
				Yes: true, Out: &out, In: strings.NewReader(""),
			})

		// then
		require.NoError(t, err)
		assert.Equal(t, 1, report.Changed)
		content, readErr := os.ReadFile(path)
		require.NoError(t, readErr)
		assert.Equal(t, "def greet():\n    return 'hi'\n", string(content))

		require.Len(t, model.Requests, 1)
		assert.Contains(t, model.Requests[0].UserPrompt, "rename hello to greet")
		assert.Contains(t, model.Requests[0].UserPrompt, "def hello():")
		assert.NotEmpty(t, model.Requests[0].SystemPrompt)
	})

	t.Run("should strip a markdown fence from the answer", func(t *testing.T) {
		t.Parallel()
		// given
		dir := t.TempDir()
		path := writeFile(t, dir, "greeting.py", "def hello():\n    return 'hi'\n")
		model := &repositorydoubles.SpyModelRepository{
			Responses: []string{"```python\ndef greet():\n    return 'hi'\n```"},
		}

		// when
		report, err := newRefactorCommand(model).Execute(context.Background(),
			commands.RefactorOptions{
				Target: path, Instruction: "rename hello to greet",
				Yes: true, Out: &bytes.Buffer{}, In: strings.NewReader(""),
			})

		// then
		require.NoError(t, err)
		assert.Equal(t, 1, report.Changed)
		content, readErr := os.ReadFile(path)
		require.NoError(t, readErr)
		assert.Equal(t, "def greet():\n    return 'hi'\n", string(content))
	})

	t.Run("should do nothing when the model returns the file unchanged", func(t *testing.T) {
		t.Parallel()
		// given
		dir := t.TempDir()
		original := "def hello():\n    return 'hi'\n"
		path := writeFile(t, dir, "greeting.py", original)
		model := &repositorydoubles.SpyModelRepository{Responses: []string{original}}
		var out bytes.Buffer

		// when
		report, err := newRefactorCommand(model).Execute(context.Background(),
			commands.RefactorOptions{
				Target: path, Instruction: "nothing applies here",
				Yes: true, Out: &out, In: strings.NewReader(""),
			})

		// then
		require.NoError(t, err)
		assert.Zero(t, report.Changed)
		assert.Contains(t, out.String(), "no changes for "+path)
	})

	t.Run("should leave the file alone when the change is declined", func(t *testing.T) {
		t.Parallel()
		// given
		dir := t.TempDir()
		original := "def hello():\n    return 'hi'\n"
		path := writeFile(t, dir, "greeting.py", original)
		model := &repositorydoubles.SpyModelRepository{
			Responses: []string{"def greet():\n    return 'hi'\n"},
		}
		var out bytes.Buffer

		// when
		report, err := newRefactorCommand(model).Execute(context.Background(),
			commands.RefactorOptions{
				Target: path, Instruction: "rename hello to greet",
				Out: &out, In: strings.NewReader("n\n"),
			})

		// then
		require.NoError(t, err)
		assert.Zero(t, report.Changed)
		assert.Equal(t, 1, report.Aborted)
		content, readErr := os.ReadFile(path)
		require.NoError(t, readErr)
		assert.Equal(t, original, string(content))
	})

	t.Run("should fail on a missing target", func(t *testing.T) {
		t.Parallel()
		// when
		_, err := newRefactorCommand(&repositorydoubles.SpyModelRepository{}).Execute(context.Background(),
			commands.RefactorOptions{
				Target: "/does/not/exist", Instruction: "anything",
				Out: &bytes.Buffer{}, In: strings.NewReader(""),
			})

		// then
		require.Error(t, err)
		assert.ErrorIs(t, err, entities.ErrIOFailure)
	})
}
