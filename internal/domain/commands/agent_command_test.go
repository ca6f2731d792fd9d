package commands_test

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aicode-cli/aicode/internal/domain/commands"
	"github.com/aicode-cli/aicode/test/infrastructure/repositorydoubles"
)

// spyAnalyze records the options the agent dispatched with.
type spyAnalyze struct {
	calls []commands.AnalyzeOptions
}

func (s *spyAnalyze) Execute(_ context.Context, opts commands.AnalyzeOptions) (*commands.AnalyzeReport, error) {
	s.calls = append(s.calls, opts)
	return &commands.AnalyzeReport{}, nil
}

// spyRefactor records the options the agent dispatched with.
type spyRefactor struct {
	calls []commands.RefactorOptions
}

func (s *spyRefactor) Execute(_ context.Context, opts commands.RefactorOptions) (*commands.RefactorReport, error) {
	s.calls = append(s.calls, opts)
	return &commands.RefactorReport{}, nil
}

// confirmReadingRefactor reads one confirmation line from the run input,
// the way the real command's apply gate does.
type confirmReadingRefactor struct {
	answer string
}

func (s *confirmReadingRefactor) Execute(_ context.Context, opts commands.RefactorOptions) (*commands.RefactorReport, error) {
	line, _ := bufio.NewReader(opts.In).ReadString('\n')
	s.answer = strings.TrimSpace(line)
	return &commands.RefactorReport{}, nil
}

func TestAgentCommand_Execute(t *testing.T) {
	t.Parallel()

	t.Run("should leave on the exit word without calling the model", func(t *testing.T) {
		t.Parallel()
		// given
		model := &repositorydoubles.SpyModelRepository{}
		agent := commands.NewAgentCommand(model, &spyAnalyze{}, &spyRefactor{})
		var out bytes.Buffer

		// when
		err := agent.Execute(context.Background(),
			commands.AgentOptions{Out: &out, In: strings.NewReader("exit\n")})

		// then
		require.NoError(t, err)
		assert.Empty(t, model.Requests)
	})

	t.Run("should print the model's direct answer", func(t *testing.T) {
		t.Parallel()
		// given
		model := &repositorydoubles.SpyModelRepository{
			Responses: []string{`{"tool":"answer","explanation":"Pinning keeps builds reproducible."}`},
		}
		agent := commands.NewAgentCommand(model, &spyAnalyze{}, &spyRefactor{})
		var out bytes.Buffer

		// when
		err := agent.Execute(context.Background(),
			commands.AgentOptions{Out: &out, In: strings.NewReader("why pin versions?\nexit\n")})

		// then
		require.NoError(t, err)
		assert.Contains(t, out.String(), "Pinning keeps builds reproducible.")
		require.Len(t, model.Requests, 1)
		assert.True(t, model.Requests[0].WantJSON)
		assert.Equal(t, "why pin versions?", model.Requests[0].UserPrompt)
	})

	t.Run("should dispatch dependency questions to the analyzer", func(t *testing.T) {
		t.Parallel()
		// given
		model := &repositorydoubles.SpyModelRepository{
			Responses: []string{`{"tool":"analyze-deps","target":"."}`},
		}
		analyze := &spyAnalyze{}
		agent := commands.NewAgentCommand(model, analyze, &spyRefactor{})

		// when
		err := agent.Execute(context.Background(), commands.AgentOptions{
			Root: "/repo", Yes: true,
			Out: &bytes.Buffer{}, In: strings.NewReader("any unused deps?\nexit\n"),
		})

		// then
		require.NoError(t, err)
		require.Len(t, analyze.calls, 1)
		assert.Equal(t, "/repo", analyze.calls[0].Root)
		assert.True(t, analyze.calls[0].Fix)
		assert.True(t, analyze.calls[0].Yes)
	})

	t.Run("should dispatch change requests to the refactorer", func(t *testing.T) {
		t.Parallel()
		// given
		model := &repositorydoubles.SpyModelRepository{
			Responses: []string{`{"tool":"refactor","target":"main.py","instruction":"rename hello to greet"}`},
		}
		refactor := &spyRefactor{}
		agent := commands.NewAgentCommand(model, &spyAnalyze{}, refactor)

		// when
		err := agent.Execute(context.Background(), commands.AgentOptions{
			Out: &bytes.Buffer{}, In: strings.NewReader("rename hello in main.py\nexit\n"),
		})

		// then
		require.NoError(t, err)
		require.Len(t, refactor.calls, 1)
		assert.Equal(t, "main.py", refactor.calls[0].Target)
		assert.Equal(t, "rename hello to greet", refactor.calls[0].Instruction)
	})

	t.Run("should hand typed-ahead confirmations to the dispatched command", func(t *testing.T) {
		t.Parallel()
		// given
		model := &repositorydoubles.SpyModelRepository{
			Responses: []string{`{"tool":"refactor","target":"main.py","instruction":"tidy up"}`},
		}
		refactor := &confirmReadingRefactor{}
		agent := commands.NewAgentCommand(model, &spyAnalyze{}, refactor)

		// when
		err := agent.Execute(context.Background(), commands.AgentOptions{
			Out: &bytes.Buffer{}, In: strings.NewReader("tidy up main.py\ny\nexit\n"),
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, "y", refactor.answer)
	})

	t.Run("should accept a routing answer wrapped in a fence", func(t *testing.T) {
		t.Parallel()
		// given
		model := &repositorydoubles.SpyModelRepository{
			Responses: []string{"```json\n{\"tool\":\"answer\",\"explanation\":\"ok\"}\n```"},
		}
		agent := commands.NewAgentCommand(model, &spyAnalyze{}, &spyRefactor{})
		var out bytes.Buffer

		// when
		err := agent.Execute(context.Background(),
			commands.AgentOptions{Out: &out, In: strings.NewReader("hello\nexit\n")})

		// then
		require.NoError(t, err)
		assert.Contains(t, out.String(), "ok")
	})

	t.Run("should survive malformed routing output and keep the loop alive", func(t *testing.T) {
		t.Parallel()
		// given
		model := &repositorydoubles.SpyModelRepository{
			Responses: []string{"not json at all", `{"tool":"answer","explanation":"recovered"}`},
		}
		agent := commands.NewAgentCommand(model, &spyAnalyze{}, &spyRefactor{})
		var out bytes.Buffer

		// when
		err := agent.Execute(context.Background(),
			commands.AgentOptions{Out: &out, In: strings.NewReader("first\nsecond\nexit\n")})

		// then
		require.NoError(t, err)
		assert.Contains(t, out.String(), "recovered")
		assert.Len(t, model.Requests, 2)
	})
}
