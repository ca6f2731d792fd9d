package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/aicode-cli/aicode/internal/domain/entities"
	domainRepos "github.com/aicode-cli/aicode/internal/domain/repositories"
)

const routerSystemPrompt = `You route developer requests to tools. Answer with a
single JSON object and nothing else, shaped as:
{"tool": "analyze-deps" | "refactor" | "answer",
 "target": "<file or directory path, default .>",
 "instruction": "<what to change, for refactor>",
 "explanation": "<direct answer, for answer>"}
Pick "analyze-deps" for questions about dependencies, unused or missing
packages, version conflicts or manifest health. Pick "refactor" when the
user wants code changed. Otherwise pick "answer".`

// Agent is the interface for the interactive agent command.
type Agent interface {
	Execute(ctx context.Context, opts AgentOptions) error
}

// AgentOptions holds runtime options for the agent loop.
type AgentOptions struct {
	Root string
	Yes  bool
	Out  io.Writer
	In   io.Reader
}

// toolCall is the routing decision returned by the model.
type toolCall struct {
	Tool        string `json:"tool"`
	Target      string `json:"target"`
	Instruction string `json:"instruction"`
	Explanation string `json:"explanation"`
}

// AgentCommand runs the interactive loop: each user line is routed by the
// model to the dependency analyzer, the refactorer, or a direct answer.
// Every mutation still goes through the same diff and confirmation gate.
type AgentCommand struct {
	model    domainRepos.ModelRepository
	analyze  Analyze
	refactor Refactor
}

// NewAgentCommand creates a new AgentCommand.
func NewAgentCommand(model domainRepos.ModelRepository, analyze Analyze, refactor Refactor) *AgentCommand {
	return &AgentCommand{model: model, analyze: analyze, refactor: refactor}
}

// Execute runs the read-route-dispatch loop until EOF or an exit word.
// The dispatched commands read their confirmation answers from the same
// buffered reader, so type-ahead typed at the prompt reaches them.
func (it *AgentCommand) Execute(ctx context.Context, opts AgentOptions) error {
	fmt.Fprintln(opts.Out, "aicode agent: describe what you want, or 'exit' to leave.")
	input := bufio.NewReader(opts.In)

	for {
		fmt.Fprint(opts.Out, "> ")
		line, readErr := input.ReadString('\n')
		request := strings.TrimSpace(line)
		if request == "" {
			if readErr == nil {
				continue
			}
			fmt.Fprintln(opts.Out)
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return readErr
		}
		if request == "exit" || request == "quit" {
			return nil
		}

		call, err := it.route(ctx, request)
		if err != nil {
			logger.WithError(err).Error("could not route the request")
		} else {
			it.dispatch(ctx, call, opts, input)
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return readErr
		}
	}
}

// route asks the model which tool serves the request.
func (it *AgentCommand) route(ctx context.Context, request string) (*toolCall, error) {
	answer, err := it.model.Submit(ctx, entities.ModelRequest{
		SystemPrompt: routerSystemPrompt,
		UserPrompt:   request,
		WantJSON:     true,
	})
	if err != nil {
		return nil, err
	}

	call := &toolCall{}
	if err := json.Unmarshal([]byte(stripCodeFences(answer)), call); err != nil {
		return nil, fmt.Errorf("model returned malformed routing JSON: %w", err)
	}
	if call.Target == "" {
		call.Target = "."
	}
	return call, nil
}

func (it *AgentCommand) dispatch(ctx context.Context, call *toolCall, opts AgentOptions, input io.Reader) {
	switch call.Tool {
	case "analyze-deps":
		root := call.Target
		if root == "." && opts.Root != "" {
			root = opts.Root
		}
		if _, err := it.analyze.Execute(ctx, AnalyzeOptions{
			Root: root,
			Fix:  true,
			Yes:  opts.Yes,
			Out:  opts.Out,
			In:   input,
		}); err != nil {
			logger.WithError(err).Error("dependency analysis failed")
		}
	case "refactor":
		if _, err := it.refactor.Execute(ctx, RefactorOptions{
			Target:      call.Target,
			Instruction: call.Instruction,
			Yes:         opts.Yes,
			Out:         opts.Out,
			In:          input,
		}); err != nil {
			logger.WithError(err).Error("refactor failed")
		}
	case "answer":
		fmt.Fprintln(opts.Out, call.Explanation)
	default:
		logger.WithField("tool", call.Tool).Error("model picked an unknown tool")
	}
}
