package controllers

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/aicode-cli/aicode/internal/domain/commands"
	"github.com/aicode-cli/aicode/internal/domain/entities"
)

// AgentController handles the interactive agent command.
type AgentController struct {
	command commands.Agent
}

// NewAgentController creates a new AgentController.
func NewAgentController(command commands.Agent) *AgentController {
	return &AgentController{command: command}
}

// GetBind returns the Cobra command metadata for the agent controller.
func (it *AgentController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "agent [path]",
		Short: "Interactive assistant over the analysis and refactor tools",
		Long: `Start an interactive loop. Each request is routed by the model
to the dependency analyzer, the refactorer, or answered directly. File
changes always show a diff and ask for confirmation first.`,
	}
}

// Execute runs the interactive loop until the user leaves.
func (it *AgentController) Execute(cmd *cobra.Command, args []string) error {
	yes, _ := cmd.Flags().GetBool("yes")

	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	return it.command.Execute(context.Background(), commands.AgentOptions{
		Root: root,
		Yes:  yes,
		Out:  cmd.OutOrStdout(),
		In:   os.Stdin,
	})
}
