package controllers

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aicode-cli/aicode/internal/domain/commands"
	"github.com/aicode-cli/aicode/internal/domain/entities"
)

// AnalyzeController handles the analyze-deps command.
type AnalyzeController struct {
	command commands.Analyze
}

// NewAnalyzeController creates a new AnalyzeController.
func NewAnalyzeController(command commands.Analyze) *AnalyzeController {
	return &AnalyzeController{command: command}
}

// GetBind returns the Cobra command metadata for the analyze controller.
func (it *AnalyzeController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "analyze-deps [path]",
		Short: "Reconcile declared dependencies against actual usage",
		Long: `Reconcile declared dependencies against actual usage.
Parses every dependency manifest under the given path, scans sources for
imports, and reports unused, missing, conflicting, outdated and
unparseable dependencies. With --fix, proposes minimal line-level patches
and applies them after confirmation.`,
	}
}

// Execute runs one analysis. Findings and declined applies are normal
// outcomes; only a failed run returns an error.
func (it *AnalyzeController) Execute(cmd *cobra.Command, args []string) error {
	fix, _ := cmd.Flags().GetBool("fix")
	yes, _ := cmd.Flags().GetBool("yes")
	resolveFlags, _ := cmd.Flags().GetStringArray("resolve")

	resolutions, err := parseResolutions(resolveFlags)
	if err != nil {
		return err
	}

	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	_, err = it.command.Execute(context.Background(), commands.AnalyzeOptions{
		Root:        root,
		Fix:         fix,
		Yes:         yes,
		Resolutions: resolutions,
		Out:         cmd.OutOrStdout(),
		In:          os.Stdin,
	})
	return err
}

// parseResolutions turns --resolve name=specifier flags into a map.
func parseResolutions(flags []string) (map[string]string, error) {
	resolutions := map[string]string{}
	for _, flag := range flags {
		name, specifier, found := strings.Cut(flag, "=")
		if !found || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid --resolve value %q, expected name=specifier", flag)
		}
		resolutions[strings.TrimSpace(name)] = strings.TrimSpace(specifier)
	}
	return resolutions, nil
}
