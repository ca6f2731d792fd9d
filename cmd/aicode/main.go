package main

import (
	"os"
	"strings"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aicode-cli/aicode/internal"
	"github.com/aicode-cli/aicode/internal/infrastructure/controllers"
)

func buildRootCommand() *cobra.Command {
	//nolint:exhaustruct // Minimal Command initialization with required fields only
	cmd := &cobra.Command{
		Use:   "aicode",
		Short: "Dependency reconciliation and safe-patch engine",
		Long: `Reconciles declared dependencies against actual usage across Python,
JavaScript, Go and Terraform projects, and proposes minimal reviewable
patches that never touch unrelated lines.

Usage modes:
  aicode analyze-deps .        Report unused, missing, conflicting and outdated deps
  aicode analyze-deps . --fix  Also propose and apply patches after confirmation
  aicode agent                 Interactive assistant over the same tools`,
		PersistentPreRun: func(command *cobra.Command, _ []string) {
			if verbose, _ := command.Flags().GetBool("verbose"); verbose {
				logger.SetLevel(logger.DebugLevel)
			}
		},
	}

	// Global persistent flags
	cmd.PersistentFlags().StringP("config", "c", "",
		"Path to config file (default: auto-detect)")
	cmd.PersistentFlags().BoolP("yes", "y", false,
		"Apply patches without asking for confirmation")
	cmd.PersistentFlags().BoolP("verbose", "v", false,
		"Enable verbose output")

	return cmd
}

func addSubcommands(rootCmd *cobra.Command, appContext *internal.AppInternal) {
	for _, controller := range appContext.GetControllers() {
		bind := controller.GetBind()
		ctrl := controller // capture for closure
		//nolint:exhaustruct // Minimal Command initialization with required fields only
		subCmd := &cobra.Command{
			Use:           bind.Use,
			Short:         bind.Short,
			Long:          bind.Long,
			Args:          cobra.MaximumNArgs(1),
			SilenceUsage:  true,
			SilenceErrors: true,
			RunE: func(command *cobra.Command, arguments []string) error {
				return ctrl.Execute(command, arguments)
			},
		}

		if _, ok := ctrl.(*controllers.AnalyzeController); ok {
			subCmd.Flags().Bool("fix", false,
				"Propose patches and apply them after confirmation")
			subCmd.Flags().StringArray("resolve", nil,
				"Resolution for a finding, as name=specifier (repeatable)")
		}

		rootCmd.AddCommand(subCmd)
	}
}

// applyConfigFlag resolves --config ahead of flag parsing so the injected
// settings pick it up.
func applyConfigFlag(args []string) {
	for i, arg := range args {
		switch {
		case arg == "--config" || arg == "-c":
			if i+1 < len(args) {
				os.Setenv("AICODE_CONFIG", args[i+1])
			}
			return
		case strings.HasPrefix(arg, "--config="):
			os.Setenv("AICODE_CONFIG", strings.TrimPrefix(arg, "--config="))
			return
		}
	}
}

func main() {
	//nolint:exhaustruct // Minimal TextFormatter initialization with required fields only
	logger.SetFormatter(&logger.TextFormatter{
		ForceColors:   true,
		FullTimestamp: true,
	})
	if os.Getenv("DEBUG") == "true" {
		logger.SetLevel(logger.DebugLevel)
	}

	cobraRoot := buildRootCommand()

	// The config path must be known before the container resolves the
	// settings, which happens during injection below.
	applyConfigFlag(os.Args[1:])

	// Inject controllers via DIG and add all subcommands
	appContext := injectAppContext()
	addSubcommands(cobraRoot, appContext)

	// Findings, partial scans and declined applies are normal outcomes
	// reported on stdout; a non-zero exit means the run itself failed.
	if err := cobraRoot.Execute(); err != nil {
		logger.Errorf("Error executing 'aicode': %s", err)
		os.Exit(1)
	}
}
