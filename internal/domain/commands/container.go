package commands

import (
	"go.uber.org/dig"
)

// RegisterProviders registers all command providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register command constructors
	if err := container.Provide(NewAnalyzeCommand); err != nil {
		return err
	}
	if err := container.Provide(NewRefactorCommand); err != nil {
		return err
	}
	if err := container.Provide(NewAgentCommand); err != nil {
		return err
	}

	// Bind interfaces to implementations
	if err := container.Provide(func(impl *AnalyzeCommand) Analyze {
		return impl
	}); err != nil {
		return err
	}
	if err := container.Provide(func(impl *RefactorCommand) Refactor {
		return impl
	}); err != nil {
		return err
	}
	if err := container.Provide(func(impl *AgentCommand) Agent {
		return impl
	}); err != nil {
		return err
	}

	return nil
}
