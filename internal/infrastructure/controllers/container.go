package controllers

import (
	"github.com/aicode-cli/aicode/internal/domain/entities"
	"go.uber.org/dig"
)

// RegisterProviders registers all controller providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register controller constructors
	if err := container.Provide(NewAnalyzeController); err != nil {
		return err
	}
	if err := container.Provide(NewAgentController); err != nil {
		return err
	}
	if err := container.Provide(NewControllers); err != nil {
		return err
	}

	return nil
}

// NewControllers aggregates all controllers into a slice for the AppInternal.
func NewControllers(
	analyzeController *AnalyzeController,
	agentController *AgentController,
) *[]entities.Controller {
	return &[]entities.Controller{
		analyzeController,
		agentController,
	}
}
