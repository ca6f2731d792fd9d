package internal

import (
	"github.com/aicode-cli/aicode/internal/domain/entities"
)

// AppInternal aggregates the application's controllers for the CLI layer.
type AppInternal struct {
	controllers *[]entities.Controller
}

// NewAppInternal creates the application context from the injected
// controller set.
func NewAppInternal(controllers *[]entities.Controller) *AppInternal {
	return &AppInternal{controllers: controllers}
}

// GetControllers returns all registered controllers.
func (it *AppInternal) GetControllers() []entities.Controller {
	return *it.controllers
}
