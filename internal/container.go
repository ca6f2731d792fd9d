package internal

import (
	"os"

	logger "github.com/sirupsen/logrus"
	"go.uber.org/dig"

	"github.com/aicode-cli/aicode/internal/domain/commands"
	"github.com/aicode-cli/aicode/internal/domain/entities"
	"github.com/aicode-cli/aicode/internal/infrastructure/controllers"
	"github.com/aicode-cli/aicode/internal/infrastructure/repositories"
)

// RegisterProviders registers all internal providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register all layers (bottom-up: infrastructure repos -> domain entities -> domain commands -> controllers)
	if err := container.Provide(newSettings); err != nil {
		return err
	}
	if err := repositories.RegisterProviders(container); err != nil {
		return err
	}
	if err := entities.RegisterProviders(container); err != nil {
		return err
	}
	if err := commands.RegisterProviders(container); err != nil {
		return err
	}
	if err := controllers.RegisterProviders(container); err != nil {
		return err
	}

	// Register the main app internal
	if err := container.Provide(NewAppInternal); err != nil {
		return err
	}

	return nil
}

// newSettings loads the run configuration: an explicit AICODE_CONFIG path
// wins, then the standard locations, then built-in defaults.
func newSettings() (*entities.Settings, error) {
	if path := os.Getenv("AICODE_CONFIG"); path != "" {
		return entities.NewSettings(path)
	}

	path, err := entities.FindConfigFile()
	if err != nil {
		logger.Debug("no config file found, using defaults")
		return entities.DefaultSettings(), nil
	}
	logger.WithField("path", path).Debug("loaded config file")
	return entities.NewSettings(path)
}
