package repositories

import (
	"go.uber.org/dig"

	goRepo "github.com/aicode-cli/aicode/internal/infrastructure/repositories/golang"
	jsRepo "github.com/aicode-cli/aicode/internal/infrastructure/repositories/javascript"
	aiRepo "github.com/aicode-cli/aicode/internal/infrastructure/repositories/openai"
	pyRepo "github.com/aicode-cli/aicode/internal/infrastructure/repositories/python"
	tfRepo "github.com/aicode-cli/aicode/internal/infrastructure/repositories/terraform"
	wsRepo "github.com/aicode-cli/aicode/internal/infrastructure/repositories/workspace"
)

// RegisterProviders registers all repository providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register adapter registry with all manifest dialect adapters
	if err := container.Provide(func() *AdapterRegistry {
		reg := NewAdapterRegistry()
		reg.Register(pyRepo.NewRequirementsAdapterRepository())
		reg.Register(pyRepo.NewPyprojectAdapterRepository())
		reg.Register(jsRepo.NewPackageJSONAdapterRepository())
		reg.Register(goRepo.NewGomodAdapterRepository())
		reg.Register(tfRepo.NewTerraformAdapterRepository())
		return reg
	}); err != nil {
		return err
	}

	// Register scanner registry with all usage scanners
	if err := container.Provide(func() *ScannerRegistry {
		reg := NewScannerRegistry()
		reg.Register(pyRepo.NewImportScannerRepository())
		reg.Register(jsRepo.NewImportScannerRepository())
		reg.Register(goRepo.NewImportScannerRepository())
		return reg
	}); err != nil {
		return err
	}

	if err := container.Provide(wsRepo.NewWorkspaceRepository); err != nil {
		return err
	}
	if err := container.Provide(aiRepo.NewModelRepository); err != nil {
		return err
	}

	return nil
}
