package repositories

import (
	domainRepos "github.com/aicode-cli/aicode/internal/domain/repositories"
)

// ScannerRegistry manages all registered usage scanners, one per
// ecosystem.
type ScannerRegistry struct {
	scanners map[string]domainRepos.ScannerRepository
}

// NewScannerRegistry creates an empty scanner registry.
func NewScannerRegistry() *ScannerRegistry {
	return &ScannerRegistry{
		scanners: make(map[string]domainRepos.ScannerRepository),
	}
}

// Register adds a scanner under its ecosystem name.
func (r *ScannerRegistry) Register(s domainRepos.ScannerRepository) {
	r.scanners[s.Ecosystem()] = s
}

// Get returns the scanner for the given ecosystem, or nil if none is
// registered (Terraform manifests have no usage scanner, for example).
func (r *ScannerRegistry) Get(ecosystem string) domainRepos.ScannerRepository {
	return r.scanners[ecosystem]
}

// All returns every registered scanner.
func (r *ScannerRegistry) All() []domainRepos.ScannerRepository {
	result := make([]domainRepos.ScannerRepository, 0, len(r.scanners))
	for _, s := range r.scanners {
		result = append(result, s)
	}
	return result
}
