package entities

// UsageRecord is one discovered source-level reference to an external
// module. Produced by the usage scanners, consumed by the reconciler,
// discarded after the run.
type UsageRecord struct {
	ModuleName string // top-level module name (full import path for Go)
	Ecosystem  string
	FilePath   string
	LineNumber int
}
