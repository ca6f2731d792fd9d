package entities

import "errors"

// ApplyStatus is the terminal outcome of one apply-gate call.
type ApplyStatus string

const (
	ApplyApplied ApplyStatus = "applied"
	ApplyAborted ApplyStatus = "aborted" // user declined; a normal outcome, not an error
)

// Sentinel errors for the run-level taxonomy. Per-file failures are
// isolated and reported next to successful results; only a failure to
// read the project root is run-fatal.
var (
	// ErrStaleFile means the manifest changed on disk between read and apply.
	ErrStaleFile = errors.New("file changed on disk since it was read")
	// ErrIOFailure marks an unreadable or unwritable target.
	ErrIOFailure = errors.New("io failure")
	// ErrScanTimeout marks a scan task that exceeded its bound; its
	// contribution is dropped and the run continues with partial data.
	ErrScanTimeout = errors.New("scan timed out")
)
