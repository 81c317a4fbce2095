package domain

import "errors"

// Error kinds surfaced at controller boundaries. Anything else that crosses
// a network boundary is a transport error and is wrapped, not classified.
var (
	// ErrValidation marks input rejected before any network call.
	ErrValidation = errors.New("invalid input")

	// ErrNotFound marks a catalog lookup miss.
	ErrNotFound = errors.New("not found")

	// ErrPartialFailure marks a blob/catalog disagreement: the blob write
	// succeeded but the catalog row did not follow. The orphaned blob is not
	// cleaned up automatically.
	ErrPartialFailure = errors.New("storage and catalog out of sync")
)
