package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTarget means a path-to target is not a project or collection,
	// so no section can show it.
	ErrInvalidTarget = errors.New("target is not a project or collection")
	// ErrNotCollection means a collection load was asked for another kind.
	ErrNotCollection = errors.New("node is not a collection")
	// ErrUnsupported means the data source lacks an optional capability.
	ErrUnsupported = errors.New("data source does not support this operation")
)

// FetchError wraps a failed fetch with where it happened.
type FetchError struct {
	Op       string // "list", "files", "favorites", "public_favorites", "ancestors"
	PickerID string
	NodeID   string
	Cause    error
}

func (e FetchError) Error() string {
	return fmt.Sprintf("%s %s/%q failed: %v", e.Op, e.PickerID, e.NodeID, e.Cause)
}

func (e FetchError) Unwrap() error {
	return e.Cause
}
