package adapter

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested folder does not exist.
var ErrNotFound = errors.New("folder not found")

// CreationError reports a provider failure while creating a folder. The
// caller does not retry; the folder either exists or it doesn't.
type CreationError struct {
	Name string
	Err  error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("failed to create folder %q: %v", e.Name, e.Err)
}

func (e *CreationError) Unwrap() error { return e.Err }
