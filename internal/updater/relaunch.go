package updater

import (
	"errors"
	"fmt"
)

// ErrSpawn reports that the application could not be restarted. The update
// itself has already succeeded when this happens.
var ErrSpawn = errors.New("could not restart application")

// SpawnError carries the executable and the start error.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("%v %s: %v", ErrSpawn, e.Path, e.Err)
}

func (e *SpawnError) Unwrap() []error { return []error{ErrSpawn, e.Err} }
