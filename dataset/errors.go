package dataset

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// Error kinds returned by this package. Use errors.Is to test for them; the
// underlying cause stays in the chain as well.
var (
	// ErrInvalidPath means a root or class directory is missing or is not a directory.
	ErrInvalidPath = errors.New("invalid dataset path")
	// ErrIO means a directory or image file could not be read or decoded.
	ErrIO = errors.New("dataset i/o failure")
	// ErrIndexOutOfRange means Get was called with an index outside [0, Len()).
	ErrIndexOutOfRange = errors.New("index out of range")
)

func kindError(kind, cause error) error {
	return fmt.Errorf("%w: %w", kind, cause)
}

// dirError classifies a failure to stat or list dir.
func dirError(dir string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return kindError(ErrInvalidPath, errors.Wrapf(err, "directory %q", dir))
	}
	return kindError(ErrIO, err)
}
