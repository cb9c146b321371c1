package build

import (
	"errors"
	"fmt"
)

// MaxFileSize is the largest configuration file accepted
const MaxFileSize = 32 << 20

var (
	// ErrNoConfiguration means the root directory has no build.muda and no
	// user-wide configuration exists.
	ErrNoConfiguration = errors.New("no build.muda found and no user configuration available")
	// ErrRestoreDirectory means the builder could not return to a solution
	// directory after building a child. The run is aborted.
	ErrRestoreDirectory = errors.New("could not restore the working directory")
	// ErrNoCompiler means no supported toolchain was found, or the forced one is missing
	ErrNoCompiler = errors.New("no supported compiler found")

	ErrFileTooLarge = fmt.Errorf("file larger than %d MiB", MaxFileSize>>20)
	ErrEmptyFile    = errors.New("file is empty")
)

// FileError is a configuration file that could not be used
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("configuration file %s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
