package registry

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("fragments repository not found")
	ErrAlreadyInitialized = errors.New("fragments repository already initialized")
	ErrNotFollowed        = errors.New("file is not being followed")
	ErrAlreadyFollowed    = errors.New("file is already being followed")
	ErrNeverCommitted     = errors.New("file has never been committed")
	ErrUnchanged          = errors.New("file has not been changed")
	ErrRemoved            = errors.New("file has been removed")
	ErrOutsideRoot        = errors.New("path is outside the repository")
	ErrCorruptConfig      = errors.New("corrupt fragments config")
	ErrInvalidPattern     = errors.New("invalid exclude pattern")
)

// OutsideRootError records a path that does not live under the repository.
type OutsideRootError struct {
	Path string
	Root string
}

func (e *OutsideRootError) Error() string {
	return fmt.Sprintf("%s is outside the repository at %s", e.Path, e.Root)
}

func (e *OutsideRootError) Unwrap() error {
	return ErrOutsideRoot
}
