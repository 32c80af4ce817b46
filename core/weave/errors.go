package weave

import "errors"

var (
	ErrDuplicateRevision = errors.New("revision already registered")
	ErrUnknownRevision   = errors.New("revision not registered")
	ErrSealedRevision    = errors.New("revision is sealed")
)
