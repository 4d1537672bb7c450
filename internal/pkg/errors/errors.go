package errors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalid           = errors.New("invalid")
	ErrUnavailable       = errors.New("unavailable")
	ErrModelNotFound     = errors.New("model artifact not found")
	ErrIndexNotFound     = errors.New("embedding index not found")
	ErrEmptyIndex        = errors.New("embedding index is empty")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsArtifactMissing reports whether err means a trained artifact is absent,
// which is a deployment problem rather than a caller problem.
func IsArtifactMissing(err error) bool {
	return errors.Is(err, ErrModelNotFound) || errors.Is(err, ErrIndexNotFound)
}
