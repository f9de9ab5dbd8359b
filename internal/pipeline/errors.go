package pipeline

import (
	"errors"

	"cutoutd/internal/imageproc"
)

// ErrSuperseded is returned when a newer cycle replaced the one being run.
var ErrSuperseded = errors.New("cycle superseded")

// modelNotFoundError is returned when a requested model id is not in the catalog.
type modelNotFoundError struct{ id string }

func (e modelNotFoundError) Error() string { return "invalid model selected: " + e.id }

// ErrModelNotFound returns an error for a model id missing from the catalog.
func ErrModelNotFound(id string) error { return modelNotFoundError{id: id} }

// IsModelNotFound reports whether the error indicates a missing model id.
func IsModelNotFound(err error) bool {
	var e modelNotFoundError
	return errors.As(err, &e)
}

// dependencyUnavailableError signals a missing collaborator (segmentation
// runtime, downloader) so the HTTP layer can return 503 instead of 500.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var e dependencyUnavailableError
	return errors.As(err, &e)
}

// IsInvalidImage reports whether err was caused by an undecodable payload.
func IsInvalidImage(err error) bool { return errors.Is(err, imageproc.ErrInvalidImage) }
