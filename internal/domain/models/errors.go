package models

import "errors"

// Domain error taxonomy. Pipelines wrap these with fmt.Errorf("...: %w", err)
// so callers can branch with errors.Is regardless of which layer failed.
var (
	// ErrNotFound signals a missing model, version, or default pointer.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateVersion signals a version id that is already registered.
	ErrDuplicateVersion = errors.New("duplicate model version")

	// ErrEmptyWindow signals a required data window that returned zero rows.
	// Training, prediction, and comparison all abort on it.
	ErrEmptyWindow = errors.New("empty data window")

	// ErrInvalidInput signals empty or length-mismatched evaluation inputs.
	ErrInvalidInput = errors.New("invalid evaluation input")

	// ErrInference signals a feature schema mismatch during scoring.
	ErrInference = errors.New("inference schema mismatch")

	// ErrRegistryMutation signals that a promotion was decided but the
	// default-pointer update failed. Operators must remediate manually;
	// the comparator never retries the mutation on its own.
	ErrRegistryMutation = errors.New("registry mutation failed")

	// ErrConflict signals a compare-and-swap failure on the default pointer:
	// another writer moved it between read and update.
	ErrConflict = errors.New("default version conflict")
)
