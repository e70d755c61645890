// Package sentinel defines the errors stores return for facts about stored
// records. Services translate them into domain errors with codes; handlers
// never see them directly.
package sentinel

import "errors"

var (
	// ErrNotFound means no record exists for the requested id.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a write carried a stale revision or a unique key
	// already exists.
	ErrConflict = errors.New("conflict")
)
