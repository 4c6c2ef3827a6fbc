package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the source aggregate or user is missing;
	// surfaced immediately, before any partial work.
	ErrNotFound = errors.New("not found")

	// ErrPermissionDenied indicates the backend rejected a read or
	// write.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrBatchCommit indicates a staged-write commit failed. Earlier
	// batches of the same operation may already be applied; re-running
	// the operation converges because copies mint fresh ids and
	// deletes are idempotent.
	ErrBatchCommit = errors.New("batch commit failed")
)

// Result is what every orchestrator-level operation returns. Callers
// check Success rather than catching errors; Message is human-readable
// and surfaced directly in the UI or on the CLI.
type Result struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	UpdatedCount int    `json:"updated_count,omitempty"`

	err error
}

// Err exposes the underlying error of a failed result so HTTP handlers
// can map it to a status code.
func (r Result) Err() error { return r.err }

func success(format string, args ...any) Result {
	return Result{Success: true, Message: fmt.Sprintf(format, args...)}
}

func failure(err error, format string, args ...any) Result {
	return Result{Success: false, Message: fmt.Sprintf(format, args...), err: err}
}
