package importer

import "fmt"

// ValidationError reports a submitted payload with the wrong shape (not an
// array, or an empty batch). Rejected before any persistence attempt.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// PersistenceError reports a document-store read or write failure. The
// operation is not retried; the user retries the import manually.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
