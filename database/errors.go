package database

import "fmt"

// PersistenceError wraps a failed store operation with the entity it
// concerned. Failures during a run are surfaced, not swallowed: a write
// that silently fails would make the next diff re-process the work.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store %s failed for %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
