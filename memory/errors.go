package memory

import "fmt"

// StorageError reports a failure in the durable tier. It is fatal from the
// memory system's point of view: there is no internal retry, and it is the
// only error class allowed to surface out of the Manager.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("long-term memory: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// storageErr wraps err unless it is nil.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
