package imageio

import "fmt"

// Error reports a failed image operation.
type Error struct {
	Operation string
	Path      string
	Err       error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("image %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("image %s: %v", e.Operation, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
