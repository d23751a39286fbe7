package state

import (
	"errors"
	"fmt"
	"strings"
)

// PathNotFoundError reports a read that resolved neither against the
// document nor under its inputs section. The key lists are hints for
// whoever has to fix the program.
type PathNotFoundError struct {
	// Path is the pointer that failed to resolve.
	Path string

	// RootKeys are the document's root keys at the time of the read.
	RootKeys []string

	// InputKeys are the keys of the inputs section, when it is an object.
	InputKeys []string
}

// Error implements the error interface.
func (e *PathNotFoundError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "path not found: %s (root keys: [%s]", e.Path, strings.Join(e.RootKeys, ", "))
	if e.InputKeys != nil {
		fmt.Fprintf(&b, "; input keys: [%s]", strings.Join(e.InputKeys, ", "))
	}
	b.WriteString(")")
	return b.String()
}

// InvalidWritePathError reports a write to a location that does not exist
// and cannot be auto-created.
type InvalidWritePathError struct {
	Path   string
	Reason string
}

// Error implements the error interface.
func (e *InvalidWritePathError) Error() string {
	return fmt.Sprintf("cannot write path %q: %s", e.Path, e.Reason)
}

// IsPathNotFound returns true if err is or wraps a *PathNotFoundError.
func IsPathNotFound(err error) bool {
	var pe *PathNotFoundError
	return errors.As(err, &pe)
}

// IsInvalidWritePath returns true if err is or wraps an *InvalidWritePathError.
func IsInvalidWritePath(err error) bool {
	var we *InvalidWritePathError
	return errors.As(err, &we)
}
