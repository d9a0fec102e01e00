// services/errors.go
package services

import "fmt"

// ValidationFailureKind classifies why a citation reachability check failed.
type ValidationFailureKind string

const (
	ValidationFailureTimeout    ValidationFailureKind = "timeout"
	ValidationFailureConnection ValidationFailureKind = "connection"
	ValidationFailureBadRequest ValidationFailureKind = "bad_request"
)

// CitationValidationError is the typed failure for one citation's reachability
// check. A single failed check never aborts the batch; the error is recorded
// and the citation's accessibility stays unknown.
type CitationValidationError struct {
	URL  string
	Kind ValidationFailureKind
	Err  error
}

func (e *CitationValidationError) Error() string {
	return fmt.Sprintf("citation validation %s for %s: %v", e.Kind, e.URL, e.Err)
}

func (e *CitationValidationError) Unwrap() error {
	return e.Err
}
