package highlight

import "strings"

// ValidationError reports why one field of a payload could not be
// normalized. Err is one of the common highlight sentinels.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidationErrors is the list returned when normalization fails. Every
// entry is visible to errors.Is.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}

func (v ValidationErrors) Unwrap() []error {
	out := make([]error, 0, len(v))
	for _, e := range v {
		out = append(out, e)
	}
	return out
}

// Degradation records a value that was replaced instead of rejected,
// such as an invalid rectangle turned into the zero rectangle.
type Degradation struct {
	Field  string
	Reason string
}
