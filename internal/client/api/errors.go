package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/al0nec0der/MarkPDF/internal/common"
)

// ErrUnavailable wraps transport failures: the server could not be reached
// or did not answer in time.
var ErrUnavailable = errors.New("server unavailable")

var kinds = map[string]error{
	"MalformedBody":          common.ErrMalformedBody,
	"MissingPosition":        common.ErrMissingPosition,
	"MissingPageNumber":      common.ErrMissingPageNumber,
	"PageOutOfRange":         common.ErrPageOutOfRange,
	"DocumentNotFound":       common.ErrDocumentNotFound,
	"InvalidGeometry":        common.ErrInvalidGeometry,
	"PersistenceUnavailable": common.ErrPersistenceUnavailable,
	"NotFound":               common.ErrorNotFound,
	"TokenExpired":           common.ErrTokenExpired,
	"Unauthorized":           common.ErrorUnauthorized,
	"AlreadyExists":          common.ErrorAlreadyExists,
	"NotPDF":                 common.ErrNotPDF,
	"TooLarge":               common.ErrTooLarge,
	"InvalidInput":           common.ErrInvalidInput,
	"Internal":               common.ErrorInternal,
}

// Error is a non-2xx answer from the API. It unwraps to the matching
// sentinel in package common, so callers can use errors.Is.
type Error struct {
	Status  int
	Kind    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%d %s", e.Status, e.Kind)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	if err, ok := kinds[e.Kind]; ok {
		return err
	}
	if e.Status >= http.StatusInternalServerError {
		return common.ErrorInternal
	}
	return nil
}

func isTokenExpired(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == "TokenExpired"
}
