// Package common defines shared constants and sentinel errors used across
// the MarkPDF client and server. Callers should use errors.Is to match them.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal         = errors.New("internal error")
	ErrorUnauthorized     = errors.New("unauthorized")
	ErrorAlreadyExists    = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotPDF             = errors.New("file is not a PDF document")
	ErrTooLarge           = errors.New("upload too large")
	ErrInvalidInput       = errors.New("invalid input")

	// Auth errors.
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Highlight errors. InvalidGeometry is recovered locally and never
	// reaches an API caller.
	ErrMalformedBody          = errors.New("malformed request body")
	ErrInvalidGeometry        = errors.New("invalid geometry")
	ErrMissingPosition        = errors.New("missing position")
	ErrMissingPageNumber      = errors.New("missing page number")
	ErrPageOutOfRange         = errors.New("page number out of range")
	ErrDocumentNotFound       = errors.New("document not found")
	ErrPersistenceUnavailable = errors.New("persistence unavailable")

	// Rendering errors.
	ErrViewportUnavailable = errors.New("viewport unavailable")
	ErrEmptySelection      = errors.New("empty selection")
)

// Kind returns the wire name of a taxonomy error, as used in JSON error
// bodies. Unknown errors map to "Internal".
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrMalformedBody):
		return "MalformedBody"
	case errors.Is(err, ErrMissingPosition):
		return "MissingPosition"
	case errors.Is(err, ErrMissingPageNumber):
		return "MissingPageNumber"
	case errors.Is(err, ErrPageOutOfRange):
		return "PageOutOfRange"
	case errors.Is(err, ErrDocumentNotFound):
		return "DocumentNotFound"
	case errors.Is(err, ErrInvalidGeometry):
		return "InvalidGeometry"
	case errors.Is(err, ErrPersistenceUnavailable):
		return "PersistenceUnavailable"
	case errors.Is(err, ErrorNotFound):
		return "NotFound"
	case errors.Is(err, ErrTokenExpired), errors.Is(err, ErrRefreshTokenExpired):
		return "TokenExpired"
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrorUnauthorized), errors.Is(err, ErrInvalidCredentials):
		return "Unauthorized"
	case errors.Is(err, ErrorAlreadyExists):
		return "AlreadyExists"
	case errors.Is(err, ErrNotPDF):
		return "NotPDF"
	case errors.Is(err, ErrTooLarge):
		return "TooLarge"
	case errors.Is(err, ErrInvalidInput):
		return "InvalidInput"
	default:
		return "Internal"
	}
}
