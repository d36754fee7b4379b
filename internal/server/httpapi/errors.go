package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/al0nec0der/MarkPDF/internal/common"
)

var errRateLimited = errors.New("too many requests")

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusFor maps the error taxonomy to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, common.ErrMalformedBody),
		errors.Is(err, common.ErrMissingPosition),
		errors.Is(err, common.ErrMissingPageNumber),
		errors.Is(err, common.ErrPageOutOfRange),
		errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrDocumentNotFound), errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrRefreshTokenExpired),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, common.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, common.ErrNotPDF):
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}

func kindOf(err error) string {
	if errors.Is(err, errRateLimited) {
		return "RateLimited"
	}
	return common.Kind(err)
}

// writeError hides the cause of server-side failures from the client.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorBody{Error: kindOf(err), Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
