package errors

import (
	"encoding/json"
	"net/http"

	"github.com/Jelisos/wallpaper-site-sub000/internal/domain/fault"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RateLimitError struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	RetryAfterSec int64  `json:"retry_after_sec"`
}

func Write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// StatusForKind maps the fault taxonomy to HTTP status codes. Exhausted
// never reaches this mapping: an exhausted page is a 200 with an empty
// item list.
func StatusForKind(kind fault.Kind) int {
	switch kind {
	case fault.Invalid:
		return http.StatusBadRequest
	case fault.Unauthenticated:
		return http.StatusUnauthorized
	case fault.Forbidden:
		return http.StatusForbidden
	case fault.NotFound:
		return http.StatusNotFound
	case fault.Conflict:
		return http.StatusConflict
	case fault.Transient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteFault renders a taxonomy error; unknown errors become opaque 500s.
func WriteFault(w http.ResponseWriter, err error, fallbackCode, fallbackMessage string) {
	kind := fault.KindOf(err)
	if kind == "" {
		Write(w, http.StatusInternalServerError, APIError{Code: fallbackCode, Message: fallbackMessage})
		return
	}

	Write(w, StatusForKind(kind), APIError{
		Code:    string(kind),
		Message: fallbackMessage,
	})
}
