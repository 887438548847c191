package dto

import "net/http"

// Error codes reused across handlers. Domain errors carry their own codes;
// these are the transport-level ones the handlers add.
const (
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHENTICATED"
	ErrCodeForbidden    = "INSUFFICIENT_PRIVILEGE"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// domainCodeHTTPStatus maps domain error codes to HTTP status codes.
// Unlisted codes fall back to 500 so a new domain error cannot silently
// leak as a success.
var domainCodeHTTPStatus = map[string]int{
	// Authentication
	"UNAUTHENTICATED":     http.StatusUnauthorized,
	"PRINCIPAL_INACTIVE":  http.StatusUnauthorized,
	"INVALID_CREDENTIALS": http.StatusUnauthorized,
	"TOKEN_EXPIRED":       http.StatusUnauthorized,
	"TOKEN_MAX_REFRESH":   http.StatusUnauthorized,

	// Authorization
	"INSUFFICIENT_PRIVILEGE": http.StatusForbidden,

	// Resources
	"NOT_FOUND":            http.StatusNotFound,
	"DUPLICATE_HANDLE":     http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,

	// Validation -> 400 Bad Request
	"BAD_REQUEST":      http.StatusBadRequest,
	"VALIDATION_ERROR": http.StatusBadRequest,
	"INVALID_ROLE":     http.StatusBadRequest,
	"INVALID_USERNAME": http.StatusBadRequest,
	"INVALID_PASSWORD": http.StatusBadRequest,

	// Business rules -> 422 Unprocessable Entity
	"INVALID_HIERARCHY":   http.StatusUnprocessableEntity,
	"INVALID_TRANSITION":  http.StatusUnprocessableEntity,
	"ORDER_EXPIRED":       http.StatusUnprocessableEntity,
	"ALREADY_INVALIDATED": http.StatusUnprocessableEntity,

	"INTERNAL_ERROR":      http.StatusInternalServerError,
	"PASSWORD_HASH_ERROR": http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for a domain error code.
// Returns 500 Internal Server Error for unknown codes.
func GetHTTPStatus(code string) int {
	if status, ok := domainCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
