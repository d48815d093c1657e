package errors

import "fmt"

// ErrorType classifies failures coming out of the Boosty API and the download path.
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeState       ErrorType = "state"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error is a typed API/download error. Code carries the HTTP status when one exists.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// New builds a typed error. Pass code 0 when there is no HTTP status.
func New(t ErrorType, msg string, code int) *Error {
	return &Error{Type: t, Message: msg, Code: code}
}

// TypeForStatusCode maps an HTTP status code to an error type.
func TypeForStatusCode(code int) ErrorType {
	switch {
	case code == 401 || code == 403:
		return ErrorTypeAuth
	case code == 404:
		return ErrorTypeNotFound
	case code == 429:
		return ErrorTypeRateLimit
	case code >= 500:
		return ErrorTypeServerError
	default:
		return ErrorTypeUnknown
	}
}

// IsRetryable reports whether an error of the given type is worth another attempt.
// State and auth errors never are: retrying a creator mismatch or a bad token
// only delays the inevitable.
func IsRetryable(t ErrorType) bool {
	switch t {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	default:
		return false
	}
}
