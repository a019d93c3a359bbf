package errors

import "net/http"

// ErrorCode represents the type of error
type ErrorCode string

const (
	ErrNotFound       ErrorCode = "NOT_FOUND"
	ErrUnauthorized   ErrorCode = "UNAUTHORIZED"
	ErrForbidden      ErrorCode = "FORBIDDEN"
	ErrConflict       ErrorCode = "CONFLICT"
	ErrValidation     ErrorCode = "VALIDATION_ERROR"
	ErrBadRequest     ErrorCode = "BAD_REQUEST"
	ErrInternalError  ErrorCode = "INTERNAL_ERROR"
	ErrAlreadyExists  ErrorCode = "ALREADY_EXISTS"
	ErrRateLimited    ErrorCode = "RATE_LIMITED"
	ErrServiceUnavail ErrorCode = "SERVICE_UNAVAILABLE"
	ErrTimeout        ErrorCode = "TIMEOUT"

	// ErrFetch: source video could not be retrieved from object storage. Retryable.
	ErrFetch ErrorCode = "FETCH_ERROR"
	// ErrDecode: the media container was malformed, used an unsupported codec,
	// or was truncated. Non-retryable without a different source file.
	ErrDecode ErrorCode = "DECODE_ERROR"
	// ErrExtract: the frame extractor produced zero frames or the demuxer
	// could not be opened. Non-retryable without a different source file.
	ErrExtract ErrorCode = "EXTRACT_ERROR"
	// ErrIndex: the metadata store was unavailable mid-decision. Retryable.
	ErrIndex ErrorCode = "INDEX_ERROR"
)

// StatusCodeMap maps ErrorCode to HTTP status code
var StatusCodeMap = map[ErrorCode]int{
	ErrNotFound:       http.StatusNotFound,
	ErrUnauthorized:   http.StatusUnauthorized,
	ErrForbidden:      http.StatusForbidden,
	ErrConflict:       http.StatusConflict,
	ErrValidation:     http.StatusUnprocessableEntity,
	ErrBadRequest:     http.StatusBadRequest,
	ErrInternalError:  http.StatusInternalServerError,
	ErrAlreadyExists:  http.StatusConflict,
	ErrRateLimited:    http.StatusTooManyRequests,
	ErrServiceUnavail: http.StatusServiceUnavailable,
	ErrTimeout:        http.StatusGatewayTimeout,
	ErrFetch:          http.StatusServiceUnavailable,
	ErrDecode:         http.StatusUnprocessableEntity,
	ErrExtract:        http.StatusUnprocessableEntity,
	ErrIndex:          http.StatusServiceUnavailable,
}

// Retryable reports whether the caller's retry policy should re-submit the
// job for this error kind (spec §7: FetchError and IndexError are
// retryable, DecodeError and ExtractError are not).
func (e ErrorCode) Retryable() bool {
	switch e {
	case ErrFetch, ErrIndex, ErrServiceUnavail, ErrTimeout, ErrRateLimited:
		return true
	default:
		return false
	}
}

// StatusCode returns the HTTP status code for this error code
func (e ErrorCode) StatusCode() int {
	if code, ok := StatusCodeMap[e]; ok {
		return code
	}
	return http.StatusInternalServerError
}
