package errcode

import "net/http"

const (
	ErrUnknown = 10000000 + iota
	ErrNotFound
	ErrInvalid
	ErrTooMany
	ErrInternal
	ErrModelUnavailable
	ErrEmbedUnavailable
)

// HTTPStatus is the transport status sent alongside an API code.
func HTTPStatus(code int) int {
	switch code {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrInvalid:
		return http.StatusBadRequest
	case ErrTooMany:
		return http.StatusTooManyRequests
	case ErrModelUnavailable, ErrEmbedUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
