package api

import "errors"

var (
	// ErrUnauthenticated is the class of request signature failures.
	ErrUnauthenticated = errors.New("api: unauthenticated")

	// ErrMissingAuth indicates a mutating request without signature headers.
	ErrMissingAuth = errors.New("api: missing authentication headers")

	// ErrBadSignature indicates the signature or public key does not verify.
	ErrBadSignature = errors.New("api: invalid request signature")

	// ErrStaleTimestamp indicates the request timestamp is outside the allowed skew.
	ErrStaleTimestamp = errors.New("api: stale request timestamp")

	// ErrReplay indicates the signature was already accepted.
	ErrReplay = errors.New("api: replayed request")

	// ErrBadRequest indicates a malformed request body or path parameter.
	ErrBadRequest = errors.New("api: bad request")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("api: required parameter is nil")
)
