package domain

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionTerminal = errors.New("session already resolved")

	ErrNoCompatibleModel    = errors.New("no compatible model available")
	ErrDiscoveryUnreachable = errors.New("model discovery unreachable")

	ErrRateLimited  = errors.New("upstream rate limited")
	ErrUnreachable  = errors.New("upstream unreachable")
	ErrUnauthorized = errors.New("upstream rejected credentials")
	ErrMalformed    = errors.New("upstream returned malformed output")

	ErrParse = errors.New("structured response parse failure")
)
