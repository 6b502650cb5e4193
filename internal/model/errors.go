package model

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrWrongPassword = errors.New("wrong password")

	// ErrUpstreamUnavailable means the generation API failed or timed out.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrQuotaExceeded means the generation API rejected the call with a rate limit.
	ErrQuotaExceeded = errors.New("upstream quota exceeded")
)
