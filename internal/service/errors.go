package service

import "errors"

// Errors returned by RankingService. Callers match them with errors.Is.
var (
	// ErrValidation means the request itself is unusable.
	ErrValidation = errors.New("invalid request")

	// ErrConfiguration means a required service credential is missing.
	ErrConfiguration = errors.New("service not configured")

	// ErrRetrieval means the terminal retrieval tier failed.
	ErrRetrieval = errors.New("candidate retrieval failed")
)
