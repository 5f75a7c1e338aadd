// Package testutil provides shared test doubles for structure packages.
//
// This package contains mock errors and fake collaborators (kernels,
// compliance checkers) used across test files. It should only be imported
// by test files (*_test.go).
package testutil

import "errors"

// Mock errors for testing purposes.
var (
	// ErrMockStoreUnavailable simulates a session or workflow store outage.
	ErrMockStoreUnavailable = errors.New("store unavailable")

	// ErrMockNetwork simulates a network failure.
	ErrMockNetwork = errors.New("network error")

	// ErrMockKernel simulates a kernel argument validation failure.
	ErrMockKernel = errors.New("kernel rejected arguments")
)
