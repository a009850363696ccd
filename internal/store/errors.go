// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tessera Contributors

package store

import "errors"

// Sentinel errors for store operations.
// These errors can be checked using errors.Is() for classification.
var (
	// ErrNotFound indicates the requested key does not exist (or has expired).
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input parameters are invalid or malformed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnavailable indicates the backend could not be reached.
	// Callers may retry the whole logical operation.
	ErrUnavailable = errors.New("store unavailable")
)
