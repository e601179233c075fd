// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// NotFoundError is returned when every exact strategy and every permitted
// scan exhausted without locating an order for the reference.
//
// The Hint distinguishes "recognized format, absent from the scanned
// window" from "format we do not recognize at all" so the kiosk can show a
// useful message.
type NotFoundError struct {
	// Reference is the original (trimmed) input string.
	Reference string

	// Shape is the classified reference shape.
	Shape Shape

	// Hint is a shape-specific explanation of the miss.
	Hint string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resolver: no order found for %q: %s", e.Reference, e.Hint)
}

// UpstreamError wraps a failed call to the commerce platform.
//
// Timeout distinguishes deadline overruns (retryable by the caller) from
// other transport or protocol failures (terminal for the lookup).
type UpstreamError struct {
	// Op names the failed operation, e.g. "query orders" or "lookup items".
	Op string

	// Timeout reports whether the call exceeded its budget.
	Timeout bool

	// Err is the underlying transport or protocol error.
	Err error
}

func (e *UpstreamError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("resolver: upstream timeout during %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("resolver: upstream error during %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// NewUpstreamError classifies err as timeout or transport failure and wraps
// it. Already-classified errors pass through unchanged so the original Op
// is preserved.
func NewUpstreamError(op string, err error) *UpstreamError {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream
	}
	return &UpstreamError{Op: op, Timeout: isTimeout(err), Err: err}
}

// isTimeout reports whether err represents a deadline overrun at any layer.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsNotFound reports whether err is a resolution miss.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsUpstreamTimeout reports whether err is a timeout-classified upstream
// failure, which the caller may treat as retryable.
func IsUpstreamTimeout(err error) bool {
	var upstream *UpstreamError
	return errors.As(err, &upstream) && upstream.Timeout
}
