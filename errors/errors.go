// Package errors provides error handling for navtool.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - User-facing hints and technical details on the same error value
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Add hints for users
//	return errors.WithHint(err, "re-acquire the source archive")
//
//	// Check errors
//	if errors.Is(err, errors.ErrArchiveCorrupt) {
//	    // handle unreadable archive
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is             = crdb.Is
	Mark           = crdb.Mark
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Common sentinel errors for the chart loading pipeline.
// Use these with errors.Is() for type-safe error checking.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrChartNotFound indicates the requested chart cell is absent from an archive
	ErrChartNotFound = New("chart not found")

	// ErrArchiveCorrupt indicates an archive container that cannot be opened at all
	ErrArchiveCorrupt = New("archive corrupt")

	// ErrIntegrityMismatch indicates a dataset hash that disagrees with the trusted record
	ErrIntegrityMismatch = New("integrity mismatch")

	// ErrTransient marks a failure that is likely to succeed on retry
	// (resource contention, momentary I/O pressure)
	ErrTransient = New("transient failure")
)

// IsTransient checks if an error is or wraps ErrTransient.
// The retrying loader uses this to separate retryable decode failures
// from permanent ones.
func IsTransient(err error) bool {
	return err != nil && Is(err, ErrTransient)
}

// IsChartNotFound checks if an error is or wraps ErrChartNotFound
func IsChartNotFound(err error) bool {
	return err != nil && Is(err, ErrChartNotFound)
}

// IsArchiveCorrupt checks if an error is or wraps ErrArchiveCorrupt
func IsArchiveCorrupt(err error) bool {
	return err != nil && Is(err, ErrArchiveCorrupt)
}

// WrapTransient marks an error as transient while keeping its cause chain.
// Decoder implementations use this to flag retry-eligible failures.
func WrapTransient(err error, context string) error {
	return Wrap(Mark(err, ErrTransient), context)
}
