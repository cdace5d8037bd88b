package scheduler

import "errors"

var (
	// ErrInvalidRequirement is returned at submit time when the requirement
	// vector is negative on any channel. The request is never queued.
	ErrInvalidRequirement = errors.New("scheduler: invalid resource requirement")

	// ErrResourceUnavailable marks work that could not be admitted and for
	// which no degradation option covered the shortfall.
	ErrResourceUnavailable = errors.New("scheduler: resources unavailable")

	// ErrDeadlineExceeded is returned when a submitted deadline has already
	// elapsed; a queued request whose deadline passes is expired instead.
	// No retry is attempted by the scheduler.
	ErrDeadlineExceeded = errors.New("scheduler: deadline exceeded while queued")

	// ErrUnknownRequest is returned for operations on ids the scheduler does
	// not track.
	ErrUnknownRequest = errors.New("scheduler: unknown request id")
)
