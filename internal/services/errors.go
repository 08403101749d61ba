package services

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrEmailTaken   = errors.New("user already exists")

	// Business rules
	ErrCapacityExceeded  = errors.New("event is already full")
	ErrAlreadyRegistered = errors.New("already registered for this event")
	ErrNotRegistered     = errors.New("not registered for this event")
	ErrAlreadyAttached   = errors.New("icebreaker already added to this event")
	ErrNotAttached       = errors.New("icebreaker not found in this event")
	ErrInvalidTransition = errors.New("event status cannot change")

	// ErrBusy means a conditional update kept losing to concurrent writers;
	// the same request is expected to succeed on retry.
	ErrBusy = errors.New("event is busy, please try again")

	// External collaborators
	ErrUpstream        = errors.New("upstream service failed")
	ErrUpstreamTimeout = errors.New("upstream service timed out")
)

// notFound wraps ErrNotFound with the resource name ("Event not found").
func notFound(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrNotFound)
}

// IsBusinessRule reports whether err is a rejected state change rather than a fault.
func IsBusinessRule(err error) bool {
	for _, target := range []error{
		ErrCapacityExceeded, ErrAlreadyRegistered, ErrNotRegistered,
		ErrAlreadyAttached, ErrNotAttached, ErrInvalidTransition,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// callExternal runs fn under timeout and classifies its failure as
// ErrUpstreamTimeout or ErrUpstream, keeping the cause in the chain for logs.
func callExternal(ctx context.Context, timeout time.Duration, service string, fn func(ctx context.Context) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	err := fn(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", service, ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%s: %w: %w", service, ErrUpstream, err)
}
