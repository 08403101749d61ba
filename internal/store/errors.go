package store

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// ErrNoMatch means a conditional update found the document but its guard
	// did not hold (roster full, already joined, status moved on).
	ErrNoMatch   = errors.New("conditional update did not match")
	ErrDuplicate = errors.New("duplicate key")
)
