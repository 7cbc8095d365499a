package domain

import "errors"

var (
	// ErrInvalidWindow is returned for rolling windows outside [MinWindowDays, MaxWindowDays].
	ErrInvalidWindow = errors.New("invalid rolling window")

	// ErrInvalidRange is returned when a year range is malformed or inverted.
	ErrInvalidRange = errors.New("invalid year range")

	// ErrUnknownIndicator is returned for indicator codes missing from the catalog.
	ErrUnknownIndicator = errors.New("unknown indicator")

	// ErrEmptySeries is returned when bounds are requested over series with no points.
	ErrEmptySeries = errors.New("empty series")
)
