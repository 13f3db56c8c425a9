package domain

import "errors"

var (
	// ErrNotInitialized is returned when a mutation is attempted before the record is loaded.
	ErrNotInitialized = errors.New("progress engine not initialized")
	// ErrUnknownWorkout is returned when a workout id is not in the catalog.
	ErrUnknownWorkout = errors.New("unknown workout")
	// ErrInvalidAmount is returned for negative experience awards.
	ErrInvalidAmount = errors.New("experience amount must not be negative")
	// ErrStorageUnavailable wraps load, save and clear failures of a persistence gateway.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
