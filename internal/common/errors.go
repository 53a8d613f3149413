package common

import "errors"

// Domain errors shared between services and handlers.
var (
	// ErrEmptyPrompt is returned when a generation request carries a blank prompt.
	ErrEmptyPrompt = errors.New("prompt cannot be empty")

	// ErrEmptyID is returned when an image operation carries a blank id.
	ErrEmptyID = errors.New("id cannot be empty")

	// ErrInsufficientCredits is returned when the caller's balance is zero.
	ErrInsufficientCredits = errors.New("not enough credits to generate an image")

	// ErrGenerationFailed covers every provider and download failure.
	// Subtypes are deliberately not distinguished to the caller.
	ErrGenerationFailed = errors.New("error generating image")

	// ErrNotFound is returned when an image id resolves to no record.
	ErrNotFound = errors.New("image not found")

	// ErrNotOwner is returned when the caller does not own the record.
	ErrNotOwner = errors.New("caller does not own this image")
)
