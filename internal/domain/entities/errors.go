package entities

import "errors"

// Domain errors
var (
	// Meeting errors
	ErrMeetingNotFound    = errors.New("meeting not found")
	ErrTranscriptNotFound = errors.New("transcript not found")
	ErrTranscriptExists   = errors.New("transcript already exists")
	ErrMeetingFailed      = errors.New("meeting is in failed state")

	// Bot session errors
	ErrSessionNotFound  = errors.New("bot session not found")
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// Integration errors
	ErrTranscriptionFailed = errors.New("transcription failed")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
)
