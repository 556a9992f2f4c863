package service

import "errors"

// Typed command outcomes. Every failure is reported only to its
// originator; none of these corrupt coordinator state.
var (
	// Conflict: at most one poll may be active at any instant.
	ErrActivePollExists = errors.New("an active poll already exists")
	// NotFound: the referenced poll or participant does not exist.
	ErrPollNotFound        = errors.New("poll not found")
	ErrParticipantNotFound = errors.New("participant not found")
	// Inactive: a mutating command hit a non-active poll.
	ErrPollNotActive = errors.New("poll is no longer active")
	// Expired: the time budget elapsed; detection forces completion as a
	// side effect, it is never left as a dangling active poll.
	ErrPollExpired = errors.New("poll duration has expired")
	// Uniqueness violations, surfaced distinctly from generic store errors.
	ErrDuplicateVote        = errors.New("you have already voted on this poll")
	ErrDuplicateParticipant = errors.New("participant has already joined this poll")
	// Validation: missing or malformed required fields.
	ErrValidation = errors.New("invalid input")
)
