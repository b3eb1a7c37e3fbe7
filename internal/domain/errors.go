package domain

import "errors"

var (
	// ErrNoParticipants is returned when a quiz needs names but the registry is empty.
	ErrNoParticipants = errors.New("no participants registered")
	// ErrUnknownParticipant is returned for ids missing from the participant registry.
	ErrUnknownParticipant = errors.New("participant not found in registry")
	// ErrUnknownAnswer indicates the correct answer is not one of the known names.
	ErrUnknownAnswer = errors.New("answer is not a known display name")
	// ErrPoolTooSmall is returned when there are not enough decoys to fill a quiz.
	ErrPoolTooSmall = errors.New("decoy pool smaller than required sample")
	// ErrNoPendingGuess is returned when a selection arrives without a started session.
	ErrNoPendingGuess = errors.New("no pending guess session")
	// ErrEmptyCorpus indicates the quote corpus has no usable block.
	ErrEmptyCorpus = errors.New("quote corpus is empty")
	// ErrUntaggedBlock indicates a corpus block without a recognizable source tag.
	ErrUntaggedBlock = errors.New("corpus block has no source tag")
	// ErrNoBirthdays is returned by the birthday game when no participant has a date.
	ErrNoBirthdays = errors.New("no birthdays registered")
)
