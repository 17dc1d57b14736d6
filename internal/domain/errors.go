package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when a game session id is unknown.
	ErrSessionNotFound = errors.New("game session not found")
	// ErrQuestionsNotFound indicates the question set could not be loaded.
	ErrQuestionsNotFound = errors.New("question set not found")
	// ErrCardsNotFound indicates the card set could not be loaded.
	ErrCardsNotFound = errors.New("card set not found")
	// ErrNoQuestions is returned when a session is begun over an empty pool.
	ErrNoQuestions = errors.New("no questions available")
	// ErrSessionFinished is returned when a trigger arrives after completion.
	ErrSessionFinished = errors.New("session already finished")
)

// ValidationError reports a malformed required field in a question row.
// It is fatal to session bootstrap and surfaced to the user.
type ValidationError struct {
	Row   int
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("row %d: required field %q is empty or invalid", e.Row, e.Field)
}

// DuplicateIDError reports a repeated id within one loaded batch.
type DuplicateIDError struct {
	Row int
	ID  string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("row %d: duplicate id %q", e.Row, e.ID)
}
