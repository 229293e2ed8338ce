package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a diagnostic session does not exist.
	ErrSessionNotFound = errors.New("diagnostic session not found")
	// ErrBankNotFound indicates the question bank could not be loaded.
	ErrBankNotFound = errors.New("question bank not found")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a submitted option ID is invalid.
	ErrOptionNotFound = errors.New("option not found")
	// ErrInvalidTransition is returned when an action is not allowed in the current step.
	ErrInvalidTransition = errors.New("action not allowed in current step")
	// ErrIncompleteAnswers refuses finalization before every question is answered.
	ErrIncompleteAnswers = errors.New("not every question has been answered")
	// ErrInvalidProfile rejects a form submission with missing required fields.
	ErrInvalidProfile = errors.New("profile is missing required fields")
	// ErrInvalidBank rejects a bank definition that violates catalog invariants.
	ErrInvalidBank = errors.New("invalid question bank definition")
)
