package exam

import "errors"

var (
	ErrNoQuestions     = errors.New("exam: question set has no questions")
	ErrInvalidMode     = errors.New("exam: unknown mode")
	ErrNoSelection     = errors.New("exam: no option selected")
	ErrNotStarted      = errors.New("exam: session not started")
	ErrFinished        = errors.New("exam: session already finished")
	ErrNotFinished     = errors.New("exam: session not finished yet")
	ErrSessionNotFound = errors.New("exam: session not found")
)
