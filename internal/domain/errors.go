package domain

import "errors"

var (
	ErrInvalidOperationType = errors.New("invalid operation type")
	ErrMissingWorkflowID    = errors.New("missing workflow id")
	ErrMissingUserID        = errors.New("missing user id")
)
