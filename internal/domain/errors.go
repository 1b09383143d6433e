package domain

import "errors"

var (
	ErrInvalidID        = errors.New("invalid id")
	ErrInvalidName      = errors.New("invalid name")
	ErrInvalidTitle     = errors.New("invalid title")
	ErrInvalidPriority  = errors.New("invalid priority")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrInvalidSeverity  = errors.New("invalid severity")
	ErrInvalidTaskType  = errors.New("invalid task type")
	ErrInvalidRole      = errors.New("invalid role")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidDateRange = errors.New("start date after due date")
	ErrUnknownField     = errors.New("unknown field")
)
