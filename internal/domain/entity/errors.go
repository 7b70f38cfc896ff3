package entity

import "errors"

var (
	ErrElementNotFound = errors.New("element not found")
	ErrUnknownTheme    = errors.New("unknown theme")
	ErrUnknownLayout   = errors.New("unknown layout mode")
	ErrInvalidScale    = errors.New("invalid font scale")
	ErrUnknownCommand  = errors.New("unknown command")
	ErrNoDocument      = errors.New("no document attached")
	ErrRateLimited     = errors.New("prefetch rate limit exceeded")
	ErrInvalidArgs     = errors.New("invalid arguments")
)
