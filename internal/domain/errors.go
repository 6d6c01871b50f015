package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrUntrackedCurrency = errors.New("untracked currency")
	ErrInvalidSubscriber = errors.New("invalid subscriber id")
)
