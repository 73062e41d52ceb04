package apperror

import "errors"

var (
	ErrSessionActive  = errors.New("a session is already active")
	ErrStartFailed    = errors.New("failed to start the game")
	ErrStaleResponse  = errors.New("response belongs to a session that was reset")
	ErrStatsNotCached = errors.New("no stats snapshot cached")
)
