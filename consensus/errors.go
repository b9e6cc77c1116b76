package consensus

import "errors"

// ErrInsufficientVotes is returned when fewer than 2f+1 agents produced a
// usable vote. The round is not retried; the caller decides what to do.
var ErrInsufficientVotes = errors.New("insufficient votes for Byzantine consensus")
