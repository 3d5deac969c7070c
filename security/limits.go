package security

import "time"

// Rate-limiter defaults (spec.md §6).
const (
	MaxMovesPerMinute        = 30
	MaxInvitationsPerHour    = 20
	MaxSyncRequestsPerMinute = 10
	MaxActiveGames           = 10
	BurstMovesAllowed        = 5
	BurstWindowSeconds       = 5
)

const (
	minuteWindow = time.Minute
	hourWindow   = time.Hour
)

// Field-length bounds (spec.md §6).
const (
	MaxMoveNotationLength = 10
	MaxFenLength          = 100
	MaxReasonLength       = 500
	MaxMoveHistorySize    = 10000
)
