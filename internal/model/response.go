package model

import "time"

// Response is a single answer submission. Unique on (SessionID, ItemID).
type Response struct {
	ID        int64
	UserID    int64
	SessionID int64
	ItemID    int64

	SubmittedAnswer int
	Correct         bool
	LatencySeconds  float64
	AnsweredAt      time.Time
}
