package models

import "time"

// ReviewSession tracks per-session counters shown in the reviewer UI.
// Counters only ever increase; a fresh session starts them at zero.
type ReviewSession struct {
	ID           string `gorm:"primaryKey"` // uuid
	ReviewerID   uint   `gorm:"index"`
	SessionStart time.Time
	SessionEnd   *time.Time `gorm:"index"`

	ReviewsCompleted int
	ReviewsFlagged   int
	ReviewsDrafted   int
	ReviewsSkipped   int
}
