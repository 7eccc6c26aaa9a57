package models

import "time"

// RereviewRequest re-opens a submitted queue item. Requests are auto-approved
// and consumed when the requesting reviewer submits or flags a new version.
type RereviewRequest struct {
	ID               uint `gorm:"primaryKey"`
	ResponseQueueID  uint `gorm:"index"`
	OriginalReviewID uint
	RequestedBy      uint
	Reason           string

	Status     string `gorm:"index;default:approved"` // "approved", "resolved"
	ApprovedBy *uint

	CreatedAt  time.Time
	ResolvedAt *time.Time
}
