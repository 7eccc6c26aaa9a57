package models

import "time"

// ReviewAuditLog is the append-only trail of review actions. ReviewID is nil
// for actions that create no review row (skip).
type ReviewAuditLog struct {
	ID             uint  `gorm:"primaryKey"`
	ReviewID       *uint `gorm:"index"`
	ReviewerID     uint  `gorm:"index"`
	Action         string
	PreviousStatus string
	NewStatus      string
	Changes        JSONMap   `gorm:"type:text"`
	Timestamp      time.Time `gorm:"index"`
}
