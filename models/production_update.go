package models

import "time"

// ProductionUpdate records one field written to a production table, with the
// prior value kept for operator-driven rollback. Append-only.
type ProductionUpdate struct {
	ID       uint `gorm:"primaryKey"`
	ReviewID uint `gorm:"index"`
	Intent   string

	TargetSchema string
	TargetTable  string `gorm:"index"`
	Field        string
	OldValue     string
	NewValue     string

	UpdatedBy uint
	UpdatedAt time.Time

	RolledBack     bool `gorm:"index"`
	RollbackReason string
}
