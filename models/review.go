package models

import "time"

// Review is one versioned review attempt for a queue item. Rows are never
// mutated after creation: every lifecycle action inserts a new version, and
// the row with the highest version is the current review. The composite
// unique index serializes concurrent writers on the same queue item.
type Review struct {
	ID              uint `gorm:"primaryKey"`
	ResponseQueueID uint `gorm:"index:idx_queue_version,unique"`
	ReviewerID      uint `gorm:"index"`
	Version         int  `gorm:"index:idx_queue_version,unique"`

	SegmentScores SegmentScores `gorm:"type:text"`
	OverallNotes  string
	FlagReason    string

	Status string `gorm:"index"` // "draft", "flagged", "submitted"

	CreatedAt   time.Time
	SubmittedAt *time.Time
}
