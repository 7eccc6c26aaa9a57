package models

import "time"

// ResponseQueue is a generated answer waiting for review. Rows are created by
// the ingestion pipeline; only the review lifecycle mutates the status.
type ResponseQueue struct {
	ID        uint   `gorm:"primaryKey"`
	Intent    string `gorm:"index"` // "interaction", "dosing", ...
	QueryText string
	Slots     Slots `gorm:"type:text"` // natural-key values for the production lookup

	ResponseData JSONMap     `gorm:"type:text"`
	Segments     SegmentList `gorm:"type:text"`

	SourceReferences          JSONMap `gorm:"type:text"`
	GeneratedAt               time.Time
	GeneratedByServiceVersion string

	Status     string `gorm:"index;default:pending"` // "pending", "draft", "flagged", "submitted"
	AssignedTo *uint

	CreatedAt    time.Time
	LastModified time.Time `gorm:"autoUpdateTime"`
}
