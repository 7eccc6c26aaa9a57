package models

import "time"

// Reviewer is an authorized QA reviewer. Authentication happens upstream;
// requests arrive with a resolved identity that must match an active row here.
type Reviewer struct {
	ID                    uint   `gorm:"primaryKey"`
	Email                 string `gorm:"uniqueIndex"`
	FullName              string
	Specialization        string
	Role                  string `gorm:"default:reviewer"` // "reviewer", "admin"
	IsActive              bool   `gorm:"default:true"`
	CreatedAt             time.Time
	LastLogin             *time.Time
	TotalReviewsSubmitted int
	TotalReviewsFlagged   int
	TotalDraftsSaved      int
}

func (r *Reviewer) IsAdmin() bool {
	return r.Role == "admin"
}
