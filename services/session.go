package services

import (
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/piiopah-aardvark/Rutabaga-QA-Website/models"
)

// StartSession opens a fresh counter session for the reviewer, closing any
// session left open. Counters always start at zero; starting a new session is
// the only way to reset them.
func StartSession(db *gorm.DB, reviewerID uint) (*models.ReviewSession, error) {
	var session *models.ReviewSession

	err := db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		err := tx.Model(&models.ReviewSession{}).
			Where("reviewer_id = ? AND session_end IS NULL", reviewerID).
			Update("session_end", now).Error
		if err != nil {
			return &PersistenceError{Op: "session close", Err: err}
		}

		session = &models.ReviewSession{
			ID:           uuid.NewString(),
			ReviewerID:   reviewerID,
			SessionStart: now,
		}
		if err := tx.Create(session).Error; err != nil {
			return &PersistenceError{Op: "session insert", Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("session started: id=%s reviewer=%d", session.ID, reviewerID)
	return session, nil
}

// ActiveSession returns the reviewer's open session, or nil when none is open.
func ActiveSession(db *gorm.DB, reviewerID uint) (*models.ReviewSession, error) {
	var session models.ReviewSession
	err := db.Where("reviewer_id = ? AND session_end IS NULL", reviewerID).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "session query", Err: err}
	}
	return &session, nil
}

// EndSession closes a session. Closing an already closed session is a no-op.
func EndSession(db *gorm.DB, sessionID string) error {
	err := db.Model(&models.ReviewSession{}).
		Where("id = ? AND session_end IS NULL", sessionID).
		Update("session_end", time.Now()).Error
	if err != nil {
		return &PersistenceError{Op: "session close", Err: err}
	}
	return nil
}
