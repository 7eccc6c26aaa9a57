package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/piiopah-aardvark/Rutabaga-QA-Website/models"
)

// Queue item statuses from which a reviewer may still act on the item.
// Once submitted, only a re-review request re-opens it.
var reviewableStatuses = map[string]bool{
	models.StatusPending: true,
	models.StatusDraft:   true,
	models.StatusFlagged: true,
}

// SubmitResult is the outcome of a submit. ProductionErr carries a
// reconciliation failure that did not roll back the review itself.
type SubmitResult struct {
	Review        *models.Review
	Updates       []models.ProductionUpdate
	ProductionErr error
}

// NextResponse picks the next queue item for a reviewer and intent. Approved
// re-review requests by this reviewer come first, then items nobody has
// reviewed yet.
func NextResponse(db *gorm.DB, intent string, reviewerID uint) (*models.ResponseQueue, error) {
	var item models.ResponseQueue

	err := db.
		Joins("JOIN rereview_requests ON rereview_requests.response_queue_id = response_queues.id").
		Where("response_queues.intent = ? AND response_queues.status = ?", intent, models.StatusPending).
		Where("rereview_requests.requested_by = ? AND rereview_requests.status = ?", reviewerID, "approved").
		First(&item).Error
	if err == nil {
		return &item, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &PersistenceError{Op: "next response query", Err: err}
	}

	err = db.
		Joins("LEFT JOIN reviews ON reviews.response_queue_id = response_queues.id").
		Where("response_queues.intent = ? AND response_queues.status = ?", intent, models.StatusPending).
		Where("reviews.id IS NULL").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "next response query", Err: err}
	}
	return &item, nil
}

// SaveDraft records a new draft version for the queue item.
func SaveDraft(db *gorm.DB, queueID, reviewerID uint, sessionID string, scores models.SegmentScores, notes string) (*models.Review, error) {
	var review *models.Review

	err := db.Transaction(func(tx *gorm.DB) error {
		queue, err := lockQueueItem(tx, queueID)
		if err != nil {
			return err
		}
		if !reviewableStatuses[queue.Status] {
			return &StateConflictError{CurrentStatus: queue.Status, Msg: "cannot save draft"}
		}
		if err := validateScores(queue.Intent, scores, false); err != nil {
			return err
		}

		review, err = createReviewVersion(tx, queue, &models.Review{
			ReviewerID:    reviewerID,
			SegmentScores: scores,
			OverallNotes:  notes,
			Status:        models.StatusDraft,
		})
		if err != nil {
			return err
		}
		if err := transitionQueueItem(tx, queue, models.StatusDraft); err != nil {
			return err
		}
		if err := appendAudit(tx, &review.ID, reviewerID, "saved_draft", queue.Status, models.StatusDraft, nil); err != nil {
			return err
		}
		if err := bumpReviewerTotal(tx, reviewerID, "total_drafts_saved"); err != nil {
			return err
		}
		return bumpSessionCounter(tx, sessionID, "reviews_drafted")
	})
	if err != nil {
		return nil, err
	}

	log.Printf("draft saved: queue=%d version=%d reviewer=%d", queueID, review.Version, reviewerID)
	return review, nil
}

// Flag records a new flagged version. The reason is mandatory; scores are
// optional but validated when present. Flagging an already flagged item is
// allowed and creates another version.
func Flag(db *gorm.DB, queueID, reviewerID uint, sessionID, reason string, scores models.SegmentScores, notes string) (*models.Review, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, &ValidationError{Msg: "flag reason is required"}
	}

	var review *models.Review

	err := db.Transaction(func(tx *gorm.DB) error {
		queue, err := lockQueueItem(tx, queueID)
		if err != nil {
			return err
		}
		if !reviewableStatuses[queue.Status] {
			return &StateConflictError{CurrentStatus: queue.Status, Msg: "cannot flag"}
		}
		if err := validateScores(queue.Intent, scores, false); err != nil {
			return err
		}

		review, err = createReviewVersion(tx, queue, &models.Review{
			ReviewerID:    reviewerID,
			SegmentScores: scores,
			OverallNotes:  notes,
			FlagReason:    reason,
			Status:        models.StatusFlagged,
		})
		if err != nil {
			return err
		}
		if err := transitionQueueItem(tx, queue, models.StatusFlagged); err != nil {
			return err
		}
		changes := models.JSONMap{"reason": reason}
		if err := appendAudit(tx, &review.ID, reviewerID, "flagged", queue.Status, models.StatusFlagged, changes); err != nil {
			return err
		}
		if err := bumpReviewerTotal(tx, reviewerID, "total_reviews_flagged"); err != nil {
			return err
		}
		return bumpSessionCounter(tx, sessionID, "reviews_flagged")
	})
	if err != nil {
		return nil, err
	}

	log.Printf("item flagged: queue=%d version=%d reviewer=%d", queueID, review.Version, reviewerID)
	return review, nil
}

// Submit records a submitted version and then reconciles the reviewer's
// accepted edits into production. A reconciliation failure is reported in the
// result but never rolls the submitted review back; operators see a review
// that succeeded without propagating.
func Submit(db *gorm.DB, queueID, reviewerID uint, sessionID string, scores models.SegmentScores, notes string) (*SubmitResult, error) {
	var review *models.Review
	var queue *models.ResponseQueue

	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		queue, err = lockQueueItem(tx, queueID)
		if err != nil {
			return err
		}
		if !reviewableStatuses[queue.Status] {
			return &StateConflictError{CurrentStatus: queue.Status, Msg: "cannot submit"}
		}
		if err := validateScores(queue.Intent, scores, true); err != nil {
			return err
		}

		now := time.Now()
		review, err = createReviewVersion(tx, queue, &models.Review{
			ReviewerID:    reviewerID,
			SegmentScores: scores,
			OverallNotes:  notes,
			Status:        models.StatusSubmitted,
			SubmittedAt:   &now,
		})
		if err != nil {
			return err
		}
		if err := transitionQueueItem(tx, queue, models.StatusSubmitted); err != nil {
			return err
		}
		if err := appendAudit(tx, &review.ID, reviewerID, "submitted", queue.Status, models.StatusSubmitted, nil); err != nil {
			return err
		}
		if err := resolveRereviewRequests(tx, queue.ID, reviewerID); err != nil {
			return err
		}
		if err := bumpReviewerTotal(tx, reviewerID, "total_reviews_submitted"); err != nil {
			return err
		}
		return bumpSessionCounter(tx, sessionID, "reviews_completed")
	})
	if err != nil {
		return nil, err
	}

	log.Printf("review submitted: queue=%d version=%d reviewer=%d", queueID, review.Version, reviewerID)

	result := &SubmitResult{Review: review}
	updates, reconErr := Reconcile(db, review, queue)
	if reconErr != nil {
		result.ProductionErr = reconErr
		log.Printf("production update failed for review %d: %v", review.ID, reconErr)
		changes := models.JSONMap{"error": reconErr.Error()}
		if auditErr := appendAudit(db, &review.ID, reviewerID, "reconciliation_failed", models.StatusSubmitted, models.StatusSubmitted, changes); auditErr != nil {
			log.Printf("reconciliation failure audit write error: %v", auditErr)
		}
	} else {
		result.Updates = updates
	}
	return result, nil
}

// RequestRereview re-opens a submitted queue item. No new review version is
// created; the item simply re-enters the pending pool with an approved
// re-review request attached.
func RequestRereview(db *gorm.DB, queueID, reviewerID uint, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return &ValidationError{Msg: "re-review reason is required"}
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		queue, err := lockQueueItem(tx, queueID)
		if err != nil {
			return err
		}
		if queue.Status != models.StatusSubmitted {
			return &StateConflictError{CurrentStatus: queue.Status, Msg: "only submitted items can be re-reviewed"}
		}

		current, err := currentReview(tx, queue.ID)
		if err != nil {
			return err
		}

		request := models.RereviewRequest{
			ResponseQueueID:  queue.ID,
			OriginalReviewID: current.ID,
			RequestedBy:      reviewerID,
			Reason:           reason,
			Status:           "approved",
			CreatedAt:        time.Now(),
		}
		if err := tx.Create(&request).Error; err != nil {
			return &PersistenceError{Op: "rereview request insert", Err: err}
		}
		if err := transitionQueueItem(tx, queue, models.StatusPending); err != nil {
			return err
		}
		changes := models.JSONMap{"reason": reason}
		return appendAudit(tx, &current.ID, reviewerID, "rereview_requested", models.StatusSubmitted, models.StatusPending, changes)
	})
	if err != nil {
		return err
	}

	log.Printf("rereview requested: queue=%d reviewer=%d", queueID, reviewerID)
	return nil
}

// Skip records that the reviewer passed on an item. No review row is created
// and the queue item stays pending; only the audit trail and the session
// counter change.
func Skip(db *gorm.DB, queueID, reviewerID uint, sessionID string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		changes := models.JSONMap{"response_id": queueID}
		if err := appendAudit(tx, nil, reviewerID, "skipped", "", "", changes); err != nil {
			return err
		}
		return bumpSessionCounter(tx, sessionID, "reviews_skipped")
	})
}

// CurrentReview returns the highest-version review for a queue item.
func CurrentReview(db *gorm.DB, queueID uint) (*models.Review, error) {
	return currentReview(db, queueID)
}

func currentReview(tx *gorm.DB, queueID uint) (*models.Review, error) {
	var review models.Review
	err := tx.Where("response_queue_id = ?", queueID).
		Order("version DESC").
		First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, &PersistenceError{Op: "current review query", Err: err}
	}
	return &review, nil
}

func lockQueueItem(tx *gorm.DB, queueID uint) (*models.ResponseQueue, error) {
	var queue models.ResponseQueue
	err := tx.First(&queue, queueID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, &PersistenceError{Op: "queue item load", Err: err}
	}
	return &queue, nil
}

// createReviewVersion assigns the next version for the queue item and inserts
// the row. The unique index on (response_queue_id, version) makes the loser
// of a concurrent race fail here instead of overwriting a committed version.
func createReviewVersion(tx *gorm.DB, queue *models.ResponseQueue, review *models.Review) (*models.Review, error) {
	var maxVersion int
	err := tx.Model(&models.Review{}).
		Where("response_queue_id = ?", queue.ID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&maxVersion).Error
	if err != nil {
		return nil, &PersistenceError{Op: "version query", Err: err}
	}

	review.ResponseQueueID = queue.ID
	review.Version = maxVersion + 1
	review.CreatedAt = time.Now()

	if err := tx.Create(review).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &StateConflictError{CurrentStatus: queue.Status, Msg: "concurrent review detected"}
		}
		return nil, &PersistenceError{Op: "review insert", Err: err}
	}
	return review, nil
}

// transitionQueueItem moves the queue item to newStatus, guarded by the status
// read at the start of the transaction. Zero rows affected means another
// writer got there first.
func transitionQueueItem(tx *gorm.DB, queue *models.ResponseQueue, newStatus string) error {
	res := tx.Model(&models.ResponseQueue{}).
		Where("id = ? AND status = ?", queue.ID, queue.Status).
		Updates(map[string]interface{}{"status": newStatus, "last_modified": time.Now()})
	if res.Error != nil {
		return &PersistenceError{Op: "queue status update", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return &StateConflictError{CurrentStatus: queue.Status, Msg: "queue item changed concurrently"}
	}
	return nil
}

func appendAudit(tx *gorm.DB, reviewID *uint, reviewerID uint, action, prev, next string, changes models.JSONMap) error {
	entry := models.ReviewAuditLog{
		ReviewID:       reviewID,
		ReviewerID:     reviewerID,
		Action:         action,
		PreviousStatus: prev,
		NewStatus:      next,
		Changes:        changes,
		Timestamp:      time.Now(),
	}
	if err := tx.Create(&entry).Error; err != nil {
		return &PersistenceError{Op: "audit log insert", Err: err}
	}
	return nil
}

func bumpSessionCounter(tx *gorm.DB, sessionID, column string) error {
	if sessionID == "" {
		return nil
	}
	err := tx.Model(&models.ReviewSession{}).
		Where("id = ?", sessionID).
		UpdateColumn(column, gorm.Expr(column+" + 1")).Error
	if err != nil {
		return &PersistenceError{Op: "session counter update", Err: err}
	}
	return nil
}

func bumpReviewerTotal(tx *gorm.DB, reviewerID uint, column string) error {
	err := tx.Model(&models.Reviewer{}).
		Where("id = ?", reviewerID).
		UpdateColumn(column, gorm.Expr(column+" + 1")).Error
	if err != nil {
		return &PersistenceError{Op: "reviewer total update", Err: err}
	}
	return nil
}

// resolveRereviewRequests closes this reviewer's approved requests once they
// act on the item again.
func resolveRereviewRequests(tx *gorm.DB, queueID, reviewerID uint) error {
	now := time.Now()
	err := tx.Model(&models.RereviewRequest{}).
		Where("response_queue_id = ? AND requested_by = ? AND status = ?", queueID, reviewerID, "approved").
		Updates(map[string]interface{}{"status": "resolved", "resolved_at": &now}).Error
	if err != nil {
		return &PersistenceError{Op: "rereview request resolve", Err: err}
	}
	return nil
}

// validateScores checks reviewer input against the intent's rubric. With
// requireAll set, every required segment must carry a score (submit); without
// it, whatever was scored just has to be well-formed (draft, flag).
func validateScores(intent string, scores models.SegmentScores, requireAll bool) error {
	rubric := RubricFor(intent)
	known := make(map[string]bool, len(rubric))
	for _, seg := range rubric {
		known[seg.ID] = true
	}

	for id, score := range scores {
		if !known[id] {
			return &ValidationError{Msg: fmt.Sprintf("unknown segment %q for intent %q", id, intent)}
		}
		if score.Score < 0 || score.Score > 5 {
			return &ValidationError{Msg: fmt.Sprintf("segment %s score %d is out of range 0-5", id, score.Score)}
		}
	}

	if requireAll {
		for _, seg := range rubric {
			if !seg.Required {
				continue
			}
			if _, ok := scores[seg.ID]; !ok {
				return &ValidationError{Msg: fmt.Sprintf("segment %s (%s) must be scored before submitting", seg.ID, seg.Label)}
			}
		}
	}
	return nil
}
