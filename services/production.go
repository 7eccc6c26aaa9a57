package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/piiopah-aardvark/Rutabaga-QA-Website/models"
)

type stagedField struct {
	column   string
	oldValue string
	newValue string
}

// Reconcile propagates the reviewer's accepted edits into the production
// table mapped for the queue item's intent. Only segments with a mapped
// column and a non-empty suggestion are written; a suggestion-free review is
// a no-op. The UPDATE and the per-field ProductionUpdate rows commit as one
// transaction, so a mid-batch failure leaves the production row untouched.
func Reconcile(db *gorm.DB, review *models.Review, queue *models.ResponseQueue) ([]models.ProductionUpdate, error) {
	cfg, ok := IntentConfigFor(queue.Intent)
	if !ok {
		return nil, &UnknownIntentError{Intent: queue.Intent}
	}

	lookup := make(map[string]string, len(cfg.Lookups))
	conditions := make([]string, 0, len(cfg.Lookups))
	args := make([]interface{}, 0, len(cfg.Lookups))
	for _, lf := range cfg.Lookups {
		value, ok := queue.Slots[lf.Slot]
		if !ok || strings.TrimSpace(value) == "" {
			return nil, &MissingSlotError{Intent: queue.Intent, Slot: lf.Slot}
		}
		lookup[lf.Column] = value
		conditions = append(conditions, lf.Column+" = ?")
		args = append(args, value)
	}
	where := strings.Join(conditions, " AND ")
	target := cfg.Target()

	var matches int64
	err := db.Raw("SELECT COUNT(*) FROM "+target+" WHERE "+where, args...).Scan(&matches).Error
	if err != nil {
		return nil, &ReconciliationError{Op: "lookup", Err: err}
	}
	if matches == 0 {
		return nil, &RecordNotFoundError{Target: target, Lookup: lookup}
	}
	if matches > 1 {
		return nil, &AmbiguousRecordError{Target: target, Matches: matches, Lookup: lookup}
	}

	staged, err := stageFieldUpdates(db, cfg, review, target, where, args)
	if err != nil {
		return nil, err
	}
	if len(staged) == 0 {
		log.Printf("no production fields to update for review %d (no suggestions)", review.ID)
		return nil, nil
	}

	updates := make([]models.ProductionUpdate, 0, len(staged))
	err = db.Transaction(func(tx *gorm.DB) error {
		setClauses := make([]string, 0, len(staged))
		setArgs := make([]interface{}, 0, len(staged)+len(args))
		for _, sf := range staged {
			setClauses = append(setClauses, sf.column+" = ?")
			setArgs = append(setArgs, sf.newValue)
		}
		setArgs = append(setArgs, args...)

		res := tx.Exec("UPDATE "+target+" SET "+strings.Join(setClauses, ", ")+" WHERE "+where, setArgs...)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("update matched no rows in %s", target)
		}

		now := time.Now()
		for _, sf := range staged {
			record := models.ProductionUpdate{
				ReviewID:     review.ID,
				Intent:       queue.Intent,
				TargetSchema: cfg.Schema,
				TargetTable:  cfg.Table,
				Field:        sf.column,
				OldValue:     sf.oldValue,
				NewValue:     sf.newValue,
				UpdatedBy:    review.ReviewerID,
				UpdatedAt:    now,
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
			updates = append(updates, record)
		}
		return nil
	})
	if err != nil {
		return nil, &ReconciliationError{Op: "apply", Err: err}
	}

	log.Printf("production updated: review=%d table=%s fields=%d", review.ID, target, len(updates))
	return updates, nil
}

// stageFieldUpdates reads the current production values and pairs them with
// the reviewer's suggestions, in rubric order.
func stageFieldUpdates(db *gorm.DB, cfg IntentConfig, review *models.Review, target, where string, args []interface{}) ([]stagedField, error) {
	columns := make([]string, 0, len(cfg.Segments))
	for _, seg := range cfg.Segments {
		if col := cfg.SegmentFields[seg.ID]; col != "" {
			columns = append(columns, col)
		}
	}

	row := map[string]interface{}{}
	err := db.Raw("SELECT "+strings.Join(columns, ", ")+" FROM "+target+" WHERE "+where, args...).Scan(&row).Error
	if err != nil {
		return nil, &ReconciliationError{Op: "read", Err: err}
	}

	var staged []stagedField
	for _, seg := range cfg.Segments {
		column := cfg.SegmentFields[seg.ID]
		if column == "" {
			continue
		}
		score, ok := review.SegmentScores[seg.ID]
		if !ok || strings.TrimSpace(score.Suggestion) == "" {
			continue
		}
		staged = append(staged, stagedField{
			column:   column,
			oldValue: columnString(row[column]),
			newValue: score.Suggestion,
		})
	}
	return staged, nil
}

// RollbackUpdate restores the recorded previous value of one production
// update. Operator-driven; nothing rolls back automatically.
func RollbackUpdate(db *gorm.DB, updateID, adminID uint, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return &ValidationError{Msg: "rollback reason is required"}
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var record models.ProductionUpdate
		if err := tx.First(&record, updateID).Error; err != nil {
			return err
		}
		if record.RolledBack {
			return &StateConflictError{CurrentStatus: "rolled_back", Msg: "update already rolled back"}
		}

		var review models.Review
		if err := tx.First(&review, record.ReviewID).Error; err != nil {
			return &PersistenceError{Op: "review load", Err: err}
		}
		var queue models.ResponseQueue
		if err := tx.First(&queue, review.ResponseQueueID).Error; err != nil {
			return &PersistenceError{Op: "queue item load", Err: err}
		}

		cfg, ok := IntentConfigFor(record.Intent)
		if !ok {
			return &UnknownIntentError{Intent: record.Intent}
		}

		conditions := make([]string, 0, len(cfg.Lookups))
		args := []interface{}{record.OldValue}
		for _, lf := range cfg.Lookups {
			value, ok := queue.Slots[lf.Slot]
			if !ok {
				return &MissingSlotError{Intent: record.Intent, Slot: lf.Slot}
			}
			conditions = append(conditions, lf.Column+" = ?")
			args = append(args, value)
		}

		res := tx.Exec(
			"UPDATE "+cfg.Target()+" SET "+record.Field+" = ? WHERE "+strings.Join(conditions, " AND "),
			args...,
		)
		if res.Error != nil {
			return &ReconciliationError{Op: "rollback", Err: res.Error}
		}
		if res.RowsAffected == 0 {
			return &RecordNotFoundError{Target: cfg.Target(), Lookup: map[string]string(queue.Slots)}
		}

		now := time.Now()
		err := tx.Model(&record).Updates(map[string]interface{}{
			"rolled_back":     true,
			"rollback_reason": reason,
		}).Error
		if err != nil {
			return &PersistenceError{Op: "rollback bookkeeping", Err: err}
		}

		changes := models.JSONMap{
			"production_update_id": record.ID,
			"field":                record.Field,
			"restored_value":       record.OldValue,
			"reason":               reason,
			"rolled_back_at":       now.Format(time.RFC3339),
		}
		return appendAudit(tx, &record.ReviewID, adminID, "production_rollback", "", "", changes)
	})
}

func columnString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
