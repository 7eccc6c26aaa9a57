package services

import (
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/piiopah-aardvark/Rutabaga-QA-Website/models"
)

// staleDraftAge is how long a drafted item may sit untouched before it
// returns to the pending pool for someone else to pick up.
const staleDraftAge = 7 * 24 * time.Hour

// ReclaimStaleDrafts returns long-abandoned drafts to the pending pool. The
// draft review rows stay in place as history; only the queue status moves.
func ReclaimStaleDrafts(db *gorm.DB) {
	cutoff := time.Now().Add(-staleDraftAge)

	var items []models.ResponseQueue
	err := db.Where("status = ? AND last_modified < ?", models.StatusDraft, cutoff).
		Find(&items).Error
	if err != nil {
		log.Printf("stale draft query error: %v", err)
		return
	}

	reclaimed := 0
	for i := range items {
		item := &items[i]
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := transitionQueueItem(tx, item, models.StatusPending); err != nil {
				return err
			}
			current, err := currentReview(tx, item.ID)
			if err != nil {
				return err
			}
			changes := models.JSONMap{"reason": "stale draft reclaimed"}
			return appendAudit(tx, &current.ID, current.ReviewerID, "draft_reclaimed", models.StatusDraft, models.StatusPending, changes)
		})
		if err != nil {
			log.Printf("stale draft reclaim error (queue=%d): %v", item.ID, err)
			continue
		}
		reclaimed++
	}

	if reclaimed > 0 {
		log.Printf("stale drafts reclaimed: %d", reclaimed)
	}
}
