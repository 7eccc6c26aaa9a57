package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/piiopah-aardvark/Rutabaga-QA-Website/models"
	"github.com/piiopah-aardvark/Rutabaga-QA-Website/services"
)

type reviewPayload struct {
	SegmentScores models.SegmentScores `json:"segment_scores"`
	OverallNotes  string               `json:"overall_notes"`
	FlagReason    string               `json:"flag_reason"`
	Reason        string               `json:"reason"`
}

func queueItemID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid queue item id"})
		return 0, false
	}
	return uint(id), true
}

// HandleNextResponse returns the next queue item for the requested intent.
func HandleNextResponse(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		intent := c.DefaultQuery("intent", "interaction")
		reviewer := currentReviewer(c)

		item, err := services.NextResponse(db, intent, reviewer.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		if item == nil {
			c.JSON(http.StatusOK, gin.H{"found": false})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"found": true,
			"response": gin.H{
				"id":         item.ID,
				"intent":     item.Intent,
				"query_text": item.QueryText,
				"segments":   item.Segments,
				"slots":      item.Slots,
				"status":     item.Status,
			},
		})
	}
}

// HandleSaveDraft stores a draft version of the review.
func HandleSaveDraft(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := queueItemID(c)
		if !ok {
			return
		}
		var payload reviewPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}

		reviewer := currentReviewer(c)
		review, err := services.SaveDraft(db, id, reviewer.ID, activeSessionID(db, reviewer.ID), payload.SegmentScores, payload.OverallNotes)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"review_id": review.ID,
			"version":   review.Version,
			"status":    review.Status,
		})
	}
}

// HandleFlag flags a queue item for admin attention.
func HandleFlag(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := queueItemID(c)
		if !ok {
			return
		}
		var payload reviewPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}

		reviewer := currentReviewer(c)
		review, err := services.Flag(db, id, reviewer.ID, activeSessionID(db, reviewer.ID), payload.FlagReason, payload.SegmentScores, payload.OverallNotes)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"review_id": review.ID,
			"version":   review.Version,
			"status":    review.Status,
		})
	}
}

// HandleSubmit records the review and reconciles accepted edits into
// production. A reconciliation failure still answers 200: the review is
// submitted, and the failure rides along for operators to act on.
func HandleSubmit(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := queueItemID(c)
		if !ok {
			return
		}
		var payload reviewPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}

		reviewer := currentReviewer(c)
		result, err := services.Submit(db, id, reviewer.ID, activeSessionID(db, reviewer.ID), payload.SegmentScores, payload.OverallNotes)
		if err != nil {
			respondError(c, err)
			return
		}

		body := gin.H{
			"review_id":          result.Review.ID,
			"version":            result.Review.Version,
			"status":             result.Review.Status,
			"production_updates": len(result.Updates),
		}
		if result.ProductionErr != nil {
			body["production_update_error"] = result.ProductionErr.Error()
		}
		c.JSON(http.StatusOK, body)
	}
}

// HandleRereview returns a submitted item to the pending pool.
func HandleRereview(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := queueItemID(c)
		if !ok {
			return
		}
		var payload reviewPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}

		reviewer := currentReviewer(c)
		if err := services.RequestRereview(db, id, reviewer.ID, payload.Reason); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": models.StatusPending})
	}
}

// HandleSkip passes on an item without reviewing it.
func HandleSkip(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := queueItemID(c)
		if !ok {
			return
		}

		reviewer := currentReviewer(c)
		if err := services.Skip(db, id, reviewer.ID, activeSessionID(db, reviewer.ID)); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"skipped": true})
	}
}
