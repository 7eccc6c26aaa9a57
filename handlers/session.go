package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/piiopah-aardvark/Rutabaga-QA-Website/services"
)

// HandleStartSession opens a fresh counter session for the reviewer.
func HandleStartSession(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		reviewer := currentReviewer(c)
		session, err := services.StartSession(db, reviewer.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"session_id":    session.ID,
			"session_start": session.SessionStart,
		})
	}
}

// HandleSessionStats reports the open session's counters plus lifetime totals.
func HandleSessionStats(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		reviewer := currentReviewer(c)
		session, err := services.ActiveSession(db, reviewer.ID)
		if err != nil {
			respondError(c, err)
			return
		}

		stats := gin.H{
			"session_reviews": 0,
			"session_flagged": 0,
			"session_drafted": 0,
			"session_skipped": 0,
			"total_reviews":   reviewer.TotalReviewsSubmitted,
		}
		if session != nil {
			stats["session_id"] = session.ID
			stats["session_reviews"] = session.ReviewsCompleted
			stats["session_flagged"] = session.ReviewsFlagged
			stats["session_drafted"] = session.ReviewsDrafted
			stats["session_skipped"] = session.ReviewsSkipped
		}
		c.JSON(http.StatusOK, stats)
	}
}
