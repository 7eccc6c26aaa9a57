package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/piiopah-aardvark/Rutabaga-QA-Website/models"
	"github.com/piiopah-aardvark/Rutabaga-QA-Website/services"
)

// ReviewerAuth resolves the reviewer for the request. Authentication itself
// happens upstream (OAuth proxy); this layer only checks that the resolved
// identity is an active reviewer.
func ReviewerAuth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetHeader("X-Reviewer-Email")
		if email == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing reviewer identity"})
			return
		}

		var reviewer models.Reviewer
		err := db.Where("email = ? AND is_active = ?", email, true).First(&reviewer).Error
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "unknown or inactive reviewer"})
			return
		}

		c.Set("reviewer", &reviewer)
		c.Next()
	}
}

func currentReviewer(c *gin.Context) *models.Reviewer {
	value, ok := c.Get("reviewer")
	if !ok {
		return nil
	}
	reviewer, _ := value.(*models.Reviewer)
	return reviewer
}

// activeSessionID returns the reviewer's open counter session, or "" when no
// session is open (counters are then simply not bumped).
func activeSessionID(db *gorm.DB, reviewerID uint) string {
	session, err := services.ActiveSession(db, reviewerID)
	if err != nil || session == nil {
		return ""
	}
	return session.ID
}
