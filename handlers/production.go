package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/piiopah-aardvark/Rutabaga-QA-Website/services"
)

type rollbackPayload struct {
	Reason string `json:"reason"`
}

// HandleRollback restores the recorded previous value of a production update.
// Admin only; this is the operator-driven undo for a bad reconciliation.
func HandleRollback(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		reviewer := currentReviewer(c)
		if !reviewer.IsAdmin() {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}

		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid production update id"})
			return
		}

		var payload rollbackPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}

		if err := services.RollbackUpdate(db, uint(id), reviewer.ID, payload.Reason); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"rolled_back": true})
	}
}
