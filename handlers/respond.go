package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/piiopah-aardvark/Rutabaga-QA-Website/services"
)

// respondError maps the service error taxonomy onto HTTP statuses.
// Reconciliation failures never reach here: submit reports them in its 200
// body because the review itself was recorded.
func respondError(c *gin.Context, err error) {
	var validation *services.ValidationError
	var conflict *services.StateConflictError

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error()})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":          conflict.Error(),
			"current_status": conflict.CurrentStatus,
		})
	default:
		log.Printf("request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
