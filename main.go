package main

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/piiopah-aardvark/Rutabaga-QA-Website/handlers"
	"github.com/piiopah-aardvark/Rutabaga-QA-Website/models"
	"github.com/piiopah-aardvark/Rutabaga-QA-Website/services"
)

func main() {
	godotenv.Load()

	db, err := openDatabase()
	if err != nil {
		log.Fatalf("database open error: %v", err)
	}

	err = db.AutoMigrate(
		&models.Reviewer{},
		&models.ResponseQueue{},
		&models.Review{},
		&models.ReviewAuditLog{},
		&models.ProductionUpdate{},
		&models.RereviewRequest{},
		&models.ReviewSession{},
	)
	if err != nil {
		log.Fatalf("migration error: %v", err)
	}

	seedApprovedReviewers(db)

	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			services.ReclaimStaleDrafts(db)
		}
	}()

	r := gin.Default()
	api := r.Group("/api", handlers.ReviewerAuth(db))
	{
		api.GET("/next-response", handlers.HandleNextResponse(db))
		api.POST("/responses/:id/draft", handlers.HandleSaveDraft(db))
		api.POST("/responses/:id/flag", handlers.HandleFlag(db))
		api.POST("/responses/:id/submit", handlers.HandleSubmit(db))
		api.POST("/responses/:id/rereview", handlers.HandleRereview(db))
		api.POST("/responses/:id/skip", handlers.HandleSkip(db))
		api.POST("/session/start", handlers.HandleStartSession(db))
		api.GET("/session/stats", handlers.HandleSessionStats(db))
		api.POST("/production-updates/:id/rollback", handlers.HandleRollback(db))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "9000"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}

// openDatabase connects to the shared backend database when DATABASE_URL is
// set, and falls back to a local sqlite file for development.
func openDatabase() (*gorm.DB, error) {
	cfg := &gorm.Config{TranslateError: true}

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return gorm.Open(postgres.Open(dsn), cfg)
	}
	return gorm.Open(sqlite.Open("qa_reviews.db"), cfg)
}

// seedApprovedReviewers makes sure the pre-approved reviewer accounts exist so
// the identity middleware can resolve them on first login.
func seedApprovedReviewers(db *gorm.DB) {
	emails := os.Getenv("APPROVED_EMAILS")
	if emails == "" {
		return
	}
	for _, email := range strings.Split(emails, ",") {
		email = strings.TrimSpace(email)
		if email == "" {
			continue
		}
		reviewer := models.Reviewer{
			Email:    email,
			FullName: email,
			Role:     "reviewer",
			IsActive: true,
		}
		err := db.Where("email = ?", email).FirstOrCreate(&reviewer).Error
		if err != nil {
			log.Printf("reviewer seed error (%s): %v", email, err)
		}
	}
}
