package services

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/piiopah-aardvark/Rutabaga-QA-Website/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("fail to open test db: %v", err)
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
		t.Fatalf("fail to migrate test db: %v", err)
	}

	// Production tables live in their own schemas; attach in-memory databases
	// so the schema-qualified SQL runs unchanged.
	if err := db.Exec(`ATTACH DATABASE ':memory:' AS public`).Error; err != nil {
		t.Fatalf("fail to attach public schema: %v", err)
	}
	if err := db.Exec(`ATTACH DATABASE ':memory:' AS content`).Error; err != nil {
		t.Fatalf("fail to attach content schema: %v", err)
	}
	err = db.Exec(`CREATE TABLE public.document_ddi_pairs (
		subject_drug TEXT,
		object_drug TEXT,
		effect_s1 TEXT,
		guidance TEXT,
		effect_complete TEXT
	)`).Error
	if err != nil {
		t.Fatalf("fail to create ddi table: %v", err)
	}
	err = db.Exec(`CREATE TABLE content.drug_dosing (
		drug_id TEXT,
		indication TEXT,
		dose_value TEXT,
		frequency TEXT,
		special_considerations TEXT
	)`).Error
	if err != nil {
		t.Fatalf("fail to create dosing table: %v", err)
	}

	return db
}

func createTestReviewer(t *testing.T, db *gorm.DB) *models.Reviewer {
	reviewer := models.Reviewer{
		Email:    "reviewer@example.com",
		FullName: "Test Reviewer",
		Role:     "reviewer",
		IsActive: true,
	}
	if err := db.Create(&reviewer).Error; err != nil {
		t.Fatalf("fail to create reviewer: %v", err)
	}
	return &reviewer
}

func createInteractionItem(t *testing.T, db *gorm.DB) *models.ResponseQueue {
	item := models.ResponseQueue{
		Intent:    "interaction",
		QueryText: "Can I take warfarin with aspirin?",
		Slots:     models.Slots{"drug_a": "warfarin", "drug_b": "aspirin"},
		Segments: models.SegmentList{
			{ID: "S1", Text: "Increased bleeding risk."},
			{ID: "S2", Text: "Avoid combination unless directed."},
			{ID: "S3", Text: "Both drugs inhibit clotting pathways."},
			{ID: "S4", Text: "FDA DailyMed"},
		},
		Status: models.StatusPending,
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("fail to create queue item: %v", err)
	}
	return &item
}

func seedInteractionRow(t *testing.T, db *gorm.DB) {
	err := db.Exec(`INSERT INTO public.document_ddi_pairs
		(subject_drug, object_drug, effect_s1, guidance, effect_complete)
		VALUES (?, ?, ?, ?, ?)`,
		"warfarin", "aspirin",
		"Increased bleeding risk.",
		"Avoid combination unless directed.",
		"Both drugs inhibit clotting pathways.",
	).Error
	if err != nil {
		t.Fatalf("fail to seed production row: %v", err)
	}
}

func fullScores() models.SegmentScores {
	return models.SegmentScores{
		"S1": {Score: 5},
		"S2": {Score: 4},
		"S3": {Score: 5},
	}
}
