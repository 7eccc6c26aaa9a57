package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
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

	if err := db.Exec(`ATTACH DATABASE ':memory:' AS public`).Error; err != nil {
		t.Fatalf("fail to attach public schema: %v", err)
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

	return db
}

func setupTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api", ReviewerAuth(db))
	{
		api.GET("/next-response", HandleNextResponse(db))
		api.POST("/responses/:id/draft", HandleSaveDraft(db))
		api.POST("/responses/:id/flag", HandleFlag(db))
		api.POST("/responses/:id/submit", HandleSubmit(db))
		api.POST("/responses/:id/rereview", HandleRereview(db))
		api.POST("/responses/:id/skip", HandleSkip(db))
		api.POST("/session/start", HandleStartSession(db))
		api.GET("/session/stats", HandleSessionStats(db))
		api.POST("/production-updates/:id/rollback", HandleRollback(db))
	}
	return r
}

func seedReviewer(t *testing.T, db *gorm.DB, email, role string) *models.Reviewer {
	reviewer := models.Reviewer{
		Email:    email,
		FullName: email,
		Role:     role,
		IsActive: true,
	}
	if err := db.Create(&reviewer).Error; err != nil {
		t.Fatalf("fail to create reviewer: %v", err)
	}
	return &reviewer
}

func seedQueueItem(t *testing.T, db *gorm.DB) *models.ResponseQueue {
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
	return &item
}

func doJSON(r *gin.Engine, method, path, email string, payload interface{}) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer([]byte("{}"))
	}

	req, _ := http.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if email != "" {
		req.Header.Set("X-Reviewer-Email", email)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("fail to decode response: %v", err)
	}
	return body
}

func fullScorePayload(suggestion string) map[string]interface{} {
	scores := map[string]interface{}{
		"S1": map[string]interface{}{"score": 5},
		"S2": map[string]interface{}{"score": 4},
		"S3": map[string]interface{}{"score": 5},
	}
	if suggestion != "" {
		scores["S2"] = map[string]interface{}{"score": 4, "suggestion": suggestion}
	}
	return map[string]interface{}{"segment_scores": scores}
}

func TestAuthRejectsAnonymous(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	w := doJSON(router, "GET", "/api/next-response", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRejectsUnknownReviewer(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	w := doJSON(router, "GET", "/api/next-response", "stranger@example.com", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthRejectsInactiveReviewer(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	reviewer := seedReviewer(t, db, "gone@example.com", "reviewer")
	db.Model(reviewer).Update("is_active", false)

	w := doJSON(router, "GET", "/api/next-response", "gone@example.com", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestNextResponseFlow(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	seedReviewer(t, db, "reviewer@example.com", "reviewer")

	w := doJSON(router, "GET", "/api/next-response?intent=interaction", "reviewer@example.com", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeBody(t, w)["found"])

	seedQueueItem(t, db)
	w = doJSON(router, "GET", "/api/next-response?intent=interaction", "reviewer@example.com", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["found"])
}

func TestSubmitFlow(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	seedReviewer(t, db, "reviewer@example.com", "reviewer")
	item := seedQueueItem(t, db)

	w := doJSON(router, "POST", "/api/session/start", "reviewer@example.com", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, "POST", "/api/responses/1/submit", "reviewer@example.com",
		fullScorePayload("Monitor INR closely."))
	assert.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, float64(1), body["version"])
	assert.Equal(t, "submitted", body["status"])
	assert.Equal(t, float64(1), body["production_updates"])
	assert.NotContains(t, body, "production_update_error")

	var queue models.ResponseQueue
	db.First(&queue, item.ID)
	assert.Equal(t, models.StatusSubmitted, queue.Status)

	var guidance string
	db.Raw("SELECT guidance FROM public.document_ddi_pairs WHERE subject_drug = ?", "warfarin").Scan(&guidance)
	assert.Equal(t, "Monitor INR closely.", guidance)

	w = doJSON(router, "GET", "/api/session/stats", "reviewer@example.com", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	stats := decodeBody(t, w)
	assert.Equal(t, float64(1), stats["session_reviews"])
	assert.Equal(t, float64(1), stats["total_reviews"])
}

func TestSubmitValidationError(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	seedReviewer(t, db, "reviewer@example.com", "reviewer")
	seedQueueItem(t, db)

	payload := map[string]interface{}{
		"segment_scores": map[string]interface{}{
			"S1": map[string]interface{}{"score": 9},
		},
	}
	w := doJSON(router, "POST", "/api/responses/1/submit", "reviewer@example.com", payload)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitConflictAfterSubmit(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	seedReviewer(t, db, "reviewer@example.com", "reviewer")
	seedQueueItem(t, db)

	w := doJSON(router, "POST", "/api/responses/1/submit", "reviewer@example.com", fullScorePayload(""))
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, "POST", "/api/responses/1/submit", "reviewer@example.com", fullScorePayload(""))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "submitted", decodeBody(t, w)["current_status"])
}

func TestSubmitReportsReconciliationFailure(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	seedReviewer(t, db, "reviewer@example.com", "reviewer")

	// Queue item with no matching production row.
	item := models.ResponseQueue{
		Intent: "interaction",
		Slots:  models.Slots{"drug_a": "nosuch", "drug_b": "drugs"},
		Status: models.StatusPending,
	}
	assert.NoError(t, db.Create(&item).Error)

	w := doJSON(router, "POST", "/api/responses/1/submit", "reviewer@example.com", fullScorePayload(""))
	assert.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "submitted", body["status"])
	assert.Contains(t, body, "production_update_error")
}

func TestFlagAndRereview(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	seedReviewer(t, db, "reviewer@example.com", "reviewer")
	seedQueueItem(t, db)

	payload := map[string]interface{}{"flag_reason": "guidance contradicts the label"}
	w := doJSON(router, "POST", "/api/responses/1/flag", "reviewer@example.com", payload)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "flagged", decodeBody(t, w)["status"])

	// Re-review before submission is a state conflict.
	w = doJSON(router, "POST", "/api/responses/1/rereview", "reviewer@example.com",
		map[string]interface{}{"reason": "look again"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(router, "POST", "/api/responses/1/submit", "reviewer@example.com", fullScorePayload(""))
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, "POST", "/api/responses/1/rereview", "reviewer@example.com",
		map[string]interface{}{"reason": "look again"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pending", decodeBody(t, w)["status"])
}

func TestMissingItemIs404(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	seedReviewer(t, db, "reviewer@example.com", "reviewer")

	w := doJSON(router, "POST", "/api/responses/42/draft", "reviewer@example.com",
		map[string]interface{}{"segment_scores": map[string]interface{}{"S1": map[string]interface{}{"score": 3}}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRollbackRequiresAdmin(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	seedReviewer(t, db, "reviewer@example.com", "reviewer")
	seedReviewer(t, db, "admin@example.com", "admin")
	seedQueueItem(t, db)

	w := doJSON(router, "POST", "/api/responses/1/submit", "reviewer@example.com",
		fullScorePayload("Rewritten guidance."))
	assert.Equal(t, http.StatusOK, w.Code)

	var update models.ProductionUpdate
	assert.NoError(t, db.First(&update).Error)

	payload := map[string]interface{}{"reason": "bad edit"}
	w = doJSON(router, "POST", "/api/production-updates/1/rollback", "reviewer@example.com", payload)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(router, "POST", "/api/production-updates/1/rollback", "admin@example.com", payload)
	assert.Equal(t, http.StatusOK, w.Code)

	var guidance string
	db.Raw("SELECT guidance FROM public.document_ddi_pairs WHERE subject_drug = ?", "warfarin").Scan(&guidance)
	assert.Equal(t, "Avoid combination unless directed.", guidance)
}

func TestSkipEndpoint(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	seedReviewer(t, db, "reviewer@example.com", "reviewer")
	seedQueueItem(t, db)

	w := doJSON(router, "POST", "/api/responses/1/skip", "reviewer@example.com", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var queue models.ResponseQueue
	db.First(&queue, 1)
	assert.Equal(t, models.StatusPending, queue.Status)
}
