package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// AnswerRequest matches the answer service's DirectAnswerRequest schema.
type AnswerRequest struct {
	MessageID   string            `json:"message_id"`
	Intent      string            `json:"intent"`
	Slots       map[string]string `json:"slots"`
	Confidence  float64           `json:"confidence"`
	AppVersion  string            `json:"app_version"`
	DeviceClass string            `json:"device_class"`
}

// AnswerClient calls the answer generation service, used to regenerate a
// response when an item goes back through review.
type AnswerClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func NewAnswerClient() *AnswerClient {
	url := os.Getenv("ANSWER_SERVICE_URL")
	if url == "" {
		url = "http://localhost:8000/v2/answer"
	}
	return &AnswerClient{
		BaseURL:    url,
		APIKey:     os.Getenv("ANSWER_SERVICE_API_KEY"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// GenerateResponse asks the answer service for a fresh response for the given
// intent and slots.
func (c *AnswerClient) GenerateResponse(intent string, slots map[string]string, messageID string) (map[string]interface{}, error) {
	payload := AnswerRequest{
		MessageID:   messageID,
		Intent:      intent,
		Slots:       slots,
		Confidence:  1.0,
		AppVersion:  "qa-website-1.0",
		DeviceClass: "qa_testing",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest("POST", c.BaseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("answer service returned %d: %s", resp.StatusCode, string(body))
	}

	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}
	return result, nil
}
