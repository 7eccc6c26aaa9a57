package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// SegmentScore holds one reviewer judgement for a rubric segment.
type SegmentScore struct {
	Score      int    `json:"score"`
	Suggestion string `json:"suggestion,omitempty"`
}

// SegmentScores maps segment id (S1..S4) to the reviewer's judgement.
type SegmentScores map[string]SegmentScore

func (s SegmentScores) Value() (driver.Value, error) {
	if s == nil {
		return "{}", nil
	}
	b, err := json.Marshal(s)
	return string(b), err
}

func (s *SegmentScores) Scan(value interface{}) error {
	return scanJSON(value, s)
}

// Slots holds the natural-key values of a queue item (e.g. drug_a/drug_b).
type Slots map[string]string

func (s Slots) Value() (driver.Value, error) {
	if s == nil {
		return "{}", nil
	}
	b, err := json.Marshal(s)
	return string(b), err
}

func (s *Slots) Scan(value interface{}) error {
	return scanJSON(value, s)
}

// Segment is one portion of a generated answer shown to the reviewer.
type Segment struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type SegmentList []Segment

func (s SegmentList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	return string(b), err
}

func (s *SegmentList) Scan(value interface{}) error {
	return scanJSON(value, s)
}

// JSONMap is a free-form JSON column (audit changes, response payloads).
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	return string(b), err
}

func (m *JSONMap) Scan(value interface{}) error {
	return scanJSON(value, m)
}

func scanJSON(value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("cannot scan %T into json column", value)
	}
}
