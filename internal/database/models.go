package database

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SurveyRecord describes one stored survey import
type SurveyRecord struct {
	ID         string    `json:"id" db:"id"`
	Title      string    `json:"title" db:"title"`
	Source     string    `json:"source" db:"source"`
	ImportedAt time.Time `json:"imported_at" db:"imported_at"`
}

// NewSurveyRecord creates a record with a generated ID
func NewSurveyRecord(title, source string) *SurveyRecord {
	return &SurveyRecord{
		ID:         uuid.New().String(),
		Title:      title,
		Source:     source,
		ImportedAt: time.Now().UTC(),
	}
}

// encodeJSON stores optional structured columns; nil and empty values become NULL
func encodeJSON(v any, empty bool) (sql.NullString, error) {
	if empty {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeJSON(column sql.NullString, v any) error {
	if !column.Valid || column.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(column.String), v)
}
