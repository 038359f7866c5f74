package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"notequiz/internal/domain"
)

// jsonValue marshals v for storage in a CLOB column. nil-able callers pass
// their zero value; empty collections store as their JSON literal.
func jsonValue(v any) (driver.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func jsonScan(value any, dest any) error {
	if value == nil {
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("jsonScan: unsupported type " + fmt.Sprintf("%T", value))
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, dest)
}

// QuestionSlice stores a question array as a JSON CLOB.
type QuestionSlice []domain.Question

func (s QuestionSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return jsonValue([]domain.Question(s))
}

func (s *QuestionSlice) Scan(value any) error {
	*s = QuestionSlice{}
	return jsonScan(value, (*[]domain.Question)(s))
}

// StringMap stores a string-to-string map as a JSON CLOB.
type StringMap map[string]string

func (m StringMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return jsonValue(map[string]string(m))
}

func (m *StringMap) Scan(value any) error {
	*m = StringMap{}
	return jsonScan(value, (*map[string]string)(m))
}

// GradeSlice stores the per-question grading breakdown as a JSON CLOB.
type GradeSlice []domain.QuestionGrade

func (s GradeSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return jsonValue([]domain.QuestionGrade(s))
}

func (s *GradeSlice) Scan(value any) error {
	*s = GradeSlice{}
	return jsonScan(value, (*[]domain.QuestionGrade)(s))
}

// ConfigBlob stores the normalized quiz config as a JSON CLOB.
type ConfigBlob domain.QuizConfig

func (c ConfigBlob) Value() (driver.Value, error) {
	return jsonValue(domain.QuizConfig(c))
}

func (c *ConfigBlob) Scan(value any) error {
	return jsonScan(value, (*domain.QuizConfig)(c))
}

// MetricsBlob stores router metrics as a JSON CLOB.
type MetricsBlob domain.RouterMetrics

func (m MetricsBlob) Value() (driver.Value, error) {
	return jsonValue(domain.RouterMetrics(m))
}

func (m *MetricsBlob) Scan(value any) error {
	return jsonScan(value, (*domain.RouterMetrics)(m))
}

// PayloadMap stores an analytics payload as a JSON CLOB.
type PayloadMap map[string]any

func (m PayloadMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	return jsonValue(map[string]any(m))
}

func (m *PayloadMap) Scan(value any) error {
	*m = PayloadMap{}
	return jsonScan(value, (*map[string]any)(m))
}

// Quiz row.
type Quiz struct {
	ID        string         `db:"ID"`
	OwnerID   string         `db:"OWNER_ID"`
	ClassID   sql.NullString `db:"CLASS_ID"`
	Title     string         `db:"TITLE"`
	Subject   string         `db:"SUBJECT"`
	Questions QuestionSlice  `db:"QUESTIONS"`
	Config    ConfigBlob     `db:"CONFIG"`
	CreatedAt time.Time      `db:"CREATED_AT"`
}

// QuizAttempt row.
type QuizAttempt struct {
	ID           string          `db:"ID"`
	QuizID       string          `db:"QUIZ_ID"`
	OwnerID      string          `db:"OWNER_ID"`
	Status       string          `db:"STATUS"`
	Responses    StringMap       `db:"RESPONSES"`
	Score        sql.NullFloat64 `db:"SCORE"`
	Grading      GradeSlice      `db:"GRADING"`
	StartedAt    time.Time       `db:"STARTED_AT"`
	SubmittedAt  sql.NullTime    `db:"SUBMITTED_AT"`
	DurationMS   sql.NullInt64   `db:"DURATION_MS"`
	GradingModel sql.NullString  `db:"GRADING_MODEL"`
	Metrics      MetricsBlob     `db:"METRICS"`
}

// User row (only the fields the core reads).
type User struct {
	ID        string    `db:"ID"`
	Email     string    `db:"EMAIL"`
	Tier      string    `db:"TIER"`
	CreatedAt time.Time `db:"CREATED_AT"`
}

// Class row (resolved for ownership checks only).
type Class struct {
	ID      string `db:"ID"`
	OwnerID string `db:"OWNER_ID"`
	Name    string `db:"NAME"`
}

// QuizEvent analytics row.
type QuizEvent struct {
	ID        string         `db:"ID"`
	EventType string         `db:"EVENT_TYPE"`
	UserID    string         `db:"USER_ID"`
	QuizID    sql.NullString `db:"QUIZ_ID"`
	AttemptID sql.NullString `db:"ATTEMPT_ID"`
	Payload   PayloadMap     `db:"PAYLOAD"`
	CreatedAt time.Time      `db:"CREATED_AT"`
}
