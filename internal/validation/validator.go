package validation

import (
	"regexp"
	"strings"

	"notequiz/internal/domain"
	"notequiz/internal/dto"
)

const (
	MinNotesLength = 20
	MaxNotesLength = 50000
)

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateGenerateRequest checks the shape and length constraints of a
// quiz-creation request. Notes length bounds apply after trimming. Config
// semantics (enums, hybrid sum) are checked later by normalization, so a
// bad config maps to CONFIG_INVALID rather than SCHEMA_INVALID.
func (v *Validator) ValidateGenerateRequest(req *dto.GenerateQuizRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	notes := strings.TrimSpace(req.NotesText)
	if notes == "" {
		errors = append(errors, domain.NewMissingFieldError("notes_text"))
	} else if len([]rune(notes)) < MinNotesLength || len([]rune(notes)) > MaxNotesLength {
		errors = append(errors, domain.NewOutOfRangeError("notes_text", len([]rune(notes)), MinNotesLength, MaxNotesLength))
	}

	if req.ClassID != "" && !isValidULID(req.ClassID) {
		errors = append(errors, domain.NewInvalidFormatError("class_id", req.ClassID))
	}

	return errors
}

// ValidateGradeRequest checks the grade request shape: at least one of
// quiz_id/attempt_id, well-formed ids, and a responses map.
func (v *Validator) ValidateGradeRequest(req *dto.GradeRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if req.QuizID == "" && req.AttemptID == "" {
		errors = append(errors, domain.ValidationError{
			Field: "quiz_id", Message: "one of quiz_id or attempt_id is required",
		})
	}
	if req.QuizID != "" && !isValidULID(req.QuizID) {
		errors = append(errors, domain.NewInvalidFormatError("quiz_id", req.QuizID))
	}
	if req.AttemptID != "" && !isValidULID(req.AttemptID) {
		errors = append(errors, domain.NewInvalidFormatError("attempt_id", req.AttemptID))
	}
	if req.Responses == nil {
		errors = append(errors, domain.NewMissingFieldError("responses"))
	}

	return errors
}

// ValidateStartAttemptRequest checks the start-attempt request shape.
func (v *Validator) ValidateStartAttemptRequest(req *dto.StartAttemptRequest) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(req.QuizID) == "" {
		errors = append(errors, domain.NewMissingFieldError("quiz_id"))
	} else if !isValidULID(req.QuizID) {
		errors = append(errors, domain.NewInvalidFormatError("quiz_id", req.QuizID))
	}

	return errors
}

var validULID = regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}$`)

// isValidULID checks if the string is a valid ULID format
func isValidULID(s string) bool {
	if len(s) != 26 {
		return false
	}
	return validULID.MatchString(s)
}
