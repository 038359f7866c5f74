package service

import (
	"math"
	"strings"
	"unicode"

	"notequiz/internal/domain"
)

const (
	// RubricVersion tags analytics rows so scoring changes are auditable.
	RubricVersion = "rubric_v1"

	// GradingModelMarker is stored on graded attempts in place of a model
	// identifier; no model call happens in grading.
	GradingModelMarker = "deterministic_grading"

	// OverlapRatio is the short-answer policy knob: the share of canonical
	// non-stopword tokens that must appear in the submission. Rounded up,
	// minimum one token.
	OverlapRatio = 0.5
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"of": {}, "to": {}, "in": {}, "on": {}, "for": {}, "and": {}, "or": {},
	"with": {}, "by": {}, "at": {}, "it": {}, "its": {}, "as": {}, "be": {},
	"this": {}, "that": {},
}

// gradeQuestion applies the deterministic rubric to one question.
func gradeQuestion(q domain.Question, submitted string) domain.QuestionGrade {
	grade := domain.QuestionGrade{
		QuestionID: q.ID,
		Type:       q.Type,
		Expected:   q.Answer,
		Submitted:  submitted,
	}
	switch q.Type {
	case domain.QuestionKindMCQ:
		// Exact match, case-sensitive, no normalization.
		grade.Correct = submitted == q.Answer
	case domain.QuestionKindShort:
		grade.Correct = shortAnswerCorrect(q.Answer, submitted)
	}
	return grade
}

// shortAnswerCorrect marks a short answer correct when the submission
// contains at least ceil(OverlapRatio x canonical tokens) of the canonical
// answer's non-stopword tokens, with a minimum threshold of one.
func shortAnswerCorrect(canonical, submitted string) bool {
	canonicalTokens := rubricTokens(canonical)
	if len(canonicalTokens) == 0 {
		return false
	}

	threshold := int(math.Ceil(float64(len(canonicalTokens)) * OverlapRatio))
	if threshold < 1 {
		threshold = 1
	}

	submittedSet := make(map[string]struct{})
	for _, tok := range rubricTokens(submitted) {
		submittedSet[tok] = struct{}{}
	}

	matched := 0
	for _, tok := range canonicalTokens {
		if _, ok := submittedSet[tok]; ok {
			matched++
		}
	}
	return matched >= threshold
}

// rubricTokens normalizes text for short-answer comparison: case-fold,
// strip punctuation, collapse whitespace, drop stopwords.
func rubricTokens(s string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	var tokens []string
	for _, tok := range strings.Fields(b.String()) {
		if _, skip := stopwords[tok]; skip {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// scorePercent computes round(100 x correct / total).
func scorePercent(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}

// letterGrade applies the fixed cutoffs.
func letterGrade(percent int) string {
	switch {
	case percent >= 90:
		return "A"
	case percent >= 80:
		return "B"
	case percent >= 70:
		return "C"
	case percent >= 60:
		return "D"
	default:
		return "F"
	}
}
