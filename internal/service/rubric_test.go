package service

import (
	"testing"

	"notequiz/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestGradeQuestion_MCQExactMatch(t *testing.T) {
	q := domain.Question{
		ID:      "q1",
		Type:    domain.QuestionKindMCQ,
		Prompt:  "Pick one",
		Options: []string{"Paris", "London", "Berlin"},
		Answer:  "Paris",
	}

	assert.True(t, gradeQuestion(q, "Paris").Correct)
	assert.False(t, gradeQuestion(q, "paris").Correct, "mcq comparison is case-sensitive")
	assert.False(t, gradeQuestion(q, " Paris").Correct, "mcq comparison applies no normalization")
	assert.False(t, gradeQuestion(q, "").Correct)
}

func TestShortAnswerCorrect(t *testing.T) {
	tests := []struct {
		name      string
		canonical string
		submitted string
		want      bool
	}{
		{
			name:      "exact match",
			canonical: "photosynthesis",
			submitted: "photosynthesis",
			want:      true,
		},
		{
			name:      "case and punctuation ignored",
			canonical: "The Krebs cycle",
			submitted: "krebs CYCLE!",
			want:      true,
		},
		{
			name:      "half of tokens suffices",
			canonical: "mitochondria produce cellular energy",
			submitted: "mitochondria energy",
			want:      true,
		},
		{
			name:      "below half of tokens fails",
			canonical: "mitochondria produce cellular energy",
			submitted: "mitochondria",
			want:      false,
		},
		{
			name:      "stopwords do not count toward overlap",
			canonical: "the speed of light",
			submitted: "the of",
			want:      false,
		},
		{
			name:      "single stopword-free token requires that token",
			canonical: "the osmosis",
			submitted: "osmosis happens",
			want:      true,
		},
		{
			name:      "empty submission fails",
			canonical: "gravity",
			submitted: "",
			want:      false,
		},
		{
			name:      "all-stopword canonical never matches",
			canonical: "the of a",
			submitted: "the of a",
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shortAnswerCorrect(tt.canonical, tt.submitted))
		})
	}
}

func TestRubricTokens(t *testing.T) {
	assert.Equal(t, []string{"krebs", "cycle"}, rubricTokens("The Krebs   cycle!"))
	assert.Equal(t, []string{"h2o"}, rubricTokens("H2O."))
	assert.Empty(t, rubricTokens("the a an of"))
	assert.Empty(t, rubricTokens(""))
}

func TestScorePercent(t *testing.T) {
	assert.Equal(t, 50, scorePercent(2, 4))
	assert.Equal(t, 67, scorePercent(2, 3))
	assert.Equal(t, 33, scorePercent(1, 3))
	assert.Equal(t, 100, scorePercent(5, 5))
	assert.Equal(t, 0, scorePercent(0, 5))
	assert.Equal(t, 0, scorePercent(0, 0))
}

func TestLetterGrade(t *testing.T) {
	tests := []struct {
		percent int
		want    string
	}{
		{100, "A"}, {90, "A"},
		{89, "B"}, {80, "B"},
		{79, "C"}, {70, "C"},
		{69, "D"}, {60, "D"},
		{59, "F"}, {0, "F"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, letterGrade(tt.percent), "percent %d", tt.percent)
	}
}
