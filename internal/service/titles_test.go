package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveTitleSubject(t *testing.T) {
	t.Run("class name wins over notes content", func(t *testing.T) {
		title, subject := deriveTitleSubject("# Cell Structure\nlots of detail", "Biology 101", 5)
		assert.Equal(t, "Biology 101", subject)
		assert.Equal(t, "Biology 101 - 5 Question Quiz", title)
	})

	t.Run("first meaningful line of notes", func(t *testing.T) {
		notes := "\n\n## The Krebs Cycle\nACetyl-CoA enters the cycle..."
		title, subject := deriveTitleSubject(notes, "", 3)
		assert.Equal(t, "The Krebs Cycle", subject)
		assert.Equal(t, "The Krebs Cycle - 3 Question Quiz", title)
	})

	t.Run("markdown bullets are stripped", func(t *testing.T) {
		_, subject := deriveTitleSubject("- Thermodynamics basics", "", 4)
		assert.Equal(t, "Thermodynamics basics", subject)
	})

	t.Run("long subjects are truncated", func(t *testing.T) {
		_, subject := deriveTitleSubject(strings.Repeat("a", 200), "", 4)
		assert.Len(t, []rune(subject), maxSubjectLength)
	})

	t.Run("fallback when nothing usable", func(t *testing.T) {
		title, subject := deriveTitleSubject("a\nb", "", 2)
		assert.Equal(t, "Study Notes", subject)
		assert.Equal(t, "Study Notes - 2 Question Quiz", title)
	})
}
