package service

import (
	"fmt"
	"strings"
)

// TitleFunc derives a quiz title and subject from notes content, an optional
// class name, and the final question count. Pluggable so products can swap
// the heuristic without touching the pipeline.
type TitleFunc func(notesText, className string, questionCount int) (title, subject string)

const maxSubjectLength = 60

// deriveTitleSubject is the default heuristic: the class name wins as
// subject when present, else the first meaningful line of the notes,
// truncated. The title carries the question count.
func deriveTitleSubject(notesText, className string, questionCount int) (string, string) {
	subject := strings.TrimSpace(className)
	if subject == "" {
		for _, line := range strings.Split(notesText, "\n") {
			line = strings.TrimSpace(strings.TrimLeft(line, "#-*• \t"))
			if len([]rune(line)) >= 3 {
				subject = line
				break
			}
		}
	}
	if subject == "" {
		subject = "Study Notes"
	}
	if runes := []rune(subject); len(runes) > maxSubjectLength {
		subject = strings.TrimSpace(string(runes[:maxSubjectLength]))
	}

	title := fmt.Sprintf("%s - %d Question Quiz", subject, questionCount)
	return title, subject
}
