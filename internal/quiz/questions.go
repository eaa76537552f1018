package quiz

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Kind distinguishes single-answer (MCQ) from multiple-answer (MSQ) questions.
type Kind string

const (
	KindSingle Kind = "MCQ"
	KindMulti  Kind = "MSQ"
)

const DefaultPoints = 1

type Question struct {
	Prompt  string    `json:"prompt"`
	Options []string  `json:"options"`
	Correct Selection `json:"correct"`
	Kind    Kind      `json:"kind"`
	// Points is carried from the source documents for display only. Scoring
	// always awards one point per question.
	Points   int    `json:"points"`
	Topic    string `json:"topic,omitempty"`
	MediaURL string `json:"media_url,omitempty"`
}

type Topic struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (q Question) IsMulti() bool {
	return q.Kind == KindMulti
}

// IsCorrect compares a recorded answer with the question's key. Single-select
// questions match on the one index, multi-select on exact set equality.
func (q Question) IsCorrect(answer Selection) bool {
	if len(answer) == 0 {
		return false
	}
	if !q.IsMulti() {
		return len(answer) == 1 && len(q.Correct) == 1 && answer[0] == q.Correct[0]
	}
	return answer.Equal(q.Correct)
}

func (q Question) Validate() error {
	var problems []string
	if strings.TrimSpace(q.Prompt) == "" {
		problems = append(problems, "prompt is empty")
	}
	if len(q.Options) < 2 {
		problems = append(problems, fmt.Sprintf("needs at least 2 options, has %d", len(q.Options)))
	}
	for _, idx := range q.Correct {
		if idx < 0 || idx >= len(q.Options) {
			problems = append(problems, fmt.Sprintf("correct index %d out of range", idx))
		}
	}
	switch q.Kind {
	case KindSingle:
		if len(q.Correct) != 1 {
			problems = append(problems, fmt.Sprintf("single-select needs exactly one correct index, has %d", len(q.Correct)))
		}
	case KindMulti:
		if len(q.Correct) == 0 {
			problems = append(problems, "multi-select needs at least one correct index")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown kind %q", q.Kind))
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// QuestionID derives a stable identifier from the prompt and the option texts.
func QuestionID(question Question) string {
	var keyBuilder strings.Builder
	keyBuilder.WriteString(question.Prompt)
	for _, option := range question.Options {
		keyBuilder.WriteString("|")
		keyBuilder.WriteString(option)
	}

	hash := sha1.Sum([]byte(keyBuilder.String()))
	return "q_" + hex.EncodeToString(hash[:])
}

// OptionLetter maps 0 to "A", 1 to "B" and so on.
func OptionLetter(index int) string {
	if index < 0 || index >= 26 {
		return "?"
	}
	return string(rune('A' + index))
}

// NormalizeLetter uppercases a single-letter answer and rejects anything else.
func NormalizeLetter(answer string) string {
	letter := strings.ToUpper(strings.TrimSpace(answer))
	if len(letter) != 1 || letter[0] < 'A' || letter[0] > 'Z' {
		return ""
	}
	return letter
}

// ParseLetters reads answers such as "b" or "A, C" into option indices.
// Entries outside the first optionCount letters make the whole input invalid.
func ParseLetters(input string, optionCount int) (Selection, bool) {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ' ' || r == ';'
	})
	if len(fields) == 0 {
		return nil, false
	}
	var sel Selection
	for _, field := range fields {
		letter := NormalizeLetter(field)
		if letter == "" {
			return nil, false
		}
		idx := int(letter[0] - 'A')
		if idx >= optionCount {
			return nil, false
		}
		if !sel.Contains(idx) {
			sel = sel.Toggle(idx)
		}
	}
	return sel, true
}

func cloneQuestions(questions []Question) []Question {
	out := make([]Question, len(questions))
	for i, q := range questions {
		q.Options = append([]string(nil), q.Options...)
		q.Correct = append(Selection(nil), q.Correct...)
		out[i] = q
	}
	return out
}
