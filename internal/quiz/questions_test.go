package quiz

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mcq(prompt string, correct int, options ...string) Question {
	if len(options) == 0 {
		options = []string{"A1", "B1", "C1", "D1"}
	}
	return Question{Prompt: prompt, Options: options, Correct: Selection{correct}, Kind: KindSingle, Points: 1}
}

func msq(prompt string, correct ...int) Question {
	return Question{Prompt: prompt, Options: []string{"w", "x", "y", "z"}, Correct: NewSelection(correct...), Kind: KindMulti, Points: 2}
}

func TestQuestionIDFormatAndOrderSensitivity(t *testing.T) {
	q1 := Question{Prompt: "Ordering matters", Options: []string{"One", "Two"}}
	q2 := Question{Prompt: "Ordering matters", Options: []string{"Two", "One"}}

	id1 := QuestionID(q1)
	assert.True(t, strings.HasPrefix(id1, "q_"))
	assert.Len(t, id1, 2+40)
	assert.NotEqual(t, id1, QuestionID(q2))
	assert.Equal(t, id1, QuestionID(q1))
}

func TestIsCorrectSingleSelect(t *testing.T) {
	q := mcq("heap build", 2)
	for k := 0; k < len(q.Options); k++ {
		assert.Equal(t, k == 2, q.IsCorrect(Selection{k}), "answer %d", k)
	}
	assert.False(t, q.IsCorrect(nil), "unanswered never scores")
}

func TestIsCorrectMultiSelectRequiresExactSet(t *testing.T) {
	q := msq("avl", 0, 1, 3)

	assert.True(t, q.IsCorrect(NewSelection(3, 0, 1)))
	assert.False(t, q.IsCorrect(NewSelection(0, 1)), "proper subset")
	assert.False(t, q.IsCorrect(NewSelection(0, 1, 2, 3)), "superset")
	assert.False(t, q.IsCorrect(nil))
}

func TestQuestionValidate(t *testing.T) {
	tests := []struct {
		name    string
		q       Question
		wantErr string
	}{
		{name: "valid mcq", q: mcq("ok", 1)},
		{name: "valid msq", q: msq("ok", 0, 2)},
		{name: "empty prompt", q: mcq(" ", 0), wantErr: "prompt is empty"},
		{name: "one option", q: Question{Prompt: "p", Options: []string{"a"}, Correct: Selection{0}, Kind: KindSingle}, wantErr: "at least 2 options"},
		{name: "index out of range", q: mcq("p", 7), wantErr: "out of range"},
		{name: "mcq with two keys", q: Question{Prompt: "p", Options: []string{"a", "b"}, Correct: Selection{0, 1}, Kind: KindSingle}, wantErr: "exactly one"},
		{name: "msq without key", q: Question{Prompt: "p", Options: []string{"a", "b"}, Kind: KindMulti}, wantErr: "at least one correct"},
		{name: "unknown kind", q: Question{Prompt: "p", Options: []string{"a", "b"}, Correct: Selection{0}, Kind: "TF"}, wantErr: "unknown kind"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.q.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestNormalizeLetter(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trim and uppercase", input: " a ", want: "A"},
		{name: "already uppercase", input: "B", want: "B"},
		{name: "empty", input: "", want: ""},
		{name: "multiple chars", input: "AB", want: ""},
		{name: "digit", input: "1", want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeLetter(tc.input))
		})
	}
}

func TestParseLetters(t *testing.T) {
	sel, ok := ParseLetters("c, a", 4)
	require.True(t, ok)
	assert.Equal(t, Selection{0, 2}, sel)

	sel, ok = ParseLetters("b b", 4)
	require.True(t, ok)
	assert.Equal(t, Selection{1}, sel)

	_, ok = ParseLetters("e", 4)
	assert.False(t, ok)

	_, ok = ParseLetters("  ", 4)
	assert.False(t, ok)
}

func TestOptionLetter(t *testing.T) {
	assert.Equal(t, "A", OptionLetter(0))
	assert.Equal(t, "D", OptionLetter(3))
	assert.Equal(t, "?", OptionLetter(-1))
}
