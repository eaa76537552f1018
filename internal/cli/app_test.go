package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"quiz-bot/internal/quiz"
)

type staticSource map[string][]quiz.Question

func (s staticSource) Topics(context.Context) ([]quiz.Topic, error) {
	out := make([]quiz.Topic, 0, len(s))
	for id := range s {
		out = append(out, quiz.Topic{ID: id})
	}
	return out, nil
}

func (s staticSource) Load(_ context.Context, topic string) ([]quiz.Question, error) {
	return s[topic], nil
}

func single(prompt string, correct int, options ...string) quiz.Question {
	return quiz.Question{Prompt: prompt, Options: options, Correct: quiz.Selection{correct}, Kind: quiz.KindSingle, Points: 1}
}

func run(t *testing.T, questions []quiz.Question, input string) (quiz.Result, string, error) {
	t.Helper()
	engine := quiz.NewEngine(quiz.NewRepository(nil, staticSource{"toc": questions}), nil, nil)
	var out bytes.Buffer
	result, err := Run(context.Background(), strings.NewReader(input), &out, Options{
		Engine: engine,
		User:   quiz.User{ID: 1, DisplayName: "tester"},
		Topic:  "toc",
	})
	return result, out.String(), err
}

func TestRunScoresSingleAnswer(t *testing.T) {
	questions := []quiz.Question{single("DFA accepts?", 1, "CFL", "Regular", "RE")}

	result, out, err := run(t, questions, "b\n")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Correct != 1 || result.Total != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	for _, want := range []string{"Q1/1: DFA accepts?", "C. RE", "Correct!", "Final score: 1/1 (100.0%)", "Attempts: 1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunWrongAnswerShowsCorrectOption(t *testing.T) {
	questions := []quiz.Question{single("DFA accepts?", 1, "CFL", "Regular")}

	result, out, err := run(t, questions, "A\n")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Correct != 0 {
		t.Fatalf("expected wrong answer, got %+v", result)
	}
	if !strings.Contains(out, "Wrong. Correct answer was B. Regular") {
		t.Fatalf("missing feedback:\n%s", out)
	}
}

func TestRunSkipsAfterThreeInvalidInputs(t *testing.T) {
	questions := []quiz.Question{single("2+2?", 0, "4", "5")}

	result, out, err := run(t, questions, "z\nA,B\n\n")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := strings.Count(out, "Invalid input"); got != 2 {
		t.Fatalf("expected 2 invalid-input prompts, got %d:\n%s", got, out)
	}
	if !strings.Contains(out, "Skipping.") {
		t.Fatalf("expected skip message:\n%s", out)
	}
	if result.Correct != 0 || result.Total != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestRunMultiSelect(t *testing.T) {
	questions := []quiz.Question{{
		Prompt:  "Which are regular?",
		Options: []string{"a*", "a^n b^n", "(ab)*"},
		Correct: quiz.Selection{0, 2},
		Kind:    quiz.KindMulti,
		Points:  2,
	}}

	result, out, err := run(t, questions, "a, c\n")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Correct != 1 {
		t.Fatalf("expected exact set to score, got %+v\n%s", result, out)
	}
	if !strings.Contains(out, "(select all that apply)") {
		t.Fatalf("missing multi-select hint:\n%s", out)
	}
}

func TestRunNavigationAndSubmit(t *testing.T) {
	questions := []quiz.Question{
		single("first", 0, "yes", "no"),
		single("second", 0, "yes", "no"),
	}

	result, out, err := run(t, questions, "n\np\na\np\ns\n")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Correct != 1 || result.Total != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if strings.Count(out, "Q1/2") != 3 || !strings.Contains(out, "Q2/2") {
		t.Fatalf("unexpected navigation output:\n%s", out)
	}
	if !strings.Contains(out, "yes *") {
		t.Fatalf("selected option should be marked:\n%s", out)
	}
}

func TestRunSubmitsWhenInputEnds(t *testing.T) {
	questions := []quiz.Question{single("first", 0, "yes", "no"), single("second", 0, "yes", "no")}

	result, _, err := run(t, questions, "")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Total != 2 || result.Correct != 0 || result.Reason != quiz.ReasonManual {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestRunEmptyPool(t *testing.T) {
	_, _, err := run(t, nil, "a\n")
	if !errors.Is(err, quiz.ErrEmptyPool) {
		t.Fatalf("expected ErrEmptyPool, got %v", err)
	}
}

func TestRunRequiresEngine(t *testing.T) {
	if _, err := Run(context.Background(), strings.NewReader(""), &bytes.Buffer{}, Options{}); err == nil {
		t.Fatalf("expected error without an engine")
	}
}
