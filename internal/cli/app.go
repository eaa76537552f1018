package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"quiz-bot/internal/quiz"
)

const maxAttempts = 3

type Options struct {
	Engine *quiz.Engine
	User   quiz.User
	// Topic is a topic id or "mixed".
	Topic string
	Mode  quiz.Mode
}

// Run plays one attempt on the terminal and prints the result. The attempt
// is submitted on "s", after the last question, or when input ends.
func Run(ctx context.Context, in io.Reader, out io.Writer, opts Options) (quiz.Result, error) {
	if opts.Engine == nil {
		return quiz.Result{}, errors.New("cli: engine is required")
	}
	if opts.Mode.Key == "" {
		opts.Mode = quiz.TopicMode
	}
	if opts.User.DisplayName == "" {
		opts.User.DisplayName = "local"
	}

	w := &syncWriter{w: out}
	expired := make(chan quiz.Result, 1)
	opts.Engine.SetNotifier(&notifier{out: w, userID: opts.User.ID, expired: expired})
	defer opts.Engine.SetNotifier(nil)

	view, err := opts.Engine.StartQuiz(ctx, opts.User, opts.Topic, opts.Mode)
	if err != nil {
		return quiz.Result{}, err
	}
	w.Printf("Starting %s: %d questions\n", opts.Mode.Label, view.Total)

	s := &session{
		ctx:     ctx,
		engine:  opts.Engine,
		userID:  opts.User.ID,
		attempt: view.Attempt,
		reader:  bufio.NewReader(in),
		out:     w,
	}
	result, err := s.loop(view)
	if errors.Is(err, quiz.ErrNoActiveAttempt) {
		select {
		case result = <-expired:
			err = nil
		case <-time.After(time.Second):
		}
	}
	if err != nil {
		return quiz.Result{}, err
	}

	printResult(w, result)
	if stats, ok := opts.Engine.Stats().Get(opts.User.ID); ok {
		w.Printf("Attempts: %d | Best: %.1f%% | Average: %.1f%%\n", stats.AttemptsTaken, stats.BestPercent, stats.AveragePercent())
	}
	return result, nil
}

type session struct {
	ctx     context.Context
	engine  *quiz.Engine
	userID  int64
	attempt uint64
	reader  *bufio.Reader
	out     *syncWriter
}

func (s *session) loop(view quiz.View) (quiz.Result, error) {
	for {
		if err := s.ctx.Err(); err != nil {
			return quiz.Result{}, err
		}
		printQuestion(s.out, view)

		next, submit, err := s.prompt(view)
		if err != nil {
			return quiz.Result{}, err
		}
		if submit {
			return s.engine.Finalize(s.ctx, s.userID, s.attempt, quiz.ReasonManual)
		}
		view = next
	}
}

// prompt reads commands for the question in view until one moves the
// cursor or submits.
func (s *session) prompt(view quiz.View) (quiz.View, bool, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		line, readErr := s.reader.ReadString('\n')
		input := strings.TrimSpace(line)
		if input == "" && readErr != nil {
			return view, true, nil
		}

		switch strings.ToLower(input) {
		case "s", "submit":
			return view, true, nil
		case "n", "next":
			next, err := s.engine.Navigate(s.ctx, s.userID, s.attempt, view.Index+1)
			return next, false, err
		case "p", "prev":
			next, err := s.engine.Navigate(s.ctx, s.userID, s.attempt, view.Index-1)
			return next, false, err
		}

		sel, ok := quiz.ParseLetters(input, len(view.Question.Options))
		if ok && (view.Question.IsMulti() || len(sel) == 1) {
			answered, err := s.answer(view, sel)
			if err != nil {
				return view, false, err
			}
			printFeedback(s.out, answered)
			return s.advance(answered)
		}

		if attempt < maxAttempts {
			s.out.Printf("\nInvalid input. Please enter %s, n, p or s.\n", answerHint(view))
		}
		if readErr != nil {
			return view, true, nil
		}
	}

	s.out.Printf("Skipping.\n")
	return s.advance(view)
}

// answer makes the recorded selection equal sel. Multi-select answers
// toggle in the engine, so only options whose membership differs are sent.
func (s *session) answer(view quiz.View, sel quiz.Selection) (quiz.View, error) {
	if !view.Question.IsMulti() {
		return s.engine.RecordAnswer(s.ctx, s.userID, s.attempt, view.Index, sel[0])
	}
	current := view
	for i := range view.Question.Options {
		if view.Selected.Contains(i) == sel.Contains(i) {
			continue
		}
		next, err := s.engine.RecordAnswer(s.ctx, s.userID, s.attempt, view.Index, i)
		if err != nil {
			return view, err
		}
		current = next
	}
	return current, nil
}

// advance moves to the next question; past the last one it submits.
func (s *session) advance(view quiz.View) (quiz.View, bool, error) {
	if view.Index >= view.Total-1 {
		return view, true, nil
	}
	next, err := s.engine.Navigate(s.ctx, s.userID, s.attempt, view.Index+1)
	return next, false, err
}

func answerHint(view quiz.View) string {
	last := quiz.OptionLetter(len(view.Question.Options) - 1)
	if view.Question.IsMulti() {
		return fmt.Sprintf("letters A-%s separated by commas", last)
	}
	return "a letter A-" + last
}

func printQuestion(out *syncWriter, view quiz.View) {
	out.Printf("\n")
	if view.Mode.Timed {
		out.Printf("[%s left]\n", quiz.FormatClock(view.Remaining))
	}
	kind := ""
	if view.Question.IsMulti() {
		kind = " (select all that apply)"
	}
	out.Printf("Q%d/%d%s: %s\n\n", view.Index+1, view.Total, kind, view.Question.Prompt)
	for i, option := range view.Question.Options {
		mark := ""
		if view.Selected.Contains(i) {
			mark = " *"
		}
		out.Printf("%s. %s%s\n", quiz.OptionLetter(i), option, mark)
	}
	out.Printf("\n")
}

func printFeedback(out *syncWriter, view quiz.View) {
	if view.Feedback == nil {
		return
	}
	if *view.Feedback {
		out.Printf("Correct!\n")
		return
	}
	out.Printf("Wrong. Correct answer was %s\n", optionTexts(view.Question, view.Question.Correct))
}

func printResult(out *syncWriter, r quiz.Result) {
	if r.Reason == quiz.ReasonTimeout {
		out.Printf("\nTime's up!\n")
	}
	out.Printf("\nFinal score: %d/%d (%.1f%%) in %s\n", r.Correct, r.Total, r.Percent, quiz.FormatClock(r.Elapsed))
}

func optionTexts(q quiz.Question, sel quiz.Selection) string {
	parts := make([]string, 0, len(sel))
	for _, idx := range sel {
		if idx >= 0 && idx < len(q.Options) {
			parts = append(parts, quiz.OptionLetter(idx)+". "+q.Options[idx])
		}
	}
	return strings.Join(parts, ", ")
}

// syncWriter serialises output from the prompt loop and timer callbacks.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, format, args...)
}

type notifier struct {
	out     *syncWriter
	userID  int64
	expired chan quiz.Result
}

func (n *notifier) NotifyWarning(userID int64, remaining time.Duration) {
	if userID == n.userID {
		n.out.Printf("\n%s left! Press s to submit.\n", quiz.FormatClock(remaining))
	}
}

func (n *notifier) NotifyExpired(result quiz.Result) {
	if result.UserID != n.userID {
		return
	}
	select {
	case n.expired <- result:
	default:
	}
}
