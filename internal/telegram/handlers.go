package telegram

import (
	"context"
	"errors"
	"strings"

	tele "gopkg.in/telebot.v3"

	"quiz-bot/internal/quiz"
)

func (g *Gateway) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), handlerTimeout)
}

func userFrom(c tele.Context) quiz.User {
	s := c.Sender()
	if s == nil {
		return quiz.User{}
	}
	name := s.Username
	if name == "" {
		name = strings.TrimSpace(s.FirstName + " " + s.LastName)
	}
	if name == "" {
		name = "Anonymous"
	}
	return quiz.User{ID: s.ID, DisplayName: name}
}

func (g *Gateway) onStart(c tele.Context) error {
	name := ""
	if s := c.Sender(); s != nil {
		name = s.FirstName
	}
	g.deliver(c, "welcome", c.Send(WelcomeText(name), tele.ModeHTML))
	text, kb := ModeMenu()
	g.deliver(c, "mode menu", c.Send(text, tele.ModeHTML, kb))
	return nil
}

func (g *Gateway) onHelp(c tele.Context) error {
	g.deliver(c, "help", c.Send(HelpText(), tele.ModeHTML))
	return nil
}

func (g *Gateway) onQuiz(c tele.Context) error {
	text, kb := ModeMenu()
	g.deliver(c, "mode menu", c.Send(text, tele.ModeHTML, kb))
	return nil
}

func (g *Gateway) onTopics(c tele.Context) error {
	ctx, cancel := g.requestContext()
	defer cancel()

	text, kb := TopicMenu(g.engine.Repository().ListTopics(ctx))
	g.deliver(c, "topic menu", c.Send(text, tele.ModeHTML, kb))
	return nil
}

func (g *Gateway) onLeaderboard(c tele.Context) error {
	g.deliver(c, "leaderboard", c.Send(LeaderboardText(g.engine.Stats().TopN(leaderboardSize)), tele.ModeHTML))
	return nil
}

func (g *Gateway) onMyStats(c tele.Context) error {
	stats, _ := g.engine.Stats().Get(userFrom(c).ID)
	g.deliver(c, "stats", c.Send(StatsText(stats), tele.ModeHTML))
	return nil
}

func (g *Gateway) onTopicStats(c tele.Context) error {
	ctx, cancel := g.requestContext()
	defer cancel()

	stats, _ := g.engine.Stats().Get(userFrom(c).ID)
	titles := make(map[string]string)
	for _, t := range g.engine.Repository().ListTopics(ctx) {
		titles[t.ID] = t.Title
	}
	g.deliver(c, "topic stats", c.Send(TopicStatsText(stats, titles), tele.ModeHTML))
	return nil
}

func (g *Gateway) onCallback(c tele.Context) error {
	ev, err := DecodeEvent(c.Callback().Data)
	if err != nil {
		g.log.Debug("unknown callback", "data", c.Callback().Data)
		g.deliver(c, "callback answer", c.Respond(&tele.CallbackResponse{Text: msgUnknownButton}))
		return nil
	}

	ctx, cancel := g.requestContext()
	defer cancel()
	user := userFrom(c)

	switch ev.Kind {
	case KindShowModes:
		text, kb := ModeMenu()
		g.deliver(c, "mode menu", c.Edit(text, tele.ModeHTML, kb))
	case KindShowTopics:
		text, kb := TopicMenu(g.engine.Repository().ListTopics(ctx))
		g.deliver(c, "topic menu", c.Edit(text, tele.ModeHTML, kb))
	case KindSelectMode:
		mode, err := quiz.LookupMode(ev.Mode)
		if err != nil {
			g.deliver(c, "callback answer", c.Respond(&tele.CallbackResponse{Text: msgUnknownButton}))
			return nil
		}
		if err := g.start(ctx, c, user, quiz.MixedTopic, mode, true); err != nil {
			return g.fail(c, err)
		}
	case KindSelectTopic:
		if err := g.start(ctx, c, user, ev.Topic, quiz.TopicMode, true); err != nil {
			return g.fail(c, err)
		}
	case KindRetake:
		mode, err := quiz.LookupMode(ev.Mode)
		if err != nil {
			g.deliver(c, "callback answer", c.Respond(&tele.CallbackResponse{Text: msgUnknownButton}))
			return nil
		}
		if err := g.start(ctx, c, user, ev.Topic, mode, false); err != nil {
			return g.fail(c, err)
		}
	case KindAnswer:
		view, err := g.engine.RecordAnswer(ctx, user.ID, ev.Attempt, ev.Question, ev.Option)
		if err != nil {
			return g.fail(c, err)
		}
		g.deliver(c, "callback answer", c.Respond(feedbackToast(view)))
		g.showQuestion(ctx, c, view, true, false)
		return nil
	case KindNavigate:
		view, err := g.engine.Navigate(ctx, user.ID, ev.Attempt, ev.Question)
		if err != nil {
			return g.fail(c, err)
		}
		g.showQuestion(ctx, c, view, true, true)
	case KindSubmit:
		result, err := g.engine.Finalize(ctx, user.ID, ev.Attempt, quiz.ReasonManual)
		if err != nil {
			return g.fail(c, err)
		}
		text := ResultText(result, g.engine.Stats().TopN(resultBoardSize))
		g.deliver(c, "result", c.Edit(text, tele.ModeHTML, ResultKeyboard(result)))
	case KindReview:
		review, err := g.engine.Review(ctx, ev.ReviewID)
		if err != nil {
			return g.fail(c, err)
		}
		text, ok := ReviewText(review, ev.Question)
		if !ok {
			g.deliver(c, "callback answer", c.Respond(&tele.CallbackResponse{Text: "Nothing to review."}))
			return nil
		}
		kb := ReviewKeyboard(review, ev.Question)
		if msg := c.Message(); msg != nil && strings.HasPrefix(msg.Text, "🔍 Review") {
			g.deliver(c, "review", c.Edit(text, tele.ModeHTML, kb))
		} else {
			g.deliver(c, "review", c.Send(text, tele.ModeHTML, kb))
		}
	}
	g.deliver(c, "callback answer", c.Respond())
	return nil
}

// start begins an attempt. Menus are replaced by the start notice; a retake
// leaves the result message untouched.
func (g *Gateway) start(ctx context.Context, c tele.Context, user quiz.User, topic string, mode quiz.Mode, fromMenu bool) error {
	view, err := g.engine.StartQuiz(ctx, user, topic, mode)
	if err != nil {
		return err
	}
	notice := StartedText(g.engine.Repository().TopicTitle(ctx, view.Topic), view)
	if fromMenu {
		g.deliver(c, "start notice", c.Edit(notice, tele.ModeHTML))
	} else {
		g.deliver(c, "start notice", c.Send(notice, tele.ModeHTML))
	}
	g.showQuestion(ctx, c, view, false, true)
	return nil
}

// showQuestion renders view into the current message, or a new one when edit
// is false. With withMedia set, a question picture is sent first and the
// question follows as a fresh message.
func (g *Gateway) showQuestion(ctx context.Context, c tele.Context, view quiz.View, edit, withMedia bool) {
	title := ""
	if quiz.IsMixed(view.Topic) && view.Question.Topic != "" {
		title = g.engine.Repository().TopicTitle(ctx, view.Question.Topic)
	}
	text := QuestionText(view, title)
	kb := QuestionKeyboard(view)

	if url := view.Question.MediaURL; url != "" && withMedia {
		g.deliver(c, "question media", c.Send(&tele.Photo{File: tele.FromURL(url)}))
		edit = false
	}
	if edit {
		g.deliver(c, "question", c.Edit(text, tele.ModeHTML, kb))
		return
	}
	g.deliver(c, "question", c.Send(text, tele.ModeHTML, kb))
}

func feedbackToast(view quiz.View) *tele.CallbackResponse {
	if view.Feedback == nil {
		return &tele.CallbackResponse{}
	}
	if *view.Feedback {
		return &tele.CallbackResponse{Text: "✅ Correct!"}
	}
	return &tele.CallbackResponse{Text: "❌ Wrong!"}
}

// fail reports an engine error to the user.
func (g *Gateway) fail(c tele.Context, err error) error {
	var text string
	switch {
	case errors.Is(err, quiz.ErrAttemptExpired):
		// NotifyExpired has already delivered the timeout result.
		g.deliver(c, "callback answer", c.Respond(&tele.CallbackResponse{Text: msgTimeUp}))
		return nil
	case errors.Is(err, quiz.ErrStaleAttempt):
		g.deliver(c, "callback answer", c.Respond(&tele.CallbackResponse{Text: msgStaleButton}))
		return nil
	case errors.Is(err, quiz.ErrNoActiveAttempt):
		text = msgSessionExpired
	case errors.Is(err, quiz.ErrEmptyPool):
		text = msgEmptyPool
	case errors.Is(err, quiz.ErrReviewNotFound):
		text = msgReviewMissing
	case errors.Is(err, quiz.ErrQuestionOutOfRange), errors.Is(err, quiz.ErrOptionOutOfRange):
		g.deliver(c, "callback answer", c.Respond(&tele.CallbackResponse{Text: msgUnknownButton}))
		return nil
	default:
		g.log.Error("quiz operation failed", "user_id", userFrom(c).ID, "error", err)
		text = "Something went wrong, please try again."
	}
	g.deliver(c, "callback answer", c.Respond(&tele.CallbackResponse{Text: text}))
	g.deliver(c, "error", c.Send(text))
	return nil
}
