package telegram

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"quiz-bot/internal/quiz"
)

const (
	resultBoardSize      = 5
	leaderboardSize      = 10
	outcomesPerLine      = 5
	randomMixButtonLabel = "🎲 Random Mix"
)

const (
	msgSessionExpired = "⚠️ Session expired. Use /quiz to start again."
	msgEmptyPool      = "😕 No questions available, try a different topic."
	msgReviewMissing  = "🗂 This review is no longer available."
	msgNoRankings     = "📊 No rankings yet. Start with /quiz!"
	msgNoStats        = "📊 No stats yet. Start with /quiz!"
	msgUnknownButton  = "This button is no longer valid."
	msgStaleButton    = "This button belongs to an earlier quiz."
	msgTimeUp         = "⏰ Time's up!"
)

// Verdict maps a percentage onto the result band message.
func Verdict(percent float64) string {
	switch {
	case percent >= 90:
		return "🌟 Outstanding! You're a GATE expert!"
	case percent >= 75:
		return "🎉 Excellent work! Keep it up!"
	case percent >= 60:
		return "👍 Good job! Practice more!"
	default:
		return "📚 Keep learning! You'll improve!"
	}
}

// OutcomeGrid renders one mark per question, five per line.
func OutcomeGrid(outcomes []bool) string {
	var b strings.Builder
	for i, ok := range outcomes {
		if ok {
			b.WriteString("✅")
		} else {
			b.WriteString("❌")
		}
		if (i+1)%outcomesPerLine == 0 && i+1 < len(outcomes) {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func medal(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return fmt.Sprintf("%d.", rank)
	}
}

func WelcomeText(name string) string {
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("🎓 <b>Welcome %s!</b>\n\n"+
		"Practice GATE CSE questions across ten subjects.\n\n"+
		"/quiz - Start a quiz\n"+
		"/topics - Practice one subject\n"+
		"/leaderboard - Top 10 rankers\n"+
		"/mystats - Your statistics\n"+
		"/help - Full guide", html.EscapeString(name))
}

func HelpText() string {
	var b strings.Builder
	b.WriteString("📖 <b>Complete Guide</b>\n\n<b>🎮 Quiz Modes:</b>\n")
	for _, m := range quiz.Modes() {
		b.WriteString(html.EscapeString(m.Label))
		if !m.InstantFeedback {
			b.WriteString(" - results at the end")
		}
		b.WriteByte('\n')
	}
	b.WriteString(html.EscapeString(quiz.TopicMode.Label))
	b.WriteString("\n\n<b>📝 Answering:</b>\n")
	b.WriteString("• Tap a letter to answer, tap again to change it\n")
	b.WriteString("• Multi-select questions accept several letters\n")
	b.WriteString("• Use ⬅️ ➡️ to move between questions\n")
	b.WriteString("• Submit scores every question at once\n\n")
	b.WriteString("<b>📊 Commands:</b>\n")
	b.WriteString("/quiz - Start quiz\n/topics - Choose specific topic\n/leaderboard - Top 10 rankers\n")
	b.WriteString("/mystats - Your statistics\n/topicstats - Accuracy per topic\n/help - This guide")
	return b.String()
}

func ModeMenu() (string, *tele.ReplyMarkup) {
	rows := make([][]tele.InlineButton, 0, len(quiz.Modes())+1)
	for _, m := range quiz.Modes() {
		rows = append(rows, []tele.InlineButton{{
			Text: m.Label,
			Data: MustEncode(Event{Kind: KindSelectMode, Mode: m.Key}),
		}})
	}
	rows = append(rows, []tele.InlineButton{{
		Text: "📚 Choose a topic",
		Data: MustEncode(Event{Kind: KindShowTopics}),
	}})
	return "🎮 <b>Choose a quiz mode</b>", &tele.ReplyMarkup{InlineKeyboard: rows}
}

// TopicMenu lists topics two per row. Topics whose id does not fit in a
// callback payload are left out.
func TopicMenu(topics []quiz.Topic) (string, *tele.ReplyMarkup) {
	var rows [][]tele.InlineButton
	var row []tele.InlineButton
	for _, t := range topics {
		data, err := EncodeEvent(Event{Kind: KindSelectTopic, Topic: t.ID})
		if err != nil {
			continue
		}
		title := t.Title
		if title == "" {
			title = quiz.HumanizeTopic(t.ID)
		}
		row = append(row, tele.InlineButton{Text: title, Data: data})
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows,
		[]tele.InlineButton{{Text: randomMixButtonLabel, Data: MustEncode(Event{Kind: KindSelectTopic, Topic: quiz.MixedTopic})}},
		[]tele.InlineButton{{Text: "⬅️ Back to modes", Data: MustEncode(Event{Kind: KindShowModes})}},
	)
	return "📚 <b>Choose a topic</b>", &tele.ReplyMarkup{InlineKeyboard: rows}
}

func QuestionText(v quiz.View, topicTitle string) string {
	var b strings.Builder
	if v.Mode.Timed {
		fmt.Fprintf(&b, "⏱️ Time left: %s\n", quiz.FormatClock(v.Remaining))
	}
	if topicTitle != "" {
		fmt.Fprintf(&b, "📚 %s\n", html.EscapeString(topicTitle))
	}
	fmt.Fprintf(&b, "\n❓ <b>Q%d/%d</b>", v.Index+1, v.Total)
	if v.Question.IsMulti() {
		b.WriteString(" <i>(select all that apply)</i>")
	}
	fmt.Fprintf(&b, "\n\n%s\n\n", html.EscapeString(v.Question.Prompt))
	for i, opt := range v.Question.Options {
		mark := ""
		if v.Selected.Contains(i) {
			mark = " ✔"
		}
		fmt.Fprintf(&b, "%s. %s%s\n", quiz.OptionLetter(i), html.EscapeString(opt), mark)
	}
	if v.Feedback != nil {
		b.WriteByte('\n')
		if *v.Feedback {
			b.WriteString("✅ <b>Correct!</b>")
		} else {
			b.WriteString("❌ <b>Wrong!</b> Correct: ")
			b.WriteString(answerLetters(v.Question.Correct, v.Question.Options))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func QuestionKeyboard(v quiz.View) *tele.ReplyMarkup {
	var letters []tele.InlineButton
	for i := range v.Question.Options {
		label := quiz.OptionLetter(i)
		if v.Selected.Contains(i) {
			label = "✔ " + label
		}
		letters = append(letters, tele.InlineButton{
			Text: label,
			Data: MustEncode(Event{Kind: KindAnswer, Attempt: v.Attempt, Question: v.Index, Option: i}),
		})
	}

	var nav []tele.InlineButton
	if v.Index > 0 {
		nav = append(nav, tele.InlineButton{Text: "⬅️ Prev", Data: MustEncode(Event{Kind: KindNavigate, Attempt: v.Attempt, Question: v.Index - 1})})
	}
	if v.Index < v.Total-1 {
		nav = append(nav, tele.InlineButton{Text: "Next ➡️", Data: MustEncode(Event{Kind: KindNavigate, Attempt: v.Attempt, Question: v.Index + 1})})
	}

	rows := [][]tele.InlineButton{letters}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, []tele.InlineButton{{
		Text: fmt.Sprintf("✅ Submit (%d/%d answered)", v.AnsweredCount(), v.Total),
		Data: MustEncode(Event{Kind: KindSubmit, Attempt: v.Attempt}),
	}})
	return &tele.ReplyMarkup{InlineKeyboard: rows}
}

func ResultText(r quiz.Result, top []quiz.UserStats) string {
	var b strings.Builder
	if r.Reason == quiz.ReasonTimeout {
		b.WriteString("⏰ <b>Time's up!</b>\n\n")
	}
	b.WriteString("🎯 <b>Quiz Complete!</b>\n\n")
	fmt.Fprintf(&b, "📊 Score: %d/%d (%.1f%%)\n", r.Correct, r.Total, r.Percent)
	fmt.Fprintf(&b, "⏱️ Time: %s\n\n", quiz.FormatClock(r.Elapsed))
	b.WriteString(Verdict(r.Percent))
	b.WriteString("\n\n")
	b.WriteString(OutcomeGrid(r.Outcomes))

	if len(top) > resultBoardSize {
		top = top[:resultBoardSize]
	}
	if len(top) > 0 {
		b.WriteString("\n\n🏆 <b>TOP 5 LEADERBOARD</b>\n\n")
		for i, u := range top {
			fmt.Fprintf(&b, "%s %s: %.1f%% (Tests: %d)\n", medal(i+1), html.EscapeString(u.DisplayName), u.BestPercent, u.AttemptsTaken)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func ResultKeyboard(r quiz.Result) *tele.ReplyMarkup {
	var rows [][]tele.InlineButton
	if r.ReviewID != "" && r.Correct < r.Total {
		rows = append(rows, []tele.InlineButton{{
			Text: "🔍 Review wrong answers",
			Data: MustEncode(Event{Kind: KindReview, ReviewID: r.ReviewID}),
		}})
	}
	if data, err := EncodeEvent(Event{Kind: KindRetake, Mode: r.ModeKey, Topic: r.Topic}); err == nil {
		rows = append(rows, []tele.InlineButton{{Text: "🔁 Retake", Data: data}})
	}
	rows = append(rows, []tele.InlineButton{{Text: "🎮 New quiz", Data: MustEncode(Event{Kind: KindShowModes})}})
	return &tele.ReplyMarkup{InlineKeyboard: rows}
}

// ReviewText renders the pos-th wrong answer of review. ok is false when
// there is nothing at pos.
func ReviewText(review quiz.Review, pos int) (string, bool) {
	wrong := review.Wrong()
	if pos < 0 || pos >= len(wrong) {
		return "", false
	}
	idx := wrong[pos]
	item := review.Items[idx]
	q := item.Question

	var b strings.Builder
	fmt.Fprintf(&b, "🔍 <b>Review %d/%d</b> (Q%d)\n\n", pos+1, len(wrong), idx+1)
	fmt.Fprintf(&b, "%s\n\n", html.EscapeString(q.Prompt))
	for i, opt := range q.Options {
		fmt.Fprintf(&b, "%s. %s\n", quiz.OptionLetter(i), html.EscapeString(opt))
	}
	b.WriteString("\nYour answer: ")
	if len(item.Answer) == 0 {
		b.WriteString("<i>not answered</i>")
	} else {
		b.WriteString(answerLetters(item.Answer, q.Options))
	}
	b.WriteString("\nCorrect: ")
	b.WriteString(answerLetters(q.Correct, q.Options))
	return b.String(), true
}

func ReviewKeyboard(review quiz.Review, pos int) *tele.ReplyMarkup {
	wrong := len(review.Wrong())
	var nav []tele.InlineButton
	if pos > 0 {
		nav = append(nav, tele.InlineButton{Text: "⬅️ Prev", Data: MustEncode(Event{Kind: KindReview, ReviewID: review.ID, Question: pos - 1})})
	}
	if pos < wrong-1 {
		nav = append(nav, tele.InlineButton{Text: "Next ➡️", Data: MustEncode(Event{Kind: KindReview, ReviewID: review.ID, Question: pos + 1})})
	}
	var rows [][]tele.InlineButton
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, []tele.InlineButton{{Text: "🎮 New quiz", Data: MustEncode(Event{Kind: KindShowModes})}})
	return &tele.ReplyMarkup{InlineKeyboard: rows}
}

func LeaderboardText(top []quiz.UserStats) string {
	if len(top) == 0 {
		return msgNoRankings
	}
	var b strings.Builder
	b.WriteString("🏆 <b>GLOBAL LEADERBOARD - TOP 10</b>\n\n")
	for i, u := range top {
		fmt.Fprintf(&b, "%s <b>%s</b>\n", medal(i+1), html.EscapeString(u.DisplayName))
		fmt.Fprintf(&b, "   Best: %.1f%% | Avg: %.1f%%\n", u.BestPercent, u.AveragePercent())
		fmt.Fprintf(&b, "   Tests: %d\n\n", u.AttemptsTaken)
	}
	return strings.TrimRight(b.String(), "\n")
}

func StatsText(u quiz.UserStats) string {
	if u.AttemptsTaken == 0 {
		return msgNoStats
	}
	var b strings.Builder
	b.WriteString("📊 <b>Your Statistics</b>\n\n")
	fmt.Fprintf(&b, "👤 User: %s\n", html.EscapeString(u.DisplayName))
	fmt.Fprintf(&b, "🎯 Best Score: %.1f%%\n", u.BestPercent)
	fmt.Fprintf(&b, "📈 Average Score: %.1f%%\n", u.AveragePercent())
	fmt.Fprintf(&b, "📝 Tests Taken: %d\n", u.AttemptsTaken)
	fmt.Fprintf(&b, "✅ Total Correct: %d/%d", u.TotalCorrect, u.TotalQuestions)
	if len(u.History) > 0 {
		b.WriteString("\n\n<b>Recent Performance:</b>\n")
		for i, h := range u.History {
			fmt.Fprintf(&b, "%d. %d/%d (%.0f%%) - %s\n", i+1, h.Correct, h.Total, h.Percent, quiz.FormatClock(h.Elapsed))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// TopicStatsText lists per-topic accuracy, weakest first. titles maps topic
// ids to display names.
func TopicStatsText(u quiz.UserStats, titles map[string]string) string {
	if len(u.Topics) == 0 {
		return msgNoStats
	}
	type row struct {
		id      string
		percent float64
		tally   quiz.TopicTally
	}
	rows := make([]row, 0, len(u.Topics))
	for id, tally := range u.Topics {
		if tally.Total == 0 {
			continue
		}
		rows = append(rows, row{id: id, tally: tally, percent: float64(tally.Correct) / float64(tally.Total) * 100})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].percent != rows[j].percent {
			return rows[i].percent < rows[j].percent
		}
		return rows[i].id < rows[j].id
	})

	var b strings.Builder
	b.WriteString("📚 <b>Accuracy by topic</b>\n\n")
	for _, r := range rows {
		title := titles[r.id]
		if title == "" {
			title = quiz.HumanizeTopic(r.id)
		}
		fmt.Fprintf(&b, "%s: %d/%d (%.0f%%)\n", html.EscapeString(title), r.tally.Correct, r.tally.Total, r.percent)
	}
	return strings.TrimRight(b.String(), "\n")
}

func WarningText(remaining time.Duration) string {
	return fmt.Sprintf("⏰ <b>%s left!</b> Submit before time runs out.", quiz.FormatClock(remaining))
}

func StartedText(topicTitle string, v quiz.View) string {
	if topicTitle == "" {
		topicTitle = "Random Mix"
	}
	text := fmt.Sprintf("✅ Starting <b>%s</b> - %s\n%d questions", html.EscapeString(topicTitle), html.EscapeString(v.Mode.Label), v.Total)
	if v.Mode.Timed {
		text += fmt.Sprintf(", %s on the clock", quiz.FormatClock(v.Mode.TimeLimit))
	}
	return text
}

func answerLetters(sel quiz.Selection, options []string) string {
	parts := make([]string, 0, len(sel))
	for _, idx := range sel {
		text := ""
		if idx >= 0 && idx < len(options) {
			text = " " + html.EscapeString(options[idx])
		}
		parts = append(parts, quiz.OptionLetter(idx)+"."+text)
	}
	return strings.Join(parts, ", ")
}
