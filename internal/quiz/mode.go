package quiz

import (
	"fmt"
	"time"
)

type Mode struct {
	Key           string        `json:"key"`
	Label         string        `json:"label"`
	QuestionCount int           `json:"question_count"`
	Timed         bool          `json:"timed"`
	TimeLimit     time.Duration `json:"time_limit"`
	// InstantFeedback reveals correctness after each answer. Scoring still
	// happens only at finalization.
	InstantFeedback bool `json:"instant_feedback"`
}

const (
	MixedTopic   = "mixed"
	topicModeKey = "topic_10"
)

var modes = []Mode{
	{Key: "quick_5", Label: "⚡ Quick (5Q)", QuestionCount: 5, InstantFeedback: true},
	{Key: "standard_10", Label: "📝 Standard (10Q)", QuestionCount: 10, InstantFeedback: true},
	{Key: "standard_15", Label: "📚 Extended (15Q)", QuestionCount: 15, InstantFeedback: true},
	{Key: "full_25", Label: "🎯 Full Test (25Q)", QuestionCount: 25, InstantFeedback: true},
	{Key: "timed_15_450", Label: "⏱️ Timed Challenge (15Q - 7.5min)", QuestionCount: 15, Timed: true, TimeLimit: 450 * time.Second, InstantFeedback: true},
	{Key: "simulation_25_900", Label: "🧠 Full Simulation (25Q - 15min)", QuestionCount: 25, Timed: true, TimeLimit: 900 * time.Second},
}

// TopicMode is used when the user picks a subject instead of a mode.
var TopicMode = Mode{Key: topicModeKey, Label: "📚 Topic Practice (10Q)", QuestionCount: 10, InstantFeedback: true}

// Modes returns the mode catalog in menu order.
func Modes() []Mode {
	return append([]Mode(nil), modes...)
}

func LookupMode(key string) (Mode, error) {
	if key == TopicMode.Key {
		return TopicMode, nil
	}
	for _, m := range modes {
		if m.Key == key {
			return m, nil
		}
	}
	return Mode{}, ErrUnknownMode
}

// IsMixed reports whether topic asks for questions from every topic.
func IsMixed(topic string) bool {
	return topic == "" || topic == MixedTopic || topic == "random"
}

// FormatClock renders d as MM:SS, truncated to whole seconds.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
