package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// maxCallbackData is Telegram's limit on inline button payloads.
const maxCallbackData = 64

type Kind int

const (
	KindSelectMode Kind = iota + 1
	KindSelectTopic
	KindShowTopics
	KindShowModes
	KindAnswer
	KindNavigate
	KindSubmit
	KindReview
	KindRetake
)

var kindNames = map[Kind]string{
	KindSelectMode:  "select_mode",
	KindSelectTopic: "select_topic",
	KindShowTopics:  "show_topics",
	KindShowModes:   "show_modes",
	KindAnswer:      "answer",
	KindNavigate:    "navigate",
	KindSubmit:      "submit",
	KindReview:      "review",
	KindRetake:      "retake",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event is a decoded button press. Which fields are meaningful depends on Kind:
//
//	SelectMode:  Mode
//	SelectTopic: Topic
//	Answer:      Attempt, Question, Option
//	Navigate:    Attempt, Question (target index)
//	Submit:      Attempt
//	Review:      ReviewID, Question (position among wrong answers)
//	Retake:      Mode, Topic
type Event struct {
	Kind     Kind
	// Attempt is the generation of the attempt whose message holds the
	// button. It is never zero on attempt buttons.
	Attempt  uint64
	Mode     string
	Topic    string
	Question int
	Option   int
	ReviewID string
}

var (
	ErrUnknownCallback  = errors.New("unknown callback payload")
	ErrCallbackTooLarge = errors.New("callback payload exceeds 64 bytes")
	ErrMissingAttempt   = errors.New("attempt button without attempt generation")
)

const (
	tagMode   = "m"
	tagTopic  = "t"
	tagTopics = "topics"
	tagModes  = "modes"
	tagAnswer = "a"
	tagNav    = "n"
	tagSubmit = "s"
	tagReview = "r"
	tagRetake = "x"
)

func EncodeEvent(e Event) (string, error) {
	switch e.Kind {
	case KindAnswer, KindNavigate, KindSubmit:
		if e.Attempt == 0 {
			return "", fmt.Errorf("%w: %s", ErrMissingAttempt, e.Kind)
		}
	}

	var out string
	switch e.Kind {
	case KindSelectMode:
		out = join(tagMode, e.Mode)
	case KindSelectTopic:
		out = join(tagTopic, e.Topic)
	case KindShowTopics:
		out = tagTopics
	case KindShowModes:
		out = tagModes
	case KindAnswer:
		out = join(tagAnswer, formatAttempt(e.Attempt), strconv.Itoa(e.Question), strconv.Itoa(e.Option))
	case KindNavigate:
		out = join(tagNav, formatAttempt(e.Attempt), strconv.Itoa(e.Question))
	case KindSubmit:
		out = join(tagSubmit, formatAttempt(e.Attempt))
	case KindReview:
		out = join(tagReview, e.ReviewID, strconv.Itoa(e.Question))
	case KindRetake:
		out = join(tagRetake, e.Mode, e.Topic)
	default:
		return "", fmt.Errorf("%w: kind %d", ErrUnknownCallback, e.Kind)
	}
	if len(out) > maxCallbackData {
		return "", fmt.Errorf("%w: %q", ErrCallbackTooLarge, out)
	}
	return out, nil
}

// MustEncode is for payloads built from constants and bounded ids.
func MustEncode(e Event) string {
	out, err := EncodeEvent(e)
	if err != nil {
		panic(err)
	}
	return out
}

func DecodeEvent(data string) (Event, error) {
	parts := strings.Split(data, ":")
	bad := fmt.Errorf("%w: %q", ErrUnknownCallback, data)

	switch parts[0] {
	case tagTopics:
		if len(parts) == 1 {
			return Event{Kind: KindShowTopics}, nil
		}
	case tagModes:
		if len(parts) == 1 {
			return Event{Kind: KindShowModes}, nil
		}
	case tagSubmit:
		if len(parts) == 2 {
			if gen, err := parseAttempt(parts[1]); err == nil {
				return Event{Kind: KindSubmit, Attempt: gen}, nil
			}
		}
	case tagMode:
		if len(parts) == 2 && parts[1] != "" {
			return Event{Kind: KindSelectMode, Mode: parts[1]}, nil
		}
	case tagTopic:
		if len(parts) == 2 && parts[1] != "" {
			return Event{Kind: KindSelectTopic, Topic: parts[1]}, nil
		}
	case tagAnswer:
		if len(parts) == 4 {
			gen, err0 := parseAttempt(parts[1])
			q, err1 := parseIndex(parts[2])
			o, err2 := parseIndex(parts[3])
			if err0 == nil && err1 == nil && err2 == nil {
				return Event{Kind: KindAnswer, Attempt: gen, Question: q, Option: o}, nil
			}
		}
	case tagNav:
		if len(parts) == 3 {
			gen, err0 := parseAttempt(parts[1])
			q, err1 := parseIndex(parts[2])
			if err0 == nil && err1 == nil {
				return Event{Kind: KindNavigate, Attempt: gen, Question: q}, nil
			}
		}
	case tagReview:
		if len(parts) == 3 && parts[1] != "" {
			if pos, err := parseIndex(parts[2]); err == nil {
				return Event{Kind: KindReview, ReviewID: parts[1], Question: pos}, nil
			}
		}
	case tagRetake:
		if len(parts) == 3 && parts[1] != "" {
			return Event{Kind: KindRetake, Mode: parts[1], Topic: parts[2]}, nil
		}
	}
	return Event{}, bad
}

func join(parts ...string) string {
	return strings.Join(parts, ":")
}

func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative index %d", n)
	}
	return n, nil
}

func formatAttempt(gen uint64) string {
	return strconv.FormatUint(gen, 36)
}

func parseAttempt(s string) (uint64, error) {
	gen, err := strconv.ParseUint(s, 36, 64)
	if err != nil {
		return 0, err
	}
	if gen == 0 {
		return 0, ErrMissingAttempt
	}
	return gen, nil
}
