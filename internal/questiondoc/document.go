// Package questiondoc decodes external question documents (JSON, YAML and
// XLSX) into quiz questions and serves directories of them as a quiz.Source.
package questiondoc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"quiz-bot/internal/quiz"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatXLSX Format = "xlsx"
)

var ErrUnsupportedFormat = errors.New("unsupported question document format")

// FormatFromPath picks the decoder from the file extension.
func FormatFromPath(name string) (Format, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
}

// Document is one decoded collection. Rejected lists the questions that were
// dropped by validation; the rest of the document is still usable.
type Document struct {
	Topic     string
	Title     string
	Questions []quiz.Question
	Rejected  DecodeErrors
}

type RowError struct {
	Index   int
	Message string
}

type DecodeErrors []RowError

func (e DecodeErrors) Error() string {
	parts := make([]string, len(e))
	for i, re := range e {
		parts[i] = fmt.Sprintf("question %d: %s", re.Index+1, re.Message)
	}
	return strings.Join(parts, "; ")
}

// answerValue accepts either a single index or a list of indices. List
// remembers which form was used so the kind can be inferred.
type answerValue struct {
	Indices []int
	List    bool
}

func (a *answerValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		a.List = true
		return json.Unmarshal(data, &a.Indices)
	}
	var idx int
	if err := json.Unmarshal(data, &idx); err != nil {
		return fmt.Errorf("answer must be an index or a list of indices: %w", err)
	}
	a.Indices = []int{idx}
	return nil
}

func (a *answerValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		a.List = true
		return node.Decode(&a.Indices)
	}
	var idx int
	if err := node.Decode(&idx); err != nil {
		return fmt.Errorf("answer must be an index or a list of indices: %w", err)
	}
	a.Indices = []int{idx}
	return nil
}

type rawQuestion struct {
	Q       string     `json:"q" yaml:"q" validate:"required"`
	Options []string   `json:"options" yaml:"options" validate:"min=2,dive,required"`
	Answer  answerValue `json:"answer" yaml:"answer"`
	Type    string     `json:"type" yaml:"type" validate:"omitempty,oneof=MCQ MSQ mcq msq"`
	Marks   int        `json:"marks" yaml:"marks" validate:"gte=0,lte=100"`
	Topic   string     `json:"topic" yaml:"topic"`
	ImgURL  *string    `json:"img_url" yaml:"img_url" validate:"omitempty,url"`
}

type rawDocument struct {
	Topic     string        `json:"topic" yaml:"topic"`
	Title     string        `json:"title" yaml:"title"`
	Questions []rawQuestion `json:"questions" yaml:"questions"`
}

// Decode parses data in the given format. defaultTopic is used when the
// document does not name its own topic.
func Decode(format Format, data []byte, defaultTopic string) (Document, error) {
	var (
		raw rawDocument
		err error
	)
	switch format {
	case FormatJSON:
		raw, err = decodeJSON(data)
	case FormatYAML:
		raw, err = decodeYAML(data)
	case FormatXLSX:
		raw, err = decodeXLSX(data)
	default:
		return Document{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return Document{}, fmt.Errorf("decode %s document: %w", format, err)
	}
	return buildDocument(raw, defaultTopic), nil
}

func decodeJSON(data []byte) (rawDocument, error) {
	var raw rawDocument
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err := json.Unmarshal(trimmed, &raw.Questions)
		return raw, err
	}
	err := json.Unmarshal(trimmed, &raw)
	return raw, err
}

func decodeYAML(data []byte) (rawDocument, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return rawDocument{}, err
	}
	var raw rawDocument
	if len(root.Content) == 0 {
		return raw, nil
	}
	body := root.Content[0]
	if body.Kind == yaml.SequenceNode {
		err := body.Decode(&raw.Questions)
		return raw, err
	}
	err := body.Decode(&raw)
	return raw, err
}

func buildDocument(raw rawDocument, defaultTopic string) Document {
	doc := Document{Topic: raw.Topic, Title: raw.Title}
	if doc.Topic == "" {
		doc.Topic = defaultTopic
	}
	for i, rq := range raw.Questions {
		q, err := convert(rq, doc.Topic)
		if err != nil {
			doc.Rejected = append(doc.Rejected, RowError{Index: i, Message: err.Error()})
			continue
		}
		doc.Questions = append(doc.Questions, q)
	}
	return doc
}

func convert(rq rawQuestion, topic string) (quiz.Question, error) {
	if err := validateStruct(rq); err != nil {
		return quiz.Question{}, err
	}

	kind := quiz.Kind(strings.ToUpper(rq.Type))
	if kind == "" {
		kind = quiz.KindSingle
		if rq.Answer.List {
			kind = quiz.KindMulti
		}
	}
	points := rq.Marks
	if points == 0 {
		points = quiz.DefaultPoints
	}

	q := quiz.Question{
		Prompt:  strings.TrimSpace(rq.Q),
		Options: rq.Options,
		Correct: quiz.NewSelection(rq.Answer.Indices...),
		Kind:    kind,
		Points:  points,
		Topic:   topic,
	}
	if rq.Topic != "" {
		q.Topic = rq.Topic
	}
	if rq.ImgURL != nil {
		q.MediaURL = strings.TrimSpace(*rq.ImgURL)
	}
	if err := q.Validate(); err != nil {
		return quiz.Question{}, err
	}
	return q, nil
}
