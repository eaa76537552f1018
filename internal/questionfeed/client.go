// Package questionfeed fetches question documents over HTTP. A feed serves
// <base>/index.json listing its topics and <base>/<topic>.json per topic in
// the JSON question document format.
package questionfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"quiz-bot/internal/logger"
	"quiz-bot/internal/questiondoc"
	"quiz-bot/internal/quiz"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 4 << 20
)

var topicPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

type indexResponse struct {
	Topics []quiz.Topic `json:"topics"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	log        *logger.Logger
}

func NewClient(httpClient *http.Client, baseURL string, log *logger.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		log:        log.With("component", "QuestionFeed"),
	}
}

func (c *Client) Topics(ctx context.Context) ([]quiz.Topic, error) {
	body, found, err := c.get(ctx, "index.json")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	var payload indexResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode feed index: %w", err)
	}
	topics := make([]quiz.Topic, 0, len(payload.Topics))
	for _, t := range payload.Topics {
		if !topicPattern.MatchString(t.ID) {
			c.log.Warn("skipping feed topic with invalid id", "topic", t.ID)
			continue
		}
		topics = append(topics, t)
	}
	return topics, nil
}

// Load fetches one topic document. A topic the feed does not have is an
// empty result, not an error.
func (c *Client) Load(ctx context.Context, topic string) ([]quiz.Question, error) {
	if !topicPattern.MatchString(topic) {
		return nil, nil
	}
	body, found, err := c.get(ctx, url.PathEscape(topic)+".json")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	doc, err := questiondoc.Decode(questiondoc.FormatJSON, body, topic)
	if err != nil {
		return nil, err
	}
	if len(doc.Rejected) > 0 {
		c.log.Warn("invalid feed questions skipped", "topic", topic, "rejected", len(doc.Rejected), "error", doc.Rejected.Error())
	}
	return doc.Questions, nil
}

func (c *Client) get(ctx context.Context, name string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+name, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("question feed returned status %d for %s", resp.StatusCode, name)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, false, err
	}
	if len(body) > maxBodyBytes {
		return nil, false, fmt.Errorf("question feed document %s exceeds %d bytes", name, maxBodyBytes)
	}
	return body, true, nil
}
