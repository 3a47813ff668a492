// Package assist asks a language model to flesh out and summarize tasks.
package assist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/tidwall/gjson"

	"github.com/existflow/taskboard/internal/model"
)

// DefaultModel is used when no model is configured
const DefaultModel = "claude-sonnet-4-5"

// SubTaskCount is how many sub-tasks a refinement suggests
const SubTaskCount = 3

var (
	ErrDisabled      = errors.New("AI assistant is not configured")
	ErrEmptyTitle    = errors.New("task title required")
	ErrBadCompletion = errors.New("could not understand the model response")
	ErrUpstream      = errors.New("AI service unavailable")
)

// Refinement is a suggested rewrite of a task
type Refinement struct {
	Description string         `json:"description"`
	Priority    model.Priority `json:"priority"`
	SubTasks    []string       `json:"sub_tasks"`
}

// Assistant refines and summarizes tasks
type Assistant interface {
	Refine(ctx context.Context, title string) (Refinement, error)
	Summarize(ctx context.Context, title, description string) (string, error)
}

// completer sends one prompt and returns the text of the answer
type completer func(ctx context.Context, system, prompt string) (string, error)

// Client is an Assistant backed by the Anthropic Messages API
type Client struct {
	complete completer
}

// New creates a client for apiKey. An empty model uses DefaultModel.
func New(apiKey, modelName string) (*Client, error) {
	if apiKey == "" {
		return nil, ErrDisabled
	}

	inner := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	m := anthropic.Model(DefaultModel)
	if modelName != "" {
		m = anthropic.Model(modelName)
	}

	return &Client{complete: func(ctx context.Context, system, prompt string) (string, error) {
		resp, err := inner.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     m,
			MaxTokens: int64(1024),
			System: []anthropic.TextBlockParam{
				{Text: system},
			},
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if err != nil {
			return "", fmt.Errorf("anthropic API call: %w", err)
		}

		var text string
		for _, block := range resp.Content {
			if block.Type == "text" {
				text += block.Text
			}
		}
		return text, nil
	}}, nil
}

const refineSystem = `You help people turn short task titles into actionable work items.

Return your answer as JSON with this exact structure:
{
  "description": "<a professional description of the task, two or three sentences>",
  "priority": "<low, medium or high>",
  "sub_tasks": ["<actionable step>", "<actionable step>", "<actionable step>"]
}

Suggest exactly three sub-tasks. Return ONLY the JSON object. No markdown fences, no commentary outside the JSON.`

const summarySystem = `You write concise, professional one-sentence executive summaries of tasks.
Reply with the sentence only.`

// Refine suggests a description, a priority and three sub-tasks for title
func (c *Client) Refine(ctx context.Context, title string) (Refinement, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Refinement{}, ErrEmptyTitle
	}

	text, err := c.complete(ctx, refineSystem, fmt.Sprintf("Refine this task: %q", title))
	if err != nil {
		return Refinement{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return parseRefinement(text)
}

// Summarize returns a one-sentence summary of a task
func (c *Client) Summarize(ctx context.Context, title, description string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEmptyTitle
	}

	prompt := fmt.Sprintf("Title: %s\nDescription: %s", title, strings.TrimSpace(description))
	text, err := c.complete(ctx, summarySystem, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return firstSentence(text), nil
}

// parseRefinement reads the model's JSON. Missing fields are tolerated; an
// unknown priority becomes medium.
func parseRefinement(text string) (Refinement, error) {
	text = stripJSONFences(text)
	if !gjson.Valid(text) {
		return Refinement{}, fmt.Errorf("%w: %s", ErrBadCompletion, truncate(text, 200))
	}

	doc := gjson.Parse(text)
	r := Refinement{
		Description: strings.TrimSpace(doc.Get("description").String()),
		Priority:    model.NormalizePriority(doc.Get("priority").String()),
		SubTasks:    []string{},
	}

	subs := doc.Get("sub_tasks")
	if !subs.Exists() {
		subs = doc.Get("subTasks")
	}
	subs.ForEach(func(_, item gjson.Result) bool {
		s := item.String()
		if item.IsObject() {
			s = item.Get("text").String()
		}
		if s = strings.TrimSpace(s); s != "" {
			r.SubTasks = append(r.SubTasks, s)
		}
		return len(r.SubTasks) < SubTaskCount
	})

	if r.Description == "" && len(r.SubTasks) == 0 {
		return Refinement{}, ErrBadCompletion
	}
	return r, nil
}

// firstSentence trims the answer down to a single line of text
func firstSentence(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = strings.TrimSpace(text[:i])
	}
	return strings.Trim(text, "\"")
}

// stripJSONFences removes markdown code fences the model sometimes adds
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
