package assist

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/existflow/taskboard/internal/model"
)

func fakeClient(reply string, err error) (*Client, *string) {
	var gotPrompt string
	return &Client{complete: func(_ context.Context, _, prompt string) (string, error) {
		gotPrompt = prompt
		return reply, err
	}}, &gotPrompt
}

func TestRefine(t *testing.T) {
	reply := "```json\n" + `{
  "description": "Plan the launch event end to end.",
  "priority": "HIGH",
  "sub_tasks": ["Book venue", "Send invites", "Order catering", "Extra step"]
}` + "\n```"
	c, prompt := fakeClient(reply, nil)

	r, err := c.Refine(context.Background(), "  Launch party ")
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}
	if !strings.Contains(*prompt, `"Launch party"`) {
		t.Errorf("prompt should quote the title, got %q", *prompt)
	}
	if r.Description != "Plan the launch event end to end." || r.Priority != model.PriorityHigh {
		t.Errorf("unexpected refinement %+v", r)
	}
	if len(r.SubTasks) != SubTaskCount || r.SubTasks[2] != "Order catering" {
		t.Errorf("expected the first three sub-tasks, got %v", r.SubTasks)
	}
}

func TestRefineNormalizesPriority(t *testing.T) {
	c, _ := fakeClient(`{"description":"d","priority":"urgent","sub_tasks":[{"text":"a"}]}`, nil)
	r, err := c.Refine(context.Background(), "x")
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}
	if r.Priority != model.PriorityMedium {
		t.Errorf("expected medium, got %q", r.Priority)
	}
	if len(r.SubTasks) != 1 || r.SubTasks[0] != "a" {
		t.Errorf("object sub-tasks should be read by text, got %v", r.SubTasks)
	}
}

func TestRefineErrors(t *testing.T) {
	c, _ := fakeClient("I cannot help with that", nil)
	if _, err := c.Refine(context.Background(), "x"); !errors.Is(err, ErrBadCompletion) {
		t.Errorf("expected ErrBadCompletion, got %v", err)
	}

	if _, err := c.Refine(context.Background(), "   "); !errors.Is(err, ErrEmptyTitle) {
		t.Errorf("expected ErrEmptyTitle, got %v", err)
	}

	boom := errors.New("boom")
	c, _ = fakeClient("", boom)
	if _, err := c.Refine(context.Background(), "x"); !errors.Is(err, boom) || !errors.Is(err, ErrUpstream) {
		t.Errorf("expected API error wrapped in ErrUpstream, got %v", err)
	}
	if _, err := c.Summarize(context.Background(), "x", ""); !errors.Is(err, ErrUpstream) {
		t.Errorf("expected ErrUpstream from Summarize, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	c, prompt := fakeClient("\"Ship the release notes before Friday.\"\nExtra line.", nil)
	got, err := c.Summarize(context.Background(), "Release notes", "Write them")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got != "Ship the release notes before Friday." {
		t.Errorf("unexpected summary %q", got)
	}
	if !strings.Contains(*prompt, "Description: Write them") {
		t.Errorf("prompt missing description: %q", *prompt)
	}
}

func TestNewWithoutKey(t *testing.T) {
	if _, err := New("", ""); !errors.Is(err, ErrDisabled) {
		t.Errorf("expected ErrDisabled, got %v", err)
	}
}

func TestStripJSONFences(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{}\n```":            `{}`,
		`  {"a":1} `:              `{"a":1}`,
	}
	for in, want := range cases {
		if got := stripJSONFences(in); got != want {
			t.Errorf("stripJSONFences(%q) = %q, want %q", in, got, want)
		}
	}
}
