package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/entrhq/verity/pkg/browser"
	"github.com/entrhq/verity/pkg/llm"
	"github.com/entrhq/verity/pkg/logging"
)

// DefaultMaxSteps caps an agent run when the caller does not.
const DefaultMaxSteps = 25

const defaultActionTimeout = 10 * time.Second

const systemPrompt = `You are a browser automation agent executing a web test.
You control a browser page through JSON commands. Respond with EXACTLY ONE
JSON object per turn, no prose, in this shape:

{"action": "<navigate|click|fill|wait|extract|done>",
 "url": "<for navigate>",
 "selector": "<CSS selector, for click/fill/wait>",
 "value": "<text to type, for fill>",
 "success": <true|false, for done>,
 "reason": "<short explanation, for done>"}

Rules:
- Take one action at a time and wait for its result before the next.
- Use "extract" to read the current page content when you need to verify
  an outcome.
- Finish with "done" and an honest success verdict against the expected
  outcomes. Report success=false with a reason if the test cannot pass.`

// action is the model's parsed reply.
type action struct {
	Action   string `json:"action"`
	URL      string `json:"url"`
	Selector string `json:"selector"`
	Value    string `json:"value"`
	Success  *bool  `json:"success"`
	Reason   string `json:"reason"`
}

// BrowserAgent implements Agent over an LLM completion client.
type BrowserAgent struct {
	client        llm.Client
	logger        logging.Logger
	actionTimeout time.Duration
}

// Option configures a BrowserAgent.
type Option func(*BrowserAgent)

// WithActionTimeout bounds each individual page action.
func WithActionTimeout(d time.Duration) Option {
	return func(a *BrowserAgent) {
		if d > 0 {
			a.actionTimeout = d
		}
	}
}

// New creates a browser agent backed by the given completion client.
func New(client llm.Client, logger logging.Logger, opts ...Option) *BrowserAgent {
	if logger == nil {
		logger = logging.Discard()
	}
	a := &BrowserAgent{
		client:        client,
		logger:        logger,
		actionTimeout: defaultActionTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run executes the task as a bounded conversation loop. Malformed model
// replies and failed page actions are reported back to the model, which may
// retry with a different action; only a dead completion channel or context
// cancellation aborts the run.
func (a *BrowserAgent) Run(ctx context.Context, task string, page browser.Page, maxSteps int) (*Result, error) {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}

	messages := []*llm.Message{
		llm.NewSystemMessage(systemPrompt),
		llm.NewUserMessage(fmt.Sprintf("Current URL: %s\n\nTask:\n%s", page.URL(), task)),
	}

	result := &Result{}

	for step := 0; step < maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		reply, err := a.client.Complete(ctx, messages)
		if err != nil {
			return nil, fmt.Errorf("agent completion failed: %w", err)
		}
		messages = append(messages, reply)

		act, err := parseAction(reply.Content)
		if err != nil {
			a.logger.Warn("unparseable agent reply", map[string]interface{}{"error": err.Error()})
			messages = append(messages, llm.NewUserMessage(
				"Your reply was not a valid action JSON object. Reply with exactly one JSON object."))
			continue
		}

		if act.Action == "done" {
			result.Success = act.Success
			result.FinalMessage = act.Reason
			if act.Success != nil && !*act.Success {
				result.ErrorMessage = act.Reason
			}
			return result, nil
		}

		observation, execErr := a.execute(ctx, page, act)
		rec := Step{
			Action:   act.Action,
			Selector: act.Selector,
			Value:    act.Value,
			URL:      act.URL,
			Note:     observation,
		}
		if execErr != nil {
			rec.Error = execErr.Error()
			observation = fmt.Sprintf("Action %q failed: %v", act.Action, execErr)
		}
		result.Steps = append(result.Steps, rec)

		a.logger.Debug("agent step", map[string]interface{}{
			"step":   step + 1,
			"action": act.Action,
			"failed": execErr != nil,
		})

		messages = append(messages, llm.NewUserMessage(observation))
	}

	result.FinalMessage = fmt.Sprintf("stopped after reaching the %d-step limit", maxSteps)
	return result, nil
}

// execute runs one action against the page and returns the observation to
// feed back to the model.
func (a *BrowserAgent) execute(ctx context.Context, page browser.Page, act *action) (string, error) {
	switch act.Action {
	case "navigate":
		if act.URL == "" {
			return "", fmt.Errorf("navigate requires a url")
		}
		if err := page.Goto(ctx, act.URL, a.actionTimeout); err != nil {
			return "", err
		}
		return fmt.Sprintf("Navigated to %s. Current URL: %s", act.URL, page.URL()), nil

	case "click":
		if err := page.Click(ctx, act.Selector, a.actionTimeout); err != nil {
			return "", err
		}
		return fmt.Sprintf("Clicked %q. Current URL: %s", act.Selector, page.URL()), nil

	case "fill":
		if err := page.Fill(ctx, act.Selector, act.Value, a.actionTimeout); err != nil {
			return "", err
		}
		return fmt.Sprintf("Filled %q.", act.Selector), nil

	case "wait":
		if err := page.WaitForSelector(ctx, act.Selector, a.actionTimeout); err != nil {
			return "", err
		}
		return fmt.Sprintf("Element %q is present.", act.Selector), nil

	case "extract":
		content, err := page.Content()
		if err != nil {
			return "", err
		}
		title, _ := page.Title()
		return fmt.Sprintf("Title: %s\nURL: %s\n\n%s", title, page.URL(), truncate(content, 6000)), nil

	default:
		return "", fmt.Errorf("unknown action %q", act.Action)
	}
}

// parseAction extracts the JSON action object from a model reply, tolerating
// code fences and surrounding prose.
func parseAction(content string) (*action, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in reply")
	}

	var act action
	if err := json.Unmarshal([]byte(content[start:end+1]), &act); err != nil {
		return nil, fmt.Errorf("invalid action JSON: %w", err)
	}
	if act.Action == "" {
		return nil, fmt.Errorf("action field is empty")
	}
	return &act, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "\n[content truncated]"
}
