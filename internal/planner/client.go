package planner

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/colonyops/sysmedic/internal/core/convo"
	"github.com/colonyops/sysmedic/internal/core/logging"
	"github.com/colonyops/sysmedic/internal/core/plan"
)

const maxErrorExcerpt = 500

// Options configure the OpenAI-backed planner.
type Options struct {
	APIKey           string
	BaseURL          string
	Model            string
	DefaultShell     string
	MaxHistoryTokens int
}

// Client implements Planner against an OpenAI-compatible chat
// completions endpoint.
type Client struct {
	api  *openai.Client
	opts Options
}

var _ Planner = (*Client)(nil)

func NewClient(opts Options) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	return &Client{
		api:  openai.NewClientWithConfig(cfg),
		opts: opts,
	}
}

func (c *Client) Plan(ctx context.Context, prompt string, history []convo.Entry) (*plan.Plan, string, error) {
	messages := c.buildMessages(planSystemPrompt, prompt, history)

	raw, err := c.complete(ctx, openai.ChatCompletionRequest{
		Model:       c.opts.Model,
		Messages:    messages,
		Temperature: 0,
	})
	if err != nil {
		return nil, "", err
	}

	parsed, err := plan.Parse(raw, c.opts.DefaultShell)
	if err != nil {
		return nil, raw, err
	}

	return parsed, raw, nil
}

func (c *Client) Synthesize(ctx context.Context, history []convo.Entry) (string, error) {
	messages := c.buildMessages(synthesisSystemPrompt, "", history)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: "The worklist above has finished. Summarize the findings.",
	})

	return c.complete(ctx, openai.ChatCompletionRequest{
		Model:    c.opts.Model,
		Messages: messages,
	})
}

// complete issues one chat completion with transport-level retry and
// surfaces protocol errors immediately.
func (c *Client) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	log := logging.Component("planner")
	log.Debug().Str("model", req.Model).Int("messages", len(req.Messages)).Msg("requesting completion")

	resp, err := withRetry(ctx, func() (openai.ChatCompletionResponse, error) {
		return c.api.CreateChatCompletion(ctx, req)
	})
	if err != nil {
		return "", fmt.Errorf("planning service: %w", excerptError(err))
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("planning service: response contained no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("planning service: response content was empty")
	}

	return content, nil
}

// buildMessages maps the conversation log onto chat turns: operator
// prompts and execution results become user turns, prior plans become
// assistant turns carrying their raw response. History is truncated
// newest-first to fit the token budget before mapping.
func (c *Client) buildMessages(system, prompt string, history []convo.Entry) []openai.ChatCompletionMessage {
	kept := convo.Truncate(history, c.opts.MaxHistoryTokens, convo.ApproxTokens(system), convo.ApproxTokens(prompt))

	messages := make([]openai.ChatCompletionMessage, 0, len(kept)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: system,
	})

	for _, entry := range kept {
		if msg, ok := entryMessage(entry); ok {
			messages = append(messages, msg)
		}
	}

	if prompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		})
	}

	return messages
}

func entryMessage(entry convo.Entry) (openai.ChatCompletionMessage, bool) {
	switch entry.Type {
	case convo.TypePrompt:
		return openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: entry.Prompt.Prompt,
		}, true
	case convo.TypePlan:
		return openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleAssistant,
			Content: entry.Plan.Response,
		}, true
	case convo.TypeCommand:
		e := entry.Command
		var b strings.Builder
		fmt.Fprintf(&b, "Executed %q (exit %d).", e.Command, e.ExitCode)
		if e.Stdout != "" {
			fmt.Fprintf(&b, "\nstdout:\n%s", e.Stdout)
		}
		if e.Stderr != "" {
			fmt.Fprintf(&b, "\nstderr:\n%s", e.Stderr)
		}
		return openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: b.String(),
		}, true
	case convo.TypeFileEdit:
		return openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: fmt.Sprintf("Wrote file %s (%s).", entry.FileEdit.Path, entry.FileEdit.Description),
		}, true
	case convo.TypeNote:
		return openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: fmt.Sprintf("Note: %s", entry.Note.Details),
		}, true
	}

	return openai.ChatCompletionMessage{}, false
}

// excerptError trims very long provider error bodies so log lines and
// operator-facing messages stay readable.
func excerptError(err error) error {
	s := err.Error()
	if len(s) <= maxErrorExcerpt {
		return err
	}

	return fmt.Errorf("%s... (%d bytes truncated)", s[:maxErrorExcerpt], len(s)-maxErrorExcerpt)
}
