// Package assistant runs one chat turn against the Anthropic Messages API,
// letting the model call a memo tool at most once.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/charmbracelet/log"

	"github.com/rcliao/memoya/internal/memo"
	"github.com/rcliao/memoya/internal/model"
)

const (
	DefaultModel        = anthropic.ModelClaudeSonnet4_20250514
	DefaultMaxTokens    = 1024
	DefaultHistoryLimit = 10
)

// Options configures a Client. Zero values take the defaults.
type Options struct {
	APIKey       string
	BaseURL      string
	Model        string
	MaxTokens    int64
	HistoryLimit int
	HTTPClient   *http.Client
	Logger       *log.Logger
	Now          func() time.Time
}

// Client sends user turns to the model and executes requested memo tools.
type Client struct {
	api          anthropic.Client
	model        anthropic.Model
	maxTokens    int64
	historyLimit int
	executor     *memo.Executor
	logger       *log.Logger
	now          func() time.Time
}

// Reply is the outcome of one turn.
type Reply struct {
	Message model.Message `json:"message"`
	// Tools lists the tools the model called, in order.
	Tools   []string             `json:"tools,omitempty"`
	Pending []memo.PendingAction `json:"pending,omitempty"`
}

// New returns a client that executes tools through exec.
func New(exec *memo.Executor, opts Options) *Client {
	var reqOpts []option.RequestOption
	if opts.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	// A failed turn is reported to the user rather than retried.
	reqOpts = append(reqOpts, option.WithMaxRetries(0))

	c := &Client{
		api:          anthropic.NewClient(reqOpts...),
		model:        anthropic.Model(opts.Model),
		maxTokens:    opts.MaxTokens,
		historyLimit: opts.HistoryLimit,
		executor:     exec,
		logger:       opts.Logger,
		now:          opts.Now,
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.maxTokens <= 0 {
		c.maxTokens = DefaultMaxTokens
	}
	if c.historyLimit <= 0 {
		c.historyLimit = DefaultHistoryLimit
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

func tools() []anthropic.ToolUnionParam {
	defs := memo.Definitions()
	out := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, d := range defs {
		out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        d.Name,
			Description: anthropic.String(d.Description),
			InputSchema: d.InputSchema,
		}})
	}
	return out
}

// conversation maps the most recent visible user and assistant turns to
// API messages. It never starts with an assistant turn.
func (c *Client) conversation(history []model.Message) []anthropic.MessageParam {
	var turns []model.Message
	for _, m := range history {
		if m.IsConversation() && m.Visible() && strings.TrimSpace(m.Text) != "" {
			turns = append(turns, m)
		}
	}
	if len(turns) > c.historyLimit {
		turns = turns[len(turns)-c.historyLimit:]
	}
	for len(turns) > 0 && turns[0].Type != model.TypeUser {
		turns = turns[1:]
	}

	conv := make([]anthropic.MessageParam, 0, len(turns)+1)
	for _, m := range turns {
		if m.Type == model.TypeUser {
			conv = append(conv, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Text)))
		} else {
			conv = append(conv, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Text)))
		}
	}
	return conv
}

// Send runs one turn: the user text goes out with history and tool
// definitions; if the model calls tools they are executed once and the
// results are sent back for the final answer.
func (c *Client) Send(ctx context.Context, roomID, text string, history []model.Message) (*Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("message text is required")
	}

	conv := append(c.conversation(history), anthropic.NewUserMessage(anthropic.NewTextBlock(text)))
	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: SystemPrompt(DetectLanguage(text))}},
		Messages:  conv,
		Tools:     tools(),
	}

	first, err := c.api.Messages.New(ctx, params)
	if err != nil {
		c.logger.Error("assistant request", "err", err)
		return nil, fmt.Errorf("assistant request: %w", err)
	}

	reply := &Reply{}
	var (
		answer  strings.Builder
		results []anthropic.ContentBlockParamUnion
	)
	for _, block := range first.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			answer.WriteString(v.Text)
		case anthropic.ToolUseBlock:
			input := json.RawMessage(v.JSON.Input.Raw())
			res := c.executor.Execute(ctx, roomID, v.Name, input)
			c.logger.Debug("tool executed", "tool", v.Name, "success", res.Success)
			reply.Tools = append(reply.Tools, v.Name)
			if res.PendingAction != nil {
				reply.Pending = append(reply.Pending, *res.PendingAction)
			}
			b, err := json.Marshal(res)
			if err != nil {
				return nil, fmt.Errorf("encode tool result: %w", err)
			}
			results = append(results, anthropic.NewToolResultBlock(v.ID, string(b), !res.Success))
		}
	}

	if len(results) > 0 {
		params.Messages = append(params.Messages, first.ToParam(), anthropic.NewUserMessage(results...))
		second, err := c.api.Messages.New(ctx, params)
		if err != nil {
			c.logger.Error("assistant follow-up", "err", err)
			return nil, fmt.Errorf("assistant follow-up: %w", err)
		}
		answer.Reset()
		for _, block := range second.Content {
			if v, ok := block.AsAny().(anthropic.TextBlock); ok {
				answer.WriteString(v.Text)
			}
		}
	}

	out := strings.TrimSpace(answer.String())
	if out == "" {
		return nil, fmt.Errorf("assistant returned no text")
	}
	reply.Message = model.Message{Text: out, Type: model.TypeAI, Timestamp: c.now()}
	return reply, nil
}
