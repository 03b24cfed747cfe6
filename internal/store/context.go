package store

import (
	"context"
	"unicode/utf8"

	"github.com/rcliao/memoya/internal/model"
)

// ContextParams holds parameters for conversation history assembly.
type ContextParams struct {
	Months int // partitions to draw from, default 1
	Limit  int // max turns, default 10
	Budget int // max characters (runes) of text, default 8000
}

// ContextResult is the assembled history, oldest turn first.
type ContextResult struct {
	Budget   int             `json:"budget"`
	Used     int             `json:"used"`
	Messages []model.Message `json:"messages"`
}

// Context collects the most recent visible user and assistant turns, packing
// greedily from the newest backward until the turn limit or the character
// budget is reached.
func (p *Partitioned) Context(ctx context.Context, cp ContextParams) (*ContextResult, error) {
	limit := cp.Limit
	if limit <= 0 {
		limit = 10
	}
	budget := cp.Budget
	if budget <= 0 {
		budget = 8000
	}

	msgs, err := p.Paginate(ctx, cp.Months)

	result := &ContextResult{Budget: budget, Messages: []model.Message{}}
	var picked []model.Message
	used := 0
	for i := len(msgs) - 1; i >= 0 && len(picked) < limit; i-- {
		m := msgs[i]
		if !m.IsConversation() || !m.Visible() {
			continue
		}
		n := utf8.RuneCountInString(m.Text)
		if used+n > budget {
			break
		}
		used += n
		picked = append(picked, m)
	}

	// Restore chronological order
	for i := len(picked) - 1; i >= 0; i-- {
		result.Messages = append(result.Messages, picked[i])
	}
	result.Used = used
	return result, err
}
