package store

import (
	"context"
	"sort"
	"strings"

	"github.com/rcliao/memoya/internal/model"
)

// SearchParams holds parameters for searching messages.
type SearchParams struct {
	Query  string
	Type   model.MessageType
	Months int // 0 means the whole horizon
	Limit  int
	// IncludeDeleted keeps soft-deleted messages in the results.
	IncludeDeleted bool
}

// Search finds messages whose text contains the query, case-insensitively,
// newest first.
func (p *Partitioned) Search(ctx context.Context, sp SearchParams) ([]model.Message, error) {
	limit := sp.Limit
	if limit <= 0 {
		limit = 20
	}
	months := sp.Months
	if months <= 0 {
		months = p.horizon
	}

	msgs, err := p.loadMonths(ctx, p.RecentMonthKeys(months))
	query := strings.ToLower(strings.TrimSpace(sp.Query))

	results := []model.Message{}
	for _, m := range msgs {
		if m.IsPermanentlyDeleted || (m.IsDeleted && !sp.IncludeDeleted) {
			continue
		}
		if sp.Type != "" && m.Type != sp.Type {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(m.Text), query) {
			continue
		}
		results = append(results, m)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Timestamp.After(results[j].Timestamp)
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, err
}
