package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/rcliao/memoya/internal/model"
)

// ExportAll returns every stored message across all partitions, oldest first.
// Unlike Paginate it is not bounded by the current month.
func (p *Partitioned) ExportAll(ctx context.Context) ([]model.Message, error) {
	months, err := p.ListPartitions(ctx)
	if err != nil {
		return []model.Message{}, err
	}
	sort.Strings(months)
	return p.loadMonths(ctx, months)
}

// Import appends messages from an export into the partition of each
// message's own timestamp. Ids already present in that partition are skipped.
func (p *Partitioned) Import(ctx context.Context, msgs []model.Message) (int, error) {
	byMonth := map[string][]model.Message{}
	for _, m := range msgs {
		if m.Timestamp.IsZero() {
			m.Timestamp = p.now()
		}
		if m.ID == "" {
			m.ID = p.newID()
		}
		if err := p.checkMonth(m.Timestamp); err != nil {
			return 0, fmt.Errorf("import %s: %w", m.ID, err)
		}
		month := p.MonthKeyOf(m.Timestamp)
		byMonth[month] = append(byMonth[month], m)
	}

	months := make([]string, 0, len(byMonth))
	for month := range byMonth {
		months = append(months, month)
	}
	sort.Strings(months)

	p.mu.Lock()
	defer p.mu.Unlock()

	imported := 0
	for _, month := range months {
		existing, err := p.load(ctx, month)
		if err != nil {
			return imported, err
		}
		seen := make(map[string]bool, len(existing))
		for _, m := range existing {
			seen[m.ID] = true
		}
		added := 0
		for _, m := range byMonth[month] {
			if seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			existing = append(existing, m)
			added++
		}
		if added == 0 {
			continue
		}
		if err := p.save(ctx, month, existing); err != nil {
			return imported, err
		}
		imported += added
	}
	return imported, nil
}
