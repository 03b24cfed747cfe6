package store

import (
	"context"
	"errors"
)

// Stats holds message store statistics.
type Stats struct {
	TotalMessages  int              `json:"total_messages"`
	ActiveMessages int              `json:"active_messages"`
	Deleted        int              `json:"deleted"`
	Horizon        int              `json:"horizon"`
	LegacyPending  bool             `json:"legacy_pending"`
	Partitions     []PartitionStats `json:"partitions"`
}

// PartitionStats holds per-month counts.
type PartitionStats struct {
	Month   string `json:"month"`
	Count   int    `json:"count"`
	Active  int    `json:"active"`
	Deleted int    `json:"deleted"`
	Bytes   int    `json:"bytes"`
}

// Stats returns counts for every stored partition.
func (p *Partitioned) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{Horizon: p.horizon, Partitions: []PartitionStats{}}

	if _, ok, err := p.kv.Get(ctx, p.legacyKey); err == nil {
		st.LegacyPending = ok
	}

	months, err := p.ListPartitions(ctx)
	if err != nil {
		return st, err
	}

	var errs []error
	for _, month := range months {
		key := p.storageKey(month)
		raw, _, err := p.kv.Get(ctx, key)
		if err != nil {
			errs = append(errs, &StorageError{Op: "get", Key: key, Err: err})
			continue
		}
		msgs, err := decodeMessages(key, raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		ps := PartitionStats{Month: month, Count: len(msgs), Bytes: len(raw)}
		for _, m := range msgs {
			if m.Visible() {
				ps.Active++
			} else if m.IsDeleted && !m.IsPermanentlyDeleted {
				ps.Deleted++
			}
		}
		st.TotalMessages += ps.Count
		st.ActiveMessages += ps.Active
		st.Deleted += ps.Deleted
		st.Partitions = append(st.Partitions, ps)
	}

	return st, errors.Join(errs...)
}
