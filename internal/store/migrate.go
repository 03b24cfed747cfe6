package store

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rcliao/memoya/internal/model"
)

// MigrateLegacy moves the single pre-partitioning message array into monthly
// partitions and removes the legacy key. Messages are merged into any
// partition that already exists and ids already present are skipped, so a run
// interrupted before the legacy key is removed can simply be repeated.
func (p *Partitioned) MigrateLegacy(ctx context.Context) (MigrationReport, error) {
	report := MigrationReport{Partitions: []string{}}

	p.mu.Lock()
	defer p.mu.Unlock()

	raw, ok, err := p.kv.Get(ctx, p.legacyKey)
	if err != nil {
		p.logger.Error("migrate: read legacy key", "key", p.legacyKey, "err", err)
		return report, &StorageError{Op: "get", Key: p.legacyKey, Err: err}
	}
	if !ok {
		return report, nil
	}

	var legacy []model.Message
	if strings.TrimSpace(raw) != "" {
		legacy, err = decodeMessages(p.legacyKey, raw)
		if err != nil {
			p.logger.Error("migrate: parse legacy key", "err", err)
			return report, err
		}
	}

	byMonth := map[string][]model.Message{}
	for i, m := range legacy {
		if m.ID == "" {
			m.ID = legacyID(i, m)
		}
		month := p.MonthKeyOf(m.Timestamp)
		byMonth[month] = append(byMonth[month], m)
	}

	months := make([]string, 0, len(byMonth))
	for month := range byMonth {
		months = append(months, month)
	}
	sort.Strings(months)

	for _, month := range months {
		existing, err := p.load(ctx, month)
		if err != nil {
			p.logger.Error("migrate: load partition", "month", month, "err", err)
			return report, err
		}

		seen := make(map[string]bool, len(existing))
		for _, m := range existing {
			seen[m.ID] = true
		}
		merged := existing
		for _, m := range byMonth[month] {
			if seen[m.ID] {
				report.Skipped++
				continue
			}
			seen[m.ID] = true
			merged = append(merged, m)
			report.Migrated++
		}
		sort.SliceStable(merged, func(i, j int) bool {
			return merged[i].Timestamp.Before(merged[j].Timestamp)
		})

		if err := p.save(ctx, month, merged); err != nil {
			p.logger.Error("migrate: persist partition", "month", month, "err", err)
			return report, err
		}
		report.Partitions = append(report.Partitions, month)
	}

	if err := p.kv.Remove(ctx, p.legacyKey); err != nil {
		p.logger.Error("migrate: remove legacy key", "err", err)
		return report, &StorageError{Op: "remove", Key: p.legacyKey, Err: err}
	}
	p.logger.Info("migration completed", "messages", report.Migrated, "partitions", len(report.Partitions))
	return report, nil
}

// legacyID derives an id for a legacy entry that has none. It depends only on
// the entry and its position, so a repeated migration yields the same id and
// the entry is skipped instead of duplicated.
func legacyID(i int, m model.Message) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d\x00%s\x00%s", i, m.Timestamp.Format(time.RFC3339Nano), m.Text)))
	var ms uint64
	if m.Timestamp.After(time.Unix(0, 0)) {
		ms = ulid.Timestamp(m.Timestamp)
	}
	return ulid.MustNew(ms, bytes.NewReader(sum[:])).String()
}
