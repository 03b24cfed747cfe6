package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rcliao/memoya/internal/model"
)

func (p *Partitioned) Append(ctx context.Context, msg model.Message) (model.Message, error) {
	if msg.ID == "" {
		msg.ID = p.newID()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = p.now()
	}
	if msg.Type == "" {
		msg.Type = model.TypeUser
	}
	if !model.ValidTypes[msg.Type] {
		return msg, fmt.Errorf("invalid message type %q", msg.Type)
	}
	if err := p.checkMonth(msg.Timestamp); err != nil {
		return msg, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	month := p.MonthKeyOf(msg.Timestamp)
	msgs, err := p.load(ctx, month)
	if err != nil {
		p.logger.Error("append: load partition", "month", month, "err", err)
		return msg, err
	}
	msgs = append(msgs, msg)
	if err := p.save(ctx, month, msgs); err != nil {
		p.logger.Error("append: persist partition", "month", month, "err", err)
		return msg, err
	}
	p.logger.Debug("appended message", "id", msg.ID, "month", month)
	return msg, nil
}

func (p *Partitioned) UpdateByID(ctx context.Context, id string, patch Patch) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, month := range p.horizonMonths() {
		msgs, err := p.load(ctx, month)
		if err != nil {
			p.logger.Error("update: load partition", "month", month, "err", err)
			return Result{Outcome: NotFound}, err
		}
		i := findIn(msgs, id)
		if i < 0 {
			continue
		}
		patch.apply(&msgs[i])
		if err := p.save(ctx, month, msgs); err != nil {
			p.logger.Error("update: persist partition", "month", month, "err", err)
			return Result{Outcome: NotFound}, err
		}
		return Result{Outcome: Applied, Month: month}, nil
	}

	p.logger.Debug("update: id not within horizon", "id", id, "horizon", p.horizon)
	return Result{Outcome: NotFound}, nil
}

func (p *Partitioned) SoftDelete(ctx context.Context, id string) (Result, error) {
	deleted := true
	now := p.now()
	return p.UpdateByID(ctx, id, Patch{IsDeleted: &deleted, DeletedAt: &now})
}

func (p *Partitioned) Restore(ctx context.Context, id string) (Result, error) {
	deleted := false
	return p.UpdateByID(ctx, id, Patch{IsDeleted: &deleted, ClearDeletedAt: true})
}

func (p *Partitioned) MarkPermanentlyDeleted(ctx context.Context, id string) (Result, error) {
	gone := true
	return p.UpdateByID(ctx, id, Patch{IsPermanentlyDeleted: &gone})
}

func (p *Partitioned) Purge(ctx context.Context, id string) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, month := range p.horizonMonths() {
		msgs, err := p.load(ctx, month)
		if err != nil {
			p.logger.Error("purge: load partition", "month", month, "err", err)
			return Result{Outcome: NotFound}, err
		}
		i := findIn(msgs, id)
		if i < 0 {
			continue
		}
		msgs = append(msgs[:i], msgs[i+1:]...)
		if err := p.save(ctx, month, msgs); err != nil {
			p.logger.Error("purge: persist partition", "month", month, "err", err)
			return Result{Outcome: NotFound}, err
		}
		return Result{Outcome: Applied, Month: month}, nil
	}
	return Result{Outcome: NotFound}, nil
}

func (p *Partitioned) Get(ctx context.Context, id string) (*model.Message, Result, error) {
	for _, month := range p.horizonMonths() {
		msgs, err := p.load(ctx, month)
		if err != nil {
			p.logger.Error("get: load partition", "month", month, "err", err)
			return nil, Result{Outcome: NotFound}, err
		}
		if i := findIn(msgs, id); i >= 0 {
			m := msgs[i]
			return &m, Result{Outcome: Applied, Month: month}, nil
		}
	}
	return nil, Result{Outcome: NotFound}, nil
}

func (p *Partitioned) Paginate(ctx context.Context, monthsToLoad int) ([]model.Message, error) {
	if monthsToLoad < 1 {
		monthsToLoad = 1
	}
	return p.loadMonths(ctx, p.RecentMonthKeys(monthsToLoad))
}

// loadMonths concatenates the given partitions sorted ascending by timestamp.
// Partitions that fail to load are skipped; their errors are joined.
func (p *Partitioned) loadMonths(ctx context.Context, months []string) ([]model.Message, error) {
	all := []model.Message{}
	var errs []error
	for _, month := range months {
		msgs, err := p.load(ctx, month)
		if err != nil {
			p.logger.Error("load partition", "month", month, "err", err)
			errs = append(errs, err)
			continue
		}
		all = append(all, msgs...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp.Before(all[j].Timestamp)
	})
	return all, errors.Join(errs...)
}

func (p *Partitioned) ListPartitions(ctx context.Context) ([]string, error) {
	keys, err := p.kv.AllKeys(ctx)
	if err != nil {
		p.logger.Error("list partitions", "err", err)
		return []string{}, &StorageError{Op: "keys", Key: p.prefix + "*", Err: err}
	}

	months := []string{}
	for _, k := range keys {
		if !strings.HasPrefix(k, p.prefix) {
			continue
		}
		label := strings.TrimPrefix(k, p.prefix)
		if ValidMonth(label) {
			months = append(months, label)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months, nil
}

func (p *Partitioned) HasMore(ctx context.Context, monthsLoaded int) (bool, error) {
	months, err := p.ListPartitions(ctx)
	if err != nil {
		return false, err
	}
	return len(months) > monthsLoaded, nil
}

func (p *Partitioned) Deleted(ctx context.Context) ([]model.Message, error) {
	msgs, err := p.loadMonths(ctx, p.horizonMonths())
	trash := []model.Message{}
	for _, m := range msgs {
		if m.IsDeleted && !m.IsPermanentlyDeleted {
			trash = append(trash, m)
		}
	}
	sort.SliceStable(trash, func(i, j int) bool {
		return trash[i].Timestamp.After(trash[j].Timestamp)
	})
	return trash, err
}

func (p *Partitioned) Clear(ctx context.Context) error {
	months, err := p.ListPartitions(ctx)
	if err != nil {
		return err
	}
	keys := make([]string, len(months))
	for i, m := range months {
		keys[i] = p.storageKey(m)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.kv.MultiRemove(ctx, keys); err != nil {
		p.logger.Error("clear partitions", "err", err)
		return &StorageError{Op: "remove", Key: p.prefix + "*", Err: err}
	}
	p.logger.Info("cleared messages", "partitions", len(keys))
	return nil
}
