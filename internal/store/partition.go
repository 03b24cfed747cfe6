package store

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/oklog/ulid/v2"

	"github.com/rcliao/memoya/internal/kv"
	"github.com/rcliao/memoya/internal/model"
)

// Options configures a Partitioned store. Zero values take the defaults.
type Options struct {
	Prefix    string
	LegacyKey string
	// Horizon bounds how many recent months id-targeted operations scan.
	// Messages older than the horizon cannot be updated, deleted or purged.
	Horizon  int
	Location *time.Location
	Now      func() time.Time
	Logger   *log.Logger
}

// Partitioned implements Store with one substrate key per calendar month.
type Partitioned struct {
	kv        kv.Store
	prefix    string
	legacyKey string
	horizon   int
	loc       *time.Location
	now       func() time.Time
	logger    *log.Logger

	// mu serializes read-modify-write cycles issued through this value.
	mu sync.Mutex

	idMu    sync.Mutex
	entropy *rand.Rand
}

var _ Store = (*Partitioned)(nil)

// New returns a partitioned store over the given substrate.
func New(substrate kv.Store, opts Options) *Partitioned {
	p := &Partitioned{
		kv:        substrate,
		prefix:    opts.Prefix,
		legacyKey: opts.LegacyKey,
		horizon:   opts.Horizon,
		loc:       opts.Location,
		now:       opts.Now,
		logger:    opts.Logger,
		entropy:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if p.prefix == "" {
		p.prefix = DefaultPrefix
	}
	if p.legacyKey == "" {
		p.legacyKey = DefaultLegacyKey
	}
	if p.horizon <= 0 {
		p.horizon = DefaultHorizon
	}
	if p.loc == nil {
		p.loc = time.Local
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.logger == nil {
		p.logger = log.Default()
	}
	return p
}

// Horizon returns the number of months id-targeted operations scan.
func (p *Partitioned) Horizon() int { return p.horizon }

// CurrentMonthKey returns the label of the partition new messages go to.
func (p *Partitioned) CurrentMonthKey() string {
	return MonthKey(p.now(), p.loc)
}

// MonthKeyOf returns the partition label for t.
func (p *Partitioned) MonthKeyOf(t time.Time) string {
	return MonthKey(t, p.loc)
}

// RecentMonthKeys returns the n most recent labels ending at the current month.
func (p *Partitioned) RecentMonthKeys(n int) []string {
	return RecentMonthKeys(p.now(), n, p.loc)
}

// checkMonth rejects a timestamp whose partition lies beyond the current month.
func (p *Partitioned) checkMonth(t time.Time) error {
	if month := p.MonthKeyOf(t); month > p.CurrentMonthKey() {
		return fmt.Errorf("%w: %s", ErrFutureMonth, month)
	}
	return nil
}

func (p *Partitioned) storageKey(month string) string {
	return p.prefix + month
}

func (p *Partitioned) newID() string {
	p.idMu.Lock()
	defer p.idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(p.now()), p.entropy).String()
}

// load reads one partition. An absent key is an empty partition.
func (p *Partitioned) load(ctx context.Context, month string) ([]model.Message, error) {
	key := p.storageKey(month)
	raw, ok, err := p.kv.Get(ctx, key)
	if err != nil {
		return nil, &StorageError{Op: "get", Key: key, Err: err}
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return []model.Message{}, nil
	}
	return decodeMessages(key, raw)
}

func (p *Partitioned) save(ctx context.Context, month string, msgs []model.Message) error {
	key := p.storageKey(month)
	b, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	if err := p.kv.Set(ctx, key, string(b)); err != nil {
		return &StorageError{Op: "set", Key: key, Err: err}
	}
	return nil
}

func decodeMessages(key, raw string) ([]model.Message, error) {
	var msgs []model.Message
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		return nil, &ParseError{Key: key, Err: err}
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	return msgs, nil
}

// horizonMonths lists the months id lookups scan: the current month first,
// then the rest of the horizon, most recent first.
func (p *Partitioned) horizonMonths() []string {
	return p.RecentMonthKeys(p.horizon)
}

// findIn returns the index of id within msgs, or -1.
func findIn(msgs []model.Message, id string) int {
	for i := range msgs {
		if msgs[i].ID == id {
			return i
		}
	}
	return -1
}
