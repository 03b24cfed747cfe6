// Package memo keeps per-room memo lists and exposes them to the assistant
// through a tool executor.
package memo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/oklog/ulid/v2"

	"github.com/rcliao/memoya/internal/kv"
	"github.com/rcliao/memoya/internal/model"
)

// ErrNotFound is returned when a memo id is in neither list of the room.
var ErrNotFound = errors.New("memo not found")

// ActiveKey returns the substrate key holding a room's active memos.
func ActiveKey(roomID string) string {
	if roomID == "" {
		return "memos"
	}
	return "memos_" + roomID
}

// TrashKey returns the substrate key holding a room's trashed memos.
func TrashKey(roomID string) string {
	if roomID == "" {
		return "trashedMemos"
	}
	return "trashedMemos_" + roomID
}

// Patch updates the editable fields of a memo. Nil fields are left alone.
type Patch struct {
	Title      *string
	Content    *string
	IsFavorite *bool
}

// Repo reads and writes memo lists. Active memos are kept newest first.
type Repo struct {
	kv     kv.Store
	logger *log.Logger
	now    func() time.Time

	mu      sync.Mutex
	entropy *rand.Rand
}

// NewRepo returns a memo repository over the substrate.
func NewRepo(substrate kv.Store, logger *log.Logger, now func() time.Time) *Repo {
	if logger == nil {
		logger = log.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Repo{
		kv:      substrate,
		logger:  logger,
		now:     now,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *Repo) read(ctx context.Context, key string) ([]model.Memo, error) {
	raw, ok, err := r.kv.Get(ctx, key)
	if err != nil {
		r.logger.Error("read memos", "key", key, "err", err)
		return []model.Memo{}, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return []model.Memo{}, nil
	}
	var memos []model.Memo
	if err := json.Unmarshal([]byte(raw), &memos); err != nil {
		r.logger.Error("parse memos", "key", key, "err", err)
		return []model.Memo{}, fmt.Errorf("parse %s: %w", key, err)
	}
	if memos == nil {
		memos = []model.Memo{}
	}
	return memos, nil
}

func (r *Repo) write(ctx context.Context, key string, memos []model.Memo) error {
	b, err := json.Marshal(memos)
	if err != nil {
		return err
	}
	if err := r.kv.Set(ctx, key, string(b)); err != nil {
		r.logger.Error("write memos", "key", key, "err", err)
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// List returns the room's active memos, newest first.
func (r *Repo) List(ctx context.Context, roomID string) ([]model.Memo, error) {
	return r.read(ctx, ActiveKey(roomID))
}

// Trashed returns the room's trashed memos, most recently trashed first.
func (r *Repo) Trashed(ctx context.Context, roomID string) ([]model.Memo, error) {
	return r.read(ctx, TrashKey(roomID))
}

// Add stores a new memo at the head of the active list.
func (r *Repo) Add(ctx context.Context, roomID string, m model.Memo) (model.Memo, error) {
	m.Content = strings.TrimSpace(m.Content)
	if m.Content == "" {
		return m, fmt.Errorf("memo content is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if m.ID == "" {
		m.ID = ulid.MustNew(ulid.Timestamp(r.now()), r.entropy).String()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = r.now()
	}
	m.DeletedAt = nil

	memos, err := r.read(ctx, ActiveKey(roomID))
	if err != nil {
		return m, err
	}
	memos = append([]model.Memo{m}, memos...)
	if err := r.write(ctx, ActiveKey(roomID), memos); err != nil {
		return m, err
	}
	return m, nil
}

// Update applies patch to an active memo.
func (r *Repo) Update(ctx context.Context, roomID, id string, patch Patch) (model.Memo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	memos, err := r.read(ctx, ActiveKey(roomID))
	if err != nil {
		return model.Memo{}, err
	}
	i := indexOf(memos, id)
	if i < 0 {
		return model.Memo{}, ErrNotFound
	}
	if patch.Title != nil {
		memos[i].Title = *patch.Title
	}
	if patch.Content != nil {
		memos[i].Content = *patch.Content
	}
	if patch.IsFavorite != nil {
		memos[i].IsFavorite = *patch.IsFavorite
	}
	if err := r.write(ctx, ActiveKey(roomID), memos); err != nil {
		return model.Memo{}, err
	}
	return memos[i], nil
}

// Trash moves an active memo to the head of the trash list.
func (r *Repo) Trash(ctx context.Context, roomID, id string) (model.Memo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	active, err := r.read(ctx, ActiveKey(roomID))
	if err != nil {
		return model.Memo{}, err
	}
	i := indexOf(active, id)
	if i < 0 {
		return model.Memo{}, ErrNotFound
	}
	trash, err := r.read(ctx, TrashKey(roomID))
	if err != nil {
		return model.Memo{}, err
	}

	m := active[i]
	now := r.now()
	m.DeletedAt = &now
	active = append(active[:i], active[i+1:]...)
	trash = append([]model.Memo{m}, trash...)

	// Trash is written first so a failure between the two writes leaves the
	// memo in both lists rather than in neither.
	if err := r.write(ctx, TrashKey(roomID), trash); err != nil {
		return model.Memo{}, err
	}
	if err := r.write(ctx, ActiveKey(roomID), active); err != nil {
		return model.Memo{}, err
	}
	return m, nil
}

// RestoreTrashed moves a trashed memo back into the active list, keeping the
// active list ordered newest first.
func (r *Repo) RestoreTrashed(ctx context.Context, roomID, id string) (model.Memo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	trash, err := r.read(ctx, TrashKey(roomID))
	if err != nil {
		return model.Memo{}, err
	}
	i := indexOf(trash, id)
	if i < 0 {
		return model.Memo{}, ErrNotFound
	}
	active, err := r.read(ctx, ActiveKey(roomID))
	if err != nil {
		return model.Memo{}, err
	}

	m := trash[i]
	m.DeletedAt = nil
	trash = append(trash[:i], trash[i+1:]...)
	if indexOf(active, id) < 0 {
		active = append(active, m)
		sort.SliceStable(active, func(a, b int) bool {
			return active[a].Timestamp.After(active[b].Timestamp)
		})
	}

	if err := r.write(ctx, ActiveKey(roomID), active); err != nil {
		return model.Memo{}, err
	}
	if err := r.write(ctx, TrashKey(roomID), trash); err != nil {
		return model.Memo{}, err
	}
	return m, nil
}

// PurgeTrashed permanently removes a memo from the trash.
func (r *Repo) PurgeTrashed(ctx context.Context, roomID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	trash, err := r.read(ctx, TrashKey(roomID))
	if err != nil {
		return err
	}
	i := indexOf(trash, id)
	if i < 0 {
		return ErrNotFound
	}
	trash = append(trash[:i], trash[i+1:]...)
	return r.write(ctx, TrashKey(roomID), trash)
}

// Status reports where a memo id sits. An id present in neither list has
// been permanently deleted.
func (r *Repo) Status(ctx context.Context, roomID, id string) (model.State, error) {
	active, trash, err := r.lists(ctx, roomID)
	if err != nil {
		return model.StateActive, err
	}
	return status(active, trash, id), nil
}

// AnnotateStatus fills MemoStatus on the record and memo messages of msgs,
// whose ids are the ids of the memos they produced in roomID.
func (r *Repo) AnnotateStatus(ctx context.Context, roomID string, msgs []model.Message) error {
	var active, trash []model.Memo
	loaded := false
	for i := range msgs {
		if msgs[i].Type != model.TypeRecord && msgs[i].Type != model.TypeMemo {
			continue
		}
		if !loaded {
			var err error
			if active, trash, err = r.lists(ctx, roomID); err != nil {
				return err
			}
			loaded = true
		}
		msgs[i].MemoStatus = status(active, trash, msgs[i].ID)
	}
	return nil
}

func (r *Repo) lists(ctx context.Context, roomID string) (active, trash []model.Memo, err error) {
	if active, err = r.read(ctx, ActiveKey(roomID)); err != nil {
		return nil, nil, err
	}
	if trash, err = r.read(ctx, TrashKey(roomID)); err != nil {
		return nil, nil, err
	}
	return active, trash, nil
}

func status(active, trash []model.Memo, id string) model.State {
	switch {
	case indexOf(active, id) >= 0:
		return model.StateActive
	case indexOf(trash, id) >= 0:
		return model.StateDeleted
	default:
		return model.StatePermanentlyDeleted
	}
}

func indexOf(memos []model.Memo, id string) int {
	for i := range memos {
		if memos[i].ID == id {
			return i
		}
	}
	return -1
}
