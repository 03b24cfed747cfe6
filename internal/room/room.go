// Package room manages chat rooms and the current-room pointer.
package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/rcliao/memoya/internal/kv"
	"github.com/rcliao/memoya/internal/memo"
	"github.com/rcliao/memoya/internal/model"
)

const (
	RoomsKey   = "chatRooms"
	CurrentKey = "currentRoomId"

	DefaultID    = "default-room"
	DefaultTitle = "Default"
)

var (
	// ErrLastRoom is returned when deleting the only remaining room.
	ErrLastRoom = errors.New("cannot delete the last room")
	// ErrNotFound is returned for an unknown room id.
	ErrNotFound = errors.New("room not found")
)

// MessagesKey returns the per-room chat message key removed with the room.
func MessagesKey(roomID string) string {
	return "chatMessages_" + roomID
}

// Metadata updates a room's counters and preview. Nil fields are left alone.
type Metadata struct {
	MessageCount *int
	MemoCount    *int
	LastMessage  *model.LastMessage
}

// Manager reads and writes the room list.
type Manager struct {
	kv     kv.Store
	logger *log.Logger
	now    func() time.Time
	mu     sync.Mutex
}

// NewManager returns a room manager over the substrate.
func NewManager(substrate kv.Store, logger *log.Logger, now func() time.Time) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Manager{kv: substrate, logger: logger, now: now}
}

func (m *Manager) read(ctx context.Context) ([]model.ChatRoom, bool, error) {
	raw, ok, err := m.kv.Get(ctx, RoomsKey)
	if err != nil {
		return nil, false, fmt.Errorf("read rooms: %w", err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return []model.ChatRoom{}, false, nil
	}
	var rooms []model.ChatRoom
	if err := json.Unmarshal([]byte(raw), &rooms); err != nil {
		return nil, false, fmt.Errorf("parse rooms: %w", err)
	}
	return rooms, true, nil
}

func (m *Manager) write(ctx context.Context, rooms []model.ChatRoom) error {
	b, err := json.Marshal(rooms)
	if err != nil {
		return err
	}
	if err := m.kv.Set(ctx, RoomsKey, string(b)); err != nil {
		m.logger.Error("write rooms", "err", err)
		return fmt.Errorf("write rooms: %w", err)
	}
	return nil
}

// Load returns every room, creating the default room on first use.
func (m *Manager) Load(ctx context.Context) ([]model.ChatRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(ctx)
}

func (m *Manager) load(ctx context.Context) ([]model.ChatRoom, error) {
	rooms, ok, err := m.read(ctx)
	if err != nil {
		m.logger.Error("load rooms", "err", err)
		return []model.ChatRoom{}, err
	}
	if ok {
		return rooms, nil
	}

	now := m.now()
	def := model.ChatRoom{ID: DefaultID, Title: DefaultTitle, CreatedAt: now, UpdatedAt: now}
	rooms = []model.ChatRoom{def}
	if err := m.write(ctx, rooms); err != nil {
		return rooms, err
	}
	if err := m.kv.Set(ctx, CurrentKey, def.ID); err != nil {
		return rooms, fmt.Errorf("write current room: %w", err)
	}
	m.logger.Info("created default room")
	return rooms, nil
}

// Create adds a room and makes it current. An empty title gets a numbered
// default.
func (m *Manager) Create(ctx context.Context, title string) (model.ChatRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rooms, err := m.load(ctx)
	if err != nil {
		return model.ChatRoom{}, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = fmt.Sprintf("New chat %d", len(rooms)+1)
	}
	now := m.now()
	r := model.ChatRoom{
		ID:        "room-" + uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.write(ctx, append(rooms, r)); err != nil {
		return model.ChatRoom{}, err
	}
	if err := m.kv.Set(ctx, CurrentKey, r.ID); err != nil {
		return r, fmt.Errorf("write current room: %w", err)
	}
	return r, nil
}

func (m *Manager) update(ctx context.Context, id string, fn func(*model.ChatRoom)) (model.ChatRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rooms, err := m.load(ctx)
	if err != nil {
		return model.ChatRoom{}, err
	}
	for i := range rooms {
		if rooms[i].ID != id {
			continue
		}
		fn(&rooms[i])
		rooms[i].UpdatedAt = m.now()
		if err := m.write(ctx, rooms); err != nil {
			return model.ChatRoom{}, err
		}
		return rooms[i], nil
	}
	return model.ChatRoom{}, ErrNotFound
}

// Rename changes a room's title.
func (m *Manager) Rename(ctx context.Context, id, title string) (model.ChatRoom, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.ChatRoom{}, fmt.Errorf("room title is required")
	}
	return m.update(ctx, id, func(r *model.ChatRoom) { r.Title = title })
}

// UpdateMetadata refreshes a room's counters and last message preview.
func (m *Manager) UpdateMetadata(ctx context.Context, id string, md Metadata) (model.ChatRoom, error) {
	return m.update(ctx, id, func(r *model.ChatRoom) {
		if md.MessageCount != nil {
			r.MessageCount = *md.MessageCount
		}
		if md.MemoCount != nil {
			r.MemoCount = *md.MemoCount
		}
		if md.LastMessage != nil {
			lm := *md.LastMessage
			r.LastMessage = &lm
		}
	})
}

// RecordMessages adds n to a room's message count and, when last is set,
// replaces its preview.
func (m *Manager) RecordMessages(ctx context.Context, id string, n int, last *model.LastMessage) (model.ChatRoom, error) {
	return m.update(ctx, id, func(r *model.ChatRoom) {
		r.MessageCount += n
		if last != nil {
			lm := *last
			r.LastMessage = &lm
		}
	})
}

// Delete removes a room and its per-room data. If it was current, the first
// remaining room becomes current.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rooms, err := m.load(ctx)
	if err != nil {
		return err
	}
	if len(rooms) <= 1 {
		return ErrLastRoom
	}
	kept := make([]model.ChatRoom, 0, len(rooms)-1)
	for _, r := range rooms {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(rooms) {
		return ErrNotFound
	}

	keys := []string{MessagesKey(id), memo.ActiveKey(id), memo.TrashKey(id)}
	if err := m.kv.MultiRemove(ctx, keys); err != nil {
		m.logger.Error("remove room data", "room", id, "err", err)
		return fmt.Errorf("remove room data: %w", err)
	}
	if err := m.write(ctx, kept); err != nil {
		return err
	}

	current, _, err := m.kv.Get(ctx, CurrentKey)
	if err != nil {
		return fmt.Errorf("read current room: %w", err)
	}
	if current == id {
		if err := m.kv.Set(ctx, CurrentKey, kept[0].ID); err != nil {
			return fmt.Errorf("write current room: %w", err)
		}
	}
	return nil
}

// SetCurrent makes an existing room current.
func (m *Manager) SetCurrent(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rooms, err := m.load(ctx)
	if err != nil {
		return err
	}
	for _, r := range rooms {
		if r.ID == id {
			return m.kv.Set(ctx, CurrentKey, id)
		}
	}
	return ErrNotFound
}

// Current returns the current room. A missing or dangling pointer falls back
// to the first room.
func (m *Manager) Current(ctx context.Context) (model.ChatRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rooms, err := m.load(ctx)
	if err != nil {
		return model.ChatRoom{}, err
	}
	id, _, err := m.kv.Get(ctx, CurrentKey)
	if err != nil {
		return model.ChatRoom{}, fmt.Errorf("read current room: %w", err)
	}
	for _, r := range rooms {
		if r.ID == id {
			return r, nil
		}
	}
	if len(rooms) == 0 {
		return model.ChatRoom{}, ErrNotFound
	}
	return rooms[0], nil
}
