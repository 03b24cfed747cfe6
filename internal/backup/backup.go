// Package backup dumps the whole substrate to a JSON file and restores it.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rcliao/memoya/internal/kv"
	"github.com/rcliao/memoya/internal/room"
	"github.com/rcliao/memoya/internal/store"
)

// Version is written into every backup envelope.
const Version = "1.0.0"

const filePrefix = "memoya-backup-"

// Envelope is the on-disk backup format. Values that hold JSON are embedded
// as JSON; anything else, including JSON string literals, is kept as a string.
type Envelope struct {
	Version   string                     `json:"version"`
	Timestamp time.Time                  `json:"timestamp"`
	Data      map[string]json.RawMessage `json:"data"`
}

// Summary describes a backup file.
type Summary struct {
	Path       string    `json:"path"`
	Version    string    `json:"version"`
	Timestamp  time.Time `json:"timestamp"`
	Keys       int       `json:"keys"`
	Rooms      int       `json:"rooms"`
	Memos      int       `json:"memos"`
	Partitions int       `json:"partitions"`
	Messages   int       `json:"messages"`
}

func encodeValue(v string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(v)
	if json.Valid([]byte(trimmed)) && !strings.HasPrefix(trimmed, `"`) {
		return json.RawMessage(trimmed), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func decodeValue(raw json.RawMessage) (string, error) {
	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte(`"`)) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Create writes every substrate key to path.
func Create(ctx context.Context, s kv.Store, path string, now time.Time) (*Summary, error) {
	keys, err := s.AllKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	values, err := s.MultiGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("read keys: %w", err)
	}

	env := Envelope{Version: Version, Timestamp: now.UTC(), Data: make(map[string]json.RawMessage, len(values))}
	for k, v := range values {
		raw, err := encodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", k, err)
		}
		env.Data[k] = raw
	}

	b, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return nil, fmt.Errorf("write backup: %w", err)
	}
	return summarize(path, &env), nil
}

// Read loads and validates a backup file.
func Read(path string) (*Envelope, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("parse backup: %w", err)
	}
	if env.Version == "" || env.Timestamp.IsZero() || env.Data == nil {
		return nil, fmt.Errorf("invalid backup: missing version, timestamp or data")
	}
	return &env, nil
}

// Info summarizes the backup at path.
func Info(path string) (*Summary, error) {
	env, err := Read(path)
	if err != nil {
		return nil, err
	}
	return summarize(path, env), nil
}

func summarize(path string, env *Envelope) *Summary {
	sum := &Summary{Path: path, Version: env.Version, Timestamp: env.Timestamp, Keys: len(env.Data)}
	count := func(raw json.RawMessage) int {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return 0
		}
		return len(items)
	}
	for k, raw := range env.Data {
		switch {
		case k == room.RoomsKey:
			sum.Rooms = count(raw)
		case strings.HasPrefix(k, "memos"):
			sum.Memos += count(raw)
		case strings.HasPrefix(k, store.DefaultPrefix) && store.ValidMonth(strings.TrimPrefix(k, store.DefaultPrefix)):
			sum.Partitions++
			sum.Messages += count(raw)
		}
	}
	return sum
}

// Restore replaces the whole substrate with the backup at path.
func Restore(ctx context.Context, s kv.Store, path string) (*Summary, error) {
	env, err := Read(path)
	if err != nil {
		return nil, err
	}
	entries := make(map[string]string, len(env.Data))
	for k, raw := range env.Data {
		if len(raw) == 0 {
			continue
		}
		v, err := decodeValue(raw)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", k, err)
		}
		entries[k] = v
	}

	if err := s.Clear(ctx); err != nil {
		return nil, fmt.Errorf("clear substrate: %w", err)
	}
	if err := s.MultiSet(ctx, entries); err != nil {
		return nil, fmt.Errorf("restore keys: %w", err)
	}
	return summarize(path, env), nil
}

// ExportCopy copies the backup at path into dir under a timestamped name and
// returns the new path.
func ExportCopy(path, dir string, now time.Time) (string, error) {
	if _, err := Read(path); err != nil {
		return "", err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read backup: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	out := filepath.Join(dir, FileName(now))
	if err := os.WriteFile(out, b, 0o600); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return out, nil
}

// FileName returns the timestamped backup file name for now.
func FileName(now time.Time) string {
	return filePrefix + now.UTC().Format("2006-01-02_15-04-05") + ".json"
}

// List returns the timestamped backups in dir, newest first. A missing dir
// has no backups.
func List(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, filePrefix+"*.json"))
	if err != nil {
		return nil, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	if matches == nil {
		matches = []string{}
	}
	return matches, nil
}
