// Package model defines the core chat, memo and room data types.
package model

import (
	"encoding/json"
	"time"
)

// MessageType tags where a message came from.
type MessageType string

const (
	TypeUser   MessageType = "user"
	TypeAI     MessageType = "ai"
	TypeMemo   MessageType = "memo"
	TypeRecord MessageType = "record"
)

// ValidTypes are the allowed message types.
var ValidTypes = map[MessageType]bool{
	TypeUser:   true,
	TypeAI:     true,
	TypeMemo:   true,
	TypeRecord: true,
}

// State is the tombstone lifecycle state of a message or memo.
type State string

const (
	StateActive             State = "active"
	StateDeleted            State = "deleted"
	StatePermanentlyDeleted State = "permanently_deleted"
)

// Message is a single chat or memo entry. Its Timestamp fixes the monthly
// partition it lives in and never changes after creation.
type Message struct {
	ID                   string      `json:"id" yaml:"id"`
	Text                 string      `json:"text" yaml:"text"`
	Type                 MessageType `json:"type" yaml:"type"`
	Timestamp            time.Time   `json:"timestamp" yaml:"timestamp"`
	IsMemory             bool        `json:"isMemory,omitempty" yaml:"isMemory,omitempty"`
	IsFavorite           bool        `json:"isFavorite,omitempty" yaml:"isFavorite,omitempty"`
	MemoStatus           State       `json:"memoStatus,omitempty" yaml:"memoStatus,omitempty"`
	IsDeleted            bool        `json:"isDeleted,omitempty" yaml:"isDeleted,omitempty"`
	DeletedAt            *time.Time  `json:"deletedAt,omitempty" yaml:"deletedAt,omitempty"`
	IsPermanentlyDeleted bool        `json:"isPermanentlyDeleted,omitempty" yaml:"isPermanentlyDeleted,omitempty"`
}

// UnmarshalJSON accepts "content" as an alias for "text".
func (m *Message) UnmarshalJSON(b []byte) error {
	type plain Message
	var aux struct {
		plain
		Content string `json:"content"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*m = Message(aux.plain)
	if m.Text == "" && aux.Content != "" {
		m.Text = aux.Content
	}
	return nil
}

// State reports where the message sits in the delete lifecycle.
func (m Message) State() State {
	switch {
	case m.IsPermanentlyDeleted:
		return StatePermanentlyDeleted
	case m.IsDeleted:
		return StateDeleted
	default:
		return StateActive
	}
}

// Visible reports whether the message belongs in the normal chat view.
func (m Message) Visible() bool {
	return m.State() == StateActive
}

// IsConversation reports whether the message is a user or assistant turn.
func (m Message) IsConversation() bool {
	return m.Type == TypeUser || m.Type == TypeAI
}
