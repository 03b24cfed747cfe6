package model

import "time"

// Memo is a standalone memo kept in a room's memo list.
type Memo struct {
	ID         string     `json:"id"`
	Content    string     `json:"content"`
	Title      string     `json:"title,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
	IsFavorite bool       `json:"isFavorite,omitempty"`
	DeletedAt  *time.Time `json:"deletedAt,omitempty"`
}

// LastMessage is the preview shown for a room.
type LastMessage struct {
	Text      string      `json:"text"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}

// ChatRoom groups messages and memos under one conversation.
type ChatRoom struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
	MessageCount int          `json:"messageCount"`
	MemoCount    int          `json:"memoCount"`
	LastMessage  *LastMessage `json:"lastMessage,omitempty"`
}
