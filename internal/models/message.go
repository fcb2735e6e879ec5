package models

import (
	"database/sql"
	"time"
)

// MaxMessageLen bounds message text at write time.
const MaxMessageLen = 1000

// Message is an append-only entry in a chat. Only ReadAt ever mutates.
type Message struct {
	ID        int64        `db:"id" json:"id"`
	ChatID    string       `db:"chat_id" json:"chat_id"`
	SenderID  string       `db:"sender_id" json:"sender_id"`
	Text      string       `db:"text" json:"text"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	ReadAt    sql.NullTime `db:"read_at" json:"-"`
}

// MessageView is the per-requester API shape of a message.
type MessageView struct {
	ID                int64      `json:"id"`
	ChatID            string     `json:"chat_id"`
	SenderID          string     `json:"sender_id"`
	Text              string     `json:"text"`
	CreatedAt         time.Time  `json:"created_at"`
	ReadAt            *time.Time `json:"read_at,omitempty"`
	IsFromCurrentUser bool       `json:"is_from_current_user"`
}

// ViewFor derives the requester-relative view of the message.
func (m Message) ViewFor(userID string) MessageView {
	v := MessageView{
		ID:                m.ID,
		ChatID:            m.ChatID,
		SenderID:          m.SenderID,
		Text:              m.Text,
		CreatedAt:         m.CreatedAt,
		IsFromCurrentUser: m.SenderID == userID,
	}
	if m.ReadAt.Valid {
		t := m.ReadAt.Time
		v.ReadAt = &t
	}
	return v
}

// MessagePage is one page of a chat's history, oldest first.
type MessagePage struct {
	Messages   []Message `json:"messages"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	Total      int       `json:"total"`
	TotalPages int       `json:"total_pages"`
	HasMore    bool      `json:"has_more"`
}

// ChatEvent is broadcast through websockets to chat subscribers.
type ChatEvent struct {
	Type    string   `json:"type"`
	Message *Message `json:"message,omitempty"`
	Offer   *Offer   `json:"offer,omitempty"`
}
