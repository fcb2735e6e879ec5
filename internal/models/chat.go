package models

import "time"

// Chat is a conversation between a buyer and a seller about one listing.
type Chat struct {
	ID             string    `db:"id" json:"id"`
	ListingID      string    `db:"listing_id" json:"listing_id"`
	BuyerID        string    `db:"buyer_id" json:"buyer_id"`
	SellerID       string    `db:"seller_id" json:"seller_id"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	LastActivityAt time.Time `db:"last_activity_at" json:"last_activity_at"`
}

// HasParticipant reports whether userID is one of the two parties.
func (c Chat) HasParticipant(userID string) bool {
	return c.BuyerID == userID || c.SellerID == userID
}

// OtherParticipant returns the counterpart of userID in the chat.
func (c Chat) OtherParticipant(userID string) string {
	if c.BuyerID == userID {
		return c.SellerID
	}
	return c.BuyerID
}

// ChatSummary is the API view of a chat in the user's conversation list.
type ChatSummary struct {
	ChatID         string    `db:"id" json:"chat_id"`
	ListingID      string    `db:"listing_id" json:"listing_id"`
	CounterpartID  string    `json:"counterpart_id"`
	UnreadCount    int       `db:"unread_count" json:"unread_count"`
	LastActivityAt time.Time `db:"last_activity_at" json:"last_activity_at"`
}

// HiddenConversation hides a chat from one user's list without affecting
// the other participant.
type HiddenConversation struct {
	UserID   string    `db:"user_id" json:"user_id"`
	ChatID   string    `db:"chat_id" json:"chat_id"`
	HiddenAt time.Time `db:"hidden_at" json:"hidden_at"`
}

// UserBlock hides all conversation with the blocked user from the blocker's
// chat list. It is a list-level filter, not a message-read gate.
type UserBlock struct {
	BlockerID string    `db:"blocker_id" json:"blocker_id"`
	BlockedID string    `db:"blocked_id" json:"blocked_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
