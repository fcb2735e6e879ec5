package models

import (
	"database/sql"
	"fmt"
	"time"
)

// Offer statuses. Pending is the only non-terminal state.
const (
	OfferPending  = "pending"
	OfferAccepted = "accepted"
	OfferDeclined = "declined"
	OfferRevoked  = "revoked"
	OfferExpired  = "expired"
)

// Offer actions dispatched through a single entry point so the expiry and
// authorization checks run identically for every transition.
const (
	ActionAccept  = "accept"
	ActionDecline = "decline"
	ActionRevoke  = "revoke"
)

// Offer is a proposed satoshi amount attached to a chat.
type Offer struct {
	ID         string       `db:"id" json:"id"`
	ChatID     string       `db:"chat_id" json:"chat_id"`
	ListingID  string       `db:"listing_id" json:"listing_id"`
	FromUserID string       `db:"from_user_id" json:"from_user_id"`
	ToUserID   string       `db:"to_user_id" json:"to_user_id"`
	AmountSats int64        `db:"amount_sats" json:"amount_sats"`
	Status     string       `db:"status" json:"status"`
	ExpiresAt  sql.NullTime `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at" json:"updated_at"`
}

// IsExpiredAt reports whether the offer carries an expiry that has passed.
func (o Offer) IsExpiredAt(now time.Time) bool {
	return o.ExpiresAt.Valid && !o.ExpiresAt.Time.After(now)
}

// ValidAction reports whether action is one of accept, decline, revoke.
func ValidAction(action string) bool {
	switch action {
	case ActionAccept, ActionDecline, ActionRevoke:
		return true
	}
	return false
}

// ActionTarget returns the terminal status an action leads to.
func ActionTarget(action string) (string, error) {
	switch action {
	case ActionAccept:
		return OfferAccepted, nil
	case ActionDecline:
		return OfferDeclined, nil
	case ActionRevoke:
		return OfferRevoked, nil
	}
	return "", fmt.Errorf("unknown offer action %q", action)
}

// ActorFor returns the user entitled to perform the action: the recipient
// for accept/decline, the proposer for revoke.
func (o Offer) ActorFor(action string) string {
	if action == ActionRevoke {
		return o.FromUserID
	}
	return o.ToUserID
}
