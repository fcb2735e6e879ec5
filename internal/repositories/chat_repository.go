package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"bitsbarter/internal/models"
)

var ErrChatNotFound = errors.New("chat not found")

const chatColumns = `id, listing_id, buyer_id, seller_id, created_at, last_activity_at`

// ChatRepository abstracts chat persistence and the participant gate.
type ChatRepository interface {
	ResolveChat(ctx context.Context, listingID string, buyerID string, sellerID string) (models.Chat, error)
	GetChat(ctx context.Context, chatID string) (models.Chat, error)
	IsParticipant(ctx context.Context, chatID string, userID string) (bool, error)
	ListChats(ctx context.Context, userID string) ([]models.ChatSummary, error)
	HideChatForUser(ctx context.Context, chatID string, userID string) error
	UnhideChatForUser(ctx context.Context, chatID string, userID string) error
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// ResolveChat returns the single chat for the listing and the unordered
// participant pair, creating it when absent. A concurrent create is resolved
// by the unique pair index: the insert conflicts, and the winner's row is
// re-read.
func (r *ChatRepo) ResolveChat(ctx context.Context, listingID string, buyerID string, sellerID string) (models.Chat, error) {
	if buyerID == sellerID {
		return models.Chat{}, errors.New("cannot create chat with self")
	}

	const find = `SELECT ` + chatColumns + ` FROM chats
        WHERE listing_id=$1 AND ((buyer_id=$2 AND seller_id=$3) OR (buyer_id=$3 AND seller_id=$2))`

	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, find, listingID, buyerID, sellerID)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, err
	}

	err = r.db.QueryRowxContext(ctx, `INSERT INTO chats (id, listing_id, buyer_id, seller_id)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (listing_id, LEAST(buyer_id, seller_id), GREATEST(buyer_id, seller_id)) DO NOTHING
        RETURNING `+chatColumns,
		uuid.NewString(), listingID, buyerID, sellerID).StructScan(&chat)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, err
	}

	// Lost the insert race; the conflicting row is our chat.
	if err := r.db.GetContext(ctx, &chat, find, listingID, buyerID, sellerID); err != nil {
		return models.Chat{}, err
	}
	return chat, nil
}

// GetChat fetches a chat by id.
func (r *ChatRepo) GetChat(ctx context.Context, chatID string) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `SELECT `+chatColumns+` FROM chats WHERE id=$1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// IsParticipant checks whether a user belongs to the chat.
func (r *ChatRepo) IsParticipant(ctx context.Context, chatID string, userID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM chats WHERE id=$1 AND (buyer_id=$2 OR seller_id=$2))`, chatID, userID)
	return exists, err
}

// ListChats returns chats visible to the user: hidden conversations and
// chats with blocked counterparts are filtered out, newest activity first.
func (r *ChatRepo) ListChats(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	query := `SELECT c.id, c.listing_id, c.buyer_id, c.seller_id, c.last_activity_at,
            (SELECT COUNT(*) FROM messages m WHERE m.chat_id = c.id AND m.sender_id <> $1 AND m.read_at IS NULL) AS unread_count
        FROM chats c
        LEFT JOIN hidden_conversations hc ON hc.chat_id = c.id AND hc.user_id = $1
        WHERE (c.buyer_id = $1 OR c.seller_id = $1)
          AND hc.chat_id IS NULL
          AND NOT EXISTS (
            SELECT 1 FROM user_blocks b WHERE b.blocker_id = $1
              AND b.blocked_id = CASE WHEN c.buyer_id = $1 THEN c.seller_id ELSE c.buyer_id END)
        ORDER BY c.last_activity_at DESC`

	rows, err := r.db.QueryxContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.ChatSummary
	for rows.Next() {
		var row struct {
			models.Chat
			UnreadCount int `db:"unread_count"`
		}
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		result = append(result, models.ChatSummary{
			ChatID:         row.ID,
			ListingID:      row.ListingID,
			CounterpartID:  row.OtherParticipant(userID),
			UnreadCount:    row.UnreadCount,
			LastActivityAt: row.LastActivityAt,
		})
	}
	return result, rows.Err()
}

// HideChatForUser marks a chat hidden for the user.
func (r *ChatRepo) HideChatForUser(ctx context.Context, chatID string, userID string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO hidden_conversations (user_id, chat_id) VALUES ($1, $2)
        ON CONFLICT (user_id, chat_id) DO NOTHING`, userID, chatID)
	return err
}

// UnhideChatForUser removes the hidden marker for the user.
func (r *ChatRepo) UnhideChatForUser(ctx context.Context, chatID string, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM hidden_conversations WHERE user_id=$1 AND chat_id=$2`, userID, chatID)
	return err
}
