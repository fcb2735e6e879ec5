package repositories

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"bitsbarter/internal/apperrors"
	"bitsbarter/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

const messageColumns = `id, chat_id, sender_id, text, created_at, read_at`

// MessageRepository defines interactions for chat messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, chatID string, senderID string, text string) (models.Message, error)
	ListMessages(ctx context.Context, chatID string, requesterID string, page int, limit int) (models.MessagePage, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage appends a message and refreshes the chat's last-activity
// timestamp in one transaction.
func (r *MessageRepo) CreateMessage(ctx context.Context, chatID string, senderID string, text string) (models.Message, error) {
	// The bound is in characters, not bytes.
	if text == "" || utf8.RuneCountInString(text) > models.MaxMessageLen {
		return models.Message{}, apperrors.Newf(apperrors.Validation, "text must be 1-%d characters", models.MaxMessageLen)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, err
	}
	defer tx.Rollback()

	var msg models.Message
	err = tx.QueryRowxContext(ctx, `INSERT INTO messages (chat_id, sender_id, text) VALUES ($1, $2, $3)
        RETURNING `+messageColumns, chatID, senderID, text).StructScan(&msg)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return models.Message{}, ErrChatNotFound
		}
		return models.Message{}, err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE chats SET last_activity_at=NOW() WHERE id=$1`, chatID); err != nil {
		return models.Message{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// ListMessages returns one page of the chat in chronological order, oldest
// first, with the message id as tiebreaker for equal timestamps. Opening
// page 1 marks the counterpart's unread messages as read; older pages never
// change read state.
func (r *MessageRepo) ListMessages(ctx context.Context, chatID string, requesterID string, page int, limit int) (models.MessagePage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.MessagePage{}, err
	}
	defer tx.Rollback()

	var total int
	if err := tx.GetContext(ctx, &total, `SELECT COUNT(*) FROM messages WHERE chat_id=$1`, chatID); err != nil {
		return models.MessagePage{}, err
	}

	var msgs []models.Message
	err = tx.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM messages
        WHERE chat_id=$1 ORDER BY created_at ASC, id ASC LIMIT $2 OFFSET $3`,
		chatID, limit, (page-1)*limit)
	if err != nil {
		return models.MessagePage{}, err
	}

	if page == 1 {
		_, err = tx.ExecContext(ctx, `UPDATE messages SET read_at=NOW()
            WHERE chat_id=$1 AND sender_id<>$2 AND read_at IS NULL`, chatID, requesterID)
		if err != nil {
			return models.MessagePage{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return models.MessagePage{}, err
	}

	totalPages := (total + limit - 1) / limit
	return models.MessagePage{
		Messages:   msgs,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasMore:    page*limit < total,
	}, nil
}
