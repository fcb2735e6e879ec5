package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// BlockRepository manages the user block list. Blocking only filters the
// blocker's chat list; it is never enforced at the message-read level.
type BlockRepository interface {
	Block(ctx context.Context, blockerID string, blockedID string) error
	Unblock(ctx context.Context, blockerID string, blockedID string) error
	IsBlocked(ctx context.Context, blockerID string, blockedID string) (bool, error)
}

// BlockRepo is a sqlx implementation of BlockRepository.
type BlockRepo struct {
	db *sqlx.DB
}

// NewBlockRepo constructs a BlockRepo.
func NewBlockRepo(db *sqlx.DB) *BlockRepo {
	return &BlockRepo{db: db}
}

// Block records a block; repeating it is a no-op.
func (r *BlockRepo) Block(ctx context.Context, blockerID string, blockedID string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO user_blocks (blocker_id, blocked_id) VALUES ($1, $2)
        ON CONFLICT (blocker_id, blocked_id) DO NOTHING`, blockerID, blockedID)
	return err
}

// Unblock removes a block if present.
func (r *BlockRepo) Unblock(ctx context.Context, blockerID string, blockedID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM user_blocks WHERE blocker_id=$1 AND blocked_id=$2`, blockerID, blockedID)
	return err
}

// IsBlocked reports whether blockerID has blocked blockedID.
func (r *BlockRepo) IsBlocked(ctx context.Context, blockerID string, blockedID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM user_blocks WHERE blocker_id=$1 AND blocked_id=$2)`, blockerID, blockedID)
	return exists, err
}
