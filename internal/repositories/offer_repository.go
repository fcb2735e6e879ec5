package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"bitsbarter/internal/apperrors"
	"bitsbarter/internal/models"
)

var ErrOfferNotFound = errors.New("offer not found")

const offerColumns = `id, chat_id, listing_id, from_user_id, to_user_id, amount_sats, status, expires_at, created_at, updated_at`

// OfferCheck reports whether a user may propose a new offer and the most
// recent offer in the chat, if any.
type OfferCheck struct {
	CanPropose  bool          `json:"can_propose"`
	LatestOffer *models.Offer `json:"latest_offer,omitempty"`
}

// OfferRepository manages offer rows and their state transitions.
type OfferRepository interface {
	ProposeOffer(ctx context.Context, chat models.Chat, fromUserID string, amountSats int64, expiresAt *time.Time) (models.Offer, error)
	GetOffer(ctx context.Context, offerID string) (models.Offer, error)
	ActOnOffer(ctx context.Context, offerID string, actorID string, action string) (models.Offer, error)
	CheckOffer(ctx context.Context, chatID string, listingID string, userID string) (OfferCheck, error)
	ExpireOverdue(ctx context.Context) (int64, error)
}

// OfferRepo is a sqlx implementation of OfferRepository.
type OfferRepo struct {
	db *sqlx.DB
}

// NewOfferRepo constructs an OfferRepo.
func NewOfferRepo(db *sqlx.DB) *OfferRepo {
	return &OfferRepo{db: db}
}

// ProposeOffer inserts a pending offer and refreshes the chat's and the
// proposer's activity timestamps in one transaction. The partial unique
// index on (listing_id, from_user_id) WHERE status='pending' enforces one
// outstanding offer per proposer per listing; a conflict surfaces as a
// Conflict error rather than racing a check-then-insert.
func (r *OfferRepo) ProposeOffer(ctx context.Context, chat models.Chat, fromUserID string, amountSats int64, expiresAt *time.Time) (models.Offer, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Offer{}, err
	}
	defer tx.Rollback()

	var offer models.Offer
	err = tx.QueryRowxContext(ctx, `INSERT INTO offers (id, chat_id, listing_id, from_user_id, to_user_id, amount_sats, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING `+offerColumns,
		uuid.NewString(), chat.ID, chat.ListingID, fromUserID, chat.OtherParticipant(fromUserID), amountSats, expiresAt).
		StructScan(&offer)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return models.Offer{}, apperrors.New(apperrors.Conflict, "a pending offer for this listing already exists")
		}
		return models.Offer{}, err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE chats SET last_activity_at=NOW() WHERE id=$1`, chat.ID); err != nil {
		return models.Offer{}, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET last_active_at=NOW() WHERE id=$1`, fromUserID); err != nil {
		return models.Offer{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Offer{}, err
	}
	return offer, nil
}

// GetOffer retrieves a single offer.
func (r *OfferRepo) GetOffer(ctx context.Context, offerID string) (models.Offer, error) {
	var offer models.Offer
	err := r.db.GetContext(ctx, &offer, `SELECT `+offerColumns+` FROM offers WHERE id=$1`, offerID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Offer{}, ErrOfferNotFound
	}
	return offer, err
}

// ActOnOffer dispatches accept, decline or revoke against a pending offer.
// The row is locked for the duration of the transaction, so an offer leaves
// pending exactly once. Checks run in a fixed order regardless of the
// requested action: terminal status, expiry, then actor authorization.
func (r *OfferRepo) ActOnOffer(ctx context.Context, offerID string, actorID string, action string) (models.Offer, error) {
	target, err := models.ActionTarget(action)
	if err != nil {
		return models.Offer{}, apperrors.New(apperrors.Validation, "invalid action")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Offer{}, err
	}
	defer tx.Rollback()

	var offer models.Offer
	err = tx.GetContext(ctx, &offer, `SELECT `+offerColumns+` FROM offers WHERE id=$1 FOR UPDATE`, offerID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Offer{}, ErrOfferNotFound
	}
	if err != nil {
		return models.Offer{}, err
	}

	if offer.Status != models.OfferPending {
		return models.Offer{}, apperrors.Newf(apperrors.Conflict, "offer is already %s", offer.Status)
	}

	if offer.IsExpiredAt(time.Now()) {
		if _, err := tx.ExecContext(ctx, `UPDATE offers SET status=$2, updated_at=NOW() WHERE id=$1`,
			offerID, models.OfferExpired); err != nil {
			return models.Offer{}, err
		}
		if err := tx.Commit(); err != nil {
			return models.Offer{}, err
		}
		return models.Offer{}, apperrors.New(apperrors.Expired, "offer has expired")
	}

	if actorID != offer.ActorFor(action) {
		return models.Offer{}, apperrors.Newf(apperrors.Forbidden, "not allowed to %s this offer", action)
	}

	err = tx.QueryRowxContext(ctx, `UPDATE offers SET status=$2, updated_at=NOW() WHERE id=$1
        RETURNING `+offerColumns, offerID, target).StructScan(&offer)
	if err != nil {
		return models.Offer{}, err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE chats SET last_activity_at=NOW() WHERE id=$1`, offer.ChatID); err != nil {
		return models.Offer{}, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET last_active_at=NOW() WHERE id=$1`, actorID); err != nil {
		return models.Offer{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Offer{}, err
	}
	return offer, nil
}

// CheckOffer reports whether userID may propose a new offer in the chat and
// returns the most recent offer there. Expiry is applied lazily: overdue
// pending offers are flipped to expired before the answer is computed.
// The block predicate mirrors what ProposeOffer would actually hit: an
// accepted offer in the chat, or any still-pending offer of the requester
// on the listing (the pending uniqueness is per listing and proposer, so
// both participants can hold one and the latest row alone is not enough).
func (r *OfferRepo) CheckOffer(ctx context.Context, chatID string, listingID string, userID string) (OfferCheck, error) {
	_, err := r.db.ExecContext(ctx, `UPDATE offers SET status=$2, updated_at=NOW()
        WHERE listing_id=$1 AND status=$3 AND expires_at IS NOT NULL AND expires_at <= NOW()`,
		listingID, models.OfferExpired, models.OfferPending)
	if err != nil {
		return OfferCheck{}, err
	}

	var latest models.Offer
	err = r.db.GetContext(ctx, &latest, `SELECT `+offerColumns+` FROM offers
        WHERE chat_id=$1 AND listing_id=$2 ORDER BY created_at DESC, id DESC LIMIT 1`, chatID, listingID)
	if errors.Is(err, sql.ErrNoRows) {
		return OfferCheck{CanPropose: true}, nil
	}
	if err != nil {
		return OfferCheck{}, err
	}

	var blocked bool
	err = r.db.GetContext(ctx, &blocked, `SELECT EXISTS(SELECT 1 FROM offers
        WHERE (chat_id=$1 AND listing_id=$2 AND status=$3)
           OR (listing_id=$2 AND from_user_id=$4 AND status=$5))`,
		chatID, listingID, models.OfferAccepted, userID, models.OfferPending)
	if err != nil {
		return OfferCheck{}, err
	}
	return OfferCheck{CanPropose: !blocked, LatestOffer: &latest}, nil
}

// ExpireOverdue flips every overdue pending offer to expired. The sweep
// complements the lazy checks so stale offers do not linger between reads.
func (r *OfferRepo) ExpireOverdue(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE offers SET status=$1, updated_at=NOW()
        WHERE status=$2 AND expires_at IS NOT NULL AND expires_at <= NOW()`,
		models.OfferExpired, models.OfferPending)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
