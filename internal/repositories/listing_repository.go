package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"bitsbarter/internal/models"
)

var ErrListingNotFound = errors.New("listing not found")

const listingColumns = `id, seller_id, title, price_sats, status, created_at`

// ListingRepository manages classified listings.
type ListingRepository interface {
	CreateListing(ctx context.Context, sellerID string, title string, priceSats int64) (models.Listing, error)
	GetListing(ctx context.Context, id string) (models.Listing, error)
	SetStatus(ctx context.Context, id string, status string) error
	DeleteListing(ctx context.Context, id string) error
}

// ListingRepo is a sqlx implementation of ListingRepository.
type ListingRepo struct {
	db *sqlx.DB
}

// NewListingRepo constructs a ListingRepo.
func NewListingRepo(db *sqlx.DB) *ListingRepo {
	return &ListingRepo{db: db}
}

// CreateListing inserts an active listing.
func (r *ListingRepo) CreateListing(ctx context.Context, sellerID string, title string, priceSats int64) (models.Listing, error) {
	var listing models.Listing
	err := r.db.QueryRowxContext(ctx, `INSERT INTO listings (id, seller_id, title, price_sats)
        VALUES ($1, $2, $3, $4) RETURNING `+listingColumns,
		uuid.NewString(), sellerID, title, priceSats).StructScan(&listing)
	return listing, err
}

// GetListing fetches a listing by id.
func (r *ListingRepo) GetListing(ctx context.Context, id string) (models.Listing, error) {
	var listing models.Listing
	err := r.db.GetContext(ctx, &listing, `SELECT `+listingColumns+` FROM listings WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Listing{}, ErrListingNotFound
	}
	return listing, err
}

// SetStatus updates the listing status.
func (r *ListingRepo) SetStatus(ctx context.Context, id string, status string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE listings SET status=$2 WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrListingNotFound
	}
	return nil
}

// DeleteListing removes a listing; its chats, messages and offers go with
// it through the cascading foreign keys.
func (r *ListingRepo) DeleteListing(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM listings WHERE id=$1`, id)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrListingNotFound
	}
	return nil
}
