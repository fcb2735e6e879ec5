package models

import "time"

// Listing statuses. Offers may only target active listings.
const (
	ListingActive  = "active"
	ListingSold    = "sold"
	ListingRemoved = "removed"
)

// Listing is an item for sale, priced in satoshis. A zero price means the
// seller set no cap and any positive offer amount is acceptable.
type Listing struct {
	ID        string    `db:"id" json:"id"`
	SellerID  string    `db:"seller_id" json:"seller_id"`
	Title     string    `db:"title" json:"title"`
	PriceSats int64     `db:"price_sats" json:"price_sats"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
