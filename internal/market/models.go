package market

import "time"

// ListingStatus is the lifecycle state of a secondary-market listing
type ListingStatus string

const (
	StatusActive    ListingStatus = "active"
	StatusSold      ListingStatus = "sold"
	StatusCancelled ListingStatus = "cancelled"
)

// Listing is a credit offered for resale. Listings are never deleted, only
// state-transitioned, so the ledger doubles as an audit trail.
type Listing struct {
	ID          string        `json:"id"`
	CreditID    string        `json:"creditId"`
	SellerID    string        `json:"sellerId"`
	ProjectName string        `json:"projectName"`
	Registry    string        `json:"registry"`
	Quantity    int           `json:"quantity"`
	PricePerTon float64       `json:"pricePerTon"`
	TotalPrice  float64       `json:"totalPrice"`
	Status      ListingStatus `json:"status"`
	ListedAt    time.Time     `json:"listedAt"`
	SoldAt      *time.Time    `json:"soldAt,omitempty"`
	BuyerID     string        `json:"buyerId,omitempty"`
	CancelledAt *time.Time    `json:"cancelledAt,omitempty"`
	Views       int           `json:"views"`
}

// CreateRequest are the seller-supplied fields of a new listing
type CreateRequest struct {
	CreditID    string  `json:"creditId"`
	SellerID    string  `json:"userId"`
	ProjectName string  `json:"projectName"`
	Registry    string  `json:"registry"`
	Quantity    int     `json:"quantity"`
	PricePerTon float64 `json:"pricePerTon"`
}

// BrowseFilter narrows the active-listing view
type BrowseFilter struct {
	Registry string
	MinPrice *float64
	MaxPrice *float64
}

// Sort orders for Browse
const (
	SortRecent    = "recent"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
)

// Settlement is the outcome of a completed buy. PlatformFee and SellerAmount
// are formatted to two decimals at this edge only; the ledger keeps unrounded
// values internally.
type Settlement struct {
	ListingID    string    `json:"listingId"`
	BuyerID      string    `json:"buyerId"`
	SellerID     string    `json:"sellerId"`
	Quantity     int       `json:"quantity"`
	PricePerTon  float64   `json:"pricePerTon"`
	TotalPrice   float64   `json:"totalPrice"`
	PlatformFee  string    `json:"platformFee"`
	SellerAmount string    `json:"sellerAmount"`
	CompletedAt  time.Time `json:"completedAt"`
}

// Snapshot is a point-in-time aggregate of the ledger
type Snapshot struct {
	Active        int       `json:"active"`
	Sold          int       `json:"sold"`
	Cancelled     int       `json:"cancelled"`
	GrossVolume   float64   `json:"grossVolume"`
	FeesCollected float64   `json:"feesCollected"`
	GeneratedAt   time.Time `json:"generatedAt"`
}
