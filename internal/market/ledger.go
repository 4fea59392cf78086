package market

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"carbonchain/marketplace-backend/pkg/workflows"
)

// EventSink receives market lifecycle events. The notifications hub
// implements it; a nil sink disables publishing.
type EventSink interface {
	Publish(eventType string, data map[string]interface{})
}

// Event types published by the ledger
const (
	EventListingCreated   = "listing_created"
	EventListingSold      = "listing_sold"
	EventListingCancelled = "listing_cancelled"
	EventMarketSnapshot   = "market_snapshot"
)

// Options configures a Ledger
type Options struct {
	// FeeRate is the platform cut on settlements, e.g. 0.025.
	FeeRate float64
	// AllowForeignCancel disables the seller-identity check on Cancel.
	AllowForeignCancel bool
}

// Ledger owns every secondary-market listing for the lifetime of the
// process. One mutex guards both the collections and the status
// transitions, so a listing can be bought or cancelled by at most one
// caller even under concurrent requests.
type Ledger struct {
	mu       sync.RWMutex
	listings []*Listing
	byID     map[string]*Listing

	lifecycle *workflows.StateMachine
	opts      Options
	seq       int64
	events    EventSink
	logger    *zap.Logger
}

// NewLedger creates an empty listing ledger
func NewLedger(opts Options, events EventSink, logger *zap.Logger) *Ledger {
	if opts.FeeRate <= 0 {
		opts.FeeRate = 0.025
	}
	return &Ledger{
		byID:      make(map[string]*Listing),
		lifecycle: workflows.NewListingStateMachine(),
		opts:      opts,
		events:    events,
		logger:    logger,
	}
}

// nextID returns a unique, generation-time-ordered listing id. The sequence
// suffix keeps ids unique when two listings land in the same millisecond.
// Callers must hold l.mu.
func (l *Ledger) nextID() string {
	l.seq++
	return fmt.Sprintf("LISTING-%d-%d", time.Now().UnixMilli(), l.seq)
}

// Create validates and records a new active listing
func (l *Ledger) Create(req CreateRequest) (Listing, error) {
	if req.CreditID == "" || req.SellerID == "" {
		return Listing{}, fmt.Errorf("%w: creditId and userId are required", ErrInvalidInput)
	}
	if req.Quantity <= 0 {
		return Listing{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	if req.PricePerTon <= 0 {
		return Listing{}, fmt.Errorf("%w: pricePerTon must be positive", ErrInvalidInput)
	}

	l.mu.Lock()
	listing := &Listing{
		ID:          l.nextID(),
		CreditID:    req.CreditID,
		SellerID:    req.SellerID,
		ProjectName: req.ProjectName,
		Registry:    req.Registry,
		Quantity:    req.Quantity,
		PricePerTon: req.PricePerTon,
		TotalPrice:  float64(req.Quantity) * req.PricePerTon,
		Status:      StatusActive,
		ListedAt:    time.Now().UTC(),
	}
	l.listings = append(l.listings, listing)
	l.byID[listing.ID] = listing
	out := *listing
	l.mu.Unlock()

	l.logger.Info("credit listed for sale",
		zap.String("listing_id", out.ID),
		zap.String("seller_id", out.SellerID),
		zap.Int("quantity", out.Quantity),
		zap.Float64("price_per_ton", out.PricePerTon))
	l.publish(EventListingCreated, map[string]interface{}{
		"listingId":   out.ID,
		"registry":    out.Registry,
		"quantity":    out.Quantity,
		"pricePerTon": out.PricePerTon,
	})

	return out, nil
}

// Browse returns the active listings matching the filter, sorted as
// requested. Anything other than the price sorts falls back to most
// recent first.
func (l *Ledger) Browse(filter BrowseFilter, sortBy string) []Listing {
	l.mu.RLock()
	matched := make([]Listing, 0)
	for _, listing := range l.listings {
		if listing.Status != StatusActive {
			continue
		}
		if filter.Registry != "" && filter.Registry != "all" &&
			!strings.EqualFold(listing.Registry, filter.Registry) {
			continue
		}
		if filter.MinPrice != nil && listing.PricePerTon < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && listing.PricePerTon > *filter.MaxPrice {
			continue
		}
		matched = append(matched, *listing)
	}
	l.mu.RUnlock()

	switch sortBy {
	case SortPriceAsc:
		sort.SliceStable(matched, func(a, b int) bool {
			return matched[a].PricePerTon < matched[b].PricePerTon
		})
	case SortPriceDesc:
		sort.SliceStable(matched, func(a, b int) bool {
			return matched[a].PricePerTon > matched[b].PricePerTon
		})
	default:
		sort.SliceStable(matched, func(a, b int) bool {
			return matched[a].ListedAt.After(matched[b].ListedAt)
		})
	}

	return matched
}

// Buy settles an active listing. The status check and the transition happen
// under one lock, so concurrent buyers of the same id get exactly one
// settlement and the rest ErrNotActive.
func (l *Ledger) Buy(listingID, buyerID string) (Settlement, error) {
	if buyerID == "" {
		return Settlement{}, fmt.Errorf("%w: buyerId is required", ErrInvalidInput)
	}

	l.mu.Lock()
	listing, ok := l.byID[listingID]
	if !ok {
		l.mu.Unlock()
		return Settlement{}, ErrNotFound
	}
	if !l.lifecycle.CanTransition(string(listing.Status), string(StatusSold)) {
		l.mu.Unlock()
		return Settlement{}, ErrNotActive
	}

	platformFee := listing.TotalPrice * l.opts.FeeRate
	sellerAmount := listing.TotalPrice - platformFee

	now := time.Now().UTC()
	listing.Status = StatusSold
	listing.SoldAt = &now
	listing.BuyerID = buyerID

	settlement := Settlement{
		ListingID:    listing.ID,
		BuyerID:      buyerID,
		SellerID:     listing.SellerID,
		Quantity:     listing.Quantity,
		PricePerTon:  listing.PricePerTon,
		TotalPrice:   listing.TotalPrice,
		PlatformFee:  formatAmount(platformFee),
		SellerAmount: formatAmount(sellerAmount),
		CompletedAt:  now,
	}
	l.mu.Unlock()

	l.logger.Info("secondary sale completed",
		zap.String("listing_id", settlement.ListingID),
		zap.String("buyer_id", buyerID),
		zap.Float64("total_price", settlement.TotalPrice),
		zap.String("platform_fee", settlement.PlatformFee))
	l.publish(EventListingSold, map[string]interface{}{
		"listingId":  settlement.ListingID,
		"totalPrice": settlement.TotalPrice,
	})

	return settlement, nil
}

// Cancel transitions an active listing to cancelled. Unless the ledger was
// configured with AllowForeignCancel, only the seller may cancel.
func (l *Ledger) Cancel(listingID, callerID string) error {
	l.mu.Lock()
	listing, ok := l.byID[listingID]
	if !ok {
		l.mu.Unlock()
		return ErrNotFound
	}
	if !l.opts.AllowForeignCancel && callerID != listing.SellerID {
		l.mu.Unlock()
		return ErrNotSeller
	}
	if !l.lifecycle.CanTransition(string(listing.Status), string(StatusCancelled)) {
		l.mu.Unlock()
		return ErrNotActive
	}

	now := time.Now().UTC()
	listing.Status = StatusCancelled
	listing.CancelledAt = &now
	l.mu.Unlock()

	l.logger.Info("listing cancelled", zap.String("listing_id", listingID))
	l.publish(EventListingCancelled, map[string]interface{}{"listingId": listingID})

	return nil
}

// Get returns a copy of one listing
func (l *Ledger) Get(listingID string) (Listing, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	listing, ok := l.byID[listingID]
	if !ok {
		return Listing{}, ErrNotFound
	}
	return *listing, nil
}

// BySeller returns every listing of a seller in ledger order, regardless
// of status.
func (l *Ledger) BySeller(sellerID string) []Listing {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Listing, 0)
	for _, listing := range l.listings {
		if listing.SellerID == sellerID {
			out = append(out, *listing)
		}
	}
	return out
}

// Snapshot aggregates the ledger. Fee figures use the unrounded values.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	snap := Snapshot{GeneratedAt: time.Now().UTC()}
	for _, listing := range l.listings {
		switch listing.Status {
		case StatusActive:
			snap.Active++
		case StatusSold:
			snap.Sold++
			snap.GrossVolume += listing.TotalPrice
			snap.FeesCollected += listing.TotalPrice * l.opts.FeeRate
		case StatusCancelled:
			snap.Cancelled++
		}
	}
	return snap
}

func (l *Ledger) publish(eventType string, data map[string]interface{}) {
	if l.events != nil {
		l.events.Publish(eventType, data)
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
