package market

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingSink captures published events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []string
}

func (s *recordingSink) Publish(eventType string, data map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, eventType)
}

func (s *recordingSink) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	copy(out, s.events)
	return out
}

func newTestLedger(opts Options) (*Ledger, *recordingSink) {
	sink := &recordingSink{}
	return NewLedger(opts, sink, zap.NewNop()), sink
}

func validCreate() CreateRequest {
	return CreateRequest{
		CreditID:    "VCS-981-2021-0001",
		SellerID:    "seller-1",
		ProjectName: "Katingan Peatland Restoration",
		Registry:    "verra",
		Quantity:    100,
		PricePerTon: 15.5,
	}
}

func TestCreateComputesTotalPrice(t *testing.T) {
	ledger, sink := newTestLedger(Options{})

	listing, err := ledger.Create(validCreate())
	require.NoError(t, err)

	assert.Equal(t, StatusActive, listing.Status)
	assert.Equal(t, 1550.0, listing.TotalPrice)
	assert.Contains(t, listing.ID, "LISTING-")
	assert.False(t, listing.ListedAt.IsZero())
	assert.Equal(t, []string{EventListingCreated}, sink.types())
}

func TestCreateValidation(t *testing.T) {
	ledger, _ := newTestLedger(Options{})

	cases := map[string]func(*CreateRequest){
		"missing creditId": func(r *CreateRequest) { r.CreditID = "" },
		"missing seller":   func(r *CreateRequest) { r.SellerID = "" },
		"zero quantity":    func(r *CreateRequest) { r.Quantity = 0 },
		"negative price":   func(r *CreateRequest) { r.PricePerTon = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := validCreate()
			mutate(&req)
			_, err := ledger.Create(req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestBrowseFiltersAndSorts(t *testing.T) {
	ledger, _ := newTestLedger(Options{})

	prices := []float64{20, 5, 12}
	registries := []string{"verra", "gold-standard", "verra"}
	for i := range prices {
		req := validCreate()
		req.CreditID = "credit-" + strconv.Itoa(i)
		req.Registry = registries[i]
		req.PricePerTon = prices[i]
		_, err := ledger.Create(req)
		require.NoError(t, err)
	}

	// sold listings disappear from browse
	sold, err := ledger.Create(validCreate())
	require.NoError(t, err)
	_, err = ledger.Buy(sold.ID, "buyer-1")
	require.NoError(t, err)

	all := ledger.Browse(BrowseFilter{}, SortPriceAsc)
	require.Len(t, all, 3)
	assert.Equal(t, 5.0, all[0].PricePerTon)
	assert.Equal(t, 20.0, all[2].PricePerTon)

	desc := ledger.Browse(BrowseFilter{}, SortPriceDesc)
	assert.Equal(t, 20.0, desc[0].PricePerTon)

	verra := ledger.Browse(BrowseFilter{Registry: "VERRA"}, SortRecent)
	assert.Len(t, verra, 2)

	min, max := 10.0, 15.0
	banded := ledger.Browse(BrowseFilter{MinPrice: &min, MaxPrice: &max}, SortRecent)
	require.Len(t, banded, 1)
	assert.Equal(t, 12.0, banded[0].PricePerTon)

	everything := ledger.Browse(BrowseFilter{Registry: "all"}, SortRecent)
	assert.Len(t, everything, 3)
}

func TestBuySettlement(t *testing.T) {
	ledger, sink := newTestLedger(Options{FeeRate: 0.025})

	listing, err := ledger.Create(validCreate())
	require.NoError(t, err)

	settlement, err := ledger.Buy(listing.ID, "buyer-7")
	require.NoError(t, err)

	assert.Equal(t, 1550.0, settlement.TotalPrice)
	assert.Equal(t, "38.75", settlement.PlatformFee)
	assert.Equal(t, "1511.25", settlement.SellerAmount)
	assert.Equal(t, "seller-1", settlement.SellerID)
	assert.Equal(t, "buyer-7", settlement.BuyerID)

	updated, err := ledger.Get(listing.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSold, updated.Status)
	assert.Equal(t, "buyer-7", updated.BuyerID)
	require.NotNil(t, updated.SoldAt)

	assert.Contains(t, sink.types(), EventListingSold)
}

func TestBuyFeePlusSellerEqualsTotal(t *testing.T) {
	ledger, _ := newTestLedger(Options{})

	req := validCreate()
	req.Quantity = 33
	req.PricePerTon = 9.99
	listing, err := ledger.Create(req)
	require.NoError(t, err)

	settlement, err := ledger.Buy(listing.ID, "buyer-1")
	require.NoError(t, err)

	fee, err := strconv.ParseFloat(settlement.PlatformFee, 64)
	require.NoError(t, err)
	seller, err := strconv.ParseFloat(settlement.SellerAmount, 64)
	require.NoError(t, err)
	assert.InDelta(t, settlement.TotalPrice, fee+seller, 0.01)
}

func TestBuyErrors(t *testing.T) {
	ledger, _ := newTestLedger(Options{})

	_, err := ledger.Buy("LISTING-0-0", "buyer-1")
	assert.ErrorIs(t, err, ErrNotFound)

	listing, err := ledger.Create(validCreate())
	require.NoError(t, err)

	_, err = ledger.Buy(listing.ID, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ledger.Buy(listing.ID, "buyer-1")
	require.NoError(t, err)

	// already sold: terminal, no second settlement
	_, err = ledger.Buy(listing.ID, "buyer-2")
	assert.ErrorIs(t, err, ErrNotActive)

	unchanged, err := ledger.Get(listing.ID)
	require.NoError(t, err)
	assert.Equal(t, "buyer-1", unchanged.BuyerID)
}

func TestCancelRequiresSeller(t *testing.T) {
	ledger, sink := newTestLedger(Options{})

	listing, err := ledger.Create(validCreate())
	require.NoError(t, err)

	err = ledger.Cancel(listing.ID, "someone-else")
	assert.ErrorIs(t, err, ErrNotSeller)

	require.NoError(t, ledger.Cancel(listing.ID, "seller-1"))

	cancelled, err := ledger.Get(listing.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	// cancelled is terminal
	_, err = ledger.Buy(listing.ID, "buyer-1")
	assert.ErrorIs(t, err, ErrNotActive)
	assert.ErrorIs(t, ledger.Cancel(listing.ID, "seller-1"), ErrNotActive)

	assert.Contains(t, sink.types(), EventListingCancelled)
}

func TestCancelForeignAllowedWhenConfigured(t *testing.T) {
	ledger, _ := newTestLedger(Options{AllowForeignCancel: true})

	listing, err := ledger.Create(validCreate())
	require.NoError(t, err)

	assert.NoError(t, ledger.Cancel(listing.ID, "someone-else"))
}

func TestCancelNotFound(t *testing.T) {
	ledger, _ := newTestLedger(Options{})
	assert.ErrorIs(t, ledger.Cancel("LISTING-0-0", "seller-1"), ErrNotFound)
}

func TestBySellerReturnsAllStatuses(t *testing.T) {
	ledger, _ := newTestLedger(Options{})

	first, err := ledger.Create(validCreate())
	require.NoError(t, err)
	second, err := ledger.Create(validCreate())
	require.NoError(t, err)

	other := validCreate()
	other.SellerID = "seller-2"
	_, err = ledger.Create(other)
	require.NoError(t, err)

	_, err = ledger.Buy(first.ID, "buyer-1")
	require.NoError(t, err)
	require.NoError(t, ledger.Cancel(second.ID, "seller-1"))

	mine := ledger.BySeller("seller-1")
	require.Len(t, mine, 2)
	assert.Equal(t, StatusSold, mine[0].Status)
	assert.Equal(t, StatusCancelled, mine[1].Status)
}

func TestConcurrentBuySettlesOnce(t *testing.T) {
	ledger, _ := newTestLedger(Options{})

	listing, err := ledger.Create(validCreate())
	require.NoError(t, err)

	const buyers = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if _, err := ledger.Buy(listing.ID, "buyer-"+strconv.Itoa(n)); err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, winners)

	snap := ledger.Snapshot()
	assert.Equal(t, 1, snap.Sold)
	assert.Equal(t, 0, snap.Active)
}

func TestSnapshotAggregates(t *testing.T) {
	ledger, sink := newTestLedger(Options{FeeRate: 0.025})

	a, err := ledger.Create(validCreate())
	require.NoError(t, err)
	b, err := ledger.Create(validCreate())
	require.NoError(t, err)
	_, err = ledger.Create(validCreate())
	require.NoError(t, err)

	_, err = ledger.Buy(a.ID, "buyer-1")
	require.NoError(t, err)
	require.NoError(t, ledger.Cancel(b.ID, "seller-1"))

	snap := ledger.Snapshot()
	assert.Equal(t, 1, snap.Active)
	assert.Equal(t, 1, snap.Sold)
	assert.Equal(t, 1, snap.Cancelled)
	assert.Equal(t, 1550.0, snap.GrossVolume)
	assert.InDelta(t, 38.75, snap.FeesCollected, 0.001)

	assert.NotEmpty(t, sink.types())
}
