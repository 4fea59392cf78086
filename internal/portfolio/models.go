package portfolio

import "time"

// Purchase is a primary-market buy of catalog credits. No retirement flow
// exists, so Status stays "active".
type Purchase struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	ProjectID    string    `json:"projectId"`
	ProjectName  string    `json:"projectName"`
	Registry     string    `json:"registry"`
	Quantity     int       `json:"quantity"`
	PricePerTon  float64   `json:"pricePerTon"`
	TotalPrice   float64   `json:"totalPrice"`
	Status       string    `json:"status"`
	PurchaseDate time.Time `json:"purchaseDate"`
}

// Retirement is a placeholder for the unbuilt retirement flow. The
// portfolio shape carries it so clients can rely on the field existing.
type Retirement struct {
	PurchaseID string    `json:"purchaseId"`
	Quantity   int       `json:"quantity"`
	RetiredAt  time.Time `json:"retiredAt"`
}

// Portfolio is the running aggregate of one user's purchases
type Portfolio struct {
	TotalQuantity  int          `json:"totalQuantity"`
	TotalValue     float64      `json:"totalValue"`
	TotalPurchases int          `json:"totalPurchases"`
	TotalRetired   int          `json:"totalRetired"`
	ActiveCredits  []Purchase   `json:"activeCredits"`
	Purchases      []Purchase   `json:"purchases"`
	Retirements    []Retirement `json:"retirements"`
}

func newPortfolio() *Portfolio {
	return &Portfolio{
		ActiveCredits: []Purchase{},
		Purchases:     []Purchase{},
		Retirements:   []Retirement{},
	}
}
