package portfolio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"carbonchain/marketplace-backend/internal/catalog"
)

var (
	// ErrInvalidInput means a required purchase field is missing or out of range
	ErrInvalidInput = errors.New("invalid input")
	// ErrProjectNotFound means the purchase referenced an unknown project
	ErrProjectNotFound = errors.New("project not found")
)

// ProjectResolver resolves a project id against the catalog
type ProjectResolver interface {
	Get(id string) (catalog.Project, error)
}

// Service owns the per-user portfolio map. Portfolios are created lazily
// on first purchase; reading an unknown user returns a zero-valued
// portfolio without creating one.
type Service struct {
	mu         sync.RWMutex
	portfolios map[string]*Portfolio
	catalog    ProjectResolver
	seq        int64
	logger     *zap.Logger
}

// NewService creates an empty portfolio service
func NewService(catalog ProjectResolver, logger *zap.Logger) *Service {
	return &Service{
		portfolios: make(map[string]*Portfolio),
		catalog:    catalog,
		logger:     logger,
	}
}

// RecordPurchase validates the purchase, resolves the project and folds
// the purchase into the user's portfolio.
func (s *Service) RecordPurchase(userID, projectID string, quantity int, pricePerTon float64) (Purchase, error) {
	if userID == "" {
		return Purchase{}, fmt.Errorf("%w: userId is required", ErrInvalidInput)
	}
	if quantity <= 0 {
		return Purchase{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	if pricePerTon <= 0 {
		return Purchase{}, fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}

	project, err := s.catalog.Get(projectID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return Purchase{}, ErrProjectNotFound
		}
		return Purchase{}, err
	}

	s.mu.Lock()
	s.seq++
	purchase := Purchase{
		ID:           fmt.Sprintf("PURCHASE-%d-%d", time.Now().UnixMilli(), s.seq),
		UserID:       userID,
		ProjectID:    project.ID,
		ProjectName:  project.Name,
		Registry:     project.Registry,
		Quantity:     quantity,
		PricePerTon:  pricePerTon,
		TotalPrice:   float64(quantity) * pricePerTon,
		Status:       "active",
		PurchaseDate: time.Now().UTC(),
	}

	p, ok := s.portfolios[userID]
	if !ok {
		p = newPortfolio()
		s.portfolios[userID] = p
	}
	p.TotalQuantity += purchase.Quantity
	p.TotalValue += purchase.TotalPrice
	p.TotalPurchases++
	p.ActiveCredits = append(p.ActiveCredits, purchase)
	p.Purchases = append(p.Purchases, purchase)
	s.mu.Unlock()

	s.logger.Info("purchase completed",
		zap.String("purchase_id", purchase.ID),
		zap.String("user_id", userID),
		zap.String("project_id", project.ID),
		zap.Int("quantity", quantity))

	return purchase, nil
}

// Get returns a copy of the user's portfolio, or a zero-valued one for
// unknown users. The read never creates state.
func (s *Service) Get(userID string) Portfolio {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.portfolios[userID]
	if !ok {
		return *newPortfolio()
	}

	out := Portfolio{
		TotalQuantity:  p.TotalQuantity,
		TotalValue:     p.TotalValue,
		TotalPurchases: p.TotalPurchases,
		TotalRetired:   p.TotalRetired,
		ActiveCredits:  append([]Purchase{}, p.ActiveCredits...),
		Purchases:      append([]Purchase{}, p.Purchases...),
		Retirements:    append([]Retirement{}, p.Retirements...),
	}
	return out
}
