// Package export renders portfolio statements to downloadable documents.
package export

import "time"

// Statement is the flattened input for the PDF and Excel renderers
type Statement struct {
	UserID         string
	GeneratedAt    time.Time
	TotalQuantity  int
	TotalValue     float64
	TotalPurchases int
	Lines          []Line
}

// Line is one purchase row of a statement
type Line struct {
	PurchaseID   string
	ProjectName  string
	Registry     string
	Quantity     int
	PricePerTon  float64
	TotalPrice   float64
	PurchaseDate time.Time
}
