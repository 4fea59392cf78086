package catalog

import "strings"

// Project represents a carbon project mirrored from an external registry.
// Projects are immutable after the catalog is loaded.
type Project struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Registry  string `json:"registry"`
	Country   string `json:"country"`
	Category  string `json:"category,omitempty"`
	Type      string `json:"type,omitempty"`
	Issued    int64  `json:"issued"`
	Retired   int64  `json:"retired"`
	Proponent string `json:"proponent,omitempty"`
	Protocol  string `json:"protocol,omitempty"`
	URL       string `json:"url,omitempty"`
}

// Available returns the issued tonnage not yet retired.
func (p Project) Available() int64 {
	return p.Issued - p.Retired
}

// Credit represents an issued credit batch tied to a project
type Credit struct {
	ID           string `json:"id"`
	ProjectID    string `json:"projectId"`
	Registry     string `json:"registry"`
	Vintage      int    `json:"vintage"`
	Quantity     int64  `json:"quantity"`
	SerialNumber string `json:"serialNumber,omitempty"`
}

// validRegistries are the certification bodies the catalog recognizes.
// Anything else is bucketed as "unknown" in stats.
var validRegistries = map[string]bool{
	"verra":                    true,
	"gold-standard":            true,
	"art-trees":                true,
	"climate-action-reserve":   true,
	"american-carbon-registry": true,
	"berkeley":                 true,
	"carbonplan":               true,
	"unknown":                  true,
}

// CanonicalRegistry normalizes a registry name, bucketing invalid values
func CanonicalRegistry(registry string) string {
	r := strings.ToLower(strings.TrimSpace(registry))
	if r == "" || !validRegistries[r] {
		return "unknown"
	}
	return r
}

// Filter is a conjunction over optional project predicates
type Filter struct {
	Search   string
	Registry string
	Country  string
	Category string
}

// CountryCount is one entry of the top-countries ranking
type CountryCount struct {
	Country string `json:"country"`
	Count   int    `json:"count"`
}

// Stats aggregates the loaded catalog
type Stats struct {
	TotalProjects int            `json:"totalProjects"`
	TotalIssued   int64          `json:"totalIssued"`
	TotalRetired  int64          `json:"totalRetired"`
	Available     int64          `json:"available"`
	ByRegistry    map[string]int `json:"byRegistry"`
	TopCountries  []CountryCount `json:"topCountries"`
}

// ListResult is one page of filtered projects
type ListResult struct {
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"totalPages"`
	Projects   []Project `json:"projects"`
}
