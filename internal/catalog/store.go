package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// ErrNotFound is returned when a project id does not resolve
var ErrNotFound = errors.New("project not found")

// Store holds the read-only project and credit catalog. It is loaded once
// at startup and never mutated afterwards, so reads need no locking.
type Store struct {
	projects []Project
	credits  []Credit
	byID     map[string]int
	logger   *zap.Logger
}

// NewStore creates an empty catalog store
func NewStore(logger *zap.Logger) *Store {
	return &Store{
		byID:   make(map[string]int),
		logger: logger,
	}
}

// Load reads the static catalog files. A missing or malformed file is a
// startup failure; the process must not serve without catalog data.
func (s *Store) Load(projectsPath, creditsPath string) error {
	projectsData, err := os.ReadFile(projectsPath)
	if err != nil {
		return fmt.Errorf("failed to read projects file: %w", err)
	}
	creditsData, err := os.ReadFile(creditsPath)
	if err != nil {
		return fmt.Errorf("failed to read credits file: %w", err)
	}

	var projects []Project
	if err := json.Unmarshal(projectsData, &projects); err != nil {
		return fmt.Errorf("failed to parse projects file: %w", err)
	}
	var credits []Credit
	if err := json.Unmarshal(creditsData, &credits); err != nil {
		return fmt.Errorf("failed to parse credits file: %w", err)
	}

	return s.LoadData(projects, credits)
}

// LoadData installs an already-parsed catalog
func (s *Store) LoadData(projects []Project, credits []Credit) error {
	byID := make(map[string]int, len(projects))
	for i, p := range projects {
		if p.ID == "" {
			return fmt.Errorf("project at index %d has no id", i)
		}
		byID[p.ID] = i
	}

	s.projects = projects
	s.credits = credits
	s.byID = byID

	s.logger.Info("carbon catalog loaded",
		zap.Int("projects", len(projects)),
		zap.Int("credits", len(credits)))
	return nil
}

// Get returns the project with the given id
func (s *Store) Get(id string) (Project, error) {
	idx, ok := s.byID[id]
	if !ok {
		return Project{}, ErrNotFound
	}
	return s.projects[idx], nil
}

// Credits returns all loaded credit batches
func (s *Store) Credits() []Credit {
	out := make([]Credit, len(s.credits))
	copy(out, s.credits)
	return out
}

// List returns one page of projects matching the filter. Filters are a
// conjunction; a "all" registry/country/category value disables that filter.
func (s *Store) List(filter Filter, page, limit int) ListResult {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	matched := make([]Project, 0, len(s.projects))
	for _, p := range s.projects {
		if matchesFilter(p, filter) {
			matched = append(matched, p)
		}
	}

	total := len(matched)
	totalPages := (total + limit - 1) / limit

	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return ListResult{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		Projects:   matched[start:end],
	}
}

func matchesFilter(p Project, f Filter) bool {
	if f.Search != "" {
		search := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Country), search) {
			return false
		}
	}
	if f.Registry != "" && f.Registry != "all" {
		if !strings.EqualFold(p.Registry, f.Registry) {
			return false
		}
	}
	if f.Country != "" && f.Country != "all" {
		if !strings.EqualFold(p.Country, f.Country) {
			return false
		}
	}
	if f.Category != "" && f.Category != "all" {
		if !strings.EqualFold(p.Category, f.Category) {
			return false
		}
	}
	return true
}

// Stats aggregates the whole catalog
func (s *Store) Stats() Stats {
	stats := Stats{
		TotalProjects: len(s.projects),
		ByRegistry:    make(map[string]int),
	}

	type countrySeen struct {
		count     int
		firstSeen int
	}
	countries := make(map[string]*countrySeen)
	order := make([]string, 0)

	for i, p := range s.projects {
		stats.TotalIssued += p.Issued
		stats.TotalRetired += p.Retired

		registry := CanonicalRegistry(p.Registry)
		stats.ByRegistry[registry]++

		country := p.Country
		if country == "" {
			country = "unknown"
		}
		if c, ok := countries[country]; ok {
			c.count++
		} else {
			countries[country] = &countrySeen{count: 1, firstSeen: i}
			order = append(order, country)
		}
	}
	stats.Available = stats.TotalIssued - stats.TotalRetired

	// Top 10 by project count, ties broken by first appearance.
	sort.SliceStable(order, func(a, b int) bool {
		ca, cb := countries[order[a]], countries[order[b]]
		if ca.count != cb.count {
			return ca.count > cb.count
		}
		return ca.firstSeen < cb.firstSeen
	})
	top := order
	if len(top) > 10 {
		top = top[:10]
	}
	stats.TopCountries = make([]CountryCount, 0, len(top))
	for _, country := range top {
		stats.TopCountries = append(stats.TopCountries, CountryCount{
			Country: country,
			Count:   countries[country].count,
		})
	}

	return stats
}
