package hierarchy

import (
	"sort"
	"strings"

	"github.com/ritzau/org-directory/pkg/model"
)

// Query is a directory search. Empty fields do not filter.
type Query struct {
	Text       string // Substring of name, department, position or location
	Department string // Exact match
	Country    string // Exact match
}

// Search returns the records matching every non-empty criterion, sorted by name
func Search(records []model.Employee, q Query) []model.Employee {
	text := strings.ToLower(strings.TrimSpace(q.Text))

	results := make([]model.Employee, 0)
	for _, rec := range records {
		if text != "" && !matchesText(rec, text) {
			continue
		}
		if q.Department != "" && rec.Department != q.Department {
			continue
		}
		if q.Country != "" && rec.Country != q.Country {
			continue
		}
		results = append(results, rec)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Name < results[j].Name
	})
	return results
}

// matchesText ignores the "Unknown" placeholder that normalization puts in
// blank fields, so it matches only what the source data actually said
func matchesText(rec model.Employee, text string) bool {
	for _, field := range []string{rec.Name, rec.Department, rec.Position, rec.Location} {
		if field == model.UnknownValue {
			continue
		}
		if strings.Contains(strings.ToLower(field), text) {
			return true
		}
	}
	return false
}
