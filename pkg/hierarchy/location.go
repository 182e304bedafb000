package hierarchy

import (
	"sort"

	"github.com/ritzau/org-directory/pkg/model"
)

// AggregateByLocation groups people by location for the map view. Blank
// locations fall into "Unknown"; groups are ordered by head count, largest
// first, keeping first-seen order between equal counts.
func AggregateByLocation(records []model.Employee) []model.LocationGroup {
	groups := make([]model.LocationGroup, 0)
	index := make(map[string]int)

	for _, rec := range records {
		location := model.NormalizeLocation(rec.Location)
		i, ok := index[location]
		if !ok {
			i = len(groups)
			index[location] = i
			groups = append(groups, model.LocationGroup{
				Location: location,
				Country:  rec.Country,
				People:   make([]model.LocationPerson, 0),
			})
		}

		groups[i].Count++
		groups[i].People = append(groups[i].People, model.LocationPerson{
			Name:           rec.Name,
			Position:       rec.Position,
			Department:     rec.Department,
			Country:        rec.Country,
			Relationship:   rec.Relationship,
			Representative: rec.Representative,
		})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Count > groups[j].Count
	})
	return groups
}
