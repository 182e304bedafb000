// Package store holds the current directory snapshot and answers queries
// against it. Readers never block writers for longer than a pointer swap.
package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/ritzau/org-directory/pkg/hierarchy"
	"github.com/ritzau/org-directory/pkg/logging"
	"github.com/ritzau/org-directory/pkg/model"
)

var log = logging.New("store")

// Options configures a Store
type Options struct {
	RejectDuplicates bool             // Fail ReplaceSnapshot instead of last-write-wins
	Now              func() time.Time // Clock, for tests
}

// Store owns the current snapshot
type Store struct {
	opts Options

	mu       sync.RWMutex // guards current
	current  *Snapshot
	writeMu  sync.Mutex // serializes snapshot producers
	version  int64
	watchers []func(*Snapshot)

	connMu      sync.Mutex
	connections []model.Connection
}

// New creates a store holding an empty snapshot
func New(opts Options) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Store{opts: opts}
	s.current = newSnapshot(nil, Origin{Name: "empty"}, 0, opts.Now())
	return s
}

// OnReplace registers a callback invoked after every snapshot swap
func (s *Store) OnReplace(fn func(*Snapshot)) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.watchers = append(s.watchers, fn)
}

// Snapshot returns the current snapshot
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// ReplaceSnapshot swaps in a new generation built from records
func (s *Store) ReplaceSnapshot(records []model.Employee, origin Origin) (*Snapshot, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.replaceLocked(records, origin)
}

func (s *Store) replaceLocked(records []model.Employee, origin Origin) (*Snapshot, error) {
	snap := newSnapshot(records, origin, s.version+1, s.opts.Now())

	if dups := snap.Index.Duplicates(); len(dups) > 0 {
		if s.opts.RejectDuplicates {
			return nil, &DuplicateNameError{Names: dups}
		}
		log.Warn("duplicate names in snapshot, keeping last occurrence", "count", len(dups), "names", strings.Join(dups, ", "))
	}
	if len(snap.Cycles) > 0 {
		log.Warn("management cycles in snapshot", "count", len(snap.Cycles))
		for _, c := range snap.Cycles {
			log.Debug("management cycle", "members", strings.Join(c.Members, " -> "))
		}
	}

	s.version = snap.Version
	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()

	log.Info("snapshot replaced",
		"version", snap.Version,
		"employees", snap.Len(),
		"source", origin.Name,
		"fallback", origin.Fallback,
	)

	for _, fn := range s.watchers {
		fn(snap)
	}
	return snap, nil
}

// Search runs a directory search against the current snapshot
func (s *Store) Search(query, department, country string) []model.Employee {
	snap := s.Snapshot()
	return hierarchy.Search(snap.Employees, hierarchy.Query{
		Text:       query,
		Department: department,
		Country:    country,
	})
}

// Hierarchy returns the reporting tree under the named person. The name is
// matched case-insensitively.
func (s *Store) Hierarchy(name string) (*model.HierarchyNode, error) {
	snap := s.Snapshot()
	team, root, err := teamOf(snap, name)
	if err != nil {
		return nil, err
	}
	return hierarchy.BuildTree(team, root)
}

// Forest returns the reporting trees of the whole directory
func (s *Store) Forest() ([]*model.HierarchyNode, error) {
	return hierarchy.BuildForest(s.Snapshot().Employees)
}

// MapData groups the named person and everyone below them by location
func (s *Store) MapData(name string) ([]model.LocationGroup, error) {
	team, _, err := teamOf(s.Snapshot(), name)
	if err != nil {
		return nil, err
	}
	return hierarchy.AggregateByLocation(team), nil
}

// teamOf resolves name and returns the person followed by all descendants
func teamOf(snap *Snapshot, name string) ([]model.Employee, string, error) {
	person, ok := snap.Index.Resolve(name)
	if !ok {
		return nil, "", &hierarchy.NotFoundError{Name: name}
	}

	descendants, err := hierarchy.DescendantsOf(snap.Index, person.Name)
	if err != nil {
		return nil, "", err
	}

	team := make([]model.Employee, 0, len(descendants)+1)
	team = append(team, person)
	team = append(team, descendants...)
	return team, person.Name, nil
}

// Filters lists the distinct values usable as search filters
type Filters struct {
	Departments []string `json:"departments"`
	Countries   []string `json:"countries"`
}

// Filters returns the sorted distinct departments and countries
func (s *Store) Filters() Filters {
	snap := s.Snapshot()
	departments := make(map[string]bool)
	countries := make(map[string]bool)
	for _, rec := range snap.Employees {
		if rec.Department != "" {
			departments[rec.Department] = true
		}
		if rec.Country != "" {
			countries[rec.Country] = true
		}
	}
	return Filters{
		Departments: sortedKeys(departments),
		Countries:   sortedKeys(countries),
	}
}

// ConnectionBreakdown counts people per relationship tag
type ConnectionBreakdown struct {
	Direct   int `json:"direct"`
	Indirect int `json:"indirect"`
	None     int `json:"none"`
}

// Stats summarizes the current snapshot
type Stats struct {
	TotalEmployees  int                 `json:"total_employees"`
	DepartmentCount int                 `json:"departments"`
	CountryCount    int                 `json:"countries"`
	LocationCount   int                 `json:"locations"`
	RootCount       int                 `json:"roots"`
	Connections     ConnectionBreakdown `json:"connections"`
	Representatives map[string]int      `json:"representatives"`
	Cycles          int                 `json:"cycles"`
	Duplicates      int                 `json:"duplicates"`
	NewConnections  int                 `json:"new_connections"`
	LastSync        time.Time           `json:"last_sync"`
	DataSource      string              `json:"data_source"`
	FallbackData    bool                `json:"fallback_data"`
	SnapshotVersion int64               `json:"snapshot_version"`
}

// Stats computes summary counts over the current snapshot
func (s *Store) Stats() Stats {
	snap := s.Snapshot()

	departments := make(map[string]bool)
	countries := make(map[string]bool)
	locations := make(map[string]bool)
	reps := make(map[string]int)
	var direct, indirect int

	for _, rec := range snap.Employees {
		departments[rec.Department] = true
		countries[rec.Country] = true
		locations[rec.Location] = true
		if rec.Representative != model.NoRepresentative {
			reps[rec.Representative]++
		}
		switch strings.ToLower(rec.Relationship) {
		case strings.ToLower(model.RelationshipDirect):
			direct++
		case strings.ToLower(model.RelationshipIndirect):
			indirect++
		}
	}

	total := len(snap.Employees)
	return Stats{
		TotalEmployees:  total,
		DepartmentCount: len(departments),
		CountryCount:    len(countries),
		LocationCount:   len(locations),
		RootCount:       len(snap.Index.Roots()),
		Connections: ConnectionBreakdown{
			Direct:   direct,
			Indirect: indirect,
			None:     total - direct - indirect,
		},
		Representatives: reps,
		Cycles:          len(snap.Cycles),
		Duplicates:      len(snap.Index.Duplicates()),
		NewConnections:  len(s.Connections()),
		LastSync:        snap.LoadedAt,
		DataSource:      snap.Origin.Name,
		FallbackData:    snap.Origin.Fallback,
		SnapshotVersion: snap.Version,
	}
}

// Suggest returns up to limit names that fuzzily match query, best first
func (s *Store) Suggest(query string, limit int) []string {
	snap := s.Snapshot()
	names := snap.Index.Names()

	ranks := fuzzy.RankFindNormalizedFold(strings.TrimSpace(query), names)
	sort.Sort(ranks)

	out := make([]string, 0, limit)
	for _, rank := range ranks {
		if len(out) == limit {
			break
		}
		out = append(out, names[rank.OriginalIndex])
	}
	return out
}

// AddEmployee appends a person to a copy of the current snapshot
func (s *Store) AddEmployee(e model.Employee) (*Snapshot, error) {
	e = e.Normalize()
	if e.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidEmployee)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cur := s.Snapshot()
	if cur.Index.Contains(e.Name) {
		return nil, &DuplicateNameError{Names: []string{e.Name}}
	}

	if e.ManagerName != "" {
		if model.NormalizeName(e.ManagerName) == model.NormalizeName(e.Name) {
			return nil, &hierarchy.CycleError{Names: []string{e.Name, e.Name}}
		}
		if m, ok := cur.Index.Resolve(e.ManagerName); ok {
			e.ManagerName = m.Name
		}
	}

	// Records already naming the newcomer as manager become its reports, so
	// walking up from the manager must not come back to the new name
	if chain := chainTo(cur, e.ManagerName, e.Name); chain != nil {
		return nil, &hierarchy.CycleError{Names: append([]string{e.Name}, chain...)}
	}

	records := make([]model.Employee, 0, len(cur.Employees)+1)
	records = append(records, cur.Employees...)
	records = append(records, e)
	return s.replaceLocked(records, editOrigin(cur.Origin))
}

// ChangeManager reassigns name to report to manager. An empty manager makes
// the person a root. Edits that would close a management loop are rejected.
func (s *Store) ChangeManager(name, manager string) (*Snapshot, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cur := s.Snapshot()
	person, ok := cur.Index.Resolve(name)
	if !ok {
		return nil, &hierarchy.NotFoundError{Name: name}
	}

	managerName := ""
	if strings.TrimSpace(manager) != "" {
		m, ok := cur.Index.Resolve(manager)
		if !ok {
			return nil, &hierarchy.NotFoundError{Name: manager}
		}
		managerName = m.Name
	}

	records := make([]model.Employee, len(cur.Employees))
	copy(records, cur.Employees)
	for i := range records {
		if records[i].Name == person.Name {
			records[i].ManagerName = managerName
		}
	}

	// Walk up from the new manager; reaching the person means a loop
	if chain := chainTo(cur, managerName, person.Name); chain != nil {
		return nil, &hierarchy.CycleError{Names: append([]string{person.Name}, chain...)}
	}

	return s.replaceLocked(records, editOrigin(cur.Origin))
}

// chainTo follows manager links up from start and returns the names walked
// when it arrives at target, or nil when it runs out first
func chainTo(snap *Snapshot, start, target string) []string {
	var chain []string
	visited := make(map[string]bool)
	for m := start; m != "" && !visited[m]; {
		chain = append(chain, m)
		if m == target {
			return chain
		}
		visited[m] = true
		rec, ok := snap.Index.Lookup(m)
		if !ok {
			break
		}
		m = rec.ManagerName
	}
	return nil
}

func editOrigin(o Origin) Origin {
	if !strings.HasSuffix(o.Name, "+edits") {
		o.Name += "+edits"
	}
	return o
}

// AddConnection records a stakeholder connection and assigns its ID
func (s *Store) AddConnection(c model.Connection) model.Connection {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	c.ID = len(s.connections) + 1
	c.CreatedAt = s.opts.Now()
	s.connections = append(s.connections, c)
	return c
}

// Connections returns all recorded connections, oldest first
func (s *Store) Connections() []model.Connection {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	out := make([]model.Connection, len(s.connections))
	copy(out, s.connections)
	return out
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
