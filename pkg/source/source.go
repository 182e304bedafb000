// Package source defines where directory records come from.
package source

import (
	"context"

	"github.com/ritzau/org-directory/pkg/model"
)

// Source represents a provider of directory records.
// Implementations encapsulate fetching and parsing (a file, a remote
// workbook, built-in data) and return the flat employee list.
type Source interface {
	// Name returns a short identifier of the source (e.g. "seed", "spreadsheet").
	Name() string

	// Location describes where the data lives (a path or URL), "" if built in.
	Location() string

	// Load fetches the full record list.
	// It should respect the context for cancellation.
	Load(ctx context.Context) ([]model.Employee, error)
}

// StaticSource serves a fixed record list
type StaticSource struct {
	name    string
	records []model.Employee
	err     error
}

// NewStaticSource creates a source that always returns records
func NewStaticSource(name string, records []model.Employee) *StaticSource {
	return &StaticSource{name: name, records: records}
}

// NewFailingSource creates a source whose Load always fails with err
func NewFailingSource(name string, err error) *StaticSource {
	return &StaticSource{name: name, err: err}
}

func (s *StaticSource) Name() string     { return s.name }
func (s *StaticSource) Location() string { return "" }

func (s *StaticSource) Load(ctx context.Context) ([]model.Employee, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	out := make([]model.Employee, len(s.records))
	copy(out, s.records)
	return out, nil
}
