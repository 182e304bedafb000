package source

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/ritzau/org-directory/pkg/model"
)

//go:embed seed.json
var seedData []byte

// SeedName identifies the built-in sample directory
const SeedName = "seed"

// SeedSource serves the built-in sample directory
type SeedSource struct{}

// NewSeedSource returns the built-in sample directory source
func NewSeedSource() *SeedSource {
	return &SeedSource{}
}

func (s *SeedSource) Name() string     { return SeedName }
func (s *SeedSource) Location() string { return "" }

func (s *SeedSource) Load(ctx context.Context) ([]model.Employee, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return SeedEmployees()
}

// SeedEmployees decodes the embedded sample directory
func SeedEmployees() ([]model.Employee, error) {
	dec := json.NewDecoder(bytes.NewReader(seedData))
	dec.DisallowUnknownFields()

	var records []model.Employee
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding seed data: %w", err)
	}
	return records, nil
}
