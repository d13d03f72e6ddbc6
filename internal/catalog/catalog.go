// Package catalog holds the fixed lists the application offers to users:
// cities, countries and business categories, plus the pipeline stages and
// activity types from the model package.
//
// The lists are embedded at build time and decoded once. A *Catalog is never
// mutated after Load returns; components receive it explicitly.
package catalog

import (
	_ "embed"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/sakif/leadbook/internal/model"
)

// AllCities is the city label recorded for searches that span every city.
const AllCities = "All Cities"

//go:embed catalog.yaml
var defaultYAML []byte

type Catalog struct {
	Cities     []string `yaml:"cities"     json:"cities"`
	Countries  []string `yaml:"countries"  json:"countries"`
	Categories []string `yaml:"categories" json:"categories"`
}

// Load decodes the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(defaultYAML)
}

// Parse decodes a catalog document. Every list must be non-empty.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("catalog: decoding: %w", err)
	}
	switch {
	case len(c.Cities) == 0:
		return nil, fmt.Errorf("catalog: no cities")
	case len(c.Countries) == 0:
		return nil, fmt.Errorf("catalog: no countries")
	case len(c.Categories) == 0:
		return nil, fmt.Errorf("catalog: no categories")
	}
	return &c, nil
}

// DefaultCountry is the country used when a search request names none.
func (c *Catalog) DefaultCountry() string {
	return c.Countries[0]
}

// HasCity reports whether name is one of the catalog cities.
func (c *Catalog) HasCity(name string) bool {
	return slices.Contains(c.Cities, name)
}

// Listing is the payload served by GET /api/config.
type Listing struct {
	Cities        []string             `json:"cities"`
	Countries     []string             `json:"countries"`
	Categories    []string             `json:"categories"`
	Stages        []model.Stage        `json:"stages"`
	ActivityTypes []model.ActivityType `json:"activityTypes"`
}

// Listing returns copies of every list so callers cannot alter the catalog.
func (c *Catalog) Listing() Listing {
	return Listing{
		Cities:        slices.Clone(c.Cities),
		Countries:     slices.Clone(c.Countries),
		Categories:    slices.Clone(c.Categories),
		Stages:        slices.Clone(model.Stages),
		ActivityTypes: slices.Clone(model.ActivityTypes),
	}
}
