// Package places turns free-text business searches into normalized
// model.BusinessRecord values using an external places provider.
//
// A search is one paginated text search followed by a detail fetch per hit.
// Provider is the seam: GoogleProvider talks to the Google Maps Places API,
// tests substitute a fake.
package places

import (
	"context"
	"errors"
)

// Hit is one text-search result. Only the place ID is needed to fetch details.
type Hit struct {
	PlaceID string
	Name    string
}

// Page is one page of text-search results. An empty NextPageToken means the
// provider has nothing more.
type Page struct {
	Hits          []Hit
	NextPageToken string
}

type AddressComponent struct {
	LongName string
	Types    []string
}

// Details is the provider's view of a single place. Nil numeric fields mean
// the provider did not report a value.
type Details struct {
	Name              string
	FormattedAddress  string
	Phone             string
	IntlPhone         string
	Website           string
	URL               string
	BusinessStatus    string
	Rating            *float64
	RatingCount       *int
	PriceLevel        *int
	AddressComponents []AddressComponent
	Types             []string
}

func (d Details) empty() bool {
	return d.Name == "" && d.FormattedAddress == ""
}

// Provider is the external places API.
type Provider interface {
	TextSearch(ctx context.Context, query, language, pageToken string) (Page, error)
	Details(ctx context.Context, placeID, language string) (Details, error)
}

// ErrNotConfigured is returned by Unconfigured for every call.
var ErrNotConfigured = errors.New("places: no provider API key configured")

// Unconfigured is the provider used when no API key is set. The server still
// starts; searches fail with a provider error.
type Unconfigured struct{}

func (Unconfigured) TextSearch(context.Context, string, string, string) (Page, error) {
	return Page{}, ErrNotConfigured
}

func (Unconfigured) Details(context.Context, string, string) (Details, error) {
	return Details{}, ErrNotConfigured
}
