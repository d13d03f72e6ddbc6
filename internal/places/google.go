package places

import (
	"context"
	"fmt"
	"math"

	"googlemaps.github.io/maps"
)

// detailFields limits Place Details billing to what normalization reads.
var detailFields = []maps.PlaceDetailsFieldMask{
	"name",
	"formatted_address",
	"formatted_phone_number",
	"international_phone_number",
	"website",
	"url",
	"address_component",
	"rating",
	"user_ratings_total",
	"price_level",
	"business_status",
	"type",
}

// GoogleProvider implements Provider with the Google Maps Places API.
type GoogleProvider struct {
	client *maps.Client
}

// NewGoogleProvider creates a provider for apiKey. Extra client options are
// applied after the key; tests point maps.WithBaseURL at a local server.
func NewGoogleProvider(apiKey string, opts ...maps.ClientOption) (*GoogleProvider, error) {
	client, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("places: creating maps client: %w", err)
	}
	return &GoogleProvider{client: client}, nil
}

func (g *GoogleProvider) TextSearch(ctx context.Context, query, language, pageToken string) (Page, error) {
	resp, err := g.client.TextSearch(ctx, &maps.TextSearchRequest{
		Query:     query,
		Language:  language,
		PageToken: pageToken,
	})
	if err != nil {
		return Page{}, fmt.Errorf("places: text search %q: %w", query, err)
	}

	page := Page{
		Hits:          make([]Hit, 0, len(resp.Results)),
		NextPageToken: resp.NextPageToken,
	}
	for _, r := range resp.Results {
		page.Hits = append(page.Hits, Hit{PlaceID: r.PlaceID, Name: r.Name})
	}
	return page, nil
}

func (g *GoogleProvider) Details(ctx context.Context, placeID, language string) (Details, error) {
	res, err := g.client.PlaceDetails(ctx, &maps.PlaceDetailsRequest{
		PlaceID:  placeID,
		Language: language,
		Fields:   detailFields,
	})
	if err != nil {
		return Details{}, fmt.Errorf("places: details for %s: %w", placeID, err)
	}

	d := Details{
		Name:             res.Name,
		FormattedAddress: res.FormattedAddress,
		Phone:            res.FormattedPhoneNumber,
		IntlPhone:        res.InternationalPhoneNumber,
		Website:          res.Website,
		URL:              res.URL,
		BusinessStatus:   res.BusinessStatus,
		Types:            res.Types,
	}

	// The client decodes absent numbers as zero. A rating without reviews
	// and a zero price level are treated as "not reported".
	if res.UserRatingsTotal > 0 {
		rating := math.Round(float64(res.Rating)*10) / 10
		count := res.UserRatingsTotal
		d.Rating = &rating
		d.RatingCount = &count
	}
	if res.PriceLevel > 0 {
		level := res.PriceLevel
		d.PriceLevel = &level
	}

	for _, c := range res.AddressComponents {
		d.AddressComponents = append(d.AddressComponents, AddressComponent{LongName: c.LongName, Types: c.Types})
	}

	return d, nil
}
