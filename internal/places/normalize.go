package places

import (
	"slices"
	"strings"

	"github.com/sakif/leadbook/internal/model"
)

const maxTypes = 10

// normalize maps provider details onto a BusinessRecord. City and district
// come from the address components; the requested city is the fallback for
// city, the empty string for district.
func normalize(d Details, requestedCity, country string) model.BusinessRecord {
	rec := model.BusinessRecord{
		Name:        d.Name,
		City:        cityOf(d.AddressComponents, requestedCity),
		District:    districtOf(d.AddressComponents),
		Country:     country,
		Address:     d.FormattedAddress,
		Phone:       d.Phone,
		Website:     d.Website,
		Rating:      d.Rating,
		RatingCount: d.RatingCount,
		PriceLevel:  d.PriceLevel,
		Status:      d.BusinessStatus,
		IntlPhone:   d.IntlPhone,
		URL:         d.URL,
	}

	types := d.Types
	if len(types) > maxTypes {
		types = types[:maxTypes]
	}
	if len(types) > 0 {
		rec.PrimaryType = types[0]
	}
	rec.Types = strings.Join(types, ", ")

	return rec
}

func cityOf(components []AddressComponent, fallback string) string {
	for _, c := range components {
		if slices.Contains(c.Types, "locality") || slices.Contains(c.Types, "administrative_area_level_1") {
			if c.LongName != "" {
				return c.LongName
			}
			return fallback
		}
	}
	return fallback
}

func districtOf(components []AddressComponent) string {
	for _, c := range components {
		for _, t := range c.Types {
			switch t {
			case "sublocality", "sublocality_level_1", "administrative_area_level_2":
				return c.LongName
			}
		}
	}
	return ""
}
