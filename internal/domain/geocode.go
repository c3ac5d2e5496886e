package domain

import (
	"context"
	"log/slog"
)

// EnrichCatalog attaches a reverse-geocoded address to every location.
// If geocoder is nil or a lookup fails, the location keeps whatever address
// it already had (graceful degradation).
func EnrichCatalog(ctx context.Context, locations []Location, geocoder Geocoder, logger *slog.Logger) []Location {
	out := make([]Location, len(locations))
	copy(out, locations)
	if geocoder == nil {
		return out
	}

	resolved := 0
	for i := range out {
		if ctx.Err() != nil {
			break
		}
		result, err := geocoder.ReverseGeocode(ctx, out[i].Lat, out[i].Lng)
		if err != nil {
			logger.Warn("reverse geocoding failed",
				"location", out[i].Name,
				"lat", out[i].Lat,
				"lng", out[i].Lng,
				"error", err,
			)
			continue
		}
		if result.FormattedAddress == "" {
			continue
		}
		out[i].Address = result.FormattedAddress
		resolved++
	}

	logger.Info("catalog geocoded", "locations", len(out), "resolved", resolved)
	return out
}
