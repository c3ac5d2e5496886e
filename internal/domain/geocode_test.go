package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock geocoder ---

type mockGeocoder struct {
	results map[string]GeocodingResult
	err     error
	calls   int
}

func (m *mockGeocoder) ReverseGeocode(_ context.Context, lat, _ float64) (GeocodingResult, error) {
	m.calls++
	if m.err != nil {
		return GeocodingResult{}, m.err
	}
	if lat > 13.1 {
		return m.results["north"], nil
	}
	return m.results["south"], nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testLocations() []Location {
	return []Location{
		{Name: "Manali", Lat: 13.167, Lng: 80.256, Area: "North"},
		{Name: "Adyar", Lat: 13.007, Lng: 80.257, Area: "South"},
	}
}

// --- tests ---

func TestEnrichCatalog_NilGeocoder(t *testing.T) {
	locs := testLocations()

	result := EnrichCatalog(context.Background(), locs, nil, discardLogger())

	require.Len(t, result, 2)
	assert.Empty(t, result[0].Address)
	assert.Empty(t, result[1].Address)
}

func TestEnrichCatalog_ResolvesAddresses(t *testing.T) {
	geo := &mockGeocoder{results: map[string]GeocodingResult{
		"north": {FormattedAddress: "Manali, Chennai, Tamil Nadu, India", PlaceName: "Manali"},
		"south": {FormattedAddress: "Adyar, Chennai, Tamil Nadu, India", PlaceName: "Adyar"},
	}}

	result := EnrichCatalog(context.Background(), testLocations(), geo, discardLogger())

	require.Len(t, result, 2)
	assert.Equal(t, "Manali, Chennai, Tamil Nadu, India", result[0].Address)
	assert.Equal(t, "Adyar, Chennai, Tamil Nadu, India", result[1].Address)
	assert.Equal(t, 2, geo.calls)
}

func TestEnrichCatalog_DoesNotMutateInput(t *testing.T) {
	geo := &mockGeocoder{results: map[string]GeocodingResult{
		"north": {FormattedAddress: "Manali, Chennai"},
		"south": {FormattedAddress: "Adyar, Chennai"},
	}}
	locs := testLocations()

	_ = EnrichCatalog(context.Background(), locs, geo, discardLogger())

	assert.Empty(t, locs[0].Address)
	assert.Empty(t, locs[1].Address)
}

func TestEnrichCatalog_Error_GracefulDegradation(t *testing.T) {
	geo := &mockGeocoder{err: errors.New("rate limited")}

	result := EnrichCatalog(context.Background(), testLocations(), geo, discardLogger())

	require.Len(t, result, 2)
	assert.Empty(t, result[0].Address)
	assert.Equal(t, "Manali", result[0].Name)
	assert.Equal(t, 2, geo.calls)
}

func TestEnrichCatalog_EmptyResultKeepsAddress(t *testing.T) {
	geo := &mockGeocoder{results: map[string]GeocodingResult{}}
	locs := testLocations()
	locs[1].Address = "preset"

	result := EnrichCatalog(context.Background(), locs, geo, discardLogger())

	assert.Empty(t, result[0].Address)
	assert.Equal(t, "preset", result[1].Address)
}

func TestEnrichCatalog_StopsOnCancelledContext(t *testing.T) {
	geo := &mockGeocoder{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := EnrichCatalog(ctx, testLocations(), geo, discardLogger())

	assert.Len(t, result, 2)
	assert.Equal(t, 0, geo.calls)
}
