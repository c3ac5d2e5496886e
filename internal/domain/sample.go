package domain

import (
	"math/rand/v2"
	"time"
)

// metricRange is an inclusive [min, max] integer range.
type metricRange struct {
	min, max int
}

func (m metricRange) sample(r *rand.Rand) int {
	return m.min + r.IntN(m.max-m.min+1)
}

var (
	waterRanges = map[Severity]metricRange{
		SeverityRed:    {80, 100},
		SeverityOrange: {60, 79},
		SeverityYellow: {40, 59},
	}
	rainfallRanges = map[Severity]metricRange{
		SeverityRed:    {70, 120},
		SeverityOrange: {50, 69},
		SeverityYellow: {30, 49},
	}
	windRange = metricRange{10, 60}
)

const (
	// Per-tick drift bounds for unassigned points.
	waterDrift    = 5
	rainfallDrift = 3
)

// RandomSeverity draws a severity: 30% red, 30% orange, 40% yellow.
func RandomSeverity(r *rand.Rand) Severity {
	switch f := r.Float64(); {
	case f < 0.3:
		return SeverityRed
	case f < 0.6:
		return SeverityOrange
	default:
		return SeverityYellow
	}
}

// SampleWaterLevel draws an initial water level for the severity.
func SampleWaterLevel(r *rand.Rand, s Severity) int {
	return waterRanges[s].sample(r)
}

// SampleRainfall draws an initial rainfall for the severity.
func SampleRainfall(r *rand.Rand, s Severity) int {
	return rainfallRanges[s].sample(r)
}

// SampleWindSpeed draws a wind speed; it does not depend on severity.
func SampleWindSpeed(r *rand.Rand) int {
	return windRange.sample(r)
}

// NewHazardPoint generates a point at loc with a random severity and readings
// drawn from that severity's ranges.
func NewHazardPoint(r *rand.Rand, id string, loc Location, now time.Time) HazardPoint {
	severity := RandomSeverity(r)
	return HazardPoint{
		ID:         id,
		Name:       loc.Name,
		Lat:        loc.Lat,
		Lng:        loc.Lng,
		Area:       loc.Area,
		FloodRisk:  loc.FloodRisk,
		Address:    loc.Address,
		Severity:   severity,
		WaterLevel: SampleWaterLevel(r, severity),
		Rainfall:   SampleRainfall(r, severity),
		WindSpeed:  SampleWindSpeed(r),
		Transport:  severity.Transport(),
		Timestamp:  FormatTime(now),
	}
}

// Drift ages a point by one tick: water moves by up to ±5 within [0, 100],
// rainfall by up to ±3 and never below 0.
func Drift(r *rand.Rand, p HazardPoint, now time.Time) HazardPoint {
	p.WaterLevel = ClampInt(p.WaterLevel+r.IntN(2*waterDrift+1)-waterDrift, 0, 100)
	p.Rainfall = max(p.Rainfall+r.IntN(2*rainfallDrift+1)-rainfallDrift, 0)
	p.Timestamp = FormatTime(now)
	return p
}

// ClampInt limits v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
