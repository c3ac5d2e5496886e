package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrMissingLocation is returned for readings that name no location.
var ErrMissingLocation = errors.New("sensor reading has no location")

// ParseSensorReading deserializes a RawMessage's value into a SensorReading.
// When the payload carries no timestamp the message timestamp is used.
func ParseSensorReading(raw RawMessage) (SensorReading, error) {
	var reading SensorReading
	if err := json.Unmarshal(raw.Value, &reading); err != nil {
		return SensorReading{}, fmt.Errorf("parse sensor reading: %w", err)
	}

	reading.Location = strings.TrimSpace(reading.Location)
	if reading.Location == "" {
		return SensorReading{}, ErrMissingLocation
	}
	if reading.Timestamp.IsZero() {
		reading.Timestamp = raw.Timestamp
	}
	return reading, nil
}

// SeverityForWater maps a device water reading to a severity. Devices report
// clearance, so lower readings are more severe.
func SeverityForWater(water float64) Severity {
	switch {
	case water < 25:
		return SeverityRed
	case water < 50:
		return SeverityOrange
	default:
		return SeverityYellow
	}
}

// ApplyReading overwrites a point's readings with a live measurement.
func ApplyReading(p HazardPoint, reading SensorReading, now time.Time) HazardPoint {
	p.WaterLevel = ClampInt(int(math.Round(reading.Water)), 0, 100)
	p.Severity = SeverityForWater(reading.Water)
	p.Transport = p.Severity.Transport()
	if reading.Rainfall != nil {
		p.Rainfall = max(int(math.Round(*reading.Rainfall)), 0)
	}
	p.Timestamp = FormatTime(now)
	return p
}
