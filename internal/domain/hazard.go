package domain

import (
	"context"
	"time"
)

// Severity classifies how urgent a hazard point is.
type Severity string

const (
	SeverityRed    Severity = "red"
	SeverityOrange Severity = "orange"
	SeverityYellow Severity = "yellow"
)

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityRed, SeverityOrange, SeverityYellow:
		return true
	default:
		return false
	}
}

// Transport returns the vehicle dispatched for a severity.
func (s Severity) Transport() string {
	switch s {
	case SeverityRed:
		return "Helicopter"
	case SeverityOrange:
		return "Boat"
	case SeverityYellow:
		return "Truck"
	default:
		return ""
	}
}

// HazardPoint is a simulated sensor site awaiting a response.
type HazardPoint struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Lat        float64  `json:"lat"`
	Lng        float64  `json:"lng"`
	Area       string   `json:"area,omitempty"`
	FloodRisk  string   `json:"flood_risk,omitempty"`
	Address    string   `json:"address,omitempty"`
	Severity   Severity `json:"severity"`
	WaterLevel int      `json:"water_level"`
	Rainfall   int      `json:"rainfall"`
	WindSpeed  int      `json:"wind_speed"`
	Transport  string   `json:"transport"`
	Timestamp  string   `json:"timestamp"`
	Assigned   bool     `json:"assigned"`
}

// Mission is a response task created by assigning an agency to a hazard point.
// PointID is a back-reference only; the point is gone from the active set
// once the mission exists.
type Mission struct {
	ID        string   `json:"id"`
	PointID   string   `json:"point_id"`
	Location  string   `json:"location"`
	Severity  Severity `json:"severity"`
	Agency    string   `json:"agency"`
	Transport string   `json:"transport"`
	StartTime string   `json:"start_time"`
	Progress  int      `json:"progress"`
	Completed bool     `json:"completed"`
	EndTime   string   `json:"end_time,omitempty"`
}

// SensorReading is a live measurement from a field device at a named location.
type SensorReading struct {
	Location  string    `json:"location"`
	Water     float64   `json:"water"`
	Rainfall  *float64  `json:"rainfall,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RawMessage is an unprocessed message from the sensor topic.
type RawMessage struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// FormatTime renders timestamps the way every API payload carries them.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
