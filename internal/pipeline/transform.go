package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/couchcryptid/disaster-feed-service/internal/domain"
)

// SensorTransformer implements Transformer by parsing the JSON payload sent
// by field devices.
type SensorTransformer struct {
	logger *slog.Logger
}

// NewTransformer creates a SensorTransformer.
func NewTransformer(logger *slog.Logger) *SensorTransformer {
	return &SensorTransformer{logger: logger}
}

func (t *SensorTransformer) Transform(_ context.Context, raw domain.RawMessage) (domain.SensorReading, error) {
	reading, err := domain.ParseSensorReading(raw)
	if err != nil {
		return domain.SensorReading{}, err
	}
	if math.IsNaN(reading.Water) || math.IsInf(reading.Water, 0) || reading.Water < 0 {
		return domain.SensorReading{}, fmt.Errorf("sensor reading for %s: invalid water value %v", reading.Location, reading.Water)
	}
	t.logger.Debug("sensor reading parsed", "location", reading.Location, "water", reading.Water)
	return reading, nil
}
