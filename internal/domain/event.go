package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType names a state transition in the feed.
type EventType string

const (
	EventPointsInitialized EventType = "points_initialized"
	EventPointCreated      EventType = "point_created"
	EventMissionAssigned   EventType = "mission_assigned"
	EventMissionCompleted  EventType = "mission_completed"
	EventTick              EventType = "tick"
	EventReadingApplied    EventType = "reading_applied"
)

// FeedEvent records one state transition for downstream consumers.
// ID is the id of the point or mission the event is about; feed-wide events
// (initialize, tick) carry an empty ID. Seq numbers events in the order the
// state changes happened; sinks may deliver concurrent events out of order.
type FeedEvent struct {
	Seq         uint64        `json:"seq"`
	Type        EventType     `json:"type"`
	ID          string        `json:"id,omitempty"`
	EmittedAt   time.Time     `json:"emitted_at"`
	Point       *HazardPoint  `json:"point,omitempty"`
	Points      []HazardPoint `json:"points,omitempty"`
	Mission     *Mission      `json:"mission,omitempty"`
	PointsCount int           `json:"points_count,omitempty"`
}

// OutputEvent is the serialized form destined for an event sink.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// SerializeFeedEvent marshals a FeedEvent into its sink representation.
func SerializeFeedEvent(event FeedEvent) (OutputEvent, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize feed event: %w", err)
	}
	return OutputEvent{
		Key:   []byte(event.ID),
		Value: data,
		Headers: map[string]string{
			"event_type": string(event.Type),
			"emitted_at": event.EmittedAt.UTC().Format(time.RFC3339),
		},
	}, nil
}
