// Package simulator owns the in-memory disaster feed: the active hazard
// points, the active missions and the transitions between them.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/disaster-feed-service/internal/domain"
	"github.com/couchcryptid/disaster-feed-service/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

var (
	// ErrNotFound is the parent of every lookup failure.
	ErrNotFound = errors.New("not found")

	ErrPointNotFound   = fmt.Errorf("point %w", ErrNotFound)
	ErrMissionNotFound = fmt.Errorf("mission %w", ErrNotFound)
)

const (
	defaultSpawnProbability = 0.3
	minInitialPoints        = 3
	maxInitialPoints        = 5
)

// Publisher receives feed events after each state transition.
type Publisher interface {
	Publish(ctx context.Context, event domain.FeedEvent) error
}

// Simulator holds the active point and mission sets behind a single lock.
// All methods are safe for concurrent use.
type Simulator struct {
	mu         sync.Mutex
	points     []domain.HazardPoint
	missions   []domain.Mission
	lastUpdate time.Time
	seq        uint64
	rng        *rand.Rand

	catalog          []domain.Location
	spawnProbability float64
	clock            clockwork.Clock
	newID            func(prefix string) string
	publisher        Publisher
	logger           *slog.Logger
	metrics          *observability.Metrics
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithClock sets the time source.
func WithClock(c clockwork.Clock) Option {
	return func(s *Simulator) { s.clock = c }
}

// WithSeed makes every random draw reproducible. Zero keeps a random seed.
func WithSeed(seed uint64) Option {
	return func(s *Simulator) {
		if seed != 0 {
			s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
		}
	}
}

// WithIDGenerator replaces the UUID-based id generator.
func WithIDGenerator(fn func(prefix string) string) Option {
	return func(s *Simulator) { s.newID = fn }
}

// WithCatalog replaces the built-in Chennai catalog.
func WithCatalog(locations []domain.Location) Option {
	return func(s *Simulator) {
		if len(locations) > 0 {
			s.catalog = locations
		}
	}
}

// WithSpawnProbability sets the chance that a tick creates a new point.
func WithSpawnProbability(p float64) Option {
	return func(s *Simulator) { s.spawnProbability = p }
}

// WithPublisher sets where feed events go. The default discards them.
func WithPublisher(p Publisher) Option {
	return func(s *Simulator) { s.publisher = p }
}

// New creates an empty Simulator.
func New(logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Simulator {
	s := &Simulator{
		rng:              rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		catalog:          domain.Catalog(),
		spawnProbability: defaultSpawnProbability,
		clock:            clockwork.NewRealClock(),
		newID:            uuidID,
		logger:           logger,
		metrics:          metrics,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastUpdate = s.clock.Now()
	return s
}

// agencyLabels are the agencies tracked by name on the assignment counter.
// Agency is free text from the client, so anything else is counted as "other".
var agencyLabels = map[string]bool{"NDRF": true, "NGO": true}

func agencyLabel(agency string) string {
	if agencyLabels[agency] {
		return agency
	}
	return "other"
}

func uuidID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// Points returns a copy of the active points and the last update time.
func (s *Simulator) Points() ([]domain.HazardPoint, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clonePoints(s.points), s.lastUpdate
}

// Missions returns a copy of the active missions.
func (s *Simulator) Missions() []domain.Mission {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Mission, len(s.missions))
	copy(out, s.missions)
	return out
}

// Assign removes the point from the active set and opens a mission for it.
// It returns ErrPointNotFound, leaving state unchanged, if the point is not active.
func (s *Simulator) Assign(ctx context.Context, pointID, agency string) (domain.Mission, error) {
	s.mu.Lock()
	idx := s.pointIndex(pointID)
	if idx < 0 {
		s.mu.Unlock()
		return domain.Mission{}, ErrPointNotFound
	}

	point := s.points[idx]
	s.points = append(s.points[:idx], s.points[idx+1:]...)

	now := s.clock.Now()
	mission := domain.Mission{
		ID:        s.newID("mission"),
		PointID:   point.ID,
		Location:  point.Name,
		Severity:  point.Severity,
		Agency:    strings.ToUpper(agency),
		Transport: point.Transport,
		StartTime: domain.FormatTime(now),
		Progress:  0,
	}
	s.missions = append(s.missions, mission)
	s.updateGauges()
	seq := s.reserveSeq(1)
	s.mu.Unlock()

	s.metrics.MissionsAssigned.WithLabelValues(agencyLabel(mission.Agency)).Inc()
	s.logger.Info("mission assigned",
		"mission_id", mission.ID,
		"point_id", point.ID,
		"location", point.Name,
		"agency", mission.Agency,
	)
	s.emit(ctx, seq, domain.FeedEvent{Type: domain.EventMissionAssigned, ID: mission.ID, EmittedAt: now, Mission: &mission})
	return mission, nil
}

// Complete closes a mission and drops it from the active set. The completed
// record is returned to the caller and not retained.
func (s *Simulator) Complete(ctx context.Context, missionID string) (domain.Mission, error) {
	s.mu.Lock()
	idx := -1
	for i := range s.missions {
		if s.missions[i].ID == missionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return domain.Mission{}, ErrMissionNotFound
	}

	now := s.clock.Now()
	mission := s.missions[idx]
	mission.Completed = true
	mission.Progress = 100
	mission.EndTime = domain.FormatTime(now)
	s.missions = append(s.missions[:idx], s.missions[idx+1:]...)
	s.updateGauges()
	seq := s.reserveSeq(1)
	s.mu.Unlock()

	s.metrics.MissionsCompleted.Inc()
	s.logger.Info("mission completed", "mission_id", mission.ID, "location", mission.Location, "agency", mission.Agency)
	s.emit(ctx, seq, domain.FeedEvent{Type: domain.EventMissionCompleted, ID: mission.ID, EmittedAt: now, Mission: &mission})
	return mission, nil
}

// Tick advances the simulation by one step: assigned leftovers are dropped,
// unassigned points drift, and a new point may appear. It returns the number
// of active points afterwards.
func (s *Simulator) Tick(ctx context.Context) int {
	s.mu.Lock()
	now := s.clock.Now()

	kept := s.points[:0]
	for _, p := range s.points {
		if p.Assigned {
			continue
		}
		kept = append(kept, domain.Drift(s.rng, p, now))
	}
	s.points = kept

	var created *domain.HazardPoint
	if s.rng.Float64() < s.spawnProbability {
		loc := s.catalog[s.rng.IntN(len(s.catalog))]
		p := domain.NewHazardPoint(s.rng, s.newID("point"), loc, now)
		s.points = append(s.points, p)
		created = &p
	}

	s.lastUpdate = now
	count := len(s.points)
	s.updateGauges()
	n := 1
	if created != nil {
		n = 2
	}
	seq := s.reserveSeq(n)
	s.mu.Unlock()

	s.metrics.Ticks.Inc()
	events := []domain.FeedEvent{{Type: domain.EventTick, EmittedAt: now, PointsCount: count}}
	if created != nil {
		s.metrics.PointsCreated.Inc()
		s.logger.Debug("point created", "point_id", created.ID, "location", created.Name, "severity", created.Severity)
		events = append(events, domain.FeedEvent{Type: domain.EventPointCreated, ID: created.ID, EmittedAt: now, Point: created})
	}
	s.emit(ctx, seq, events...)
	return count
}

// Initialize discards all points and missions and generates 3 to 5 fresh
// points at distinct catalog locations.
func (s *Simulator) Initialize(ctx context.Context) []domain.HazardPoint {
	s.mu.Lock()
	now := s.clock.Now()

	n := min(minInitialPoints+s.rng.IntN(maxInitialPoints-minInitialPoints+1), len(s.catalog))
	order := s.rng.Perm(len(s.catalog))
	points := make([]domain.HazardPoint, 0, n)
	for _, i := range order[:n] {
		points = append(points, domain.NewHazardPoint(s.rng, s.newID("point"), s.catalog[i], now))
	}

	s.points = points
	s.missions = nil
	s.lastUpdate = now
	s.updateGauges()
	out := clonePoints(points)
	seq := s.reserveSeq(1)
	s.mu.Unlock()

	s.metrics.PointsCreated.Add(float64(len(out)))
	s.logger.Info("feed initialized", "points", len(out))
	s.emit(ctx, seq, domain.FeedEvent{Type: domain.EventPointsInitialized, EmittedAt: now, Points: clonePoints(out), PointsCount: len(out)})
	return out
}

// ApplyReading updates every unassigned point at the reading's location with
// the live measurement. It returns the number of points updated.
func (s *Simulator) ApplyReading(ctx context.Context, reading domain.SensorReading) int {
	s.mu.Lock()
	now := s.clock.Now()
	var updated []domain.HazardPoint
	var seq uint64
	for i := range s.points {
		if s.points[i].Assigned || !strings.EqualFold(s.points[i].Name, reading.Location) {
			continue
		}
		s.points[i] = domain.ApplyReading(s.points[i], reading, now)
		updated = append(updated, s.points[i])
	}
	if len(updated) > 0 {
		seq = s.reserveSeq(len(updated))
		s.lastUpdate = now
	}
	s.mu.Unlock()

	if len(updated) == 0 {
		return 0
	}
	s.metrics.ReadingsApplied.Inc()
	events := make([]domain.FeedEvent, 0, len(updated))
	for i := range updated {
		events = append(events, domain.FeedEvent{Type: domain.EventReadingApplied, ID: updated[i].ID, EmittedAt: now, Point: &updated[i]})
	}
	s.emit(ctx, seq, events...)
	return len(updated)
}

// LoadReadings applies a batch of readings. It never fails; the error return
// satisfies the pipeline's loader contract.
func (s *Simulator) LoadReadings(ctx context.Context, readings []domain.SensorReading) error {
	for _, r := range readings {
		if n := s.ApplyReading(ctx, r); n == 0 {
			s.logger.Debug("sensor reading matched no active point", "location", r.Location)
		}
	}
	return nil
}

// CheckReadiness always succeeds; the simulator has no external dependencies.
func (s *Simulator) CheckReadiness(_ context.Context) error {
	return nil
}

// reserveSeq must be called with mu held. It returns the first of n
// consecutive event sequence numbers.
func (s *Simulator) reserveSeq(n int) uint64 {
	first := s.seq + 1
	s.seq += uint64(n)
	return first
}

// emit publishes events outside the state lock, numbering them from first.
// Concurrent operations may reach the sink out of order; Seq follows the
// order the state changes were made in. Failures are logged and counted but
// never surface to the caller.
func (s *Simulator) emit(ctx context.Context, first uint64, events ...domain.FeedEvent) {
	if s.publisher == nil {
		return
	}
	for i, e := range events {
		e.Seq = first + uint64(i)
		if err := s.publisher.Publish(ctx, e); err != nil {
			s.metrics.EventsFailed.WithLabelValues(string(e.Type)).Inc()
			s.logger.Warn("publish feed event failed", "type", e.Type, "id", e.ID, "error", err)
			continue
		}
		s.metrics.EventsPublished.WithLabelValues(string(e.Type)).Inc()
	}
}

// pointIndex must be called with mu held.
func (s *Simulator) pointIndex(id string) int {
	for i := range s.points {
		if s.points[i].ID == id {
			return i
		}
	}
	return -1
}

// updateGauges must be called with mu held.
func (s *Simulator) updateGauges() {
	s.metrics.ActivePoints.Set(float64(len(s.points)))
	s.metrics.ActiveMissions.Set(float64(len(s.missions)))
}

func clonePoints(in []domain.HazardPoint) []domain.HazardPoint {
	out := make([]domain.HazardPoint, len(in))
	copy(out, in)
	return out
}
