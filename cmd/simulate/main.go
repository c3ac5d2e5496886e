// Command simulate runs the disaster feed offline against a fake clock and
// writes reproducible fixtures: the final feed snapshot, every emitted feed
// event, and a batch of sensor readings for the pipeline test suites.
//
// Usage:
//
//	go run ./cmd/simulate \
//	  -seed 42 -ticks 20 \
//	  -out data/mock/feed_snapshot.json \
//	  -events-out data/mock/feed_events.json \
//	  -readings-out data/mock/sensor_readings.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/couchcryptid/disaster-feed-service/internal/domain"
	"github.com/couchcryptid/disaster-feed-service/internal/observability"
	"github.com/couchcryptid/disaster-feed-service/internal/simulator"
	"github.com/jonboulle/clockwork"
)

var baseTime = time.Date(2024, time.November, 30, 6, 0, 0, 0, time.UTC)

var agencies = []string{"NDRF", "NGO"}

type snapshot struct {
	Seed       uint64               `json:"seed"`
	Ticks      int                  `json:"ticks"`
	LastUpdate string               `json:"last_update"`
	Points     []domain.HazardPoint `json:"points"`
	Missions   []domain.Mission     `json:"missions"`
	Completed  []domain.Mission     `json:"completed"`
}

// collector keeps every event in emission order.
type collector struct {
	events []domain.FeedEvent
}

func (c *collector) Publish(_ context.Context, event domain.FeedEvent) error {
	c.events = append(c.events, event)
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	seed := flag.Uint64("seed", 42, "simulator seed (must be non-zero for reproducible output)")
	ticks := flag.Int("ticks", 20, "number of feed ticks to run")
	interval := flag.Duration("interval", 30*time.Second, "simulated time between ticks")
	assignEvery := flag.Int("assign-every", 3, "assign the first open point every N ticks (0 disables)")
	spawn := flag.Float64("spawn", 0.3, "probability that a tick creates a new point")
	out := flag.String("out", "", "output path for the final feed snapshot")
	eventsOut := flag.String("events-out", "", "output path for the emitted feed events")
	readingsOut := flag.String("readings-out", "", "output path for a sensor reading fixture")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *seed == 0 {
		return fmt.Errorf("-seed must be non-zero")
	}

	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(baseTime)
	events := &collector{}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	sim := simulator.New(logger, observability.NewMetricsForTesting(),
		simulator.WithClock(clock),
		simulator.WithSeed(*seed),
		simulator.WithSpawnProbability(*spawn),
		simulator.WithPublisher(events),
	)

	sim.Initialize(ctx)
	completed, err := drive(ctx, sim, clock, *ticks, *interval, *assignEvery)
	if err != nil {
		return err
	}

	points, last := sim.Points()
	snap := snapshot{
		Seed:       *seed,
		Ticks:      *ticks,
		LastUpdate: domain.FormatTime(last),
		Points:     points,
		Missions:   sim.Missions(),
		Completed:  completed,
	}
	if err := writeJSON(*out, snap); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	log.Printf("wrote snapshot: %s", *out)

	if *eventsOut != "" {
		if err := writeJSON(*eventsOut, events.events); err != nil {
			return fmt.Errorf("writing events: %w", err)
		}
		log.Printf("wrote events: %s", *eventsOut)
	}

	if *readingsOut != "" {
		readings := sampleReadings(*seed, points, clock.Now())
		if err := writeJSON(*readingsOut, readings); err != nil {
			return fmt.Errorf("writing readings: %w", err)
		}
		log.Printf("wrote readings: %s", *readingsOut)
	}

	printStats(snap, events.events)
	return nil
}

// drive advances the feed tick by tick. On every assignEvery-th tick the
// previous round's missions are completed and the first open point is
// assigned to the next agency in rotation.
func drive(ctx context.Context, sim *simulator.Simulator, clock *clockwork.FakeClock, ticks int, interval time.Duration, assignEvery int) ([]domain.Mission, error) {
	var completed []domain.Mission
	round := 0
	for i := 1; i <= ticks; i++ {
		clock.Advance(interval)
		sim.Tick(ctx)

		if assignEvery <= 0 || i%assignEvery != 0 {
			continue
		}

		for _, m := range sim.Missions() {
			done, err := sim.Complete(ctx, m.ID)
			if err != nil {
				return nil, fmt.Errorf("complete %s: %w", m.ID, err)
			}
			completed = append(completed, done)
		}

		points, _ := sim.Points()
		if len(points) == 0 {
			continue
		}
		agency := agencies[round%len(agencies)]
		round++
		if _, err := sim.Assign(ctx, points[0].ID, agency); err != nil {
			return nil, fmt.Errorf("assign %s: %w", points[0].ID, err)
		}
	}
	return completed, nil
}

// sampleReadings produces one reading per open point so the fixture always
// matches something the snapshot contains.
func sampleReadings(seed uint64, points []domain.HazardPoint, now time.Time) []domain.SensorReading {
	r := rand.New(rand.NewPCG(seed, seed+1)) //nolint:gosec // fixture data
	readings := make([]domain.SensorReading, 0, len(points))
	for i, p := range points {
		rain := float64(domain.SampleRainfall(r, p.Severity))
		readings = append(readings, domain.SensorReading{
			Location:  p.Name,
			Water:     float64(r.IntN(101)),
			Rainfall:  &rain,
			Timestamp: now.Add(time.Duration(i) * time.Second),
		})
	}
	return readings
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

type typeCount struct {
	name  string
	count int
}

func printStats(snap snapshot, events []domain.FeedEvent) {
	fmt.Println("\n=== Feed summary ===")
	fmt.Printf("Seed: %d, ticks: %d, last update: %s\n", snap.Seed, snap.Ticks, snap.LastUpdate)
	fmt.Printf("Open points: %d\n", len(snap.Points))
	fmt.Printf("Active missions: %d\n", len(snap.Missions))
	fmt.Printf("Completed missions: %d\n", len(snap.Completed))

	severity := map[domain.Severity]int{}
	for _, p := range snap.Points {
		severity[p.Severity]++
	}
	fmt.Printf("By severity: red=%d, orange=%d, yellow=%d\n",
		severity[domain.SeverityRed], severity[domain.SeverityOrange], severity[domain.SeverityYellow])

	byType := map[string]int{}
	for _, e := range events {
		byType[string(e.Type)]++
	}
	counts := make([]typeCount, 0, len(byType))
	for name, c := range byType {
		counts = append(counts, typeCount{name, c})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].name < counts[j].name
	})
	fmt.Printf("Events (%d):", len(events))
	for _, c := range counts {
		fmt.Printf(" %s=%d", c.name, c.count)
	}
	fmt.Println()
}
