// Command validate drives a running disaster feed service through a full
// initialize, assign, complete, and update cycle and checks every response
// against the API contract: status codes, payload shapes, counts, and error
// bodies.
//
// Usage:
//
//	go run ./cmd/validate -base-url http://localhost:5000
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/disaster-feed-service/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type pointsBody struct {
	Points     []domain.HazardPoint `json:"points"`
	LastUpdate string               `json:"last_update"`
	Count      int                  `json:"count"`
}

type missionsBody struct {
	Missions []domain.Mission `json:"missions"`
	Count    int              `json:"count"`
}

type missionBody struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Mission domain.Mission `json:"mission"`
}

type initBody struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Points  []domain.HazardPoint `json:"points"`
}

type updateBody struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	PointsCount int    `json:"points_count"`
}

type errorBody struct {
	Error string `json:"error"`
}

// validator carries state between phases; later phases build on the
// points and missions created by earlier ones.
type validator struct {
	baseURL string
	client  *http.Client

	points  []domain.HazardPoint
	mission domain.Mission
}

func main() {
	baseURL := flag.String("base-url", "http://localhost:5000", "base URL of the running feed service")
	timeout := flag.Duration("timeout", 5*time.Second, "per-request timeout")
	flag.Parse()

	if *baseURL == "" {
		flag.Usage()
		os.Exit(1)
	}

	v := &validator{
		baseURL: strings.TrimRight(*baseURL, "/"),
		client:  &http.Client{Timeout: *timeout},
	}
	os.Exit(v.run())
}

func (v *validator) run() int {
	fmt.Println("=== Disaster Feed API Validation ===")
	fmt.Printf("Target: %s\n", v.baseURL)

	phases := []*phase{
		v.validateHealth(),
		v.validateInit(),
		v.validatePoints(),
		v.validateAssign(),
		v.validateMissions(),
		v.validateComplete(),
		v.validateUpdate(),
		v.validateErrors(),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phases ──

func (v *validator) validateHealth() *phase {
	p := &phase{name: "Health endpoints"}

	var body map[string]string
	if v.call(p, http.MethodGet, "/health", "", http.StatusOK, &body) {
		if body["status"] != "OK" {
			p.errorf("/health status = %q, want OK", body["status"])
		}
	}
	v.call(p, http.MethodGet, "/healthz", "", http.StatusOK, nil)
	v.call(p, http.MethodGet, "/", "", http.StatusOK, nil)
	return p
}

func (v *validator) validateInit() *phase {
	p := &phase{name: "Initialize feed"}

	var body initBody
	if !v.call(p, http.MethodGet, "/api/init", "", http.StatusOK, &body) {
		return p
	}
	if !body.Success {
		p.errorf("success = false")
	}
	if n := len(body.Points); n < 3 || n > 5 {
		p.errorf("initialized %d points, want 3..5", n)
	}
	if want := fmt.Sprintf("Initialized %d disaster points", len(body.Points)); body.Message != want {
		p.errorf("message = %q, want %q", body.Message, want)
	}

	names := map[string]bool{}
	for _, pt := range body.Points {
		checkPoint(p, pt)
		if names[pt.Name] {
			p.errorf("duplicate location %q after init", pt.Name)
		}
		names[pt.Name] = true
	}
	v.points = body.Points
	return p
}

func (v *validator) validatePoints() *phase {
	p := &phase{name: "List points"}

	var body pointsBody
	if !v.call(p, http.MethodGet, "/api/points", "", http.StatusOK, &body) {
		return p
	}
	if body.Count != len(body.Points) {
		p.errorf("count = %d but %d points returned", body.Count, len(body.Points))
	}
	if len(body.Points) != len(v.points) {
		p.errorf("listed %d points, init returned %d", len(body.Points), len(v.points))
	}
	if _, err := time.Parse(time.RFC3339, body.LastUpdate); err != nil {
		p.errorf("last_update %q is not RFC 3339: %v", body.LastUpdate, err)
	}
	return p
}

func (v *validator) validateAssign() *phase {
	p := &phase{name: "Assign mission"}
	if len(v.points) == 0 {
		p.errorf("no points available from init")
		return p
	}
	target := v.points[0]

	var body missionBody
	req := fmt.Sprintf(`{"point_id":%q,"agency":"ndrf"}`, target.ID)
	if !v.call(p, http.MethodPost, "/api/assign", req, http.StatusOK, &body) {
		return p
	}
	m := body.Mission
	if m.Agency != "NDRF" {
		p.errorf("agency = %q, want NDRF", m.Agency)
	}
	if body.Message != "Mission assigned to NDRF" {
		p.errorf("message = %q", body.Message)
	}
	if m.PointID != target.ID || m.Location != target.Name {
		p.errorf("mission refers to %s/%q, want %s/%q", m.PointID, m.Location, target.ID, target.Name)
	}
	if m.Severity != target.Severity || m.Transport != target.Severity.Transport() {
		p.errorf("mission severity/transport = %s/%s, want %s/%s",
			m.Severity, m.Transport, target.Severity, target.Severity.Transport())
	}
	if m.Progress != 0 || m.Completed {
		p.errorf("new mission progress=%d completed=%v", m.Progress, m.Completed)
	}
	v.mission = m

	var listed pointsBody
	if v.call(p, http.MethodGet, "/api/points", "", http.StatusOK, &listed) {
		if len(listed.Points) != len(v.points)-1 {
			p.errorf("points after assign = %d, want %d", len(listed.Points), len(v.points)-1)
		}
		for _, pt := range listed.Points {
			if pt.ID == target.ID {
				p.errorf("assigned point %s still listed", target.ID)
			}
		}
	}
	return p
}

func (v *validator) validateMissions() *phase {
	p := &phase{name: "List missions"}

	var body missionsBody
	if !v.call(p, http.MethodGet, "/api/missions", "", http.StatusOK, &body) {
		return p
	}
	if body.Count != 1 || len(body.Missions) != 1 {
		p.errorf("count = %d with %d missions, want 1", body.Count, len(body.Missions))
		return p
	}
	if body.Missions[0].ID != v.mission.ID {
		p.errorf("listed mission %s, want %s", body.Missions[0].ID, v.mission.ID)
	}
	return p
}

func (v *validator) validateComplete() *phase {
	p := &phase{name: "Complete mission"}
	if v.mission.ID == "" {
		p.errorf("no mission available from assign")
		return p
	}

	var body missionBody
	if !v.call(p, http.MethodPost, "/api/complete/"+v.mission.ID, "", http.StatusOK, &body) {
		return p
	}
	if !body.Mission.Completed || body.Mission.Progress != 100 {
		p.errorf("completed=%v progress=%d, want true/100", body.Mission.Completed, body.Mission.Progress)
	}
	if body.Mission.EndTime == "" {
		p.errorf("end_time missing")
	}
	if want := "Mission completed at " + v.mission.Location; body.Message != want {
		p.errorf("message = %q, want %q", body.Message, want)
	}

	var missions missionsBody
	if v.call(p, http.MethodGet, "/api/missions", "", http.StatusOK, &missions) && missions.Count != 0 {
		p.errorf("%d missions still active after completion", missions.Count)
	}
	return p
}

func (v *validator) validateUpdate() *phase {
	p := &phase{name: "Update tick"}

	var body updateBody
	if !v.call(p, http.MethodPost, "/api/update", "", http.StatusOK, &body) {
		return p
	}
	if body.Message != "Disaster points updated" {
		p.errorf("message = %q", body.Message)
	}

	var listed pointsBody
	if !v.call(p, http.MethodGet, "/api/points", "", http.StatusOK, &listed) {
		return p
	}
	if body.PointsCount != len(listed.Points) {
		p.errorf("points_count = %d but %d points listed", body.PointsCount, len(listed.Points))
	}
	for _, pt := range listed.Points {
		checkPoint(p, pt)
	}
	return p
}

func (v *validator) validateErrors() *phase {
	p := &phase{name: "Error responses"}

	var e errorBody
	if v.call(p, http.MethodPost, "/api/assign", `{"point_id":"point_missing","agency":"ndrf"}`, http.StatusNotFound, &e) &&
		e.Error != "Point not found" {
		p.errorf("unknown point error = %q", e.Error)
	}

	e = errorBody{}
	if v.call(p, http.MethodPost, "/api/complete/mission_missing", "", http.StatusNotFound, &e) &&
		e.Error != "Mission not found" {
		p.errorf("unknown mission error = %q", e.Error)
	}

	e = errorBody{}
	if v.call(p, http.MethodPost, "/api/assign", `{"point_id":`, http.StatusBadRequest, &e) && e.Error == "" {
		p.errorf("malformed body returned no error message")
	}
	return p
}

// ── Helpers ──

// checkPoint verifies the per-point invariants every listing must hold.
func checkPoint(p *phase, pt domain.HazardPoint) {
	if pt.ID == "" {
		p.errorf("point %q has empty id", pt.Name)
	}
	if !pt.Severity.Valid() {
		p.errorf("point %s has invalid severity %q", pt.ID, pt.Severity)
	}
	if pt.Transport != pt.Severity.Transport() {
		p.errorf("point %s transport %q does not match severity %s", pt.ID, pt.Transport, pt.Severity)
	}
	if pt.WaterLevel < 0 || pt.WaterLevel > 100 {
		p.errorf("point %s water_level %d out of range", pt.ID, pt.WaterLevel)
	}
	if pt.Rainfall < 0 {
		p.errorf("point %s rainfall %d is negative", pt.ID, pt.Rainfall)
	}
	if pt.Assigned {
		p.errorf("point %s listed while assigned", pt.ID)
	}
}

// call performs one request, records a phase error on transport failure or
// unexpected status, and decodes the body into out when out is non-nil.
// It reports whether the response can be inspected further.
func (v *validator) call(p *phase, method, path, body string, wantStatus int, out any) bool {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, v.baseURL+path, reader)
	if err != nil {
		p.errorf("%s %s: build request: %v", method, path, err)
		return false
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := v.client.Do(req)
	if err != nil {
		p.errorf("%s %s: %v", method, path, err)
		return false
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		p.errorf("%s %s: read body: %v", method, path, err)
		return false
	}
	if resp.StatusCode != wantStatus {
		p.errorf("%s %s: status %d, want %d (body: %s)", method, path, resp.StatusCode, wantStatus, strings.TrimSpace(string(data)))
		return false
	}
	if out == nil {
		return true
	}
	if err := json.Unmarshal(data, out); err != nil {
		p.errorf("%s %s: decode: %v", method, path, err)
		return false
	}
	return true
}
