// Package testutil provides shared test helpers for packages that exercise
// the run database over HTTP.
package testutil

import (
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/banshee-data/can-delay/internal/db"
)

// NewRunsDB opens a migrated database in a per-test directory and closes it
// on cleanup.
func NewRunsDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.NewDB(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

// SeedRun stores a matched run with one trigger match and two delay
// samples.
func SeedRun(t *testing.T, database *db.DB, runID string, createdUnix float64) {
	t.Helper()
	latency := 0.0005
	run := &db.AnalysisRun{
		RunID:            runID,
		CreatedUnix:      createdUnix,
		DigitalPath:      "digital.csv",
		CANPath:          "can.csv",
		Version:          "test",
		TimeCarrierID:    "0x0000000000000301",
		ToleranceSeconds: 0.01,
		Samples:          2,
		Edges:            1,
		Records:          9,
		Frames:           1,
		Matched:          true,
		LatencySeconds:   &latency,
		FinalTimeDepth:   1,
	}
	matches := []db.TriggerMatch{{
		RunID: runID, EdgeTime: 2.0, FrameTime: 2.0005, LatencySeconds: latency, First: true,
	}}
	samples := []db.DelaySample{
		{RunID: runID, Seq: 0, FrameTime: 2.0005, Kind: "time", Source: "primary", Outcome: "recorded", Depth: 1},
		{RunID: runID, Seq: 1, FrameTime: 2.1, Kind: "speed", Source: "secondary", Outcome: "no-previous", Depth: 0},
	}
	if err := database.SaveRun(run, matches, samples); err != nil {
		t.Fatalf("failed to seed run %s: %v", runID, err)
	}
}

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// DecodeJSON decodes the recorded body into v.
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}
