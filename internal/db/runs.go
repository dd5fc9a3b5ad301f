package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// AnalysisRun is the summary row of one analysis pass.
type AnalysisRun struct {
	RunID             string   `json:"run_id"`
	CreatedUnix       float64  `json:"created_unix"`
	DigitalPath       string   `json:"digital_path"`
	CANPath           string   `json:"can_path"`
	Version           string   `json:"version"`
	TimeCarrierID     string   `json:"time_carrier_id"`
	ToleranceSeconds  float64  `json:"tolerance_seconds"`
	Samples           int      `json:"samples"`
	Edges             int      `json:"edges"`
	Records           int      `json:"records"`
	Frames            int      `json:"frames"`
	Dropped           int      `json:"dropped"`
	Unrecognised      int      `json:"unrecognised"`
	Skipped           int      `json:"skipped"`
	Matched           bool     `json:"matched"`
	LatencySeconds    *float64 `json:"latency_seconds"`
	FinalTimeDepth    int      `json:"final_time_depth"`
	FinalSpeedDepth   int      `json:"final_speed_depth"`
	FinalHeadingDepth int      `json:"final_heading_depth"`
}

// TriggerMatch is one edge paired with its time-carrier frame.
type TriggerMatch struct {
	RunID          string  `json:"run_id"`
	EdgeIndex      int     `json:"edge_index"`
	EdgeTime       float64 `json:"edge_time"`
	FrameTime      float64 `json:"frame_time"`
	LatencySeconds float64 `json:"latency_seconds"`
	First          bool    `json:"first"`
}

// DelaySample is the queue depth after one tracked observation.
type DelaySample struct {
	RunID     string  `json:"run_id"`
	Seq       int     `json:"seq"`
	FrameTime float64 `json:"frame_time"`
	Kind      string  `json:"kind"`
	Source    string  `json:"source"`
	Outcome   string  `json:"outcome"`
	Depth     int     `json:"depth"`
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// SaveRun writes a run with its matches and delay samples in one
// transaction. An empty RunID is filled with a new UUID. The run id is
// copied onto every child row.
func (db *DB) SaveRun(run *AnalysisRun, matches []TriggerMatch, samples []DelaySample) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO analysis_runs (
			run_id, created_unix, digital_path, can_path, version,
			time_carrier_id, tolerance_seconds, samples, edges, records,
			frames, dropped, unrecognised, skipped, matched, latency_seconds,
			final_time_depth, final_speed_depth, final_heading_depth
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.CreatedUnix, run.DigitalPath, run.CANPath, run.Version,
		run.TimeCarrierID, run.ToleranceSeconds, run.Samples, run.Edges, run.Records,
		run.Frames, run.Dropped, run.Unrecognised, run.Skipped, boolToInt(run.Matched), run.LatencySeconds,
		run.FinalTimeDepth, run.FinalSpeedDepth, run.FinalHeadingDepth,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	matchStmt, err := tx.Prepare(`
		INSERT INTO trigger_matches (
			run_id, edge_index, edge_time, frame_time, latency_seconds, is_first
		) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare match insert: %w", err)
	}
	defer matchStmt.Close()
	for i := range matches {
		m := &matches[i]
		m.RunID = run.RunID
		if _, err := matchStmt.Exec(m.RunID, m.EdgeIndex, m.EdgeTime, m.FrameTime, m.LatencySeconds, boolToInt(m.First)); err != nil {
			return fmt.Errorf("failed to insert match for edge %d: %w", m.EdgeIndex, err)
		}
	}

	sampleStmt, err := tx.Prepare(`
		INSERT INTO delay_samples (
			run_id, seq, frame_time, kind, source, outcome, depth
		) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare delay sample insert: %w", err)
	}
	defer sampleStmt.Close()
	for i := range samples {
		s := &samples[i]
		s.RunID = run.RunID
		if _, err := sampleStmt.Exec(s.RunID, s.Seq, s.FrameTime, s.Kind, s.Source, s.Outcome, s.Depth); err != nil {
			return fmt.Errorf("failed to insert delay sample %d: %w", s.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

const runColumns = `
	run_id, created_unix, digital_path, can_path, version,
	time_carrier_id, tolerance_seconds, samples, edges, records,
	frames, dropped, unrecognised, skipped, matched, latency_seconds,
	final_time_depth, final_speed_depth, final_heading_depth`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (AnalysisRun, error) {
	var r AnalysisRun
	var matched int
	var latency sql.NullFloat64
	err := s.Scan(
		&r.RunID, &r.CreatedUnix, &r.DigitalPath, &r.CANPath, &r.Version,
		&r.TimeCarrierID, &r.ToleranceSeconds, &r.Samples, &r.Edges, &r.Records,
		&r.Frames, &r.Dropped, &r.Unrecognised, &r.Skipped, &matched, &latency,
		&r.FinalTimeDepth, &r.FinalSpeedDepth, &r.FinalHeadingDepth,
	)
	if err != nil {
		return r, err
	}
	r.Matched = matched == 1
	if latency.Valid {
		v := latency.Float64
		r.LatencySeconds = &v
	}
	return r, nil
}

// GetRun retrieves a run by id.
func (db *DB) GetRun(runID string) (*AnalysisRun, error) {
	row := db.QueryRow(`SELECT `+runColumns+` FROM analysis_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &r, nil
}

// ListRuns returns the most recent runs first. A non-positive limit
// returns every run.
func (db *DB) ListRuns(limit int) ([]AnalysisRun, error) {
	query := `SELECT ` + runColumns + ` FROM analysis_runs ORDER BY created_unix DESC, run_id`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []AnalysisRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// TriggerMatches returns the matches of a run in edge order.
func (db *DB) TriggerMatches(runID string) ([]TriggerMatch, error) {
	rows, err := db.Query(`
		SELECT run_id, edge_index, edge_time, frame_time, latency_seconds, is_first
		FROM trigger_matches WHERE run_id = ? ORDER BY edge_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var matches []TriggerMatch
	for rows.Next() {
		var m TriggerMatch
		var first int
		if err := rows.Scan(&m.RunID, &m.EdgeIndex, &m.EdgeTime, &m.FrameTime, &m.LatencySeconds, &first); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		m.First = first == 1
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// DelaySamples returns the delay series of a run in observation order.
func (db *DB) DelaySamples(runID string) ([]DelaySample, error) {
	rows, err := db.Query(`
		SELECT run_id, seq, frame_time, kind, source, outcome, depth
		FROM delay_samples WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query delay samples: %w", err)
	}
	defer rows.Close()

	var samples []DelaySample
	for rows.Next() {
		var s DelaySample
		if err := rows.Scan(&s.RunID, &s.Seq, &s.FrameTime, &s.Kind, &s.Source, &s.Outcome, &s.Depth); err != nil {
			return nil, fmt.Errorf("failed to scan delay sample: %w", err)
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// DeleteRun removes a run and, through the foreign keys, its child rows.
func (db *DB) DeleteRun(runID string) error {
	res, err := db.Exec(`DELETE FROM analysis_runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}
