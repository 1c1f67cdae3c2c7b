package simdb

import (
	"database/sql"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/cortical-data/scalp.sim/internal/sim"
)

// RunStore persists one run's outputs. It implements sim.Sink.
type RunStore struct {
	db    *DB
	runID string
}

// CreateRun inserts a run row and returns its store.
func (db *DB) CreateRun(runID, paramsJSON string) (*RunStore, error) {
	if paramsJSON == "" {
		paramsJSON = "{}"
	}
	_, err := db.Exec("INSERT INTO runs (run_id, params_json) VALUES (?, ?)", runID, paramsJSON)
	if err != nil {
		return nil, fmt.Errorf("create run %s: %w", runID, err)
	}
	return &RunStore{db: db, runID: runID}, nil
}

// SaveSubject records a subject's batch status.
func (s *RunStore) SaveSubject(subject string, skipped bool, reason string) error {
	skippedInt := 0
	if skipped {
		skippedInt = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO run_subjects (run_id, subject, skipped, reason)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (run_id, subject) DO UPDATE SET skipped = excluded.skipped, reason = excluded.reason`,
		s.runID, subject, skippedInt, reason)
	if err != nil {
		return fmt.Errorf("save subject %s: %w", subject, err)
	}
	return nil
}

// SaveSeries stores one simulated time series. The matrix is stored in its
// binary encoding alongside a summary RMS for quick SQL-side inspection.
func (s *RunStore) SaveSeries(rec sim.SeriesRecord) error {
	data, err := rec.Data.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode series: %w", err)
	}
	samples, channels := rec.Data.Dims()
	_, err = s.db.Exec(`
		INSERT INTO series (run_id, subject, condition, kind, trial, samples, channels, rms, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.runID, rec.Subject, rec.Condition, rec.Kind, rec.Trial,
		samples, channels, seriesRMS(rec.Data), data)
	if err != nil {
		return fmt.Errorf("save %s series %s/%s trial %d: %w", rec.Kind, rec.Subject, rec.Condition, rec.Trial, err)
	}
	return nil
}

// LoadSeries reads one stored time series back.
func (s *RunStore) LoadSeries(subject, condition, kind string, trial int) (*mat.Dense, error) {
	var data []byte
	err := s.db.QueryRow(`
		SELECT data FROM series
		WHERE run_id = ? AND subject = ? AND condition = ? AND kind = ? AND trial = ?`,
		s.runID, subject, condition, kind, trial).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no %s series for %s/%s trial %d", kind, subject, condition, trial)
	}
	if err != nil {
		return nil, fmt.Errorf("load series: %w", err)
	}
	m := new(mat.Dense)
	if err := m.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("decode series: %w", err)
	}
	return m, nil
}

// SubjectStatus reports a subject's stored status.
func (s *RunStore) SubjectStatus(subject string) (skipped bool, reason string, err error) {
	var skippedInt int
	err = s.db.QueryRow(`
		SELECT skipped, reason FROM run_subjects WHERE run_id = ? AND subject = ?`,
		s.runID, subject).Scan(&skippedInt, &reason)
	if err != nil {
		return false, "", fmt.Errorf("subject status %s: %w", subject, err)
	}
	return skippedInt != 0, reason, nil
}

// seriesRMS computes the root-mean-square amplitude over all entries.
func seriesRMS(m *mat.Dense) float64 {
	rows, cols := m.Dims()
	squares := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := m.At(i, j)
			squares = append(squares, v*v)
		}
	}
	return math.Sqrt(stat.Mean(squares, nil))
}
