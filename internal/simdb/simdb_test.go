package simdb

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/cortical-data/scalp.sim/internal/sim"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenIsIdempotent(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "results.db")
	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Re-opening an already-migrated database must not fail.
	db, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestSeriesRoundTrip(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	store, err := db.CreateRun("run-1", `{"lambda": 2}`)
	require.NoError(t, err)

	series := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, store.SaveSeries(sim.SeriesRecord{
		Subject: "sub-01", Condition: "rest", Kind: sim.SeriesSensor,
		Trial: 0, Data: series,
	}))

	got, err := store.LoadSeries("sub-01", "rest", sim.SeriesSensor, 0)
	require.NoError(t, err)
	assert.True(t, mat.Equal(series, got), "decoded series differs")

	// RMS summary column.
	var rms float64
	require.NoError(t, db.QueryRow(
		"SELECT rms FROM series WHERE run_id = ? AND subject = ?", "run-1", "sub-01").Scan(&rms))
	want := math.Sqrt((1 + 4 + 9 + 16 + 25 + 36) / 6.0)
	assert.InDelta(t, want, rms, 1e-12)
}

func TestSubjectStatus(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	store, err := db.CreateRun("run-2", "")
	require.NoError(t, err)

	require.NoError(t, store.SaveSubject("sub-01", false, ""))
	require.NoError(t, store.SaveSubject("sub-02", true, "no regions in reference atlas"))

	skipped, reason, err := store.SubjectStatus("sub-02")
	require.NoError(t, err)
	assert.True(t, skipped)
	assert.Equal(t, "no regions in reference atlas", reason)

	// Status updates overwrite.
	require.NoError(t, store.SaveSubject("sub-02", false, ""))
	skipped, _, err = store.SubjectStatus("sub-02")
	require.NoError(t, err)
	assert.False(t, skipped)
}

func TestLoadSeriesMissing(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	store, err := db.CreateRun("run-3", "")
	require.NoError(t, err)

	_, err = store.LoadSeries("sub-01", "rest", sim.SeriesSource, 0)
	assert.Error(t, err)
}

func TestDuplicateSeriesRejected(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	store, err := db.CreateRun("run-4", "")
	require.NoError(t, err)

	rec := sim.SeriesRecord{
		Subject: "sub-01", Condition: "rest", Kind: sim.SeriesSource,
		Trial: 0, Data: mat.NewDense(1, 1, []float64{1}),
	}
	require.NoError(t, store.SaveSeries(rec))
	assert.Error(t, store.SaveSeries(rec), "primary key must reject duplicate trial")
}
