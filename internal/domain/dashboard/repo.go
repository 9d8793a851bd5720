package dashboard

import (
	"context"
	"time"
)

// TestCounts are raw result tallies over a window and optional district.
type TestCounts struct {
	Total        int
	Positive     int
	Negative     int
	Inconclusive int
}

// EntityTotals counts the surrounding registry entities.
type EntityTotals struct {
	Patients      int
	Clinics       int
	HealthWorkers int
}

// Repository is the read-only aggregation surface over the store.
type Repository interface {
	// TestCounts tallies results with test_date >= since (zero time means
	// no lower bound), optionally restricted to clinics in a district.
	TestCounts(ctx context.Context, since time.Time, district string) (TestCounts, error)
	// EntityTotals counts patients, clinics and health-worker accounts,
	// restricted to the district when one is given.
	EntityTotals(ctx context.Context, district string) (EntityTotals, error)
	DistrictStats(ctx context.Context, district string) ([]DistrictStats, error)
	ClinicStats(ctx context.Context, district string) ([]ClinicStats, error)
	TimeSeries(ctx context.Context, since time.Time, district string) ([]TimeSeriesPoint, error)
}
