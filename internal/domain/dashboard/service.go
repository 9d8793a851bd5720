package dashboard

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultWindowDays = 30
	recentWindowDays  = 7
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

func rate(positive, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return math.Round(float64(positive)/float64(total)*100*100) / 100
}

// Overview assembles the full dashboard payload: summary counts over
// the day window, per-district breakdown, a fixed trailing 7-day test
// count, and the daily time series.
func (s *Service) Overview(ctx context.Context, days int, district string) (*Overview, error) {
	if days <= 0 {
		days = defaultWindowDays
	}
	now := s.now().UTC()
	since := now.AddDate(0, 0, -days)

	counts, err := s.repo.TestCounts(ctx, since, district)
	if err != nil {
		return nil, err
	}
	totals, err := s.repo.EntityTotals(ctx, district)
	if err != nil {
		return nil, err
	}
	districts, err := s.repo.DistrictStats(ctx, district)
	if err != nil {
		return nil, err
	}
	for i := range districts {
		districts[i].PositivityRate = rate(districts[i].PositiveCases, districts[i].TotalTests)
	}
	recent, err := s.repo.TestCounts(ctx, now.AddDate(0, 0, -recentWindowDays), district)
	if err != nil {
		return nil, err
	}
	series, err := s.repo.TimeSeries(ctx, since, district)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Int("days", days).Str("district", district).Msg("dashboard overview generated")
	return &Overview{
		Summary: Summary{
			TotalTests:            counts.Total,
			TotalPositive:         counts.Positive,
			TotalNegative:         counts.Negative,
			TotalInconclusive:     counts.Inconclusive,
			OverallPositivityRate: rate(counts.Positive, counts.Total),
			TotalPatients:         totals.Patients,
			TotalClinics:          totals.Clinics,
			TotalHealthWorkers:    totals.HealthWorkers,
			LastUpdated:           now,
		},
		DistrictStats: districts,
		RecentTests:   recent.Total,
		TimeSeries:    series,
	}, nil
}

func (s *Service) DistrictBreakdown(ctx context.Context, district string) ([]DistrictStats, error) {
	stats, err := s.repo.DistrictStats(ctx, district)
	if err != nil {
		return nil, err
	}
	for i := range stats {
		stats[i].PositivityRate = rate(stats[i].PositiveCases, stats[i].TotalTests)
	}
	return stats, nil
}

func (s *Service) ClinicBreakdown(ctx context.Context, district string) ([]ClinicStats, error) {
	stats, err := s.repo.ClinicStats(ctx, district)
	if err != nil {
		return nil, err
	}
	for i := range stats {
		stats[i].PositivityRate = rate(stats[i].PositiveCases, stats[i].TotalTests)
	}
	return stats, nil
}
