package dashboard

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) TestCounts(ctx context.Context, since time.Time, district string) (TestCounts, error) {
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE tr.result = 'positive'),
			COUNT(*) FILTER (WHERE tr.result = 'negative'),
			COUNT(*) FILTER (WHERE tr.result = 'inconclusive')
		FROM test_results tr
		JOIN clinics c ON c.id = tr.clinic_id
		WHERE ($1::timestamptz IS NULL OR tr.test_date >= $1)
		  AND ($2 = '' OR c.district = $2)`
	var sinceArg interface{}
	if !since.IsZero() {
		sinceArg = since
	}
	var tc TestCounts
	err := r.pool.QueryRow(ctx, query, sinceArg, district).
		Scan(&tc.Total, &tc.Positive, &tc.Negative, &tc.Inconclusive)
	return tc, err
}

func (r *repoPG) EntityTotals(ctx context.Context, district string) (EntityTotals, error) {
	var et EntityTotals
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM patients p JOIN clinics c ON c.id = p.clinic_id
				WHERE $1 = '' OR c.district = $1),
			(SELECT COUNT(*) FROM clinics c WHERE $1 = '' OR c.district = $1),
			(SELECT COUNT(*) FROM users u
				LEFT JOIN clinics c ON c.id = u.clinic_id
				WHERE u.role = 'health_worker' AND ($1 = '' OR c.district = $1))`,
		district).Scan(&et.Patients, &et.Clinics, &et.HealthWorkers)
	return et, err
}

func (r *repoPG) DistrictStats(ctx context.Context, district string) ([]DistrictStats, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.district,
			COUNT(tr.id),
			COUNT(tr.id) FILTER (WHERE tr.result = 'positive'),
			COUNT(tr.id) FILTER (WHERE tr.result = 'negative'),
			COUNT(tr.id) FILTER (WHERE tr.result = 'inconclusive'),
			COUNT(DISTINCT c.id)
		FROM clinics c
		JOIN test_results tr ON tr.clinic_id = c.id
		WHERE $1 = '' OR c.district = $1
		GROUP BY c.district
		ORDER BY c.district`, district)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var stats []DistrictStats
	for rows.Next() {
		var d DistrictStats
		if err := rows.Scan(&d.District, &d.TotalTests, &d.PositiveCases,
			&d.NegativeCases, &d.InconclusiveCases, &d.ClinicsCount); err != nil {
			return nil, err
		}
		stats = append(stats, d)
	}
	return stats, rows.Err()
}

func (r *repoPG) ClinicStats(ctx context.Context, district string) ([]ClinicStats, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.name, c.district,
			COUNT(tr.id),
			COUNT(tr.id) FILTER (WHERE tr.result = 'positive'),
			COUNT(tr.id) FILTER (WHERE tr.result = 'negative'),
			COUNT(tr.id) FILTER (WHERE tr.result = 'inconclusive')
		FROM clinics c
		JOIN test_results tr ON tr.clinic_id = c.id
		WHERE $1 = '' OR c.district = $1
		GROUP BY c.id, c.name, c.district
		ORDER BY c.name`, district)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var stats []ClinicStats
	for rows.Next() {
		var s ClinicStats
		if err := rows.Scan(&s.ClinicID, &s.ClinicName, &s.District, &s.TotalTests,
			&s.PositiveCases, &s.NegativeCases, &s.InconclusiveCases); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func (r *repoPG) TimeSeries(ctx context.Context, since time.Time, district string) ([]TimeSeriesPoint, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT to_char(date_trunc('day', tr.test_date), 'YYYY-MM-DD'),
			COUNT(*) FILTER (WHERE tr.result = 'positive'),
			COUNT(*) FILTER (WHERE tr.result = 'negative'),
			COUNT(*)
		FROM test_results tr
		JOIN clinics c ON c.id = tr.clinic_id
		WHERE tr.test_date >= $1
		  AND ($2 = '' OR c.district = $2)
		GROUP BY date_trunc('day', tr.test_date)
		ORDER BY date_trunc('day', tr.test_date)`, since, district)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var series []TimeSeriesPoint
	for rows.Next() {
		var p TimeSeriesPoint
		if err := rows.Scan(&p.Date, &p.PositiveCases, &p.NegativeCases, &p.TotalTests); err != nil {
			return nil, err
		}
		series = append(series, p)
	}
	return series, rows.Err()
}
