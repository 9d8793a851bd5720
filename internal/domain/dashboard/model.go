package dashboard

import (
	"time"

	"github.com/google/uuid"
)

// Summary is the top-of-page surveillance snapshot. All fields honor
// the district filter when one is given.
type Summary struct {
	TotalTests            int       `json:"total_tests"`
	TotalPositive         int       `json:"total_positive"`
	TotalNegative         int       `json:"total_negative"`
	TotalInconclusive     int       `json:"total_inconclusive"`
	OverallPositivityRate float64   `json:"overall_positivity_rate"`
	TotalPatients         int       `json:"total_patients"`
	TotalClinics          int       `json:"total_clinics"`
	TotalHealthWorkers    int       `json:"total_health_workers"`
	LastUpdated           time.Time `json:"last_updated"`
}

// DistrictStats aggregates results for one district. Districts without
// any test results are not reported.
type DistrictStats struct {
	District          string  `json:"district"`
	TotalTests        int     `json:"total_tests"`
	PositiveCases     int     `json:"positive_cases"`
	NegativeCases     int     `json:"negative_cases"`
	InconclusiveCases int     `json:"inconclusive_cases"`
	PositivityRate    float64 `json:"positivity_rate"`
	ClinicsCount      int     `json:"clinics_count"`
}

// ClinicStats aggregates results for one clinic, same visibility rule
// as DistrictStats.
type ClinicStats struct {
	ClinicID          uuid.UUID `json:"clinic_id"`
	ClinicName        string    `json:"clinic_name"`
	District          string    `json:"district"`
	TotalTests        int       `json:"total_tests"`
	PositiveCases     int       `json:"positive_cases"`
	NegativeCases     int       `json:"negative_cases"`
	InconclusiveCases int       `json:"inconclusive_cases"`
	PositivityRate    float64   `json:"positivity_rate"`
}

// TimeSeriesPoint is one calendar day with at least one test. Days
// without tests are absent, not zero-filled.
type TimeSeriesPoint struct {
	Date          string `json:"date"`
	PositiveCases int    `json:"positive_cases"`
	NegativeCases int    `json:"negative_cases"`
	TotalTests    int    `json:"total_tests"`
}

// Overview is the full dashboard payload.
type Overview struct {
	Summary       Summary           `json:"summary"`
	DistrictStats []DistrictStats   `json:"district_stats"`
	RecentTests   int               `json:"recent_tests"`
	TimeSeries    []TimeSeriesPoint `json:"time_series"`
}
