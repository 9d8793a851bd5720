package result

import (
	"time"

	"github.com/google/uuid"
)

// Test outcome values stored in the result column.
const (
	StatusPositive     = "positive"
	StatusNegative     = "negative"
	StatusInconclusive = "inconclusive"
)

// Sync lifecycle values stored in the sync_status column.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncFailed  = "failed"
)

var validStatuses = map[string]bool{
	StatusPositive: true, StatusNegative: true, StatusInconclusive: true,
}

// TestResult is one blood-smear classification event. The smear image
// lives on disk; the row carries its relative path only.
type TestResult struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	PatientID         uuid.UUID  `db:"patient_id" json:"patient_id"`
	ClinicID          uuid.UUID  `db:"clinic_id" json:"clinic_id"`
	HealthWorkerID    uuid.UUID  `db:"health_worker_id" json:"health_worker_id"`
	TestDate          time.Time  `db:"test_date" json:"test_date"`
	Result            string     `db:"result" json:"result"`
	ConfidenceScore   *float64   `db:"confidence_score" json:"confidence_score,omitempty"`
	ImagePath         string     `db:"image_path" json:"image_path"`
	ImageFilename     string     `db:"image_filename" json:"image_filename"`
	ModelVersion      *string    `db:"model_version" json:"model_version,omitempty"`
	ProcessingTimeMs  *float64   `db:"processing_time_ms" json:"processing_time_ms,omitempty"`
	Notes             *string    `db:"notes" json:"notes,omitempty"`
	Symptoms          *string    `db:"symptoms" json:"symptoms,omitempty"`
	SyncStatus        string     `db:"sync_status" json:"sync_status"`
	SyncedAt          *time.Time `db:"synced_at" json:"synced_at,omitempty"`
	IsConfirmed       bool       `db:"is_confirmed" json:"is_confirmed"`
	ConfirmedBy       *uuid.UUID `db:"confirmed_by" json:"confirmed_by,omitempty"`
	ConfirmedAt       *time.Time `db:"confirmed_at" json:"confirmed_at,omitempty"`
	ConfirmationNotes *string    `db:"confirmation_notes" json:"confirmation_notes,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// CreateRequest identifies the patient and clinic an analysis belongs to.
type CreateRequest struct {
	PatientID uuid.UUID
	ClinicID  uuid.UUID
	Notes     *string
	Symptoms  *string
}

// Update carries a partial edit of the reviewable fields.
type Update struct {
	Result   *string `json:"result,omitempty"`
	Notes    *string `json:"notes,omitempty"`
	Symptoms *string `json:"symptoms,omitempty"`
}

// Filter narrows a listing. Zero values mean no constraint; Status
// filters the test outcome, not the sync state.
type Filter struct {
	ClinicID  uuid.UUID
	PatientID uuid.UUID
	Status    string
}
