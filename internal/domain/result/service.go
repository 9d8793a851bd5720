package result

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/introspect-health/introspect/internal/domain/clinic"
	"github.com/introspect-health/introspect/internal/domain/patient"
	"github.com/introspect-health/introspect/internal/platform/camera"
	"github.com/introspect-health/introspect/internal/platform/inference"
)

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrClinicNotFound  = errors.New("clinic not found")
)

// CreationError marks a failure anywhere in the analyze-and-create chain.
// No row is visible when one of these is returned.
type CreationError struct {
	Stage string
	Err   error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("create test result: %s: %v", e.Stage, e.Err)
}

func (e *CreationError) Unwrap() error { return e.Err }

func creationErr(stage string, err error) error {
	return &CreationError{Stage: stage, Err: err}
}

// Analyzer is the slice of the inference engine the lifecycle needs.
type Analyzer interface {
	Validate(imagePath string) error
	Analyze(ctx context.Context, imagePath string) (inference.Analysis, error)
	ModelVersion() string
}

// Storage persists smear images outside the database.
type Storage interface {
	Save(content []byte, originalFilename string, clinicID uuid.UUID) (relPath, storedName string, err error)
	Delete(relPath string) bool
}

// PatientGetter and ClinicGetter verify referenced entities before any
// side effect happens.
type PatientGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

type ClinicGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*clinic.Clinic, error)
}

// TxRunner executes fn inside one database transaction.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	repo     Repository
	patients PatientGetter
	clinics  ClinicGetter
	analyzer Analyzer
	storage  Storage
	camera   camera.Camera
	tx       TxRunner
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, patients PatientGetter, clinics ClinicGetter,
	analyzer Analyzer, storage Storage, cam camera.Camera, tx TxRunner,
	logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
		clinics:  clinics,
		analyzer: analyzer,
		storage:  storage,
		camera:   cam,
		tx:       tx,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) checkRefs(ctx context.Context, req CreateRequest) error {
	if _, err := s.patients.GetByID(ctx, req.PatientID); err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			return ErrPatientNotFound
		}
		return err
	}
	if _, err := s.clinics.GetByID(ctx, req.ClinicID); err != nil {
		if errors.Is(err, clinic.ErrNotFound) {
			return ErrClinicNotFound
		}
		return err
	}
	return nil
}

// AnalyzeAndCreate validates and classifies an uploaded smear image, then
// stores the image and inserts the result row in one transaction. The
// stored file is removed again if the insert does not commit.
func (s *Service) AnalyzeAndCreate(ctx context.Context, actor uuid.UUID, req CreateRequest,
	content []byte, originalFilename string) (*TestResult, error) {
	if err := s.checkRefs(ctx, req); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp("", "smear-*"+filepath.Ext(originalFilename))
	if err != nil {
		return nil, creationErr("buffer image", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return nil, creationErr("buffer image", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, creationErr("buffer image", err)
	}

	return s.createFromImage(ctx, actor, req, tmpPath, content, originalFilename)
}

// CaptureAndCreate acquires the image from the camera instead of an
// upload. The transient capture file is removed on every path.
func (s *Service) CaptureAndCreate(ctx context.Context, actor uuid.UUID, req CreateRequest) (*TestResult, error) {
	if err := s.checkRefs(ctx, req); err != nil {
		return nil, err
	}

	capturePath, err := s.camera.Capture(ctx)
	if err != nil {
		return nil, creationErr("camera capture", err)
	}
	defer os.Remove(capturePath)

	content, err := os.ReadFile(capturePath)
	if err != nil {
		return nil, creationErr("read capture", err)
	}
	filename := "camera_capture_" + s.now().Format("20060102_150405") + ".jpg"

	return s.createFromImage(ctx, actor, req, capturePath, content, filename)
}

func (s *Service) createFromImage(ctx context.Context, actor uuid.UUID, req CreateRequest,
	imagePath string, content []byte, originalFilename string) (*TestResult, error) {
	if err := s.analyzer.Validate(imagePath); err != nil {
		return nil, creationErr("validate image", err)
	}
	analysis, err := s.analyzer.Analyze(ctx, imagePath)
	if err != nil {
		return nil, creationErr("inference", err)
	}

	t := &TestResult{
		PatientID:        req.PatientID,
		ClinicID:         req.ClinicID,
		HealthWorkerID:   actor,
		TestDate:         s.now().UTC(),
		Result:           string(analysis.Result),
		ConfidenceScore:  &analysis.Confidence,
		ProcessingTimeMs: &analysis.ProcessingTimeMs,
		Notes:            req.Notes,
		Symptoms:         req.Symptoms,
		SyncStatus:       SyncPending,
		IsConfirmed:      false,
	}
	if v := s.analyzer.ModelVersion(); v != "" {
		t.ModelVersion = &v
	}

	err = s.tx(ctx, func(ctx context.Context) error {
		relPath, storedName, err := s.storage.Save(content, originalFilename, req.ClinicID)
		if err != nil {
			return creationErr("store image", err)
		}
		t.ImagePath = relPath
		t.ImageFilename = storedName
		if err := s.repo.Create(ctx, t); err != nil {
			// The file write is not transactional; undo it by hand so a
			// rolled-back insert leaves no orphan on disk.
			s.storage.Delete(relPath)
			return creationErr("persist", err)
		}
		return nil
	})
	if err != nil {
		var ce *CreationError
		if errors.As(err, &ce) {
			return nil, err
		}
		return nil, creationErr("commit", err)
	}

	s.logger.Info().
		Str("result_id", t.ID.String()).
		Str("result", t.Result).
		Float64("confidence", analysis.Confidence).
		Msg("test result created")
	return t, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*TestResult, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*TestResult, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

func (s *Service) PendingSync(ctx context.Context) ([]*TestResult, error) {
	return s.repo.ListBySyncStatus(ctx, SyncPending)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, upd Update) (*TestResult, error) {
	if upd.Result != nil && !validStatuses[*upd.Result] {
		return nil, fmt.Errorf("result must be one of positive, negative, inconclusive")
	}
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Result != nil {
		t.Result = *upd.Result
	}
	if upd.Notes != nil {
		t.Notes = upd.Notes
	}
	if upd.Symptoms != nil {
		t.Symptoms = upd.Symptoms
	}
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info().Str("result_id", id.String()).Msg("test result updated")
	return t, nil
}

// MarkSynced is the local bookkeeping action exposed on a single result.
// It does not verify that a remote push actually happened.
func (s *Service) MarkSynced(ctx context.Context, id uuid.UUID) (*TestResult, error) {
	now := s.now().UTC()
	if err := s.repo.SetSyncStatus(ctx, id, SyncSynced, &now); err != nil {
		return nil, err
	}
	s.logger.Info().Str("result_id", id.String()).Msg("test result marked synced")
	return s.repo.GetByID(ctx, id)
}

// Confirm records a technician's verdict. Re-confirmation is allowed and
// simply overwrites the previous confirmation.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID, confirmedStatus string,
	notes *string, actor uuid.UUID) (*TestResult, error) {
	if !validStatuses[confirmedStatus] {
		return nil, fmt.Errorf("confirmed result must be one of positive, negative, inconclusive")
	}
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if t.Result != confirmedStatus {
		s.logger.Info().
			Str("result_id", id.String()).
			Str("from", t.Result).
			Str("to", confirmedStatus).
			Str("confirmed_by", actor.String()).
			Msg("technician overrode classification")
		t.Result = confirmedStatus
	}
	now := s.now().UTC()
	t.IsConfirmed = true
	t.ConfirmedBy = &actor
	t.ConfirmedAt = &now
	t.ConfirmationNotes = notes

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info().Str("result_id", id.String()).Str("confirmed_by", actor.String()).Msg("test result confirmed")
	return t, nil
}
