package result

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/introspect-health/introspect/internal/domain/clinic"
	"github.com/introspect-health/introspect/internal/domain/patient"
	"github.com/introspect-health/introspect/internal/platform/inference"
)

type mockRepo struct {
	results map[uuid.UUID]*TestResult

	createErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{results: map[uuid.UUID]*TestResult{}}
}

func (m *mockRepo) Create(ctx context.Context, r *TestResult) error {
	if m.createErr != nil {
		return m.createErr
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.CreatedAt = time.Now().UTC()
	cp := *r
	m.results[r.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*TestResult, error) {
	r, ok := m.results[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockRepo) List(ctx context.Context, f Filter, limit, offset int) ([]*TestResult, int, error) {
	var out []*TestResult
	for _, r := range m.results {
		if f.ClinicID != uuid.Nil && r.ClinicID != f.ClinicID {
			continue
		}
		if f.PatientID != uuid.Nil && r.PatientID != f.PatientID {
			continue
		}
		if f.Status != "" && r.Result != f.Status {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (m *mockRepo) ListBySyncStatus(ctx context.Context, status string) ([]*TestResult, error) {
	var out []*TestResult
	for _, r := range m.results {
		if r.SyncStatus == status {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockRepo) Update(ctx context.Context, r *TestResult) error {
	if _, ok := m.results[r.ID]; !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	r.UpdatedAt = &now
	cp := *r
	m.results[r.ID] = &cp
	return nil
}

func (m *mockRepo) SetSyncStatus(ctx context.Context, id uuid.UUID, status string, syncedAt *time.Time) error {
	r, ok := m.results[id]
	if !ok {
		return ErrNotFound
	}
	r.SyncStatus = status
	r.SyncedAt = syncedAt
	return nil
}

func (m *mockRepo) ResetFailedToPending(ctx context.Context, id uuid.UUID) (bool, error) {
	r, ok := m.results[id]
	if !ok || r.SyncStatus != SyncFailed {
		return false, nil
	}
	r.SyncStatus = SyncPending
	return true, nil
}

func (m *mockRepo) StatusCounts(ctx context.Context) (StatusCounts, error) {
	var c StatusCounts
	for _, r := range m.results {
		c.Total++
		switch r.SyncStatus {
		case SyncPending:
			c.Pending++
		case SyncSynced:
			c.Synced++
		case SyncFailed:
			c.Failed++
		}
	}
	return c, nil
}

type fakeAnalyzer struct {
	validateErr error
	analysis    inference.Analysis
	analyzeErr  error
	version     string
}

func (f *fakeAnalyzer) Validate(imagePath string) error { return f.validateErr }

func (f *fakeAnalyzer) Analyze(ctx context.Context, imagePath string) (inference.Analysis, error) {
	if f.analyzeErr != nil {
		return inference.Analysis{}, f.analyzeErr
	}
	return f.analysis, nil
}

func (f *fakeAnalyzer) ModelVersion() string { return f.version }

type fakeStorage struct {
	saves   int
	deletes []string
	saveErr error
}

func (f *fakeStorage) Save(content []byte, originalFilename string, clinicID uuid.UUID) (string, string, error) {
	if f.saveErr != nil {
		return "", "", f.saveErr
	}
	f.saves++
	stored := fmt.Sprintf("stored-%d%s", f.saves, filepath.Ext(originalFilename))
	return filepath.Join(clinicID.String(), "2026-03", stored), stored, nil
}

func (f *fakeStorage) Delete(relPath string) bool {
	f.deletes = append(f.deletes, relPath)
	return true
}

type fakeCamera struct {
	err      error
	lastPath string
}

func (f *fakeCamera) Available() bool { return false }

func (f *fakeCamera) Capture(ctx context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	tmp, err := os.CreateTemp("", "fake-capture-*.jpg")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write([]byte("jpeg bytes")); err != nil {
		tmp.Close()
		return "", err
	}
	tmp.Close()
	f.lastPath = tmp.Name()
	return f.lastPath, nil
}

type fakePatients struct{ err error }

func (f *fakePatients) GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &patient.Patient{ID: id}, nil
}

type fakeClinics struct{ err error }

func (f *fakeClinics) GetByID(ctx context.Context, id uuid.UUID) (*clinic.Clinic, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &clinic.Clinic{ID: id}, nil
}

func passthroughTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	svc      *Service
	repo     *mockRepo
	analyzer *fakeAnalyzer
	storage  *fakeStorage
	camera   *fakeCamera
	patients *fakePatients
	clinics  *fakeClinics
}

func newFixture() *fixture {
	f := &fixture{
		repo: newMockRepo(),
		analyzer: &fakeAnalyzer{
			analysis: inference.Analysis{
				Result:           inference.Positive,
				Confidence:       0.91,
				ProcessingTimeMs: 42.5,
			},
			version: "yolov8-malaria-1.2",
		},
		storage:  &fakeStorage{},
		camera:   &fakeCamera{},
		patients: &fakePatients{},
		clinics:  &fakeClinics{},
	}
	f.svc = NewService(f.repo, f.patients, f.clinics, f.analyzer, f.storage,
		f.camera, passthroughTx, zerolog.Nop())
	return f
}

func TestAnalyzeAndCreate(t *testing.T) {
	f := newFixture()
	actor, req := uuid.New(), CreateRequest{PatientID: uuid.New(), ClinicID: uuid.New()}

	got, err := f.svc.AnalyzeAndCreate(context.Background(), actor, req, []byte("img"), "smear.jpg")
	if err != nil {
		t.Fatalf("analyze and create: %v", err)
	}

	if got.Result != StatusPositive {
		t.Errorf("expected positive, got %s", got.Result)
	}
	if got.ConfidenceScore == nil || *got.ConfidenceScore != 0.91 {
		t.Errorf("confidence not recorded: %v", got.ConfidenceScore)
	}
	if got.ModelVersion == nil || *got.ModelVersion != "yolov8-malaria-1.2" {
		t.Errorf("model version not recorded: %v", got.ModelVersion)
	}
	if got.ProcessingTimeMs == nil || *got.ProcessingTimeMs != 42.5 {
		t.Errorf("processing time not recorded: %v", got.ProcessingTimeMs)
	}
	if got.SyncStatus != SyncPending {
		t.Errorf("new results must start pending, got %s", got.SyncStatus)
	}
	if got.IsConfirmed {
		t.Error("new results must start unconfirmed")
	}
	if got.HealthWorkerID != actor {
		t.Errorf("expected health worker %s, got %s", actor, got.HealthWorkerID)
	}
	if got.ImagePath == "" || got.ImageFilename == "" {
		t.Error("image path and filename must be recorded")
	}
	if len(f.repo.results) != 1 {
		t.Errorf("expected exactly one row, got %d", len(f.repo.results))
	}
	if f.storage.saves != 1 {
		t.Errorf("expected exactly one stored image, got %d", f.storage.saves)
	}
}

func TestAnalyzeAndCreate_InvalidImage(t *testing.T) {
	f := newFixture()
	f.analyzer.validateErr = inference.ErrImageTooSmall

	_, err := f.svc.AnalyzeAndCreate(context.Background(), uuid.New(),
		CreateRequest{PatientID: uuid.New(), ClinicID: uuid.New()}, []byte("img"), "tiny.jpg")

	var ce *CreationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CreationError, got %v", err)
	}
	if !errors.Is(err, inference.ErrImageTooSmall) {
		t.Errorf("expected wrapped validation error, got %v", err)
	}
	if len(f.repo.results) != 0 {
		t.Error("no row may exist after a failed validation")
	}
	if f.storage.saves != 0 {
		t.Error("storage must not be touched when validation fails")
	}
}

func TestAnalyzeAndCreate_InferenceFailure(t *testing.T) {
	f := newFixture()
	f.analyzer.analyzeErr = errors.New("detector crashed")

	_, err := f.svc.AnalyzeAndCreate(context.Background(), uuid.New(),
		CreateRequest{PatientID: uuid.New(), ClinicID: uuid.New()}, []byte("img"), "smear.jpg")

	var ce *CreationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CreationError, got %v", err)
	}
	if len(f.repo.results) != 0 || f.storage.saves != 0 {
		t.Error("no side effects may remain after an inference failure")
	}
}

func TestAnalyzeAndCreate_StorageFailure(t *testing.T) {
	f := newFixture()
	f.storage.saveErr = errors.New("disk full")

	_, err := f.svc.AnalyzeAndCreate(context.Background(), uuid.New(),
		CreateRequest{PatientID: uuid.New(), ClinicID: uuid.New()}, []byte("img"), "smear.jpg")

	var ce *CreationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CreationError, got %v", err)
	}
	if len(f.repo.results) != 0 {
		t.Error("no row may exist after a failed image store")
	}
}

func TestAnalyzeAndCreate_InsertFailureRemovesImage(t *testing.T) {
	f := newFixture()
	f.repo.createErr = errors.New("insert failed")

	_, err := f.svc.AnalyzeAndCreate(context.Background(), uuid.New(),
		CreateRequest{PatientID: uuid.New(), ClinicID: uuid.New()}, []byte("img"), "smear.jpg")
	if err == nil {
		t.Fatal("expected creation to fail")
	}
	if f.storage.saves != 1 {
		t.Fatalf("expected one attempted save, got %d", f.storage.saves)
	}
	if len(f.storage.deletes) != 1 {
		t.Fatalf("expected the stored image to be deleted after a failed insert, got %d deletes", len(f.storage.deletes))
	}
}

func TestAnalyzeAndCreate_MissingReferences(t *testing.T) {
	t.Run("missing patient", func(t *testing.T) {
		f := newFixture()
		f.patients.err = patient.ErrNotFound
		_, err := f.svc.AnalyzeAndCreate(context.Background(), uuid.New(),
			CreateRequest{PatientID: uuid.New(), ClinicID: uuid.New()}, []byte("img"), "a.jpg")
		if !errors.Is(err, ErrPatientNotFound) {
			t.Errorf("expected ErrPatientNotFound, got %v", err)
		}
	})
	t.Run("missing clinic", func(t *testing.T) {
		f := newFixture()
		f.clinics.err = clinic.ErrNotFound
		_, err := f.svc.AnalyzeAndCreate(context.Background(), uuid.New(),
			CreateRequest{PatientID: uuid.New(), ClinicID: uuid.New()}, []byte("img"), "a.jpg")
		if !errors.Is(err, ErrClinicNotFound) {
			t.Errorf("expected ErrClinicNotFound, got %v", err)
		}
	})
}

func TestCaptureAndCreate(t *testing.T) {
	f := newFixture()
	f.svc.now = func() time.Time { return time.Date(2026, 3, 15, 14, 30, 5, 0, time.UTC) }

	got, err := f.svc.CaptureAndCreate(context.Background(), uuid.New(),
		CreateRequest{PatientID: uuid.New(), ClinicID: uuid.New()})
	if err != nil {
		t.Fatalf("capture and create: %v", err)
	}
	if got.SyncStatus != SyncPending {
		t.Errorf("expected pending, got %s", got.SyncStatus)
	}
	if _, err := os.Stat(f.camera.lastPath); !errors.Is(err, os.ErrNotExist) {
		t.Error("transient capture file must be removed after success")
	}
}

func TestCaptureAndCreate_CleansUpOnFailure(t *testing.T) {
	f := newFixture()
	f.analyzer.validateErr = inference.ErrUnsupportedFormat

	_, err := f.svc.CaptureAndCreate(context.Background(), uuid.New(),
		CreateRequest{PatientID: uuid.New(), ClinicID: uuid.New()})
	if err == nil {
		t.Fatal("expected creation to fail")
	}
	if _, err := os.Stat(f.camera.lastPath); !errors.Is(err, os.ErrNotExist) {
		t.Error("transient capture file must be removed after failure")
	}
}

func TestCaptureAndCreate_CameraFailure(t *testing.T) {
	f := newFixture()
	f.camera.err = errors.New("device busy")

	_, err := f.svc.CaptureAndCreate(context.Background(), uuid.New(),
		CreateRequest{PatientID: uuid.New(), ClinicID: uuid.New()})
	var ce *CreationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CreationError, got %v", err)
	}
}

func mustCreate(t *testing.T, f *fixture) *TestResult {
	t.Helper()
	r, err := f.svc.AnalyzeAndCreate(context.Background(), uuid.New(),
		CreateRequest{PatientID: uuid.New(), ClinicID: uuid.New()}, []byte("img"), "smear.jpg")
	if err != nil {
		t.Fatalf("seed result: %v", err)
	}
	return r
}

func TestConfirm(t *testing.T) {
	f := newFixture()
	r := mustCreate(t, f)
	tech := uuid.New()
	notes := "verified under microscope"

	got, err := f.svc.Confirm(context.Background(), r.ID, StatusPositive, &notes, tech)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !got.IsConfirmed {
		t.Error("expected confirmed")
	}
	if got.ConfirmedBy == nil || *got.ConfirmedBy != tech {
		t.Errorf("confirmed_by not recorded: %v", got.ConfirmedBy)
	}
	if got.ConfirmedAt == nil {
		t.Error("confirmed_at not recorded")
	}
	if got.ConfirmationNotes == nil || *got.ConfirmationNotes != notes {
		t.Errorf("confirmation notes not recorded: %v", got.ConfirmationNotes)
	}
	if got.Result != StatusPositive {
		t.Errorf("result changed unexpectedly: %s", got.Result)
	}
}

func TestConfirm_Override(t *testing.T) {
	f := newFixture()
	r := mustCreate(t, f)

	got, err := f.svc.Confirm(context.Background(), r.ID, StatusNegative, nil, uuid.New())
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if got.Result != StatusNegative {
		t.Errorf("expected technician override to negative, got %s", got.Result)
	}
}

func TestConfirm_RepeatOverwrites(t *testing.T) {
	f := newFixture()
	r := mustCreate(t, f)
	first, second := "first pass", "second pass"

	if _, err := f.svc.Confirm(context.Background(), r.ID, StatusPositive, &first, uuid.New()); err != nil {
		t.Fatal(err)
	}
	tech2 := uuid.New()
	got, err := f.svc.Confirm(context.Background(), r.ID, StatusPositive, &second, tech2)
	if err != nil {
		t.Fatal(err)
	}
	if got.ConfirmationNotes == nil || *got.ConfirmationNotes != second {
		t.Errorf("expected later confirmation to win, got %v", got.ConfirmationNotes)
	}
	if got.ConfirmedBy == nil || *got.ConfirmedBy != tech2 {
		t.Errorf("expected later confirmer to win, got %v", got.ConfirmedBy)
	}
}

func TestConfirm_InvalidStatus(t *testing.T) {
	f := newFixture()
	r := mustCreate(t, f)

	if _, err := f.svc.Confirm(context.Background(), r.ID, "maybe", nil, uuid.New()); err == nil {
		t.Error("expected invalid confirmed status to be rejected")
	}
}

func TestUpdate(t *testing.T) {
	f := newFixture()
	r := mustCreate(t, f)
	notes := "fever for three days"

	got, err := f.svc.Update(context.Background(), r.ID, Update{Notes: &notes})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Notes == nil || *got.Notes != notes {
		t.Errorf("notes not updated: %v", got.Notes)
	}
	if got.Result != r.Result {
		t.Errorf("result changed by a notes-only update: %s", got.Result)
	}

	bad := "maybe"
	if _, err := f.svc.Update(context.Background(), r.ID, Update{Result: &bad}); err == nil {
		t.Error("expected invalid result value to be rejected")
	}
}

func TestMarkSynced(t *testing.T) {
	f := newFixture()
	r := mustCreate(t, f)

	got, err := f.svc.MarkSynced(context.Background(), r.ID)
	if err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	if got.SyncStatus != SyncSynced {
		t.Errorf("expected synced, got %s", got.SyncStatus)
	}
	if got.SyncedAt == nil {
		t.Error("synced_at not recorded")
	}

	pending, err := f.svc.PendingSync(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("expected no pending results, got %d", len(pending))
	}
}

func TestList_StatusFiltersOutcome(t *testing.T) {
	f := newFixture()
	mustCreate(t, f)
	f.analyzer.analysis = inference.Analysis{Result: inference.Negative, Confidence: 0.95}
	mustCreate(t, f)

	got, total, err := f.svc.List(context.Background(), Filter{Status: StatusNegative}, 50, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(got) != 1 {
		t.Fatalf("expected one negative result, got %d", len(got))
	}
	if got[0].Result != StatusNegative {
		t.Errorf("expected negative, got %s", got[0].Result)
	}
}
