package result

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/introspect-health/introspect/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const cols = `id, patient_id, clinic_id, health_worker_id, test_date, result,
	confidence_score, image_path, image_filename, model_version, processing_time_ms,
	notes, symptoms, sync_status, synced_at, is_confirmed, confirmed_by,
	confirmed_at, confirmation_notes, created_at, updated_at`

func scan(row pgx.Row) (*TestResult, error) {
	var t TestResult
	err := row.Scan(&t.ID, &t.PatientID, &t.ClinicID, &t.HealthWorkerID, &t.TestDate,
		&t.Result, &t.ConfidenceScore, &t.ImagePath, &t.ImageFilename, &t.ModelVersion,
		&t.ProcessingTimeMs, &t.Notes, &t.Symptoms, &t.SyncStatus, &t.SyncedAt,
		&t.IsConfirmed, &t.ConfirmedBy, &t.ConfirmedAt, &t.ConfirmationNotes,
		&t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &t, err
}

func (r *repoPG) Create(ctx context.Context, t *TestResult) error {
	t.ID = uuid.New()
	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO test_results (id, patient_id, clinic_id, health_worker_id, test_date,
			result, confidence_score, image_path, image_filename, model_version,
			processing_time_ms, notes, symptoms, sync_status, is_confirmed)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING created_at`,
		t.ID, t.PatientID, t.ClinicID, t.HealthWorkerID, t.TestDate,
		t.Result, t.ConfidenceScore, t.ImagePath, t.ImageFilename, t.ModelVersion,
		t.ProcessingTimeMs, t.Notes, t.Symptoms, t.SyncStatus, t.IsConfirmed)
	return row.Scan(&t.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*TestResult, error) {
	return scan(r.conn(ctx).QueryRow(ctx, `SELECT `+cols+` FROM test_results WHERE id = $1`, id))
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*TestResult, int, error) {
	query := `SELECT ` + cols + ` FROM test_results WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM test_results WHERE 1=1`
	var args []interface{}
	idx := 1

	add := func(clause string, val interface{}) {
		query += fmt.Sprintf(` AND %s = $%d`, clause, idx)
		countQuery += fmt.Sprintf(` AND %s = $%d`, clause, idx)
		args = append(args, val)
		idx++
	}
	if f.ClinicID != uuid.Nil {
		add("clinic_id", f.ClinicID)
	}
	if f.PatientID != uuid.Nil {
		add("patient_id", f.PatientID)
	}
	if f.Status != "" {
		add("result", f.Status)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY test_date DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*TestResult
	for rows.Next() {
		t, err := scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListBySyncStatus(ctx context.Context, status string) ([]*TestResult, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM test_results WHERE sync_status = $1 ORDER BY created_at`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*TestResult
	for rows.Next() {
		t, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, t *TestResult) error {
	row := r.conn(ctx).QueryRow(ctx, `
		UPDATE test_results SET result=$2, notes=$3, symptoms=$4,
			is_confirmed=$5, confirmed_by=$6, confirmed_at=$7, confirmation_notes=$8,
			updated_at=now()
		WHERE id = $1
		RETURNING updated_at`,
		t.ID, t.Result, t.Notes, t.Symptoms,
		t.IsConfirmed, t.ConfirmedBy, t.ConfirmedAt, t.ConfirmationNotes)
	err := row.Scan(&t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *repoPG) SetSyncStatus(ctx context.Context, id uuid.UUID, status string, syncedAt *time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE test_results SET sync_status=$2, synced_at=$3 WHERE id = $1`,
		id, status, syncedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ResetFailedToPending(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE test_results SET sync_status=$2, synced_at=NULL
		 WHERE id = $1 AND sync_status = $3`,
		id, SyncPending, SyncFailed)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *repoPG) StatusCounts(ctx context.Context) (StatusCounts, error) {
	var c StatusCounts
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE sync_status = 'pending'),
			COUNT(*) FILTER (WHERE sync_status = 'synced'),
			COUNT(*) FILTER (WHERE sync_status = 'failed')
		FROM test_results`).Scan(&c.Total, &c.Pending, &c.Synced, &c.Failed)
	return c, err
}
