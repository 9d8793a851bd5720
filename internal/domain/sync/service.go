// Package sync moves locally recorded test results toward the central
// reporting server. Clinics often run offline; results accumulate in
// the pending state until a connection window opens.
package sync

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/introspect-health/introspect/internal/domain/result"
)

func nowUTC() time.Time { return time.Now().UTC() }

// Pusher delivers one result to the remote system of record.
type Pusher interface {
	Push(ctx context.Context, r *result.TestResult) error
}

// NoopPusher simulates an always-available central server.
type NoopPusher struct{}

func (NoopPusher) Push(ctx context.Context, r *result.TestResult) error { return nil }

// BatchStats reports the outcome of a batch sync pass.
type BatchStats struct {
	Total  int `json:"total"`
	Synced int `json:"synced"`
	Failed int `json:"failed"`
}

// RetryStats reports the outcome of a failed-row retry pass.
type RetryStats struct {
	Total       int `json:"total"`
	Synced      int `json:"synced"`
	StillFailed int `json:"still_failed"`
}

// Status is the collection-wide sync summary.
type Status struct {
	Total          int     `json:"total"`
	Pending        int     `json:"pending"`
	Synced         int     `json:"synced"`
	Failed         int     `json:"failed"`
	SyncPercentage float64 `json:"sync_percentage"`
}

type Service struct {
	repo   result.Repository
	pusher Pusher
	tx     result.TxRunner
	logger zerolog.Logger
}

func NewService(repo result.Repository, pusher Pusher, tx result.TxRunner, logger zerolog.Logger) *Service {
	return &Service{repo: repo, pusher: pusher, tx: tx, logger: logger}
}

// SyncOne pushes a single result and records the outcome. A push
// failure is reported only through the return value and the row's new
// status; it never propagates as an error.
func (s *Service) SyncOne(ctx context.Context, r *result.TestResult) bool {
	if err := s.pusher.Push(ctx, r); err != nil {
		s.logger.Error().Err(err).Str("result_id", r.ID.String()).Msg("sync push failed")
		if err := s.repo.SetSyncStatus(ctx, r.ID, result.SyncFailed, nil); err != nil {
			s.logger.Error().Err(err).Str("result_id", r.ID.String()).Msg("could not record failed sync")
		}
		return false
	}
	now := nowUTC()
	if err := s.repo.SetSyncStatus(ctx, r.ID, result.SyncSynced, &now); err != nil {
		s.logger.Error().Err(err).Str("result_id", r.ID.String()).Msg("could not record successful sync")
		return false
	}
	s.logger.Info().Str("result_id", r.ID.String()).Msg("result synced")
	return true
}

// SyncAllPending pushes every pending result sequentially. Each row's
// outcome is durable on its own; one failure does not stop the batch.
func (s *Service) SyncAllPending(ctx context.Context) (BatchStats, error) {
	pending, err := s.repo.ListBySyncStatus(ctx, result.SyncPending)
	if err != nil {
		return BatchStats{}, err
	}
	stats := BatchStats{Total: len(pending)}
	for _, r := range pending {
		if s.SyncOne(ctx, r) {
			stats.Synced++
		} else {
			stats.Failed++
		}
	}
	s.logger.Info().
		Int("total", stats.Total).
		Int("synced", stats.Synced).
		Int("failed", stats.Failed).
		Msg("sync batch complete")
	return stats, nil
}

// RetryFailed re-attempts every failed result. The failed-to-pending
// flip and the retry outcome commit together, so other readers never
// observe the transient pending state. A row that stopped being failed
// between the listing and the flip is skipped.
func (s *Service) RetryFailed(ctx context.Context) (RetryStats, error) {
	failed, err := s.repo.ListBySyncStatus(ctx, result.SyncFailed)
	if err != nil {
		return RetryStats{}, err
	}
	stats := RetryStats{Total: len(failed)}
	for _, r := range failed {
		r := r
		err := s.tx(ctx, func(ctx context.Context) error {
			flipped, err := s.repo.ResetFailedToPending(ctx, r.ID)
			if err != nil {
				return err
			}
			if !flipped {
				stats.Total--
				return nil
			}
			if s.SyncOne(ctx, r) {
				stats.Synced++
			} else {
				stats.StillFailed++
			}
			return nil
		})
		if err != nil {
			s.logger.Error().Err(err).Str("result_id", r.ID.String()).Msg("retry transaction failed")
			stats.StillFailed++
		}
	}
	s.logger.Info().
		Int("total", stats.Total).
		Int("synced", stats.Synced).
		Int("still_failed", stats.StillFailed).
		Msg("retry pass complete")
	return stats, nil
}

// SyncStatus summarizes the collection. Percentage is 0 when there are
// no results at all.
func (s *Service) SyncStatus(ctx context.Context) (Status, error) {
	counts, err := s.repo.StatusCounts(ctx)
	if err != nil {
		return Status{}, err
	}
	st := Status{
		Total:   counts.Total,
		Pending: counts.Pending,
		Synced:  counts.Synced,
		Failed:  counts.Failed,
	}
	if counts.Total > 0 {
		pct := float64(counts.Synced) / float64(counts.Total) * 100
		st.SyncPercentage = math.Round(pct*100) / 100
	}
	return st, nil
}
