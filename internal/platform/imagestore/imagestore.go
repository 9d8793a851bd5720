// Package imagestore persists blood-smear images on the local filesystem,
// partitioned by clinic and capture month. Test results reference images by
// relative path; no binary data lives in the database.
package imagestore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrPathOutsideStore = errors.New("path escapes storage root")

// Stats summarizes store usage. Recomputed by full traversal on demand;
// intended for ops tooling, not hot paths.
type Stats struct {
	FileCount  int   `json:"file_count"`
	TotalBytes int64 `json:"total_bytes"`
}

// Store writes and removes images under a base directory using the layout
// <base>/<clinicID>/<YYYY-MM>/<uuid><ext>.
type Store struct {
	base   string
	logger zerolog.Logger
	now    func() time.Time
}

// New creates the base directory if needed and returns a ready Store.
func New(basePath string, logger zerolog.Logger) (*Store, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve base path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	logger.Info().Str("path", abs).Msg("image store initialized")
	return &Store{base: abs, logger: logger, now: time.Now}, nil
}

// Save writes content under the clinic/month partition with a fresh unique
// filename keeping the original extension. Returns the relative path and the
// stored filename.
func (s *Store) Save(content []byte, originalFilename string, clinicID uuid.UUID) (string, string, error) {
	monthDir := s.now().Format("2006-01")
	dir := filepath.Join(s.base, clinicID.String(), monthDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create partition directory: %w", err)
	}

	storedName := uuid.New().String() + strings.ToLower(filepath.Ext(originalFilename))
	fullPath := filepath.Join(dir, storedName)

	if err := os.WriteFile(fullPath, content, 0o644); err != nil {
		return "", "", fmt.Errorf("write image: %w", err)
	}

	relPath := filepath.Join(clinicID.String(), monthDir, storedName)
	s.logger.Info().Str("path", relPath).Int("bytes", len(content)).Msg("image saved")
	return relPath, storedName, nil
}

// Path resolves a relative path to an absolute one inside the store. It
// refuses paths that would escape the base directory.
func (s *Store) Path(relPath string) (string, error) {
	full := filepath.Join(s.base, relPath)
	if !strings.HasPrefix(full, s.base+string(filepath.Separator)) {
		return "", ErrPathOutsideStore
	}
	return full, nil
}

// Delete removes a stored image. A missing file returns false, not an error.
func (s *Store) Delete(relPath string) bool {
	full, err := s.Path(relPath)
	if err != nil {
		s.logger.Warn().Str("path", relPath).Msg("refusing to delete path outside store")
		return false
	}
	if err := os.Remove(full); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Error().Err(err).Str("path", relPath).Msg("failed to delete image")
		}
		return false
	}
	s.logger.Info().Str("path", relPath).Msg("image deleted")
	return true
}

// Stats walks the store and returns file count and total size.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	err := filepath.WalkDir(s.base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		st.FileCount++
		st.TotalBytes += info.Size()
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("walk storage directory: %w", err)
	}
	return st, nil
}
