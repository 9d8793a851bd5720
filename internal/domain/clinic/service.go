package clinic

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Create(ctx context.Context, c *Clinic) error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.District == "" {
		return fmt.Errorf("district is required")
	}
	if c.Region == "" {
		return fmt.Errorf("region is required")
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return err
	}
	s.logger.Info().Str("clinic_id", c.ID.String()).Str("district", c.District).Msg("clinic created")
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, district string, limit, offset int) ([]*Clinic, int, error) {
	return s.repo.List(ctx, district, limit, offset)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, upd Update) (*Clinic, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	upd.Apply(c)
	if c.Name == "" || c.District == "" || c.Region == "" {
		return nil, fmt.Errorf("name, district and region must not be empty")
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info().Str("clinic_id", id.String()).Msg("clinic updated")
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("clinic_id", id.String()).Msg("clinic deleted")
	return nil
}
