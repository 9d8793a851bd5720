package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/introspect-health/introspect/internal/platform/auth"
)

// ErrBadCredentials is returned for any login failure. Unknown email,
// wrong password and deactivated account all map to the same error so
// the response does not leak which one it was.
var ErrBadCredentials = errors.New("invalid email or password")

type Service struct {
	repo   Repository
	tokens *auth.TokenIssuer
	logger zerolog.Logger
}

func NewService(repo Repository, tokens *auth.TokenIssuer, logger zerolog.Logger) *Service {
	return &Service{repo: repo, tokens: tokens, logger: logger}
}

func (s *Service) Register(ctx context.Context, in CreateInput) (*User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, fmt.Errorf("a valid email is required")
	}
	if len(in.Password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}
	if !validRoles[in.Role] {
		return nil, fmt.Errorf("role must be one of health_worker, admin, supervisor")
	}
	if in.Role == RoleHealthWorker && in.ClinicID == nil {
		return nil, fmt.Errorf("health workers must be assigned to a clinic")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &User{
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		Role:         in.Role,
		ClinicID:     in.ClinicID,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", u.ID.String()).Str("role", u.Role).Msg("user registered")
	return u, nil
}

// Login verifies credentials and returns the account plus a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", ErrBadCredentials
		}
		return nil, "", err
	}
	if !u.IsActive || !auth.CheckPassword(u.PasswordHash, password) {
		return nil, "", ErrBadCredentials
	}
	token, err := s.tokens.Issue(u.ID, u.Role, u.ClinicID)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info().Str("user_id", u.ID.String()).Msg("user logged in")
	return u, token, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, role string, limit, offset int) ([]*User, int, error) {
	return s.repo.List(ctx, role, limit, offset)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, upd Update) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	upd.Apply(u)
	if !validRoles[u.Role] {
		return nil, fmt.Errorf("role must be one of health_worker, admin, supervisor")
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", id.String()).Msg("user updated")
	return u, nil
}

// Deactivate disables an account without deleting its audit trail.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !u.IsActive {
		return nil
	}
	u.IsActive = false
	if err := s.repo.Update(ctx, u); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", id.String()).Msg("user deactivated")
	return nil
}
