package patient

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type mockRepo struct {
	patients map[uuid.UUID]*Patient

	createErr  error
	searchHits int
}

func newMockRepo() *mockRepo {
	return &mockRepo{patients: map[uuid.UUID]*Patient{}}
}

func (m *mockRepo) Create(ctx context.Context, p *Patient) error {
	if m.createErr != nil {
		return m.createErr
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) List(ctx context.Context, clinicID uuid.UUID, limit, offset int) ([]*Patient, int, error) {
	var out []*Patient
	for _, p := range m.patients {
		if clinicID == uuid.Nil || p.ClinicID == clinicID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) Search(ctx context.Context, term string, clinicID uuid.UUID, limit, offset int) ([]*Patient, int, error) {
	m.searchHits++
	var out []*Patient
	lower := strings.ToLower(term)
	for _, p := range m.patients {
		if clinicID != uuid.Nil && p.ClinicID != clinicID {
			continue
		}
		national := ""
		if p.NationalID != nil {
			national = *p.NationalID
		}
		if strings.Contains(strings.ToLower(p.FirstName), lower) ||
			strings.Contains(strings.ToLower(p.LastName), lower) ||
			strings.Contains(strings.ToLower(national), lower) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) Update(ctx context.Context, p *Patient) error {
	if _, ok := m.patients[p.ID]; !ok {
		return ErrNotFound
	}
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *mockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.patients[id]; !ok {
		return ErrNotFound
	}
	delete(m.patients, id)
	return nil
}

func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }

func TestRegister_Validation(t *testing.T) {
	svc := NewService(newMockRepo(), zerolog.Nop())
	clinicID := uuid.New()

	tests := []struct {
		name    string
		patient Patient
		wantErr bool
	}{
		{"valid", Patient{ClinicID: clinicID, FirstName: "Kabo", LastName: "Mokoena", Gender: "male"}, false},
		{"valid with age", Patient{ClinicID: clinicID, FirstName: "Neo", LastName: "Tau", Gender: "female", Age: intPtr(34)}, false},
		{"missing clinic", Patient{FirstName: "Kabo", LastName: "Mokoena", Gender: "male"}, true},
		{"missing first name", Patient{ClinicID: clinicID, LastName: "Mokoena", Gender: "male"}, true},
		{"missing last name", Patient{ClinicID: clinicID, FirstName: "Kabo", Gender: "male"}, true},
		{"bad gender", Patient{ClinicID: clinicID, FirstName: "Kabo", LastName: "Mokoena", Gender: "unknown"}, true},
		{"negative age", Patient{ClinicID: clinicID, FirstName: "Kabo", LastName: "Mokoena", Gender: "male", Age: intPtr(-1)}, true},
		{"age too large", Patient{ClinicID: clinicID, FirstName: "Kabo", LastName: "Mokoena", Gender: "male", Age: intPtr(151)}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := tc.patient
			err := svc.Register(context.Background(), &p)
			if tc.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestRegister_DuplicateNationalID(t *testing.T) {
	repo := newMockRepo()
	repo.createErr = ErrDuplicateNational
	svc := NewService(repo, zerolog.Nop())

	p := Patient{ClinicID: uuid.New(), FirstName: "Kabo", LastName: "Mokoena", Gender: "male", NationalID: strPtr("BW123456")}
	if err := svc.Register(context.Background(), &p); !errors.Is(err, ErrDuplicateNational) {
		t.Errorf("expected ErrDuplicateNational, got %v", err)
	}
}

func TestSearch_EmptyTermListsAll(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())
	clinicID := uuid.New()

	for _, p := range []*Patient{
		{ClinicID: clinicID, FirstName: "Kabo", LastName: "Mokoena", Gender: "male"},
		{ClinicID: clinicID, FirstName: "Neo", LastName: "Tau", Gender: "female"},
	} {
		if err := svc.Register(context.Background(), p); err != nil {
			t.Fatal(err)
		}
	}

	got, total, err := svc.Search(context.Background(), "", uuid.Nil, 50, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(got) != 2 {
		t.Errorf("expected all patients for empty term, got %d", len(got))
	}
	if repo.searchHits != 0 {
		t.Error("empty term should fall back to List, not Search")
	}
}

func TestSearch_ByNameAndNationalID(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())
	clinicID := uuid.New()

	for _, p := range []*Patient{
		{ClinicID: clinicID, FirstName: "Kabo", LastName: "Mokoena", Gender: "male", NationalID: strPtr("BW111")},
		{ClinicID: clinicID, FirstName: "Neo", LastName: "Tau", Gender: "female", NationalID: strPtr("BW222")},
	} {
		if err := svc.Register(context.Background(), p); err != nil {
			t.Fatal(err)
		}
	}

	got, _, err := svc.Search(context.Background(), "mokoena", uuid.Nil, 50, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].FirstName != "Kabo" {
		t.Errorf("expected last-name match for Kabo, got %+v", got)
	}

	got, _, err = svc.Search(context.Background(), "BW222", uuid.Nil, 50, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].FirstName != "Neo" {
		t.Errorf("expected national-id match for Neo, got %+v", got)
	}
}

func TestUpdate_PartialAndRevalidated(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())

	p := &Patient{ClinicID: uuid.New(), FirstName: "Kabo", LastName: "Mokoena", Gender: "male"}
	if err := svc.Register(context.Background(), p); err != nil {
		t.Fatal(err)
	}

	got, err := svc.Update(context.Background(), p.ID, Update{Village: strPtr("Tlokweng")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.FirstName != "Kabo" {
		t.Errorf("untouched field changed: %+v", got)
	}
	if got.Village == nil || *got.Village != "Tlokweng" {
		t.Errorf("village not updated: %v", got.Village)
	}

	if _, err := svc.Update(context.Background(), p.ID, Update{Gender: strPtr("robot")}); err == nil {
		t.Error("expected invalid gender update to be rejected")
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc := NewService(newMockRepo(), zerolog.Nop())
	if _, err := svc.Update(context.Background(), uuid.New(), Update{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	svc := NewService(newMockRepo(), zerolog.Nop())
	if err := svc.Delete(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
