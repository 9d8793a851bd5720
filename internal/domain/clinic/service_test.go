package clinic

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type mockRepo struct {
	clinics map[uuid.UUID]*Clinic

	createErr error
	deleteErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{clinics: map[uuid.UUID]*Clinic{}}
}

func (m *mockRepo) Create(ctx context.Context, c *Clinic) error {
	if m.createErr != nil {
		return m.createErr
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	m.clinics[c.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	c, ok := m.clinics[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockRepo) List(ctx context.Context, district string, limit, offset int) ([]*Clinic, int, error) {
	var out []*Clinic
	for _, c := range m.clinics {
		if district == "" || c.District == district {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) Update(ctx context.Context, c *Clinic) error {
	if _, ok := m.clinics[c.ID]; !ok {
		return ErrNotFound
	}
	cp := *c
	m.clinics[c.ID] = &cp
	return nil
}

func (m *mockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.clinics[id]; !ok {
		return ErrNotFound
	}
	delete(m.clinics, id)
	return nil
}

func floatPtr(f float64) *float64 { return &f }
func strPtr(s string) *string    { return &s }

func TestCreate_RoundTrip(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())

	in := &Clinic{
		Name:         "Central Health Clinic",
		District:     "Gaborone",
		Region:       "South-East",
		Latitude:     floatPtr(-24.6282),
		Longitude:    floatPtr(25.9231),
		ContactPhone: strPtr("+267 395 0000"),
		ContactEmail: strPtr("central@health.example"),
	}
	if err := svc.Create(context.Background(), in); err != nil {
		t.Fatalf("create: %v", err)
	}
	if in.ID == uuid.Nil {
		t.Fatal("expected id assigned on create")
	}

	got, err := svc.Get(context.Background(), in.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != in.Name || got.District != in.District || got.Region != in.Region {
		t.Errorf("stored clinic mismatch: %+v", got)
	}
	if got.Latitude == nil || *got.Latitude != -24.6282 {
		t.Errorf("latitude not preserved: %v", got.Latitude)
	}
	if got.ContactEmail == nil || *got.ContactEmail != "central@health.example" {
		t.Errorf("contact email not preserved: %v", got.ContactEmail)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := NewService(newMockRepo(), zerolog.Nop())

	tests := []struct {
		name   string
		clinic Clinic
	}{
		{"missing name", Clinic{District: "Gaborone", Region: "South-East"}},
		{"missing district", Clinic{Name: "A", Region: "South-East"}},
		{"missing region", Clinic{Name: "A", District: "Gaborone"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := tc.clinic
			if err := svc.Create(context.Background(), &c); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestUpdate_Partial(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())

	c := &Clinic{Name: "Maun General", District: "Maun", Region: "North-West"}
	if err := svc.Create(context.Background(), c); err != nil {
		t.Fatal(err)
	}

	got, err := svc.Update(context.Background(), c.ID, Update{ContactPhone: strPtr("+267 686 0000")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Name != "Maun General" || got.District != "Maun" {
		t.Errorf("untouched fields changed: %+v", got)
	}
	if got.ContactPhone == nil || *got.ContactPhone != "+267 686 0000" {
		t.Errorf("phone not updated: %v", got.ContactPhone)
	}
}

func TestUpdate_RejectsEmptyName(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())

	c := &Clinic{Name: "Maun General", District: "Maun", Region: "North-West"}
	if err := svc.Create(context.Background(), c); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Update(context.Background(), c.ID, Update{Name: strPtr("")}); err == nil {
		t.Error("expected empty name to be rejected")
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc := NewService(newMockRepo(), zerolog.Nop())
	if _, err := svc.Update(context.Background(), uuid.New(), Update{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete_InUse(t *testing.T) {
	repo := newMockRepo()
	repo.deleteErr = ErrInUse
	svc := NewService(repo, zerolog.Nop())

	if err := svc.Delete(context.Background(), uuid.New()); !errors.Is(err, ErrInUse) {
		t.Errorf("expected ErrInUse, got %v", err)
	}
}

func TestList_DistrictFilter(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())

	for _, c := range []*Clinic{
		{Name: "A", District: "Gaborone", Region: "South-East"},
		{Name: "B", District: "Gaborone", Region: "South-East"},
		{Name: "C", District: "Francistown", Region: "North-East"},
	} {
		if err := svc.Create(context.Background(), c); err != nil {
			t.Fatal(err)
		}
	}

	got, total, err := svc.List(context.Background(), "Gaborone", 50, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(got) != 2 {
		t.Errorf("expected 2 clinics in Gaborone, got %d (total %d)", len(got), total)
	}
}
