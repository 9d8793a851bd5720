package main

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/introspect-health/introspect/internal/config"
	"github.com/introspect-health/introspect/internal/domain/clinic"
	"github.com/introspect-health/introspect/internal/domain/patient"
	"github.com/introspect-health/introspect/internal/domain/user"
	"github.com/introspect-health/introspect/internal/platform/auth"
	"github.com/introspect-health/introspect/internal/platform/db"
)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

// seedCmd populates a freshly migrated database with demo clinics,
// accounts and patients so the API is explorable without manual setup.
func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo clinics, users and patients",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			logger := zerolog.Nop()
			return seed(ctx, clinic.NewRepoPG(pool), patient.NewRepoPG(pool), user.NewRepoPG(pool), logger)
		},
	}
}

func seed(ctx context.Context, clinics clinic.Repository, patients patient.Repository,
	users user.Repository, logger zerolog.Logger) error {

	demoClinics := []*clinic.Clinic{
		{
			Name:         "Central Health Clinic",
			District:     "Gaborone",
			Region:       "South-East",
			Latitude:     floatPtr(-24.6282),
			Longitude:    floatPtr(25.9231),
			ContactPhone: strPtr("+267 3900000"),
			ContactEmail: strPtr("central@health.bw"),
		},
		{
			Name:         "Princess Marina Hospital",
			District:     "Gaborone",
			Region:       "South-East",
			Latitude:     floatPtr(-24.6541),
			Longitude:    floatPtr(25.9087),
			ContactPhone: strPtr("+267 3953221"),
			ContactEmail: strPtr("pmh@health.bw"),
		},
		{
			Name:         "Nyangabgwe Referral Hospital",
			District:     "Francistown",
			Region:       "North-East",
			Latitude:     floatPtr(-21.1699),
			Longitude:    floatPtr(27.5084),
			ContactPhone: strPtr("+267 2412000"),
			ContactEmail: strPtr("nyangabgwe@health.bw"),
		},
		{
			Name:         "Maun General Hospital",
			District:     "Maun",
			Region:       "North-West",
			Latitude:     floatPtr(-19.9833),
			Longitude:    floatPtr(23.4167),
			ContactPhone: strPtr("+267 6860444"),
			ContactEmail: strPtr("maun@health.bw"),
		},
	}
	for _, c := range demoClinics {
		if err := clinics.Create(ctx, c); err != nil {
			return fmt.Errorf("seed clinic %s: %w", c.Name, err)
		}
		fmt.Printf("Created clinic: %s (%s)\n", c.Name, c.District)
	}

	adminHash, err := auth.HashPassword("Demo123!")
	if err != nil {
		return err
	}
	demoUsers := []*user.User{
		{
			Email:        "admin@introspect.example.com",
			FirstName:    "Demo",
			LastName:     "Admin",
			PasswordHash: adminHash,
			Role:         user.RoleAdmin,
			IsActive:     true,
		},
		{
			Email:        "worker@introspect.example.com",
			FirstName:    "Kefilwe",
			LastName:     "Molefe",
			PasswordHash: adminHash,
			Role:         user.RoleHealthWorker,
			ClinicID:     &demoClinics[0].ID,
			IsActive:     true,
		},
		{
			Email:        "supervisor@introspect.example.com",
			FirstName:    "Tshepo",
			LastName:     "Seretse",
			PasswordHash: adminHash,
			Role:         user.RoleSupervisor,
			IsActive:     true,
		},
	}
	for _, u := range demoUsers {
		if err := users.Create(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		fmt.Printf("Created user: %s (%s)\n", u.Email, u.Role)
	}

	firstNames := []string{"Thabo", "Kefilwe", "Mpho", "Lesego", "Kgosi", "Boitumelo", "Tshepo", "Neo"}
	lastNames := []string{"Molefe", "Kgosana", "Moeti", "Seretse", "Mogapi", "Tsheko", "Gabaake", "Modise"}
	villages := []string{"Mogoditshane", "Tlokweng", "Gaborone West", "Block 8", "Phakalane", "Broadhurst"}
	genders := []string{"male", "female"}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		c := demoClinics[rng.Intn(len(demoClinics))]
		age := 5 + rng.Intn(70)
		p := &patient.Patient{
			ClinicID:  c.ID,
			FirstName: firstNames[rng.Intn(len(firstNames))],
			LastName:  lastNames[rng.Intn(len(lastNames))],
			Age:       &age,
			Gender:    genders[rng.Intn(len(genders))],
			Village:   strPtr(villages[rng.Intn(len(villages))]),
			District:  strPtr(c.District),
		}
		if err := patients.Create(ctx, p); err != nil {
			return fmt.Errorf("seed patient: %w", err)
		}
	}
	fmt.Println("Created 20 patients")

	logger.Info().Msg("seed complete")
	return nil
}
