package user

import (
	"time"

	"github.com/google/uuid"
)

// Roles understood by the authorization layer.
const (
	RoleHealthWorker = "health_worker"
	RoleAdmin        = "admin"
	RoleSupervisor   = "supervisor"
)

var validRoles = map[string]bool{
	RoleHealthWorker: true, RoleAdmin: true, RoleSupervisor: true,
}

// User is an account that can sign in to the system. Health workers are
// tied to a clinic; admins and supervisors may operate across clinics.
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	FirstName    string     `db:"first_name" json:"first_name"`
	LastName     string     `db:"last_name" json:"last_name"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         string     `db:"role" json:"role"`
	ClinicID     *uuid.UUID `db:"clinic_id" json:"clinic_id,omitempty"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// CreateInput is the payload for registering a new account.
type CreateInput struct {
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Password  string     `json:"password"`
	Role      string     `json:"role"`
	ClinicID  *uuid.UUID `json:"clinic_id,omitempty"`
}

// Update carries a partial account update; nil fields are left untouched.
type Update struct {
	FirstName *string    `json:"first_name,omitempty"`
	LastName  *string    `json:"last_name,omitempty"`
	Role      *string    `json:"role,omitempty"`
	ClinicID  *uuid.UUID `json:"clinic_id,omitempty"`
	IsActive  *bool      `json:"is_active,omitempty"`
}

func (u Update) Apply(usr *User) {
	if u.FirstName != nil {
		usr.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		usr.LastName = *u.LastName
	}
	if u.Role != nil {
		usr.Role = *u.Role
	}
	if u.ClinicID != nil {
		usr.ClinicID = u.ClinicID
	}
	if u.IsActive != nil {
		usr.IsActive = *u.IsActive
	}
}
