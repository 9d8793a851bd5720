package patient

import (
	"time"

	"github.com/google/uuid"
)

// Gender enumerates the accepted patient gender values.
var validGenders = map[string]bool{
	"male": true, "female": true, "other": true,
}

// Patient maps to the patients table. Every patient belongs to a clinic.
type Patient struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	ClinicID    uuid.UUID  `db:"clinic_id" json:"clinic_id"`
	FirstName   string     `db:"first_name" json:"first_name"`
	LastName    string     `db:"last_name" json:"last_name"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Age         *int       `db:"age" json:"age,omitempty"`
	Gender      string     `db:"gender" json:"gender"`
	PhoneNumber *string    `db:"phone_number" json:"phone_number,omitempty"`
	NationalID  *string    `db:"national_id" json:"national_id,omitempty"`
	Village     *string    `db:"village" json:"village,omitempty"`
	District    *string    `db:"district" json:"district,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// Update carries a partial patient update; nil fields are left untouched.
type Update struct {
	FirstName   *string    `json:"first_name,omitempty"`
	LastName    *string    `json:"last_name,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Age         *int       `json:"age,omitempty"`
	Gender      *string    `json:"gender,omitempty"`
	PhoneNumber *string    `json:"phone_number,omitempty"`
	NationalID  *string    `json:"national_id,omitempty"`
	Village     *string    `json:"village,omitempty"`
	District    *string    `json:"district,omitempty"`
}

// Apply copies the non-nil fields of u onto p.
func (u Update) Apply(p *Patient) {
	if u.FirstName != nil {
		p.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		p.LastName = *u.LastName
	}
	if u.DateOfBirth != nil {
		p.DateOfBirth = u.DateOfBirth
	}
	if u.Age != nil {
		p.Age = u.Age
	}
	if u.Gender != nil {
		p.Gender = *u.Gender
	}
	if u.PhoneNumber != nil {
		p.PhoneNumber = u.PhoneNumber
	}
	if u.NationalID != nil {
		p.NationalID = u.NationalID
	}
	if u.Village != nil {
		p.Village = u.Village
	}
	if u.District != nil {
		p.District = u.District
	}
}
