package clinic

import (
	"time"

	"github.com/google/uuid"
)

// Clinic maps to the clinics table. A clinic is the partition every patient
// and test result belongs to.
type Clinic struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	District     string    `db:"district" json:"district"`
	Region       string    `db:"region" json:"region"`
	Latitude     *float64  `db:"latitude" json:"latitude,omitempty"`
	Longitude    *float64  `db:"longitude" json:"longitude,omitempty"`
	ContactPhone *string   `db:"contact_phone" json:"contact_phone,omitempty"`
	ContactEmail *string   `db:"contact_email" json:"contact_email,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Update carries a partial clinic update; nil fields are left untouched.
type Update struct {
	Name         *string  `json:"name,omitempty"`
	District     *string  `json:"district,omitempty"`
	Region       *string  `json:"region,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	ContactPhone *string  `json:"contact_phone,omitempty"`
	ContactEmail *string  `json:"contact_email,omitempty"`
}

// Apply copies the non-nil fields of u onto c.
func (u Update) Apply(c *Clinic) {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.District != nil {
		c.District = *u.District
	}
	if u.Region != nil {
		c.Region = *u.Region
	}
	if u.Latitude != nil {
		c.Latitude = u.Latitude
	}
	if u.Longitude != nil {
		c.Longitude = u.Longitude
	}
	if u.ContactPhone != nil {
		c.ContactPhone = u.ContactPhone
	}
	if u.ContactEmail != nil {
		c.ContactEmail = u.ContactEmail
	}
}
