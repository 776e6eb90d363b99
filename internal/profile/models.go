// internal/profile/models.go

package profile

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// DateLayout is the wire format of date_of_birth
const DateLayout = "2006-01-02"

// Profile represents a user's dating profile
type Profile struct {
	ID          int64      `json:"id" db:"id"`
	UserID      int64      `json:"user_id" db:"user_id"`
	Name        string     `json:"name" db:"name"`
	DateOfBirth *time.Time `json:"date_of_birth" db:"date_of_birth"`
	Gender      string     `json:"gender" db:"gender"`
	Bio         *string    `json:"bio" db:"bio"`
	Interests   Interests  `json:"interests" db:"interests"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// Age returns the age in whole years at t, or 0 when unknown
func (p *Profile) Age(t time.Time) int {
	if p.DateOfBirth == nil {
		return 0
	}
	return ageAt(*p.DateOfBirth, t)
}

// Info is the read model other packages use to price payments and score
// matches. Active comes from the owning user account.
type Info struct {
	UserID      int64      `db:"user_id"`
	Name        string     `db:"name"`
	Gender      string     `db:"gender"`
	DateOfBirth *time.Time `db:"date_of_birth"`
	Interests   Interests  `db:"interests"`
	Active      bool       `db:"active"`
	Phone       *string    `db:"phone"`
}

// Age returns the age in whole years at t, or 0 when unknown
func (i *Info) Age(t time.Time) int {
	if i.DateOfBirth == nil {
		return 0
	}
	return ageAt(*i.DateOfBirth, t)
}

func ageAt(dob, t time.Time) int {
	age := t.Year() - dob.Year()
	if t.YearDay() < dob.YearDay() {
		age--
	}
	return age
}

// Interests is stored as a JSON array
type Interests []string

// Scan implements the sql.Scanner interface for Interests
func (i *Interests) Scan(value interface{}) error {
	if value == nil {
		*i = Interests{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Interests", value)
	}
	return json.Unmarshal(raw, i)
}

// Value implements the driver.Valuer interface for Interests
func (i Interests) Value() (driver.Value, error) {
	if i == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(i))
}

// CreateProfileRequest represents initial profile setup
type CreateProfileRequest struct {
	Name        string   `json:"name" validate:"required,min=2,max=100"`
	DateOfBirth string   `json:"date_of_birth" validate:"required"`
	Gender      string   `json:"gender" validate:"required,oneof=male female"`
	Bio         *string  `json:"bio" validate:"omitempty,max=500"`
	Interests   []string `json:"interests" validate:"omitempty,max=20,dive,min=1,max=50"`
}

// UpdateProfileRequest represents a profile update request
type UpdateProfileRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=2,max=100"`
	DateOfBirth *string  `json:"date_of_birth"`
	Gender      *string  `json:"gender" validate:"omitempty,oneof=male female"`
	Bio         *string  `json:"bio" validate:"omitempty,max=500"`
	Interests   []string `json:"interests" validate:"omitempty,max=20,dive,min=1,max=50"`
}

// ListFilter narrows profile listings
type ListFilter struct {
	Gender *string
	Limit  int
	Offset int
}
