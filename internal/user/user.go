package user

import (
	"github.com/wichananm65/pet-shop-admin/internal/database"
)

type Pet struct {
	Name  string `json:"name" validate:"required,max=120,no_xss"`
	Type  string `json:"type" validate:"max=60"`
	Breed string `json:"breed" validate:"max=120"`
	Age   string `json:"age" validate:"omitempty,oneof=puppy young adult senior"`
}

// Preferences holds the notification toggles.
type Preferences struct {
	Email        bool `json:"email"`
	SMS          bool `json:"sms"`
	Push         bool `json:"push"`
	OrderUpdates bool `json:"order_updates"`
	Promotions   bool `json:"promotions"`
}

// User ids come from the external identity provider.
type User struct {
	ID          string                     `json:"id" db:"id" validate:"max=64"`
	FirstName   string                     `json:"first_name" db:"first_name" validate:"required,max=255,no_xss"`
	LastName    string                     `json:"last_name" db:"last_name" validate:"required,max=255,no_xss"`
	Phone       *string                    `json:"phone" db:"phone" validate:"omitempty,max=64"`
	IsAdmin     bool                       `json:"is_admin" db:"is_admin"`
	HasPets     *string                    `json:"has_pets" db:"has_pets" validate:"omitempty,oneof=yes no"`
	Pets        database.JSON[[]Pet]       `json:"pets" db:"pets"`
	Interests   database.JSON[[]string]    `json:"interests" db:"interests"`
	Newsletter  bool                       `json:"newsletter" db:"newsletter"`
	Preferences database.JSON[Preferences] `json:"preferences" db:"preferences"`
	Version     int                        `json:"version" db:"version"`
	CreatedAt   string                     `json:"created_at" db:"created_at"`
}

func (u User) RecordID() string   { return u.ID }
func (u User) RecordVersion() int { return u.Version }

func (u User) WithID(id string) User {
	u.ID = id
	return u
}

func (u User) WithVersion(v int) User {
	u.Version = v
	return u
}

func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
