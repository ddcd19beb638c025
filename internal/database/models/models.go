package models

import (
	"database/sql"
	"time"
)

// Resident is a building inhabitant with application access.
type Resident struct {
	ID           int           `json:"id" db:"id"`
	Email        string        `json:"email" db:"email"`
	Name         string        `json:"name" db:"name"`
	PasswordHash string        `json:"-" db:"password_hash"`
	ApartmentID  sql.NullInt64 `json:"apartment_id" db:"apartment_id"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" db:"updated_at"`
}

// Apartment is a unit inside the building. LockEntityID is the hub entity of
// the unit's door lock; empty means the unit has no connected lock.
type Apartment struct {
	ID           int       `json:"id" db:"id"`
	Tower        string    `json:"tower" db:"tower"`
	Number       string    `json:"number" db:"number"`
	Floor        int       `json:"floor" db:"floor"`
	LockEntityID string    `json:"lock_entity_id" db:"lock_entity_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Post is one community feed entry.
type Post struct {
	ID        string         `json:"id" db:"id"`
	AuthorID  int            `json:"author_id" db:"author_id"`
	Body      string         `json:"body" db:"body"`
	ImagePath sql.NullString `json:"image_path" db:"image_path"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}
