package database

import (
	"database/sql"

	"github.com/casacolor/casacolor-backend-go/internal/database/repositories"
	"github.com/casacolor/casacolor-backend-go/internal/database/sqlite"
)

// Repositories aggregates all repository implementations
type Repositories struct {
	Resident  repositories.ResidentRepository
	Apartment repositories.ApartmentRepository
	Post      repositories.PostRepository
}

// NewRepositories creates all repositories backed by the given database
func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Resident:  sqlite.NewResidentRepository(db),
		Apartment: sqlite.NewApartmentRepository(db),
		Post:      sqlite.NewPostRepository(db),
	}
}
