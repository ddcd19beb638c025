package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/casacolor/casacolor-backend-go/internal/database/models"
	"github.com/casacolor/casacolor-backend-go/internal/database/repositories"
)

// ApartmentRepository implements repositories.ApartmentRepository
type ApartmentRepository struct {
	db *sql.DB
}

// NewApartmentRepository creates a new ApartmentRepository
func NewApartmentRepository(db *sql.DB) repositories.ApartmentRepository {
	return &ApartmentRepository{db: db}
}

// GetByID retrieves an apartment by ID
func (r *ApartmentRepository) GetByID(ctx context.Context, id int) (*models.Apartment, error) {
	query := `
		SELECT id, tower, number, floor, lock_entity_id, created_at
		FROM apartments
		WHERE id = ?
	`

	apartment := &models.Apartment{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&apartment.ID,
		&apartment.Tower,
		&apartment.Number,
		&apartment.Floor,
		&apartment.LockEntityID,
		&apartment.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("apartment not found with ID: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get apartment: %w", err)
	}

	return apartment, nil
}

// GetByResident retrieves the apartment assigned to a resident
func (r *ApartmentRepository) GetByResident(ctx context.Context, residentID int) (*models.Apartment, error) {
	query := `
		SELECT a.id, a.tower, a.number, a.floor, a.lock_entity_id, a.created_at
		FROM apartments a
		JOIN residents r ON r.apartment_id = a.id
		WHERE r.id = ?
	`

	apartment := &models.Apartment{}
	err := r.db.QueryRowContext(ctx, query, residentID).Scan(
		&apartment.ID,
		&apartment.Tower,
		&apartment.Number,
		&apartment.Floor,
		&apartment.LockEntityID,
		&apartment.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no apartment assigned to resident %d", residentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get apartment for resident: %w", err)
	}

	return apartment, nil
}
