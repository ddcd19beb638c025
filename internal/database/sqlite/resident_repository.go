package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/casacolor/casacolor-backend-go/internal/database/models"
	"github.com/casacolor/casacolor-backend-go/internal/database/repositories"
)

// ResidentRepository implements repositories.ResidentRepository
type ResidentRepository struct {
	db *sql.DB
}

// NewResidentRepository creates a new ResidentRepository
func NewResidentRepository(db *sql.DB) repositories.ResidentRepository {
	return &ResidentRepository{db: db}
}

// Create creates a new resident account
func (r *ResidentRepository) Create(ctx context.Context, resident *models.Resident) error {
	query := `
		INSERT INTO residents (email, name, password_hash, apartment_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	now := time.Now()
	result, err := r.db.ExecContext(
		ctx,
		query,
		resident.Email,
		resident.Name,
		resident.PasswordHash,
		resident.ApartmentID,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create resident: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted resident ID: %w", err)
	}

	resident.ID = int(id)
	resident.CreatedAt = now
	resident.UpdatedAt = now

	return nil
}

// GetByID retrieves a resident by ID
func (r *ResidentRepository) GetByID(ctx context.Context, id int) (*models.Resident, error) {
	query := `
		SELECT id, email, name, password_hash, apartment_id, created_at, updated_at
		FROM residents
		WHERE id = ?
	`

	resident := &models.Resident{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&resident.ID,
		&resident.Email,
		&resident.Name,
		&resident.PasswordHash,
		&resident.ApartmentID,
		&resident.CreatedAt,
		&resident.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("resident not found with ID: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get resident: %w", err)
	}

	return resident, nil
}

// GetByEmail retrieves a resident by email
func (r *ResidentRepository) GetByEmail(ctx context.Context, email string) (*models.Resident, error) {
	query := `
		SELECT id, email, name, password_hash, apartment_id, created_at, updated_at
		FROM residents
		WHERE email = ?
	`

	resident := &models.Resident{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&resident.ID,
		&resident.Email,
		&resident.Name,
		&resident.PasswordHash,
		&resident.ApartmentID,
		&resident.CreatedAt,
		&resident.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("resident not found with email: %s", email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get resident: %w", err)
	}

	return resident, nil
}
