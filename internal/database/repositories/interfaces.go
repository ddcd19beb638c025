package repositories

import (
	"context"

	"github.com/casacolor/casacolor-backend-go/internal/database/models"
)

// ResidentRepository manages resident accounts.
type ResidentRepository interface {
	Create(ctx context.Context, resident *models.Resident) error
	GetByID(ctx context.Context, id int) (*models.Resident, error)
	GetByEmail(ctx context.Context, email string) (*models.Resident, error)
}

// ApartmentRepository manages building units.
type ApartmentRepository interface {
	GetByID(ctx context.Context, id int) (*models.Apartment, error)
	GetByResident(ctx context.Context, residentID int) (*models.Apartment, error)
}

// PostRepository manages the community feed.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	List(ctx context.Context, limit int) ([]*models.Post, error)
	Delete(ctx context.Context, id string) error
}
