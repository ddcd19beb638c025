package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/casacolor/casacolor-backend-go/internal/database/models"
	"github.com/casacolor/casacolor-backend-go/internal/database/repositories"
)

// Service handles authentication business logic
type Service struct {
	residents   repositories.ResidentRepository
	jwtSecret   string
	tokenExpiry int
	logger      *logrus.Logger
}

// NewService creates a new authentication service
func NewService(residents repositories.ResidentRepository, jwtSecret string, tokenExpiry int, logger *logrus.Logger) *Service {
	return &Service{
		residents:   residents,
		jwtSecret:   jwtSecret,
		tokenExpiry: tokenExpiry,
		logger:      logger,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	Resident  *ResidentInfo `json:"resident"`
}

// ResidentInfo represents resident information for responses
type ResidentInfo struct {
	ID          int       `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	ApartmentID *int      `json:"apartment_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenClaims represents JWT token claims
type TokenClaims struct {
	ResidentID int    `json:"resident_id"`
	Email      string `json:"email"`
	jwt.RegisteredClaims
}

func residentInfo(r *models.Resident) *ResidentInfo {
	info := &ResidentInfo{
		ID:        r.ID,
		Email:     r.Email,
		Name:      r.Name,
		CreatedAt: r.CreatedAt,
	}
	if r.ApartmentID.Valid {
		id := int(r.ApartmentID.Int64)
		info.ApartmentID = &id
	}
	return info
}

// Register creates a new resident account
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*ResidentInfo, error) {
	existing, err := s.residents.GetByEmail(ctx, req.Email)
	if err == nil && existing != nil {
		return nil, fmt.Errorf("email already registered")
	}

	if len(req.Password) < 6 {
		return nil, fmt.Errorf("password must be at least 6 characters long")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.WithError(err).Error("Failed to hash password")
		return nil, fmt.Errorf("failed to process password")
	}

	resident := &models.Resident{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hashedPassword),
	}

	if err := s.residents.Create(ctx, resident); err != nil {
		s.logger.WithError(err).Errorf("Failed to create resident: %s", req.Email)
		return nil, fmt.Errorf("failed to create resident")
	}

	s.logger.WithFields(logrus.Fields{
		"resident_id": resident.ID,
		"email":       resident.Email,
	}).Info("Resident registered successfully")

	return residentInfo(resident), nil
}

// Login authenticates a resident and returns a JWT token
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	resident, err := s.residents.GetByEmail(ctx, req.Email)
	if err != nil {
		s.logger.WithField("email", req.Email).Warn("Login attempt with unknown email")
		return nil, fmt.Errorf("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(resident.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.WithFields(logrus.Fields{
			"resident_id": resident.ID,
			"email":       resident.Email,
		}).Warn("Login attempt with incorrect password")
		return nil, fmt.Errorf("invalid email or password")
	}

	expiresAt := time.Now().Add(time.Duration(s.tokenExpiry) * time.Second)
	claims := &TokenClaims{
		ResidentID: resident.ID,
		Email:      resident.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "casacolor-backend",
			Subject:   fmt.Sprintf("%d", resident.ID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		s.logger.WithError(err).Error("Failed to sign JWT token")
		return nil, fmt.Errorf("failed to generate token")
	}

	s.logger.WithFields(logrus.Fields{
		"resident_id": resident.ID,
		"email":       resident.Email,
	}).Info("Resident logged in successfully")

	return &LoginResponse{
		Token:     tokenString,
		ExpiresAt: expiresAt,
		Resident:  residentInfo(resident),
	}, nil
}

// GetResidentByID retrieves resident information by ID
func (s *Service) GetResidentByID(ctx context.Context, residentID int) (*ResidentInfo, error) {
	resident, err := s.residents.GetByID(ctx, residentID)
	if err != nil {
		return nil, fmt.Errorf("resident not found")
	}

	return residentInfo(resident), nil
}

// ValidateToken validates a JWT token and returns resident information
func (s *Service) ValidateToken(tokenString string) (*ResidentInfo, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(*TokenClaims); ok && token.Valid {
		return &ResidentInfo{
			ID:    claims.ResidentID,
			Email: claims.Email,
		}, nil
	}

	return nil, fmt.Errorf("invalid token claims")
}
