package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"academymsg/internal/models"
	"academymsg/internal/repository"
)

// uniqueViolation is the PostgreSQL error code for duplicate keys
const uniqueViolation = "23505"

// PurposeService is the registry of business purposes. It is the single
// source of truth for which template text and which default/fallback
// channel apply to a purpose; it does not render or size messages.
type PurposeService struct {
	purposeRepo repository.PurposeRepository
}

// NewPurposeService creates a new purpose service
func NewPurposeService(purposeRepo repository.PurposeRepository) *PurposeService {
	return &PurposeService{purposeRepo: purposeRepo}
}

// Resolve looks up a purpose by exact code match
func (s *PurposeService) Resolve(ctx context.Context, code string) (*models.Purpose, error) {
	purpose, err := s.purposeRepo.GetByCode(ctx, code)
	if err == sql.ErrNoRows {
		return nil, &PurposeNotFoundError{Code: code}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve purpose: %w", err)
	}
	return purpose, nil
}

// ResolveActive looks up a purpose and rejects inactive ones
func (s *PurposeService) ResolveActive(ctx context.Context, code string) (*models.Purpose, error) {
	purpose, err := s.Resolve(ctx, code)
	if err != nil {
		return nil, err
	}
	if !purpose.IsActive {
		return nil, &PurposeInactiveError{Code: code}
	}
	return purpose, nil
}

// IsActive reports whether an active purpose exists for the code
func (s *PurposeService) IsActive(ctx context.Context, code string) (bool, error) {
	purpose, err := s.purposeRepo.GetByCode(ctx, code)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check purpose: %w", err)
	}
	return purpose.IsActive, nil
}

// CreatePurpose creates a new purpose configuration
func (s *PurposeService) CreatePurpose(ctx context.Context, purpose *models.Purpose) error {
	if err := purpose.Validate(); err != nil {
		return &ValidationError{Message: err.Error()}
	}

	if err := s.purposeRepo.Create(ctx, purpose); err != nil {
		if pqErr, ok := unwrapPQError(err); ok && pqErr.Code == uniqueViolation {
			return &ConflictError{Resource: "purpose", Message: fmt.Sprintf("code %q already exists", purpose.Code)}
		}
		return fmt.Errorf("failed to create purpose: %w", err)
	}

	return nil
}

// UpdatePurpose updates an existing purpose configuration
func (s *PurposeService) UpdatePurpose(ctx context.Context, purpose *models.Purpose) error {
	if err := purpose.Validate(); err != nil {
		return &ValidationError{Message: err.Error()}
	}

	err := s.purposeRepo.Update(ctx, purpose)
	if err == sql.ErrNoRows {
		return &PurposeNotFoundError{Code: purpose.Code}
	}
	if err != nil {
		return fmt.Errorf("failed to update purpose: %w", err)
	}

	return nil
}

// ToggleActive flips a purpose's active flag and returns the new value
func (s *PurposeService) ToggleActive(ctx context.Context, code string) (bool, error) {
	isActive, err := s.purposeRepo.ToggleActive(ctx, code)
	if err == sql.ErrNoRows {
		return false, &PurposeNotFoundError{Code: code}
	}
	if err != nil {
		return false, fmt.Errorf("failed to toggle purpose: %w", err)
	}
	return isActive, nil
}

// ListPurposes lists purpose configurations
func (s *PurposeService) ListPurposes(ctx context.Context, onlyActive bool) ([]*models.Purpose, error) {
	purposes, err := s.purposeRepo.List(ctx, onlyActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list purposes: %w", err)
	}
	return purposes, nil
}

// unwrapPQError extracts a *pq.Error from a wrapped error chain
func unwrapPQError(err error) (*pq.Error, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr, true
	}
	return nil, false
}
