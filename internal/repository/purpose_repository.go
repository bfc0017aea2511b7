package repository

import (
	"context"
	"database/sql"
	"fmt"

	"academymsg/internal/models"
)

type purposeRepository struct {
	db *sql.DB
}

// NewPurposeRepository creates a new purpose repository
func NewPurposeRepository(db *sql.DB) PurposeRepository {
	return &purposeRepository{db: db}
}

const purposeColumns = `code, name, description, target_audience, default_channel,
		short_template, long_template, long_subject, chat_template_code,
		is_active, is_batch_available, fallback_channel, created_at, updated_at`

// Create creates a new purpose
func (r *purposeRepository) Create(ctx context.Context, purpose *models.Purpose) error {
	query := `
		INSERT INTO message_purposes (code, name, description, target_audience, default_channel,
			short_template, long_template, long_subject, chat_template_code,
			is_active, is_batch_available, fallback_channel)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		purpose.Code,
		purpose.Name,
		purpose.Description,
		purpose.TargetAudience,
		purpose.DefaultChannel,
		purpose.ShortTemplate,
		purpose.LongTemplate,
		purpose.LongSubject,
		purpose.ChatTemplateCode,
		purpose.IsActive,
		purpose.IsBatchAvailable,
		purpose.FallbackChannel,
	).Scan(&purpose.CreatedAt, &purpose.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create purpose: %w", err)
	}

	return nil
}

// GetByCode retrieves a purpose by its code
func (r *purposeRepository) GetByCode(ctx context.Context, code string) (*models.Purpose, error) {
	query := `SELECT ` + purposeColumns + ` FROM message_purposes WHERE code = $1`

	purpose := &models.Purpose{}
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&purpose.Code,
		&purpose.Name,
		&purpose.Description,
		&purpose.TargetAudience,
		&purpose.DefaultChannel,
		&purpose.ShortTemplate,
		&purpose.LongTemplate,
		&purpose.LongSubject,
		&purpose.ChatTemplateCode,
		&purpose.IsActive,
		&purpose.IsBatchAvailable,
		&purpose.FallbackChannel,
		&purpose.CreatedAt,
		&purpose.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get purpose: %w", err)
	}

	return purpose, nil
}

// List lists purposes, optionally only active ones
func (r *purposeRepository) List(ctx context.Context, onlyActive bool) ([]*models.Purpose, error) {
	query := `SELECT ` + purposeColumns + ` FROM message_purposes`
	if onlyActive {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY code`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list purposes: %w", err)
	}
	defer rows.Close()

	var purposes []*models.Purpose
	for rows.Next() {
		purpose := &models.Purpose{}
		err := rows.Scan(
			&purpose.Code,
			&purpose.Name,
			&purpose.Description,
			&purpose.TargetAudience,
			&purpose.DefaultChannel,
			&purpose.ShortTemplate,
			&purpose.LongTemplate,
			&purpose.LongSubject,
			&purpose.ChatTemplateCode,
			&purpose.IsActive,
			&purpose.IsBatchAvailable,
			&purpose.FallbackChannel,
			&purpose.CreatedAt,
			&purpose.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purpose: %w", err)
		}
		purposes = append(purposes, purpose)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate purposes: %w", err)
	}

	return purposes, nil
}

// Update updates a purpose's configuration
func (r *purposeRepository) Update(ctx context.Context, purpose *models.Purpose) error {
	query := `
		UPDATE message_purposes
		SET name = $2,
			description = $3,
			target_audience = $4,
			default_channel = $5,
			short_template = $6,
			long_template = $7,
			long_subject = $8,
			chat_template_code = $9,
			is_active = $10,
			is_batch_available = $11,
			fallback_channel = $12,
			updated_at = NOW()
		WHERE code = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		purpose.Code,
		purpose.Name,
		purpose.Description,
		purpose.TargetAudience,
		purpose.DefaultChannel,
		purpose.ShortTemplate,
		purpose.LongTemplate,
		purpose.LongSubject,
		purpose.ChatTemplateCode,
		purpose.IsActive,
		purpose.IsBatchAvailable,
		purpose.FallbackChannel,
	).Scan(&purpose.UpdatedAt)

	if err == sql.ErrNoRows {
		return sql.ErrNoRows
	}
	if err != nil {
		return fmt.Errorf("failed to update purpose: %w", err)
	}

	return nil
}

// ToggleActive flips the active flag and returns the new value
func (r *purposeRepository) ToggleActive(ctx context.Context, code string) (bool, error) {
	query := `
		UPDATE message_purposes
		SET is_active = NOT is_active, updated_at = NOW()
		WHERE code = $1
		RETURNING is_active
	`

	var isActive bool
	err := r.db.QueryRowContext(ctx, query, code).Scan(&isActive)
	if err == sql.ErrNoRows {
		return false, sql.ErrNoRows
	}
	if err != nil {
		return false, fmt.Errorf("failed to toggle purpose: %w", err)
	}

	return isActive, nil
}
