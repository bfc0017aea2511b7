package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/lib/pq"

	"academymsg/internal/models"
)

// TestPurposeResolve tests code lookup and not-found mapping
func TestPurposeResolve(t *testing.T) {
	repo := purposeRepoReturning(shortTextPurpose())
	svc := NewPurposeService(repo)

	purpose, err := svc.Resolve(context.Background(), "CLASS_REMINDER")
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if purpose.Code != "CLASS_REMINDER" {
		t.Errorf("Expected CLASS_REMINDER, got %s", purpose.Code)
	}

	_, err = svc.Resolve(context.Background(), "MISSING")
	var notFound *PurposeNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected PurposeNotFoundError, got %v", err)
	}
}

// TestPurposeResolveActive tests the inactive gate
func TestPurposeResolveActive(t *testing.T) {
	purpose := shortTextPurpose()
	purpose.IsActive = false
	svc := NewPurposeService(purposeRepoReturning(purpose))

	_, err := svc.ResolveActive(context.Background(), "CLASS_REMINDER")

	var inactive *PurposeInactiveError
	if !errors.As(err, &inactive) {
		t.Fatalf("Expected PurposeInactiveError, got %v", err)
	}
}

// TestPurposeIsActive tests the existence check without error mapping
func TestPurposeIsActive(t *testing.T) {
	svc := NewPurposeService(purposeRepoReturning(shortTextPurpose()))

	active, err := svc.IsActive(context.Background(), "CLASS_REMINDER")
	if err != nil || !active {
		t.Errorf("Expected active=true, got active=%v err=%v", active, err)
	}

	active, err = svc.IsActive(context.Background(), "MISSING")
	if err != nil || active {
		t.Errorf("Expected active=false for missing code, got active=%v err=%v", active, err)
	}
}

// TestCreatePurpose_Validation tests that invalid configurations are
// rejected before reaching the repository
func TestCreatePurpose_Validation(t *testing.T) {
	repo := NewMockPurposeRepository()
	svc := NewPurposeService(repo)

	testCases := []struct {
		name    string
		purpose *models.Purpose
	}{
		{
			name: "chat purpose without template code",
			purpose: &models.Purpose{
				Code:           "BROKEN",
				Name:           "Broken",
				TargetAudience: models.TargetAudienceUser,
				DefaultChannel: models.ChannelChatTemplate,
			},
		},
		{
			name: "fallback on a text purpose",
			purpose: func() *models.Purpose {
				fallback := models.ChannelLongText
				return &models.Purpose{
					Code:            "BROKEN",
					Name:            "Broken",
					TargetAudience:  models.TargetAudienceUser,
					DefaultChannel:  models.ChannelShortText,
					ShortTemplate:   stringPtr("hi"),
					FallbackChannel: &fallback,
				}
			}(),
		},
		{
			name: "chat fallback channel",
			purpose: func() *models.Purpose {
				fallback := models.ChannelChatTemplate
				return &models.Purpose{
					Code:             "BROKEN",
					Name:             "Broken",
					TargetAudience:   models.TargetAudienceUser,
					DefaultChannel:   models.ChannelChatTemplate,
					ChatTemplateCode: stringPtr("KT_X"),
					FallbackChannel:  &fallback,
				}
			}(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.CreatePurpose(context.Background(), tc.purpose)

			var valErr *ValidationError
			if !errors.As(err, &valErr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
		})
	}

	if repo.Calls["Create"] != 0 {
		t.Errorf("Invalid purposes must not reach the repository, got %d creates", repo.Calls["Create"])
	}
}

// TestCreatePurpose_DuplicateCode tests unique violation mapping
func TestCreatePurpose_DuplicateCode(t *testing.T) {
	repo := NewMockPurposeRepository()
	repo.CreateFunc = func(ctx context.Context, purpose *models.Purpose) error {
		return &pq.Error{Code: "23505"}
	}
	svc := NewPurposeService(repo)

	err := svc.CreatePurpose(context.Background(), shortTextPurpose())

	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("Expected ConflictError, got %v", err)
	}
}

// TestUpdatePurpose_NotFound tests not-found mapping on update
func TestUpdatePurpose_NotFound(t *testing.T) {
	repo := NewMockPurposeRepository()
	repo.UpdateFunc = func(ctx context.Context, purpose *models.Purpose) error {
		return sql.ErrNoRows
	}
	svc := NewPurposeService(repo)

	err := svc.UpdatePurpose(context.Background(), shortTextPurpose())

	var notFound *PurposeNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected PurposeNotFoundError, got %v", err)
	}
}

// TestToggleActive tests flag flipping and not-found mapping
func TestToggleActive(t *testing.T) {
	repo := NewMockPurposeRepository()
	repo.ToggleActiveFunc = func(ctx context.Context, code string) (bool, error) {
		if code == "CLASS_REMINDER" {
			return false, nil
		}
		return false, sql.ErrNoRows
	}
	svc := NewPurposeService(repo)

	isActive, err := svc.ToggleActive(context.Background(), "CLASS_REMINDER")
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if isActive {
		t.Error("Expected toggled value false")
	}

	_, err = svc.ToggleActive(context.Background(), "MISSING")
	var notFound *PurposeNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected PurposeNotFoundError, got %v", err)
	}
}
