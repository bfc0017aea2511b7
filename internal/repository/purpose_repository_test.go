package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"academymsg/internal/models"
)

func purposeColumnList() []string {
	return []string{
		"code", "name", "description", "target_audience", "default_channel",
		"short_template", "long_template", "long_subject", "chat_template_code",
		"is_active", "is_batch_available", "fallback_channel", "created_at", "updated_at",
	}
}

func purposeRow(code string, ts time.Time) []driver.Value {
	return []driver.Value{
		code, "Class reminder", nil, "USER", "SHORT_TEXT",
		"Hi {studentName}", nil, nil, nil,
		true, true, nil, ts, ts,
	}
}

// TestPurposeCreate tests the insert with returned timestamps
func TestPurposeCreate(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	repo := NewPurposeRepository(db)

	ts := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO message_purposes").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(ts, ts))

	short := "Hi {studentName}"
	purpose := &models.Purpose{
		Code:             "CLASS_REMINDER",
		Name:             "Class reminder",
		TargetAudience:   models.TargetAudienceUser,
		DefaultChannel:   models.ChannelShortText,
		ShortTemplate:    &short,
		IsActive:         true,
		IsBatchAvailable: true,
	}

	if err := repo.Create(context.Background(), purpose); err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if !purpose.CreatedAt.Equal(ts) {
		t.Errorf("Expected returned created_at, got %v", purpose.CreatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

// TestPurposeGetByCode tests lookup and full scan, including the nullable
// channel and template columns
func TestPurposeGetByCode(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	repo := NewPurposeRepository(db)

	ts := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM message_purposes WHERE code =").
		WithArgs("CLASS_REMINDER").
		WillReturnRows(sqlmock.NewRows(purposeColumnList()).AddRow(purposeRow("CLASS_REMINDER", ts)...))

	purpose, err := repo.GetByCode(context.Background(), "CLASS_REMINDER")
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if purpose.Code != "CLASS_REMINDER" {
		t.Errorf("Expected code CLASS_REMINDER, got %s", purpose.Code)
	}
	if purpose.ShortTemplate == nil || *purpose.ShortTemplate != "Hi {studentName}" {
		t.Errorf("Expected template scanned, got %v", purpose.ShortTemplate)
	}
	if purpose.FallbackChannel != nil {
		t.Errorf("Expected nil fallback channel, got %v", *purpose.FallbackChannel)
	}
}

// TestPurposeGetByCode_NotFound tests the no-rows passthrough
func TestPurposeGetByCode_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	repo := NewPurposeRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM message_purposes WHERE code =").
		WithArgs("MISSING").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByCode(context.Background(), "MISSING")
	if err != sql.ErrNoRows {
		t.Fatalf("Expected sql.ErrNoRows, got %v", err)
	}
}

// TestPurposeList tests the active-only filter
func TestPurposeList(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	repo := NewPurposeRepository(db)

	ts := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM message_purposes WHERE is_active = TRUE ORDER BY code").
		WillReturnRows(sqlmock.NewRows(purposeColumnList()).
			AddRow(purposeRow("A_PURPOSE", ts)...).
			AddRow(purposeRow("B_PURPOSE", ts)...))

	purposes, err := repo.List(context.Background(), true)
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if len(purposes) != 2 {
		t.Errorf("Expected 2 purposes, got %d", len(purposes))
	}
}

// TestPurposeToggleActive tests the in-database flag flip
func TestPurposeToggleActive(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()
	repo := NewPurposeRepository(db)

	mock.ExpectQuery("UPDATE message_purposes\\s+SET is_active = NOT is_active").
		WithArgs("CLASS_REMINDER").
		WillReturnRows(sqlmock.NewRows([]string{"is_active"}).AddRow(false))

	isActive, err := repo.ToggleActive(context.Background(), "CLASS_REMINDER")
	if err != nil {
		t.Fatalf("Expected no error but got: %v", err)
	}
	if isActive {
		t.Error("Expected toggled value false")
	}
}
