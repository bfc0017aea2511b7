package repository

import (
	"context"
	"errors"
	"time"

	"academymsg/internal/models"
)

// ErrNotPending is returned when a state transition targets a log row
// that already left PENDING. Terminal statuses never regress.
var ErrNotPending = errors.New("message log is not pending")

// PurposeRepository defines purpose configuration data access operations
type PurposeRepository interface {
	Create(ctx context.Context, purpose *models.Purpose) error
	GetByCode(ctx context.Context, code string) (*models.Purpose, error)
	List(ctx context.Context, onlyActive bool) ([]*models.Purpose, error)
	Update(ctx context.Context, purpose *models.Purpose) error
	ToggleActive(ctx context.Context, code string) (bool, error)
}

// LogFilters defines filters for listing message logs
type LogFilters struct {
	Page        int
	PageSize    int
	ToPhone     *string
	PurposeCode *string
	Channel     *models.Channel
	Status      *models.MessageStatus
	From        *time.Time
	To          *time.Time
}

// PurposeStats is a per-purpose, per-status aggregate over a time range
type PurposeStats struct {
	PurposeCode string               `json:"purpose_code"`
	Status      models.MessageStatus `json:"status"`
	Count       int                  `json:"count"`
	TotalCost   int                  `json:"total_cost"`
}

// ChannelStats is a per-channel aggregate over a time range
type ChannelStats struct {
	Channel   models.Channel `json:"channel"`
	Count     int            `json:"count"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	TotalCost int            `json:"total_cost"`
}

// MessageLogRepository defines message log data access operations.
// A log row is inserted in PENDING and updated in place exactly once to
// a terminal status.
type MessageLogRepository interface {
	Create(ctx context.Context, logRow *models.MessageLog) error
	GetByID(ctx context.Context, id int64) (*models.MessageLog, error)
	GetByProviderMessageID(ctx context.Context, providerMessageID string) (*models.MessageLog, error)
	// RewritePending replaces the channel-dependent fields of a PENDING
	// row before a fallback transmission.
	RewritePending(ctx context.Context, logRow *models.MessageLog) error
	// Finalize persists the terminal fields of a log. It fails with
	// ErrNotPending when the row already reached a terminal status.
	Finalize(ctx context.Context, logRow *models.MessageLog) error
	Cancel(ctx context.Context, id int64) error
	List(ctx context.Context, filters LogFilters) ([]*models.MessageLog, int, error)
	GetByBatchID(ctx context.Context, batchID string) ([]*models.MessageLog, error)
	GetByReference(ctx context.Context, refType string, refID int64) ([]*models.MessageLog, error)
	FindDueScheduled(ctx context.Context, now time.Time, limit int) ([]*models.MessageLog, error)
	GetStatisticsByPurpose(ctx context.Context, from, to time.Time) ([]*PurposeStats, error)
	GetStatisticsByChannel(ctx context.Context, from, to time.Time) ([]*ChannelStats, error)
}
