package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"academymsg/internal/models"
	"academymsg/internal/repository"
)

// MockPurposeRepository mocks repository.PurposeRepository
type MockPurposeRepository struct {
	CreateFunc       func(ctx context.Context, purpose *models.Purpose) error
	GetByCodeFunc    func(ctx context.Context, code string) (*models.Purpose, error)
	ListFunc         func(ctx context.Context, onlyActive bool) ([]*models.Purpose, error)
	UpdateFunc       func(ctx context.Context, purpose *models.Purpose) error
	ToggleActiveFunc func(ctx context.Context, code string) (bool, error)

	mu    sync.Mutex // GetByCode runs from fan-out workers
	Calls map[string]int
}

func NewMockPurposeRepository() *MockPurposeRepository {
	return &MockPurposeRepository{
		Calls: make(map[string]int),
	}
}

func (m *MockPurposeRepository) Create(ctx context.Context, purpose *models.Purpose) error {
	m.Calls["Create"]++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, purpose)
	}
	purpose.CreatedAt = time.Now()
	purpose.UpdatedAt = purpose.CreatedAt
	return nil
}

func (m *MockPurposeRepository) GetByCode(ctx context.Context, code string) (*models.Purpose, error) {
	m.mu.Lock()
	m.Calls["GetByCode"]++
	m.mu.Unlock()
	if m.GetByCodeFunc != nil {
		return m.GetByCodeFunc(ctx, code)
	}
	return nil, sql.ErrNoRows
}

func (m *MockPurposeRepository) List(ctx context.Context, onlyActive bool) ([]*models.Purpose, error) {
	m.Calls["List"]++
	if m.ListFunc != nil {
		return m.ListFunc(ctx, onlyActive)
	}
	return nil, nil
}

func (m *MockPurposeRepository) Update(ctx context.Context, purpose *models.Purpose) error {
	m.Calls["Update"]++
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, purpose)
	}
	return nil
}

func (m *MockPurposeRepository) ToggleActive(ctx context.Context, code string) (bool, error) {
	m.Calls["ToggleActive"]++
	if m.ToggleActiveFunc != nil {
		return m.ToggleActiveFunc(ctx, code)
	}
	return false, nil
}

// MockMessageLogRepository mocks repository.MessageLogRepository.
// By default it stores rows in memory and assigns sequential IDs, so
// core dispatch flows work without per-test wiring.
type MockMessageLogRepository struct {
	CreateFunc           func(ctx context.Context, logRow *models.MessageLog) error
	GetByIDFunc          func(ctx context.Context, id int64) (*models.MessageLog, error)
	RewritePendingFunc   func(ctx context.Context, logRow *models.MessageLog) error
	FinalizeFunc         func(ctx context.Context, logRow *models.MessageLog) error
	CancelFunc           func(ctx context.Context, id int64) error
	FindDueScheduledFunc func(ctx context.Context, now time.Time, limit int) ([]*models.MessageLog, error)

	mu    sync.Mutex // Create and Finalize run from fan-out workers
	Calls map[string]int
	Rows  []*models.MessageLog
}

func NewMockMessageLogRepository() *MockMessageLogRepository {
	return &MockMessageLogRepository{
		Calls: make(map[string]int),
	}
}

func (m *MockMessageLogRepository) Create(ctx context.Context, logRow *models.MessageLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["Create"]++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, logRow)
	}
	logRow.ID = int64(len(m.Rows) + 1)
	logRow.CreatedAt = time.Now()
	m.Rows = append(m.Rows, logRow)
	return nil
}

func (m *MockMessageLogRepository) GetByID(ctx context.Context, id int64) (*models.MessageLog, error) {
	m.Calls["GetByID"]++
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	for _, row := range m.Rows {
		if row.ID == id {
			return row, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *MockMessageLogRepository) GetByProviderMessageID(ctx context.Context, providerMessageID string) (*models.MessageLog, error) {
	m.Calls["GetByProviderMessageID"]++
	return nil, sql.ErrNoRows
}

func (m *MockMessageLogRepository) RewritePending(ctx context.Context, logRow *models.MessageLog) error {
	m.Calls["RewritePending"]++
	if m.RewritePendingFunc != nil {
		return m.RewritePendingFunc(ctx, logRow)
	}
	if logRow.Status != models.MessageStatusPending {
		return repository.ErrNotPending
	}
	return nil
}

func (m *MockMessageLogRepository) Finalize(ctx context.Context, logRow *models.MessageLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls["Finalize"]++
	if m.FinalizeFunc != nil {
		return m.FinalizeFunc(ctx, logRow)
	}
	return nil
}

func (m *MockMessageLogRepository) Cancel(ctx context.Context, id int64) error {
	m.Calls["Cancel"]++
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx, id)
	}
	return nil
}

func (m *MockMessageLogRepository) List(ctx context.Context, filters repository.LogFilters) ([]*models.MessageLog, int, error) {
	m.Calls["List"]++
	return m.Rows, len(m.Rows), nil
}

func (m *MockMessageLogRepository) GetByBatchID(ctx context.Context, batchID string) ([]*models.MessageLog, error) {
	m.Calls["GetByBatchID"]++
	var matched []*models.MessageLog
	for _, row := range m.Rows {
		if row.BatchID != nil && *row.BatchID == batchID {
			matched = append(matched, row)
		}
	}
	return matched, nil
}

func (m *MockMessageLogRepository) GetByReference(ctx context.Context, refType string, refID int64) ([]*models.MessageLog, error) {
	m.Calls["GetByReference"]++
	return nil, nil
}

func (m *MockMessageLogRepository) FindDueScheduled(ctx context.Context, now time.Time, limit int) ([]*models.MessageLog, error) {
	m.Calls["FindDueScheduled"]++
	if m.FindDueScheduledFunc != nil {
		return m.FindDueScheduledFunc(ctx, now, limit)
	}
	return nil, nil
}

func (m *MockMessageLogRepository) GetStatisticsByPurpose(ctx context.Context, from, to time.Time) ([]*repository.PurposeStats, error) {
	m.Calls["GetStatisticsByPurpose"]++
	return nil, nil
}

func (m *MockMessageLogRepository) GetStatisticsByChannel(ctx context.Context, from, to time.Time) ([]*repository.ChannelStats, error) {
	m.Calls["GetStatisticsByChannel"]++
	return nil, nil
}

// MockGateway mocks ProviderGateway
type MockGateway struct {
	TransmitFunc func(ctx context.Context, payload *TransmitPayload) (*TransmitResult, error)

	mu       sync.Mutex
	Calls    map[string]int
	Payloads []*TransmitPayload
}

func NewMockGateway() *MockGateway {
	return &MockGateway{
		Calls: make(map[string]int),
	}
}

func (m *MockGateway) Name() string {
	return "mockprovider"
}

func (m *MockGateway) Transmit(ctx context.Context, payload *TransmitPayload) (*TransmitResult, error) {
	m.mu.Lock()
	m.Calls["Transmit"]++
	m.Payloads = append(m.Payloads, payload)
	m.mu.Unlock()
	if m.TransmitFunc != nil {
		return m.TransmitFunc(ctx, payload)
	}
	return &TransmitResult{ProviderMessageID: "MSG-0001"}, nil
}

// MockPublisher mocks JobPublisher
type MockPublisher struct {
	PublishFunc func(logID int64) error

	Calls  map[string]int // Track method calls
	LogIDs []int64
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		Calls: make(map[string]int),
	}
}

func (m *MockPublisher) PublishDispatchJob(logID int64) error {
	m.Calls["PublishDispatchJob"]++
	m.LogIDs = append(m.LogIDs, logID)
	if m.PublishFunc != nil {
		return m.PublishFunc(logID)
	}
	return nil
}
