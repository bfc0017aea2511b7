package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"academymsg/internal/models"
	"academymsg/internal/repository"
)

// PaginationInfo describes the page window of a list response
type PaginationInfo struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// MessageLogService is the read surface over the delivery audit log
type MessageLogService struct {
	logRepo repository.MessageLogRepository
}

// NewMessageLogService creates a new message log service
func NewMessageLogService(logRepo repository.MessageLogRepository) *MessageLogService {
	return &MessageLogService{logRepo: logRepo}
}

// GetLog retrieves a message log by ID
func (s *MessageLogService) GetLog(ctx context.Context, id int64) (*models.MessageLog, error) {
	logRow, err := s.logRepo.GetByID(ctx, id)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Resource: "message log", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return logRow, nil
}

// ListLogs lists message logs with filters and pagination
func (s *MessageLogService) ListLogs(ctx context.Context, filters repository.LogFilters) ([]*models.MessageLog, *PaginationInfo, error) {
	logs, total, err := s.logRepo.List(ctx, filters)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list message logs: %w", err)
	}

	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	pagination := &PaginationInfo{
		Page:       filters.Page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: (total + pageSize - 1) / pageSize,
	}

	return logs, pagination, nil
}

// GetLogByProviderMessageID retrieves a message log by the delivery
// provider's message ID, for correlating provider-side reports
func (s *MessageLogService) GetLogByProviderMessageID(ctx context.Context, providerMessageID string) (*models.MessageLog, error) {
	logRow, err := s.logRepo.GetByProviderMessageID(ctx, providerMessageID)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Resource: "message log", Key: providerMessageID}
	}
	if err != nil {
		return nil, err
	}
	return logRow, nil
}

// GetBatchLogs retrieves all members of a batch in sequence order
func (s *MessageLogService) GetBatchLogs(ctx context.Context, batchID string) ([]*models.MessageLog, error) {
	logs, err := s.logRepo.GetByBatchID(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get batch logs: %w", err)
	}
	return logs, nil
}

// GetReferenceLogs retrieves logs correlated to a business entity
func (s *MessageLogService) GetReferenceLogs(ctx context.Context, refType string, refID int64) ([]*models.MessageLog, error) {
	logs, err := s.logRepo.GetByReference(ctx, refType, refID)
	if err != nil {
		return nil, fmt.Errorf("failed to get logs by reference: %w", err)
	}
	return logs, nil
}

// GetStatisticsByPurpose aggregates counts and cost per purpose and status
func (s *MessageLogService) GetStatisticsByPurpose(ctx context.Context, from, to time.Time) ([]*repository.PurposeStats, error) {
	stats, err := s.logRepo.GetStatisticsByPurpose(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get purpose statistics: %w", err)
	}
	return stats, nil
}

// GetStatisticsByChannel aggregates totals per channel
func (s *MessageLogService) GetStatisticsByChannel(ctx context.Context, from, to time.Time) ([]*repository.ChannelStats, error) {
	stats, err := s.logRepo.GetStatisticsByChannel(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get channel statistics: %w", err)
	}
	return stats, nil
}
