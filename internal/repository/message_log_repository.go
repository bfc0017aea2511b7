package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"academymsg/internal/models"
)

type messageLogRepository struct {
	db *sql.DB
}

// NewMessageLogRepository creates a new message log repository
func NewMessageLogRepository(db *sql.DB) MessageLogRepository {
	return &messageLogRepository{db: db}
}

const messageLogColumns = `id, channel, send_type, to_phone, to_name, to_type, from_phone,
		subject, message, template_code, purpose_code, ref_type, ref_id,
		batch_id, batch_seq, scheduled_at, request_json, created_at, created_by,
		status, provider, provider_message_id, cost, character_count, byte_count,
		size_exceeded, error_code, error_message, response_json, sent_at`

// Create inserts a new message log in PENDING state
func (r *messageLogRepository) Create(ctx context.Context, logRow *models.MessageLog) error {
	query := `
		INSERT INTO message_logs (channel, send_type, to_phone, to_name, to_type, from_phone,
			subject, message, template_code, purpose_code, ref_type, ref_id,
			batch_id, batch_seq, scheduled_at, request_json, created_by,
			status, provider, character_count, byte_count, size_exceeded)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		logRow.Channel,
		logRow.SendType,
		logRow.ToPhone,
		logRow.ToName,
		logRow.ToType,
		logRow.FromPhone,
		logRow.Subject,
		logRow.Message,
		logRow.TemplateCode,
		logRow.PurposeCode,
		logRow.RefType,
		logRow.RefID,
		logRow.BatchID,
		logRow.BatchSeq,
		logRow.ScheduledAt,
		logRow.RequestJSON,
		logRow.CreatedBy,
		logRow.Status,
		logRow.Provider,
		logRow.CharacterCount,
		logRow.ByteCount,
		logRow.SizeExceeded,
	).Scan(&logRow.ID, &logRow.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create message log: %w", err)
	}

	return nil
}

// scanMessageLog scans a full message log row
func scanMessageLog(scanner interface{ Scan(dest ...interface{}) error }) (*models.MessageLog, error) {
	logRow := &models.MessageLog{}
	err := scanner.Scan(
		&logRow.ID,
		&logRow.Channel,
		&logRow.SendType,
		&logRow.ToPhone,
		&logRow.ToName,
		&logRow.ToType,
		&logRow.FromPhone,
		&logRow.Subject,
		&logRow.Message,
		&logRow.TemplateCode,
		&logRow.PurposeCode,
		&logRow.RefType,
		&logRow.RefID,
		&logRow.BatchID,
		&logRow.BatchSeq,
		&logRow.ScheduledAt,
		&logRow.RequestJSON,
		&logRow.CreatedAt,
		&logRow.CreatedBy,
		&logRow.Status,
		&logRow.Provider,
		&logRow.ProviderMessageID,
		&logRow.Cost,
		&logRow.CharacterCount,
		&logRow.ByteCount,
		&logRow.SizeExceeded,
		&logRow.ErrorCode,
		&logRow.ErrorMessage,
		&logRow.ResponseJSON,
		&logRow.SentAt,
	)
	if err != nil {
		return nil, err
	}
	return logRow, nil
}

// GetByID retrieves a message log by ID
func (r *messageLogRepository) GetByID(ctx context.Context, id int64) (*models.MessageLog, error) {
	query := `SELECT ` + messageLogColumns + ` FROM message_logs WHERE id = $1`

	logRow, err := scanMessageLog(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message log: %w", err)
	}

	return logRow, nil
}

// GetByProviderMessageID retrieves a message log by the provider's message ID
func (r *messageLogRepository) GetByProviderMessageID(ctx context.Context, providerMessageID string) (*models.MessageLog, error) {
	query := `SELECT ` + messageLogColumns + ` FROM message_logs WHERE provider_message_id = $1`

	logRow, err := scanMessageLog(r.db.QueryRowContext(ctx, query, providerMessageID))
	if err == sql.ErrNoRows {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message log by provider message id: %w", err)
	}

	return logRow, nil
}

// RewritePending replaces the channel-dependent fields of a PENDING row.
// Used once per log at most, when a chat-template attempt falls back to
// a text channel.
func (r *messageLogRepository) RewritePending(ctx context.Context, logRow *models.MessageLog) error {
	query := `
		UPDATE message_logs
		SET channel = $2,
			subject = $3,
			message = $4,
			template_code = $5,
			request_json = $6,
			character_count = $7,
			byte_count = $8,
			size_exceeded = $9
		WHERE id = $1 AND status = 'PENDING'
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		logRow.ID,
		logRow.Channel,
		logRow.Subject,
		logRow.Message,
		logRow.TemplateCode,
		logRow.RequestJSON,
		logRow.CharacterCount,
		logRow.ByteCount,
		logRow.SizeExceeded,
	)
	if err != nil {
		return fmt.Errorf("failed to rewrite message log: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rewrite result: %w", err)
	}
	if affected == 0 {
		return ErrNotPending
	}

	return nil
}

// Finalize persists the terminal fields of a message log.
// The PENDING guard makes the terminal transition idempotent: a second
// finalize attempt on the same row affects zero rows.
func (r *messageLogRepository) Finalize(ctx context.Context, logRow *models.MessageLog) error {
	query := `
		UPDATE message_logs
		SET status = $2,
			provider_message_id = $3,
			cost = $4,
			error_code = $5,
			error_message = $6,
			response_json = $7,
			sent_at = $8
		WHERE id = $1 AND status = 'PENDING'
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		logRow.ID,
		logRow.Status,
		logRow.ProviderMessageID,
		logRow.Cost,
		logRow.ErrorCode,
		logRow.ErrorMessage,
		logRow.ResponseJSON,
		logRow.SentAt,
	)
	if err != nil {
		return fmt.Errorf("failed to finalize message log: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check finalize result: %w", err)
	}
	if affected == 0 {
		return ErrNotPending
	}

	return nil
}

// Cancel marks a still-pending scheduled log as CANCELED
func (r *messageLogRepository) Cancel(ctx context.Context, id int64) error {
	query := `
		UPDATE message_logs
		SET status = 'CANCELED'
		WHERE id = $1 AND status = 'PENDING' AND send_type = 'SCHEDULED'
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to cancel message log: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check cancel result: %w", err)
	}
	if affected == 0 {
		return ErrNotPending
	}

	return nil
}

// List lists message logs with filters
func (r *messageLogRepository) List(ctx context.Context, filters LogFilters) ([]*models.MessageLog, int, error) {
	where, args := buildLogFilterClause(filters)

	queryBuilder := strings.Builder{}
	queryBuilder.WriteString(`SELECT ` + messageLogColumns + ` FROM message_logs`)
	queryBuilder.WriteString(where)
	queryBuilder.WriteString(" ORDER BY created_at DESC, id DESC")

	// Add pagination
	limit := filters.PageSize
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	offset := (filters.Page - 1) * limit
	if offset < 0 {
		offset = 0
	}

	argPos := len(args) + 1
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argPos, argPos+1))
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list message logs: %w", err)
	}
	defer rows.Close()

	logs := []*models.MessageLog{}
	for rows.Next() {
		logRow, err := scanMessageLog(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan message log: %w", err)
		}
		logs = append(logs, logRow)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate message logs: %w", err)
	}

	// Get total count with the same filters
	countWhere, countArgs := buildLogFilterClause(filters)
	countQuery := "SELECT COUNT(*) FROM message_logs" + countWhere

	var totalCount int
	err = r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&totalCount)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get total count: %w", err)
	}

	return logs, totalCount, nil
}

// buildLogFilterClause builds the WHERE clause shared by List and its count query
func buildLogFilterClause(filters LogFilters) (string, []interface{}) {
	clause := strings.Builder{}
	clause.WriteString(" WHERE 1=1")

	args := []interface{}{}
	argPos := 1

	if filters.ToPhone != nil {
		clause.WriteString(fmt.Sprintf(" AND to_phone = $%d", argPos))
		args = append(args, *filters.ToPhone)
		argPos++
	}

	if filters.PurposeCode != nil {
		clause.WriteString(fmt.Sprintf(" AND purpose_code = $%d", argPos))
		args = append(args, *filters.PurposeCode)
		argPos++
	}

	if filters.Channel != nil {
		clause.WriteString(fmt.Sprintf(" AND channel = $%d", argPos))
		args = append(args, *filters.Channel)
		argPos++
	}

	if filters.Status != nil {
		clause.WriteString(fmt.Sprintf(" AND status = $%d", argPos))
		args = append(args, *filters.Status)
		argPos++
	}

	if filters.From != nil {
		clause.WriteString(fmt.Sprintf(" AND created_at >= $%d", argPos))
		args = append(args, *filters.From)
		argPos++
	}

	if filters.To != nil {
		clause.WriteString(fmt.Sprintf(" AND created_at <= $%d", argPos))
		args = append(args, *filters.To)
		argPos++
	}

	return clause.String(), args
}

// GetByBatchID retrieves all logs of a batch ordered by sequence
func (r *messageLogRepository) GetByBatchID(ctx context.Context, batchID string) ([]*models.MessageLog, error) {
	query := `SELECT ` + messageLogColumns + ` FROM message_logs WHERE batch_id = $1 ORDER BY batch_seq ASC`

	rows, err := r.db.QueryContext(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get batch logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.MessageLog
	for rows.Next() {
		logRow, err := scanMessageLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message log: %w", err)
		}
		logs = append(logs, logRow)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate batch logs: %w", err)
	}

	return logs, nil
}

// GetByReference retrieves logs correlated to a business entity
func (r *messageLogRepository) GetByReference(ctx context.Context, refType string, refID int64) ([]*models.MessageLog, error) {
	query := `SELECT ` + messageLogColumns + ` FROM message_logs
		WHERE ref_type = $1 AND ref_id = $2 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, refType, refID)
	if err != nil {
		return nil, fmt.Errorf("failed to get logs by reference: %w", err)
	}
	defer rows.Close()

	var logs []*models.MessageLog
	for rows.Next() {
		logRow, err := scanMessageLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message log: %w", err)
		}
		logs = append(logs, logRow)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate logs by reference: %w", err)
	}

	return logs, nil
}

// FindDueScheduled retrieves scheduled logs whose time has elapsed and
// that are still pending transmission
func (r *messageLogRepository) FindDueScheduled(ctx context.Context, now time.Time, limit int) ([]*models.MessageLog, error) {
	query := `SELECT ` + messageLogColumns + ` FROM message_logs
		WHERE send_type = 'SCHEDULED' AND status = 'PENDING' AND scheduled_at <= $1
		ORDER BY scheduled_at ASC, id ASC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find due scheduled logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.MessageLog
	for rows.Next() {
		logRow, err := scanMessageLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message log: %w", err)
		}
		logs = append(logs, logRow)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate due scheduled logs: %w", err)
	}

	return logs, nil
}

// GetStatisticsByPurpose aggregates counts and cost per purpose and status
func (r *messageLogRepository) GetStatisticsByPurpose(ctx context.Context, from, to time.Time) ([]*PurposeStats, error) {
	query := `
		SELECT purpose_code, status, COUNT(*), COALESCE(SUM(cost), 0)
		FROM message_logs
		WHERE created_at BETWEEN $1 AND $2
		GROUP BY purpose_code, status
		ORDER BY purpose_code, status
	`

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get purpose statistics: %w", err)
	}
	defer rows.Close()

	var stats []*PurposeStats
	for rows.Next() {
		s := &PurposeStats{}
		if err := rows.Scan(&s.PurposeCode, &s.Status, &s.Count, &s.TotalCost); err != nil {
			return nil, fmt.Errorf("failed to scan purpose statistics: %w", err)
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate purpose statistics: %w", err)
	}

	return stats, nil
}

// GetStatisticsByChannel aggregates totals per channel
func (r *messageLogRepository) GetStatisticsByChannel(ctx context.Context, from, to time.Time) ([]*ChannelStats, error) {
	query := `
		SELECT channel,
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'SUCCESS'),
			COUNT(*) FILTER (WHERE status = 'FAILED'),
			COALESCE(SUM(cost), 0)
		FROM message_logs
		WHERE created_at BETWEEN $1 AND $2
		GROUP BY channel
		ORDER BY channel
	`

	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get channel statistics: %w", err)
	}
	defer rows.Close()

	var stats []*ChannelStats
	for rows.Next() {
		s := &ChannelStats{}
		if err := rows.Scan(&s.Channel, &s.Count, &s.Succeeded, &s.Failed, &s.TotalCost); err != nil {
			return nil, fmt.Errorf("failed to scan channel statistics: %w", err)
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate channel statistics: %w", err)
	}

	return stats, nil
}
