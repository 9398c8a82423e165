package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pr-insights-service/internal/domain"
)

// SyncTaskRepository реализует долговечную очередь бэкфилла поверх PostgreSQL.
type SyncTaskRepository struct {
	db *sql.DB
}

// NewSyncTaskRepository создает новый экземпляр SyncTaskRepository.
func NewSyncTaskRepository(db *sql.DB) domain.SyncTaskRepository {
	return &SyncTaskRepository{db: db}
}

// Enqueue ставит задачу бэкфилла в очередь. Частичный уникальный индекс
// по (pull_request_id) WHERE status='pending' гарантирует не более одной
// ожидающей задачи на PR.
func (r *SyncTaskRepository) Enqueue(ctx context.Context, tenantID, pullRequestID int64) error {
	const q = `
		INSERT INTO sync_tasks (tenant_id, pull_request_id, status)
		VALUES ($1, $2, 'pending')
		ON CONFLICT (pull_request_id) WHERE status = 'pending' DO NOTHING`

	_, err := r.db.ExecContext(ctx, q, tenantID, pullRequestID)
	if err != nil {
		return fmt.Errorf("failed to enqueue sync task: %w", err)
	}
	return nil
}

// ClaimNext захватывает следующую ожидающую задачу. FOR UPDATE SKIP LOCKED
// исключает выдачу одной задачи двум воркерам; пустая очередь — (nil, nil).
func (r *SyncTaskRepository) ClaimNext(ctx context.Context, claimedBy string) (*domain.SyncTask, error) {
	const q = `
		UPDATE sync_tasks SET
			status     = 'running',
			claimed_by = $1,
			updated_at = now()
		WHERE id = (
			SELECT id FROM sync_tasks
			WHERE status = 'pending'
			ORDER BY id
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING id, tenant_id, pull_request_id, status, attempts, last_error,
			claimed_by, created_at, updated_at`

	row := r.db.QueryRowContext(ctx, q, claimedBy)

	t := &domain.SyncTask{}
	var lastErr, claimed sql.NullString
	err := row.Scan(&t.ID, &t.TenantID, &t.PullRequestID, &t.Status, &t.Attempts,
		&lastErr, &claimed, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to claim sync task: %w", err)
	}

	if lastErr.Valid {
		t.LastError = &lastErr.String
	}
	if claimed.Valid {
		t.ClaimedBy = &claimed.String
	}
	return t, nil
}

// MarkComplete переводит задачу в терминальный статус complete.
func (r *SyncTaskRepository) MarkComplete(ctx context.Context, id int64, attempts int) error {
	const q = `UPDATE sync_tasks SET status = 'complete', attempts = $2,
		last_error = NULL, updated_at = now() WHERE id = $1`

	_, err := r.db.ExecContext(ctx, q, id, attempts)
	if err != nil {
		return fmt.Errorf("failed to mark task complete: %w", err)
	}
	return nil
}

// MarkError переводит задачу в терминальный статус error с текстом причины.
func (r *SyncTaskRepository) MarkError(ctx context.Context, id int64, attempts int, message string) error {
	const q = `UPDATE sync_tasks SET status = 'error', attempts = $2,
		last_error = $3, updated_at = now() WHERE id = $1`

	_, err := r.db.ExecContext(ctx, q, id, attempts, message)
	if err != nil {
		return fmt.Errorf("failed to mark task error: %w", err)
	}
	return nil
}
