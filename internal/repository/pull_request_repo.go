package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pr-insights-service/internal/domain"
)

// PullRequestRepository реализует хранилище рабочих элементов в PostgreSQL.
// Единственная точка записи: все изменения идут через идемпотентный апсерт
// по (tenant_id, external_id).
type PullRequestRepository struct {
	db *sql.DB
}

// NewPullRequestRepository создает новый экземпляр PullRequestRepository.
func NewPullRequestRepository(db *sql.DB) domain.PullRequestRepository {
	return &PullRequestRepository{db: db}
}

const prColumns = `id, tenant_id, external_id, title, author_id, state, head_ref,
	additions, deletions, opened_at, merged_at,
	review_rounds, avg_fix_response_hours, commits_after_first_review, total_comments,
	metrics_calculated_at, sync_error`

// Upsert создает PR при первом появлении либо обновляет его атрибуты.
// Производные поля апсертом не затрагиваются: их пишет только пересчет метрик.
func (r *PullRequestRepository) Upsert(ctx context.Context, pr *domain.PullRequest) (*domain.PullRequest, error) {
	const q = `
		INSERT INTO pull_requests (tenant_id, external_id, title, author_id, state,
			head_ref, additions, deletions, opened_at, merged_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (tenant_id, external_id) DO UPDATE SET
			title     = EXCLUDED.title,
			author_id = COALESCE(EXCLUDED.author_id, pull_requests.author_id),
			state     = EXCLUDED.state,
			head_ref  = EXCLUDED.head_ref,
			additions = EXCLUDED.additions,
			deletions = EXCLUDED.deletions,
			opened_at = EXCLUDED.opened_at,
			merged_at = COALESCE(EXCLUDED.merged_at, pull_requests.merged_at)
		RETURNING ` + prColumns

	row := r.db.QueryRowContext(ctx, q,
		pr.TenantID, pr.ExternalID, pr.Title, pr.AuthorID, pr.State,
		pr.HeadRef, pr.Additions, pr.Deletions, pr.OpenedAt, pr.MergedAt)

	out, err := scanPullRequest(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert pull request: %w", err)
	}
	return out, nil
}

// GetByID возвращает PR по внутреннему идентификатору.
func (r *PullRequestRepository) GetByID(ctx context.Context, id int64) (*domain.PullRequest, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+prColumns+` FROM pull_requests WHERE id = $1`, id)

	out, err := scanPullRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPRNotFound
		}
		return nil, fmt.Errorf("failed to get pull request: %w", err)
	}
	return out, nil
}

// GetByExternalID возвращает PR по (tenant_id, external_id).
func (r *PullRequestRepository) GetByExternalID(ctx context.Context, tenantID, externalID int64) (*domain.PullRequest, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+prColumns+` FROM pull_requests WHERE tenant_id = $1 AND external_id = $2`,
		tenantID, externalID)

	out, err := scanPullRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPRNotFound
		}
		return nil, fmt.Errorf("failed to get pull request by external id: %w", err)
	}
	return out, nil
}

// UpdateDerivedMetrics перезаписывает все четыре производных поля за один
// идемпотентный UPDATE. Частичного обновления не существует: метрики всегда
// согласованы с последним таймлайном.
func (r *PullRequestRepository) UpdateDerivedMetrics(ctx context.Context, id int64, m domain.DerivedMetrics) error {
	const q = `
		UPDATE pull_requests SET
			review_rounds              = $2,
			avg_fix_response_hours     = $3,
			commits_after_first_review = $4,
			total_comments             = $5,
			metrics_calculated_at      = now(),
			sync_error                 = NULL
		WHERE id = $1`

	_, err := r.db.ExecContext(ctx, q, id,
		m.ReviewRounds, m.AvgFixResponseHours, m.CommitsAfterFirstReview, m.TotalComments)
	if err != nil {
		return fmt.Errorf("failed to update derived metrics: %w", err)
	}
	return nil
}

// SetSyncError фиксирует терминальную ошибку синхронизации на рабочем элементе.
func (r *PullRequestRepository) SetSyncError(ctx context.Context, id int64, message string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE pull_requests SET sync_error = $2 WHERE id = $1`, id, message)
	if err != nil {
		return fmt.Errorf("failed to set sync error: %w", err)
	}
	return nil
}

// ListTenantIDs возвращает все тенанты, у которых есть рабочие элементы.
func (r *PullRequestRepository) ListTenantIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT tenant_id FROM pull_requests ORDER BY tenant_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan tenant id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPullRequest(row rowScanner) (*domain.PullRequest, error) {
	pr := &domain.PullRequest{}
	var (
		authorID   sql.NullInt64
		mergedAt   sql.NullTime
		rounds     sql.NullInt64
		avgFix     sql.NullFloat64
		afterFirst sql.NullInt64
		total      sql.NullInt64
		metricsAt  sql.NullTime
		syncErr    sql.NullString
	)

	err := row.Scan(&pr.ID, &pr.TenantID, &pr.ExternalID, &pr.Title, &authorID, &pr.State,
		&pr.HeadRef, &pr.Additions, &pr.Deletions, &pr.OpenedAt, &mergedAt,
		&rounds, &avgFix, &afterFirst, &total, &metricsAt, &syncErr)
	if err != nil {
		return nil, err
	}

	if authorID.Valid {
		pr.AuthorID = &authorID.Int64
	}
	if mergedAt.Valid {
		pr.MergedAt = &mergedAt.Time
	}
	if rounds.Valid {
		n := int(rounds.Int64)
		pr.ReviewRounds = &n
	}
	if avgFix.Valid {
		pr.AvgFixResponseHours = &avgFix.Float64
	}
	if afterFirst.Valid {
		n := int(afterFirst.Int64)
		pr.CommitsAfterFirstReview = &n
	}
	if total.Valid {
		n := int(total.Int64)
		pr.TotalComments = &n
	}
	if metricsAt.Valid {
		pr.MetricsCalculatedAt = &metricsAt.Time
	}
	if syncErr.Valid {
		pr.SyncError = &syncErr.String
	}
	return pr, nil
}
