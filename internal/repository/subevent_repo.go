package repository

import (
	"context"
	"database/sql"
	"fmt"

	"pr-insights-service/internal/domain"
)

// SubEventRepository реализует хранилище суб-событий в PostgreSQL.
// Каждый вид пишется апсертом по своему уникальному внешнему ключу:
// повторный бэкфилл сходится к тому же состоянию, дубликатов не возникает.
type SubEventRepository struct {
	db *sql.DB
}

// NewSubEventRepository создает новый экземпляр SubEventRepository.
func NewSubEventRepository(db *sql.DB) domain.SubEventRepository {
	return &SubEventRepository{db: db}
}

// UpsertCommit создает или перезаписывает коммит по (tenant_id, sha).
func (r *SubEventRepository) UpsertCommit(ctx context.Context, c *domain.Commit) error {
	const q = `
		INSERT INTO commits (tenant_id, pull_request_id, sha, message, author_id,
			committed_at, additions, deletions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (tenant_id, sha) DO UPDATE SET
			message      = EXCLUDED.message,
			author_id    = EXCLUDED.author_id,
			committed_at = EXCLUDED.committed_at,
			additions    = EXCLUDED.additions,
			deletions    = EXCLUDED.deletions`

	_, err := r.db.ExecContext(ctx, q, c.TenantID, c.PullRequestID, c.SHA, c.Message,
		c.AuthorID, c.CommittedAt, c.Additions, c.Deletions)
	if err != nil {
		return fmt.Errorf("failed to upsert commit: %w", err)
	}
	return nil
}

// UpsertReview создает или перезаписывает решение ревьювера по (tenant_id, external_id).
func (r *SubEventRepository) UpsertReview(ctx context.Context, rv *domain.Review) error {
	const q = `
		INSERT INTO reviews (tenant_id, pull_request_id, external_id, reviewer_id,
			state, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tenant_id, external_id) DO UPDATE SET
			reviewer_id  = EXCLUDED.reviewer_id,
			state        = EXCLUDED.state,
			submitted_at = EXCLUDED.submitted_at`

	_, err := r.db.ExecContext(ctx, q, rv.TenantID, rv.PullRequestID, rv.ExternalID,
		rv.ReviewerID, rv.State, rv.SubmittedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert review: %w", err)
	}
	return nil
}

// UpsertComment создает или перезаписывает комментарий по (tenant_id, kind, external_id).
func (r *SubEventRepository) UpsertComment(ctx context.Context, c *domain.ReviewComment) error {
	const q = `
		INSERT INTO review_comments (tenant_id, pull_request_id, external_id, kind,
			author_id, body, file_path, line, in_reply_to, posted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (tenant_id, kind, external_id) DO UPDATE SET
			author_id   = EXCLUDED.author_id,
			body        = EXCLUDED.body,
			file_path   = EXCLUDED.file_path,
			line        = EXCLUDED.line,
			in_reply_to = EXCLUDED.in_reply_to,
			posted_at   = EXCLUDED.posted_at`

	_, err := r.db.ExecContext(ctx, q, c.TenantID, c.PullRequestID, c.ExternalID, c.Kind,
		c.AuthorID, c.Body, c.FilePath, c.Line, c.InReplyTo, c.PostedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert comment: %w", err)
	}
	return nil
}

// UpsertCheckRun создает или перезаписывает запуск CI-проверки по (tenant_id, external_id).
func (r *SubEventRepository) UpsertCheckRun(ctx context.Context, c *domain.CheckRun) error {
	const q = `
		INSERT INTO check_runs (tenant_id, pull_request_id, external_id, name,
			status, conclusion, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (tenant_id, external_id) DO UPDATE SET
			name         = EXCLUDED.name,
			status       = EXCLUDED.status,
			conclusion   = EXCLUDED.conclusion,
			started_at   = EXCLUDED.started_at,
			completed_at = EXCLUDED.completed_at`

	_, err := r.db.ExecContext(ctx, q, c.TenantID, c.PullRequestID, c.ExternalID, c.Name,
		c.Status, c.Conclusion, c.StartedAt, c.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert check run: %w", err)
	}
	return nil
}

// UpsertChangedFile создает или перезаписывает измененный файл
// по (tenant_id, pull_request_id, file_path).
func (r *SubEventRepository) UpsertChangedFile(ctx context.Context, f *domain.ChangedFile) error {
	const q = `
		INSERT INTO changed_files (tenant_id, pull_request_id, file_path, status,
			additions, deletions)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tenant_id, pull_request_id, file_path) DO UPDATE SET
			status    = EXCLUDED.status,
			additions = EXCLUDED.additions,
			deletions = EXCLUDED.deletions`

	_, err := r.db.ExecContext(ctx, q, f.TenantID, f.PullRequestID, f.FilePath, f.Status,
		f.Additions, f.Deletions)
	if err != nil {
		return fmt.Errorf("failed to upsert changed file: %w", err)
	}
	return nil
}

// ListCommitsByPR возвращает коммиты PR в хронологическом порядке.
func (r *SubEventRepository) ListCommitsByPR(ctx context.Context, prID int64) ([]*domain.Commit, error) {
	const q = `SELECT id, tenant_id, pull_request_id, sha, message, author_id,
		committed_at, additions, deletions
		FROM commits WHERE pull_request_id = $1 ORDER BY committed_at, id`

	rows, err := r.db.QueryContext(ctx, q, prID)
	if err != nil {
		return nil, fmt.Errorf("failed to list commits: %w", err)
	}
	defer rows.Close()

	var out []*domain.Commit
	for rows.Next() {
		c := &domain.Commit{}
		var authorID sql.NullInt64
		if err := rows.Scan(&c.ID, &c.TenantID, &c.PullRequestID, &c.SHA, &c.Message,
			&authorID, &c.CommittedAt, &c.Additions, &c.Deletions); err != nil {
			return nil, fmt.Errorf("failed to scan commit: %w", err)
		}
		if authorID.Valid {
			c.AuthorID = &authorID.Int64
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListReviewsByPR возвращает решения ревьюверов PR в хронологическом порядке.
func (r *SubEventRepository) ListReviewsByPR(ctx context.Context, prID int64) ([]*domain.Review, error) {
	const q = `SELECT id, tenant_id, pull_request_id, external_id, reviewer_id, state, submitted_at
		FROM reviews WHERE pull_request_id = $1 ORDER BY submitted_at, id`

	rows, err := r.db.QueryContext(ctx, q, prID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	return scanReviews(rows)
}

// ListReviewsByTenant возвращает все решения ревьюверов тенанта
// для пересчета корреляций.
func (r *SubEventRepository) ListReviewsByTenant(ctx context.Context, tenantID int64) ([]*domain.Review, error) {
	const q = `SELECT id, tenant_id, pull_request_id, external_id, reviewer_id, state, submitted_at
		FROM reviews WHERE tenant_id = $1 ORDER BY pull_request_id, submitted_at, id`

	rows, err := r.db.QueryContext(ctx, q, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenant reviews: %w", err)
	}
	defer rows.Close()

	return scanReviews(rows)
}

// ListCommentsByPR возвращает комментарии обоих видов в хронологическом порядке.
func (r *SubEventRepository) ListCommentsByPR(ctx context.Context, prID int64) ([]*domain.ReviewComment, error) {
	const q = `SELECT id, tenant_id, pull_request_id, external_id, kind, author_id,
		body, file_path, line, in_reply_to, posted_at
		FROM review_comments WHERE pull_request_id = $1 ORDER BY posted_at, id`

	rows, err := r.db.QueryContext(ctx, q, prID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var out []*domain.ReviewComment
	for rows.Next() {
		c := &domain.ReviewComment{}
		var (
			authorID  sql.NullInt64
			filePath  sql.NullString
			line      sql.NullInt64
			inReplyTo sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &c.TenantID, &c.PullRequestID, &c.ExternalID, &c.Kind,
			&authorID, &c.Body, &filePath, &line, &inReplyTo, &c.PostedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		if authorID.Valid {
			c.AuthorID = &authorID.Int64
		}
		if filePath.Valid {
			c.FilePath = &filePath.String
		}
		if line.Valid {
			n := int(line.Int64)
			c.Line = &n
		}
		if inReplyTo.Valid {
			c.InReplyTo = &inReplyTo.Int64
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListCheckRunsByPR возвращает запуски CI-проверок PR.
func (r *SubEventRepository) ListCheckRunsByPR(ctx context.Context, prID int64) ([]*domain.CheckRun, error) {
	const q = `SELECT id, tenant_id, pull_request_id, external_id, name, status,
		conclusion, started_at, completed_at
		FROM check_runs WHERE pull_request_id = $1 ORDER BY started_at, id`

	rows, err := r.db.QueryContext(ctx, q, prID)
	if err != nil {
		return nil, fmt.Errorf("failed to list check runs: %w", err)
	}
	defer rows.Close()

	var out []*domain.CheckRun
	for rows.Next() {
		c := &domain.CheckRun{}
		var started, completed sql.NullTime
		if err := rows.Scan(&c.ID, &c.TenantID, &c.PullRequestID, &c.ExternalID, &c.Name,
			&c.Status, &c.Conclusion, &started, &completed); err != nil {
			return nil, fmt.Errorf("failed to scan check run: %w", err)
		}
		if started.Valid {
			c.StartedAt = &started.Time
		}
		if completed.Valid {
			c.CompletedAt = &completed.Time
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanReviews(rows *sql.Rows) ([]*domain.Review, error) {
	var out []*domain.Review
	for rows.Next() {
		rv := &domain.Review{}
		var reviewerID sql.NullInt64
		if err := rows.Scan(&rv.ID, &rv.TenantID, &rv.PullRequestID, &rv.ExternalID,
			&reviewerID, &rv.State, &rv.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		if reviewerID.Valid {
			rv.ReviewerID = &reviewerID.Int64
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}
