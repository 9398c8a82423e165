package repository

import (
	"context"
	"database/sql"
	"fmt"

	"pr-insights-service/internal/domain"
)

// CorrelationRepository реализует кэш корреляций ревьюверов в PostgreSQL.
// Семантика recompute-and-replace: строки тенанта заменяются целиком в одной
// транзакции, поэтому параллельные пересчеты безопасны (last-writer-wins).
type CorrelationRepository struct {
	db *sql.DB
}

// NewCorrelationRepository создает новый экземпляр CorrelationRepository.
func NewCorrelationRepository(db *sql.DB) domain.CorrelationRepository {
	return &CorrelationRepository{db: db}
}

// ReplaceForTenant атомарно заменяет все строки тенанта новым набором.
func (r *CorrelationRepository) ReplaceForTenant(ctx context.Context, tenantID int64, rows []*domain.ReviewerCorrelation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `DELETE FROM reviewer_correlations WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return fmt.Errorf("failed to clear correlations: %w", err)
	}

	const q = `
		INSERT INTO reviewer_correlations (tenant_id, member_a_id, member_b_id,
			prs_reviewed_together, agreements, disagreements, agreement_rate,
			is_redundant, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	for _, c := range rows {
		_, err = tx.ExecContext(ctx, q, tenantID, c.MemberAID, c.MemberBID,
			c.PRsReviewedTogether, c.Agreements, c.Disagreements, c.AgreementRate,
			c.IsRedundant, c.ComputedAt)
		if err != nil {
			return fmt.Errorf("failed to insert correlation: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListByTenant возвращает кэшированные корреляции тенанта.
func (r *CorrelationRepository) ListByTenant(ctx context.Context, tenantID int64) ([]*domain.ReviewerCorrelation, error) {
	const q = `SELECT id, tenant_id, member_a_id, member_b_id, prs_reviewed_together,
		agreements, disagreements, agreement_rate, is_redundant, computed_at
		FROM reviewer_correlations WHERE tenant_id = $1
		ORDER BY member_a_id, member_b_id`

	rows, err := r.db.QueryContext(ctx, q, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list correlations: %w", err)
	}
	defer rows.Close()

	var out []*domain.ReviewerCorrelation
	for rows.Next() {
		c := &domain.ReviewerCorrelation{}
		var rate sql.NullFloat64
		if err := rows.Scan(&c.ID, &c.TenantID, &c.MemberAID, &c.MemberBID,
			&c.PRsReviewedTogether, &c.Agreements, &c.Disagreements, &rate,
			&c.IsRedundant, &c.ComputedAt); err != nil {
			return nil, fmt.Errorf("failed to scan correlation: %w", err)
		}
		if rate.Valid {
			c.AgreementRate = &rate.Float64
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
