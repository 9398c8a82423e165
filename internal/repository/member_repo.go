package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pr-insights-service/internal/domain"
)

// MemberRepository реализует работу со справочником участников в PostgreSQL.
type MemberRepository struct {
	db *sql.DB
}

// NewMemberRepository создает новый экземпляр MemberRepository.
func NewMemberRepository(db *sql.DB) domain.MemberRepository {
	return &MemberRepository{db: db}
}

// Upsert создает или обновляет запись справочника по (tenant_id, external_user_id).
func (r *MemberRepository) Upsert(ctx context.Context, m *domain.Member) (*domain.Member, error) {
	const q = `
		INSERT INTO members (tenant_id, external_user_id, username)
		VALUES ($1, $2, $3)
		ON CONFLICT (tenant_id, external_user_id) DO UPDATE SET
			username = EXCLUDED.username
		RETURNING id, tenant_id, external_user_id, username`

	out := &domain.Member{}
	err := r.db.QueryRowContext(ctx, q, m.TenantID, m.ExternalUserID, m.Username).
		Scan(&out.ID, &out.TenantID, &out.ExternalUserID, &out.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert member: %w", err)
	}
	return out, nil
}

// GetByID возвращает участника по внутреннему идентификатору.
func (r *MemberRepository) GetByID(ctx context.Context, id int64) (*domain.Member, error) {
	const q = `SELECT id, tenant_id, external_user_id, username FROM members WHERE id = $1`

	out := &domain.Member{}
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&out.ID, &out.TenantID, &out.ExternalUserID, &out.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return out, nil
}

// Resolve ищет участника по внешнему идентификатору пользователя.
// Промах не является ошибкой: возвращается (nil, nil).
func (r *MemberRepository) Resolve(ctx context.Context, tenantID int64, externalUserID string) (*domain.Member, error) {
	if externalUserID == "" {
		return nil, nil
	}

	const q = `SELECT id, tenant_id, external_user_id, username
		FROM members WHERE tenant_id = $1 AND external_user_id = $2`

	out := &domain.Member{}
	err := r.db.QueryRowContext(ctx, q, tenantID, externalUserID).
		Scan(&out.ID, &out.TenantID, &out.ExternalUserID, &out.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve member: %w", err)
	}
	return out, nil
}
