package domain

import (
	"context"
	"time"
)

// Пороговые значения флага избыточности пары ревьюверов.
const (
	RedundancyAgreementRate = 0.95
	RedundancyMinShared     = 10
)

// ReviewerCorrelation представляет кэшированный агрегат по неупорядоченной
// паре участников: сколько PR они ревьювили вместе и как часто их решения
// совпадали. Пересчитывается целиком по тенанту, инкрементально не обновляется.
type ReviewerCorrelation struct {
	ID                  int64
	TenantID            int64
	MemberAID           int64
	MemberBID           int64
	PRsReviewedTogether int
	Agreements          int
	Disagreements       int
	AgreementRate       *float64
	IsRedundant         bool
	ComputedAt          time.Time
}

// CorrelationRepository определяет контракт для кэша корреляций ревьюверов.
type CorrelationRepository interface {
	// ReplaceForTenant атомарно заменяет все строки тенанта новым набором.
	ReplaceForTenant(ctx context.Context, tenantID int64, rows []*ReviewerCorrelation) error
	ListByTenant(ctx context.Context, tenantID int64) ([]*ReviewerCorrelation, error)
}
