package usecase

import (
	"context"
	"sort"
	"time"

	"pr-insights-service/internal/domain"

	"github.com/sirupsen/logrus"
)

// CorrelationUseCase реализует пересчет корреляций ревьюверов по тенанту.
// Кэш заменяется целиком: агрегат по парам дешевле пересчитать заново,
// чем поддерживать инкрементально при идемпотентных перезаписях ревью.
type CorrelationUseCase struct {
	subRepo  domain.SubEventRepository
	corrRepo domain.CorrelationRepository
	logger   *logrus.Logger
}

// NewCorrelationUseCase создает новый экземпляр CorrelationUseCase.
func NewCorrelationUseCase(
	subRepo domain.SubEventRepository,
	corrRepo domain.CorrelationRepository,
	logger *logrus.Logger,
) domain.CorrelationUseCase {
	return &CorrelationUseCase{
		subRepo:  subRepo,
		corrRepo: corrRepo,
		logger:   logger,
	}
}

// RecalculateForTenant пересчитывает все пары ревьюверов тенанта и
// атомарно заменяет кэш. Возвращает количество записанных пар.
func (uc *CorrelationUseCase) RecalculateForTenant(ctx context.Context, tenantID int64) (int, error) {
	if tenantID <= 0 {
		return 0, domain.ErrInvalidTenantID
	}

	reviews, err := uc.subRepo.ListReviewsByTenant(ctx, tenantID)
	if err != nil {
		return 0, err
	}

	rows := ComputeCorrelations(tenantID, reviews)

	if err := uc.corrRepo.ReplaceForTenant(ctx, tenantID, rows); err != nil {
		return 0, err
	}

	uc.logger.WithFields(logrus.Fields{
		"tenant_id": tenantID,
		"pairs":     len(rows),
	}).Info("Reviewer correlations recalculated")

	return len(rows), nil
}

// ListForTenant возвращает кэшированные корреляции тенанта.
func (uc *CorrelationUseCase) ListForTenant(ctx context.Context, tenantID int64) ([]*domain.ReviewerCorrelation, error) {
	if tenantID <= 0 {
		return nil, domain.ErrInvalidTenantID
	}
	return uc.corrRepo.ListByTenant(ctx, tenantID)
}

type pairKey struct {
	a, b int64
}

// ComputeCorrelations строит агрегат по неупорядоченным парам ревьюверов.
// Чистая функция.
//
// Для каждого рабочего элемента сравнивается последнее содержательное
// решение каждого ревьювера: approved и changes_requested сравнимы,
// commented не является решением и в сравнении не участвует. Пара
// считается "ревьювившей вместе" по самому факту участия обоих,
// независимо от классов решений. Ревью с неразрешенным авторством
// пропускаются: без внутреннего id участника пару не построить.
func ComputeCorrelations(tenantID int64, reviews []*domain.Review) []*domain.ReviewerCorrelation {
	// Группируем по рабочему элементу
	byPR := make(map[int64][]*domain.Review)
	for _, r := range reviews {
		if r.ReviewerID == nil {
			continue
		}
		byPR[r.PullRequestID] = append(byPR[r.PullRequestID], r)
	}

	pairs := make(map[pairKey]*domain.ReviewerCorrelation)
	now := time.Now()

	for _, prReviews := range byPR {
		participants := make(map[int64]bool)
		decisions := make(map[int64]*domain.Review)

		for _, r := range prReviews {
			id := *r.ReviewerID
			participants[id] = true

			if r.State == domain.ReviewCommented {
				continue
			}
			if prev, ok := decisions[id]; !ok || r.SubmittedAt.After(prev.SubmittedAt) {
				decisions[id] = r
			}
		}

		ids := make([]int64, 0, len(participants))
		for id := range participants {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				key := pairKey{a: ids[i], b: ids[j]}
				row, ok := pairs[key]
				if !ok {
					row = &domain.ReviewerCorrelation{
						TenantID:   tenantID,
						MemberAID:  key.a,
						MemberBID:  key.b,
						ComputedAt: now,
					}
					pairs[key] = row
				}
				row.PRsReviewedTogether++

				da, okA := decisions[key.a]
				db, okB := decisions[key.b]
				if okA && okB {
					if da.State == db.State {
						row.Agreements++
					} else {
						row.Disagreements++
					}
				}
			}
		}
	}

	out := make([]*domain.ReviewerCorrelation, 0, len(pairs))
	for _, row := range pairs {
		if compared := row.Agreements + row.Disagreements; compared > 0 {
			rate := float64(row.Agreements) / float64(compared)
			row.AgreementRate = &rate
			row.IsRedundant = rate >= domain.RedundancyAgreementRate &&
				row.PRsReviewedTogether >= domain.RedundancyMinShared
		}
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].MemberAID != out[j].MemberAID {
			return out[i].MemberAID < out[j].MemberAID
		}
		return out[i].MemberBID < out[j].MemberBID
	})

	return out
}
