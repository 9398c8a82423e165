package usecase

import (
	"context"
	"sort"
	"time"

	"pr-insights-service/internal/domain"

	"github.com/sirupsen/logrus"
)

// MetricsUseCase реализует пересчет производных метрик итераций ревью.
// Пересчет всегда полный: четыре поля вычисляются заново из сохраненных
// суб-событий и записываются одним обновлением, инкрементального пути нет.
type MetricsUseCase struct {
	prRepo  domain.PullRequestRepository
	subRepo domain.SubEventRepository
	logger  *logrus.Logger
}

// NewMetricsUseCase создает новый экземпляр MetricsUseCase.
func NewMetricsUseCase(
	prRepo domain.PullRequestRepository,
	subRepo domain.SubEventRepository,
	logger *logrus.Logger,
) domain.MetricsUseCase {
	return &MetricsUseCase{
		prRepo:  prRepo,
		subRepo: subRepo,
		logger:  logger,
	}
}

// Recalculate пересчитывает производные метрики рабочего элемента.
// Операция идемпотентна: повторный вызов без новых суб-событий
// записывает тот же результат.
func (uc *MetricsUseCase) Recalculate(ctx context.Context, pullRequestID int64) error {
	pr, err := uc.prRepo.GetByID(ctx, pullRequestID)
	if err != nil {
		return err
	}

	commits, err := uc.subRepo.ListCommitsByPR(ctx, pr.ID)
	if err != nil {
		return err
	}
	reviews, err := uc.subRepo.ListReviewsByPR(ctx, pr.ID)
	if err != nil {
		return err
	}
	comments, err := uc.subRepo.ListCommentsByPR(ctx, pr.ID)
	if err != nil {
		return err
	}

	metrics := ComputeIterationMetrics(commits, reviews, comments)

	if err := uc.prRepo.UpdateDerivedMetrics(ctx, pr.ID, metrics); err != nil {
		return err
	}

	uc.logger.WithFields(logrus.Fields{
		"pull_request_id": pr.ID,
		"review_rounds":   *metrics.ReviewRounds,
		"total_comments":  *metrics.TotalComments,
	}).Info("Derived metrics recalculated")

	return nil
}

// ComputeIterationMetrics вычисляет четыре производных поля из суб-событий.
// Чистая функция: не обращается к хранилищу и не зависит от порядка входа.
//
// ReviewRounds, CommitsAfterFirstReview и TotalComments после пересчета
// всегда конкретные числа (возможно ноль). AvgFixResponseHours остается
// nil, пока нет ни одной пары "changes_requested -> следующий коммит".
func ComputeIterationMetrics(commits []*domain.Commit, reviews []*domain.Review, comments []*domain.ReviewComment) domain.DerivedMetrics {
	sorted := make([]*domain.Commit, len(commits))
	copy(sorted, commits)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CommittedAt.Before(sorted[j].CommittedAt)
	})

	sortedReviews := make([]*domain.Review, len(reviews))
	copy(sortedReviews, reviews)
	sort.Slice(sortedReviews, func(i, j int) bool {
		return sortedReviews[i].SubmittedAt.Before(sortedReviews[j].SubmittedAt)
	})

	totalComments := len(comments)

	// Коммиты после первого решения ревьювера любого класса
	commitsAfterFirst := 0
	if len(sortedReviews) > 0 {
		first := sortedReviews[0].SubmittedAt
		for _, c := range sorted {
			if c.CommittedAt.After(first) {
				commitsAfterFirst++
			}
		}
	}

	// Раунд ревью — это пара "запрос изменений -> следующий за ним коммит".
	// Запрос без последующего коммита раунда не образует; повторный запрос
	// без промежуточного коммита сливается с текущим раундом.
	rounds := 0
	var pending *domain.Review
	var fixHours []float64
	closeRound := func(until *time.Time) bool {
		fix := firstCommitAfter(sorted, pending.SubmittedAt)
		if fix == nil || (until != nil && fix.CommittedAt.After(*until)) {
			return false
		}
		rounds++
		fixHours = append(fixHours, fix.CommittedAt.Sub(pending.SubmittedAt).Hours())
		return true
	}
	for _, r := range sortedReviews {
		if r.State != domain.ReviewChangesRequested {
			continue
		}
		if pending == nil {
			pending = r
			continue
		}
		// Новый запрос открывает раунд только после фикса предыдущего
		if closeRound(&r.SubmittedAt) {
			pending = r
		}
	}
	if pending != nil {
		closeRound(nil)
	}

	metrics := domain.DerivedMetrics{
		ReviewRounds:            &rounds,
		CommitsAfterFirstReview: &commitsAfterFirst,
		TotalComments:           &totalComments,
	}

	if len(fixHours) > 0 {
		sum := 0.0
		for _, h := range fixHours {
			sum += h
		}
		avg := sum / float64(len(fixHours))
		metrics.AvgFixResponseHours = &avg
	}

	return metrics
}

func firstCommitAfter(sorted []*domain.Commit, t time.Time) *domain.Commit {
	for _, c := range sorted {
		if c.CommittedAt.After(t) {
			return c
		}
	}
	return nil
}
