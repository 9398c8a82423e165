package usecase

import (
	"context"
	"sort"

	"pr-insights-service/internal/domain"
)

// recentTimelineLimit ограничивает урезанный таймлайн для потребителей
// с ограниченным контекстом.
const recentTimelineLimit = 15

// TimelineUseCase реализует реконструкцию каузально упорядоченного
// таймлайна рабочего элемента из сохраненных суб-событий.
type TimelineUseCase struct {
	prRepo  domain.PullRequestRepository
	subRepo domain.SubEventRepository
}

// NewTimelineUseCase создает новый экземпляр TimelineUseCase.
func NewTimelineUseCase(prRepo domain.PullRequestRepository, subRepo domain.SubEventRepository) domain.TimelineUseCase {
	return &TimelineUseCase{
		prRepo:  prRepo,
		subRepo: subRepo,
	}
}

// BuildTimeline собирает полный таймлайн: коммиты, решения ревьюверов,
// комментарии обоих видов и синтетическое событие MERGED. Смещения
// отсчитываются от момента открытия PR; сортировка стабильна, поэтому
// одновременные события сохраняют порядок вставки.
func (uc *TimelineUseCase) BuildTimeline(ctx context.Context, pullRequestID int64) ([]domain.TimelineEvent, error) {
	pr, err := uc.prRepo.GetByID(ctx, pullRequestID)
	if err != nil {
		return nil, err
	}

	commits, err := uc.subRepo.ListCommitsByPR(ctx, pr.ID)
	if err != nil {
		return nil, err
	}
	reviews, err := uc.subRepo.ListReviewsByPR(ctx, pr.ID)
	if err != nil {
		return nil, err
	}
	comments, err := uc.subRepo.ListCommentsByPR(ctx, pr.ID)
	if err != nil {
		return nil, err
	}

	events := make([]domain.TimelineEvent, 0, len(commits)+len(reviews)+len(comments)+1)
	for _, c := range commits {
		events = append(events, domain.TimelineEvent{
			At:      c.CommittedAt,
			Kind:    domain.TimelineCommit,
			Payload: c,
		})
	}
	for _, r := range reviews {
		events = append(events, domain.TimelineEvent{
			At:      r.SubmittedAt,
			Kind:    domain.TimelineReview,
			Payload: r,
		})
	}
	for _, c := range comments {
		events = append(events, domain.TimelineEvent{
			At:      c.PostedAt,
			Kind:    domain.TimelineComment,
			Payload: c,
		})
	}
	if pr.MergedAt != nil {
		events = append(events, domain.TimelineEvent{
			At:   *pr.MergedAt,
			Kind: domain.TimelineMerged,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].At.Before(events[j].At)
	})

	for i := range events {
		events[i].Offset = events[i].At.Sub(pr.OpenedAt)
	}

	return events, nil
}

// RecentTimeline возвращает последние события полного таймлайна
// в хронологическом порядке (старые первыми).
func (uc *TimelineUseCase) RecentTimeline(ctx context.Context, pullRequestID int64) ([]domain.TimelineEvent, error) {
	events, err := uc.BuildTimeline(ctx, pullRequestID)
	if err != nil {
		return nil, err
	}

	if len(events) > recentTimelineLimit {
		events = events[len(events)-recentTimelineLimit:]
	}

	return events, nil
}
