package domain

import "context"

// IngestUseCase определяет бизнес-логику приема real-time уведомлений.
type IngestUseCase interface {
	IngestPullRequest(ctx context.Context, tenantID int64, ev PullRequestEvent) (*PullRequest, error)
	IngestReview(ctx context.Context, tenantID int64, ev ReviewEvent) (*PullRequest, error)
	RegisterMember(ctx context.Context, tenantID int64, externalUserID, username string) (*Member, error)
}

// BackfillUseCase определяет бизнес-логику полного бэкфилла рабочего элемента.
type BackfillUseCase interface {
	Backfill(ctx context.Context, pullRequestID int64) (*BackfillResult, error)
}

// TimelineUseCase определяет бизнес-логику реконструкции таймлайна.
type TimelineUseCase interface {
	BuildTimeline(ctx context.Context, pullRequestID int64) ([]TimelineEvent, error)
	RecentTimeline(ctx context.Context, pullRequestID int64) ([]TimelineEvent, error)
}

// MetricsUseCase определяет бизнес-логику пересчета производных метрик.
type MetricsUseCase interface {
	Recalculate(ctx context.Context, pullRequestID int64) error
}

// CorrelationUseCase определяет бизнес-логику пересчета корреляций ревьюверов.
type CorrelationUseCase interface {
	RecalculateForTenant(ctx context.Context, tenantID int64) (int, error)
	ListForTenant(ctx context.Context, tenantID int64) ([]*ReviewerCorrelation, error)
}
