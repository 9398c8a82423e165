package domain

import (
	"context"
	"time"
)

// PullRequest представляет рабочий элемент (пул-реквест), отслеживаемый системой.
// Уникален в рамках (tenant_id, external_id).
type PullRequest struct {
	ID         int64
	TenantID   int64
	ExternalID int64
	Title      string
	AuthorID   *int64
	State      string
	HeadRef    string
	Additions  int
	Deletions  int
	OpenedAt   time.Time
	MergedAt   *time.Time

	// Производные поля. NULL до первого успешного бэкфилла,
	// пересчитываются целиком при каждом пересчете метрик.
	ReviewRounds            *int
	AvgFixResponseHours     *float64
	CommitsAfterFirstReview *int
	TotalComments           *int
	MetricsCalculatedAt     *time.Time

	SyncError *string
}

// Статусы пул-реквеста.
const (
	PRStateOpen   = "open"
	PRStateClosed = "closed"
	PRStateMerged = "merged"
)

// DerivedMetrics содержит четыре производных поля рабочего элемента.
// Указатели различают "нет данных" (nil) и "наблюдаемый ноль".
type DerivedMetrics struct {
	ReviewRounds            *int
	AvgFixResponseHours     *float64
	CommitsAfterFirstReview *int
	TotalComments           *int
}

// PullRequestEvent описывает частичное real-time уведомление о жизненном цикле PR.
type PullRequestEvent struct {
	ExternalID       int64
	Title            string
	State            string
	Merged           bool
	MergedAt         *time.Time
	CreatedAt        time.Time
	AuthorExternalID string
	Additions        int
	Deletions        int
	HeadRef          string
}

// ReviewEvent описывает real-time уведомление о решении ревьювера.
type ReviewEvent struct {
	PullRequest        PullRequestEvent
	ReviewExternalID   int64
	ReviewerExternalID string
	State              string
	SubmittedAt        time.Time
}

// PullRequestRepository определяет контракт для работы с хранилищем пул-реквестов.
type PullRequestRepository interface {
	Upsert(ctx context.Context, pr *PullRequest) (*PullRequest, error)
	GetByID(ctx context.Context, id int64) (*PullRequest, error)
	GetByExternalID(ctx context.Context, tenantID, externalID int64) (*PullRequest, error)
	UpdateDerivedMetrics(ctx context.Context, id int64, m DerivedMetrics) error
	SetSyncError(ctx context.Context, id int64, message string) error
	ListTenantIDs(ctx context.Context) ([]int64, error)
}
