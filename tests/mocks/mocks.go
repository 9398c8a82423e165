// Package mocks содержит testify-моки контрактов domain для юнит-тестов.
package mocks

import (
	"context"

	"pr-insights-service/internal/domain"

	"github.com/stretchr/testify/mock"
)

type PullRequestRepository struct {
	mock.Mock
}

func (m *PullRequestRepository) Upsert(ctx context.Context, pr *domain.PullRequest) (*domain.PullRequest, error) {
	args := m.Called(ctx, pr)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PullRequest), args.Error(1)
}

func (m *PullRequestRepository) GetByID(ctx context.Context, id int64) (*domain.PullRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PullRequest), args.Error(1)
}

func (m *PullRequestRepository) GetByExternalID(ctx context.Context, tenantID, externalID int64) (*domain.PullRequest, error) {
	args := m.Called(ctx, tenantID, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PullRequest), args.Error(1)
}

func (m *PullRequestRepository) UpdateDerivedMetrics(ctx context.Context, id int64, metrics domain.DerivedMetrics) error {
	args := m.Called(ctx, id, metrics)
	return args.Error(0)
}

func (m *PullRequestRepository) SetSyncError(ctx context.Context, id int64, message string) error {
	args := m.Called(ctx, id, message)
	return args.Error(0)
}

func (m *PullRequestRepository) ListTenantIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

type MemberRepository struct {
	mock.Mock
}

func (m *MemberRepository) Upsert(ctx context.Context, member *domain.Member) (*domain.Member, error) {
	args := m.Called(ctx, member)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Member), args.Error(1)
}

func (m *MemberRepository) GetByID(ctx context.Context, id int64) (*domain.Member, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Member), args.Error(1)
}

func (m *MemberRepository) Resolve(ctx context.Context, tenantID int64, externalUserID string) (*domain.Member, error) {
	args := m.Called(ctx, tenantID, externalUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Member), args.Error(1)
}

type SubEventRepository struct {
	mock.Mock
}

func (m *SubEventRepository) UpsertCommit(ctx context.Context, c *domain.Commit) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *SubEventRepository) UpsertReview(ctx context.Context, r *domain.Review) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *SubEventRepository) UpsertComment(ctx context.Context, c *domain.ReviewComment) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *SubEventRepository) UpsertCheckRun(ctx context.Context, c *domain.CheckRun) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *SubEventRepository) UpsertChangedFile(ctx context.Context, f *domain.ChangedFile) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *SubEventRepository) ListCommitsByPR(ctx context.Context, prID int64) ([]*domain.Commit, error) {
	args := m.Called(ctx, prID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Commit), args.Error(1)
}

func (m *SubEventRepository) ListReviewsByPR(ctx context.Context, prID int64) ([]*domain.Review, error) {
	args := m.Called(ctx, prID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Review), args.Error(1)
}

func (m *SubEventRepository) ListCommentsByPR(ctx context.Context, prID int64) ([]*domain.ReviewComment, error) {
	args := m.Called(ctx, prID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ReviewComment), args.Error(1)
}

func (m *SubEventRepository) ListCheckRunsByPR(ctx context.Context, prID int64) ([]*domain.CheckRun, error) {
	args := m.Called(ctx, prID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CheckRun), args.Error(1)
}

func (m *SubEventRepository) ListReviewsByTenant(ctx context.Context, tenantID int64) ([]*domain.Review, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Review), args.Error(1)
}

type CorrelationRepository struct {
	mock.Mock
}

func (m *CorrelationRepository) ReplaceForTenant(ctx context.Context, tenantID int64, rows []*domain.ReviewerCorrelation) error {
	args := m.Called(ctx, tenantID, rows)
	return args.Error(0)
}

func (m *CorrelationRepository) ListByTenant(ctx context.Context, tenantID int64) ([]*domain.ReviewerCorrelation, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ReviewerCorrelation), args.Error(1)
}

type SyncTaskRepository struct {
	mock.Mock
}

func (m *SyncTaskRepository) Enqueue(ctx context.Context, tenantID, pullRequestID int64) error {
	args := m.Called(ctx, tenantID, pullRequestID)
	return args.Error(0)
}

func (m *SyncTaskRepository) ClaimNext(ctx context.Context, claimedBy string) (*domain.SyncTask, error) {
	args := m.Called(ctx, claimedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SyncTask), args.Error(1)
}

func (m *SyncTaskRepository) MarkComplete(ctx context.Context, id int64, attempts int) error {
	args := m.Called(ctx, id, attempts)
	return args.Error(0)
}

func (m *SyncTaskRepository) MarkError(ctx context.Context, id int64, attempts int, message string) error {
	args := m.Called(ctx, id, attempts, message)
	return args.Error(0)
}

type HostGateway struct {
	mock.Mock
}

func (m *HostGateway) ListCommits(ctx context.Context, prNumber int64) ([]domain.HostCommit, error) {
	args := m.Called(ctx, prNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.HostCommit), args.Error(1)
}

func (m *HostGateway) ListChangedFiles(ctx context.Context, prNumber int64) ([]domain.HostFile, error) {
	args := m.Called(ctx, prNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.HostFile), args.Error(1)
}

func (m *HostGateway) ListCheckRuns(ctx context.Context, headRef string) ([]domain.HostCheckRun, error) {
	args := m.Called(ctx, headRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.HostCheckRun), args.Error(1)
}

func (m *HostGateway) ListGeneralComments(ctx context.Context, prNumber int64) ([]domain.HostComment, error) {
	args := m.Called(ctx, prNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.HostComment), args.Error(1)
}

func (m *HostGateway) ListInlineComments(ctx context.Context, prNumber int64) ([]domain.HostComment, error) {
	args := m.Called(ctx, prNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.HostComment), args.Error(1)
}

type IngestUseCase struct {
	mock.Mock
}

func (m *IngestUseCase) IngestPullRequest(ctx context.Context, tenantID int64, ev domain.PullRequestEvent) (*domain.PullRequest, error) {
	args := m.Called(ctx, tenantID, ev)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PullRequest), args.Error(1)
}

func (m *IngestUseCase) IngestReview(ctx context.Context, tenantID int64, ev domain.ReviewEvent) (*domain.PullRequest, error) {
	args := m.Called(ctx, tenantID, ev)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PullRequest), args.Error(1)
}

func (m *IngestUseCase) RegisterMember(ctx context.Context, tenantID int64, externalUserID, username string) (*domain.Member, error) {
	args := m.Called(ctx, tenantID, externalUserID, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Member), args.Error(1)
}

type TimelineUseCase struct {
	mock.Mock
}

func (m *TimelineUseCase) BuildTimeline(ctx context.Context, pullRequestID int64) ([]domain.TimelineEvent, error) {
	args := m.Called(ctx, pullRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TimelineEvent), args.Error(1)
}

func (m *TimelineUseCase) RecentTimeline(ctx context.Context, pullRequestID int64) ([]domain.TimelineEvent, error) {
	args := m.Called(ctx, pullRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TimelineEvent), args.Error(1)
}

type MetricsUseCase struct {
	mock.Mock
}

func (m *MetricsUseCase) Recalculate(ctx context.Context, pullRequestID int64) error {
	args := m.Called(ctx, pullRequestID)
	return args.Error(0)
}

type BackfillUseCase struct {
	mock.Mock
}

func (m *BackfillUseCase) Backfill(ctx context.Context, pullRequestID int64) (*domain.BackfillResult, error) {
	args := m.Called(ctx, pullRequestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BackfillResult), args.Error(1)
}

type CorrelationUseCase struct {
	mock.Mock
}

func (m *CorrelationUseCase) RecalculateForTenant(ctx context.Context, tenantID int64) (int, error) {
	args := m.Called(ctx, tenantID)
	return args.Int(0), args.Error(1)
}

func (m *CorrelationUseCase) ListForTenant(ctx context.Context, tenantID int64) ([]*domain.ReviewerCorrelation, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ReviewerCorrelation), args.Error(1)
}

type Reporter struct {
	mock.Mock
}

func (m *Reporter) ReportError(err error, fields map[string]any) {
	m.Called(err, fields)
}
