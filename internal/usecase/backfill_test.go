package usecase_test

import (
	"context"
	"testing"
	"time"

	"pr-insights-service/internal/domain"
	"pr-insights-service/internal/usecase"
	"pr-insights-service/tests/mocks"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newBackfillUseCase(prRepo *mocks.PullRequestRepository, memberRepo *mocks.MemberRepository, subRepo *mocks.SubEventRepository, gateway *mocks.HostGateway, metrics *mocks.MetricsUseCase) domain.BackfillUseCase {
	return usecase.NewBackfillUseCase(prRepo, memberRepo, subRepo, gateway, metrics, 30*time.Second, logrus.New())
}

func backfillPR() *domain.PullRequest {
	return &domain.PullRequest{ID: 55, TenantID: 1, ExternalID: 101, HeadRef: "feature/x"}
}

func TestBackfillUseCase_AllFetchesSucceed(t *testing.T) {
	ctx := context.Background()
	prRepo := &mocks.PullRequestRepository{}
	memberRepo := &mocks.MemberRepository{}
	subRepo := &mocks.SubEventRepository{}
	gateway := &mocks.HostGateway{}
	metrics := &mocks.MetricsUseCase{}
	uc := newBackfillUseCase(prRepo, memberRepo, subRepo, gateway, metrics)

	prRepo.On("GetByID", ctx, int64(55)).Return(backfillPR(), nil)
	memberRepo.On("Resolve", mock.Anything, int64(1), "alice").Return(&domain.Member{ID: 7}, nil)

	gateway.On("ListCommits", mock.Anything, int64(101)).Return([]domain.HostCommit{
		{SHA: "abc", Message: "fix", AuthorExternalID: "alice", Timestamp: base, Additions: 3, Deletions: 1},
	}, nil)
	gateway.On("ListChangedFiles", mock.Anything, int64(101)).Return([]domain.HostFile{
		{Path: "main.go", Status: "modified", Additions: 3, Deletions: 1},
	}, nil)
	gateway.On("ListCheckRuns", mock.Anything, "feature/x").Return([]domain.HostCheckRun{
		{ExternalID: 1, Name: "build", Status: "completed", Conclusion: "success"},
	}, nil)
	gateway.On("ListGeneralComments", mock.Anything, int64(101)).Return([]domain.HostComment{
		{ExternalID: 11, AuthorExternalID: "alice", Body: "lgtm", CreatedAt: base},
	}, nil)
	gateway.On("ListInlineComments", mock.Anything, int64(101)).Return([]domain.HostComment{
		{ExternalID: 12, AuthorExternalID: "alice", Body: "nit", Path: "main.go", Line: 10, CreatedAt: base},
	}, nil)

	subRepo.On("UpsertCommit", mock.Anything, mock.MatchedBy(func(c *domain.Commit) bool {
		return c.SHA == "abc" && *c.AuthorID == 7 && c.PullRequestID == 55
	})).Return(nil)
	subRepo.On("UpsertChangedFile", mock.Anything, mock.Anything).Return(nil)
	subRepo.On("UpsertCheckRun", mock.Anything, mock.Anything).Return(nil)
	subRepo.On("UpsertComment", mock.Anything, mock.MatchedBy(func(c *domain.ReviewComment) bool {
		if c.Kind == domain.CommentKindInline {
			return c.FilePath != nil && *c.FilePath == "main.go" && *c.Line == 10
		}
		return c.FilePath == nil
	})).Return(nil)

	metrics.On("Recalculate", ctx, int64(55)).Return(nil)

	result, err := uc.Backfill(ctx, 55)

	assert.NoError(t, err)
	assert.Equal(t, 1, result.Commits)
	assert.Equal(t, 1, result.Files)
	assert.Equal(t, 1, result.CheckRuns)
	assert.Equal(t, 1, result.GeneralComments)
	assert.Equal(t, 1, result.InlineComments)
	assert.Empty(t, result.Errors)
	metrics.AssertExpectations(t)
}

func TestBackfillUseCase_OneFetchFailureDoesNotAbortOthers(t *testing.T) {
	ctx := context.Background()
	prRepo := &mocks.PullRequestRepository{}
	memberRepo := &mocks.MemberRepository{}
	subRepo := &mocks.SubEventRepository{}
	gateway := &mocks.HostGateway{}
	metrics := &mocks.MetricsUseCase{}
	uc := newBackfillUseCase(prRepo, memberRepo, subRepo, gateway, metrics)

	prRepo.On("GetByID", ctx, int64(55)).Return(backfillPR(), nil)

	gateway.On("ListCommits", mock.Anything, int64(101)).Return(nil, domain.ErrHostRateLimited)
	gateway.On("ListChangedFiles", mock.Anything, int64(101)).Return([]domain.HostFile{
		{Path: "main.go", Status: "modified"},
	}, nil)
	gateway.On("ListCheckRuns", mock.Anything, "feature/x").Return([]domain.HostCheckRun{}, nil)
	gateway.On("ListGeneralComments", mock.Anything, int64(101)).Return([]domain.HostComment{}, nil)
	gateway.On("ListInlineComments", mock.Anything, int64(101)).Return([]domain.HostComment{}, nil)

	subRepo.On("UpsertChangedFile", mock.Anything, mock.Anything).Return(nil)
	metrics.On("Recalculate", ctx, int64(55)).Return(nil)

	result, err := uc.Backfill(ctx, 55)

	assert.NoError(t, err)
	assert.Equal(t, 0, result.Commits)
	assert.Equal(t, 1, result.Files)
	assert.Len(t, result.Errors, 1)
	assert.Equal(t, domain.FetchCommits, result.Errors[0].Kind)
	assert.ErrorIs(t, result.Errors[0].Err, domain.ErrHostRateLimited)
	// Остальные четыре выборки выполнились несмотря на отказ
	gateway.AssertExpectations(t)
	// Метрики пересчитаны даже при частичном отказе
	metrics.AssertExpectations(t)
}

func TestBackfillUseCase_PartialPageSavedBeforeFailure(t *testing.T) {
	ctx := context.Background()
	prRepo := &mocks.PullRequestRepository{}
	memberRepo := &mocks.MemberRepository{}
	subRepo := &mocks.SubEventRepository{}
	gateway := &mocks.HostGateway{}
	metrics := &mocks.MetricsUseCase{}
	uc := newBackfillUseCase(prRepo, memberRepo, subRepo, gateway, metrics)

	prRepo.On("GetByID", ctx, int64(55)).Return(backfillPR(), nil)

	// Первая страница пришла, вторая уперлась в предел
	gateway.On("ListCommits", mock.Anything, int64(101)).Return([]domain.HostCommit{
		{SHA: "abc", Timestamp: base},
		{SHA: "def", Timestamp: base.Add(time.Hour)},
	}, domain.ErrHostPageLimit)
	gateway.On("ListChangedFiles", mock.Anything, int64(101)).Return([]domain.HostFile{}, nil)
	gateway.On("ListCheckRuns", mock.Anything, "feature/x").Return([]domain.HostCheckRun{}, nil)
	gateway.On("ListGeneralComments", mock.Anything, int64(101)).Return([]domain.HostComment{}, nil)
	gateway.On("ListInlineComments", mock.Anything, int64(101)).Return([]domain.HostComment{}, nil)

	subRepo.On("UpsertCommit", mock.Anything, mock.Anything).Return(nil).Times(2)
	metrics.On("Recalculate", ctx, int64(55)).Return(nil)

	result, err := uc.Backfill(ctx, 55)

	assert.NoError(t, err)
	// Частичная страница сохранена, отказ зафиксирован
	assert.Equal(t, 2, result.Commits)
	assert.Len(t, result.Errors, 1)
	assert.Empty(t, result.TransientErrors())
	subRepo.AssertExpectations(t)
}

func TestBackfillUseCase_TransientErrorsClassified(t *testing.T) {
	result := &domain.BackfillResult{
		Errors: []domain.SyncFetchError{
			{Kind: domain.FetchCommits, Err: domain.ErrHostRateLimited},
			{Kind: domain.FetchFiles, Err: domain.ErrHostNotFound},
			{Kind: domain.FetchCheckRuns, Err: domain.ErrHostAuthFailed},
		},
	}

	transient := result.TransientErrors()

	assert.Len(t, transient, 1)
	assert.Equal(t, domain.FetchCommits, transient[0].Kind)
}

func TestBackfillUseCase_PRNotFound(t *testing.T) {
	ctx := context.Background()
	prRepo := &mocks.PullRequestRepository{}
	uc := newBackfillUseCase(prRepo, &mocks.MemberRepository{}, &mocks.SubEventRepository{}, &mocks.HostGateway{}, &mocks.MetricsUseCase{})

	prRepo.On("GetByID", ctx, int64(99)).Return(nil, domain.ErrPRNotFound)

	result, err := uc.Backfill(ctx, 99)

	assert.ErrorIs(t, err, domain.ErrPRNotFound)
	assert.Nil(t, result)
}
