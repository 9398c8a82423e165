package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"pr-insights-service/internal/domain"
	"pr-insights-service/internal/usecase"
	"pr-insights-service/tests/mocks"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newIngestUseCase(prRepo *mocks.PullRequestRepository, memberRepo *mocks.MemberRepository, subRepo *mocks.SubEventRepository, taskRepo *mocks.SyncTaskRepository) domain.IngestUseCase {
	return usecase.NewIngestUseCase(prRepo, memberRepo, subRepo, taskRepo, logrus.New())
}

func TestIngestUseCase_IngestPullRequest_OpenEvent(t *testing.T) {
	ctx := context.Background()
	prRepo := &mocks.PullRequestRepository{}
	memberRepo := &mocks.MemberRepository{}
	taskRepo := &mocks.SyncTaskRepository{}
	uc := newIngestUseCase(prRepo, memberRepo, &mocks.SubEventRepository{}, taskRepo)

	author := &domain.Member{ID: 7, TenantID: 1, ExternalUserID: "alice"}
	memberRepo.On("Resolve", ctx, int64(1), "alice").Return(author, nil)

	prRepo.On("Upsert", ctx, mock.MatchedBy(func(pr *domain.PullRequest) bool {
		return pr.TenantID == 1 && pr.ExternalID == 101 &&
			pr.State == domain.PRStateOpen && *pr.AuthorID == 7
	})).Return(&domain.PullRequest{ID: 55, TenantID: 1, ExternalID: 101}, nil)

	pr, err := uc.IngestPullRequest(ctx, 1, domain.PullRequestEvent{
		ExternalID:       101,
		Title:            "Add parser",
		State:            domain.PRStateOpen,
		CreatedAt:        base,
		AuthorExternalID: "alice",
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(55), pr.ID)
	// Задача бэкфилла не ставится для открытого PR
	taskRepo.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestUseCase_IngestPullRequest_MergedEnqueuesBackfill(t *testing.T) {
	ctx := context.Background()
	prRepo := &mocks.PullRequestRepository{}
	memberRepo := &mocks.MemberRepository{}
	taskRepo := &mocks.SyncTaskRepository{}
	uc := newIngestUseCase(prRepo, memberRepo, &mocks.SubEventRepository{}, taskRepo)

	mergedAt := base.Add(time.Hour)
	memberRepo.On("Resolve", ctx, int64(1), "alice").Return(nil, nil)
	prRepo.On("Upsert", ctx, mock.MatchedBy(func(pr *domain.PullRequest) bool {
		return pr.State == domain.PRStateMerged && pr.MergedAt != nil
	})).Return(&domain.PullRequest{ID: 55, TenantID: 1, ExternalID: 101}, nil)
	taskRepo.On("Enqueue", ctx, int64(1), int64(55)).Return(nil)

	pr, err := uc.IngestPullRequest(ctx, 1, domain.PullRequestEvent{
		ExternalID:       101,
		State:            domain.PRStateClosed,
		Merged:           true,
		MergedAt:         &mergedAt,
		CreatedAt:        base,
		AuthorExternalID: "alice",
	})

	assert.NoError(t, err)
	assert.NotNil(t, pr)
	taskRepo.AssertExpectations(t)
}

func TestIngestUseCase_IngestPullRequest_EnqueueFailureNotReturned(t *testing.T) {
	ctx := context.Background()
	prRepo := &mocks.PullRequestRepository{}
	memberRepo := &mocks.MemberRepository{}
	taskRepo := &mocks.SyncTaskRepository{}
	uc := newIngestUseCase(prRepo, memberRepo, &mocks.SubEventRepository{}, taskRepo)

	memberRepo.On("Resolve", ctx, int64(1), "alice").Return(nil, nil)
	prRepo.On("Upsert", ctx, mock.Anything).Return(&domain.PullRequest{ID: 55}, nil)
	taskRepo.On("Enqueue", ctx, int64(1), int64(55)).Return(errors.New("queue unavailable"))

	pr, err := uc.IngestPullRequest(ctx, 1, domain.PullRequestEvent{
		ExternalID:       101,
		Merged:           true,
		CreatedAt:        base,
		AuthorExternalID: "alice",
	})

	// Отказ очереди не доходит до вызывающего
	assert.NoError(t, err)
	assert.NotNil(t, pr)
}

func TestIngestUseCase_IngestPullRequest_UnknownAuthorDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	prRepo := &mocks.PullRequestRepository{}
	memberRepo := &mocks.MemberRepository{}
	uc := newIngestUseCase(prRepo, memberRepo, &mocks.SubEventRepository{}, &mocks.SyncTaskRepository{})

	memberRepo.On("Resolve", ctx, int64(1), "stranger").Return(nil, nil)
	prRepo.On("Upsert", ctx, mock.MatchedBy(func(pr *domain.PullRequest) bool {
		return pr.AuthorID == nil
	})).Return(&domain.PullRequest{ID: 55}, nil)

	pr, err := uc.IngestPullRequest(ctx, 1, domain.PullRequestEvent{
		ExternalID:       101,
		State:            domain.PRStateOpen,
		CreatedAt:        base,
		AuthorExternalID: "stranger",
	})

	assert.NoError(t, err)
	assert.NotNil(t, pr)
}

func TestIngestUseCase_IngestPullRequest_ValidationErrors(t *testing.T) {
	uc := newIngestUseCase(&mocks.PullRequestRepository{}, &mocks.MemberRepository{}, &mocks.SubEventRepository{}, &mocks.SyncTaskRepository{})

	testCases := []struct {
		name     string
		tenantID int64
		ev       domain.PullRequestEvent
		expected error
	}{
		{"Zero tenant", 0, domain.PullRequestEvent{ExternalID: 1}, domain.ErrInvalidTenantID},
		{"Zero external id", 1, domain.PullRequestEvent{}, domain.ErrInvalidExternalID},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pr, err := uc.IngestPullRequest(context.Background(), tc.tenantID, tc.ev)
			assert.ErrorIs(t, err, tc.expected)
			assert.Nil(t, pr)
		})
	}
}

func TestIngestUseCase_IngestReview_UpsertsParentFirst(t *testing.T) {
	ctx := context.Background()
	prRepo := &mocks.PullRequestRepository{}
	memberRepo := &mocks.MemberRepository{}
	subRepo := &mocks.SubEventRepository{}
	uc := newIngestUseCase(prRepo, memberRepo, subRepo, &mocks.SyncTaskRepository{})

	reviewer := &domain.Member{ID: 9, TenantID: 1, ExternalUserID: "bob"}
	memberRepo.On("Resolve", ctx, int64(1), "").Return(nil, nil).Maybe()
	memberRepo.On("Resolve", ctx, int64(1), "bob").Return(reviewer, nil)

	prRepo.On("Upsert", ctx, mock.MatchedBy(func(pr *domain.PullRequest) bool {
		return pr.ExternalID == 101
	})).Return(&domain.PullRequest{ID: 55, TenantID: 1, ExternalID: 101}, nil)

	subRepo.On("UpsertReview", ctx, mock.MatchedBy(func(r *domain.Review) bool {
		return r.PullRequestID == 55 && r.ExternalID == 777 &&
			*r.ReviewerID == 9 && r.State == domain.ReviewChangesRequested
	})).Return(nil)

	pr, err := uc.IngestReview(ctx, 1, domain.ReviewEvent{
		PullRequest:        domain.PullRequestEvent{ExternalID: 101, CreatedAt: base},
		ReviewExternalID:   777,
		ReviewerExternalID: "bob",
		State:              domain.ReviewChangesRequested,
		SubmittedAt:        base.Add(time.Hour),
	})

	assert.NoError(t, err)
	assert.Equal(t, int64(55), pr.ID)
	subRepo.AssertExpectations(t)
}

func TestIngestUseCase_IngestReview_InvalidState(t *testing.T) {
	uc := newIngestUseCase(&mocks.PullRequestRepository{}, &mocks.MemberRepository{}, &mocks.SubEventRepository{}, &mocks.SyncTaskRepository{})

	pr, err := uc.IngestReview(context.Background(), 1, domain.ReviewEvent{
		PullRequest:      domain.PullRequestEvent{ExternalID: 101},
		ReviewExternalID: 777,
		State:            "dismissed",
	})

	assert.ErrorIs(t, err, domain.ErrInvalidEventState)
	assert.Nil(t, pr)
}

func TestIngestUseCase_RegisterMember(t *testing.T) {
	ctx := context.Background()
	memberRepo := &mocks.MemberRepository{}
	uc := newIngestUseCase(&mocks.PullRequestRepository{}, memberRepo, &mocks.SubEventRepository{}, &mocks.SyncTaskRepository{})

	memberRepo.On("Upsert", ctx, mock.MatchedBy(func(m *domain.Member) bool {
		return m.TenantID == 1 && m.ExternalUserID == "alice" && m.Username == "Alice"
	})).Return(&domain.Member{ID: 7, TenantID: 1, ExternalUserID: "alice", Username: "Alice"}, nil)

	member, err := uc.RegisterMember(ctx, 1, "alice", "Alice")

	assert.NoError(t, err)
	assert.Equal(t, int64(7), member.ID)

	_, err = uc.RegisterMember(ctx, 1, "", "Nobody")
	assert.ErrorIs(t, err, domain.ErrInvalidMemberID)
}
