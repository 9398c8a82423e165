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

var base = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func commitAt(offset time.Duration) *domain.Commit {
	return &domain.Commit{CommittedAt: base.Add(offset)}
}

func reviewAt(offset time.Duration, state string) *domain.Review {
	return &domain.Review{State: state, SubmittedAt: base.Add(offset)}
}

func TestComputeIterationMetrics_NoSubEvents(t *testing.T) {
	m := usecase.ComputeIterationMetrics(nil, nil, nil)

	// После пересчета счетчики — конкретные нули, не "нет данных"
	assert.Equal(t, 0, *m.ReviewRounds)
	assert.Equal(t, 0, *m.CommitsAfterFirstReview)
	assert.Equal(t, 0, *m.TotalComments)
	assert.Nil(t, m.AvgFixResponseHours)
}

func TestComputeIterationMetrics_NoChangesRequested(t *testing.T) {
	commits := []*domain.Commit{commitAt(0), commitAt(2 * time.Hour)}
	reviews := []*domain.Review{reviewAt(1*time.Hour, domain.ReviewApproved)}
	comments := []*domain.ReviewComment{{}, {}, {}}

	m := usecase.ComputeIterationMetrics(commits, reviews, comments)

	assert.Equal(t, 0, *m.ReviewRounds)
	assert.Equal(t, 1, *m.CommitsAfterFirstReview)
	assert.Equal(t, 3, *m.TotalComments)
	assert.Nil(t, m.AvgFixResponseHours)
}

func TestComputeIterationMetrics_SingleRound(t *testing.T) {
	commits := []*domain.Commit{
		commitAt(0),
		commitAt(3 * time.Hour), // фикс после запроса изменений
	}
	reviews := []*domain.Review{
		reviewAt(1*time.Hour, domain.ReviewChangesRequested),
	}

	m := usecase.ComputeIterationMetrics(commits, reviews, nil)

	assert.Equal(t, 1, *m.ReviewRounds)
	assert.Equal(t, 1, *m.CommitsAfterFirstReview)
	assert.NotNil(t, m.AvgFixResponseHours)
	assert.InDelta(t, 2.0, *m.AvgFixResponseHours, 0.001)
}

func TestComputeIterationMetrics_RepeatedRequestWithoutCommitIsSameRound(t *testing.T) {
	commits := []*domain.Commit{commitAt(0), commitAt(3 * time.Hour)}
	reviews := []*domain.Review{
		reviewAt(1*time.Hour, domain.ReviewChangesRequested),
		reviewAt(2*time.Hour, domain.ReviewChangesRequested), // без коммита между
	}

	m := usecase.ComputeIterationMetrics(commits, reviews, nil)

	// Оба запроса закрываются одним коммитом — это один раунд,
	// время реакции считается от первого запроса
	assert.Equal(t, 1, *m.ReviewRounds)
	assert.InDelta(t, 2.0, *m.AvgFixResponseHours, 0.001)
}

func TestComputeIterationMetrics_UnresolvedRequestIsNotARound(t *testing.T) {
	commits := []*domain.Commit{commitAt(0)}
	reviews := []*domain.Review{
		reviewAt(1*time.Hour, domain.ReviewChangesRequested),
	}

	m := usecase.ComputeIterationMetrics(commits, reviews, nil)

	assert.Equal(t, 0, *m.ReviewRounds)
	assert.Nil(t, m.AvgFixResponseHours)
}

func TestComputeIterationMetrics_TwoRoundsWithInterveningCommit(t *testing.T) {
	commits := []*domain.Commit{
		commitAt(0),
		commitAt(2 * time.Hour), // фикс первого раунда
		commitAt(6 * time.Hour), // фикс второго раунда
	}
	reviews := []*domain.Review{
		reviewAt(1*time.Hour, domain.ReviewChangesRequested),
		reviewAt(4*time.Hour, domain.ReviewChangesRequested),
	}

	m := usecase.ComputeIterationMetrics(commits, reviews, nil)

	assert.Equal(t, 2, *m.ReviewRounds)
	assert.Equal(t, 2, *m.CommitsAfterFirstReview)
	// Пары фиксов: 1ч->2ч (1ч) и 4ч->6ч (2ч), среднее 1.5ч
	assert.InDelta(t, 1.5, *m.AvgFixResponseHours, 0.001)
}

func TestComputeIterationMetrics_OrderIndependent(t *testing.T) {
	commits := []*domain.Commit{
		commitAt(6 * time.Hour),
		commitAt(0),
		commitAt(2 * time.Hour),
	}
	reviews := []*domain.Review{
		reviewAt(4*time.Hour, domain.ReviewChangesRequested),
		reviewAt(1*time.Hour, domain.ReviewChangesRequested),
	}

	m := usecase.ComputeIterationMetrics(commits, reviews, nil)

	assert.Equal(t, 2, *m.ReviewRounds)
	assert.InDelta(t, 1.5, *m.AvgFixResponseHours, 0.001)
}

func TestMetricsUseCase_Recalculate_WritesDerivedFields(t *testing.T) {
	ctx := context.Background()
	prRepo := &mocks.PullRequestRepository{}
	subRepo := &mocks.SubEventRepository{}
	uc := usecase.NewMetricsUseCase(prRepo, subRepo, logrus.New())

	pr := &domain.PullRequest{ID: 42, TenantID: 1, ExternalID: 7}
	commits := []*domain.Commit{commitAt(3 * time.Hour)}
	reviews := []*domain.Review{reviewAt(1*time.Hour, domain.ReviewChangesRequested)}
	comments := []*domain.ReviewComment{{}, {}}

	prRepo.On("GetByID", ctx, int64(42)).Return(pr, nil)
	subRepo.On("ListCommitsByPR", ctx, int64(42)).Return(commits, nil)
	subRepo.On("ListReviewsByPR", ctx, int64(42)).Return(reviews, nil)
	subRepo.On("ListCommentsByPR", ctx, int64(42)).Return(comments, nil)
	prRepo.On("UpdateDerivedMetrics", ctx, int64(42), mock.MatchedBy(func(m domain.DerivedMetrics) bool {
		return *m.ReviewRounds == 1 && *m.TotalComments == 2 &&
			*m.CommitsAfterFirstReview == 1 && m.AvgFixResponseHours != nil
	})).Return(nil)

	err := uc.Recalculate(ctx, 42)

	assert.NoError(t, err)
	prRepo.AssertExpectations(t)
	subRepo.AssertExpectations(t)
}

func TestMetricsUseCase_Recalculate_PRNotFound(t *testing.T) {
	ctx := context.Background()
	prRepo := &mocks.PullRequestRepository{}
	subRepo := &mocks.SubEventRepository{}
	uc := usecase.NewMetricsUseCase(prRepo, subRepo, logrus.New())

	prRepo.On("GetByID", ctx, int64(99)).Return(nil, domain.ErrPRNotFound)

	err := uc.Recalculate(ctx, 99)

	assert.ErrorIs(t, err, domain.ErrPRNotFound)
}
