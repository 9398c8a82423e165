package usecase_test

import (
	"context"
	"testing"
	"time"

	"pr-insights-service/internal/domain"
	"pr-insights-service/internal/usecase"
	"pr-insights-service/tests/mocks"

	"github.com/stretchr/testify/assert"
)

func setupTimeline(t *testing.T, pr *domain.PullRequest, commits []*domain.Commit, reviews []*domain.Review, comments []*domain.ReviewComment) domain.TimelineUseCase {
	t.Helper()
	prRepo := &mocks.PullRequestRepository{}
	subRepo := &mocks.SubEventRepository{}

	prRepo.On("GetByID", context.Background(), pr.ID).Return(pr, nil)
	subRepo.On("ListCommitsByPR", context.Background(), pr.ID).Return(commits, nil)
	subRepo.On("ListReviewsByPR", context.Background(), pr.ID).Return(reviews, nil)
	subRepo.On("ListCommentsByPR", context.Background(), pr.ID).Return(comments, nil)

	return usecase.NewTimelineUseCase(prRepo, subRepo)
}

func TestTimelineUseCase_BuildTimeline_OrderedWithOffsets(t *testing.T) {
	mergedAt := base.Add(5 * time.Hour)
	pr := &domain.PullRequest{ID: 1, OpenedAt: base, MergedAt: &mergedAt}

	commits := []*domain.Commit{
		{SHA: "a", CommittedAt: base.Add(1 * time.Hour)},
		{SHA: "b", CommittedAt: base.Add(4 * time.Hour)},
	}
	reviews := []*domain.Review{
		{ExternalID: 11, State: domain.ReviewChangesRequested, SubmittedAt: base.Add(2 * time.Hour)},
	}
	comments := []*domain.ReviewComment{
		{ExternalID: 21, Kind: domain.CommentKindInline, PostedAt: base.Add(3 * time.Hour)},
	}

	uc := setupTimeline(t, pr, commits, reviews, comments)

	events, err := uc.BuildTimeline(context.Background(), 1)

	assert.NoError(t, err)
	assert.Len(t, events, 5)

	kinds := make([]string, len(events))
	for i, ev := range events {
		kinds[i] = ev.Kind
	}
	assert.Equal(t, []string{
		domain.TimelineCommit,
		domain.TimelineReview,
		domain.TimelineComment,
		domain.TimelineCommit,
		domain.TimelineMerged,
	}, kinds)

	assert.Equal(t, 1*time.Hour, events[0].Offset)
	assert.Equal(t, 5*time.Hour, events[4].Offset)

	// События упорядочены по смещению
	for i := 1; i < len(events); i++ {
		assert.True(t, events[i-1].Offset <= events[i].Offset)
	}
}

func TestTimelineUseCase_BuildTimeline_NoMergedEventForOpenPR(t *testing.T) {
	pr := &domain.PullRequest{ID: 2, OpenedAt: base, State: domain.PRStateOpen}
	uc := setupTimeline(t, pr,
		[]*domain.Commit{{SHA: "a", CommittedAt: base.Add(time.Hour)}},
		nil, nil)

	events, err := uc.BuildTimeline(context.Background(), 2)

	assert.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, domain.TimelineCommit, events[0].Kind)
}

func TestTimelineUseCase_RecentTimeline_TruncatesOldestFirst(t *testing.T) {
	pr := &domain.PullRequest{ID: 3, OpenedAt: base}

	var commits []*domain.Commit
	for i := 0; i < 20; i++ {
		commits = append(commits, &domain.Commit{
			SHA:         string(rune('a' + i)),
			CommittedAt: base.Add(time.Duration(i+1) * time.Minute),
		})
	}

	uc := setupTimeline(t, pr, commits, nil, nil)

	events, err := uc.RecentTimeline(context.Background(), 3)

	assert.NoError(t, err)
	assert.Len(t, events, 15)
	// Остались последние 15, в хронологическом порядке
	assert.Equal(t, 6*time.Minute, events[0].Offset)
	assert.Equal(t, 20*time.Minute, events[14].Offset)
	for i := 1; i < len(events); i++ {
		assert.True(t, events[i-1].At.Before(events[i].At))
	}
}

func TestTimelineUseCase_BuildTimeline_PRNotFound(t *testing.T) {
	prRepo := &mocks.PullRequestRepository{}
	subRepo := &mocks.SubEventRepository{}
	prRepo.On("GetByID", context.Background(), int64(99)).Return(nil, domain.ErrPRNotFound)

	uc := usecase.NewTimelineUseCase(prRepo, subRepo)

	events, err := uc.BuildTimeline(context.Background(), 99)

	assert.ErrorIs(t, err, domain.ErrPRNotFound)
	assert.Nil(t, events)
}
