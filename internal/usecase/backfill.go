package usecase

import (
	"context"
	"time"

	"pr-insights-service/internal/domain"

	"github.com/sirupsen/logrus"
)

// BackfillUseCase реализует полный бэкфилл рабочего элемента: пять
// независимых суб-выборок из read API хоста, сведенных к идемпотентным
// апсертам. Отказ одной суб-выборки не отменяет остальные; результат
// несет счетчики сохраненного и структурированный список отказов.
type BackfillUseCase struct {
	prRepo     domain.PullRequestRepository
	memberRepo domain.MemberRepository
	subRepo    domain.SubEventRepository
	gateway    domain.HostGateway
	metrics    domain.MetricsUseCase
	timeout    time.Duration
	logger     *logrus.Logger
}

// NewBackfillUseCase создает новый экземпляр BackfillUseCase.
// timeout ограничивает каждую суб-выборку по отдельности.
func NewBackfillUseCase(
	prRepo domain.PullRequestRepository,
	memberRepo domain.MemberRepository,
	subRepo domain.SubEventRepository,
	gateway domain.HostGateway,
	metrics domain.MetricsUseCase,
	timeout time.Duration,
	logger *logrus.Logger,
) domain.BackfillUseCase {
	return &BackfillUseCase{
		prRepo:     prRepo,
		memberRepo: memberRepo,
		subRepo:    subRepo,
		gateway:    gateway,
		metrics:    metrics,
		timeout:    timeout,
		logger:     logger,
	}
}

// Backfill выполняет пять суб-выборок последовательно и всегда завершается
// пересчетом производных метрик: даже частично успешный прогон оставляет
// метрики согласованными с тем, что реально сохранено.
func (uc *BackfillUseCase) Backfill(ctx context.Context, pullRequestID int64) (*domain.BackfillResult, error) {
	pr, err := uc.prRepo.GetByID(ctx, pullRequestID)
	if err != nil {
		return nil, err
	}

	result := &domain.BackfillResult{}

	result.Commits = uc.runSubFetch(ctx, result, domain.FetchCommits, func(ctx context.Context) (int, error) {
		return uc.syncCommits(ctx, pr)
	})
	result.Files = uc.runSubFetch(ctx, result, domain.FetchFiles, func(ctx context.Context) (int, error) {
		return uc.syncChangedFiles(ctx, pr)
	})
	result.CheckRuns = uc.runSubFetch(ctx, result, domain.FetchCheckRuns, func(ctx context.Context) (int, error) {
		return uc.syncCheckRuns(ctx, pr)
	})
	result.GeneralComments = uc.runSubFetch(ctx, result, domain.FetchGeneralComments, func(ctx context.Context) (int, error) {
		return uc.syncComments(ctx, pr, domain.CommentKindGeneral)
	})
	result.InlineComments = uc.runSubFetch(ctx, result, domain.FetchInlineComments, func(ctx context.Context) (int, error) {
		return uc.syncComments(ctx, pr, domain.CommentKindInline)
	})

	if err := uc.metrics.Recalculate(ctx, pr.ID); err != nil {
		return result, err
	}

	uc.logger.WithFields(logrus.Fields{
		"pull_request_id":  pr.ID,
		"commits":          result.Commits,
		"files":            result.Files,
		"check_runs":       result.CheckRuns,
		"general_comments": result.GeneralComments,
		"inline_comments":  result.InlineComments,
		"failed_fetches":   len(result.Errors),
	}).Info("Backfill finished")

	return result, nil
}

// runSubFetch исполняет одну суб-выборку под собственным таймаутом.
// Отказ записывается в результат, исполнение продолжается.
func (uc *BackfillUseCase) runSubFetch(ctx context.Context, result *domain.BackfillResult, kind string, fn func(ctx context.Context) (int, error)) int {
	subCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	n, err := fn(subCtx)
	if err != nil {
		uc.logger.WithFields(logrus.Fields{
			"fetch_kind": kind,
			"saved":      n,
			"error":      err.Error(),
		}).Warn("Backfill sub-fetch failed")
		result.Errors = append(result.Errors, domain.SyncFetchError{Kind: kind, Err: err})
	}
	return n
}

func (uc *BackfillUseCase) syncCommits(ctx context.Context, pr *domain.PullRequest) (int, error) {
	commits, err := uc.gateway.ListCommits(ctx, pr.ExternalID)

	saved := 0
	for _, hc := range commits {
		authorID, rerr := uc.resolveAuthor(ctx, pr.TenantID, hc.AuthorExternalID)
		if rerr != nil {
			return saved, rerr
		}

		commit := &domain.Commit{
			TenantID:      pr.TenantID,
			PullRequestID: pr.ID,
			SHA:           hc.SHA,
			Message:       hc.Message,
			AuthorID:      authorID,
			CommittedAt:   hc.Timestamp,
			Additions:     hc.Additions,
			Deletions:     hc.Deletions,
		}
		if uerr := uc.subRepo.UpsertCommit(ctx, commit); uerr != nil {
			return saved, uerr
		}
		saved++
	}

	return saved, err
}

func (uc *BackfillUseCase) syncChangedFiles(ctx context.Context, pr *domain.PullRequest) (int, error) {
	files, err := uc.gateway.ListChangedFiles(ctx, pr.ExternalID)

	saved := 0
	for _, hf := range files {
		file := &domain.ChangedFile{
			TenantID:      pr.TenantID,
			PullRequestID: pr.ID,
			FilePath:      hf.Path,
			Status:        hf.Status,
			Additions:     hf.Additions,
			Deletions:     hf.Deletions,
		}
		if uerr := uc.subRepo.UpsertChangedFile(ctx, file); uerr != nil {
			return saved, uerr
		}
		saved++
	}

	return saved, err
}

func (uc *BackfillUseCase) syncCheckRuns(ctx context.Context, pr *domain.PullRequest) (int, error) {
	runs, err := uc.gateway.ListCheckRuns(ctx, pr.HeadRef)

	saved := 0
	for _, hr := range runs {
		run := &domain.CheckRun{
			TenantID:      pr.TenantID,
			PullRequestID: pr.ID,
			ExternalID:    hr.ExternalID,
			Name:          hr.Name,
			Status:        hr.Status,
			Conclusion:    hr.Conclusion,
			StartedAt:     hr.StartedAt,
			CompletedAt:   hr.CompletedAt,
		}
		if uerr := uc.subRepo.UpsertCheckRun(ctx, run); uerr != nil {
			return saved, uerr
		}
		saved++
	}

	return saved, err
}

func (uc *BackfillUseCase) syncComments(ctx context.Context, pr *domain.PullRequest, kind string) (int, error) {
	var comments []domain.HostComment
	var err error
	if kind == domain.CommentKindInline {
		comments, err = uc.gateway.ListInlineComments(ctx, pr.ExternalID)
	} else {
		comments, err = uc.gateway.ListGeneralComments(ctx, pr.ExternalID)
	}

	saved := 0
	for _, hc := range comments {
		authorID, rerr := uc.resolveAuthor(ctx, pr.TenantID, hc.AuthorExternalID)
		if rerr != nil {
			return saved, rerr
		}

		comment := &domain.ReviewComment{
			TenantID:      pr.TenantID,
			PullRequestID: pr.ID,
			ExternalID:    hc.ExternalID,
			Kind:          kind,
			AuthorID:      authorID,
			Body:          hc.Body,
			InReplyTo:     hc.InReplyTo,
			PostedAt:      hc.CreatedAt,
		}
		if kind == domain.CommentKindInline {
			path := hc.Path
			line := hc.Line
			comment.FilePath = &path
			comment.Line = &line
		}

		if uerr := uc.subRepo.UpsertComment(ctx, comment); uerr != nil {
			return saved, uerr
		}
		saved++
	}

	return saved, err
}

func (uc *BackfillUseCase) resolveAuthor(ctx context.Context, tenantID int64, externalUserID string) (*int64, error) {
	if externalUserID == "" {
		return nil, nil
	}

	member, err := uc.memberRepo.Resolve(ctx, tenantID, externalUserID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, nil
	}

	return &member.ID, nil
}
