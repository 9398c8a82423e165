package usecase

import (
	"context"

	"pr-insights-service/internal/domain"

	"github.com/sirupsen/logrus"
)

// IngestUseCase реализует бизнес-логику приема real-time уведомлений.
// Уведомления частичны: они несут только те поля, которые хост включил
// в событие, поэтому каждое сводится к идемпотентному апсерту.
type IngestUseCase struct {
	prRepo     domain.PullRequestRepository
	memberRepo domain.MemberRepository
	subRepo    domain.SubEventRepository
	taskRepo   domain.SyncTaskRepository
	logger     *logrus.Logger
}

// NewIngestUseCase создает новый экземпляр IngestUseCase.
func NewIngestUseCase(
	prRepo domain.PullRequestRepository,
	memberRepo domain.MemberRepository,
	subRepo domain.SubEventRepository,
	taskRepo domain.SyncTaskRepository,
	logger *logrus.Logger,
) domain.IngestUseCase {
	return &IngestUseCase{
		prRepo:     prRepo,
		memberRepo: memberRepo,
		subRepo:    subRepo,
		taskRepo:   taskRepo,
		logger:     logger,
	}
}

// IngestPullRequest принимает уведомление о жизненном цикле PR.
// Переход в состояние merged ставит задачу бэкфилла в долговечную очередь;
// отказ постановки логируется и не возвращается вызывающему.
func (uc *IngestUseCase) IngestPullRequest(ctx context.Context, tenantID int64, ev domain.PullRequestEvent) (*domain.PullRequest, error) {
	// Валидация входных данных
	if tenantID <= 0 {
		return nil, domain.ErrInvalidTenantID
	}
	if ev.ExternalID <= 0 {
		return nil, domain.ErrInvalidExternalID
	}

	pr, err := uc.upsertFromEvent(ctx, tenantID, ev)
	if err != nil {
		return nil, err
	}

	// Переход в merged — единственный триггер бэкфилла со стороны событий
	if ev.State == domain.PRStateMerged || ev.Merged {
		if err := uc.taskRepo.Enqueue(ctx, tenantID, pr.ID); err != nil {
			uc.logger.WithFields(logrus.Fields{
				"tenant_id":       tenantID,
				"pull_request_id": pr.ID,
				"error":           err.Error(),
			}).Error("Failed to enqueue backfill task")
		}
	}

	return pr, nil
}

// IngestReview принимает уведомление о решении ревьювера. Сначала
// апсертится родительский PR из вложенного события (решение может
// прийти раньше уведомления об открытии), затем само решение.
func (uc *IngestUseCase) IngestReview(ctx context.Context, tenantID int64, ev domain.ReviewEvent) (*domain.PullRequest, error) {
	// Валидация входных данных
	if tenantID <= 0 {
		return nil, domain.ErrInvalidTenantID
	}
	if ev.ReviewExternalID <= 0 {
		return nil, domain.ErrInvalidReviewID
	}
	switch ev.State {
	case domain.ReviewApproved, domain.ReviewChangesRequested, domain.ReviewCommented:
	default:
		return nil, domain.ErrInvalidEventState
	}

	// 1. Гарантируем существование родительского PR
	pr, err := uc.upsertFromEvent(ctx, tenantID, ev.PullRequest)
	if err != nil {
		return nil, err
	}

	// 2. Разрешаем автора решения; промах не блокирует запись
	reviewerID, err := uc.resolveAuthor(ctx, tenantID, ev.ReviewerExternalID)
	if err != nil {
		return nil, err
	}

	review := &domain.Review{
		TenantID:      tenantID,
		PullRequestID: pr.ID,
		ExternalID:    ev.ReviewExternalID,
		ReviewerID:    reviewerID,
		State:         ev.State,
		SubmittedAt:   ev.SubmittedAt,
	}
	if err := uc.subRepo.UpsertReview(ctx, review); err != nil {
		return nil, err
	}

	return pr, nil
}

// RegisterMember регистрирует участника в справочнике тенанта.
func (uc *IngestUseCase) RegisterMember(ctx context.Context, tenantID int64, externalUserID, username string) (*domain.Member, error) {
	if tenantID <= 0 {
		return nil, domain.ErrInvalidTenantID
	}
	if externalUserID == "" {
		return nil, domain.ErrInvalidMemberID
	}

	return uc.memberRepo.Upsert(ctx, &domain.Member{
		TenantID:       tenantID,
		ExternalUserID: externalUserID,
		Username:       username,
	})
}

func (uc *IngestUseCase) upsertFromEvent(ctx context.Context, tenantID int64, ev domain.PullRequestEvent) (*domain.PullRequest, error) {
	authorID, err := uc.resolveAuthor(ctx, tenantID, ev.AuthorExternalID)
	if err != nil {
		return nil, err
	}

	state := ev.State
	if ev.Merged {
		state = domain.PRStateMerged
	}
	if state == "" {
		state = domain.PRStateOpen
	}

	pr := &domain.PullRequest{
		TenantID:   tenantID,
		ExternalID: ev.ExternalID,
		Title:      ev.Title,
		AuthorID:   authorID,
		State:      state,
		HeadRef:    ev.HeadRef,
		Additions:  ev.Additions,
		Deletions:  ev.Deletions,
		OpenedAt:   ev.CreatedAt,
		MergedAt:   ev.MergedAt,
	}

	return uc.prRepo.Upsert(ctx, pr)
}

// resolveAuthor возвращает внутренний id участника либо nil при промахе.
func (uc *IngestUseCase) resolveAuthor(ctx context.Context, tenantID int64, externalUserID string) (*int64, error) {
	if externalUserID == "" {
		return nil, nil
	}

	member, err := uc.memberRepo.Resolve(ctx, tenantID, externalUserID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		uc.logger.WithFields(logrus.Fields{
			"tenant_id":        tenantID,
			"external_user_id": externalUserID,
		}).Debug("Author not found in member directory, keeping authorship unresolved")
		return nil, nil
	}

	return &member.ID, nil
}
