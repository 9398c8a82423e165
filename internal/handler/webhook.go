package handler

import (
	"net/http"

	"pr-insights-service/internal/domain"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// WebhookHandler обрабатывает входящие real-time уведомления хоста
// и регистрацию участников.
type WebhookHandler struct {
	*BaseHandler
	ingestUseCase domain.IngestUseCase
}

// NewWebhookHandler создает новый экземпляр WebhookHandler.
func NewWebhookHandler(ingestUseCase domain.IngestUseCase, logger *logrus.Logger) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler:   NewBaseHandler(logger),
		ingestUseCase: ingestUseCase,
	}
}

// PostPullRequestEvent обрабатывает уведомление о жизненном цикле PR
func (h *WebhookHandler) PostPullRequestEvent(c echo.Context) error {
	tenantID, err := tenantFromRequest(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, toErrorResponse("INVALID_TENANT", err.Error()))
	}

	var req PullRequestEventRequest
	if err := c.Bind(&req); err != nil {
		h.logger.WithError(err).Warn("Failed to bind pull request event")
		return c.JSON(http.StatusBadRequest, toErrorResponse("INVALID_REQUEST", err.Error()))
	}

	logEntry := h.logRequest(c, "ingest_pull_request").WithFields(logrus.Fields{
		"tenant_id":   tenantID,
		"external_id": req.PullRequestID,
		"state":       req.State,
	})
	logEntry.Info("Ingesting pull request event")

	pr, err := h.ingestUseCase.IngestPullRequest(c.Request().Context(), tenantID, toPullRequestEvent(req))
	if err != nil {
		logEntry.WithError(err).Error("Failed to ingest pull request event")
		if httpErr, exists := domain.ToHTTPError(err); exists {
			return c.JSON(getHTTPStatusCode(err), domain.ErrorResponse{Error: httpErr})
		}
		return c.JSON(http.StatusInternalServerError, toErrorResponse("INTERNAL_ERROR", err.Error()))
	}

	logEntry.WithField("pull_request_id", pr.ID).Info("Pull request event ingested")
	return c.JSON(http.StatusOK, map[string]interface{}{
		"pull_request": toPullRequestResponse(pr),
	})
}

// PostReviewEvent обрабатывает уведомление о решении ревьювера
func (h *WebhookHandler) PostReviewEvent(c echo.Context) error {
	tenantID, err := tenantFromRequest(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, toErrorResponse("INVALID_TENANT", err.Error()))
	}

	var req ReviewEventRequest
	if err := c.Bind(&req); err != nil {
		h.logger.WithError(err).Warn("Failed to bind review event")
		return c.JSON(http.StatusBadRequest, toErrorResponse("INVALID_REQUEST", err.Error()))
	}

	logEntry := h.logRequest(c, "ingest_review").WithFields(logrus.Fields{
		"tenant_id":   tenantID,
		"external_id": req.PullRequest.PullRequestID,
		"review_id":   req.ReviewID,
		"state":       req.State,
	})
	logEntry.Info("Ingesting review event")

	ev := domain.ReviewEvent{
		PullRequest:        toPullRequestEvent(req.PullRequest),
		ReviewExternalID:   req.ReviewID,
		ReviewerExternalID: req.Reviewer,
		State:              req.State,
		SubmittedAt:        req.SubmittedAt,
	}

	pr, err := h.ingestUseCase.IngestReview(c.Request().Context(), tenantID, ev)
	if err != nil {
		logEntry.WithError(err).Error("Failed to ingest review event")
		if httpErr, exists := domain.ToHTTPError(err); exists {
			return c.JSON(getHTTPStatusCode(err), domain.ErrorResponse{Error: httpErr})
		}
		return c.JSON(http.StatusInternalServerError, toErrorResponse("INTERNAL_ERROR", err.Error()))
	}

	logEntry.WithField("pull_request_id", pr.ID).Info("Review event ingested")
	return c.JSON(http.StatusOK, map[string]interface{}{
		"pull_request": toPullRequestResponse(pr),
	})
}

// PostMember регистрирует участника в справочнике тенанта
func (h *WebhookHandler) PostMember(c echo.Context) error {
	tenantID, err := tenantFromRequest(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, toErrorResponse("INVALID_TENANT", err.Error()))
	}

	var req RegisterMemberRequest
	if err := c.Bind(&req); err != nil {
		h.logger.WithError(err).Warn("Failed to bind register member request")
		return c.JSON(http.StatusBadRequest, toErrorResponse("INVALID_REQUEST", err.Error()))
	}

	logEntry := h.logRequest(c, "register_member").WithFields(logrus.Fields{
		"tenant_id":        tenantID,
		"external_user_id": req.ExternalUserID,
	})
	logEntry.Info("Registering member")

	member, err := h.ingestUseCase.RegisterMember(c.Request().Context(), tenantID, req.ExternalUserID, req.Username)
	if err != nil {
		logEntry.WithError(err).Error("Failed to register member")
		if httpErr, exists := domain.ToHTTPError(err); exists {
			return c.JSON(getHTTPStatusCode(err), domain.ErrorResponse{Error: httpErr})
		}
		return c.JSON(http.StatusInternalServerError, toErrorResponse("INTERNAL_ERROR", err.Error()))
	}

	logEntry.WithField("member_id", member.ID).Info("Member registered")
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"member": MemberResponse{
			ID:             member.ID,
			ExternalUserID: member.ExternalUserID,
			Username:       member.Username,
		},
	})
}
