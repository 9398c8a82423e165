package handler

import (
	"net/http"
	"strconv"

	"pr-insights-service/internal/domain"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// InsightsHandler обслуживает read-only доступ к производным данным:
// рабочий элемент с метриками, таймлайн, корреляции ревьюверов.
// Мутации снаружи ядра недоступны.
type InsightsHandler struct {
	*BaseHandler
	prRepo             domain.PullRequestRepository
	timelineUseCase    domain.TimelineUseCase
	correlationUseCase domain.CorrelationUseCase
}

// NewInsightsHandler создает новый экземпляр InsightsHandler.
func NewInsightsHandler(
	prRepo domain.PullRequestRepository,
	timelineUseCase domain.TimelineUseCase,
	correlationUseCase domain.CorrelationUseCase,
	logger *logrus.Logger,
) *InsightsHandler {
	return &InsightsHandler{
		BaseHandler:        NewBaseHandler(logger),
		prRepo:             prRepo,
		timelineUseCase:    timelineUseCase,
		correlationUseCase: correlationUseCase,
	}
}

// GetPullRequest возвращает рабочий элемент с производными метриками
// по внешнему идентификатору в рамках тенанта
func (h *InsightsHandler) GetPullRequest(c echo.Context) error {
	tenantID, err := tenantFromRequest(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, toErrorResponse("INVALID_TENANT", err.Error()))
	}

	externalID, err := strconv.ParseInt(c.QueryParam("external_id"), 10, 64)
	if err != nil || externalID <= 0 {
		return c.JSON(http.StatusBadRequest, toErrorResponse("INVALID_EXTERNAL_ID", "external_id must be a positive number"))
	}

	logEntry := h.logRequest(c, "get_pull_request").WithFields(logrus.Fields{
		"tenant_id":   tenantID,
		"external_id": externalID,
	})

	pr, err := h.prRepo.GetByExternalID(c.Request().Context(), tenantID, externalID)
	if err != nil {
		logEntry.WithError(err).Warn("Failed to get pull request")
		if httpErr, exists := domain.ToHTTPError(err); exists {
			return c.JSON(getHTTPStatusCode(err), domain.ErrorResponse{Error: httpErr})
		}
		return c.JSON(http.StatusInternalServerError, toErrorResponse("INTERNAL_ERROR", err.Error()))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"pull_request": toPullRequestResponse(pr),
	})
}

// GetTimeline возвращает таймлайн рабочего элемента; при recent=true
// отдается урезанная версия для потребителей с ограниченным контекстом
func (h *InsightsHandler) GetTimeline(c echo.Context) error {
	tenantID, err := tenantFromRequest(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, toErrorResponse("INVALID_TENANT", err.Error()))
	}

	externalID, err := strconv.ParseInt(c.QueryParam("external_id"), 10, 64)
	if err != nil || externalID <= 0 {
		return c.JSON(http.StatusBadRequest, toErrorResponse("INVALID_EXTERNAL_ID", "external_id must be a positive number"))
	}

	logEntry := h.logRequest(c, "get_timeline").WithFields(logrus.Fields{
		"tenant_id":   tenantID,
		"external_id": externalID,
	})

	pr, err := h.prRepo.GetByExternalID(c.Request().Context(), tenantID, externalID)
	if err != nil {
		logEntry.WithError(err).Warn("Failed to get pull request for timeline")
		if httpErr, exists := domain.ToHTTPError(err); exists {
			return c.JSON(getHTTPStatusCode(err), domain.ErrorResponse{Error: httpErr})
		}
		return c.JSON(http.StatusInternalServerError, toErrorResponse("INTERNAL_ERROR", err.Error()))
	}

	var events []domain.TimelineEvent
	if c.QueryParam("recent") == "true" {
		events, err = h.timelineUseCase.RecentTimeline(c.Request().Context(), pr.ID)
	} else {
		events, err = h.timelineUseCase.BuildTimeline(c.Request().Context(), pr.ID)
	}
	if err != nil {
		logEntry.WithError(err).Error("Failed to build timeline")
		return c.JSON(http.StatusInternalServerError, toErrorResponse("INTERNAL_ERROR", err.Error()))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"pull_request_id": pr.ID,
		"timeline":        toTimelineResponse(events),
	})
}

// GetCorrelations возвращает кэшированные корреляции ревьюверов тенанта
func (h *InsightsHandler) GetCorrelations(c echo.Context) error {
	tenantID, err := tenantFromRequest(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, toErrorResponse("INVALID_TENANT", err.Error()))
	}

	logEntry := h.logRequest(c, "get_correlations").WithField("tenant_id", tenantID)

	rows, err := h.correlationUseCase.ListForTenant(c.Request().Context(), tenantID)
	if err != nil {
		logEntry.WithError(err).Error("Failed to list correlations")
		if httpErr, exists := domain.ToHTTPError(err); exists {
			return c.JSON(getHTTPStatusCode(err), domain.ErrorResponse{Error: httpErr})
		}
		return c.JSON(http.StatusInternalServerError, toErrorResponse("INTERNAL_ERROR", err.Error()))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"correlations": toCorrelationResponses(rows),
	})
}
