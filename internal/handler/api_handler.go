package handler

import (
	"pr-insights-service/internal/domain"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type APIHandler struct {
	*WebhookHandler
	*InsightsHandler
}

func NewAPIHandler(
	ingestUseCase domain.IngestUseCase,
	prRepo domain.PullRequestRepository,
	timelineUseCase domain.TimelineUseCase,
	correlationUseCase domain.CorrelationUseCase,
	logger *logrus.Logger,
) *APIHandler {

	return &APIHandler{
		WebhookHandler:  NewWebhookHandler(ingestUseCase, logger),
		InsightsHandler: NewInsightsHandler(prRepo, timelineUseCase, correlationUseCase, logger),
	}
}

// RegisterRoutes привязывает обработчики к маршрутам.
func (h *APIHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/webhook/pullRequest", h.PostPullRequestEvent)
	e.POST("/webhook/review", h.PostReviewEvent)
	e.POST("/members", h.PostMember)

	e.GET("/insights/pullRequest", h.GetPullRequest)
	e.GET("/insights/timeline", h.GetTimeline)
	e.GET("/insights/correlations", h.GetCorrelations)
}
