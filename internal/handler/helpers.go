package handler

import (
	"net/http"
	"strconv"
	"time"

	"pr-insights-service/internal/domain"

	"github.com/labstack/echo/v4"
)

// TenantHeader несет идентификатор тенанта во всех входящих запросах.
const TenantHeader = "X-Tenant-ID"

// Запросы вебхуков и регистрации участников

type PullRequestEventRequest struct {
	PullRequestID int64      `json:"pull_request_id"`
	Title         string     `json:"title"`
	State         string     `json:"state"`
	Merged        bool       `json:"merged"`
	MergedAt      *time.Time `json:"merged_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	Author        string     `json:"author"`
	Additions     int        `json:"additions"`
	Deletions     int        `json:"deletions"`
	HeadRef       string     `json:"head_ref"`
}

type ReviewEventRequest struct {
	PullRequest PullRequestEventRequest `json:"pull_request"`
	ReviewID    int64                   `json:"review_id"`
	Reviewer    string                  `json:"reviewer"`
	State       string                  `json:"state"`
	SubmittedAt time.Time               `json:"submitted_at"`
}

type RegisterMemberRequest struct {
	ExternalUserID string `json:"external_user_id"`
	Username       string `json:"username"`
}

// Ответы read-only доступа к инсайтам

type PullRequestResponse struct {
	ID         int64      `json:"id"`
	ExternalID int64      `json:"external_id"`
	Title      string     `json:"title"`
	AuthorID   *int64     `json:"author_id,omitempty"`
	State      string     `json:"state"`
	Additions  int        `json:"additions"`
	Deletions  int        `json:"deletions"`
	OpenedAt   time.Time  `json:"opened_at"`
	MergedAt   *time.Time `json:"merged_at,omitempty"`

	ReviewRounds            *int       `json:"review_rounds"`
	AvgFixResponseHours     *float64   `json:"avg_fix_response_hours"`
	CommitsAfterFirstReview *int       `json:"commits_after_first_review"`
	TotalComments           *int       `json:"total_comments"`
	MetricsCalculatedAt     *time.Time `json:"metrics_calculated_at,omitempty"`
	SyncError               *string    `json:"sync_error,omitempty"`
}

type MemberResponse struct {
	ID             int64  `json:"id"`
	ExternalUserID string `json:"external_user_id"`
	Username       string `json:"username"`
}

type TimelineEventResponse struct {
	OffsetSeconds float64   `json:"offset_seconds"`
	At            time.Time `json:"at"`
	Kind          string    `json:"kind"`
	Payload       any       `json:"payload,omitempty"`
}

type CorrelationResponse struct {
	MemberAID           int64     `json:"member_a_id"`
	MemberBID           int64     `json:"member_b_id"`
	PRsReviewedTogether int       `json:"prs_reviewed_together"`
	Agreements          int       `json:"agreements"`
	Disagreements       int       `json:"disagreements"`
	AgreementRate       *float64  `json:"agreement_rate"`
	IsRedundant         bool      `json:"is_redundant"`
	ComputedAt          time.Time `json:"computed_at"`
}

// Вспомогательные функции преобразования доменных моделей в API модели

func toPullRequestEvent(req PullRequestEventRequest) domain.PullRequestEvent {
	return domain.PullRequestEvent{
		ExternalID:       req.PullRequestID,
		Title:            req.Title,
		State:            req.State,
		Merged:           req.Merged,
		MergedAt:         req.MergedAt,
		CreatedAt:        req.CreatedAt,
		AuthorExternalID: req.Author,
		Additions:        req.Additions,
		Deletions:        req.Deletions,
		HeadRef:          req.HeadRef,
	}
}

func toPullRequestResponse(pr *domain.PullRequest) PullRequestResponse {
	return PullRequestResponse{
		ID:         pr.ID,
		ExternalID: pr.ExternalID,
		Title:      pr.Title,
		AuthorID:   pr.AuthorID,
		State:      pr.State,
		Additions:  pr.Additions,
		Deletions:  pr.Deletions,
		OpenedAt:   pr.OpenedAt,
		MergedAt:   pr.MergedAt,

		ReviewRounds:            pr.ReviewRounds,
		AvgFixResponseHours:     pr.AvgFixResponseHours,
		CommitsAfterFirstReview: pr.CommitsAfterFirstReview,
		TotalComments:           pr.TotalComments,
		MetricsCalculatedAt:     pr.MetricsCalculatedAt,
		SyncError:               pr.SyncError,
	}
}

func toTimelineResponse(events []domain.TimelineEvent) []TimelineEventResponse {
	out := make([]TimelineEventResponse, len(events))
	for i, ev := range events {
		out[i] = TimelineEventResponse{
			OffsetSeconds: ev.Offset.Seconds(),
			At:            ev.At,
			Kind:          ev.Kind,
			Payload:       ev.Payload,
		}
	}
	return out
}

func toCorrelationResponses(rows []*domain.ReviewerCorrelation) []CorrelationResponse {
	out := make([]CorrelationResponse, len(rows))
	for i, row := range rows {
		out[i] = CorrelationResponse{
			MemberAID:           row.MemberAID,
			MemberBID:           row.MemberBID,
			PRsReviewedTogether: row.PRsReviewedTogether,
			Agreements:          row.Agreements,
			Disagreements:       row.Disagreements,
			AgreementRate:       row.AgreementRate,
			IsRedundant:         row.IsRedundant,
			ComputedAt:          row.ComputedAt,
		}
	}
	return out
}

func toErrorResponse(code, message string) domain.ErrorResponse {
	return domain.ErrorResponse{
		Error: domain.HTTPError{
			Code:    code,
			Message: message,
		},
	}
}

// tenantFromRequest извлекает идентификатор тенанта из заголовка X-Tenant-ID.
func tenantFromRequest(c echo.Context) (int64, error) {
	raw := c.Request().Header.Get(TenantHeader)
	if raw == "" {
		return 0, domain.ErrInvalidTenantID
	}
	tenantID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || tenantID <= 0 {
		return 0, domain.ErrInvalidTenantID
	}
	return tenantID, nil
}

func getHTTPStatusCode(err error) int {
	switch err {
	// Not Found errors (404)
	case domain.ErrPRNotFound, domain.ErrMemberNotFound:
		return http.StatusNotFound

	// Bad Request errors (400) - валидация
	case domain.ErrInvalidTenantID, domain.ErrInvalidExternalID,
		domain.ErrInvalidEventState, domain.ErrInvalidMemberID,
		domain.ErrInvalidReviewID:
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}
