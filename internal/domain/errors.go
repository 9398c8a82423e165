package domain

import "errors"

// Domain errors (для бизнес-логики)
var (
	// Validation errors
	ErrInvalidTenantID   = errors.New("invalid tenant id")
	ErrInvalidExternalID = errors.New("invalid external id")
	ErrInvalidEventState = errors.New("invalid event state")
	ErrInvalidMemberID   = errors.New("invalid member external user id")
	ErrInvalidReviewID   = errors.New("invalid review external id")

	// PR errors
	ErrPRNotFound     = errors.New("pull request not found")
	ErrMemberNotFound = errors.New("member not found")

	// External host errors
	ErrHostRateLimited = errors.New("host rate limit exhausted")
	ErrHostNotFound    = errors.New("item deleted upstream")
	ErrHostAuthFailed  = errors.New("host authorization failed")
	ErrHostPageLimit   = errors.New("pagination bound exceeded")
)

// IsPermanentHostError сообщает, что ошибка внешнего хоста не подлежит
// повтору: элемент удален на стороне хоста, не пройдена авторизация либо
// превышен предел страниц (повтор уперся бы в тот же предел).
func IsPermanentHostError(err error) bool {
	return errors.Is(err, ErrHostNotFound) ||
		errors.Is(err, ErrHostAuthFailed) ||
		errors.Is(err, ErrHostPageLimit)
}

// IsTransientHostError сообщает, что ошибку имеет смысл повторить с бэкоффом.
func IsTransientHostError(err error) bool {
	return err != nil && !IsPermanentHostError(err)
}

// HTTPError для ответов API
type HTTPError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error HTTPError `json:"error"`
}

// Маппинг domain ошибок в HTTP ошибки
var ErrorMapping = map[error]HTTPError{
	ErrInvalidTenantID:   {Code: "INVALID_TENANT", Message: "tenant id is missing or not a number"},
	ErrInvalidExternalID: {Code: "INVALID_EXTERNAL_ID", Message: "external id must be positive"},
	ErrInvalidEventState: {Code: "INVALID_STATE", Message: "unknown lifecycle or review state"},
	ErrInvalidMemberID:   {Code: "INVALID_MEMBER", Message: "external user id is required"},
	ErrInvalidReviewID:   {Code: "INVALID_REVIEW_ID", Message: "review external id must be positive"},
	ErrPRNotFound:        {Code: "NOT_FOUND", Message: "pull request not found"},
	ErrMemberNotFound:    {Code: "NOT_FOUND", Message: "member not found"},
}

// ToHTTPError преобразует domain ошибку в HTTP ошибку
func ToHTTPError(err error) (HTTPError, bool) {
	httpErr, exists := ErrorMapping[err]
	return httpErr, exists
}
