package domain

import (
	"context"
	"time"
)

// Commit представляет коммит пул-реквеста. Уникален в рамках (tenant_id, sha).
type Commit struct {
	ID            int64
	TenantID      int64
	PullRequestID int64
	SHA           string
	Message       string
	AuthorID      *int64
	CommittedAt   time.Time
	Additions     int
	Deletions     int
}

// Review представляет решение ревьювера по пул-реквесту.
type Review struct {
	ID            int64
	TenantID      int64
	PullRequestID int64
	ExternalID    int64
	ReviewerID    *int64
	State         string
	SubmittedAt   time.Time
}

// Классы решений ревьювера.
const (
	ReviewApproved         = "approved"
	ReviewChangesRequested = "changes_requested"
	ReviewCommented        = "commented"
)

// Виды комментариев: общая ветка обсуждения и inline-комментарий к коду.
const (
	CommentKindGeneral = "general"
	CommentKindInline  = "inline"
)

// ReviewComment представляет комментарий к пул-реквесту обоих видов.
// Уникален в рамках (tenant_id, kind, external_id): общие и inline
// комментарии нумеруются хостом в разных пространствах идентификаторов.
type ReviewComment struct {
	ID            int64
	TenantID      int64
	PullRequestID int64
	ExternalID    int64
	Kind          string
	AuthorID      *int64
	Body          string
	FilePath      *string
	Line          *int
	InReplyTo     *int64
	PostedAt      time.Time
}

// CheckRun представляет запуск CI-проверки для пул-реквеста.
type CheckRun struct {
	ID            int64
	TenantID      int64
	PullRequestID int64
	ExternalID    int64
	Name          string
	Status        string
	Conclusion    string
	StartedAt     *time.Time
	CompletedAt   *time.Time
}

// ChangedFile представляет измененный файл пул-реквеста.
type ChangedFile struct {
	ID            int64
	TenantID      int64
	PullRequestID int64
	FilePath      string
	Status        string
	Additions     int
	Deletions     int
}

// SubEventRepository определяет контракт хранилища суб-событий.
// Все записи идемпотентны: повторный апсерт с тем же внешним ключом
// перезаписывает изменяемые поля и не создает дублей.
type SubEventRepository interface {
	UpsertCommit(ctx context.Context, c *Commit) error
	UpsertReview(ctx context.Context, r *Review) error
	UpsertComment(ctx context.Context, c *ReviewComment) error
	UpsertCheckRun(ctx context.Context, c *CheckRun) error
	UpsertChangedFile(ctx context.Context, f *ChangedFile) error

	ListCommitsByPR(ctx context.Context, prID int64) ([]*Commit, error)
	ListReviewsByPR(ctx context.Context, prID int64) ([]*Review, error)
	ListCommentsByPR(ctx context.Context, prID int64) ([]*ReviewComment, error)
	ListCheckRunsByPR(ctx context.Context, prID int64) ([]*CheckRun, error)
	ListReviewsByTenant(ctx context.Context, tenantID int64) ([]*Review, error)
}
