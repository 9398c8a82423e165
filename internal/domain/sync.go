package domain

import (
	"context"
	"time"
)

// Статусы задачи бэкфилла.
const (
	SyncPending  = "pending"
	SyncRunning  = "running"
	SyncComplete = "complete"
	SyncError    = "error"
)

// SyncTask представляет одну запись долговечной очереди бэкфилла.
type SyncTask struct {
	ID            int64
	TenantID      int64
	PullRequestID int64
	Status        string
	Attempts      int
	LastError     *string
	ClaimedBy     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Виды суб-выборок бэкфилла.
const (
	FetchCommits         = "commits"
	FetchFiles           = "files"
	FetchCheckRuns       = "check_runs"
	FetchGeneralComments = "general_comments"
	FetchInlineComments  = "inline_comments"
)

// SyncFetchError описывает отказ одной суб-выборки бэкфилла.
type SyncFetchError struct {
	Kind string
	Err  error
}

func (e SyncFetchError) Error() string { return e.Kind + ": " + e.Err.Error() }

func (e SyncFetchError) Unwrap() error { return e.Err }

// BackfillResult агрегирует итог одного прогона бэкфилла:
// количество сохраненных записей по видам и список отказов суб-выборок.
type BackfillResult struct {
	Commits         int
	Files           int
	CheckRuns       int
	GeneralComments int
	InlineComments  int
	Errors          []SyncFetchError
}

// TransientErrors возвращает отказы, которые имеет смысл повторить.
// Ошибки постоянного характера (404, не пройдена авторизация) исключаются.
func (r *BackfillResult) TransientErrors() []SyncFetchError {
	var out []SyncFetchError
	for _, e := range r.Errors {
		if !IsPermanentHostError(e.Err) {
			out = append(out, e)
		}
	}
	return out
}

// SyncTaskRepository определяет контракт долговечной очереди бэкфилла.
type SyncTaskRepository interface {
	// Enqueue ставит задачу в очередь; повторная постановка при уже
	// ожидающей задаче для того же PR не создает дубликата.
	Enqueue(ctx context.Context, tenantID, pullRequestID int64) error
	// ClaimNext атомарно захватывает следующую ожидающую задачу
	// (FOR UPDATE SKIP LOCKED); возвращает (nil, nil) при пустой очереди.
	ClaimNext(ctx context.Context, claimedBy string) (*SyncTask, error)
	MarkComplete(ctx context.Context, id int64, attempts int) error
	MarkError(ctx context.Context, id int64, attempts int, message string) error
}

// HostCommit описывает коммит в том виде, в каком его отдает read API хоста.
type HostCommit struct {
	SHA              string
	Message          string
	AuthorExternalID string
	Timestamp        time.Time
	Additions        int
	Deletions        int
}

// HostFile описывает измененный файл из read API хоста.
type HostFile struct {
	Path      string
	Status    string
	Additions int
	Deletions int
}

// HostCheckRun описывает запуск CI-проверки из read API хоста.
type HostCheckRun struct {
	ExternalID  int64
	Name        string
	Status      string
	Conclusion  string
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// HostComment описывает комментарий из read API хоста (общий или inline).
type HostComment struct {
	ExternalID       int64
	AuthorExternalID string
	Body             string
	Path             string
	Line             int
	InReplyTo        *int64
	CreatedAt        time.Time
}

// HostGateway определяет контракт read API внешнего хоста: пять логически
// независимых пагинированных коллекций на один рабочий элемент. Каждая
// реализация обязана запрашивать максимальный размер страницы и следовать
// токенам продолжения до исчерпания либо до настроенного предела страниц.
type HostGateway interface {
	ListCommits(ctx context.Context, prNumber int64) ([]HostCommit, error)
	ListChangedFiles(ctx context.Context, prNumber int64) ([]HostFile, error)
	ListCheckRuns(ctx context.Context, headRef string) ([]HostCheckRun, error)
	ListGeneralComments(ctx context.Context, prNumber int64) ([]HostComment, error)
	ListInlineComments(ctx context.Context, prNumber int64) ([]HostComment, error)
}
