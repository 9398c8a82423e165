package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"pr-insights-service/internal/domain"

	"github.com/google/go-github/v57/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const perPage = 100

// Client реализует domain.HostGateway поверх read API GitHub.
// Все пять коллекций пагинируются до исчерпания либо до предела maxPages;
// клиентский rate limiter сглаживает нагрузку, а сигнал исчерпания квоты
// хоста поднимается как повторяемая ошибка.
type Client struct {
	gh       *github.Client
	owner    string
	repo     string
	limiter  *rate.Limiter
	maxPages int
	logger   *logrus.Logger
}

// NewClient создает клиента read API хоста c bearer-токеном.
func NewClient(token, owner, repo string, maxPages int, logger *logrus.Logger) *Client {
	// GitHub отдает 5000 запросов/час; держим консервативный 1 rps.
	limiter := rate.NewLimiter(rate.Every(time.Second), 1)

	return &Client{
		gh:       github.NewClient(nil).WithAuthToken(token),
		owner:    owner,
		repo:     repo,
		limiter:  limiter,
		maxPages: maxPages,
		logger:   logger,
	}
}

// ListCommits возвращает все коммиты пул-реквеста. Статистика строк
// добирается отдельным запросом на коммит: списочный endpoint ее не отдает.
func (c *Client) ListCommits(ctx context.Context, prNumber int64) ([]domain.HostCommit, error) {
	opts := &github.ListOptions{PerPage: perPage}

	var out []domain.HostCommit
	pages := 0
	for {
		if err := c.wait(ctx); err != nil {
			return out, err
		}

		commits, resp, err := c.gh.PullRequests.ListCommits(ctx, c.owner, c.repo, int(prNumber), opts)
		if err != nil {
			return out, classifyHostError(err)
		}

		for _, rc := range commits {
			full, err := c.fetchCommitStats(ctx, rc.GetSHA())
			if err != nil {
				return out, err
			}
			out = append(out, full)
		}

		if done, err := c.advance(resp, &pages, &opts.Page); done || err != nil {
			return out, err
		}
	}
}

func (c *Client) fetchCommitStats(ctx context.Context, sha string) (domain.HostCommit, error) {
	if err := c.wait(ctx); err != nil {
		return domain.HostCommit{}, err
	}

	commit, _, err := c.gh.Repositories.GetCommit(ctx, c.owner, c.repo, sha, nil)
	if err != nil {
		return domain.HostCommit{}, classifyHostError(err)
	}

	return domain.HostCommit{
		SHA:              commit.GetSHA(),
		Message:          commit.GetCommit().GetMessage(),
		AuthorExternalID: commit.GetAuthor().GetLogin(),
		Timestamp:        commit.GetCommit().GetAuthor().GetDate().Time,
		Additions:        commit.GetStats().GetAdditions(),
		Deletions:        commit.GetStats().GetDeletions(),
	}, nil
}

// ListChangedFiles возвращает все измененные файлы пул-реквеста.
func (c *Client) ListChangedFiles(ctx context.Context, prNumber int64) ([]domain.HostFile, error) {
	opts := &github.ListOptions{PerPage: perPage}

	var out []domain.HostFile
	pages := 0
	for {
		if err := c.wait(ctx); err != nil {
			return out, err
		}

		files, resp, err := c.gh.PullRequests.ListFiles(ctx, c.owner, c.repo, int(prNumber), opts)
		if err != nil {
			return out, classifyHostError(err)
		}

		for _, f := range files {
			out = append(out, domain.HostFile{
				Path:      f.GetFilename(),
				Status:    f.GetStatus(),
				Additions: f.GetAdditions(),
				Deletions: f.GetDeletions(),
			})
		}

		if done, err := c.advance(resp, &pages, &opts.Page); done || err != nil {
			return out, err
		}
	}
}

// ListCheckRuns возвращает все запуски CI-проверок для head ref пул-реквеста.
func (c *Client) ListCheckRuns(ctx context.Context, headRef string) ([]domain.HostCheckRun, error) {
	opts := &github.ListCheckRunsOptions{
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	var out []domain.HostCheckRun
	pages := 0
	for {
		if err := c.wait(ctx); err != nil {
			return out, err
		}

		results, resp, err := c.gh.Checks.ListCheckRunsForRef(ctx, c.owner, c.repo, headRef, opts)
		if err != nil {
			return out, classifyHostError(err)
		}

		for _, cr := range results.CheckRuns {
			run := domain.HostCheckRun{
				ExternalID: cr.GetID(),
				Name:       cr.GetName(),
				Status:     cr.GetStatus(),
				Conclusion: cr.GetConclusion(),
			}
			if cr.StartedAt != nil {
				t := cr.GetStartedAt().Time
				run.StartedAt = &t
			}
			if cr.CompletedAt != nil {
				t := cr.GetCompletedAt().Time
				run.CompletedAt = &t
			}
			out = append(out, run)
		}

		if done, err := c.advance(resp, &pages, &opts.Page); done || err != nil {
			return out, err
		}
	}
}

// ListGeneralComments возвращает комментарии общей ветки обсуждения PR.
func (c *Client) ListGeneralComments(ctx context.Context, prNumber int64) ([]domain.HostComment, error) {
	opts := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	var out []domain.HostComment
	pages := 0
	for {
		if err := c.wait(ctx); err != nil {
			return out, err
		}

		comments, resp, err := c.gh.Issues.ListComments(ctx, c.owner, c.repo, int(prNumber), opts)
		if err != nil {
			return out, classifyHostError(err)
		}

		for _, cm := range comments {
			out = append(out, domain.HostComment{
				ExternalID:       cm.GetID(),
				AuthorExternalID: cm.GetUser().GetLogin(),
				Body:             cm.GetBody(),
				CreatedAt:        cm.GetCreatedAt().Time,
			})
		}

		if done, err := c.advance(resp, &pages, &opts.ListOptions.Page); done || err != nil {
			return out, err
		}
	}
}

// ListInlineComments возвращает inline-комментарии к коду пул-реквеста.
func (c *Client) ListInlineComments(ctx context.Context, prNumber int64) ([]domain.HostComment, error) {
	opts := &github.PullRequestListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	var out []domain.HostComment
	pages := 0
	for {
		if err := c.wait(ctx); err != nil {
			return out, err
		}

		comments, resp, err := c.gh.PullRequests.ListComments(ctx, c.owner, c.repo, int(prNumber), opts)
		if err != nil {
			return out, classifyHostError(err)
		}

		for _, cm := range comments {
			hc := domain.HostComment{
				ExternalID:       cm.GetID(),
				AuthorExternalID: cm.GetUser().GetLogin(),
				Body:             cm.GetBody(),
				Path:             cm.GetPath(),
				Line:             cm.GetLine(),
				CreatedAt:        cm.GetCreatedAt().Time,
			}
			if cm.InReplyTo != nil {
				v := cm.GetInReplyTo()
				hc.InReplyTo = &v
			}
			out = append(out, hc)
		}

		if done, err := c.advance(resp, &pages, &opts.ListOptions.Page); done || err != nil {
			return out, err
		}
	}
}

func (c *Client) wait(ctx context.Context) error {
	return c.limiter.Wait(ctx)
}

// advance продвигает пагинацию: следит за пределом страниц, квотой хоста
// и токеном продолжения.
func (c *Client) advance(resp *github.Response, pages, nextPage *int) (bool, error) {
	*pages++

	if resp.Rate.Remaining == 0 {
		return true, fmt.Errorf("%w: quota resets at %s",
			domain.ErrHostRateLimited, resp.Rate.Reset.Time.Format(time.RFC3339))
	}
	if resp.Rate.Remaining < 100 {
		c.logger.WithFields(logrus.Fields{
			"remaining": resp.Rate.Remaining,
			"limit":     resp.Rate.Limit,
		}).Warn("Host rate limit running low")
	}

	if resp.NextPage == 0 {
		return true, nil
	}
	if *pages >= c.maxPages {
		return true, fmt.Errorf("%w: stopped after %d pages", domain.ErrHostPageLimit, *pages)
	}

	*nextPage = resp.NextPage
	return false, nil
}

// classifyHostError приводит ошибки API хоста к доменной таксономии:
// rate limit и 5xx повторяемы, 404 и отказ авторизации терминальны.
func classifyHostError(err error) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return fmt.Errorf("%w: %v", domain.ErrHostRateLimited, err)
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return fmt.Errorf("%w: %v", domain.ErrHostRateLimited, err)
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusNotFound, http.StatusGone:
			return fmt.Errorf("%w: %v", domain.ErrHostNotFound, err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", domain.ErrHostAuthFailed, err)
		}
	}

	return err
}
