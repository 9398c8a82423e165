package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"pr-insights-service/internal/domain"
	"pr-insights-service/internal/reporting"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"
)

// Orchestrator обслуживает долговечную очередь бэкфилла: пул воркеров
// опрашивает очередь, захватывает задачи через FOR UPDATE SKIP LOCKED
// и прогоняет бэкфилл с экспоненциальным бэкоффом на повторяемых ошибках.
// Терминальные отказы записываются в задачу и в sync_error рабочего
// элемента и отдаются сборщику ошибок; в путь-триггер они не возвращаются.
type Orchestrator struct {
	taskRepo domain.SyncTaskRepository
	prRepo   domain.PullRequestRepository
	backfill domain.BackfillUseCase
	reporter reporting.Reporter
	logger   *logrus.Logger

	workerCount  int
	pollInterval time.Duration
	backoffBase  time.Duration
	maxRetries   int

	wg sync.WaitGroup
}

// NewOrchestrator создает новый экземпляр Orchestrator.
func NewOrchestrator(
	taskRepo domain.SyncTaskRepository,
	prRepo domain.PullRequestRepository,
	backfill domain.BackfillUseCase,
	reporter reporting.Reporter,
	logger *logrus.Logger,
	workerCount int,
	pollInterval time.Duration,
	backoffBase time.Duration,
	maxRetries int,
) *Orchestrator {
	return &Orchestrator{
		taskRepo:     taskRepo,
		prRepo:       prRepo,
		backfill:     backfill,
		reporter:     reporter,
		logger:       logger,
		workerCount:  workerCount,
		pollInterval: pollInterval,
		backoffBase:  backoffBase,
		maxRetries:   maxRetries,
	}
}

// Start запускает пул воркеров. Возврат немедленный; воркеры работают
// до отмены ctx.
func (o *Orchestrator) Start(ctx context.Context) {
	for i := 0; i < o.workerCount; i++ {
		workerID := fmt.Sprintf("worker-%s", uuid.NewString()[:8])
		o.wg.Add(1)
		go o.runWorker(ctx, workerID)
	}
}

// Wait блокируется до завершения всех воркеров.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) runWorker(ctx context.Context, workerID string) {
	defer o.wg.Done()

	log := o.logger.WithField("worker_id", workerID)
	log.Info("Backfill worker started")

	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Backfill worker stopped")
			return
		case <-ticker.C:
			// Вычерпываем очередь, потом возвращаемся к опросу
			for {
				task, err := o.taskRepo.ClaimNext(ctx, workerID)
				if err != nil {
					if !errors.Is(err, context.Canceled) {
						log.WithField("error", err.Error()).Error("Failed to claim backfill task")
					}
					break
				}
				if task == nil {
					break
				}
				o.processTask(ctx, log, task)
			}
		}
	}
}

// processTask исполняет одну захваченную задачу. Повторы на повторяемых
// ошибках происходят внутри захвата: задача не возвращается в очередь
// между попытками.
func (o *Orchestrator) processTask(ctx context.Context, log *logrus.Entry, task *domain.SyncTask) {
	log = log.WithFields(logrus.Fields{
		"task_id":         task.ID,
		"tenant_id":       task.TenantID,
		"pull_request_id": task.PullRequestID,
	})

	attempts := task.Attempts
	var lastResult *domain.BackfillResult

	backoff := retry.WithMaxRetries(uint64(o.maxRetries), retry.NewExponential(o.backoffBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++

		result, err := o.backfill.Backfill(ctx, task.PullRequestID)
		lastResult = result
		if err != nil {
			if domain.IsPermanentHostError(err) {
				return err
			}
			return retry.RetryableError(err)
		}

		if transient := result.TransientErrors(); len(transient) > 0 {
			log.WithFields(logrus.Fields{
				"attempt":           attempts,
				"transient_fetches": len(transient),
			}).Warn("Backfill attempt left transient failures, retrying")
			return retry.RetryableError(fetchErrorsToError(transient))
		}

		return nil
	})

	switch {
	case err != nil:
		o.recordFailure(ctx, log, task, attempts, err)
	case lastResult != nil && len(lastResult.Errors) > 0:
		// Остались только постоянные отказы: повтор уперся бы в то же самое
		o.recordFailure(ctx, log, task, attempts, fetchErrorsToError(lastResult.Errors))
	default:
		if err := o.taskRepo.MarkComplete(ctx, task.ID, attempts); err != nil {
			log.WithField("error", err.Error()).Error("Failed to mark backfill task complete")
			return
		}
		log.WithField("attempts", attempts).Info("Backfill task complete")
	}
}

func (o *Orchestrator) recordFailure(ctx context.Context, log *logrus.Entry, task *domain.SyncTask, attempts int, cause error) {
	message := cause.Error()

	if err := o.taskRepo.MarkError(ctx, task.ID, attempts, message); err != nil {
		log.WithField("error", err.Error()).Error("Failed to mark backfill task failed")
	}
	if err := o.prRepo.SetSyncError(ctx, task.PullRequestID, message); err != nil {
		log.WithField("error", err.Error()).Error("Failed to record sync error on pull request")
	}

	o.reporter.ReportError(cause, map[string]any{
		"task_id":         task.ID,
		"tenant_id":       task.TenantID,
		"pull_request_id": task.PullRequestID,
		"attempts":        attempts,
	})
	log.WithFields(logrus.Fields{
		"attempts": attempts,
		"error":    message,
	}).Error("Backfill task failed")
}

func fetchErrorsToError(fetchErrs []domain.SyncFetchError) error {
	parts := make([]string, len(fetchErrs))
	for i, e := range fetchErrs {
		parts[i] = e.Error()
	}
	return fmt.Errorf("backfill sub-fetches failed: %s", strings.Join(parts, "; "))
}
