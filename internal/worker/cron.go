package worker

import (
	"context"

	"pr-insights-service/internal/domain"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CorrelationScheduler периодически пересчитывает корреляции ревьюверов
// для всех тенантов. Пересчет заменяет кэш целиком, поэтому наложение
// двух запусков безопасно: побеждает последний коммит транзакции.
type CorrelationScheduler struct {
	prRepo      domain.PullRequestRepository
	correlation domain.CorrelationUseCase
	schedule    string
	logger      *logrus.Logger
	cron        *cron.Cron
}

// NewCorrelationScheduler создает новый экземпляр CorrelationScheduler.
func NewCorrelationScheduler(
	prRepo domain.PullRequestRepository,
	correlation domain.CorrelationUseCase,
	schedule string,
	logger *logrus.Logger,
) *CorrelationScheduler {
	return &CorrelationScheduler{
		prRepo:      prRepo,
		correlation: correlation,
		schedule:    schedule,
		logger:      logger,
		cron:        cron.New(),
	}
}

// Start регистрирует расписание и запускает планировщик.
func (s *CorrelationScheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce(ctx) }); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.WithField("schedule", s.schedule).Info("Correlation scheduler started")
	return nil
}

// Stop останавливает планировщик и дожидается завершения текущего запуска.
func (s *CorrelationScheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce пересчитывает корреляции для всех известных тенантов.
// Отказ одного тенанта не прерывает обход остальных.
func (s *CorrelationScheduler) RunOnce(ctx context.Context) {
	tenantIDs, err := s.prRepo.ListTenantIDs(ctx)
	if err != nil {
		s.logger.WithField("error", err.Error()).Error("Failed to list tenants for correlation recompute")
		return
	}

	for _, tenantID := range tenantIDs {
		pairs, err := s.correlation.RecalculateForTenant(ctx, tenantID)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"tenant_id": tenantID,
				"error":     err.Error(),
			}).Error("Correlation recompute failed for tenant")
			continue
		}
		s.logger.WithFields(logrus.Fields{
			"tenant_id": tenantID,
			"pairs":     pairs,
		}).Info("Correlation recompute finished for tenant")
	}
}
