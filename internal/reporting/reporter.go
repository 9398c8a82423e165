package reporting

import (
	"github.com/sirupsen/logrus"
)

// Reporter определяет контракт сборщика терминальных ошибок.
// Фоновые отказы попадают сюда, а не в путь, инициировавший работу.
type Reporter interface {
	ReportError(err error, fields map[string]any)
}

// LogReporter пишет терминальные ошибки в структурированный лог.
type LogReporter struct {
	logger *logrus.Logger
}

// NewLogReporter создает новый экземпляр LogReporter.
func NewLogReporter(logger *logrus.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

func (r *LogReporter) ReportError(err error, fields map[string]any) {
	entry := r.logger.WithField("error", err.Error())
	for k, v := range fields {
		entry = entry.WithField(k, v)
	}
	entry.Error("Terminal background failure")
}
