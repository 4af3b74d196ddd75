package testsCommon

import (
	"context"

	"github.com/practiq/skills-monitoring/services/monitor/common"
)

// AlertsStub -
type AlertsStub struct {
	EvaluateHandler             func(ctx context.Context, snapshot common.MetricSnapshot) []common.Alert
	GetActiveAlertsHandler      func() []common.Alert
	GetHistoryHandler           func(limit int) []common.Alert
	GetCurrentMetricsHandler    func() (common.MetricSnapshot, bool)
	GetMetricsHistoryHandler    func(limit int) []common.MetricSnapshot
	GenerateDailySummaryHandler func() common.DailySummary
}

// Evaluate -
func (stub *AlertsStub) Evaluate(ctx context.Context, snapshot common.MetricSnapshot) []common.Alert {
	if stub.EvaluateHandler != nil {
		return stub.EvaluateHandler(ctx, snapshot)
	}

	return make([]common.Alert, 0)
}

// GetActiveAlerts -
func (stub *AlertsStub) GetActiveAlerts() []common.Alert {
	if stub.GetActiveAlertsHandler != nil {
		return stub.GetActiveAlertsHandler()
	}

	return make([]common.Alert, 0)
}

// GetHistory -
func (stub *AlertsStub) GetHistory(limit int) []common.Alert {
	if stub.GetHistoryHandler != nil {
		return stub.GetHistoryHandler(limit)
	}

	return make([]common.Alert, 0)
}

// GetCurrentMetrics -
func (stub *AlertsStub) GetCurrentMetrics() (common.MetricSnapshot, bool) {
	if stub.GetCurrentMetricsHandler != nil {
		return stub.GetCurrentMetricsHandler()
	}

	return common.MetricSnapshot{}, false
}

// GetMetricsHistory -
func (stub *AlertsStub) GetMetricsHistory(limit int) []common.MetricSnapshot {
	if stub.GetMetricsHistoryHandler != nil {
		return stub.GetMetricsHistoryHandler(limit)
	}

	return make([]common.MetricSnapshot, 0)
}

// GenerateDailySummary -
func (stub *AlertsStub) GenerateDailySummary() common.DailySummary {
	if stub.GenerateDailySummaryHandler != nil {
		return stub.GenerateDailySummaryHandler()
	}

	return common.DailySummary{}
}

// IsInterfaceNil -
func (stub *AlertsStub) IsInterfaceNil() bool {
	return stub == nil
}
