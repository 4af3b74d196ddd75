package api

import (
	"context"

	"github.com/practiq/skills-monitoring/services/monitor/common"
	"github.com/practiq/skills-monitoring/services/monitor/metrics"
)

// AlertsHandler defines the alert lifecycle queries exposed over HTTP
type AlertsHandler interface {
	// GetActiveAlerts returns copies of the currently active alerts ordered by trigger time
	GetActiveAlerts() []common.Alert

	// GetHistory returns the landmark history entries, most-recent-bounded when limit > 0
	GetHistory(limit int) []common.Alert

	// GetCurrentMetrics returns the latest recorded snapshot and whether one exists
	GetCurrentMetrics() (common.MetricSnapshot, bool)

	// GetMetricsHistory returns the retained snapshots, most-recent-bounded when limit > 0
	GetMetricsHistory(limit int) []common.MetricSnapshot

	// GenerateDailySummary aggregates the trailing 24h of alerting activity
	GenerateDailySummary() common.DailySummary

	IsInterfaceNil() bool
}

// MetricsHandler defines the execution recording and effectiveness queries exposed over HTTP
type MetricsHandler interface {
	// RecordExecutionBatch appends the records in order, equivalent to repeated single calls
	RecordExecutionBatch(records []common.ExecutionRecord)

	// GetEffectiveness returns the derived per-skill aggregate or nil when the skill is unknown
	GetEffectiveness(skillID string) *common.EffectivenessMetrics

	// GetTopSkills returns up to limit skills ordered descending by the chosen dimension
	GetTopSkills(limit int, rankBy metrics.RankDimension) []common.EffectivenessMetrics

	// GetExecutionHistory returns a skill's retained records, most-recent-bounded when limit > 0
	GetExecutionHistory(skillID string, limit int) []common.ExecutionRecord

	IsInterfaceNil() bool
}

// ArchiveReader defines the durable-history queries exposed over HTTP
type ArchiveReader interface {
	// GetRecentAlerts returns up to limit archived alerts, most recently triggered first
	GetRecentAlerts(ctx context.Context, limit int) ([]common.Alert, error)

	IsInterfaceNil() bool
}
