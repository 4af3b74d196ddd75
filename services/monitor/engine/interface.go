package engine

import (
	"context"

	"github.com/practiq/skills-monitoring/services/monitor/common"
)

// Collector defines the component able to produce one health snapshot per tick
type Collector interface {
	// Collect builds one snapshot from the skills service metrics endpoint. Transport
	// failures are folded into the snapshot as ServiceHealth = 0, never returned
	Collect(ctx context.Context) common.MetricSnapshot

	IsInterfaceNil() bool
}

// AlertsProcessor defines the alert lifecycle operations the engine drives
type AlertsProcessor interface {
	// Evaluate records the snapshot and walks every rule through the alert lifecycle
	Evaluate(ctx context.Context, snapshot common.MetricSnapshot) []common.Alert

	// GenerateDailySummary aggregates the trailing 24h of alerting activity
	GenerateDailySummary() common.DailySummary

	IsInterfaceNil() bool
}

// ReportSender defines the component able to deliver the daily summary digest
type ReportSender interface {
	// SendReport sends an arbitrary plain-text message
	SendReport(ctx context.Context, subject string, body string) error

	IsInterfaceNil() bool
}
