package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("engine")

const collectTimeout = 30 * time.Second

// monitorEngine orchestrates one evaluation tick: collect a snapshot, push it through the
// alerts manager. It also renders and ships the daily summary when scheduled
type monitorEngine struct {
	collector    Collector
	alerts       AlertsProcessor
	reportSender ReportSender // optional, summaries are skipped without it
}

// NewMonitorEngine creates a new engine instance
func NewMonitorEngine(c Collector, a AlertsProcessor, r ReportSender) (*monitorEngine, error) {
	if check.IfNil(c) {
		return nil, errors.New("nil collector")
	}
	if check.IfNil(a) {
		return nil, errors.New("nil alerts processor")
	}

	return &monitorEngine{
		collector:    c,
		alerts:       a,
		reportSender: r,
	}, nil
}

// Process runs one evaluation tick
func (e *monitorEngine) Process(ctx context.Context) {
	collectCtx, cancel := context.WithTimeout(ctx, collectTimeout)
	defer cancel()

	snapshot := e.collector.Collect(collectCtx)
	touched := e.alerts.Evaluate(ctx, snapshot)

	log.Debug("evaluation tick done", "service_health", snapshot.ServiceHealth, "alerts_touched", len(touched))
}

// ReportSummary renders the daily summary and hands it to the report sender
func (e *monitorEngine) ReportSummary(ctx context.Context) {
	if check.IfNil(e.reportSender) {
		log.Debug("no report sender configured, skipping daily summary")
		return
	}

	summary := e.alerts.GenerateDailySummary()
	subject := fmt.Sprintf("Skills service daily summary - %s", summary.GeneratedAt.Format("2006-01-02"))

	err := e.reportSender.SendReport(ctx, subject, summary.FormatText())
	if err != nil {
		log.Warn("failed to send daily summary, it will be regenerated tomorrow", "error", err)
	}
}

// IsInterfaceNil returns true if the value under the interface is nil
func (e *monitorEngine) IsInterfaceNil() bool {
	return e == nil
}
