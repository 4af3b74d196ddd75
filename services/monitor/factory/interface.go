package factory

import "context"

// Server defines the operation of an entity able to serve requests
type Server interface {
	Start()
	Address() string
	Close() error
}

// Engine defines the per-tick operations driven by the cron jobs
type Engine interface {
	// Process runs one evaluation tick
	Process(ctx context.Context)

	// ReportSummary renders the daily summary and hands it to the report sender
	ReportSummary(ctx context.Context)

	IsInterfaceNil() bool
}
