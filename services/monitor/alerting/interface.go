package alerting

import (
	"context"

	"github.com/practiq/skills-monitoring/services/monitor/common"
)

// MetricsStore defines the snapshot operations the alerts manager needs
type MetricsStore interface {
	// RecordSnapshot appends a snapshot, evicting the oldest one beyond capacity
	RecordSnapshot(snapshot common.MetricSnapshot)

	// LatestSnapshot returns the most recent snapshot and whether one exists
	LatestSnapshot() (common.MetricSnapshot, bool)

	// GetSnapshotHistory returns a copy of the retained snapshots, most-recent-bounded when limit > 0
	GetSnapshotHistory(limit int) []common.MetricSnapshot

	IsInterfaceNil() bool
}

// Notifier defines a single notification channel. Implementations must be safe for
// concurrent Notify calls
type Notifier interface {
	// Channel returns the channel name used in rule routing ("pager", "chat", "email")
	Channel() string

	// Notify attempts one delivery for the given lifecycle transition. A non-nil error
	// marks the attempt as failed in the alert's notification log
	Notify(ctx context.Context, event common.AlertEvent) error

	IsInterfaceNil() bool
}

// Archive defines the optional durable sink for alerts and snapshots. Failures are logged
// by the caller and never affect evaluation
type Archive interface {
	// SaveAlert inserts or updates the archived copy of an alert, keyed by its id
	SaveAlert(ctx context.Context, alert common.Alert) error

	// SaveSnapshot appends a snapshot row
	SaveSnapshot(ctx context.Context, snapshot common.MetricSnapshot) error

	IsInterfaceNil() bool
}
