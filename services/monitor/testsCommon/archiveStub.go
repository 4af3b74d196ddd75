package testsCommon

import (
	"context"

	"github.com/practiq/skills-monitoring/services/monitor/common"
)

// ArchiveStub -
type ArchiveStub struct {
	SaveAlertHandler       func(ctx context.Context, alert common.Alert) error
	SaveSnapshotHandler    func(ctx context.Context, snapshot common.MetricSnapshot) error
	GetRecentAlertsHandler func(ctx context.Context, limit int) ([]common.Alert, error)
}

// SaveAlert -
func (stub *ArchiveStub) SaveAlert(ctx context.Context, alert common.Alert) error {
	if stub.SaveAlertHandler != nil {
		return stub.SaveAlertHandler(ctx, alert)
	}

	return nil
}

// SaveSnapshot -
func (stub *ArchiveStub) SaveSnapshot(ctx context.Context, snapshot common.MetricSnapshot) error {
	if stub.SaveSnapshotHandler != nil {
		return stub.SaveSnapshotHandler(ctx, snapshot)
	}

	return nil
}

// GetRecentAlerts -
func (stub *ArchiveStub) GetRecentAlerts(ctx context.Context, limit int) ([]common.Alert, error) {
	if stub.GetRecentAlertsHandler != nil {
		return stub.GetRecentAlertsHandler(ctx, limit)
	}

	return make([]common.Alert, 0), nil
}

// IsInterfaceNil -
func (stub *ArchiveStub) IsInterfaceNil() bool {
	return stub == nil
}
