package testsCommon

import (
	"context"

	"github.com/practiq/skills-monitoring/services/monitor/common"
)

// CollectorStub -
type CollectorStub struct {
	CollectHandler func(ctx context.Context) common.MetricSnapshot
}

// Collect -
func (stub *CollectorStub) Collect(ctx context.Context) common.MetricSnapshot {
	if stub.CollectHandler != nil {
		return stub.CollectHandler(ctx)
	}

	return common.MetricSnapshot{}
}

// IsInterfaceNil -
func (stub *CollectorStub) IsInterfaceNil() bool {
	return stub == nil
}
