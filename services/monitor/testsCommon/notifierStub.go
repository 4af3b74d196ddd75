package testsCommon

import (
	"context"

	"github.com/practiq/skills-monitoring/services/monitor/common"
)

// NotifierStub -
type NotifierStub struct {
	ChannelField  string
	NotifyHandler func(ctx context.Context, event common.AlertEvent) error
}

// Channel -
func (stub *NotifierStub) Channel() string {
	return stub.ChannelField
}

// Notify -
func (stub *NotifierStub) Notify(ctx context.Context, event common.AlertEvent) error {
	if stub.NotifyHandler != nil {
		return stub.NotifyHandler(ctx, event)
	}

	return nil
}

// IsInterfaceNil -
func (stub *NotifierStub) IsInterfaceNil() bool {
	return stub == nil
}
