package testsCommon

import "context"

// ReportSenderStub -
type ReportSenderStub struct {
	SendReportHandler func(ctx context.Context, subject string, body string) error
}

// SendReport -
func (stub *ReportSenderStub) SendReport(ctx context.Context, subject string, body string) error {
	if stub.SendReportHandler != nil {
		return stub.SendReportHandler(ctx, subject, body)
	}

	return nil
}

// IsInterfaceNil -
func (stub *ReportSenderStub) IsInterfaceNil() bool {
	return stub == nil
}
