package notifiers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/practiq/skills-monitoring/services/monitor/alerting"
	"github.com/practiq/skills-monitoring/services/monitor/common"
)

// chatNotifier posts structured messages to a team-chat incoming webhook
type chatNotifier struct {
	webhookURL string
	client     *http.Client
}

type chatAttachment struct {
	Color  string      `json:"color"`
	Title  string      `json:"title"`
	Text   string      `json:"text"`
	Fields []chatField `json:"fields"`
}

type chatField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type chatMessage struct {
	Text        string           `json:"text"`
	Attachments []chatAttachment `json:"attachments"`
}

// NewChatNotifier creates a new chat webhook channel with a bounded HTTP client
func NewChatNotifier(webhookURL string, timeout time.Duration) *chatNotifier {
	return &chatNotifier{
		webhookURL: webhookURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Channel returns the routing name of this notifier
func (cn *chatNotifier) Channel() string {
	return alerting.ChannelChat
}

// Notify posts one message for the lifecycle transition, with severity color, key/value
// fields and an optional runbook link
func (cn *chatNotifier) Notify(ctx context.Context, event common.AlertEvent) error {
	alert := event.Alert

	var headline string
	if event.Transition == common.TransitionResolved {
		headline = fmt.Sprintf(":white_check_mark: Resolved: %s", alert.Name)
	} else {
		headline = fmt.Sprintf("%s %s", severityLabel(alert.Severity), alert.Name)
	}

	fields := []chatField{
		{Title: "Threshold", Value: event.Expression, Short: true},
		{Title: "Severity", Value: string(alert.Severity), Short: true},
		{Title: "Triggered at", Value: alert.TriggeredAt.Format("2006-01-02 15:04:05 MST"), Short: true},
	}
	if alert.ResolvedAt != nil {
		fields = append(fields, chatField{Title: "Resolved at", Value: alert.ResolvedAt.Format("2006-01-02 15:04:05 MST"), Short: true})
	}
	if len(alert.Runbook) > 0 {
		fields = append(fields, chatField{Title: "Runbook", Value: alert.Runbook, Short: false})
	}

	msg := chatMessage{
		Text: headline,
		Attachments: []chatAttachment{
			{
				Color:  severityColor(alert.Severity),
				Title:  alert.Name,
				Text:   fmt.Sprintf("alert id %s, rule %s", alert.ID, alert.ThresholdID),
				Fields: fields,
			},
		},
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal chat message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cn.webhookURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := cn.client.Do(req)
	if err != nil {
		return fmt.Errorf("network error posting chat message: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errStatusNotOK(resp.StatusCode)
	}

	log.Debug("chat message delivered", "transition", event.Transition, "rule", alert.ThresholdID)

	return nil
}

func severityLabel(s common.Severity) string {
	switch s {
	case common.SeverityCritical:
		return ":rotating_light: CRITICAL"
	case common.SeverityWarning:
		return ":warning: WARNING"
	default:
		return ":information_source: INFO"
	}
}

func severityColor(s common.Severity) string {
	switch s {
	case common.SeverityCritical:
		return "#e01e5a"
	case common.SeverityWarning:
		return "#ecb22e"
	default:
		return "#36c5f0"
	}
}

// IsInterfaceNil returns true if the value under the interface is nil
func (cn *chatNotifier) IsInterfaceNil() bool {
	return cn == nil
}
