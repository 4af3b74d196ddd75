package notifiers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/tidwall/gjson"

	"github.com/practiq/skills-monitoring/services/monitor/alerting"
	"github.com/practiq/skills-monitoring/services/monitor/common"
)

var log = logger.GetOrCreate("notifiers")

// pagerNotifier delivers alerts to an incident-routing events API. The payload follows
// the common events-v2 shape (routing key, event action, dedup key) so any compatible
// paging provider can receive it
type pagerNotifier struct {
	endpoint   string
	routingKey string
	client     *http.Client
}

type pagerPayload struct {
	RoutingKey  string       `json:"routing_key"`
	EventAction string       `json:"event_action"` // "trigger" | "resolve"
	DedupKey    string       `json:"dedup_key"`
	Payload     pagerDetails `json:"payload"`
}

type pagerDetails struct {
	Summary   string                `json:"summary"`
	Severity  string                `json:"severity"`
	Source    string                `json:"source"`
	Timestamp string                `json:"timestamp"`
	Details   common.MetricSnapshot `json:"custom_details"`
}

// NewPagerNotifier creates a new paging channel with a bounded HTTP client
func NewPagerNotifier(endpoint string, routingKey string, timeout time.Duration) *pagerNotifier {
	return &pagerNotifier{
		endpoint:   endpoint,
		routingKey: routingKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Channel returns the routing name of this notifier
func (pn *pagerNotifier) Channel() string {
	return alerting.ChannelPager
}

// Notify sends one trigger or resolve event. The dedup key is the threshold id so the
// provider collapses repeats of the same condition into one incident
func (pn *pagerNotifier) Notify(ctx context.Context, event common.AlertEvent) error {
	action := "trigger"
	if event.Transition == common.TransitionResolved {
		action = "resolve"
	}

	payload := pagerPayload{
		RoutingKey:  pn.routingKey,
		EventAction: action,
		DedupKey:    event.Alert.ThresholdID,
		Payload: pagerDetails{
			Summary:   fmt.Sprintf("[%s] %s (%s)", event.Alert.Severity, event.Alert.Name, event.Expression),
			Severity:  string(event.Alert.Severity),
			Source:    "skills-monitoring",
			Timestamp: event.Alert.TriggeredAt.UTC().Format(time.RFC3339),
			Details:   event.Alert.Snapshot,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal pager payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pn.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create pager request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := pn.client.Do(req)
	if err != nil {
		return fmt.Errorf("network error sending pager event: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errStatusNotOK(resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read pager response: %w", err)
	}

	// providers that accept the event respond with {"status": "success", ...}
	status := gjson.GetBytes(respBody, "status")
	if status.Exists() && status.String() != "success" {
		return errRejected(status.String())
	}

	log.Debug("pager event delivered", "action", action, "dedup_key", event.Alert.ThresholdID)

	return nil
}

// IsInterfaceNil returns true if the value under the interface is nil
func (pn *pagerNotifier) IsInterfaceNil() bool {
	return pn == nil
}
