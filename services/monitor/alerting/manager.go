package alerting

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"

	"github.com/practiq/skills-monitoring/services/monitor/common"
)

var log = logger.GetOrCreate("alerting")

const (
	defaultHistoryCapacity = 500
	defaultNotifyTimeout   = 10 * time.Second
	summaryWindow          = 24 * time.Hour
	summaryRecentAlerts    = 10
)

// ArgsAlertsManager holds the dependencies for NewAlertsManager
type ArgsAlertsManager struct {
	Store           MetricsStore
	Rules           []ThresholdRule
	Notifiers       []Notifier
	Archive         Archive // optional
	HistoryCapacity int
	NotifyTimeout   time.Duration
}

// alertsManager owns the alert lifecycle: it applies the rule table to each incoming
// snapshot, keeps the map of active alerts (at most one per rule id), fans out channel
// notifications on transitions and retains a bounded history of landmark events
type alertsManager struct {
	mut             sync.Mutex
	store           MetricsStore
	rules           []ThresholdRule
	notifiers       map[string]Notifier
	archive         Archive
	active          map[string]*common.Alert // keyed by threshold rule id
	history         []common.Alert
	historyCapacity int
	notifyTimeout   time.Duration
}

// NewAlertsManager creates a new alerts manager instance with its own state
func NewAlertsManager(args ArgsAlertsManager) (*alertsManager, error) {
	if check.IfNil(args.Store) {
		return nil, errors.New("nil metrics store")
	}

	notifiers := make(map[string]Notifier, len(args.Notifiers))
	for _, n := range args.Notifiers {
		if check.IfNil(n) {
			return nil, errors.New("nil notifier")
		}
		notifiers[n.Channel()] = n
	}

	rules := args.Rules
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	for _, rule := range rules {
		if rule.Predicate == nil {
			return nil, errors.New("nil predicate for rule " + rule.ID)
		}
	}

	historyCapacity := args.HistoryCapacity
	if historyCapacity <= 0 {
		historyCapacity = defaultHistoryCapacity
	}

	notifyTimeout := args.NotifyTimeout
	if notifyTimeout <= 0 {
		notifyTimeout = defaultNotifyTimeout
	}

	return &alertsManager{
		store:           args.Store,
		rules:           rules,
		notifiers:       notifiers,
		archive:         args.Archive,
		active:          make(map[string]*common.Alert),
		history:         make([]common.Alert, 0, historyCapacity),
		historyCapacity: historyCapacity,
		notifyTimeout:   notifyTimeout,
	}, nil
}

// Evaluate records the snapshot, applies the rule table and walks every rule through the
// alert lifecycle. It returns the alerts created or refreshed on this tick. Notification
// and archive failures are logged, never returned; the whole call runs under the manager
// mutex so overlapping ticks serialize
func (am *alertsManager) Evaluate(ctx context.Context, snapshot common.MetricSnapshot) []common.Alert {
	am.mut.Lock()
	defer am.mut.Unlock()

	am.store.RecordSnapshot(snapshot)
	am.archiveSnapshot(ctx, snapshot)

	touched := make([]common.Alert, 0)
	for _, result := range EvaluateRules(snapshot, am.rules) {
		existing := am.active[result.Rule.ID]

		switch {
		case result.Triggered && existing == nil:
			alert := am.triggerAlert(ctx, result.Rule, snapshot)
			touched = append(touched, *alert)
		case result.Triggered && existing != nil:
			// refresh, not a re-trigger: latest snapshot only, no notifications
			existing.Snapshot = snapshot
			touched = append(touched, *existing)
		case !result.Triggered && existing != nil:
			am.resolveAlert(ctx, result.Rule, existing)
		}
	}

	return touched
}

func (am *alertsManager) triggerAlert(ctx context.Context, rule ThresholdRule, snapshot common.MetricSnapshot) *common.Alert {
	alert := &common.Alert{
		ID:          uuid.New().String(),
		ThresholdID: rule.ID,
		Name:        rule.Name,
		Severity:    rule.Severity,
		Status:      common.StatusActive,
		TriggeredAt: time.Now(),
		Snapshot:    snapshot,
		Runbook:     rule.Runbook,
	}

	log.Warn("alert triggered", "rule", rule.ID, "severity", rule.Severity, "expression", rule.Expression)

	am.dispatch(ctx, alert, rule, common.TransitionTriggered, rule.Channels)

	am.active[rule.ID] = alert
	am.appendHistory(*alert)
	am.archiveAlert(ctx, *alert)

	return alert
}

func (am *alertsManager) resolveAlert(ctx context.Context, rule ThresholdRule, alert *common.Alert) {
	now := time.Now()
	alert.Status = common.StatusResolved
	alert.ResolvedAt = &now
	delete(am.active, rule.ID)

	log.Info("alert resolved", "rule", rule.ID, "active for", now.Sub(alert.TriggeredAt).Round(time.Second))

	// only critical alerts notify on resolution, and only on the paging/chat channels
	if alert.Severity == common.SeverityCritical {
		channels := make([]string, 0, len(rule.Channels))
		for _, ch := range rule.Channels {
			if ch == ChannelPager || ch == ChannelChat {
				channels = append(channels, ch)
			}
		}
		am.dispatch(ctx, alert, rule, common.TransitionResolved, channels)
	}

	am.appendHistory(*alert)
	am.archiveAlert(ctx, *alert)
}

// dispatch fans out one lifecycle transition to the given channels concurrently. Each
// channel send gets its own timeout and its own result slot, so a slow or failing channel
// never blocks the others. All attempts are appended to the alert's notification log
func (am *alertsManager) dispatch(
	ctx context.Context,
	alert *common.Alert,
	rule ThresholdRule,
	transition common.AlertTransition,
	channels []string,
) {
	if len(channels) == 0 {
		return
	}

	event := common.AlertEvent{
		Transition: transition,
		Alert:      *alert,
		Expression: rule.Expression,
	}

	sendErrors := make([]error, len(channels))
	var wg sync.WaitGroup
	wg.Add(len(channels))
	for i, channel := range channels {
		notifier, found := am.notifiers[channel]
		if !found {
			sendErrors[i] = errors.New("channel not configured: " + channel)
			wg.Done()
			continue
		}

		go func(idx int, n Notifier) {
			defer wg.Done()

			sendCtx, cancel := context.WithTimeout(ctx, am.notifyTimeout)
			defer cancel()

			sendErrors[idx] = n.Notify(sendCtx, event)
		}(i, notifier)
	}
	wg.Wait()

	for i, channel := range channels {
		attempt := common.NotificationAttempt{
			Channel:   channel,
			Timestamp: time.Now(),
			Success:   sendErrors[i] == nil,
		}
		if sendErrors[i] != nil {
			attempt.Error = sendErrors[i].Error()
			log.Warn("notification failed", "channel", channel, "rule", rule.ID, "error", sendErrors[i])
		}
		alert.Notifications = append(alert.Notifications, attempt)
	}
}

func (am *alertsManager) appendHistory(alert common.Alert) {
	am.history = append(am.history, alert)
	if len(am.history) > am.historyCapacity {
		am.history = am.history[len(am.history)-am.historyCapacity:]
	}
}

func (am *alertsManager) archiveAlert(ctx context.Context, alert common.Alert) {
	if check.IfNil(am.archive) {
		return
	}

	err := am.archive.SaveAlert(ctx, alert)
	if err != nil {
		log.Warn("failed to archive alert", "id", alert.ID, "error", err)
	}
}

func (am *alertsManager) archiveSnapshot(ctx context.Context, snapshot common.MetricSnapshot) {
	if check.IfNil(am.archive) {
		return
	}

	err := am.archive.SaveSnapshot(ctx, snapshot)
	if err != nil {
		log.Warn("failed to archive snapshot", "error", err)
	}
}

// GetActiveAlerts returns copies of the currently active alerts ordered by trigger time
func (am *alertsManager) GetActiveAlerts() []common.Alert {
	am.mut.Lock()
	defer am.mut.Unlock()

	out := make([]common.Alert, 0, len(am.active))
	for _, alert := range am.active {
		out = append(out, *alert)
	}
	sortAlertsByTriggeredAt(out)

	return out
}

// GetHistory returns copies of the landmark history entries (one per trigger, one per
// resolution), most-recent-bounded when limit > 0, oldest first
func (am *alertsManager) GetHistory(limit int) []common.Alert {
	am.mut.Lock()
	defer am.mut.Unlock()

	history := am.history
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}

	out := make([]common.Alert, len(history))
	copy(out, history)

	return out
}

// GetCurrentMetrics returns the latest recorded snapshot and whether one exists
func (am *alertsManager) GetCurrentMetrics() (common.MetricSnapshot, bool) {
	return am.store.LatestSnapshot()
}

// GetMetricsHistory returns the retained snapshots, most-recent-bounded when limit > 0
func (am *alertsManager) GetMetricsHistory(limit int) []common.MetricSnapshot {
	return am.store.GetSnapshotHistory(limit)
}

// GenerateDailySummary aggregates the trailing 24h of alerting activity
func (am *alertsManager) GenerateDailySummary() common.DailySummary {
	am.mut.Lock()
	defer am.mut.Unlock()

	summary := common.DailySummary{
		GeneratedAt: time.Now(),
		BySeverity:  make(map[common.Severity]int),
	}

	cutoff := summary.GeneratedAt.Add(-summaryWindow)
	for _, entry := range am.history {
		// trigger entries were copied with status active; resolution copies are not re-counted
		if entry.Status != common.StatusActive {
			continue
		}
		if entry.TriggeredAt.Before(cutoff) {
			continue
		}
		summary.TriggeredTotal++
		summary.BySeverity[entry.Severity]++
	}

	for _, alert := range am.active {
		summary.ActiveAlerts = append(summary.ActiveAlerts, *alert)
	}
	sortAlertsByTriggeredAt(summary.ActiveAlerts)

	latest, found := am.store.LatestSnapshot()
	if found {
		summary.LatestSnapshot = &latest
	}

	recent := am.history
	if len(recent) > summaryRecentAlerts {
		recent = recent[len(recent)-summaryRecentAlerts:]
	}
	summary.RecentAlerts = make([]common.Alert, len(recent))
	copy(summary.RecentAlerts, recent)

	return summary
}

func sortAlertsByTriggeredAt(alerts []common.Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].TriggeredAt.Before(alerts[j].TriggeredAt)
	})
}

// IsInterfaceNil returns true if the value under the interface is nil
func (am *alertsManager) IsInterfaceNil() bool {
	return am == nil
}
