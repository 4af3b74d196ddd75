package common

import "time"

// Severity classifies how urgent an alert is
type Severity string

const (
	// SeverityCritical marks alerts that page the on-call
	SeverityCritical Severity = "critical"
	// SeverityWarning marks alerts that need attention but not paging
	SeverityWarning Severity = "warning"
	// SeverityInfo marks purely informational alerts
	SeverityInfo Severity = "info"
)

// AlertStatus is the lifecycle state of an alert instance
type AlertStatus string

const (
	// StatusActive means the threshold condition still holds
	StatusActive AlertStatus = "active"
	// StatusResolved means the threshold condition stopped holding
	StatusResolved AlertStatus = "resolved"
)

// AlertTransition describes which lifecycle edge a notification refers to
type AlertTransition string

const (
	// TransitionTriggered is sent when an alert is first created
	TransitionTriggered AlertTransition = "triggered"
	// TransitionResolved is sent when an alert stops firing
	TransitionResolved AlertTransition = "resolved"
)

// MetricSnapshot is one point-in-time health reading of the skills service. Values are
// recorded as reported, without range validation
type MetricSnapshot struct {
	ErrorRate      float64   `json:"errorRate"`      // percent, 0-100
	TimeoutRate    float64   `json:"timeoutRate"`    // percent, 0-100
	P95LatencyMs   float64   `json:"p95LatencyMs"`   // milliseconds
	AvgLatencyMs   float64   `json:"avgLatencyMs"`   // milliseconds
	HourlyCost     float64   `json:"hourlyCost"`     // currency units per hour
	CostSpikeRatio float64   `json:"costSpikeRatio"` // percent vs baseline
	CacheHitRate   float64   `json:"cacheHitRate"`   // percent, 0-100
	ServiceHealth  int       `json:"serviceHealth"`  // 1 healthy, 0 down
	Timestamp      time.Time `json:"timestamp"`
}

// ExecutionRecord is one completed skill execution outcome
type ExecutionRecord struct {
	SkillID          string    `json:"skillId"`
	Timestamp        time.Time `json:"timestamp"`
	Success          bool      `json:"success"`
	ExecutionTimeMs  float64   `json:"executionTimeMs"`
	TokensUsed       int       `json:"tokensUsed"`
	TokensSaved      float64   `json:"tokensSaved"` // normalized ratio vs the no-skill baseline
	ErrorMessage     string    `json:"errorMessage,omitempty"`
	UserSatisfaction *float64  `json:"userSatisfaction,omitempty"` // 1-5 when reported
}

// WindowStats aggregates a set of execution records. The same shape is used for the
// all-time view and the 24h rolling view
type WindowStats struct {
	TotalExecutions      int     `json:"totalExecutions"`
	SuccessfulExecutions int     `json:"successfulExecutions"`
	FailedExecutions     int     `json:"failedExecutions"`
	SuccessRate          float64 `json:"successRate"` // fraction, 0-1
	ErrorRate            float64 `json:"errorRate"`   // fraction, 0-1
	AvgExecutionTimeMs   float64 `json:"avgExecutionTimeMs"`
	P95ExecutionTimeMs   float64 `json:"p95ExecutionTimeMs"`
	AvgTokensSaved       float64 `json:"avgTokensSaved"`
	StdDevTokensSaved    float64 `json:"stdDevTokensSaved"`
	TotalTokensSaved     float64 `json:"totalTokensSaved"`
}

// EffectivenessMetrics is the derived per-skill aggregate, recomputed on every read
type EffectivenessMetrics struct {
	SkillID string `json:"skillId"`
	WindowStats
	Last24Hours         WindowStats    `json:"last24Hours"`
	ErrorBreakdown      map[string]int `json:"errorBreakdown"`
	AvgUserSatisfaction *float64       `json:"avgUserSatisfaction,omitempty"`
	EffectivenessScore  float64        `json:"effectivenessScore"` // composite, 0-1
}

// NotificationAttempt is one entry in an alert's notification log
type NotificationAttempt struct {
	Channel   string    `json:"channel"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

// Alert is a stateful instance of a threshold rule currently (or formerly) triggered
type Alert struct {
	ID              string                `json:"id"`
	ThresholdID     string                `json:"thresholdId"`
	Name            string                `json:"name"`
	Severity        Severity              `json:"severity"`
	Status          AlertStatus           `json:"status"`
	TriggeredAt     time.Time             `json:"triggeredAt"`
	ResolvedAt      *time.Time            `json:"resolvedAt,omitempty"`
	Snapshot        MetricSnapshot        `json:"snapshot"`
	Notifications   []NotificationAttempt `json:"notifications"`
	EscalationLevel int                   `json:"escalationLevel"` // reserved, not auto-incremented
	Runbook         string                `json:"runbook,omitempty"`
}

// AlertEvent is what notification channels receive on a lifecycle transition
type AlertEvent struct {
	Transition AlertTransition `json:"transition"`
	Alert      Alert           `json:"alert"`
	Expression string          `json:"expression"` // human-readable threshold, e.g. "errorRate > 5%"
}

// DailySummary aggregates the trailing 24h of alerting activity into a single report
type DailySummary struct {
	GeneratedAt    time.Time        `json:"generatedAt"`
	TriggeredTotal int              `json:"triggeredTotal"`
	BySeverity     map[Severity]int `json:"bySeverity"`
	ActiveAlerts   []Alert          `json:"activeAlerts"`
	LatestSnapshot *MetricSnapshot  `json:"latestSnapshot,omitempty"`
	RecentAlerts   []Alert          `json:"recentAlerts"` // up to 10, most recent last
}
