package alerting

import (
	"time"

	"github.com/practiq/skills-monitoring/services/monitor/common"
)

// Channel names referenced by the rule table
const (
	ChannelPager = "pager"
	ChannelChat  = "chat"
	ChannelEmail = "email"
)

// ThresholdRule is one entry of the static rule table: a named, severity-tagged predicate
// over a snapshot plus its notification routing. The Duration field is operator metadata
// only, evaluation is stateless per tick
type ThresholdRule struct {
	ID               string
	Name             string
	Description      string
	Severity         common.Severity
	Expression       string
	Duration         time.Duration
	Channels         []string
	EscalationPolicy string
	Runbook          string
	Predicate        func(common.MetricSnapshot) bool
}

// RuleResult pairs a rule with its evaluation outcome for one snapshot
type RuleResult struct {
	Rule      ThresholdRule
	Triggered bool
}

// EvaluateRules applies every rule predicate to the snapshot. Pure function: no state,
// no I/O, results come back in rule-table order
func EvaluateRules(snapshot common.MetricSnapshot, rules []ThresholdRule) []RuleResult {
	results := make([]RuleResult, 0, len(rules))
	for _, rule := range rules {
		results = append(results, RuleResult{
			Rule:      rule,
			Triggered: rule.Predicate(snapshot),
		})
	}

	return results
}

// DefaultRules returns the built-in threshold table for the skills service
func DefaultRules() []ThresholdRule {
	return []ThresholdRule{
		{
			ID:               "skills-service-down",
			Name:             "Skills service down",
			Description:      "The skills service failed its health probe",
			Severity:         common.SeverityCritical,
			Expression:       "serviceHealth == 0",
			Duration:         time.Minute,
			Channels:         []string{ChannelPager, ChannelChat},
			EscalationPolicy: "skills-oncall",
			Runbook:          "docs/runbooks/skills-service-down.md",
			Predicate: func(s common.MetricSnapshot) bool {
				return s.ServiceHealth == 0
			},
		},
		{
			ID:               "high-skill-error-rate",
			Name:             "High skill error rate",
			Description:      "Skill executions are failing above the acceptable rate",
			Severity:         common.SeverityCritical,
			Expression:       "errorRate > 5%",
			Duration:         5 * time.Minute,
			Channels:         []string{ChannelPager, ChannelChat},
			EscalationPolicy: "skills-oncall",
			Runbook:          "docs/runbooks/high-error-rate.md",
			Predicate: func(s common.MetricSnapshot) bool {
				return s.ErrorRate > 5
			},
		},
		{
			ID:               "response-time-critical",
			Name:             "Response time critical",
			Description:      "p95 latency of skill executions exceeded the hard limit",
			Severity:         common.SeverityCritical,
			Expression:       "p95Latency > 10000ms",
			Duration:         5 * time.Minute,
			Channels:         []string{ChannelPager, ChannelChat},
			EscalationPolicy: "skills-oncall",
			Runbook:          "docs/runbooks/response-time.md",
			Predicate: func(s common.MetricSnapshot) bool {
				return s.P95LatencyMs > 10000
			},
		},
		{
			ID:          "elevated-timeout-rate",
			Name:        "Elevated timeout rate",
			Description: "Skill executions are timing out above the acceptable rate",
			Severity:    common.SeverityWarning,
			Expression:  "timeoutRate > 5%",
			Duration:    10 * time.Minute,
			Channels:    []string{ChannelChat},
			Runbook:     "docs/runbooks/timeouts.md",
			Predicate: func(s common.MetricSnapshot) bool {
				return s.TimeoutRate > 5
			},
		},
		{
			ID:          "low-cache-hit-rate",
			Name:        "Low cache hit rate",
			Description: "The skills cache is serving too few hits",
			Severity:    common.SeverityWarning,
			Expression:  "cacheHitRate < 30%",
			Duration:    15 * time.Minute,
			Channels:    []string{ChannelChat},
			Runbook:     "docs/runbooks/cache.md",
			Predicate: func(s common.MetricSnapshot) bool {
				return s.CacheHitRate < 30
			},
		},
		{
			ID:          "cost-spike",
			Name:        "Cost spike",
			Description: "Hourly cost is running well above the baseline",
			Severity:    common.SeverityWarning,
			Expression:  "costSpikeRatio > 150%",
			Duration:    30 * time.Minute,
			Channels:    []string{ChannelChat, ChannelEmail},
			Runbook:     "docs/runbooks/cost.md",
			Predicate: func(s common.MetricSnapshot) bool {
				return s.CostSpikeRatio > 150
			},
		},
		{
			ID:          "cache-warmup-needed",
			Name:        "Cache warmup needed",
			Description: "Cache hit rate is trending low, consider warming frequent skills",
			Severity:    common.SeverityInfo,
			Expression:  "cacheHitRate < 40%",
			Duration:    30 * time.Minute,
			Channels:    []string{ChannelChat},
			Predicate: func(s common.MetricSnapshot) bool {
				return s.CacheHitRate < 40
			},
		},
	}
}
