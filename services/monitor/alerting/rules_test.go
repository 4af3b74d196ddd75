package alerting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/practiq/skills-monitoring/services/monitor/common"
)

func healthySnapshot() common.MetricSnapshot {
	return common.MetricSnapshot{
		ErrorRate:      1,
		TimeoutRate:    1,
		P95LatencyMs:   500,
		AvgLatencyMs:   200,
		HourlyCost:     10,
		CostSpikeRatio: 100,
		CacheHitRate:   80,
		ServiceHealth:  1,
	}
}

func triggeredIDs(results []RuleResult) []string {
	ids := make([]string, 0)
	for _, r := range results {
		if r.Triggered {
			ids = append(ids, r.Rule.ID)
		}
	}

	return ids
}

func TestDefaultRules(t *testing.T) {
	t.Parallel()

	rules := DefaultRules()
	require.Len(t, rules, 7)

	for _, rule := range rules {
		assert.NotEmpty(t, rule.ID)
		assert.NotEmpty(t, rule.Name)
		assert.NotEmpty(t, rule.Expression)
		assert.NotEmpty(t, rule.Channels)
		assert.NotNil(t, rule.Predicate)
	}
}

func TestEvaluateRules(t *testing.T) {
	t.Parallel()

	rules := DefaultRules()

	t.Run("healthy snapshot triggers nothing", func(t *testing.T) {
		results := EvaluateRules(healthySnapshot(), rules)

		require.Len(t, results, len(rules))
		require.Empty(t, triggeredIDs(results))
	})
	t.Run("service down", func(t *testing.T) {
		snapshot := healthySnapshot()
		snapshot.ServiceHealth = 0

		require.Equal(t, []string{"skills-service-down"}, triggeredIDs(EvaluateRules(snapshot, rules)))
	})
	t.Run("error rate above 5 percent", func(t *testing.T) {
		snapshot := healthySnapshot()
		snapshot.ErrorRate = 10

		require.Equal(t, []string{"high-skill-error-rate"}, triggeredIDs(EvaluateRules(snapshot, rules)))
	})
	t.Run("error rate exactly 5 percent stays quiet", func(t *testing.T) {
		snapshot := healthySnapshot()
		snapshot.ErrorRate = 5

		require.Empty(t, triggeredIDs(EvaluateRules(snapshot, rules)))
	})
	t.Run("p95 latency above 10s", func(t *testing.T) {
		snapshot := healthySnapshot()
		snapshot.P95LatencyMs = 10001

		require.Equal(t, []string{"response-time-critical"}, triggeredIDs(EvaluateRules(snapshot, rules)))
	})
	t.Run("timeout rate above 5 percent", func(t *testing.T) {
		snapshot := healthySnapshot()
		snapshot.TimeoutRate = 6

		require.Equal(t, []string{"elevated-timeout-rate"}, triggeredIDs(EvaluateRules(snapshot, rules)))
	})
	t.Run("cost spike above 150 percent", func(t *testing.T) {
		snapshot := healthySnapshot()
		snapshot.CostSpikeRatio = 200

		require.Equal(t, []string{"cost-spike"}, triggeredIDs(EvaluateRules(snapshot, rules)))
	})
	t.Run("cache hit rate below 40 is a warmup hint", func(t *testing.T) {
		snapshot := healthySnapshot()
		snapshot.CacheHitRate = 35

		require.Equal(t, []string{"cache-warmup-needed"}, triggeredIDs(EvaluateRules(snapshot, rules)))
	})
	t.Run("cache hit rate below 30 also fires the warning", func(t *testing.T) {
		snapshot := healthySnapshot()
		snapshot.CacheHitRate = 20

		require.Equal(t, []string{"low-cache-hit-rate", "cache-warmup-needed"}, triggeredIDs(EvaluateRules(snapshot, rules)))
	})

	t.Run("severities match the rule table", func(t *testing.T) {
		severityByID := make(map[string]common.Severity)
		for _, rule := range rules {
			severityByID[rule.ID] = rule.Severity
		}

		assert.Equal(t, common.SeverityCritical, severityByID["skills-service-down"])
		assert.Equal(t, common.SeverityCritical, severityByID["high-skill-error-rate"])
		assert.Equal(t, common.SeverityCritical, severityByID["response-time-critical"])
		assert.Equal(t, common.SeverityWarning, severityByID["elevated-timeout-rate"])
		assert.Equal(t, common.SeverityWarning, severityByID["low-cache-hit-rate"])
		assert.Equal(t, common.SeverityWarning, severityByID["cost-spike"])
		assert.Equal(t, common.SeverityInfo, severityByID["cache-warmup-needed"])
	})
}
