package metrics

import (
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	logger "github.com/multiversx/mx-chain-logger-go"

	"github.com/practiq/skills-monitoring/services/monitor/common"
)

var log = logger.GetOrCreate("metrics")

const rollingWindow = 24 * time.Hour

// RankDimension selects the ordering criterion for GetTopSkills
type RankDimension string

const (
	// RankByEffectiveness orders by the composite effectiveness score
	RankByEffectiveness RankDimension = "effectiveness"
	// RankByUsage orders by total execution count
	RankByUsage RankDimension = "usage"
	// RankBySavings orders by total tokens saved
	RankBySavings RankDimension = "savings"
)

// metricsStore retains bounded in-memory histories of health snapshots and per-skill
// execution records and derives statistics from them on demand
type metricsStore struct {
	mut               sync.RWMutex
	snapshotCapacity  int
	executionCapacity int
	snapshots         []common.MetricSnapshot
	executions        map[string][]common.ExecutionRecord
	skillOrder        []string // first-recorded order, used for stable ranking ties
}

// NewMetricsStore creates a new in-memory metrics store with the provided capacities
func NewMetricsStore(snapshotCapacity int, executionCapacity int) (*metricsStore, error) {
	if snapshotCapacity <= 0 {
		return nil, errors.New("invalid snapshot capacity")
	}
	if executionCapacity <= 0 {
		return nil, errors.New("invalid execution capacity")
	}

	return &metricsStore{
		snapshotCapacity:  snapshotCapacity,
		executionCapacity: executionCapacity,
		executions:        make(map[string][]common.ExecutionRecord),
	}, nil
}

// RecordSnapshot appends a snapshot, evicting the oldest one beyond capacity. Values are
// trusted as reported, no range validation is performed
func (store *metricsStore) RecordSnapshot(snapshot common.MetricSnapshot) {
	store.mut.Lock()
	defer store.mut.Unlock()

	store.snapshots = append(store.snapshots, snapshot)
	if len(store.snapshots) > store.snapshotCapacity {
		store.snapshots = store.snapshots[len(store.snapshots)-store.snapshotCapacity:]
	}
}

// RecordExecution appends one execution record to the skill's bounded history
func (store *metricsStore) RecordExecution(record common.ExecutionRecord) {
	store.mut.Lock()
	defer store.mut.Unlock()

	store.recordExecutionUnprotected(record)
}

// RecordExecutionBatch appends the records in order, equivalent to repeated RecordExecution calls
func (store *metricsStore) RecordExecutionBatch(records []common.ExecutionRecord) {
	store.mut.Lock()
	defer store.mut.Unlock()

	for _, record := range records {
		store.recordExecutionUnprotected(record)
	}
}

func (store *metricsStore) recordExecutionUnprotected(record common.ExecutionRecord) {
	history, found := store.executions[record.SkillID]
	if !found {
		store.skillOrder = append(store.skillOrder, record.SkillID)
	}

	history = append(history, record)
	if len(history) > store.executionCapacity {
		history = history[len(history)-store.executionCapacity:]
	}
	store.executions[record.SkillID] = history
}

// GetEffectiveness computes the derived aggregate for one skill. It returns nil when the
// skill has no recorded executions
func (store *metricsStore) GetEffectiveness(skillID string) *common.EffectivenessMetrics {
	store.mut.RLock()
	defer store.mut.RUnlock()

	return store.computeEffectivenessUnprotected(skillID)
}

// GetEffectivenessForMany computes the aggregates for the provided skills, omitting the
// ones with no recorded executions
func (store *metricsStore) GetEffectivenessForMany(skillIDs []string) map[string]*common.EffectivenessMetrics {
	store.mut.RLock()
	defer store.mut.RUnlock()

	results := make(map[string]*common.EffectivenessMetrics)
	for _, id := range skillIDs {
		em := store.computeEffectivenessUnprotected(id)
		if em == nil {
			continue
		}
		results[id] = em
	}

	return results
}

// GetTopSkills returns up to limit skills ordered descending by the chosen dimension.
// Ties keep the first-recorded order (stable sort)
func (store *metricsStore) GetTopSkills(limit int, rankBy RankDimension) []common.EffectivenessMetrics {
	store.mut.RLock()
	defer store.mut.RUnlock()

	all := make([]common.EffectivenessMetrics, 0, len(store.skillOrder))
	for _, id := range store.skillOrder {
		em := store.computeEffectivenessUnprotected(id)
		if em == nil {
			continue
		}
		all = append(all, *em)
	}

	rankValue := func(em common.EffectivenessMetrics) float64 {
		switch rankBy {
		case RankByUsage:
			return float64(em.TotalExecutions)
		case RankBySavings:
			return em.TotalTokensSaved
		default:
			return em.EffectivenessScore
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return rankValue(all[i]) > rankValue(all[j])
	})

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	return all
}

// GetSnapshotHistory returns a copy of the retained snapshots, bounded to the most recent
// limit entries when limit > 0
func (store *metricsStore) GetSnapshotHistory(limit int) []common.MetricSnapshot {
	store.mut.RLock()
	defer store.mut.RUnlock()

	history := store.snapshots
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}

	out := make([]common.MetricSnapshot, len(history))
	copy(out, history)

	return out
}

// GetExecutionHistory returns a copy of a skill's retained records, bounded to the most
// recent limit entries when limit > 0
func (store *metricsStore) GetExecutionHistory(skillID string, limit int) []common.ExecutionRecord {
	store.mut.RLock()
	defer store.mut.RUnlock()

	history := store.executions[skillID]
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}

	out := make([]common.ExecutionRecord, len(history))
	copy(out, history)

	return out
}

// LatestSnapshot returns the most recent snapshot and whether one exists
func (store *metricsStore) LatestSnapshot() (common.MetricSnapshot, bool) {
	store.mut.RLock()
	defer store.mut.RUnlock()

	if len(store.snapshots) == 0 {
		return common.MetricSnapshot{}, false
	}

	return store.snapshots[len(store.snapshots)-1], true
}

// Clear drops all retained state
func (store *metricsStore) Clear() {
	store.mut.Lock()
	defer store.mut.Unlock()

	store.snapshots = nil
	store.executions = make(map[string][]common.ExecutionRecord)
	store.skillOrder = nil

	log.Debug("metrics store cleared")
}

func (store *metricsStore) computeEffectivenessUnprotected(skillID string) *common.EffectivenessMetrics {
	records := store.executions[skillID]
	if len(records) == 0 {
		return nil
	}

	cutoff := time.Now().Add(-rollingWindow)
	recent := make([]common.ExecutionRecord, 0, len(records))
	for _, r := range records {
		if !r.Timestamp.Before(cutoff) {
			recent = append(recent, r)
		}
	}

	errorBreakdown := make(map[string]int)
	var satisfactionSum float64
	satisfactionCount := 0
	for _, r := range records {
		if !r.Success && len(r.ErrorMessage) > 0 {
			errorBreakdown[r.ErrorMessage]++
		}
		if r.UserSatisfaction != nil {
			satisfactionSum += *r.UserSatisfaction
			satisfactionCount++
		}
	}

	em := &common.EffectivenessMetrics{
		SkillID:        skillID,
		WindowStats:    computeWindowStats(records),
		Last24Hours:    computeWindowStats(recent),
		ErrorBreakdown: errorBreakdown,
	}

	if satisfactionCount > 0 {
		avg := satisfactionSum / float64(satisfactionCount)
		em.AvgUserSatisfaction = &avg
	}

	em.EffectivenessScore = effectivenessScore(em.SuccessRate, em.ErrorRate, em.AvgUserSatisfaction)

	return em
}

func computeWindowStats(records []common.ExecutionRecord) common.WindowStats {
	stats := common.WindowStats{
		TotalExecutions: len(records),
	}
	if len(records) == 0 {
		return stats
	}

	execTimes := make([]float64, 0, len(records))
	var execTimeSum float64
	var savedSum float64
	for _, r := range records {
		if r.Success {
			stats.SuccessfulExecutions++
		} else {
			stats.FailedExecutions++
		}
		execTimes = append(execTimes, r.ExecutionTimeMs)
		execTimeSum += r.ExecutionTimeMs
		savedSum += r.TokensSaved
	}

	total := float64(len(records))
	stats.SuccessRate = float64(stats.SuccessfulExecutions) / total
	stats.ErrorRate = float64(stats.FailedExecutions) / total
	stats.AvgExecutionTimeMs = execTimeSum / total
	stats.P95ExecutionTimeMs = percentile95(execTimes)
	stats.TotalTokensSaved = savedSum
	stats.AvgTokensSaved = savedSum / total
	stats.StdDevTokensSaved = populationStdDev(records, stats.AvgTokensSaved)

	return stats
}

// percentile95 uses the nearest-rank method: sort ascending, pick index ceil(0.95*n)-1
func percentile95(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	idx := int(math.Ceil(0.95*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}

	return sorted[idx]
}

func populationStdDev(records []common.ExecutionRecord, mean float64) float64 {
	if len(records) == 0 {
		return 0
	}

	var sum float64
	for _, r := range records {
		diff := r.TokensSaved - mean
		sum += diff * diff
	}

	return math.Sqrt(sum / float64(len(records)))
}

// effectivenessScore blends reliability and user-perceived quality into a 0-1 composite.
// Without a satisfaction signal the reliability part is normalized to the full range, with
// one the satisfaction contributes the remaining weight. The score is non-decreasing in
// success rate and a high satisfaction signal can only raise it
func effectivenessScore(successRate float64, errorRate float64, avgSatisfaction *float64) float64 {
	base := 0.6*successRate + 0.2*(1-errorRate)
	if avgSatisfaction == nil {
		return clamp01(base / 0.8)
	}

	return clamp01(base + 0.2*(*avgSatisfaction/5))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}

	return v
}

// IsInterfaceNil returns true if the value under the interface is nil
func (store *metricsStore) IsInterfaceNil() bool {
	return store == nil
}
