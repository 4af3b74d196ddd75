package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	logger "github.com/multiversx/mx-chain-logger-go"

	"github.com/practiq/skills-monitoring/services/monitor/common"
)

var log = logger.GetOrCreate("storage")

// sqliteArchive is the sqlite-backed durable archive for alerts and snapshots. The
// in-memory engine is the source of truth while the process runs; the archive exists so
// operators keep history across restarts
type sqliteArchive struct {
	db               *sql.DB
	retentionSeconds int
	cancelFunc       context.CancelFunc
	wg               sync.WaitGroup
}

// NewSQLiteArchive creates the database, schema, and starts the retention cleaner
func NewSQLiteArchive(dbPath string, retentionSeconds int) (*sqliteArchive, error) {
	err := prepareDirectories(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create initial empty DB file: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = createSchema(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &sqliteArchive{
		db:               db,
		retentionSeconds: retentionSeconds,
		cancelFunc:       cancel,
	}

	s.startRetentionCleaner(ctx)

	return s, nil
}

func prepareDirectories(dbPath string) error {
	if dbPath == ":memory:" {
		return nil
	}
	return os.MkdirAll(filepath.Dir(dbPath), os.ModePerm)
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS alerts (
		id           TEXT    NOT NULL PRIMARY KEY,
		threshold_id TEXT    NOT NULL,
		name         TEXT    NOT NULL,
		severity     TEXT    NOT NULL,
		status       TEXT    NOT NULL,
		triggered_at INTEGER NOT NULL,
		resolved_at  INTEGER,
		payload      TEXT    NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_alerts_triggered_at ON alerts(triggered_at);

	CREATE TABLE IF NOT EXISTS snapshots (
		recorded_at      INTEGER NOT NULL,
		error_rate       REAL    NOT NULL,
		timeout_rate     REAL    NOT NULL,
		p95_latency_ms   REAL    NOT NULL,
		avg_latency_ms   REAL    NOT NULL,
		hourly_cost      REAL    NOT NULL,
		cost_spike_ratio REAL    NOT NULL,
		cache_hit_rate   REAL    NOT NULL,
		service_health   INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_recorded_at ON snapshots(recorded_at);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// SaveAlert upserts the archived copy of an alert keyed by its id, so the trigger row is
// rewritten in place when the alert resolves
func (s *sqliteArchive) SaveAlert(ctx context.Context, alert common.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	var resolvedAt sql.NullInt64
	if alert.ResolvedAt != nil {
		resolvedAt = sql.NullInt64{Int64: alert.ResolvedAt.Unix(), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO alerts (id, threshold_id, name, severity, status, triggered_at, resolved_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status=excluded.status,
			resolved_at=excluded.resolved_at,
			payload=excluded.payload
	`, alert.ID, alert.ThresholdID, alert.Name, string(alert.Severity), string(alert.Status),
		alert.TriggeredAt.Unix(), resolvedAt, string(payload))
	if err != nil {
		return fmt.Errorf("failed to upsert alert: %w", err)
	}

	return nil
}

// SaveSnapshot appends one snapshot row
func (s *sqliteArchive) SaveSnapshot(ctx context.Context, snapshot common.MetricSnapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (recorded_at, error_rate, timeout_rate, p95_latency_ms, avg_latency_ms,
			hourly_cost, cost_spike_ratio, cache_hit_rate, service_health)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, snapshot.Timestamp.Unix(), snapshot.ErrorRate, snapshot.TimeoutRate, snapshot.P95LatencyMs,
		snapshot.AvgLatencyMs, snapshot.HourlyCost, snapshot.CostSpikeRatio, snapshot.CacheHitRate,
		snapshot.ServiceHealth)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	return nil
}

// GetRecentAlerts returns up to limit archived alerts, most recently triggered first
func (s *sqliteArchive) GetRecentAlerts(ctx context.Context, limit int) ([]common.Alert, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM alerts
		ORDER BY triggered_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var results []common.Alert
	for rows.Next() {
		var payload string
		err = rows.Scan(&payload)
		if err != nil {
			return nil, err
		}

		var alert common.Alert
		err = json.Unmarshal([]byte(payload), &alert)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal archived alert: %w", err)
		}
		results = append(results, alert)
	}

	return results, rows.Err()
}

// GetSnapshotsSince returns the archived snapshots recorded at or after the given time,
// oldest first
func (s *sqliteArchive) GetSnapshotsSince(ctx context.Context, since time.Time) ([]common.MetricSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT recorded_at, error_rate, timeout_rate, p95_latency_ms, avg_latency_ms,
			hourly_cost, cost_spike_ratio, cache_hit_rate, service_health
		FROM snapshots
		WHERE recorded_at >= ?
		ORDER BY recorded_at
	`, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var results []common.MetricSnapshot
	for rows.Next() {
		var snap common.MetricSnapshot
		var recordedAt int64
		err = rows.Scan(&recordedAt, &snap.ErrorRate, &snap.TimeoutRate, &snap.P95LatencyMs,
			&snap.AvgLatencyMs, &snap.HourlyCost, &snap.CostSpikeRatio, &snap.CacheHitRate,
			&snap.ServiceHealth)
		if err != nil {
			return nil, err
		}
		snap.Timestamp = time.Unix(recordedAt, 0)
		results = append(results, snap)
	}

	return results, rows.Err()
}

// cleanRetained deletes snapshots and resolved alerts older than the retention window.
// Active alerts are never deleted regardless of age
func (s *sqliteArchive) cleanRetained(ctx context.Context) error {
	cutoff := time.Now().Unix() - int64(s.retentionSeconds)

	_, err := s.db.ExecContext(ctx, "DELETE FROM snapshots WHERE recorded_at < ?", cutoff)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		"DELETE FROM alerts WHERE status = ? AND triggered_at < ?", string(common.StatusResolved), cutoff)

	return err
}

func (s *sqliteArchive) startRetentionCleaner(ctx context.Context) {
	s.wg.Add(1)

	// max(RetentionSeconds/10, 60)
	intervalSec := s.retentionSeconds / 10
	if intervalSec < 60 {
		intervalSec = 60
	}

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)

	go func() {
		defer s.wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				log.Debug("running retention cleanup")

				err := s.cleanRetained(ctx)
				if err != nil {
					log.Warn("failed to cleanup retained rows", "error", err)
				}
			}
		}
	}()
}

// Close closes the database and stops background routines
func (s *sqliteArchive) Close() error {
	s.cancelFunc()
	s.wg.Wait()
	return s.db.Close()
}

// IsInterfaceNil returns true if the value under the interface is nil
func (s *sqliteArchive) IsInterfaceNil() bool {
	return s == nil
}
