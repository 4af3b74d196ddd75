package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/practiq/skills-monitoring/services/monitor/config"
)

func createTestPaths() config.SnapshotPaths {
	return config.SnapshotPaths{
		ErrorRate:      "skills.errorRate",
		TimeoutRate:    "skills.timeoutRate",
		P95LatencyMs:   "latency.p95Ms",
		AvgLatencyMs:   "latency.avgMs",
		HourlyCost:     "cost.hourly",
		CostSpikeRatio: "cost.spikeRatio",
		CacheHitRate:   "cache.hitRate",
	}
}

func TestHTTPCollector_Collect(t *testing.T) {
	t.Parallel()

	t.Run("healthy endpoint should extract all fields", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{
				"skills": {"errorRate": 2.5, "timeoutRate": 0.5},
				"latency": {"p95Ms": 1200, "avgMs": 340.5},
				"cost": {"hourly": 12.75, "spikeRatio": 110},
				"cache": {"hitRate": 85.2}
			}`))
		}))
		defer srv.Close()

		c := NewHTTPCollector(config.CollectorConfig{
			URL:   srv.URL,
			Paths: createTestPaths(),
		})

		before := time.Now()
		snapshot := c.Collect(context.Background())

		assert.Equal(t, 1, snapshot.ServiceHealth)
		assert.Equal(t, 2.5, snapshot.ErrorRate)
		assert.Equal(t, 0.5, snapshot.TimeoutRate)
		assert.Equal(t, float64(1200), snapshot.P95LatencyMs)
		assert.Equal(t, 340.5, snapshot.AvgLatencyMs)
		assert.Equal(t, 12.75, snapshot.HourlyCost)
		assert.Equal(t, float64(110), snapshot.CostSpikeRatio)
		assert.Equal(t, 85.2, snapshot.CacheHitRate)
		assert.False(t, snapshot.Timestamp.Before(before))
	})
	t.Run("unreachable endpoint should report service down", func(t *testing.T) {
		c := NewHTTPCollector(config.CollectorConfig{
			URL:              "http://127.0.0.1:1/metrics",
			TimeoutInSeconds: 1,
			Paths:            createTestPaths(),
		})

		snapshot := c.Collect(context.Background())

		assert.Equal(t, 0, snapshot.ServiceHealth)
		assert.Zero(t, snapshot.ErrorRate)
		assert.False(t, snapshot.Timestamp.IsZero())
	})
	t.Run("non-2xx status should report service down", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		c := NewHTTPCollector(config.CollectorConfig{
			URL:   srv.URL,
			Paths: createTestPaths(),
		})

		snapshot := c.Collect(context.Background())
		assert.Equal(t, 0, snapshot.ServiceHealth)
	})
	t.Run("missing paths should default to zero but keep health up", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"skills": {"errorRate": 3.1}}`))
		}))
		defer srv.Close()

		c := NewHTTPCollector(config.CollectorConfig{
			URL:   srv.URL,
			Paths: createTestPaths(),
		})

		snapshot := c.Collect(context.Background())

		assert.Equal(t, 1, snapshot.ServiceHealth)
		assert.Equal(t, 3.1, snapshot.ErrorRate)
		assert.Zero(t, snapshot.CacheHitRate)
		assert.Zero(t, snapshot.P95LatencyMs)
	})
	t.Run("empty configured path is skipped silently", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"skills": {"errorRate": 3.1}}`))
		}))
		defer srv.Close()

		paths := createTestPaths()
		paths.CacheHitRate = ""
		c := NewHTTPCollector(config.CollectorConfig{
			URL:   srv.URL,
			Paths: paths,
		})

		snapshot := c.Collect(context.Background())
		assert.Zero(t, snapshot.CacheHitRate)
	})
}

func TestHTTPCollector_IsInterfaceNil(t *testing.T) {
	t.Parallel()

	var nilCollector *httpCollector
	require.True(t, nilCollector.IsInterfaceNil())

	c := NewHTTPCollector(config.CollectorConfig{})
	require.False(t, c.IsInterfaceNil())
}
