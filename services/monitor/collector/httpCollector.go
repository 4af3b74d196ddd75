package collector

import (
	"context"
	"io"
	"net/http"
	"time"

	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/tidwall/gjson"

	"github.com/practiq/skills-monitoring/services/monitor/common"
	"github.com/practiq/skills-monitoring/services/monitor/config"
)

var log = logger.GetOrCreate("collector")

// httpCollector fetches the skills service metrics endpoint and extracts the snapshot
// fields through configured JSON paths
type httpCollector struct {
	cfg    config.CollectorConfig
	client *http.Client
}

// NewHTTPCollector creates a new HTTP-based collector with a default timeout
func NewHTTPCollector(cfg config.CollectorConfig) *httpCollector {
	timeout := time.Duration(cfg.TimeoutInSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &httpCollector{
		cfg: cfg,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Collect builds one snapshot from the metrics endpoint. Any transport or status failure
// yields a snapshot with ServiceHealth = 0 so the service-down rule observes outages
func (c *httpCollector) Collect(ctx context.Context) common.MetricSnapshot {
	snapshot := common.MetricSnapshot{
		Timestamp: time.Now(),
	}

	body, err := c.fetch(ctx)
	if err != nil {
		log.Warn("metrics endpoint unreachable, reporting service down", "url", c.cfg.URL, "error", err)
		return snapshot
	}

	snapshot.ServiceHealth = 1
	snapshot.ErrorRate = c.extract(body, c.cfg.Paths.ErrorRate)
	snapshot.TimeoutRate = c.extract(body, c.cfg.Paths.TimeoutRate)
	snapshot.P95LatencyMs = c.extract(body, c.cfg.Paths.P95LatencyMs)
	snapshot.AvgLatencyMs = c.extract(body, c.cfg.Paths.AvgLatencyMs)
	snapshot.HourlyCost = c.extract(body, c.cfg.Paths.HourlyCost)
	snapshot.CostSpikeRatio = c.extract(body, c.cfg.Paths.CostSpikeRatio)
	snapshot.CacheHitRate = c.extract(body, c.cfg.Paths.CacheHitRate)

	return snapshot
}

func (c *httpCollector) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errStatusNotOK(resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// extract reads a numeric value at the gjson path, defaulting to 0 for missing paths
func (c *httpCollector) extract(body []byte, path string) float64 {
	if len(path) == 0 {
		return 0
	}

	result := gjson.GetBytes(body, path)
	if !result.Exists() {
		log.Warn("JSON path not found in metrics response", "path", path)
		return 0
	}

	return result.Float()
}

// IsInterfaceNil returns true if the value under the interface is nil
func (c *httpCollector) IsInterfaceNil() bool {
	return c == nil
}
