package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/practiq/skills-monitoring/services/monitor/common"
	"github.com/practiq/skills-monitoring/services/monitor/metrics"
	"github.com/practiq/skills-monitoring/services/monitor/testsCommon"
)

const testServiceKey = "test-service-key"

func createTestServer(t *testing.T, alerts AlertsHandler, metricsHandler MetricsHandler, archive ArchiveReader) *server {
	if alerts == nil {
		alerts = &testsCommon.AlertsStub{}
	}
	if metricsHandler == nil {
		store, err := metrics.NewMetricsStore(100, 100)
		require.NoError(t, err)
		metricsHandler = store
	}

	s, err := NewServer(ArgsWebServer{
		ServiceKeyApi:  testServiceKey,
		ListenAddress:  "127.0.0.1:0",
		Alerts:         alerts,
		Metrics:        metricsHandler,
		Archive:        archive,
		GeneralHandler: CORSMiddleware,
	})
	require.NoError(t, err)

	return s
}

func doRequest(s *server, method string, target string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewBuffer(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set("X-Api-Key", testServiceKey)
	req.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	s.router.ServeHTTP(recorder, req)

	return recorder
}

func TestNewServer(t *testing.T) {
	t.Parallel()

	store, err := metrics.NewMetricsStore(10, 10)
	require.NoError(t, err)

	t.Run("nil alerts handler should error", func(t *testing.T) {
		s, errServer := NewServer(ArgsWebServer{
			Metrics:        store,
			GeneralHandler: CORSMiddleware,
		})

		assert.Nil(t, s)
		assert.True(t, s.IsInterfaceNil())
		require.Error(t, errServer)
		assert.Contains(t, errServer.Error(), "alerts handler is required")
	})
	t.Run("nil metrics handler should error", func(t *testing.T) {
		s, errServer := NewServer(ArgsWebServer{
			Alerts:         &testsCommon.AlertsStub{},
			GeneralHandler: CORSMiddleware,
		})

		assert.Nil(t, s)
		require.Error(t, errServer)
		assert.Contains(t, errServer.Error(), "metrics handler is required")
	})
	t.Run("nil general handler should error", func(t *testing.T) {
		s, errServer := NewServer(ArgsWebServer{
			Alerts:  &testsCommon.AlertsStub{},
			Metrics: store,
		})

		assert.Nil(t, s)
		require.Error(t, errServer)
		assert.Contains(t, errServer.Error(), "nil http handler")
	})
	t.Run("should work", func(t *testing.T) {
		s := createTestServer(t, nil, nil, nil)
		assert.False(t, s.IsInterfaceNil())
	})
}

func TestServer_Auth(t *testing.T) {
	t.Parallel()

	s := createTestServer(t, nil, nil, nil)

	t.Run("missing key should be unauthorized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/alerts/active", nil)
		recorder := httptest.NewRecorder()
		s.router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
	t.Run("wrong key should be unauthorized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/alerts/active", nil)
		req.Header.Set("X-Api-Key", "wrong-key")
		recorder := httptest.NewRecorder()
		s.router.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
	t.Run("correct key should pass", func(t *testing.T) {
		recorder := doRequest(s, http.MethodGet, "/api/alerts/active", nil)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})
}

func TestServer_ReportExecutions(t *testing.T) {
	t.Parallel()

	t.Run("invalid payload should error", func(t *testing.T) {
		s := createTestServer(t, nil, nil, nil)

		recorder := doRequest(s, http.MethodPost, "/api/executions", []byte("not json"))
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
	t.Run("valid batch lands in the store", func(t *testing.T) {
		store, err := metrics.NewMetricsStore(100, 100)
		require.NoError(t, err)
		s := createTestServer(t, nil, store, nil)

		payload := []byte(`{
			"executions": [
				{"skillId": "summarize", "success": true, "executionTimeMs": 120, "tokensUsed": 400, "tokensSaved": 0.8},
				{"skillId": "summarize", "success": false, "executionTimeMs": 340, "errorMessage": "timeout", "userSatisfaction": 3.5}
			]
		}`)

		recorder := doRequest(s, http.MethodPost, "/api/executions", payload)
		require.Equal(t, http.StatusOK, recorder.Code)

		var response struct {
			OK       bool `json:"ok"`
			Recorded int  `json:"recorded"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
		assert.True(t, response.OK)
		assert.Equal(t, 2, response.Recorded)

		em := store.GetEffectiveness("summarize")
		require.NotNil(t, em)
		assert.Equal(t, 2, em.TotalExecutions)
		assert.Equal(t, 0.5, em.SuccessRate)
	})
}

func TestServer_MetricsRoutes(t *testing.T) {
	t.Parallel()

	t.Run("current metrics 404 before first snapshot", func(t *testing.T) {
		s := createTestServer(t, &testsCommon.AlertsStub{}, nil, nil)

		recorder := doRequest(s, http.MethodGet, "/api/metrics/current", nil)
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
	t.Run("current metrics returns the latest snapshot", func(t *testing.T) {
		alerts := &testsCommon.AlertsStub{
			GetCurrentMetricsHandler: func() (common.MetricSnapshot, bool) {
				return common.MetricSnapshot{ErrorRate: 3.2, ServiceHealth: 1}, true
			},
		}
		s := createTestServer(t, alerts, nil, nil)

		recorder := doRequest(s, http.MethodGet, "/api/metrics/current", nil)
		require.Equal(t, http.StatusOK, recorder.Code)

		var snapshot common.MetricSnapshot
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &snapshot))
		assert.Equal(t, 3.2, snapshot.ErrorRate)
	})
	t.Run("metrics history forwards the limit", func(t *testing.T) {
		var receivedLimit int
		alerts := &testsCommon.AlertsStub{
			GetMetricsHistoryHandler: func(limit int) []common.MetricSnapshot {
				receivedLimit = limit
				return []common.MetricSnapshot{{}, {}}
			},
		}
		s := createTestServer(t, alerts, nil, nil)

		recorder := doRequest(s, http.MethodGet, "/api/metrics/history?limit=25", nil)
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, 25, receivedLimit)
	})
}

func TestServer_AlertsRoutes(t *testing.T) {
	t.Parallel()

	alerts := &testsCommon.AlertsStub{
		GetActiveAlertsHandler: func() []common.Alert {
			return []common.Alert{{ID: "a1", ThresholdID: "skills-service-down"}}
		},
		GetHistoryHandler: func(_ int) []common.Alert {
			return []common.Alert{{ID: "a1"}, {ID: "a2"}}
		},
		GenerateDailySummaryHandler: func() common.DailySummary {
			return common.DailySummary{TriggeredTotal: 2, GeneratedAt: time.Now()}
		},
	}
	s := createTestServer(t, alerts, nil, nil)

	t.Run("active alerts", func(t *testing.T) {
		recorder := doRequest(s, http.MethodGet, "/api/alerts/active", nil)
		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "skills-service-down")
	})
	t.Run("alerts history", func(t *testing.T) {
		recorder := doRequest(s, http.MethodGet, "/api/alerts/history", nil)
		require.Equal(t, http.StatusOK, recorder.Code)

		var response struct {
			Alerts []common.Alert `json:"alerts"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
		assert.Len(t, response.Alerts, 2)
	})
	t.Run("summary includes the plain-text report", func(t *testing.T) {
		recorder := doRequest(s, http.MethodGet, "/api/summary", nil)
		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), `"report"`)
		assert.Contains(t, recorder.Body.String(), `"summary"`)
	})
}

func TestServer_SkillsRoutes(t *testing.T) {
	t.Parallel()

	store, err := metrics.NewMetricsStore(100, 100)
	require.NoError(t, err)
	store.RecordExecution(common.ExecutionRecord{SkillID: "summarize", Timestamp: time.Now(), Success: true, TokensSaved: 0.5})
	store.RecordExecution(common.ExecutionRecord{SkillID: "translate", Timestamp: time.Now(), Success: true, TokensSaved: 0.9})

	s := createTestServer(t, nil, store, nil)

	t.Run("effectiveness for unknown skill is 404", func(t *testing.T) {
		recorder := doRequest(s, http.MethodGet, "/api/skills/unknown/effectiveness", nil)
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
	t.Run("effectiveness for known skill", func(t *testing.T) {
		recorder := doRequest(s, http.MethodGet, "/api/skills/summarize/effectiveness", nil)
		require.Equal(t, http.StatusOK, recorder.Code)

		var em common.EffectivenessMetrics
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &em))
		assert.Equal(t, "summarize", em.SkillID)
		assert.Equal(t, 1, em.TotalExecutions)
	})
	t.Run("top skills with an unknown dimension is 400", func(t *testing.T) {
		recorder := doRequest(s, http.MethodGet, "/api/skills/top?rankBy=bogus", nil)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
	t.Run("top skills by savings", func(t *testing.T) {
		recorder := doRequest(s, http.MethodGet, "/api/skills/top?rankBy=savings&limit=1", nil)
		require.Equal(t, http.StatusOK, recorder.Code)

		var response struct {
			Skills []common.EffectivenessMetrics `json:"skills"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
		require.Len(t, response.Skills, 1)
		assert.Equal(t, "translate", response.Skills[0].SkillID)
	})
	t.Run("execution history", func(t *testing.T) {
		recorder := doRequest(s, http.MethodGet, "/api/skills/summarize/history", nil)
		require.Equal(t, http.StatusOK, recorder.Code)

		var response struct {
			Executions []common.ExecutionRecord `json:"executions"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
		require.Len(t, response.Executions, 1)
	})
}

func TestServer_ArchiveRoute(t *testing.T) {
	t.Parallel()

	t.Run("disabled archive is 404", func(t *testing.T) {
		s := createTestServer(t, nil, nil, nil)

		recorder := doRequest(s, http.MethodGet, "/api/archive/alerts", nil)
		assert.Equal(t, http.StatusNotFound, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "archive not enabled")
	})
	t.Run("archive errors map to 500", func(t *testing.T) {
		archive := &testsCommon.ArchiveStub{
			GetRecentAlertsHandler: func(_ context.Context, _ int) ([]common.Alert, error) {
				return nil, errors.New("db locked")
			},
		}
		s := createTestServer(t, nil, nil, archive)

		recorder := doRequest(s, http.MethodGet, "/api/archive/alerts", nil)
		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	})
	t.Run("archive returns stored alerts", func(t *testing.T) {
		archive := &testsCommon.ArchiveStub{
			GetRecentAlertsHandler: func(_ context.Context, _ int) ([]common.Alert, error) {
				return []common.Alert{{ID: "archived-1"}}, nil
			},
		}
		s := createTestServer(t, nil, nil, archive)

		recorder := doRequest(s, http.MethodGet, "/api/archive/alerts", nil)
		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "archived-1")
	})
}

func TestServer_StartAndClose(t *testing.T) {
	t.Parallel()

	s := createTestServer(t, nil, nil, nil)
	s.Start()

	address := s.Address()
	require.NotEqual(t, "127.0.0.1:0", address)

	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("http://%s/api/alerts/active", address), nil)
	require.NoError(t, err)
	req.Header.Set("X-Api-Key", testServiceKey)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	require.NoError(t, s.Close())
}

func TestCORSMiddleware(t *testing.T) {
	t.Parallel()

	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := CORSMiddleware(inner)

	t.Run("preflight is answered without reaching the inner handler", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodOptions, "/api/summary", nil))

		assert.Equal(t, http.StatusNoContent, recorder.Code)
		assert.Equal(t, "*", recorder.Header().Get("Access-Control-Allow-Origin"))
	})
	t.Run("regular requests pass through with headers set", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/summary", nil))

		assert.Equal(t, http.StatusTeapot, recorder.Code)
		assert.Contains(t, recorder.Header().Get("Access-Control-Allow-Headers"), "X-Api-Key")
	})
}
