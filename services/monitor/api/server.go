package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"

	"github.com/practiq/skills-monitoring/services/monitor/common"
	"github.com/practiq/skills-monitoring/services/monitor/metrics"
)

var log = logger.GetOrCreate("api")

type server struct {
	router         *gin.Engine
	httpServer     *http.Server
	alerts         AlertsHandler
	metrics        MetricsHandler
	archive        ArchiveReader // optional
	serviceKey     string
	listenAddr     string
	generalHandler func(http.Handler) http.Handler
	wg             sync.WaitGroup
}

// ExecutionReportPayload represents the incoming JSON body on /api/executions
type ExecutionReportPayload struct {
	Executions []struct {
		SkillID          string   `json:"skillId"`
		Timestamp        int64    `json:"timestamp"` // unix seconds, 0 means now
		Success          bool     `json:"success"`
		ExecutionTimeMs  float64  `json:"executionTimeMs"`
		TokensUsed       int      `json:"tokensUsed"`
		TokensSaved      float64  `json:"tokensSaved"`
		ErrorMessage     string   `json:"errorMessage"`
		UserSatisfaction *float64 `json:"userSatisfaction"`
	} `json:"executions"`
}

// ArgsWebServer defines the web server arguments
type ArgsWebServer struct {
	ServiceKeyApi  string
	ListenAddress  string
	Alerts         AlertsHandler
	Metrics        MetricsHandler
	Archive        ArchiveReader
	GeneralHandler func(http.Handler) http.Handler
}

// NewServer initializes the Gin engine and mounts all routes
func NewServer(args ArgsWebServer) (*server, error) {
	if check.IfNil(args.Alerts) {
		return nil, errors.New("alerts handler is required")
	}
	if check.IfNil(args.Metrics) {
		return nil, errors.New("metrics handler is required")
	}
	if args.GeneralHandler == nil {
		return nil, errors.New("nil http handler")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &server{
		router:         router,
		alerts:         args.Alerts,
		metrics:        args.Metrics,
		archive:        args.Archive,
		serviceKey:     args.ServiceKeyApi,
		listenAddr:     args.ListenAddress,
		generalHandler: args.GeneralHandler,
	}

	s.setupRoutes()
	return s, nil
}

func (s *server) setupRoutes() {
	api := s.router.Group("/api")
	api.Use(s.authAPIKey())

	api.POST("/executions", s.handleReportExecutions)

	api.GET("/alerts/active", s.handleActiveAlerts)
	api.GET("/alerts/history", s.handleAlertsHistory)
	api.GET("/metrics/current", s.handleCurrentMetrics)
	api.GET("/metrics/history", s.handleMetricsHistory)
	api.GET("/summary", s.handleSummary)

	api.GET("/skills/top", s.handleTopSkills)
	api.GET("/skills/:id/effectiveness", s.handleEffectiveness)
	api.GET("/skills/:id/history", s.handleExecutionHistory)

	api.GET("/archive/alerts", s.handleArchivedAlerts)
}

// Start listens and serves connections
func (s *server) Start() {
	handler := s.generalHandler(s.router)

	s.httpServer = &http.Server{
		Addr:    s.listenAddr,
		Handler: handler,
	}

	ln, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		log.Error("failed to listen", "error", err)
		return
	}
	s.listenAddr = ln.Addr().String()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log.Info("starting HTTP server", "address", s.listenAddr)

		err := s.httpServer.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err)
		}
	}()
}

// Address returns the actual listen address
func (s *server) Address() string {
	return s.listenAddr
}

// Close gracefully stops the server
func (s *server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return err
		}
	}
	s.wg.Wait()
	return nil
}

// --- Middlewares ---

func (s *server) authAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-Api-Key")
		if key != s.serviceKey {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CORSMiddleware is the general outer handler allowing dashboard origins to query the API
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Api-Key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// --- Handlers ---

func (s *server) handleReportExecutions(c *gin.Context) {
	var payload ExecutionReportPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	log.Debug("received executions report", "sender", c.Request.RemoteAddr, "num records", len(payload.Executions))

	records := make([]common.ExecutionRecord, 0, len(payload.Executions))
	for _, e := range payload.Executions {
		ts := time.Now()
		if e.Timestamp > 0 {
			ts = time.Unix(e.Timestamp, 0)
		}

		records = append(records, common.ExecutionRecord{
			SkillID:          e.SkillID,
			Timestamp:        ts,
			Success:          e.Success,
			ExecutionTimeMs:  e.ExecutionTimeMs,
			TokensUsed:       e.TokensUsed,
			TokensSaved:      e.TokensSaved,
			ErrorMessage:     e.ErrorMessage,
			UserSatisfaction: e.UserSatisfaction,
		})
	}

	s.metrics.RecordExecutionBatch(records)

	c.JSON(http.StatusOK, gin.H{"ok": true, "recorded": len(records)})
}

func (s *server) handleActiveAlerts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"alerts": s.alerts.GetActiveAlerts()})
}

func (s *server) handleAlertsHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"alerts": s.alerts.GetHistory(limitParam(c))})
}

func (s *server) handleCurrentMetrics(c *gin.Context) {
	snapshot, found := s.alerts.GetCurrentMetrics()
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "no metrics recorded yet"})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

func (s *server) handleMetricsHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"snapshots": s.alerts.GetMetricsHistory(limitParam(c))})
}

func (s *server) handleSummary(c *gin.Context) {
	summary := s.alerts.GenerateDailySummary()
	c.JSON(http.StatusOK, gin.H{"summary": summary, "report": summary.FormatText()})
}

func (s *server) handleTopSkills(c *gin.Context) {
	rankBy := metrics.RankDimension(c.DefaultQuery("rankBy", string(metrics.RankByEffectiveness)))
	switch rankBy {
	case metrics.RankByEffectiveness, metrics.RankByUsage, metrics.RankBySavings:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown rankBy dimension"})
		return
	}

	limit := limitParam(c)
	if limit == 0 {
		limit = 10
	}

	c.JSON(http.StatusOK, gin.H{"skills": s.metrics.GetTopSkills(limit, rankBy)})
}

func (s *server) handleEffectiveness(c *gin.Context) {
	em := s.metrics.GetEffectiveness(c.Param("id"))
	if em == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "skill not found"})
		return
	}

	c.JSON(http.StatusOK, em)
}

func (s *server) handleExecutionHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"executions": s.metrics.GetExecutionHistory(c.Param("id"), limitParam(c))})
}

func (s *server) handleArchivedAlerts(c *gin.Context) {
	if check.IfNil(s.archive) {
		c.JSON(http.StatusNotFound, gin.H{"error": "archive not enabled"})
		return
	}

	alerts, err := s.archive.GetRecentAlerts(c.Request.Context(), limitParam(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

func limitParam(c *gin.Context) int {
	raw := c.Query("limit")
	if len(raw) == 0 {
		return 0
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}

	return limit
}

// IsInterfaceNil returns true if the value under the interface is nil
func (s *server) IsInterfaceNil() bool {
	return s == nil
}
