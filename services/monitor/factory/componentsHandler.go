package factory

import (
	"context"
	"sync"
	"time"

	"github.com/practiq/skills-monitoring/commonGo"
	"github.com/practiq/skills-monitoring/services/monitor/alerting"
	"github.com/practiq/skills-monitoring/services/monitor/api"
	"github.com/practiq/skills-monitoring/services/monitor/collector"
	"github.com/practiq/skills-monitoring/services/monitor/config"
	"github.com/practiq/skills-monitoring/services/monitor/engine"
	"github.com/practiq/skills-monitoring/services/monitor/metrics"
	"github.com/practiq/skills-monitoring/services/monitor/notifiers"
	"github.com/practiq/skills-monitoring/services/monitor/storage"
)

const (
	defaultSnapshotCapacity  = 1440 // 24h at 1-minute cadence
	defaultExecutionCapacity = 10000
	defaultEvaluateInterval  = time.Minute
	defaultNotifierTimeout   = 10 * time.Second
	summaryInterval          = 24 * time.Hour
)

// ArgsComponentsHandler groups the secrets and configuration for NewComponentsHandler
type ArgsComponentsHandler struct {
	ServiceKeyApi   string
	PagerRoutingKey string
	SMTPPassword    string
	Config          config.Config
}

// archiveHandler groups what the factory needs from the optional archive component
type archiveHandler interface {
	alerting.Archive
	api.ArchiveReader
	Close() error
}

type componentsHandler struct {
	store            api.MetricsHandler
	alerts           api.AlertsHandler
	engine           Engine
	server           Server
	archive          archiveHandler
	evaluateInterval time.Duration
	mutCancel        sync.Mutex
	cancel           func()
}

// NewComponentsHandler creates a new components handler
func NewComponentsHandler(args ArgsComponentsHandler) (*componentsHandler, error) {
	cfg := args.Config

	snapshotCapacity := cfg.Metrics.SnapshotCapacity
	if snapshotCapacity <= 0 {
		snapshotCapacity = defaultSnapshotCapacity
	}
	executionCapacity := cfg.Metrics.ExecutionCapacity
	if executionCapacity <= 0 {
		executionCapacity = defaultExecutionCapacity
	}

	store, err := metrics.NewMetricsStore(snapshotCapacity, executionCapacity)
	if err != nil {
		return nil, err
	}

	notifierList, reportSender, err := createNotifiers(args)
	if err != nil {
		return nil, err
	}

	var archive archiveHandler
	if cfg.Archive.Enabled {
		sqliteArchive, errArchive := storage.NewSQLiteArchive(cfg.Archive.DBPath, cfg.Archive.RetentionSeconds)
		if errArchive != nil {
			return nil, errArchive
		}
		archive = sqliteArchive
	}

	managerArgs := alerting.ArgsAlertsManager{
		Store:           store,
		Notifiers:       notifierList,
		HistoryCapacity: cfg.Alerts.HistoryCapacity,
		NotifyTimeout:   time.Duration(cfg.Alerts.NotifyTimeoutInSeconds) * time.Second,
	}
	if archive != nil {
		managerArgs.Archive = archive
	}

	manager, err := alerting.NewAlertsManager(managerArgs)
	if err != nil {
		closeArchive(archive)
		return nil, err
	}

	coll := collector.NewHTTPCollector(cfg.Collector)

	eng, err := engine.NewMonitorEngine(coll, manager, reportSender)
	if err != nil {
		closeArchive(archive)
		return nil, err
	}

	serverArgs := api.ArgsWebServer{
		ServiceKeyApi:  args.ServiceKeyApi,
		ListenAddress:  cfg.ListenAddress,
		Alerts:         manager,
		Metrics:        store,
		GeneralHandler: api.CORSMiddleware,
	}
	if archive != nil {
		serverArgs.Archive = archive
	}

	server, err := api.NewServer(serverArgs)
	if err != nil {
		closeArchive(archive)
		return nil, err
	}

	evaluateInterval := time.Duration(cfg.Alerts.EvaluateIntervalInSeconds) * time.Second
	if evaluateInterval <= 0 {
		evaluateInterval = defaultEvaluateInterval
	}

	handler := &componentsHandler{
		store:            store,
		alerts:           manager,
		engine:           eng,
		server:           server,
		evaluateInterval: evaluateInterval,
	}
	if archive != nil {
		handler.archive = archive
	}

	return handler, nil
}

func createNotifiers(args ArgsComponentsHandler) ([]alerting.Notifier, engine.ReportSender, error) {
	cfg := args.Config.Notifiers
	notifierList := make([]alerting.Notifier, 0)

	if cfg.Pager.Enabled {
		timeout := time.Duration(cfg.Pager.TimeoutInSeconds) * time.Second
		if timeout <= 0 {
			timeout = defaultNotifierTimeout
		}
		notifierList = append(notifierList, notifiers.NewPagerNotifier(cfg.Pager.URL, args.PagerRoutingKey, timeout))
	}

	if cfg.Chat.Enabled {
		timeout := time.Duration(cfg.Chat.TimeoutInSeconds) * time.Second
		if timeout <= 0 {
			timeout = defaultNotifierTimeout
		}
		notifierList = append(notifierList, notifiers.NewChatNotifier(cfg.Chat.WebhookURL, timeout))
	}

	var reportSender engine.ReportSender
	if cfg.Email.Enabled {
		emailNotifier, err := notifiers.NewEmailNotifier(notifiers.ArgsEmailNotifier{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			From:     cfg.Email.From,
			To:       cfg.Email.To,
			Username: cfg.Email.Username,
			Password: args.SMTPPassword,
		})
		if err != nil {
			return nil, nil, err
		}
		notifierList = append(notifierList, emailNotifier)
		reportSender = emailNotifier
	}

	return notifierList, reportSender, nil
}

func closeArchive(archive archiveHandler) {
	if archive != nil {
		_ = archive.Close()
	}
}

// GetStore returns the metrics store component
func (ch *componentsHandler) GetStore() api.MetricsHandler {
	return ch.store
}

// GetAlerts returns the alerts manager component
func (ch *componentsHandler) GetAlerts() api.AlertsHandler {
	return ch.alerts
}

// GetEngine returns the engine component
func (ch *componentsHandler) GetEngine() Engine {
	return ch.engine
}

// GetServer returns the server component
func (ch *componentsHandler) GetServer() Server {
	return ch.server
}

// Start starts the inner components and the evaluation/summary cron jobs
func (ch *componentsHandler) Start() {
	ch.mutCancel.Lock()
	defer ch.mutCancel.Unlock()

	if ch.cancel != nil {
		return
	}

	ch.server.Start()

	var ctx context.Context
	ctx, ch.cancel = context.WithCancel(context.Background())

	commonGo.CronJobStarter(ctx, ch.engine.Process, ch.evaluateInterval)
	commonGo.CronJobStarter(ctx, ch.engine.ReportSummary, summaryInterval)
}

// Close closes the inner components
func (ch *componentsHandler) Close() {
	ch.mutCancel.Lock()
	defer ch.mutCancel.Unlock()

	if ch.cancel != nil {
		ch.cancel()
		ch.cancel = nil
	}

	_ = ch.server.Close()
	if ch.archive != nil {
		_ = ch.archive.Close()
	}
}
