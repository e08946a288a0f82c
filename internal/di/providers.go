package di

import (
	"fmt"

	"MarketDesk/internal/domain/models"
	"MarketDesk/internal/domain/repository"
	"MarketDesk/internal/handler/api"
	"MarketDesk/internal/handler/ws"
	"MarketDesk/internal/presenter"
	"MarketDesk/internal/service/cache"
	"MarketDesk/internal/service/marketapi"
	"MarketDesk/internal/service/ratelimit"
	"MarketDesk/internal/usecase"
	"MarketDesk/pkg/config"
	xhttp "MarketDesk/pkg/http"
	applogger "MarketDesk/pkg/logger"
	"MarketDesk/pkg/metrics"
	"MarketDesk/pkg/server"
)

// ProvideLogger creates the root application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := cfg.Log.Format
	if cfg.Environment == "production" {
		format = "json"
	}
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New()
}

// ProvideSessionMetrics exposes the recorder through the domain port.
func ProvideSessionMetrics(r *metrics.Recorder) repository.Metrics {
	return r
}

// ProvideHub creates the snapshot stream hub and routes aggregated warn/error
// logs to it. Loggers derived after this call inherit the collector.
func ProvideHub(cfg *config.Config, l *applogger.Logger, r *metrics.Recorder) *ws.Hub {
	hub := ws.NewHub(ws.Config{
		WriteTimeout: cfg.WebSocket.WriteTimeout,
		Buffer:       cfg.WebSocket.Buffer,
	}, l, r)

	l.AddCollector(&applogger.CollectionConfig{
		TimeInterval: cfg.Log.CollectInterval,
		Topic:        ws.TopicLogs,
		Publisher:    hub,
	})
	return hub
}

// ProvideMarketService creates the remote service client.
func ProvideMarketService(cfg *config.Config, l *applogger.Logger) repository.MarketService {
	return marketapi.NewFromConfig(cfg, l)
}

// ProvideSession creates the operator session with the configured initial query.
func ProvideSession(
	cfg *config.Config,
	svc repository.MarketService,
	m repository.Metrics,
	hub *ws.Hub,
	l *applogger.Logger,
) (*usecase.Session, error) {
	return usecase.NewSession(svc,
		usecase.WithMetrics(m),
		usecase.WithSnapshotSink(hub),
		usecase.WithLogger(l),
		usecase.WithInitialQuery(models.TimeSeriesQuery{
			Symbol: models.Symbol(cfg.Query.Symbol),
			Days:   cfg.Query.Days,
			From:   models.Anchor(cfg.Query.From),
		}),
	)
}

func ProvidePresenter() *presenter.Presenter {
	return presenter.New()
}

// ProvideSessionHandler creates the console API handler.
func ProvideSessionHandler(
	cfg *config.Config,
	l *applogger.Logger,
	session *usecase.Session,
	p *presenter.Presenter,
) *api.SessionEchoHandler {
	return api.NewSessionEchoHandler(l, session, p,
		api.WithDispatchLimiter(ratelimit.New(cfg.Server.DispatchBurst, cfg.Server.DispatchRate)),
		api.WithViewCache(cache.NewTTLCache()),
	)
}

// ProvideHTTPServer creates the Echo server with the API and stream routes.
func ProvideHTTPServer(
	cfg *config.Config,
	l *applogger.Logger,
	h *api.SessionEchoHandler,
	hub *ws.Hub,
) *xhttp.Server {
	metricsPath := cfg.Metrics.Path
	if cfg.Metrics.Disabled {
		metricsPath = ""
	}
	return xhttp.NewServer([]xhttp.Handler{h, hub},
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(!cfg.Server.DisableCORS),
		xhttp.WithMetrics(metricsPath, cfg.Metrics.SlowThreshold),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	session *usecase.Session,
	srv *xhttp.Server,
) *server.App {
	return server.New(cfg, l, session, srv)
}
