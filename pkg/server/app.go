package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"MarketDesk/internal/domain/models"
	"MarketDesk/internal/usecase"
	"MarketDesk/pkg/config"
	xhttp "MarketDesk/pkg/http"
	applogger "MarketDesk/pkg/logger"
)

// App encapsulates the console's lifecycle: the HTTP server and the
// operator session it serves.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	session    *usecase.Session
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, logger *applogger.Logger, session *usecase.Session, httpServer *xhttp.Server) *App {
	return &App{
		cfg:        cfg,
		logger:     logger,
		session:    session,
		httpServer: httpServer,
	}
}

// Session returns the operator session.
func (a *App) Session() *usecase.Session { return a.session }

// Run starts the HTTP server and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the HTTP server and blocks until ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	snap := a.session.Snapshot()
	a.logger.Info("console session started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("service", a.cfg.Service.BaseURL),
		applogger.String("mode", string(snap.Mode)),
		applogger.String("symbol", string(snap.Query.Symbol)),
		applogger.Int("days", snap.Query.Days),
	)

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	a.logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	snap := a.session.Snapshot()
	if snap.Busy {
		a.logger.Warn("request still in flight at shutdown; its result is discarded")
	}
	for _, sym := range []models.Symbol{models.SymbolNifty, models.SymbolVix} {
		if form, ok := snap.Forms[sym]; ok && !form.Empty() {
			a.logger.Warn("unsubmitted feed form discarded", applogger.String("symbol", string(sym)))
		}
	}

	a.logger.RemoveCollector()
	a.logger.Info("shutdown complete")
	return nil
}
