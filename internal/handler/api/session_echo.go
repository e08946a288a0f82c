package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"MarketDesk/internal/domain/models"
	"MarketDesk/internal/presenter"
	"MarketDesk/internal/service/cache"
	"MarketDesk/internal/service/ratelimit"
	"MarketDesk/internal/usecase"
	xhttp "MarketDesk/pkg/http"
	xlogger "MarketDesk/pkg/logger"

	"github.com/labstack/echo/v4"
)

const viewTTL = 30 * time.Second

// SessionEchoHandler exposes the console session over HTTP.
type SessionEchoHandler struct {
	logger    *xlogger.Logger
	session   *usecase.Session
	presenter *presenter.Presenter
	limiter   *ratelimit.Limiter
	views     *cache.TTLCache
}

type HandlerOption func(*SessionEchoHandler)

// WithDispatchLimiter throttles the endpoints that call the remote service,
// keyed by client IP.
func WithDispatchLimiter(l *ratelimit.Limiter) HandlerOption {
	return func(h *SessionEchoHandler) { h.limiter = l }
}

// WithViewCache memoizes rendered views per snapshot version.
func WithViewCache(c *cache.TTLCache) HandlerOption {
	return func(h *SessionEchoHandler) { h.views = c }
}

func NewSessionEchoHandler(logger *xlogger.Logger, session *usecase.Session, p *presenter.Presenter, opts ...HandlerOption) *SessionEchoHandler {
	if logger == nil {
		logger = xlogger.NewNop()
	}
	if p == nil {
		p = presenter.New()
	}
	h := &SessionEchoHandler{logger: logger, session: session, presenter: p}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *SessionEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/state", h.State)
	g.PUT("/mode", h.SwitchMode)
	g.PUT("/query", h.SetQuery)
	g.POST("/query/fetch", h.FetchSeries, h.throttle)
	g.POST("/predict", h.RunPrediction, h.throttle)
	g.PUT("/forms/:symbol", h.SetField)
	g.POST("/forms/:symbol/reset", h.ResetForm)
	g.POST("/feed/:symbol", h.SubmitFeed, h.throttle)
	g.GET("/series/chart", h.SeriesChart)
	g.GET("/prediction/card", h.PredictionCard)
}

// State godoc
// @Summary  Current session snapshot
// @Success  200 {object} xhttp.APIResponse
// @Router   /api/state [get]
func (h *SessionEchoHandler) State(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.session.Snapshot())
}

// SwitchMode godoc
// @Param    body body models.ModeRequest true "target mode"
// @Success  200 {object} xhttp.APIResponse
// @Failure  400 {object} xhttp.APIResponse400Err
// @Router   /api/mode [put]
func (h *SessionEchoHandler) SwitchMode(c echo.Context) error {
	req := &models.ModeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	snap, err := h.session.SwitchMode(models.Mode(req.Mode))
	if err != nil {
		return h.fail(c, err)
	}
	return xhttp.SuccessResponse(c, snap)
}

// SetQuery merges the body into the current query parameters; fields the
// body leaves out keep their current value.
// @Param    body body models.TimeSeriesQuery true "query parameters"
// @Success  200 {object} xhttp.APIResponse
// @Failure  400 {object} xhttp.APIResponse400Err
// @Router   /api/query [put]
func (h *SessionEchoHandler) SetQuery(c echo.Context) error {
	q := h.session.Query()
	if err := c.Bind(&q); err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("invalid query body").WithError(err))
	}
	snap, err := h.session.SetQuery(q)
	if err != nil {
		return h.fail(c, err)
	}
	return xhttp.SuccessResponse(c, snap)
}

// FetchSeries godoc
// @Success  200 {object} xhttp.APIResponse "outcome in data.last_error"
// @Failure  409 {object} xhttp.APIResponse409Err
// @Router   /api/query/fetch [post]
func (h *SessionEchoHandler) FetchSeries(c echo.Context) error {
	snap, err := h.session.FetchSeries(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return xhttp.SuccessResponse(c, snap)
}

// RunPrediction godoc
// @Success  200 {object} xhttp.APIResponse "outcome in data.last_error"
// @Failure  409 {object} xhttp.APIResponse409Err
// @Router   /api/predict [post]
func (h *SessionEchoHandler) RunPrediction(c echo.Context) error {
	snap, err := h.session.RunPrediction(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return xhttp.SuccessResponse(c, snap)
}

// SetField godoc
// @Param    symbol path string true "nifty or vix"
// @Param    body body models.FieldRequest true "field edit"
// @Success  200 {object} xhttp.APIResponse
// @Failure  400 {object} xhttp.APIResponse400Err
// @Router   /api/forms/{symbol} [put]
func (h *SessionEchoHandler) SetField(c echo.Context) error {
	sym, err := models.ParseSymbol(c.Param("symbol"))
	if err != nil {
		return h.fail(c, err)
	}
	req := &models.FieldRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	snap, err := h.session.SetField(sym, req.Key, req.Value)
	if err != nil {
		return h.fail(c, err)
	}
	return xhttp.SuccessResponse(c, snap)
}

// ResetForm godoc
// @Param    symbol path string true "nifty or vix"
// @Success  200 {object} xhttp.APIResponse
// @Router   /api/forms/{symbol}/reset [post]
func (h *SessionEchoHandler) ResetForm(c echo.Context) error {
	sym, err := models.ParseSymbol(c.Param("symbol"))
	if err != nil {
		return h.fail(c, err)
	}
	snap, err := h.session.ResetForm(sym)
	if err != nil {
		return h.fail(c, err)
	}
	return xhttp.SuccessResponse(c, snap)
}

// SubmitFeed godoc
// @Param    symbol path string true "nifty or vix"
// @Success  200 {object} xhttp.APIResponse "outcome in data.last_error / data.notice"
// @Failure  409 {object} xhttp.APIResponse409Err
// @Router   /api/feed/{symbol} [post]
func (h *SessionEchoHandler) SubmitFeed(c echo.Context) error {
	sym, err := models.ParseSymbol(c.Param("symbol"))
	if err != nil {
		return h.fail(c, err)
	}
	snap, err := h.session.SubmitFeed(c.Request().Context(), sym)
	if err != nil {
		return h.fail(c, err)
	}
	return xhttp.SuccessResponse(c, snap)
}

// SeriesChart godoc
// @Param    rows query int false "table rows" default(10)
// @Success  200 {object} xhttp.APIResponse
// @Failure  404 {object} xhttp.APIResponse
// @Router   /api/series/chart [get]
func (h *SessionEchoHandler) SeriesChart(c echo.Context) error {
	snap := h.session.Snapshot()
	if snap.Series == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no series fetched"))
	}
	rows := xhttp.ParseIntDefault(c.QueryParam("rows"), presenter.DefaultTableRows)
	view := h.cached(fmt.Sprintf("series:%d:%d", snap.Version, rows), func() any {
		return h.presenter.Series(snap.Series, rows)
	})
	return xhttp.SuccessResponse(c, view)
}

// PredictionCard godoc
// @Success  200 {object} xhttp.APIResponse
// @Failure  404 {object} xhttp.APIResponse
// @Router   /api/prediction/card [get]
func (h *SessionEchoHandler) PredictionCard(c echo.Context) error {
	snap := h.session.Snapshot()
	if snap.Prediction == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no prediction available"))
	}
	view := h.cached(fmt.Sprintf("card:%d", snap.Version), func() any {
		return h.presenter.Card(snap.Prediction)
	})
	return xhttp.SuccessResponse(c, view)
}

// throttle rejects dispatches above the configured rate with 429.
func (h *SessionEchoHandler) throttle(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !h.limiter.Allow(c.RealIP()) {
			h.logger.Warn("dispatch throttled", xlogger.String("remote", c.RealIP()), xlogger.String("path", c.Path()))
			return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_RATE_LIMITED", "", "too many requests", http.StatusTooManyRequests).
				WithParam("path", c.Path()))
		}
		return next(c)
	}
}

// cached returns the view stored under key, building and storing it on a miss.
// Keys carry the snapshot version, so a stored view never goes stale.
func (h *SessionEchoHandler) cached(key string, build func() any) any {
	if h.views == nil {
		return build()
	}
	if v, ok := h.views.Get(key); ok {
		return v
	}
	v := build()
	h.views.Set(key, v, viewTTL)
	h.views.Sweep()
	return v
}

// fail maps session errors onto the API envelope.
func (h *SessionEchoHandler) fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, models.ErrBusy):
		return xhttp.AppErrorResponse(c, xhttp.ConflictError("a request is already in flight").WithError(err))
	case errors.Is(err, models.ErrUnknownSymbol),
		errors.Is(err, models.ErrUnknownMode),
		errors.Is(err, models.ErrUnknownField),
		errors.Is(err, models.ErrInvalidQuery):
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()).WithError(err))
	default:
		h.logger.Error("session handler error", xlogger.String("path", c.Path()), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("session error").WithError(err))
	}
}
