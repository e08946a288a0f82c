package usecase

import (
	"context"
	"fmt"
	"sync"

	"MarketDesk/internal/domain/models"
	drepo "MarketDesk/internal/domain/repository"
	xhttp "MarketDesk/pkg/http"
	xlogger "MarketDesk/pkg/logger"
)

// Session owns the operator's orchestration state: active mode, the shared
// busy/error slot, the held results and both feed forms. It lives for the
// duration of one console session.
type Session struct {
	svc     drepo.MarketService
	metrics drepo.Metrics
	sink    drepo.SnapshotSink
	logger  *xlogger.Logger

	mu         sync.Mutex
	version    uint64
	mode       models.Mode
	busy       bool
	lastError  string
	notice     string
	query      models.TimeSeriesQuery
	series     *models.TimeSeriesResult
	prediction *models.PredictionResult
	receipt    *models.FeedReceipt
	forms      map[models.Symbol]*Form
}

// SessionOption configures a Session.
type SessionOption func(*Session)

func WithMetrics(m drepo.Metrics) SessionOption {
	return func(s *Session) {
		if m != nil {
			s.metrics = m
		}
	}
}

func WithSnapshotSink(sink drepo.SnapshotSink) SessionOption {
	return func(s *Session) {
		if sink != nil {
			s.sink = sink
		}
	}
}

func WithLogger(l *xlogger.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithInitialQuery sets the series query parameters the session starts with.
func WithInitialQuery(q models.TimeSeriesQuery) SessionOption {
	return func(s *Session) {
		s.query = q
	}
}

// NewSession creates a session in QUERY mode with empty forms and no results.
func NewSession(svc drepo.MarketService, opts ...SessionOption) (*Session, error) {
	s := &Session{
		svc:     svc,
		metrics: nopMetrics{},
		sink:    nopSink{},
		logger:  xlogger.NewNop(),
		mode:    models.ModeQuery,
		forms:   make(map[models.Symbol]*Form, 2),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := xhttp.ApplyDefaultsAndValidate(context.Background(), &s.query); err != nil {
		return nil, fmt.Errorf("initial query: %w: %s", models.ErrInvalidQuery, xhttp.DescribeValidation(err))
	}

	for _, sym := range []models.Symbol{models.SymbolNifty, models.SymbolVix} {
		f, err := NewForm(sym)
		if err != nil {
			return nil, err
		}
		s.forms[sym] = f
	}

	s.logger = s.logger.With(xlogger.String("component", "session"))
	return s, nil
}

// Snapshot returns the current read-only view.
func (s *Session) Snapshot() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() models.Snapshot {
	forms := make(map[models.Symbol]models.FormSnapshot, len(s.forms))
	for sym, f := range s.forms {
		forms[sym] = f.Snapshot()
	}
	return models.Snapshot{
		Version:     s.version,
		Mode:        s.mode,
		Busy:        s.busy,
		LastError:   s.lastError,
		Notice:      s.notice,
		Query:       s.query,
		Series:      s.series,
		Prediction:  s.prediction,
		LastReceipt: s.receipt,
		Forms:       forms,
	}
}

// transition applies fn under the state lock, bumps the version and publishes
// the resulting snapshot.
func (s *Session) transition(fn func() error) (models.Snapshot, error) {
	s.mu.Lock()
	if err := fn(); err != nil {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, err
	}
	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.sink.Publish(snap)
	return snap, nil
}

// SwitchMode moves to mode. Always permitted, also while a request is in
// flight; held results are never cleared by a switch.
func (s *Session) SwitchMode(mode models.Mode) (models.Snapshot, error) {
	if _, err := models.ParseMode(string(mode)); err != nil {
		return s.Snapshot(), err
	}
	snap, err := s.transition(func() error {
		s.mode = mode
		return nil
	})
	if err == nil {
		s.metrics.RecordModeSwitch(string(mode))
		s.logger.Debug("mode switched", xlogger.String("mode", string(mode)))
	}
	return snap, err
}

// Mode returns the active mode.
func (s *Session) Mode() models.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetQuery replaces the series query parameters.
func (s *Session) SetQuery(q models.TimeSeriesQuery) (models.Snapshot, error) {
	if err := xhttp.ValidateStruct(context.Background(), &q); err != nil {
		return s.Snapshot(), fmt.Errorf("%w: %s", models.ErrInvalidQuery, xhttp.DescribeValidation(err))
	}
	return s.transition(func() error {
		s.query = q
		return nil
	})
}

// Query returns the current series query parameters.
func (s *Session) Query() models.TimeSeriesQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// SetField replaces one raw value of the symbol's feed form.
func (s *Session) SetField(symbol models.Symbol, key, value string) (models.Snapshot, error) {
	return s.transition(func() error {
		f, err := s.formLocked(symbol)
		if err != nil {
			return err
		}
		return f.Set(key, value)
	})
}

// ResetForm blanks the symbol's feed form.
func (s *Session) ResetForm(symbol models.Symbol) (models.Snapshot, error) {
	return s.transition(func() error {
		f, err := s.formLocked(symbol)
		if err != nil {
			return err
		}
		f.Reset()
		return nil
	})
}

func (s *Session) formLocked(symbol models.Symbol) (*Form, error) {
	f, ok := s.forms[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownSymbol, symbol)
	}
	return f, nil
}

type nopMetrics struct{}

func (nopMetrics) RecordRequest(string, string, float64) {}
func (nopMetrics) SetBusy(bool)                          {}
func (nopMetrics) RecordModeSwitch(string)               {}
func (nopMetrics) RecordRejected(string)                 {}

type nopSink struct{}

func (nopSink) Publish(models.Snapshot) {}
