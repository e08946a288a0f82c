package usecase

import (
	"context"
	"fmt"
	"time"

	"MarketDesk/internal/domain/models"
	xlogger "MarketDesk/pkg/logger"
)

// action names one of the remote operations and the prefix its failures get
// in the operator-facing error slot.
type action struct {
	name   string
	prefix string
}

var (
	actionFetchSeries = action{name: "fetch_series", prefix: "Failed to fetch data"}
	actionPredict     = action{name: "predict", prefix: "Failed to fetch prediction"}
	actionSubmitFeed  = action{name: "submit_feed", prefix: "Failed to submit"}
)

// operation performs one remote call. On success it returns a commit func
// that writes the result into exactly one state slot; commit runs under the
// state lock.
type operation func(ctx context.Context) (commit func(), err error)

// FetchSeries fetches the series described by the current query parameters
// and, on success, makes it the held series (the other symbol's series is
// dropped). The returned error is non-nil only when the request was not
// dispatched; remote failures land in Snapshot.LastError.
func (s *Session) FetchSeries(ctx context.Context) (models.Snapshot, error) {
	return s.execute(ctx, actionFetchSeries, func(ctx context.Context) (func(), error) {
		q := s.Query()
		res, err := s.svc.FetchSeries(ctx, q)
		if err != nil {
			return nil, err
		}
		return func() { s.series = res }, nil
	})
}

// RunPrediction asks the remote model for a prediction and replaces the held one.
func (s *Session) RunPrediction(ctx context.Context) (models.Snapshot, error) {
	return s.execute(ctx, actionPredict, func(ctx context.Context) (func(), error) {
		p, err := s.svc.Predict(ctx)
		if err != nil {
			return nil, err
		}
		return func() { s.prediction = p }, nil
	})
}

// SubmitFeed posts the symbol's form as a single-row batch. The form is
// cleared only when the service acknowledges the insert.
func (s *Session) SubmitFeed(ctx context.Context, symbol models.Symbol) (models.Snapshot, error) {
	if !symbol.Valid() {
		return s.Snapshot(), fmt.Errorf("%w: %q", models.ErrUnknownSymbol, symbol)
	}
	return s.execute(ctx, actionSubmitFeed, func(ctx context.Context) (func(), error) {
		s.mu.Lock()
		rows := s.forms[symbol].Payload()
		s.mu.Unlock()

		rec, err := s.svc.Submit(ctx, symbol, rows)
		if err != nil {
			return nil, err
		}
		return func() {
			s.forms[symbol].Reset()
			s.receipt = rec
			s.notice = rec.Notice()
		}, nil
	})
}

// execute runs op inside the session's single request slot:
// busy is raised and the error slot cleared before dispatch, and busy is
// lowered again on every exit path. A call made while another is outstanding
// is rejected with ErrBusy without touching state.
func (s *Session) execute(ctx context.Context, a action, op operation) (snap models.Snapshot, err error) {
	if err := s.acquire(a); err != nil {
		return s.Snapshot(), err
	}

	start := time.Now()
	var (
		commit    func()
		opErr     error
		completed bool
	)
	defer func() {
		if !completed {
			opErr = fmt.Errorf("%s aborted", a.name)
		}
		snap = s.release(a, commit, opErr, time.Since(start))
	}()

	// A dispatched request is never cancelled by the caller going away;
	// only the transport timeout bounds it.
	commit, opErr = op(context.WithoutCancel(ctx))
	completed = true
	return snap, nil
}

func (s *Session) acquire(a action) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		s.metrics.RecordRejected(a.name)
		s.logger.Warn("request rejected while busy", xlogger.String("action", a.name))
		return models.ErrBusy
	}
	s.busy = true
	s.lastError = ""
	s.notice = ""
	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.metrics.SetBusy(true)
	s.logger.Debug("request dispatched", xlogger.String("action", a.name))
	s.sink.Publish(snap)
	return nil
}

func (s *Session) release(a action, commit func(), opErr error, took time.Duration) models.Snapshot {
	s.mu.Lock()
	if opErr != nil {
		s.lastError = a.prefix + ": " + opErr.Error()
	} else if commit != nil {
		commit()
	}
	s.busy = false
	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.metrics.SetBusy(false)
	if opErr != nil {
		s.metrics.RecordRequest(a.name, "error", took.Seconds())
		s.logger.Error("request failed",
			xlogger.String("action", a.name),
			xlogger.Duration("duration_ms", took),
			xlogger.Error(opErr),
		)
	} else {
		s.metrics.RecordRequest(a.name, "ok", took.Seconds())
		s.logger.Info("request completed",
			xlogger.String("action", a.name),
			xlogger.Duration("duration_ms", took),
		)
	}
	s.sink.Publish(snap)
	return snap
}
