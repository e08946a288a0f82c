package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"MarketDesk/internal/domain/models"

	"github.com/shopspring/decimal"
)

type fakeService struct {
	mu sync.Mutex

	series     map[models.Symbol]*models.TimeSeriesResult
	seriesErr  error
	prediction *models.PredictionResult
	predictErr error
	receipt    *models.FeedReceipt
	submitErr  error

	// gate, when set, blocks every call until it is closed.
	gate    chan struct{}
	entered chan struct{}

	queries   []models.TimeSeriesQuery
	submitted [][]models.FeedSubmission
}

func (f *fakeService) wait() {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
}

func (f *fakeService) FetchSeries(ctx context.Context, q models.TimeSeriesQuery) (*models.TimeSeriesResult, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.seriesErr != nil {
		return nil, f.seriesErr
	}
	return f.series[q.Symbol], nil
}

func (f *fakeService) Predict(ctx context.Context) (*models.PredictionResult, error) {
	f.wait()
	if f.predictErr != nil {
		return nil, f.predictErr
	}
	return f.prediction, nil
}

func (f *fakeService) Submit(ctx context.Context, symbol models.Symbol, rows []models.FeedSubmission) (*models.FeedReceipt, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, rows)
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return f.receipt, nil
}

type recordingSink struct {
	mu    sync.Mutex
	snaps []models.Snapshot
}

func (r *recordingSink) Publish(s models.Snapshot) {
	r.mu.Lock()
	r.snaps = append(r.snaps, s)
	r.mu.Unlock()
}

func (r *recordingSink) all() []models.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Snapshot(nil), r.snaps...)
}

type countingMetrics struct {
	mu       sync.Mutex
	outcomes map[string]int
	rejected int
	switches int
}

func (m *countingMetrics) RecordRequest(action, outcome string, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomes == nil {
		m.outcomes = map[string]int{}
	}
	m.outcomes[action+"/"+outcome]++
}
func (m *countingMetrics) SetBusy(bool) {}
func (m *countingMetrics) RecordModeSwitch(string) {
	m.mu.Lock()
	m.switches++
	m.mu.Unlock()
}
func (m *countingMetrics) RecordRejected(string) {
	m.mu.Lock()
	m.rejected++
	m.mu.Unlock()
}

func niftySeries(closes ...int64) *models.TimeSeriesResult {
	res := &models.TimeSeriesResult{Symbol: models.SymbolNifty}
	for _, c := range closes {
		res.Points = append(res.Points, models.TimeSeriesPoint{Date: "01-01-2024", Close: decimal.NewFromInt(c)})
	}
	return res
}

func newTestSession(t *testing.T, svc *fakeService, opts ...SessionOption) *Session {
	t.Helper()
	s, err := NewSession(svc, opts...)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func TestNewSessionDefaults(t *testing.T) {
	s := newTestSession(t, &fakeService{})
	snap := s.Snapshot()
	if snap.Mode != models.ModeQuery || snap.Busy || snap.LastError != "" {
		t.Fatalf("unexpected initial state: %+v", snap)
	}
	want := models.TimeSeriesQuery{Symbol: models.SymbolNifty, Days: 30, From: models.AnchorEnd}
	if snap.Query != want {
		t.Fatalf("unexpected default query %+v", snap.Query)
	}
	if !snap.Forms[models.SymbolNifty].Empty() || !snap.Forms[models.SymbolVix].Empty() {
		t.Fatalf("forms should start empty")
	}
	if snap.Series != nil || snap.Prediction != nil || snap.LastReceipt != nil {
		t.Fatalf("results should start empty")
	}
}

func TestNewSessionRejectsBadInitialQuery(t *testing.T) {
	_, err := NewSession(&fakeService{}, WithInitialQuery(models.TimeSeriesQuery{Symbol: "sensex"}))
	if !errors.Is(err, models.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestFetchSeriesBusyDuringFlight(t *testing.T) {
	svc := &fakeService{
		series:  map[models.Symbol]*models.TimeSeriesResult{models.SymbolNifty: niftySeries(21100)},
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	sink := &recordingSink{}
	s := newTestSession(t, svc, WithSnapshotSink(sink))

	done := make(chan models.Snapshot, 1)
	go func() {
		snap, err := s.FetchSeries(context.Background())
		if err != nil {
			t.Errorf("FetchSeries: %v", err)
		}
		done <- snap
	}()

	<-svc.entered
	if !s.Snapshot().Busy {
		t.Fatalf("session should be busy while the request is outstanding")
	}
	close(svc.gate)

	snap := <-done
	if snap.Busy {
		t.Fatalf("busy should be cleared after completion")
	}
	if snap.NiftyData() == nil || !snap.NiftyData().Points[0].Close.Equal(decimal.NewFromInt(21100)) {
		t.Fatalf("series not stored: %+v", snap.Series)
	}
	if snap.VixData() != nil {
		t.Fatalf("vix slot should be empty")
	}

	published := sink.all()
	if len(published) != 2 || !published[0].Busy || published[1].Busy {
		t.Fatalf("expected busy/idle snapshots, got %+v", published)
	}
	if published[0].Version >= published[1].Version {
		t.Fatalf("versions not increasing: %d %d", published[0].Version, published[1].Version)
	}
}

func TestFetchFailureKeepsPreviousSeries(t *testing.T) {
	svc := &fakeService{series: map[models.Symbol]*models.TimeSeriesResult{models.SymbolNifty: niftySeries(1, 2)}}
	metrics := &countingMetrics{}
	s := newTestSession(t, svc, WithMetrics(metrics))

	if _, err := s.FetchSeries(context.Background()); err != nil {
		t.Fatalf("FetchSeries: %v", err)
	}
	if _, err := s.SetQuery(models.TimeSeriesQuery{Symbol: models.SymbolVix, Days: 5, From: models.AnchorStart}); err != nil {
		t.Fatalf("SetQuery: %v", err)
	}

	svc.seriesErr = errors.New("connection refused")
	snap, err := s.FetchSeries(context.Background())
	if err != nil {
		t.Fatalf("FetchSeries returned dispatch error: %v", err)
	}
	if snap.Busy {
		t.Fatalf("busy should be cleared after failure")
	}
	if !strings.HasPrefix(snap.LastError, "Failed to fetch data: ") || !strings.Contains(snap.LastError, "connection refused") {
		t.Fatalf("unexpected error text %q", snap.LastError)
	}
	if snap.NiftyData() == nil || len(snap.NiftyData().Points) != 2 {
		t.Fatalf("previous nifty series should survive a failed vix fetch: %+v", snap.Series)
	}
	if metrics.outcomes["fetch_series/ok"] != 1 || metrics.outcomes["fetch_series/error"] != 1 {
		t.Fatalf("unexpected metric outcomes %v", metrics.outcomes)
	}

	last := svc.queries[len(svc.queries)-1]
	if last.Symbol != models.SymbolVix || last.Days != 5 || last.From != models.AnchorStart {
		t.Fatalf("fetch used stale query %+v", last)
	}
}

func TestFetchSuccessReplacesOtherSymbol(t *testing.T) {
	vix := &models.TimeSeriesResult{Symbol: models.SymbolVix, Points: []models.TimeSeriesPoint{{Date: "02-01-2024"}}}
	svc := &fakeService{series: map[models.Symbol]*models.TimeSeriesResult{
		models.SymbolNifty: niftySeries(1),
		models.SymbolVix:   vix,
	}}
	s := newTestSession(t, svc)

	if _, err := s.FetchSeries(context.Background()); err != nil {
		t.Fatalf("FetchSeries: %v", err)
	}
	if _, err := s.SetQuery(models.TimeSeriesQuery{Symbol: models.SymbolVix, Days: 1, From: models.AnchorEnd}); err != nil {
		t.Fatalf("SetQuery: %v", err)
	}
	snap, _ := s.FetchSeries(context.Background())

	if snap.VixData() == nil || snap.NiftyData() != nil {
		t.Fatalf("expected only vix series, got %+v", snap.Series)
	}
}

func TestNextDispatchClearsError(t *testing.T) {
	svc := &fakeService{predictErr: errors.New("boom")}
	s := newTestSession(t, svc)

	snap, _ := s.RunPrediction(context.Background())
	if !strings.HasPrefix(snap.LastError, "Failed to fetch prediction: ") {
		t.Fatalf("unexpected error %q", snap.LastError)
	}

	svc.predictErr = nil
	svc.prediction = &models.PredictionResult{BullProbability: 0.6, BearProbability: 0.45}
	snap, _ = s.RunPrediction(context.Background())
	if snap.LastError != "" {
		t.Fatalf("error should be cleared by a new dispatch: %q", snap.LastError)
	}
	if snap.Prediction == nil || snap.Prediction.BullProbability != 0.6 || snap.Prediction.BearProbability != 0.45 {
		t.Fatalf("prediction not stored unchanged: %+v", snap.Prediction)
	}
}

func TestPredictionFailureKeepsPreviousPrediction(t *testing.T) {
	svc := &fakeService{prediction: &models.PredictionResult{
		SignalDate:      "05-01-2024",
		SpotClose:       decimal.RequireFromString("21710.8"),
		BullProbability: 0.6,
		BearProbability: 0.4,
		Strategy:        "IRON_CONDOR",
	}}
	metrics := &countingMetrics{}
	s := newTestSession(t, svc, WithMetrics(metrics))

	if snap, _ := s.RunPrediction(context.Background()); snap.Prediction == nil {
		t.Fatalf("first prediction not stored")
	}

	svc.predictErr = errors.New("malformed response: empty prediction")
	snap, err := s.RunPrediction(context.Background())
	if err != nil {
		t.Fatalf("RunPrediction returned dispatch error: %v", err)
	}
	if !strings.HasPrefix(snap.LastError, "Failed to fetch prediction: ") {
		t.Fatalf("unexpected error text %q", snap.LastError)
	}
	p := snap.Prediction
	if p == nil || p.SignalDate != "05-01-2024" || !p.SpotClose.Equal(decimal.RequireFromString("21710.8")) ||
		p.BullProbability != 0.6 || p.Strategy != "IRON_CONDOR" {
		t.Fatalf("previous prediction should survive a failed predict: %+v", p)
	}
	if metrics.outcomes["predict/ok"] != 1 || metrics.outcomes["predict/error"] != 1 {
		t.Fatalf("unexpected metric outcomes %v", metrics.outcomes)
	}
}

func TestSubmitSuccessResetsForm(t *testing.T) {
	svc := &fakeService{receipt: &models.FeedReceipt{Symbol: models.SymbolVix, RowsInserted: 1}}
	s := newTestSession(t, svc)

	for k, v := range map[string]string{
		models.FieldDate: "02-01-2024", models.FieldOpen: "14.1", models.FieldHigh: "15",
		models.FieldLow: "13.9", models.FieldClose: "14.5", models.FieldPrevClose: "14.2",
	} {
		if _, err := s.SetField(models.SymbolVix, k, v); err != nil {
			t.Fatalf("SetField(%s): %v", k, err)
		}
	}

	snap, err := s.SubmitFeed(context.Background(), models.SymbolVix)
	if err != nil {
		t.Fatalf("SubmitFeed: %v", err)
	}
	if !snap.Forms[models.SymbolVix].Empty() {
		t.Fatalf("form should be reset after success: %+v", snap.Forms[models.SymbolVix])
	}
	if snap.LastReceipt == nil || snap.LastReceipt.RowsInserted != 1 {
		t.Fatalf("receipt not stored: %+v", snap.LastReceipt)
	}
	if snap.Notice != "Success! 1 row(s) inserted" {
		t.Fatalf("unexpected notice %q", snap.Notice)
	}

	if len(svc.submitted) != 1 || len(svc.submitted[0]) != 1 {
		t.Fatalf("expected a single-row batch, got %v", svc.submitted)
	}
	if got := svc.submitted[0][0][models.FieldPrevClose]; got != "14.2" {
		t.Fatalf("raw value not passed through: %q", got)
	}
}

func TestSubmitFailurePreservesForm(t *testing.T) {
	svc := &fakeService{submitErr: errors.New("422 invalid date")}
	s := newTestSession(t, svc)

	if _, err := s.SetField(models.SymbolNifty, models.FieldClose, "21100"); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	snap, _ := s.SubmitFeed(context.Background(), models.SymbolNifty)

	if got := snap.Forms[models.SymbolNifty].Value(models.FieldClose); got != "21100" {
		t.Fatalf("form value lost after failure: %q", got)
	}
	if !strings.HasPrefix(snap.LastError, "Failed to submit: ") {
		t.Fatalf("unexpected error %q", snap.LastError)
	}
	if snap.LastReceipt != nil || snap.Notice != "" {
		t.Fatalf("no receipt expected after failure")
	}
}

func TestSubmitUnknownSymbol(t *testing.T) {
	s := newTestSession(t, &fakeService{})
	if _, err := s.SubmitFeed(context.Background(), "sensex"); !errors.Is(err, models.ErrUnknownSymbol) {
		t.Fatalf("expected ErrUnknownSymbol, got %v", err)
	}
}

func TestModeSwitchKeepsResults(t *testing.T) {
	svc := &fakeService{series: map[models.Symbol]*models.TimeSeriesResult{models.SymbolNifty: niftySeries(5)}}
	metrics := &countingMetrics{}
	s := newTestSession(t, svc, WithMetrics(metrics))

	if _, err := s.FetchSeries(context.Background()); err != nil {
		t.Fatalf("FetchSeries: %v", err)
	}
	for _, m := range []models.Mode{models.ModePredict, models.ModeQuery} {
		if _, err := s.SwitchMode(m); err != nil {
			t.Fatalf("SwitchMode(%s): %v", m, err)
		}
	}

	snap := s.Snapshot()
	if snap.Mode != models.ModeQuery || snap.NiftyData() == nil {
		t.Fatalf("series lost across mode switches: %+v", snap)
	}
	if metrics.switches != 2 {
		t.Fatalf("expected 2 mode switches recorded, got %d", metrics.switches)
	}

	if _, err := s.SwitchMode("view"); !errors.Is(err, models.ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}

func TestSecondRequestRejectedWhileBusy(t *testing.T) {
	svc := &fakeService{
		prediction: &models.PredictionResult{},
		gate:       make(chan struct{}),
		entered:    make(chan struct{}, 1),
	}
	metrics := &countingMetrics{}
	s := newTestSession(t, svc, WithMetrics(metrics))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.RunPrediction(context.Background())
	}()
	<-svc.entered

	before := s.Snapshot()
	snap, err := s.FetchSeries(context.Background())
	if !errors.Is(err, models.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if snap.Version != before.Version || !snap.Busy {
		t.Fatalf("rejected request changed state: before %d after %d", before.Version, snap.Version)
	}

	// Mode switches stay available while busy.
	if _, err := s.SwitchMode(models.ModeFeed); err != nil {
		t.Fatalf("SwitchMode while busy: %v", err)
	}

	close(svc.gate)
	<-done
	if metrics.rejected != 1 {
		t.Fatalf("expected one rejected request, got %d", metrics.rejected)
	}
	if s.Snapshot().Busy {
		t.Fatalf("busy should be cleared")
	}
}

func TestCallerCancellationDoesNotAbortRequest(t *testing.T) {
	svc := &fakeService{
		prediction: &models.PredictionResult{Strategy: "IRON_CONDOR"},
		gate:       make(chan struct{}),
		entered:    make(chan struct{}, 1),
	}
	s := newTestSession(t, svc)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan models.Snapshot, 1)
	go func() {
		snap, _ := s.RunPrediction(ctx)
		done <- snap
	}()
	<-svc.entered
	cancel()
	close(svc.gate)

	select {
	case snap := <-done:
		if snap.Prediction == nil || snap.Prediction.Strategy != "IRON_CONDOR" {
			t.Fatalf("prediction dropped after caller cancel: %+v", snap)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("request did not complete")
	}
}

type panickingService struct{ fakeService }

func (p *panickingService) Predict(context.Context) (*models.PredictionResult, error) {
	panic("decoder exploded")
}

func TestPanicClearsBusy(t *testing.T) {
	s := newTestSession(t, &fakeService{})
	s.svc = &panickingService{}

	func() {
		defer func() { _ = recover() }()
		_, _ = s.RunPrediction(context.Background())
	}()

	snap := s.Snapshot()
	if snap.Busy {
		t.Fatalf("busy left set after panic")
	}
	if !strings.HasPrefix(snap.LastError, "Failed to fetch prediction: ") {
		t.Fatalf("unexpected error %q", snap.LastError)
	}
}

func TestSetQueryValidation(t *testing.T) {
	s := newTestSession(t, &fakeService{})
	before := s.Snapshot()

	_, err := s.SetQuery(models.TimeSeriesQuery{Symbol: models.SymbolNifty, Days: 0, From: models.AnchorEnd})
	if !errors.Is(err, models.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
	if s.Snapshot().Version != before.Version {
		t.Fatalf("rejected query changed state")
	}
}
