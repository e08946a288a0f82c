package repository

import (
	"context"

	"MarketDesk/internal/domain/models"
)

// MarketService is the remote market-data and prediction service.
type MarketService interface {
	FetchSeries(ctx context.Context, q models.TimeSeriesQuery) (*models.TimeSeriesResult, error)
	Predict(ctx context.Context) (*models.PredictionResult, error)
	Submit(ctx context.Context, symbol models.Symbol, rows []models.FeedSubmission) (*models.FeedReceipt, error)
}

// SnapshotSink receives a snapshot after every session state transition.
// Implementations must not block.
type SnapshotSink interface {
	Publish(s models.Snapshot)
}

type Metrics interface {
	RecordRequest(action, outcome string, seconds float64)
	SetBusy(busy bool)
	RecordModeSwitch(mode string)
	RecordRejected(action string)
}
