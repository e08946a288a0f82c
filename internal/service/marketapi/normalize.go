package marketapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"MarketDesk/internal/domain/models"
)

// ErrMalformedResponse marks a 2xx answer that lacks the fields the client needs.
var ErrMalformedResponse = errors.New("malformed response")

type seriesResponse struct {
	Data *[]models.TimeSeriesPoint `json:"data"`
}

// predictionKeys must all be present for a /predict answer to be usable.
var predictionKeys = []string{"signal_date", "spot_close", "bull_probability", "bear_probability"}

type feedResponse struct {
	RowsInserted *int `json:"rows_inserted"`
}

// normalizeSeries tags the returned rows with the requested symbol. Row order
// is the service's; nothing is sorted or de-duplicated.
func normalizeSeries(symbol models.Symbol, resp seriesResponse) (*models.TimeSeriesResult, error) {
	if resp.Data == nil {
		return nil, fmt.Errorf("%w: missing data field", ErrMalformedResponse)
	}
	points := *resp.Data
	if points == nil {
		points = []models.TimeSeriesPoint{}
	}
	return &models.TimeSeriesResult{Symbol: symbol, Points: points}, nil
}

// normalizePrediction decodes a /predict body. The probabilities are passed
// through unchanged; a null body or one missing any of predictionKeys is
// malformed.
func normalizePrediction(body []byte) (*models.PredictionResult, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: empty prediction", ErrMalformedResponse)
	}
	var missing []string
	for _, k := range predictionKeys {
		if _, ok := fields[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformedResponse, strings.Join(missing, ", "))
	}

	var p models.PredictionResult
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &p, nil
}

func normalizeReceipt(symbol models.Symbol, resp feedResponse) (*models.FeedReceipt, error) {
	if resp.RowsInserted == nil {
		return nil, fmt.Errorf("%w: missing rows_inserted", ErrMalformedResponse)
	}
	return &models.FeedReceipt{Symbol: symbol, RowsInserted: *resp.RowsInserted}, nil
}
