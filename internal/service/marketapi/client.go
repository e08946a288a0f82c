package marketapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"MarketDesk/internal/domain/models"
	drepo "MarketDesk/internal/domain/repository"
	"MarketDesk/pkg/config"
	xhttp "MarketDesk/pkg/http"
	xlogger "MarketDesk/pkg/logger"
)

// Client talks to the remote market-data and prediction service.
type Client struct {
	baseURL string
	client  *xhttp.Client
	logger  *xlogger.Logger
}

// New builds a Client for baseURL on top of an existing transport.
func New(baseURL string, client *xhttp.Client, logger *xlogger.Logger) *Client {
	if logger == nil {
		logger = xlogger.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger,
	}
}

// NewFromConfig builds a Client with the configured base URL and timeout.
func NewFromConfig(cfg *config.Config, logger *xlogger.Logger) *Client {
	timeout := cfg.Service.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return New(cfg.Service.BaseURL, xhttp.NewClient(xhttp.WithTimeout(timeout)), logger)
}

// FetchSeries calls GET /data/{symbol}?days=n&from_=start|end.
func (c *Client) FetchSeries(ctx context.Context, q models.TimeSeriesQuery) (*models.TimeSeriesResult, error) {
	path := "/data/" + url.PathEscape(string(q.Symbol))

	var resp seriesResponse
	err := c.getJSON(ctx, path, map[string][]string{
		"days":  {strconv.Itoa(q.Days)},
		"from_": {string(q.From)},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return normalizeSeries(q.Symbol, resp)
}

// Predict calls GET /predict. The raw body is kept so required keys can be
// told apart from zero values.
func (c *Client) Predict(ctx context.Context) (*models.PredictionResult, error) {
	var body []byte
	if err := c.getJSON(ctx, "/predict", nil, &body); err != nil {
		return nil, err
	}
	p, err := normalizePrediction(body)
	if err != nil {
		c.logger.Warn("unusable prediction answer",
			xlogger.Strings("required", predictionKeys),
			xlogger.Error(err),
		)
		return nil, err
	}
	return p, nil
}

// Submit calls POST /feed/{symbol} with rows as a JSON array.
func (c *Client) Submit(ctx context.Context, symbol models.Symbol, rows []models.FeedSubmission) (*models.FeedReceipt, error) {
	path := "/feed/" + url.PathEscape(string(symbol))

	var resp feedResponse
	if err := c.postJSON(ctx, path, rows, &resp); err != nil {
		return nil, err
	}
	return normalizeReceipt(symbol, resp)
}

func (c *Client) getJSON(ctx context.Context, path string, query map[string][]string, dest interface{}) error {
	start := time.Now()
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + path,
		QueryParams: query,
	}, dest)
	c.logger.Debug("market service call",
		xlogger.String("method", xhttp.MethodGet),
		xlogger.String("path", path),
		xlogger.Duration("duration_ms", time.Since(start)),
		xlogger.Bool("ok", err == nil),
	)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	start := time.Now()
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.baseURL + path,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: payload,
	}, dest)
	c.logger.Debug("market service call",
		xlogger.String("method", xhttp.MethodPost),
		xlogger.String("path", path),
		xlogger.Duration("duration_ms", time.Since(start)),
		xlogger.Bool("ok", err == nil),
	)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	return nil
}

var _ drepo.MarketService = (*Client)(nil)
