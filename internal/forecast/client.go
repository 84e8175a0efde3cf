package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Defaults for the operator-facing client configuration.
const (
	DefaultTimeout = 30 * time.Second
	DefaultMaxDays = 90
)

// maxResponseBytes bounds how much of a prediction payload is read.
const maxResponseBytes = 4 << 20

// Config is the static configuration handed to the client at construction
// time. Nothing is read from ambient process state.
type Config struct {
	// APIURL is the base endpoint of the prediction service.
	APIURL string
	// RequestTimeout bounds the whole request; zero means DefaultTimeout.
	RequestTimeout time.Duration
	// MaxRequestsPerHour is a client-side quota; zero disables it.
	MaxRequestsPerHour int
	// MaxDays is the upper bound for a forecast horizon; zero means
	// DefaultMaxDays.
	MaxDays int
}

// Statistics describes the model fit reported alongside a forecast.
type Statistics struct {
	AIC             float64 `json:"aic"`
	BIC             float64 `json:"bic"`
	ModelOrder      string  `json:"model_order"`
	TrainingSamples int     `json:"training_samples"`
}

// Prediction is the /predict response envelope.
type Prediction struct {
	Success    bool       `json:"success"`
	Forecast   []Point    `json:"forecast"`
	Statistics Statistics `json:"statistics"`
	DataSource string     `json:"data_source"`
	Message    string     `json:"message,omitempty"`
	Error      string     `json:"error,omitempty"`
}

type predictRequest struct {
	UserID       string `json:"user_id,omitempty"`
	ForecastDays int    `json:"forecast_days,omitempty"`
	Days         int    `json:"days,omitempty"`
	StartDate    string `json:"start_date,omitempty"`
}

var startDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Client calls the remote prediction service. A single outstanding request
// per user action is expected; the client does not deduplicate concurrent
// calls, it only bounds and classifies them.
type Client struct {
	cfg    Config
	client *http.Client
	quota  *hourlyQuota
}

func NewClient(cfg Config) *Client {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultTimeout
	}
	if cfg.MaxDays <= 0 {
		cfg.MaxDays = DefaultMaxDays
	}
	c := &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
	}
	if cfg.MaxRequestsPerHour > 0 {
		c.quota = newHourlyQuota(cfg.MaxRequestsPerHour)
	}
	return c
}

// Predict requests a days-long expense forecast scoped to the given user.
// The identity and range checks run before anything goes on the wire.
func (c *Client) Predict(ctx context.Context, userID string, days int) (*Prediction, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUnauthenticated
	}
	if days < 1 || days > c.cfg.MaxDays {
		return nil, ErrDaysOutOfRange
	}
	return c.post(ctx, predictRequest{UserID: userID, ForecastDays: days})
}

// PredictFrom is the secondary entry point: a positive day count plus an
// optional YYYY-MM-DD starting date, no user scope in the request body.
func (c *Client) PredictFrom(ctx context.Context, days int, startDate string) (*Prediction, error) {
	if days <= 0 {
		return nil, ErrDaysOutOfRange
	}
	if startDate != "" && !startDateRe.MatchString(startDate) {
		return nil, ErrBadStartDate
	}
	return c.post(ctx, predictRequest{Days: days, StartDate: startDate})
}

func (c *Client) post(ctx context.Context, payload predictRequest) (*Prediction, error) {
	if c.quota != nil && !c.quota.allow() {
		return nil, ErrQuotaExceeded
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &RequestError{Kind: KindRequestSetup, Message: "encode request", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, &RequestError{Kind: KindRequestSetup, Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &RequestError{Kind: KindNetwork, Message: "no response from prediction service", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &RequestError{Kind: KindNetwork, Message: "read response", Err: err}
	}

	var pred Prediction
	decodeErr := json.Unmarshal(raw, &pred)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RequestError{
			Kind:    KindUpstreamHTTP,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("prediction service responded %d: %s", resp.StatusCode, upstreamMessage(pred, resp.StatusCode)),
		}
	}
	if decodeErr != nil {
		return nil, &RequestError{
			Kind:    KindUpstreamHTTP,
			Status:  resp.StatusCode,
			Message: "malformed prediction payload",
			Err:     decodeErr,
		}
	}
	if !pred.Success {
		return nil, &RequestError{
			Kind:    KindUpstreamHTTP,
			Status:  resp.StatusCode,
			Message: upstreamMessage(pred, resp.StatusCode),
		}
	}

	slog.InfoContext(ctx, "Prediction received",
		"days", len(pred.Forecast),
		"data_source", pred.DataSource,
		"model_order", pred.Statistics.ModelOrder)

	return &pred, nil
}

func upstreamMessage(pred Prediction, status int) string {
	if pred.Message != "" {
		return pred.Message
	}
	if pred.Error != "" {
		return pred.Error
	}
	return http.StatusText(status)
}

// hourlyQuota is a sliding-window counter for the client-side request quota.
type hourlyQuota struct {
	mu    sync.Mutex
	limit int
	sent  []time.Time
}

func newHourlyQuota(limit int) *hourlyQuota {
	return &hourlyQuota{limit: limit}
}

func (q *hourlyQuota) allow() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	cutoff := time.Now().Add(-time.Hour)
	recent := q.sent[:0]
	for _, ts := range q.sent {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}
	q.sent = recent

	if len(q.sent) >= q.limit {
		return false
	}
	q.sent = append(q.sent, time.Now())
	return true
}
