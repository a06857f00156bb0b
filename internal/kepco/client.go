// Package kepco talks to the KEPCO electricity statistics open API and turns
// its loosely shaped JSON into canonical usage rows.
package kepco

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jgoulah/powerdash/internal/config"
	"github.com/jgoulah/powerdash/internal/metrics"
	"github.com/jgoulah/powerdash/pkg/models"
)

// Upstream operations.
const (
	OpIndustryType = "powerUsage/industryType"
	OpBusinessType = "powerUsage/businessType"
)

// Params are caller-supplied query parameters for one call.
type Params map[string]string

// Observer receives one event per upstream call.
type Observer interface {
	ObserveCall(operation, outcome string, rows int, d time.Duration)
}

// Client calls the KEPCO open API
type Client struct {
	baseURL   string
	apiKey    string
	userAgent string
	timeout   time.Duration
	http      *http.Client
	log       *zap.Logger
	obs       Observer
}

// New creates a client. The API key is fixed for the client's lifetime.
// obs may be nil.
func New(cfg config.UpstreamConfig, log *zap.Logger, obs Observer) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL:   cfg.GetBaseURL(),
		apiKey:    cfg.APIKey,
		userAgent: cfg.GetUserAgent(),
		timeout:   cfg.GetTimeout(),
		http:      &http.Client{},
		log:       log.Named("kepco"),
		obs:       obs,
	}
}

// IndustryType fetches usage by industry classification.
func (c *Client) IndustryType(ctx context.Context, params map[string]string) ([]models.Row, error) {
	return c.Call(ctx, OpIndustryType, params)
}

// BusinessType fetches usage by business type for one metro/city.
func (c *Client) BusinessType(ctx context.Context, params map[string]string) ([]models.Row, error) {
	return c.Call(ctx, OpBusinessType, params)
}

// Call performs one GET against {base}/{operation}.do and returns the
// normalized rows. The request runs under the client timeout and is not
// cancelled when ctx is; there is no retry.
func (c *Client) Call(ctx context.Context, operation string, params Params) ([]models.Row, error) {
	reqURL := fmt.Sprintf("%s/%s.do?%s", c.baseURL, operation, c.query(params).Encode())

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json,text/plain,*/*")

	c.log.Debug("calling upstream", zap.String("operation", operation), zap.String("year", params["year"]), zap.String("month", params["month"]))

	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(operation, metrics.OutcomeTransport, 0, start)
		c.log.Error("upstream request failed", zap.String("operation", operation), zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe(operation, metrics.OutcomeTransport, 0, start)
		c.log.Error("reading upstream body", zap.String("operation", operation), zap.Error(err))
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.observe(operation, metrics.OutcomeStatus, 0, start)
		statusErr := &StatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Body:       sample(string(body), sampleSize),
		}
		c.log.Error("upstream returned error status",
			zap.String("operation", operation),
			zap.Int("status", resp.StatusCode),
			zap.String("body", statusErr.Body),
		)
		return nil, statusErr
	}

	rows, err := Normalize(body)
	if err != nil {
		c.observe(operation, metrics.OutcomeParse, 0, start)
		var perr *ParseError
		if errors.As(err, &perr) {
			c.log.Error("upstream parse failure",
				zap.String("operation", operation),
				zap.String("contentType", resp.Header.Get("Content-Type")),
				zap.String("sample", perr.Sample),
			)
		}
		return nil, err
	}

	c.observe(operation, metrics.OutcomeOK, len(rows), start)
	c.log.Debug("upstream rows normalized", zap.String("operation", operation), zap.Int("rows", len(rows)))
	return rows, nil
}

// query copies params, pins year/month formatting, injects the credential and
// drops empty values; the API rejects empty parameters.
func (c *Client) query(params Params) url.Values {
	merged := make(map[string]string, len(params)+4)
	for k, v := range params {
		merged[k] = v
	}
	merged["year"] = strings.TrimSpace(params["year"])
	merged["month"] = padMonth(params["month"])
	merged["apiKey"] = c.apiKey
	merged["returnType"] = "json"

	q := url.Values{}
	for k, v := range merged {
		if v == "" {
			continue
		}
		q.Set(k, v)
	}
	return q
}

// padMonth left-pads to two characters, so "5" becomes "05" and "" becomes "00".
func padMonth(m string) string {
	m = strings.TrimSpace(m)
	for len(m) < 2 {
		m = "0" + m
	}
	return m
}

func (c *Client) observe(operation, outcome string, rows int, start time.Time) {
	if c.obs == nil {
		return
	}
	c.obs.ObserveCall(operation, outcome, rows, time.Since(start))
}
