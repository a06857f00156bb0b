package kepco

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/powerdash/internal/config"
	"github.com/jgoulah/powerdash/internal/metrics"
)

type recordedCall struct {
	operation, outcome string
	rows               int
}

type fakeObserver struct {
	calls []recordedCall
}

func (f *fakeObserver) ObserveCall(operation, outcome string, rows int, _ time.Duration) {
	f.calls = append(f.calls, recordedCall{operation, outcome, rows})
}

func newTestClient(t *testing.T, h http.HandlerFunc, timeout time.Duration) (*Client, *fakeObserver) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	obs := &fakeObserver{}
	cli := New(config.UpstreamConfig{
		BaseURL: srv.URL + "/openapi/v1",
		APIKey:  "test-key",
		Timeout: timeout,
	}, nil, obs)
	return cli, obs
}

func TestCallBuildsQuery(t *testing.T) {
	var got url.Values
	var path, accept, ua string
	cli, obs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		path = r.URL.Path
		accept = r.Header.Get("Accept")
		ua = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"city":"중구","biz":"A","powerUsage":"10"}]}`))
	}, time.Second)

	rows, err := cli.Call(context.Background(), OpIndustryType, Params{
		"year":    " 2024 ",
		"month":   "3",
		"metroCd": "30",
		"city":    "",
		"cityCd":  "",
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 10.0, rows[0].PowerUsage)

	assert.Equal(t, "/openapi/v1/powerUsage/industryType.do", path)
	assert.Equal(t, "2024", got.Get("year"))
	assert.Equal(t, "03", got.Get("month"))
	assert.Equal(t, "30", got.Get("metroCd"))
	assert.Equal(t, "test-key", got.Get("apiKey"))
	assert.Equal(t, "json", got.Get("returnType"))
	assert.NotContains(t, got, "city")
	assert.NotContains(t, got, "cityCd")
	assert.Equal(t, "application/json,text/plain,*/*", accept)
	assert.Equal(t, "powerdash/1.0 (+go net/http)", ua)

	require.Len(t, obs.calls, 1)
	assert.Equal(t, recordedCall{OpIndustryType, metrics.OutcomeOK, 1}, obs.calls[0])
}

func TestCallCallerCannotOverrideCredential(t *testing.T) {
	var got url.Values
	cli, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.Write([]byte(`{"data":[]}`))
	}, time.Second)

	_, err := cli.Call(context.Background(), OpBusinessType, Params{
		"year": "2024", "month": "12", "apiKey": "spoofed", "returnType": "xml",
	})
	require.NoError(t, err)
	assert.Equal(t, "test-key", got.Get("apiKey"))
	assert.Equal(t, "json", got.Get("returnType"))
	assert.Equal(t, "12", got.Get("month"))
}

func TestCallTextBodyWithNoise(t *testing.T) {
	cli, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html;charset=UTF-8")
		w.Write([]byte("\ufeff<!-- trace 123 -->{\"totData\":[{\"BILL\":\"5\"},{\"BILL\":7}]}<!-- end -->"))
	}, time.Second)

	rows, err := cli.BusinessType(context.Background(), map[string]string{"year": "2024", "month": "1"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 5.0, rows[0].Bill)
	assert.Equal(t, 7.0, rows[1].Bill)
}

func TestCallParseFailure(t *testing.T) {
	cli, obs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("SERVICE KEY IS NOT REGISTERED ERROR."))
	}, time.Second)

	rows, err := cli.Call(context.Background(), OpIndustryType, Params{"year": "2024", "month": "01"})
	require.Error(t, err)
	assert.Nil(t, rows)
	assert.ErrorIs(t, err, ErrMalformedResponse)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "SERVICE KEY IS NOT REGISTERED ERROR.", perr.Sample)
	assert.Equal(t, metrics.OutcomeParse, obs.calls[0].outcome)
}

func TestCallNon2xx(t *testing.T) {
	cli, obs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"maintenance"}`))
	}, time.Second)

	_, err := cli.Call(context.Background(), OpIndustryType, Params{"year": "2024", "month": "01"})
	var serr *StatusError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusServiceUnavailable, serr.StatusCode)
	assert.Equal(t, `{"error":"maintenance"}`, serr.Body)
	assert.Equal(t, metrics.OutcomeStatus, obs.calls[0].outcome)
}

func TestCallTimeoutIsSingleAttempt(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	cli, obs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, 50*time.Millisecond)
	defer close(release)

	_, err := cli.Call(context.Background(), OpIndustryType, Params{"year": "2024", "month": "01"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, metrics.OutcomeTransport, obs.calls[0].outcome)
}

func TestCallIgnoresCallerCancellation(t *testing.T) {
	cli, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"biz":"A"}]}`))
	}, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rows, err := cli.Call(ctx, OpIndustryType, Params{"year": "2024", "month": "01"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestPadMonth(t *testing.T) {
	assert.Equal(t, "01", padMonth("1"))
	assert.Equal(t, "01", padMonth(" 1 "))
	assert.Equal(t, "11", padMonth("11"))
	assert.Equal(t, "00", padMonth(""))
}
