// Package exchange is the http plumbing shared by the TWSE and TPEX scrapers
// and the news collectors. They publish plain documents and need nothing but
// polite headers, a retry policy and sometimes pacing.
package exchange

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"skillbox/internal/components/assert"
	"skillbox/internal/components/fault"
	"skillbox/internal/components/restyutil"
	"skillbox/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const report_client_get = "client.get"

// detailsLimit is the number of body bytes kept in the details of a fault.
const detailsLimit = 200

type Options struct {
	BaseURL   string
	UserAgent string
	Referer   string
	Timeout   time.Duration
	// Attempts is the total number of tries of a single request, failed
	// statuses are retried as well as transport errors.
	Attempts int
	Backoff  time.Duration
	// Interval is the minimum time between two requests, zero or negative
	// sends them as fast as possible.
	Interval   time.Duration
	DumpOutput restyutil.InstrumentOutput
}

type Client struct {
	base string
	http *resty.Client
	tel  telemetry.API
}

func NewClient(opts Options, tel telemetry.API) Client {
	assert.NotEmptyStr(opts.BaseURL)
	assert.NotNil(tel)

	httpClient := resty.New()
	httpClient.SetTimeout(opts.Timeout)
	httpClient.SetHeader("User-Agent", opts.UserAgent)
	httpClient.SetHeader("Accept", "application/json,text/plain,*/*")
	httpClient.SetHeader("Accept-Language", "zh-TW,zh;q=0.9,en;q=0.8")
	if opts.Referer != "" {
		httpClient.SetHeader("Referer", opts.Referer)
	}
	restyutil.SetLinearRetry(httpClient, opts.Attempts, opts.Backoff, true)
	if opts.Interval > 0 {
		limiter := rate.NewLimiter(rate.Every(opts.Interval), 1)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}
	telemetry.InstrumentResty(httpClient, tel, opts.DumpOutput)

	return Client{
		base: strings.TrimSuffix(opts.BaseURL, "/"),
		http: httpClient,
		tel:  tel,
	}
}

// URL joins path (which starts with "/") and the query onto the base url.
func (c Client) URL(path string, query url.Values) string {
	link := c.base + path
	if len(query) > 0 {
		link += "?" + query.Encode()
	}
	return link
}

// Get fetches path and returns the body of a successful response. Transport
// failures are network faults, failed statuses are http faults.
func (c Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	link := c.URL(path, query)
	res, err := c.http.R().
		SetContext(ctx).
		Get(link)
	if err != nil {
		c.tel.ReportBroken(report_client_get, err, link)
		return nil, fault.Wrap(fault.KindNetwork, err, "")
	}
	if res.IsError() {
		err := fault.New(fault.KindHTTP, "HTTP %d", res.StatusCode()).WithDetails(link)
		c.tel.ReportBroken(report_client_get, err, link)
		return nil, err
	}
	return res.Body(), nil
}

// GetJSON is Get, the body is only returned once it is known to be valid
// JSON.
func (c Client) GetJSON(ctx context.Context, path string, query url.Values) ([]byte, error) {
	body, err := c.Get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fault.New(fault.KindParse, "response of %s is not json", path).
			WithDetails(fault.Truncate(string(body), detailsLimit))
	}
	return body, nil
}

// StatOK reports whether the "stat" field of an exchange document is OK,
// TWSE writes it uppercase and TPEX lowercase.
func StatOK(stat string) bool {
	return strings.EqualFold(strings.TrimSpace(stat), "ok")
}
