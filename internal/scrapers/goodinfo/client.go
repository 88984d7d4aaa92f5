package goodinfo

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"time"

	"skillbox/internal/components/assert"
	"skillbox/internal/components/chrono"
	"skillbox/internal/components/fault"
	"skillbox/internal/components/restyutil"
	"skillbox/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	report_client_bootstrap         = "client.bootstrap"
	report_client_fetch_daily_table = "client.fetch-daily-table"
)

const (
	acceptHTML     = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptLanguage = "zh-TW,zh;q=0.9,en;q=0.8"

	dailySheet = "個股股價、法人買賣及融資券"
)

type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// Attempts is the total number of tries of a single request.
	Attempts int
	Backoff  time.Duration
	// TZOffsetMinutes is what the synthesized CLIENT_KEY reports as the browser's
	// Date.getTimezoneOffset().
	TZOffsetMinutes   int
	CloudflareBypass  bool
	RequestsPerSecond float64
	// DumpOutput receives every http exchange when not nil.
	DumpOutput restyutil.InstrumentOutput
}

// client is a single goodinfo browsing session, the cookie jar lives and dies
// with it.
type client struct {
	base     *url.URL
	http     *resty.Client
	jar      *cookiejar.Jar
	time     chrono.TimeAPI
	tzOffset int

	tel telemetry.API
}

func newClient(opts Options, time chrono.TimeAPI, tel telemetry.API) (*client, error) {
	assert.NotNil(time)
	assert.NotNil(tel)
	assert.NotEmptyStr(opts.BaseURL)

	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	httpClient := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	if opts.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	httpClient.SetHeader("User-Agent", opts.UserAgent)
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(base.Hostname()))
	httpClient.SetTimeout(opts.Timeout)
	restyutil.SetLinearRetry(httpClient, opts.Attempts, opts.Backoff, false)

	if opts.RequestsPerSecond > 0 {
		limiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 2)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel, opts.DumpOutput)

	return &client{
		base:     base,
		http:     httpClient,
		jar:      jar,
		time:     time,
		tzOffset: opts.TZOffsetMinutes,
		tel:      tel,
	}, nil
}

func (c *client) resolve(ref string) string {
	parsed, err := url.Parse(ref)
	if err != nil {
		return c.base.String() + ref
	}
	return c.base.ResolveReference(parsed).String()
}

func (c *client) chartURL(stockNo string, daily bool) string {
	ref := "ShowK_Chart.asp?STOCK_ID=" + url.QueryEscape(stockNo)
	if daily {
		ref += "&CHT_CAT=DATE&PRICE_ADJ=F"
	}
	return c.resolve(ref)
}

func (c *client) dataURL(stockNo string) string {
	return c.resolve(
		"data/ShowK_Chart.asp?STEP=DATA&STOCK_ID=" + url.QueryEscape(stockNo) +
			"&CHT_CAT=DATE&PRICE_ADJ=F&SHEET=" + url.QueryEscape(dailySheet),
	)
}

func (c *client) pageRequest(ctx context.Context, referer string) *resty.Request {
	return c.http.R().
		SetContext(ctx).
		SetHeader("Accept", acceptHTML).
		SetHeader("Accept-Language", acceptLanguage).
		SetHeader("Referer", referer)
}

// get performs a GET, transport failures (after retries) are classified as
// network faults. The status code is not checked, goodinfo answers the
// challenge page and the data fragment with 200 and anything else surfaces as
// a parse failure later on.
func (c *client) get(req *resty.Request, link, reportId string) (*resty.Response, error) {
	res, err := req.Get(link)
	if err != nil {
		c.tel.ReportBroken(reportId, err, link)
		return nil, fault.Wrap(fault.KindNetwork, err, "")
	}
	if res.IsError() {
		c.tel.ReportWarning(reportId, "unexpected status", res.Status(), link)
	}
	return res, nil
}

// fetchDailyTable visits the daily chart page (its body is discarded, the
// data endpoint expects it to have been visited) and then returns the html
// fragment of the data endpoint verbatim.
func (c *client) fetchDailyTable(ctx context.Context, stockNo string) (string, error) {
	chart := c.chartURL(stockNo, true)
	_, err := c.get(c.pageRequest(ctx, c.base.String()), chart, report_client_fetch_daily_table)
	if err != nil {
		return "", err
	}

	res, err := c.get(
		c.http.R().
			SetContext(ctx).
			SetHeader("Accept", "*/*").
			SetHeader("Accept-Language", acceptLanguage).
			SetHeader("Referer", chart).
			SetHeader("X-Requested-With", "XMLHttpRequest"),
		c.dataURL(stockNo),
		report_client_fetch_daily_table,
	)
	if err != nil {
		return "", err
	}
	return string(res.Body()), nil
}
