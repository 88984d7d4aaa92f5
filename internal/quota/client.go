package quota

import (
	"context"
	"encoding/json"
	"time"

	"skillbox/internal/components/assert"
	"skillbox/internal/components/chrono"
	"skillbox/internal/components/fault"
	"skillbox/internal/components/restyutil"
	"skillbox/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
)

const errorBodyLimit = 200

type Options struct {
	AntigravityURL string
	CodexURL       string
	Timeout        time.Duration
	DumpOutput     restyutil.InstrumentOutput
}

// Client talks to the quota endpoints of both providers. Requests are not
// retried, a rejected token would be rejected again.
type Client struct {
	antigravityURL string
	codexURL       string
	http           *resty.Client
	time           chrono.TimeAPI
	tel            telemetry.API
}

func NewClient(opts Options, time chrono.TimeAPI, tel telemetry.API) Client {
	assert.NotEmptyStr(opts.AntigravityURL)
	assert.NotEmptyStr(opts.CodexURL)
	assert.NotNil(time)
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("quota", tel)

	httpClient := resty.New()
	httpClient.SetTimeout(opts.Timeout)
	telemetry.InstrumentResty(httpClient, tel, opts.DumpOutput)

	return Client{
		antigravityURL: opts.AntigravityURL,
		codexURL:       opts.CodexURL,
		http:           httpClient,
		time:           time,
		tel:            tel,
	}
}

// send performs req and decodes a successful json body into out. Failed
// statuses become http faults carrying the start of the body, transport
// errors become network faults.
func (c Client) send(req *resty.Request, method, url, reportId string, out any) error {
	res, err := req.Execute(method, url)
	if err != nil {
		c.tel.ReportWarning(reportId, err)
		return fault.Wrap(fault.KindNetwork, err, "Network error")
	}
	if res.IsError() {
		body := fault.Truncate(string(res.Body()), errorBodyLimit)
		c.tel.ReportWarning(reportId, res.Status())
		return fault.New(fault.KindHTTP, "HTTP %d", res.StatusCode()).WithDetails(body)
	}
	if err := json.Unmarshal(res.Body(), out); err != nil {
		return fault.Wrap(fault.KindParse, err, "decode quota response")
	}
	return nil
}

func (c Client) request(ctx context.Context, token string) *resty.Request {
	return c.http.R().
		SetContext(ctx).
		SetAuthToken(token)
}
