// Package goodinfo scrapes the daily OHLC of emerging-market (興櫃) stocks from
// goodinfo.tw, which sits behind a javascript cookie challenge.
package goodinfo

import (
	"context"

	"skillbox/internal/components/assert"
	"skillbox/internal/components/chrono"
	"skillbox/internal/components/fault"
	"skillbox/internal/components/telemetry"
	"skillbox/pkg/twdata"
)

const report_emerging_fetch = "emerging.fetch"

// Emerging fetches emerging-market quotes, every call to Fetch uses a new
// session.
type Emerging struct {
	opts Options
	time chrono.TimeAPI
	tel  telemetry.API
}

func NewEmerging(opts Options, time chrono.TimeAPI, tel telemetry.API) Emerging {
	assert.NotNil(time)
	assert.NotNil(tel)
	assert.NotEmptyStr(opts.BaseURL)

	return Emerging{
		opts: opts,
		time: time,
		tel:  telemetry.NewScopedAPI("goodinfo", tel),
	}
}

// Fetch returns the OHLC of stockNo on date (YYYYMMDD). It never fails, any
// failure is described by Result.Error.
func (e Emerging) Fetch(ctx context.Context, date, stockNo string) Result {
	out := Result{
		Source: "goodinfo",
		Market: "emerging",
		Date:   date,
		Stock:  Stock{Code: stockNo},
	}

	ohlc, raw, err := e.fetch(ctx, &out, date, stockNo)
	if err != nil {
		e.tel.ReportWarning(report_emerging_fetch, err, date, stockNo)
		out.Error = fault.ToDocument(err)
		return out
	}
	out.OHLC = &ohlc
	out.Raw = &raw
	return out
}

func (e Emerging) fetch(ctx context.Context, out *Result, date, stockNo string) (OHLC, Raw, error) {
	roc, err := twdata.ROC(date)
	if err != nil {
		return OHLC{}, Raw{}, err
	}
	out.DateROC = roc
	short, err := twdata.GoodinfoShort(date)
	if err != nil {
		return OHLC{}, Raw{}, err
	}
	if stockNo == "" {
		return OHLC{}, Raw{}, fault.New(fault.KindValidation, "stock code is required")
	}

	c, err := newClient(e.opts, e.time, e.tel)
	if err != nil {
		return OHLC{}, Raw{}, fault.Wrap(fault.KindException, err, "create session")
	}
	err = c.bootstrap(ctx, stockNo)
	if err != nil {
		return OHLC{}, Raw{}, err
	}
	fragment, err := c.fetchDailyTable(ctx, stockNo)
	if err != nil {
		return OHLC{}, Raw{}, err
	}

	fields, row, err := ParseOHLCTable(fragment, short)
	if err != nil {
		return OHLC{}, Raw{}, err
	}
	ohlc, err := BuildOHLC(row)
	if err != nil {
		return OHLC{}, Raw{}, err
	}
	return ohlc, Raw{Fields: fields, Row: row}, nil
}
