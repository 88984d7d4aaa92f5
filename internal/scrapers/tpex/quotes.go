package tpex

import (
	"context"
	"encoding/json"
	"math"
	"net/url"
	"strings"
	"time"

	"skillbox/internal/components/fault"
	"skillbox/internal/model"
	"skillbox/pkg/twdata"
)

// QuoteReport is the document printed by `skillbox tpex`. Stocks follows the
// order of the requested codes, codes that weren't found are null.
type QuoteReport struct {
	Source    string          `json:"source"`
	FetchTime string          `json:"fetchTime"`
	Date      string          `json:"date"`
	DateROC   string          `json:"dateROC"`
	Stocks    []*model.Quote  `json:"stocks"`
	Error     *fault.Document `json:"error"`
}

func (c Client) newReport(date string) QuoteReport {
	roc, _ := twdata.ROC(date)
	return QuoteReport{
		Source:    "tpex",
		FetchTime: c.time.Now().UTC().Format(time.RFC3339),
		Date:      date,
		DateROC:   roc,
		Stocks:    []*model.Quote{},
	}
}

// FetchQuotes returns the daily close quotes of codes on date. It never fails,
// any failure is described by QuoteReport.Error.
func (c Client) FetchQuotes(ctx context.Context, date string, codes []string) QuoteReport {
	out := c.newReport(date)

	stocks, err := c.fetchQuotes(ctx, date, codes)
	if stocks != nil {
		out.Stocks = stocks
	}
	if err != nil {
		c.tel.ReportWarning(report_client_fetch_quotes, err, date)
		out.Error = fault.ToDocument(err)
		if out.Error.Type == fault.KindUnknown {
			out.Error.Type = fault.KindException
		}
	}
	return out
}

func (c Client) fetchQuotes(ctx context.Context, date string, codes []string) ([]*model.Quote, error) {
	roc, err := twdata.ROC(date)
	if err != nil {
		return nil, err
	}
	body, err := c.GetJSON(ctx, pathQuotes, url.Values{
		"l": {"zh-tw"},
		"d": {roc},
		"s": {"0,asc,0"},
		"o": {"json"},
	})
	if err != nil {
		return nil, err
	}

	var doc struct {
		Stat any `json:"stat"`
		tablesDocument
	}
	err = json.Unmarshal(body, &doc)
	if err != nil {
		return nil, fault.Wrap(fault.KindParse, err, "decode quotes")
	}
	return extractQuotes(doc.tablesDocument, statString(doc.Stat), codes)
}

func statString(stat any) string {
	switch v := stat.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		out, _ := json.Marshal(v)
		return string(out)
	}
}

func extractQuotes(doc tablesDocument, stat string, codes []string) ([]*model.Quote, error) {
	if !strings.EqualFold(stat, "ok") {
		return nil, fault.New(fault.KindNotTradingDay, "TPEX stat not OK").WithDetails(stat)
	}
	t, ok := doc.firstTable()
	if !ok {
		return nil, fault.New(fault.KindParse, "Unexpected TPEX tables format")
	}

	index := func(name string) int {
		for i, f := range t.Fields {
			if f == name {
				return i
			}
		}
		return -1
	}
	iCode := index("代號")
	iName := index("名稱")
	iClose := index("收盤")
	iChange := index("漲跌")
	iOpen := index("開盤")
	iHigh := index("最高")
	iLow := index("最低")
	iVolume := index("成交股數")
	if iCode < 0 || iName < 0 || iOpen < 0 || iClose < 0 {
		fields := t.Fields
		if fields == nil {
			fields = []string{}
		}
		return nil, fault.New(fault.KindParse, "Missing expected fields").WithDetails(fields)
	}
	widest := max(iCode, iName, iOpen, iClose, iHigh, iLow)

	wanted := make(map[string]bool, len(codes))
	for _, code := range codes {
		wanted[code] = true
	}

	found := map[string]*model.Quote{}
	for _, row := range t.Data {
		if len(row) <= widest {
			continue
		}
		code := row[iCode].String()
		if !wanted[code] {
			continue
		}

		cell := func(i int) string {
			if i < 0 || i >= len(row) {
				return ""
			}
			return row[i].String()
		}
		quote := &model.Quote{
			Code:   code,
			Name:   row[iName].String(),
			Open:   twdata.FloatPtr(cell(iOpen)),
			High:   twdata.FloatPtr(cell(iHigh)),
			Low:    twdata.FloatPtr(cell(iLow)),
			Close:  twdata.FloatPtr(cell(iClose)),
			Change: twdata.FloatPtr(cell(iChange)),
		}
		if v, ok := twdata.ParseVolume(cell(iVolume)); ok {
			quote.Volume = &v
		}
		quote.ChangePercent = changePercent(quote.Open, quote.Close)
		found[code] = quote
	}

	stocks := make([]*model.Quote, len(codes))
	var missing []string
	for i, code := range codes {
		stocks[i] = found[code]
		if stocks[i] == nil {
			missing = append(missing, code)
		}
	}
	if len(missing) > 0 {
		return stocks, fault.New(fault.KindNotFound, "Some codes not found in TPEX table").WithDetails(missing)
	}
	return stocks, nil
}

// changePercent is the intraday change from open to close, rounded to 2
// decimals.
func changePercent(open, close *float64) *float64 {
	if open == nil || close == nil || *open == 0 {
		return nil
	}
	pct := math.Round((*close-*open) / *open * 100 * 100) / 100
	return &pct
}
