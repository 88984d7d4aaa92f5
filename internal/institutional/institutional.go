// Package institutional merges the TWSE and TPEX institutional investors
// reports into one net buy/sell document.
package institutional

import (
	"context"
	"strings"

	"skillbox/internal/components/assert"
	"skillbox/internal/components/fault"
	"skillbox/internal/components/telemetry"
	"skillbox/internal/model"
	"skillbox/pkg/twdata"
)

const (
	report_merger_fetch = "merger.fetch"
)

// TWSESource is implemented by twse.Client.
type TWSESource interface {
	FetchT86(ctx context.Context, date string) ([]model.InstitutionalItem, error)
}

// TPEXSource is implemented by tpex.Client.
type TPEXSource interface {
	FetchInstitutional(ctx context.Context, date string) ([]model.InstitutionalItem, error)
}

type Report struct {
	Source  string                    `json:"source"`
	Date    string                    `json:"date"`
	DateROC string                    `json:"dateROC"`
	Items   []model.InstitutionalItem `json:"items"`
	Missing []string                  `json:"missing"`
	Error   *fault.Document           `json:"error"`
}

type Merger struct {
	twse TWSESource
	tpex TPEXSource
	tel  telemetry.API
}

func NewMerger(twse TWSESource, tpex TPEXSource, tel telemetry.API) Merger {
	assert.NotNil(twse)
	assert.NotNil(tpex)
	assert.NotNil(tel)

	return Merger{
		twse: twse,
		tpex: tpex,
		tel:  telemetry.NewScopedAPI("institutional", tel),
	}
}

// NormalizeCodes joins the --codes and --code flags, blank codes are dropped.
func NormalizeCodes(codes []string, code string) []string {
	out := []string{}
	for _, c := range append(append([]string{}, codes...), code) {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func sourceDocument(err error) *fault.Document {
	doc := fault.ToDocument(err)
	if doc != nil && doc.Type == fault.KindUnknown {
		doc.Type = fault.KindException
	}
	return doc
}

type upstreamDetails struct {
	TWSE *fault.Document `json:"twse"`
	TPEX *fault.Document `json:"tpex"`
}

// Fetch builds the report of date (YYYYMMDD). With codes every code is looked
// up on TWSE first then TPEX, without codes the report is the union of both
// markets. One market failing is tolerated, both failing is an upstream
// error. Fetch never fails, failures are described by Report.Error.
func (m Merger) Fetch(ctx context.Context, date string, codes []string) Report {
	out := Report{
		Source:  "twse+tpex",
		Date:    date,
		Items:   []model.InstitutionalItem{},
		Missing: []string{},
	}

	roc, err := twdata.ROC(date)
	if err != nil {
		out.Error = fault.ToDocument(err)
		return out
	}
	out.DateROC = roc

	twseItems, twseErr := m.twse.FetchT86(ctx, date)
	if twseErr != nil {
		m.tel.ReportWarning(report_merger_fetch, "twse", twseErr)
	}
	tpexItems, tpexErr := m.tpex.FetchInstitutional(ctx, date)
	if tpexErr != nil {
		m.tel.ReportWarning(report_merger_fetch, "tpex", tpexErr)
	}

	if len(twseItems) == 0 && twseErr != nil && len(tpexItems) == 0 && tpexErr != nil {
		out.Error = &fault.Document{
			Type:    fault.KindUpstream,
			Message: "Both TWSE and TPEX failed",
			Details: upstreamDetails{
				TWSE: sourceDocument(twseErr),
				TPEX: sourceDocument(tpexErr),
			},
		}
		return out
	}

	if len(codes) == 0 {
		out.Items = append(out.Items, twseItems...)
		out.Items = append(out.Items, tpexItems...)
		return out
	}

	twseByCode := byCode(twseItems)
	tpexByCode := byCode(tpexItems)
	for _, code := range codes {
		if item, ok := twseByCode[code]; ok {
			out.Items = append(out.Items, item)
			continue
		}
		if item, ok := tpexByCode[code]; ok {
			out.Items = append(out.Items, item)
			continue
		}
		out.Missing = append(out.Missing, code)
	}
	return out
}

func byCode(items []model.InstitutionalItem) map[string]model.InstitutionalItem {
	out := make(map[string]model.InstitutionalItem, len(items))
	for _, item := range items {
		out[item.Code] = item
	}
	return out
}
