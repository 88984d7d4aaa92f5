package news

import (
	"bytes"
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"skillbox/internal/components/assert"
	"skillbox/internal/components/fault"
	"skillbox/internal/components/telemetry"
	"skillbox/internal/scrapers/exchange"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_moneydj_fetch_page = "moneydj.fetch-page"

	pathMoneydj = "/kmdj/news/newsreallist.aspx"
	// moneydjCategory is the taiwan stock news list
	moneydjCategory = "mb06"
)

// ex. "02/04 14:30"
var moneydjTime = regexp.MustCompile(`\d{2}/\d{2}\s+\d{2}:\d{2}`)

type MoneydjOptions struct {
	exchange.Options
	// Pages is the number of list pages read, newest first.
	Pages int
}

// Moneydj scrapes the real-time news list of moneydj.com.
type Moneydj struct {
	exchange.Client
	site  string
	pages int
	tel   telemetry.API
}

func NewMoneydj(opts MoneydjOptions, tel telemetry.API) Moneydj {
	assert.Positive(opts.Pages)

	tel = telemetry.NewScopedAPI("news", tel)
	return Moneydj{
		Client: exchange.NewClient(opts.Options, tel),
		site:   opts.BaseURL,
		pages:  opts.Pages,
		tel:    tel,
	}
}

// Fetch reads every page in order. A page that fails is skipped, the fetch
// only fails when no page could be read.
func (m Moneydj) Fetch(ctx context.Context) ([]Item, error) {
	items := []Item{}
	var (
		read    int
		lastErr error
	)
	for page := 1; page <= m.pages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, fault.Wrap(fault.KindNetwork, err, "")
		}
		found, err := m.fetchPage(ctx, page)
		if err != nil {
			m.tel.ReportWarning(report_moneydj_fetch_page, err, page)
			lastErr = err
			continue
		}
		m.tel.ReportDebug("moneydj page", page, len(found))
		read++
		items = append(items, found...)
	}
	if read == 0 {
		return nil, lastErr
	}
	return items, nil
}

func (m Moneydj) fetchPage(ctx context.Context, page int) ([]Item, error) {
	body, err := m.Get(ctx, pathMoneydj, url.Values{
		"a":      {moneydjCategory},
		"index1": {strconv.Itoa(page)},
	})
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fault.Wrap(fault.KindParse, err, "parse moneydj news list")
	}
	return parseMoneydj(doc, m.site), nil
}

// parseMoneydj pairs every time cell with the first titled link that follows
// it in the same row.
func parseMoneydj(doc *goquery.Document, site string) []Item {
	items := []Item{}
	doc.Find(`td[width="100"]`).Each(func(_ int, cell *goquery.Selection) {
		when := moneydjTime.FindString(text(cell))
		if when == "" {
			return
		}
		link := cell.NextAll().Find("a[href][title]").First()
		if link.Length() == 0 {
			return
		}
		href, _ := link.Attr("href")
		title, _ := link.Attr("title")
		items = append(items, Item{
			Time:  when,
			Title: strings.TrimSpace(title),
			Link:  absolute(site, href),
		})
	})
	return items
}
