package news

import (
	"bytes"
	"context"

	"skillbox/internal/components/fault"
	"skillbox/internal/components/telemetry"
	"skillbox/internal/scrapers/exchange"
	"skillbox/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_statementdog_fetch = "statementdog.fetch"

	pathStatementdog = "/news/latest"
)

// Statementdog scrapes the latest news list of statementdog.com.
type Statementdog struct {
	exchange.Client
	site string
	tel  telemetry.API
}

func NewStatementdog(opts exchange.Options, tel telemetry.API) Statementdog {
	tel = telemetry.NewScopedAPI("news", tel)
	return Statementdog{
		Client: exchange.NewClient(opts, tel),
		site:   opts.BaseURL,
		tel:    tel,
	}
}

func (s Statementdog) Fetch(ctx context.Context) ([]Item, error) {
	body, err := s.Get(ctx, pathStatementdog, nil)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		s.tel.ReportBroken(report_statementdog_fetch, err)
		return nil, fault.Wrap(fault.KindParse, err, "parse statementdog news list")
	}

	items := parseStatementdog(doc, s.site, s.tel)
	if len(items) == 0 {
		s.tel.ReportWarning(report_statementdog_fetch, "no news items found")
	}
	return items, nil
}

// parseStatementdog reads every list item that has both a title and a link,
// the date is optional.
func parseStatementdog(doc *goquery.Document, site string, tel telemetry.API) []Item {
	items := []Item{}
	doc.Find(".statementdog-news-list-item").Each(func(_ int, item *goquery.Selection) {
		title := item.Find(".statementdog-news-list-item-title").First()
		link := item.Find(".statementdog-news-list-item-link").First()
		if title.Length() == 0 || link.Length() == 0 {
			tel.ReportDebug("skipping statementdog item", htmlutil.OuterHTML(item))
			return
		}
		href, _ := link.Attr("href")
		items = append(items, Item{
			Time:  text(item.Find(".statementdog-news-list-item-date")),
			Title: text(title),
			Link:  absolute(site, href),
		})
	})
	return items
}
