package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"skillbox/internal/components/assert"
	"skillbox/internal/components/chrono"
	"skillbox/internal/components/fault"
	"skillbox/internal/components/telemetry"
	"skillbox/internal/scrapers/exchange"
)

const (
	report_cnyes_fetch = "cnyes.fetch"

	pathCnyes = "/media/api/v1/newslist/category/tw_stock"
	// cnyesPageSize is the largest page the newslist api serves.
	cnyesPageSize   = 30
	cnyesTimeLayout = "2006-01-02 15:04:05"
)

type CnyesOptions struct {
	exchange.Options
	// LinkURL is the site the article links point to.
	LinkURL string
	// Limit is the number of headlines collected.
	Limit int
	// Days is how far back headlines are searched for.
	Days int
}

// Cnyes reads the tw_stock headlines of the Anue (cnyes) news api.
type Cnyes struct {
	exchange.Client
	linkURL string
	limit   int
	days    int
	time    chrono.TimeAPI
	tel     telemetry.API
}

func NewCnyes(opts CnyesOptions, time chrono.TimeAPI, tel telemetry.API) Cnyes {
	assert.NotEmptyStr(opts.LinkURL)
	assert.Positive(opts.Limit)
	assert.Positive(opts.Days)
	assert.NotNil(time)

	tel = telemetry.NewScopedAPI("news", tel)
	return Cnyes{
		Client:  exchange.NewClient(opts.Options, tel),
		linkURL: opts.LinkURL,
		limit:   opts.Limit,
		days:    opts.Days,
		time:    time,
		tel:     tel,
	}
}

type cnyesPage struct {
	Items struct {
		CurrentPage int `json:"current_page"`
		LastPage    int `json:"last_page"`
		Data        []struct {
			NewsID    int64  `json:"newsId"`
			Title     string `json:"title"`
			PublishAt int64  `json:"publishAt"`
		} `json:"data"`
	} `json:"items"`
}

// Fetch pages through the headlines published in the last `days` days until
// `limit` of them are collected or the api runs out.
func (c Cnyes) Fetch(ctx context.Context) ([]Item, error) {
	now := c.time.Now()
	query := url.Values{
		"limit":              {strconv.Itoa(cnyesPageSize)},
		"isCategoryHeadline": {"1"},
		"startAt":            {strconv.FormatInt(now.Add(-time.Duration(c.days)*24*time.Hour).Unix(), 10)},
		"endAt":              {strconv.FormatInt(now.Unix(), 10)},
	}

	items := []Item{}
	for page := 1; len(items) < c.limit; page++ {
		query.Set("page", strconv.Itoa(page))
		body, err := c.GetJSON(ctx, pathCnyes, query)
		if err != nil {
			return nil, err
		}

		var doc cnyesPage
		if err := json.Unmarshal(body, &doc); err != nil {
			c.tel.ReportBroken(report_cnyes_fetch, err, page)
			return nil, fault.Wrap(fault.KindParse, err, "decode cnyes newslist")
		}
		for _, news := range doc.Items.Data {
			items = append(items, Item{
				Time:  time.Unix(news.PublishAt, 0).In(now.Location()).Format(cnyesTimeLayout),
				Title: news.Title,
				Link:  fmt.Sprintf("%s/news/id/%d", c.linkURL, news.NewsID),
			})
		}
		c.tel.ReportDebug("cnyes page", page, len(doc.Items.Data), len(items))

		if len(doc.Items.Data) == 0 {
			break
		}
		if doc.Items.LastPage > 0 && page >= doc.Items.LastPage {
			break
		}
	}

	if len(items) > c.limit {
		items = items[:c.limit]
	}
	return items, nil
}
