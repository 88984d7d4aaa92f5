package cmd

import (
	"skillbox/cmd/skillbox/globals"
	"skillbox/internal/institutional"
	"skillbox/internal/quota"
	"skillbox/internal/scrapers/exchange"
	"skillbox/internal/scrapers/goodinfo"
	"skillbox/internal/scrapers/news"
	"skillbox/internal/scrapers/tpex"
	"skillbox/internal/scrapers/twse"
)

func exchangeOptions(v *globals.Value, baseURL string) exchange.Options {
	cfg := v.Config
	return exchange.Options{
		BaseURL:    baseURL,
		UserAgent:  cfg.HTTP.UserAgent,
		Referer:    baseURL + "/",
		Timeout:    cfg.HTTP.Timeout(),
		Attempts:   cfg.Exchange.Retries,
		Backoff:    cfg.Exchange.Backoff(),
		DumpOutput: v.Dump,
	}
}

func newEmerging(v *globals.Value) goodinfo.Emerging {
	cfg := v.Config
	return goodinfo.NewEmerging(goodinfo.Options{
		BaseURL:           cfg.Goodinfo.BaseURL,
		UserAgent:         cfg.HTTP.UserAgent,
		Timeout:           cfg.HTTP.Timeout(),
		Attempts:          cfg.Goodinfo.Retries,
		Backoff:           cfg.Goodinfo.Backoff(),
		TZOffsetMinutes:   cfg.Goodinfo.TZOffsetMinutes,
		CloudflareBypass:  cfg.Goodinfo.UseCloudflareBypass(),
		RequestsPerSecond: cfg.Goodinfo.RequestsPerSecond,
		DumpOutput:        v.Dump,
	}, v.Time, v.Tel)
}

func newTwse(v *globals.Value) twse.Client {
	return twse.NewClient(exchangeOptions(v, v.Config.TWSE.BaseURL), v.Tel)
}

func newTpex(v *globals.Value) tpex.Client {
	return tpex.NewClient(exchangeOptions(v, v.Config.TPEX.BaseURL), v.Time, v.Tel)
}

func newMerger(v *globals.Value) institutional.Merger {
	return institutional.NewMerger(newTwse(v), newTpex(v), v.Tel)
}

func newQuotaClient(v *globals.Value) quota.Client {
	return quota.NewClient(quota.Options{
		AntigravityURL: v.Config.Quota.AntigravityURL,
		CodexURL:       v.Config.Quota.CodexURL,
		Timeout:        v.Config.HTTP.Timeout(),
		DumpOutput:     v.Dump,
	}, v.Time, v.Tel)
}

func newsOptions(v *globals.Value, baseURL string) exchange.Options {
	opts := exchangeOptions(v, baseURL)
	opts.Interval = v.Config.News.Interval()
	return opts
}

func newCnyes(v *globals.Value) news.Cnyes {
	cfg := v.Config.News.Cnyes
	return news.NewCnyes(news.CnyesOptions{
		Options: newsOptions(v, cfg.BaseURL),
		LinkURL: cfg.LinkURL,
		Limit:   cfg.Limit,
		Days:    cfg.Days,
	}, v.Time, v.Tel)
}

func newStatementdog(v *globals.Value) news.Statementdog {
	return news.NewStatementdog(newsOptions(v, v.Config.News.Statementdog.BaseURL), v.Tel)
}

func newMoneydj(v *globals.Value, pages int) news.Moneydj {
	return news.NewMoneydj(news.MoneydjOptions{
		Options: newsOptions(v, v.Config.News.Moneydj.BaseURL),
		Pages:   pages,
	}, v.Tel)
}
