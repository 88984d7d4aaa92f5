package goodinfo

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"skillbox/internal/components/fault"
)

const (
	markerSetCookie = "setCookie('CLIENT_KEY'"
	markerRedirect  = "window.location.replace"

	clientKeyCookie = "CLIENT_KEY"
)

var (
	seedRegex     = regexp.MustCompile(`setCookie\('CLIENT_KEY'\s*,\s*'([^']+)'\s*\+`)
	redirectRegex = regexp.MustCompile(`window\.location\.replace\('([^']+)'\)`)
)

// Seed is the constant part of the CLIENT_KEY cookie embedded in the
// challenge page. It is only valid for the response that carried it.
type Seed struct {
	Version string
	A       string
	B       string
}

type challenge struct {
	seed     Seed
	redirect string
}

// parseChallenge inspects a page for the anti-bot script. A page without both
// markers is not a challenge and gives ok = false.
func parseChallenge(body string) (c challenge, ok bool, err error) {
	if !strings.Contains(body, markerSetCookie) || !strings.Contains(body, markerRedirect) {
		return challenge{}, false, nil
	}

	seedMatch := seedRegex.FindStringSubmatch(body)
	redirectMatch := redirectRegex.FindStringSubmatch(body)
	if seedMatch == nil || redirectMatch == nil {
		return challenge{}, true, fault.New(
			fault.KindAntiBot,
			"anti-bot page detected but cannot parse redirect/cookie seed",
		)
	}

	parts := strings.Split(seedMatch[1], "|")
	if len(parts) < 3 {
		return challenge{}, true, fault.New(
			fault.KindAntiBot,
			"anti-bot cookie seed has unexpected format",
		).WithDetails(seedMatch[1])
	}

	return challenge{
		seed:     Seed{Version: parts[0], A: parts[1], B: parts[2]},
		redirect: redirectMatch[1],
	}, true, nil
}

// ClientKey builds the cookie value the challenge script would have set in a
// browser: ver|a|b|offset|day|day, where day is the fractional number of days
// since the unix epoch shifted by the timezone offset (in minutes).
func ClientKey(seed Seed, now time.Time, tzOffsetMinutes int) string {
	seconds := float64(now.UnixNano()) / float64(time.Second)
	day := seconds/86400 - float64(tzOffsetMinutes)/1440
	dayStr := strconv.FormatFloat(day, 'f', -1, 64)
	// whole days are still written as a float, 20488 -> 20488.0
	if !strings.Contains(dayStr, ".") {
		dayStr += ".0"
	}
	return strings.Join([]string{
		seed.Version,
		seed.A,
		seed.B,
		strconv.Itoa(tzOffsetMinutes),
		dayStr,
		dayStr,
	}, "|")
}

func (c *client) setClientKey(value string) {
	cookie := &http.Cookie{
		Name:  clientKeyCookie,
		Value: value,
		Path:  "/",
	}
	host := c.base.Hostname()
	if net.ParseIP(host) == nil {
		cookie.Domain = host
	}
	c.jar.SetCookies(&url.URL{Scheme: c.base.Scheme, Host: c.base.Host, Path: "/"}, []*http.Cookie{cookie})
}

// bootstrap primes the session for stockNo. When goodinfo answers with the
// challenge page the CLIENT_KEY cookie is synthesized and the redirect is
// replayed exactly once. A challenge that cannot be understood is terminal.
func (c *client) bootstrap(ctx context.Context, stockNo string) error {
	entry := c.chartURL(stockNo, false)
	res, err := c.get(c.pageRequest(ctx, c.base.String()), entry, report_client_bootstrap)
	if err != nil {
		return err
	}

	ch, ok, err := parseChallenge(string(res.Body()))
	if err != nil {
		c.tel.ReportBroken(report_client_bootstrap, err, entry)
		return err
	}
	if !ok {
		c.tel.ReportDebug("no anti-bot challenge", "stock", stockNo)
		return nil
	}

	c.setClientKey(ClientKey(ch.seed, c.time.Now(), c.tzOffset))

	entryURL, err := url.Parse(entry)
	if err != nil {
		return fault.Wrap(fault.KindAntiBot, err, "parse entry url")
	}
	redirect, err := url.Parse(ch.redirect)
	if err != nil {
		return fault.Wrap(fault.KindAntiBot, err, fmt.Sprintf("parse anti-bot redirect %q", ch.redirect))
	}

	target := entryURL.ResolveReference(redirect).String()
	c.tel.ReportDebug("replaying anti-bot redirect", "target", target)
	_, err = c.get(c.pageRequest(ctx, c.base.String()), target, report_client_bootstrap)
	return err
}
