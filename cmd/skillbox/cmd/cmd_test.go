package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"skillbox/internal/components/chrono"

	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, time.February, 4, 20, 0, 0, 0, chrono.Taipei())

const (
	stockDayOK = `{"stat": "OK", "date": "20260204", "title": "115年02月 2330 台積電 各日成交資訊", "data": [["115/02/04", "1,000", "2,000", "1,780.00", "1,800.00", "1,770.00", "1,795.00", "+15.00", "3"]]}`
	noData     = `{"stat": "很抱歉，沒有符合條件的資料!"}`
	quotesOK   = `{"stat": "ok", "tables": [{"fields": ["代號", "名稱", "收盤", "漲跌", "開盤", "最高", "最低", "成交股數"], "data": [["6499", "益安", "52.30", "+1.30", "51.00", "53.00", "50.50", "1,234,000"]]}]}`
)

// upstream stands in for every remote service, it is used as the base url
// of all of them.
func upstream(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/exchangeReport/STOCK_DAY":
			w.Write([]byte(stockDayOK))
		case "/exchangeReport/MI_INDEX", "/rwd/zh/fund/T86":
			w.Write([]byte(noData))
		case "/web/stock/aftertrading/daily_close_quotes/stk_quote_result.php":
			w.Write([]byte(quotesOK))
		case "/web/stock/3insti/daily_trade/3itrade_hedge_result.php":
			w.Write([]byte(`{"tables": []}`))
		case "/v1internal:fetchAvailableModels":
			if r.Header.Get("Authorization") != "Bearer good" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error": "unauthenticated"}`))
				return
			}
			w.Write([]byte(`{"models": {"gemini-3-flash": {"quotaInfo": {"remainingFraction": 0.5}}}}`))
		case "/backend-api/wham/usage":
			w.WriteHeader(http.StatusForbidden)
		case "/media/api/v1/newslist/category/tw_stock":
			if r.URL.Query().Get("page") != "1" {
				w.Write([]byte(`{"items": {"data": []}}`))
				return
			}
			w.Write([]byte(`{"items": {"data": [{"newsId": 6100001, "title": "台股收紅", "publishAt": 1770181200}]}}`))
		case "/news/latest":
			w.Write([]byte(`<div class="statementdog-news-list-item">
				<a class="statementdog-news-list-item-link" href="/news/42"><span class="statementdog-news-list-item-title">營收創高</span></a>
				<span class="statementdog-news-list-item-date">2026/02/04</span>
			</div>`))
		case "/kmdj/news/newsreallist.aspx":
			if r.URL.Query().Get("index1") != "1" {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte(`<table><tr><td width="100"><font>02/04 13:31</font></td>` +
				`<td><a href='/kmdj/news/newsviewer.aspx?a=1' title="盤後速報">盤後速報</a></td></tr></table>`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, base string) string {
	path := filepath.Join(t.TempDir(), "skillbox.json5")
	content := fmt.Sprintf(`{
		// every upstream is the test server
		http: {timeout_seconds: 5},
		goodinfo: {base_url: "%[1]s/tw/", cloudflare_bypass: false, retries: 1, backoff_ms: 1, requests_per_second: -1},
		twse: {base_url: "%[1]s"},
		tpex: {base_url: "%[1]s"},
		exchange: {retries: 1, backoff_ms: 1},
		quota: {
			antigravity_url: "%[1]s/v1internal:fetchAvailableModels",
			codex_url: "%[1]s/backend-api/wham/usage",
			workers: 2,
		},
		news: {
			interval_ms: -1,
			cnyes: {base_url: "%[1]s", link_url: "https://news.cnyes.com"},
			statementdog: {base_url: "%[1]s"},
			moneydj: {base_url: "%[1]s", pages: 1},
		},
	}`, base)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

type runResult struct {
	code   int
	stdout string
	stderr string
}

func run(t *testing.T, args ...string) runResult {
	srv := upstream(t)
	args = append([]string{"--config", writeConfig(t, srv.URL)}, args...)

	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), chrono.FixedTime{T: now}, args, &stdout, &stderr)
	return runResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func decode(t *testing.T, content string) map[string]any {
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(content), &out), content)
	return out
}

func TestEmergingInvalidDate(t *testing.T) {
	res := run(t, "emerging", "--date", "2026-02-04", "--stockNo", "6610")
	require.Equal(t, 2, res.code)

	out := decode(t, res.stdout)
	require.Equal(t, "goodinfo", out["source"])
	require.Equal(t, "validation", out["error"].(map[string]any)["type"])
	require.Nil(t, out["ohlc"])
}

func TestEmergingRequiresFlags(t *testing.T) {
	res := run(t, "emerging", "--date", "20260204")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.stderr, "stockNo")
}

func TestTwse(t *testing.T) {
	res := run(t, "twse", "20260204", "2330")
	require.Equal(t, 0, res.code, res.stderr)
	require.JSONEq(t, stockDayOK, res.stdout)

	res = run(t, "twse", "20260207")
	require.Equal(t, 1, res.code)
	require.Empty(t, res.stdout)
	require.Contains(t, res.stderr, `"type": "not-trading-day"`)
}

func TestTwseDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dump")

	// today's whole market document
	res := run(t, "--dump-http", dir, "twse")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.stderr, `"type": "not-trading-day"`)

	content, err := os.ReadFile(filepath.Join(dir, "1.txt"))
	require.NoError(t, err)
	require.Contains(t, string(content), "MI_INDEX")
	require.Contains(t, string(content), "date=20260204")
}

func TestTpex(t *testing.T) {
	res := run(t, "tpex", "20260204", "6499", "9999", "--json")
	require.Equal(t, 0, res.code, res.stderr)
	require.Equal(t, 1, strings.Count(res.stdout, "\n"))

	out := decode(t, res.stdout)
	require.Equal(t, "115/02/04", out["dateROC"])
	stocks := out["stocks"].([]any)
	require.Len(t, stocks, 2)
	require.Equal(t, "益安", stocks[0].(map[string]any)["name"])
	require.Nil(t, stocks[1])
	require.Equal(t, "not-found", out["error"].(map[string]any)["type"])

	res = run(t, "tpex", "20260204", "6499", "--table")
	require.Equal(t, 0, res.code)
	require.Contains(t, res.stdout, "益安")
	require.Contains(t, res.stdout, "+2.55%")
}

func TestInstitutionalBothFail(t *testing.T) {
	res := run(t, "institutional", "--date", "20260207", "--codes", "2330,6488")
	require.Equal(t, 0, res.code, res.stderr)
	require.Greater(t, strings.Count(res.stdout, "\n"), 1)

	out := decode(t, res.stdout)
	require.Equal(t, "twse+tpex", out["source"])
	errDoc := out["error"].(map[string]any)
	require.Equal(t, "upstream", errDoc["type"])
	details := errDoc["details"].(map[string]any)
	require.Equal(t, "not-trading-day", details["twse"].(map[string]any)["type"])
	require.Equal(t, "parse", details["tpex"].(map[string]any)["type"])
}

func TestQuotaAntigravity(t *testing.T) {
	res := run(t, "quota", "antigravity", "good", "--json")
	require.Equal(t, 0, res.code, res.stderr)
	require.JSONEq(t, `[{"model": "gemini-3-flash", "remaining_pct": 50, "used_pct": 50, "reset_time": null, "reset_hours": null}]`, res.stdout)

	res = run(t, "quota", "antigravity", "bad")
	require.Equal(t, 1, res.code)
	require.Empty(t, res.stdout)
	require.Contains(t, res.stderr, `"message": "HTTP 401"`)
}

func TestQuotaCodexFailure(t *testing.T) {
	res := run(t, "quota", "codex", "opaque", "--account-id", "acct")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.stderr, `"message": "HTTP 403"`)
}

func writeProfiles(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "auth-profiles.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestQuotaBatch(t *testing.T) {
	profiles := writeProfiles(t, `{"profiles": {
		"openai-codex:z@example.com": {"provider": "openai-codex", "access": "opaque", "accountId": "acct-z"},
		"google-antigravity:b@example.com": {"provider": "google-antigravity", "access": "bad"},
		"google-antigravity:a@example.com": {"provider": "google-antigravity", "access": "good"}
	}}`)

	res := run(t, "quota", "batch", profiles, "--json")
	require.Equal(t, 0, res.code, res.stderr)

	var results []map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &results))
	require.Len(t, results, 3)
	require.Equal(t, "a@example.com", results[0]["email"])
	require.Nil(t, results[0]["error"])
	require.Equal(t, "b@example.com", results[1]["email"])
	require.Equal(t, "HTTP 401", results[1]["error"])
	require.Equal(t, "openai-codex", results[2]["provider"])
	require.Equal(t, "HTTP 403", results[2]["error"])

	res = run(t, "quota", "batch", profiles, "--provider", "google-antigravity")
	require.Equal(t, 0, res.code, res.stderr)
	require.Contains(t, res.stdout, "Google Antigravity Accounts")
	require.NotContains(t, res.stdout, "OpenAI Codex Accounts")
	require.Contains(t, res.stdout, "Total: 2 accounts")
}

func TestQuotaBatchNoAccounts(t *testing.T) {
	profiles := writeProfiles(t, `{"profiles": {"anthropic:x": {"provider": "anthropic"}}}`)

	res := run(t, "quota", "batch", profiles)
	require.Equal(t, 1, res.code)
	require.Contains(t, res.stderr, "No accounts found in auth-profiles.json")

	res = run(t, "quota", "batch", filepath.Join(t.TempDir(), "missing.json"))
	require.Equal(t, 1, res.code)
	require.Contains(t, res.stderr, "read auth profiles")
}

func TestInitTask(t *testing.T) {
	base := filepath.Join(t.TempDir(), "task")

	res := run(t, "init-task", base)
	require.Equal(t, 0, res.code, res.stderr)
	require.Contains(t, res.stdout, "[OK] "+filepath.Join(base, "raw", "goodinfo"))
	require.FileExists(t, filepath.Join(base, "progress.json"))
}

func TestDumpHTTP(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dump")

	res := run(t, "--dump-http", dir, "twse", "20260204", "2330")
	require.Equal(t, 0, res.code, res.stderr)

	content, err := os.ReadFile(filepath.Join(dir, "1.txt"))
	require.NoError(t, err)
	require.Contains(t, string(content), "---- RESPONSE ----")
	require.Contains(t, string(content), "STOCK_DAY")
}

func TestNewsCnyes(t *testing.T) {
	out := filepath.Join(t.TempDir(), "task", "raw", "cnyes", "news.json")

	res := run(t, "news", "cnyes", "--out", out)
	require.Equal(t, 0, res.code, res.stderr)
	expected := `[{"time": "2026-02-04 13:00:00", "title": "台股收紅", "link": "https://news.cnyes.com/news/id/6100001"}]`
	require.JSONEq(t, expected, res.stdout)

	saved, err := os.ReadFile(out)
	require.NoError(t, err)
	require.JSONEq(t, expected, string(saved))
}

func TestNewsStatementdog(t *testing.T) {
	res := run(t, "news", "statementdog", "--json")
	require.Equal(t, 0, res.code, res.stderr)
	require.Equal(t, 1, strings.Count(res.stdout, "\n"))

	var items []map[string]string
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &items))
	require.Len(t, items, 1)
	require.Equal(t, "營收創高", items[0]["title"])
	require.Equal(t, "2026/02/04", items[0]["time"])
	require.True(t, strings.HasSuffix(items[0]["link"], "/news/42"), items[0]["link"])
}

func TestNewsMoneydj(t *testing.T) {
	res := run(t, "news", "moneydj")
	require.Equal(t, 0, res.code, res.stderr)
	require.Contains(t, res.stdout, `"title": "盤後速報"`)

	// page 2 fails, page 1 still makes it out
	res = run(t, "news", "moneydj", "--pages", "2")
	require.Equal(t, 0, res.code, res.stderr)
	require.Contains(t, res.stdout, `"time": "02/04 13:31"`)

	res = run(t, "news", "moneydj", "--pages", "0")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.stderr, "--pages must be positive")
}
