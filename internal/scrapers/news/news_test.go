package news

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"skillbox/internal/components/chrono"
	"skillbox/internal/components/fault"
	"skillbox/internal/components/telemetry"
	"skillbox/internal/scrapers/exchange"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, time.February, 5, 9, 0, 0, 0, chrono.Taipei())

func testOptions(baseURL string) exchange.Options {
	return exchange.Options{
		BaseURL:   baseURL,
		UserAgent: "skillbox-test",
		Timeout:   5 * time.Second,
		Attempts:  1,
	}
}

type recordedRequest struct {
	path   string
	query  url.Values
	header http.Header
}

type fakeSite struct {
	mutex    sync.Mutex
	received []recordedRequest
	handle   func(w http.ResponseWriter, r *http.Request)
}

func newFakeSite(t *testing.T, handle func(w http.ResponseWriter, r *http.Request)) (*fakeSite, string) {
	f := &fakeSite{handle: handle}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mutex.Lock()
		f.received = append(f.received, recordedRequest{
			path:   r.URL.Path,
			query:  r.URL.Query(),
			header: r.Header.Clone(),
		})
		f.mutex.Unlock()
		f.handle(w, r)
	}))
	t.Cleanup(srv.Close)
	return f, srv.URL
}

func (f *fakeSite) requests() []recordedRequest {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]recordedRequest{}, f.received...)
}

// cnyesPageBody is a newslist page with `n` items, ids counting up from
// `first`.
func cnyesPageBody(page, lastPage, first, n int) string {
	var data []string
	for i := 0; i < n; i++ {
		id := first + i
		// 2026-02-05 08:00:00 +08:00 minus one minute per id
		publishAt := 1770249600 - 60*id
		data = append(data, fmt.Sprintf(`{"newsId": %d, "title": "台股新聞 %d", "publishAt": %d}`, id, id, publishAt))
	}
	return fmt.Sprintf(`{"statusCode": 200, "items": {"current_page": %d, "last_page": %d, "data": [%s]}}`,
		page, lastPage, strings.Join(data, ","))
}

func newTestCnyes(baseURL string, limit int) Cnyes {
	return NewCnyes(CnyesOptions{
		Options: testOptions(baseURL),
		LinkURL: "https://news.cnyes.com",
		Limit:   limit,
		Days:    10,
	}, chrono.FixedTime{T: now}, telemetry.SlogAPI{})
}

func TestCnyes(t *testing.T) {
	site, base := newFakeSite(t, func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		w.Write([]byte(cnyesPageBody(page, 9, (page-1)*2, 2)))
	})

	items, err := newTestCnyes(base, 5).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 5)
	expected := Item{
		Time:  "2026-02-05 08:00:00",
		Title: "台股新聞 0",
		Link:  "https://news.cnyes.com/news/id/0",
	}
	if diff := cmp.Diff(expected, items[0]); diff != "" {
		t.Fatalf("item mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, "2026-02-05 07:56:00", items[4].Time)

	requests := site.requests()
	require.Len(t, requests, 3)
	for i, req := range requests {
		q := req.query
		require.Equal(t, pathCnyes, req.path)
		require.Equal(t, strconv.Itoa(i+1), q.Get("page"))
		require.Equal(t, "30", q.Get("limit"))
		require.Equal(t, "1", q.Get("isCategoryHeadline"))
		require.Equal(t, strconv.FormatInt(now.Unix(), 10), q.Get("endAt"))
		require.Equal(t, strconv.FormatInt(now.Unix()-10*86400, 10), q.Get("startAt"))
	}
}

func TestCnyesStopsWhenExhausted(t *testing.T) {
	site, base := newFakeSite(t, func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page > 2 {
			w.Write([]byte(cnyesPageBody(page, 0, 0, 0)))
			return
		}
		w.Write([]byte(cnyesPageBody(page, 0, (page-1)*3, 3)))
	})

	items, err := newTestCnyes(base, 100).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 6)
	require.Len(t, site.requests(), 3)

	// last_page ends the paging without an empty request
	site, base = newFakeSite(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(cnyesPageBody(1, 1, 0, 4)))
	})
	items, err = newTestCnyes(base, 100).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 4)
	require.Len(t, site.requests(), 1)
}

func TestCnyesErrors(t *testing.T) {
	_, base := newFakeSite(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": {"data": "oops"}}`))
	})
	_, err := newTestCnyes(base, 10).Fetch(context.Background())
	require.Equal(t, fault.KindParse, fault.KindOf(err))

	_, base = newFakeSite(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err = newTestCnyes(base, 10).Fetch(context.Background())
	require.Equal(t, fault.KindHTTP, fault.KindOf(err))
	require.Equal(t, "HTTP 502", err.Error())
}

const statementdogPage = `<html><body>
<ul class="statementdog-news-list">
	<li class="statementdog-news-list-item">
		<a class="statementdog-news-list-item-link" href="/news/1001">
			<h3 class="statementdog-news-list-item-title"> 台積電 1 月營收 &amp; 年增 </h3>
		</a>
		<span class="statementdog-news-list-item-date">2026/02/05</span>
	</li>
	<li class="statementdog-news-list-item">
		<h3 class="statementdog-news-list-item-title">沒有連結的標題</h3>
	</li>
	<li class="statementdog-news-list-item">
		<a class="statementdog-news-list-item-link" href="https://example.com/external">
			<h3 class="statementdog-news-list-item-title">外部文章</h3>
		</a>
	</li>
</ul>
</body></html>`

func TestStatementdog(t *testing.T) {
	site, base := newFakeSite(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(statementdogPage))
	})

	items, err := NewStatementdog(testOptions(base), telemetry.SlogAPI{}).Fetch(context.Background())
	require.NoError(t, err)
	requests := site.requests()
	require.Len(t, requests, 1)
	require.Equal(t, pathStatementdog, requests[0].path)
	require.Equal(t, "skillbox-test", requests[0].header.Get("User-Agent"))

	expected := []Item{
		{Time: "2026/02/05", Title: "台積電 1 月營收 & 年增", Link: base + "/news/1001"},
		{Time: "", Title: "外部文章", Link: "https://example.com/external"},
	}
	if diff := cmp.Diff(expected, items); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestStatementdogEmpty(t *testing.T) {
	_, base := newFakeSite(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>改版中</p></body></html>`))
	})

	items, err := NewStatementdog(testOptions(base), telemetry.SlogAPI{}).Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, []Item{}, items)
}

func moneydjPage(page int) string {
	return fmt.Sprintf(`<html><body><table>
<tr>
	<td width="100" align="center"><font color="#666666">02/0%[1]d 14:30</font></td>
	<td><a href='/kmdj/news/newsviewer.aspx?a=%[1]d01' title="第 %[1]d 頁頭條">第 %[1]d 頁頭條</a></td>
</tr>
<tr>
	<td width="100" align="center"><font>02/0%[1]d  09:05</font></td>
	<td><a href='https://www.moneydj.com/kmdj/news/newsviewer.aspx?a=%[1]d02' title="第 %[1]d 頁次條">x</a></td>
</tr>
<tr>
	<td width="100"><font>新聞</font></td>
	<td><a href='/ignored' title="不是新聞">x</a></td>
</tr>
</table></body></html>`, page)
}

func newTestMoneydj(baseURL string, pages int) Moneydj {
	return NewMoneydj(MoneydjOptions{Options: testOptions(baseURL), Pages: pages}, telemetry.SlogAPI{})
}

func TestMoneydj(t *testing.T) {
	site, base := newFakeSite(t, func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("index1"))
		if page == 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(moneydjPage(page)))
	})

	items, err := newTestMoneydj(base, 3).Fetch(context.Background())
	require.NoError(t, err)

	expected := []Item{
		{Time: "02/01 14:30", Title: "第 1 頁頭條", Link: base + "/kmdj/news/newsviewer.aspx?a=101"},
		{Time: "02/01  09:05", Title: "第 1 頁次條", Link: "https://www.moneydj.com/kmdj/news/newsviewer.aspx?a=102"},
		{Time: "02/03 14:30", Title: "第 3 頁頭條", Link: base + "/kmdj/news/newsviewer.aspx?a=301"},
		{Time: "02/03  09:05", Title: "第 3 頁次條", Link: "https://www.moneydj.com/kmdj/news/newsviewer.aspx?a=302"},
	}
	if diff := cmp.Diff(expected, items); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}

	requests := site.requests()
	require.Len(t, requests, 3)
	for i, req := range requests {
		require.Equal(t, pathMoneydj, req.path)
		require.Equal(t, "mb06", req.query.Get("a"))
		require.Equal(t, strconv.Itoa(i+1), req.query.Get("index1"))
	}
}

func TestMoneydjAllPagesFail(t *testing.T) {
	_, base := newFakeSite(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := newTestMoneydj(base, 2).Fetch(context.Background())
	require.Equal(t, fault.KindHTTP, fault.KindOf(err))
	require.Equal(t, "HTTP 403", err.Error())
}

func TestMoneydjCancelled(t *testing.T) {
	site, base := newFakeSite(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(moneydjPage(1)))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestMoneydj(base, 5).Fetch(ctx)
	require.Equal(t, fault.KindNetwork, fault.KindOf(err))
	require.Empty(t, site.requests())
}

func TestAbsolute(t *testing.T) {
	require.Equal(t, "https://statementdog.com/news/1", absolute("https://statementdog.com/", "/news/1"))
	require.Equal(t, "https://statementdog.com/news/1", absolute("https://statementdog.com", "news/1"))
	require.Equal(t, "http://x.tw/a", absolute("https://statementdog.com", " http://x.tw/a "))
	require.Equal(t, "", absolute("https://statementdog.com", ""))
}
