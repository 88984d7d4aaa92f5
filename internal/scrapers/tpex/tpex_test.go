package tpex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"skillbox/internal/components/chrono"
	"skillbox/internal/components/fault"
	"skillbox/internal/components/telemetry"
	"skillbox/internal/model"
	"skillbox/internal/scrapers/exchange"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const instiOK = `{
	"date": "20260204",
	"tables": [{
		"title": "三大法人買賣明細資訊",
		"fields": ["代號", "名稱", "外資買進", "外資賣出", "外資買賣超", "投信買進", "投信賣出", "投信買賣超", "自營買進", "自營賣出", "自營買賣超", "三大法人合計"],
		"data": [
			["6488 ", "環球晶", "1,000", "400", "600", "20", "0", "20", "5", "10", "-5", "615"],
			["8069", "元太", "10", "10", "0", "--", "0", "--", "0", "0", "0", "0"],
			["short", "row"]
		]
	}]
}`

const quotesOK = `{
	"stat": "ok",
	"tables": [{
		"fields": ["代號", "名稱", "收盤", "漲跌", "開盤", "最高", "最低", "均價", "成交股數"],
		"data": [
			["6499", "益安", "52.30", "+1.30", "51.00", "53.00", "50.50", "52.01", "1,234,000"],
			["6610", "虹堡", "---", "0.00", "--", "--", "--", "--", "0"],
			["8069", "元太", "210.50", "-2.00", "212.00", "214.00", "209.00", "211.00", "3,000,000"]
		]
	}]
}`

type fakeTPEX struct {
	mutex   sync.Mutex
	insti   string
	quotes  string
	queries []string
}

func (f *fakeTPEX) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mutex.Lock()
	f.queries = append(f.queries, r.URL.Path+"?"+r.URL.RawQuery)
	f.mutex.Unlock()
	switch r.URL.Path {
	case pathInstitutional:
		w.Write([]byte(f.insti))
	case pathQuotes:
		w.Write([]byte(f.quotes))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

var fetchTime = time.Date(2026, 2, 4, 22, 30, 0, 0, chrono.Taipei())

func testClient(baseURL string) Client {
	return NewClient(exchange.Options{
		BaseURL:   baseURL,
		UserAgent: "skillbox-test",
		Timeout:   5 * time.Second,
		Attempts:  1,
		Backoff:   time.Millisecond,
	}, chrono.FixedTime{T: fetchTime}, telemetry.SlogAPI{})
}

func int64p(v int64) *int64 {
	return &v
}

func float64p(v float64) *float64 {
	return &v
}

func TestFetchInstitutional(t *testing.T) {
	fake := &fakeTPEX{insti: instiOK}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	items, err := testClient(srv.URL).FetchInstitutional(context.Background(), "20260204")
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.Equal(t, "6488", items[0].Code)
	require.Equal(t, model.MarketTPEX, items[0].Market)
	require.Equal(t, int64p(600), items[0].ForeignNet)
	require.Equal(t, int64p(20), items[0].InvestNet)
	require.Equal(t, int64p(-5), items[0].DealerNet)
	require.Equal(t, int64p(615), items[0].TotalNet)
	require.Equal(t, int64p(10), items[0].Raw.DealerSell)
	require.Len(t, items[0].Raw.Fields, 12)

	// blank invest net means no total either
	require.Nil(t, items[1].InvestNet)
	require.Nil(t, items[1].TotalNet)

	require.Equal(t, []string{pathInstitutional + "?d=115%2F02%2F04&l=zh-tw&o=json&t=D"}, fake.queries)
}

func TestFetchInstitutionalNoTables(t *testing.T) {
	fake := &fakeTPEX{insti: `{"date":"20260207","tables":[]}`}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	_, err := testClient(srv.URL).FetchInstitutional(context.Background(), "20260207")
	require.Equal(t, fault.KindParse, fault.KindOf(err))
	require.Equal(t, "No tables in response", err.Error())
}

func TestFetchQuotes(t *testing.T) {
	fake := &fakeTPEX{quotes: quotesOK}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	report := testClient(srv.URL).FetchQuotes(context.Background(), "20260204", []string{"8069", "6499", "6610"})
	require.Nil(t, report.Error)
	require.Equal(t, "tpex", report.Source)
	require.Equal(t, "2026-02-04T14:30:00Z", report.FetchTime)
	require.Equal(t, "115/02/04", report.DateROC)

	expected := []*model.Quote{
		{
			Code:          "8069",
			Name:          "元太",
			Open:          float64p(212),
			High:          float64p(214),
			Low:           float64p(209),
			Close:         float64p(210.5),
			Change:        float64p(-2),
			ChangePercent: float64p(-0.71),
			Volume:        int64p(3000000),
		},
		{
			Code:          "6499",
			Name:          "益安",
			Open:          float64p(51),
			High:          float64p(53),
			Low:           float64p(50.5),
			Close:         float64p(52.3),
			Change:        float64p(1.3),
			ChangePercent: float64p(2.55),
			Volume:        int64p(1234000),
		},
		{
			Code:   "6610",
			Name:   "虹堡",
			Change: float64p(0),
			Volume: int64p(0),
		},
	}
	if diff := cmp.Diff(expected, report.Stocks); diff != "" {
		t.Fatalf("unexpected quotes (-want +got):\n%s", diff)
	}
}

func TestFetchQuotesMissingCodes(t *testing.T) {
	fake := &fakeTPEX{quotes: quotesOK}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	report := testClient(srv.URL).FetchQuotes(context.Background(), "20260204", []string{"6499", "9999"})
	require.NotNil(t, report.Error)
	require.Equal(t, fault.KindNotFound, report.Error.Type)
	require.Equal(t, []string{"9999"}, report.Error.Details)
	require.Len(t, report.Stocks, 2)
	require.Equal(t, "6499", report.Stocks[0].Code)
	require.Nil(t, report.Stocks[1])
}

func TestFetchQuotesFailures(t *testing.T) {
	cases := []struct {
		name string
		body string
		kind fault.Kind
	}{
		{name: "holiday", body: `{"stat":"查無資料"}`, kind: fault.KindNotTradingDay},
		{name: "no tables", body: `{"stat":"ok","tables":[]}`, kind: fault.KindParse},
		{name: "bad tables", body: `{"stat":"ok","tables":{"x":1}}`, kind: fault.KindParse},
		{name: "missing fields", body: `{"stat":"ok","tables":[{"fields":["代號","收盤"],"data":[]}]}`, kind: fault.KindParse},
	}
	for _, c := range cases {
		fake := &fakeTPEX{quotes: c.body}
		srv := httptest.NewServer(fake)

		report := testClient(srv.URL).FetchQuotes(context.Background(), "20260204", []string{"6499"})
		srv.Close()

		require.NotNil(t, report.Error, c.name)
		require.Equal(t, c.kind, report.Error.Type, c.name)
		require.Empty(t, report.Stocks, c.name)
		require.NotNil(t, report.Stocks, c.name)
	}
}

func TestFetchQuotesNetwork(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	link := srv.URL
	srv.Close()

	report := testClient(link).FetchQuotes(context.Background(), "20260204", []string{"6499"})
	require.Equal(t, fault.KindNetwork, report.Error.Type)
}

func TestChangePercent(t *testing.T) {
	require.Nil(t, changePercent(nil, float64p(1)))
	require.Nil(t, changePercent(float64p(0), float64p(1)))
	require.Equal(t, 10.0, *changePercent(float64p(10), float64p(11)))
}
