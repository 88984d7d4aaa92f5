// Package twse reads the JSON reports of the Taiwan Stock Exchange: the T86
// institutional investors report and the daily trading reports.
package twse

import (
	"context"
	"encoding/json"
	"net/url"

	"skillbox/internal/components/fault"
	"skillbox/internal/components/telemetry"
	"skillbox/internal/model"
	"skillbox/internal/scrapers/exchange"
	"skillbox/pkg/twdata"
)

const (
	report_client_fetch_t86 = "client.fetch-t86"

	pathT86      = "/rwd/zh/fund/T86"
	pathStockDay = "/exchangeReport/STOCK_DAY"
	pathMIIndex  = "/exchangeReport/MI_INDEX"
)

// T86 column names
const (
	colCode             = "證券代號"
	colName             = "證券名稱"
	colForeignBuy       = "外陸資買進股數(不含外資自營商)"
	colForeignSell      = "外陸資賣出股數(不含外資自營商)"
	colForeignNet       = "外陸資買賣超股數(不含外資自營商)"
	colForeignDealerNet = "外資自營商買賣超股數"
	colInvestBuy        = "投信買進股數"
	colInvestSell       = "投信賣出股數"
	colInvestNet        = "投信買賣超股數"
	colDealerNet        = "自營商買賣超股數"
	colDealerBuySelf    = "自營商買進股數(自行買賣)"
	colDealerBuyHedge   = "自營商買進股數(避險)"
	colDealerSellSelf   = "自營商賣出股數(自行買賣)"
	colDealerSellHedge  = "自營商賣出股數(避險)"
	colTotalNet         = "三大法人買賣超股數"
)

type Client struct {
	exchange.Client
	tel telemetry.API
}

func NewClient(opts exchange.Options, tel telemetry.API) Client {
	tel = telemetry.NewScopedAPI("twse", tel)
	return Client{
		Client: exchange.NewClient(opts, tel),
		tel:    tel,
	}
}

type statDocument struct {
	Stat string `json:"stat"`
}

// Document is a TWSE report kept as the raw JSON the exchange returned.
type Document struct {
	Stat string
	Raw  json.RawMessage
}

func (d Document) MarshalJSON() ([]byte, error) {
	if len(d.Raw) == 0 {
		return []byte("null"), nil
	}
	return d.Raw, nil
}

func (c Client) getDocument(ctx context.Context, path string, query url.Values) (Document, error) {
	body, err := c.GetJSON(ctx, path, query)
	if err != nil {
		return Document{}, err
	}
	var stat statDocument
	err = json.Unmarshal(body, &stat)
	if err != nil {
		return Document{}, fault.Wrap(fault.KindParse, err, "decode stat")
	}
	doc := Document{Stat: stat.Stat, Raw: body}
	if !exchange.StatOK(stat.Stat) {
		return Document{}, fault.New(fault.KindNotTradingDay, "%s", stat.Stat).WithDetails(doc.Raw)
	}
	return doc, nil
}

// FetchStockDay returns the monthly trading report (STOCK_DAY) of one stock,
// the month is the one containing date.
func (c Client) FetchStockDay(ctx context.Context, date, code string) (Document, error) {
	if _, err := twdata.ParseYMD(date); err != nil {
		return Document{}, err
	}
	return c.getDocument(ctx, pathStockDay, url.Values{
		"response": {"json"},
		"date":     {date},
		"stockNo":  {code},
	})
}

// FetchMarketDaily returns the daily closing report of the whole market
// excluding warrants (MI_INDEX, type ALLBUT0999).
func (c Client) FetchMarketDaily(ctx context.Context, date string) (Document, error) {
	if _, err := twdata.ParseYMD(date); err != nil {
		return Document{}, err
	}
	return c.getDocument(ctx, pathMIIndex, url.Values{
		"response": {"json"},
		"date":     {date},
		"type":     {"ALLBUT0999"},
	})
}

type t86Document struct {
	Stat   string          `json:"stat"`
	Fields []string        `json:"fields"`
	Data   [][]twdata.Cell `json:"data"`
}

// FetchT86 returns the institutional investors report of every listed
// security on date, in the order the exchange lists them.
func (c Client) FetchT86(ctx context.Context, date string) ([]model.InstitutionalItem, error) {
	if _, err := twdata.ParseYMD(date); err != nil {
		return nil, err
	}
	doc, err := c.getDocument(ctx, pathT86, url.Values{
		"response":   {"json"},
		"date":       {date},
		"selectType": {"ALL"},
	})
	if err != nil {
		return nil, err
	}

	var t86 t86Document
	err = json.Unmarshal(doc.Raw, &t86)
	if err != nil {
		c.tel.ReportBroken(report_client_fetch_t86, err, date)
		return nil, fault.Wrap(fault.KindParse, err, "decode T86")
	}
	return parseT86(t86), nil
}

func parseT86(doc t86Document) []model.InstitutionalItem {
	index := make(map[string]int, len(doc.Fields))
	for i, f := range doc.Fields {
		index[f] = i
	}

	var items []model.InstitutionalItem
	position := map[string]int{}
	for _, row := range doc.Data {
		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i].String()
		}
		getInt := func(col string) *int64 {
			return twdata.IntPtr(get(col))
		}
		orZero := func(col string) int64 {
			v, _ := twdata.ParseInt(get(col))
			return v
		}

		code := get(colCode)
		if code == "" {
			continue
		}
		dealerBuy := orZero(colDealerBuySelf) + orZero(colDealerBuyHedge)
		dealerSell := orZero(colDealerSellSelf) + orZero(colDealerSellHedge)

		item := model.InstitutionalItem{
			Code:       code,
			Name:       get(colName),
			Market:     model.MarketTWSE,
			ForeignNet: getInt(colForeignNet),
			InvestNet:  getInt(colInvestNet),
			DealerNet:  getInt(colDealerNet),
			TotalNet:   getInt(colTotalNet),
			Raw: model.InstitutionalRaw{
				ForeignBuy:       getInt(colForeignBuy),
				ForeignSell:      getInt(colForeignSell),
				ForeignDealerNet: getInt(colForeignDealerNet),
				InvestBuy:        getInt(colInvestBuy),
				InvestSell:       getInt(colInvestSell),
				DealerBuy:        &dealerBuy,
				DealerSell:       &dealerSell,
			},
		}
		if i, seen := position[code]; seen {
			items[i] = item
			continue
		}
		position[code] = len(items)
		items = append(items, item)
	}
	return items
}
