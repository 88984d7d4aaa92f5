// Package tpex reads the JSON reports of the Taipei Exchange (OTC market).
package tpex

import (
	"context"
	"encoding/json"
	"net/url"

	"skillbox/internal/components/assert"
	"skillbox/internal/components/chrono"
	"skillbox/internal/components/fault"
	"skillbox/internal/components/telemetry"
	"skillbox/internal/model"
	"skillbox/internal/scrapers/exchange"
	"skillbox/pkg/twdata"
)

const (
	report_client_fetch_institutional = "client.fetch-institutional"
	report_client_fetch_quotes        = "client.fetch-quotes"

	pathInstitutional = "/web/stock/3insti/daily_trade/3itrade_hedge_result.php"
	pathQuotes        = "/web/stock/aftertrading/daily_close_quotes/stk_quote_result.php"
)

type Client struct {
	exchange.Client
	time chrono.TimeAPI
	tel  telemetry.API
}

func NewClient(opts exchange.Options, time chrono.TimeAPI, tel telemetry.API) Client {
	assert.NotNil(time)

	tel = telemetry.NewScopedAPI("tpex", tel)
	return Client{
		Client: exchange.NewClient(opts, tel),
		time:   time,
		tel:    tel,
	}
}

type table struct {
	Fields []string        `json:"fields"`
	Data   [][]twdata.Cell `json:"data"`
}

type tablesDocument struct {
	Tables json.RawMessage `json:"tables"`
}

// firstTable decodes the first element of "tables", ok is false when there is
// none or it isn't a table object.
func (d tablesDocument) firstTable() (table, bool) {
	var tables []json.RawMessage
	if err := json.Unmarshal(d.Tables, &tables); err != nil || len(tables) == 0 {
		return table{}, false
	}
	var t table
	if err := json.Unmarshal(tables[0], &t); err != nil {
		return table{}, false
	}
	return t, true
}

// positional columns of the 3insti report
const (
	instiCode = iota
	instiName
	instiForeignBuy
	instiForeignSell
	instiForeignNet
	instiInvestBuy
	instiInvestSell
	instiInvestNet
	instiDealerBuy
	instiDealerSell
	instiDealerNet

	instiMinColumns
)

// FetchInstitutional returns the institutional investors report of every OTC
// security on date (YYYYMMDD).
func (c Client) FetchInstitutional(ctx context.Context, date string) ([]model.InstitutionalItem, error) {
	roc, err := twdata.ROC(date)
	if err != nil {
		return nil, err
	}
	body, err := c.GetJSON(ctx, pathInstitutional, url.Values{
		"l": {"zh-tw"},
		"t": {"D"},
		"d": {roc},
		"o": {"json"},
	})
	if err != nil {
		return nil, err
	}

	var doc tablesDocument
	err = json.Unmarshal(body, &doc)
	if err != nil {
		c.tel.ReportBroken(report_client_fetch_institutional, err, date)
		return nil, fault.Wrap(fault.KindParse, err, "decode 3insti")
	}
	t, ok := doc.firstTable()
	if !ok {
		return nil, fault.New(fault.KindParse, "No tables in response").WithDetails(json.RawMessage(body))
	}
	return parseInstitutional(t), nil
}

func parseInstitutional(t table) []model.InstitutionalItem {
	var items []model.InstitutionalItem
	position := map[string]int{}
	for _, row := range t.Data {
		if len(row) < instiMinColumns {
			continue
		}
		cell := func(i int) *int64 {
			return twdata.IntPtr(row[i].String())
		}

		foreignNet := cell(instiForeignNet)
		investNet := cell(instiInvestNet)
		dealerNet := cell(instiDealerNet)
		code := row[instiCode].String()

		item := model.InstitutionalItem{
			Code:       code,
			Name:       row[instiName].String(),
			Market:     model.MarketTPEX,
			ForeignNet: foreignNet,
			InvestNet:  investNet,
			DealerNet:  dealerNet,
			TotalNet:   model.Sum(foreignNet, investNet, dealerNet),
			Raw: model.InstitutionalRaw{
				ForeignBuy:  cell(instiForeignBuy),
				ForeignSell: cell(instiForeignSell),
				InvestBuy:   cell(instiInvestBuy),
				InvestSell:  cell(instiInvestSell),
				DealerBuy:   cell(instiDealerBuy),
				DealerSell:  cell(instiDealerSell),
				Fields:      t.Fields,
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
