package model

// Market of a listed security.
type Market string

const (
	MarketTWSE Market = "TWSE"
	MarketTPEX Market = "TPEX"
)

// InstitutionalItem is the net buy/sell of the three institutional investor
// groups (foreign, investment trust, dealer) for one security, in shares.
// Values the exchange left blank are nil.
type InstitutionalItem struct {
	Code       string           `json:"code"`
	Name       string           `json:"name"`
	Market     Market           `json:"market"`
	ForeignNet *int64           `json:"foreignNet"`
	InvestNet  *int64           `json:"investNet"`
	DealerNet  *int64           `json:"dealerNet"`
	TotalNet   *int64           `json:"totalNet"`
	Raw        InstitutionalRaw `json:"raw"`
}

type InstitutionalRaw struct {
	ForeignBuy  *int64 `json:"foreignBuy"`
	ForeignSell *int64 `json:"foreignSell"`
	// only reported by TWSE
	ForeignDealerNet *int64 `json:"foreignDealerNet,omitempty"`
	InvestBuy        *int64 `json:"investBuy"`
	InvestSell       *int64 `json:"investSell"`
	DealerBuy        *int64 `json:"dealerBuy"`
	DealerSell       *int64 `json:"dealerSell"`
	// only reported by TPEX, the column names of the source table
	Fields []string `json:"fields,omitempty"`
}

// Sum adds the values when all of them are present.
func Sum(values ...*int64) *int64 {
	var total int64
	for _, v := range values {
		if v == nil {
			return nil
		}
		total += *v
	}
	return &total
}
