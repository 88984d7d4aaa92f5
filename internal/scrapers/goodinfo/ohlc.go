package goodinfo

import (
	"skillbox/internal/components/fault"
	"skillbox/pkg/twdata"
)

type OHLC struct {
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// BuildOHLC converts the 4 price cells of row (indices 1 to 4). A single
// absent value fails the whole row, there is no partial OHLC.
func BuildOHLC(row Row) (OHLC, error) {
	if len(row) < 5 {
		return OHLC{}, fault.New(fault.KindValidation, "OHLC has empty values: %s", row).WithDetails([]string(row))
	}

	values := [4]float64{}
	for i := range values {
		v, ok := twdata.ParseFloat(row[i+1])
		if !ok {
			return OHLC{}, fault.New(fault.KindValidation, "OHLC has empty values: %s", row).WithDetails([]string(row))
		}
		values[i] = v
	}

	return OHLC{
		Open:  values[0],
		High:  values[1],
		Low:   values[2],
		Close: values[3],
	}, nil
}

type Stock struct {
	Code string `json:"code"`
}

type Raw struct {
	Fields []string `json:"fields"`
	Row    []string `json:"row"`
}

// Result is the document printed by `skillbox emerging`. Exactly one of OHLC
// and Error is set.
type Result struct {
	Source  string          `json:"source"`
	Market  string          `json:"market"`
	Date    string          `json:"date"`
	DateROC string          `json:"dateROC"`
	Stock   Stock           `json:"stock"`
	OHLC    *OHLC           `json:"ohlc"`
	Raw     *Raw            `json:"raw"`
	Error   *fault.Document `json:"error"`
}

func (r Result) Failed() bool {
	return r.Error != nil
}
