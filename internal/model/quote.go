package model

// Quote is the daily close quote of a security.
type Quote struct {
	Code          string   `json:"code"`
	Name          string   `json:"name"`
	Open          *float64 `json:"open"`
	High          *float64 `json:"high"`
	Low           *float64 `json:"low"`
	Close         *float64 `json:"close"`
	Change        *float64 `json:"change"`
	ChangePercent *float64 `json:"changePercent"`
	Volume        *int64   `json:"volume"`
}
