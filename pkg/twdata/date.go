// Package twdata holds the date and number conventions shared by the Taiwan
// market data sources: ROC calendar dates, Goodinfo short dates and the
// locale formatted numbers found in exchange tables.
package twdata

import (
	"fmt"
	"time"

	"skillbox/internal/components/fault"
)

// ROCOffset is the difference between the Gregorian and the ROC (Minguo) year.
const ROCOffset = 1911

const layoutYMD = "20060102"

// ParseYMD parses an 8 digit YYYYMMDD date, it rejects anything that isn't
// exactly 8 digits or isn't a real calendar date.
func ParseYMD(s string) (time.Time, error) {
	if len(s) != 8 {
		return time.Time{}, fault.New(fault.KindValidation, "Invalid date: %s", s)
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return time.Time{}, fault.New(fault.KindValidation, "Invalid date: %s", s)
		}
	}
	t, err := time.ParseInLocation(layoutYMD, s, time.UTC)
	if err != nil {
		return time.Time{}, fault.New(fault.KindValidation, "Invalid date: %s", s)
	}
	return t, nil
}

// ROC converts YYYYMMDD to YYY/MM/DD, ex. 20260204 -> 115/02/04.
func ROC(yyyymmdd string) (string, error) {
	t, err := ParseYMD(yyyymmdd)
	if err != nil {
		return "", err
	}
	return ROCFromTime(t), nil
}

// ROCFromTime formats t as a zero padded ROC date.
func ROCFromTime(t time.Time) string {
	return fmt.Sprintf("%03d/%02d/%02d", t.Year()-ROCOffset, int(t.Month()), t.Day())
}

// GoodinfoShort converts YYYYMMDD to the YY/MM/DD form (2 digit Gregorian
// year) used by the Goodinfo daily tables, ex. 20260204 -> 26/02/04.
func GoodinfoShort(yyyymmdd string) (string, error) {
	t, err := ParseYMD(yyyymmdd)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d/%02d/%02d", t.Year()%100, int(t.Month()), t.Day()), nil
}

// FormatYMD is the inverse of ParseYMD.
func FormatYMD(t time.Time) string {
	return t.Format(layoutYMD)
}
