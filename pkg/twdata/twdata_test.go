package twdata

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"skillbox/internal/components/fault"

	"github.com/stretchr/testify/require"
)

func TestROC(t *testing.T) {
	cases := map[string]string{
		"20260204": "115/02/04",
		"19120101": "001/01/01",
		"20001231": "089/12/31",
		"20240229": "113/02/29",
	}
	for in, expected := range cases {
		out, err := ROC(in)
		require.NoError(t, err, in)
		require.Equal(t, expected, out, in)
	}
}

func TestROCYearOffset(t *testing.T) {
	start := time.Date(1912, 1, 1, 0, 0, 0, 0, time.UTC)
	for d := start; d.Year() < 2100; d = d.AddDate(0, 0, 37) {
		roc, err := ROC(FormatYMD(d))
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("%03d", d.Year()-1911), roc[:3])
		require.Len(t, roc, 9)
	}
}

func TestGoodinfoShort(t *testing.T) {
	out, err := GoodinfoShort("20260204")
	require.NoError(t, err)
	require.Equal(t, "26/02/04", out)

	out, err = GoodinfoShort("20050709")
	require.NoError(t, err)
	require.Equal(t, "05/07/09", out)
}

func TestParseYMDInvalid(t *testing.T) {
	for _, in := range []string{"", "2026024", "2026-02-04", "20260230", "20261301", "abcdefgh", "202602040"} {
		_, err := ParseYMD(in)
		require.Error(t, err, in)
		require.Equal(t, fault.KindValidation, fault.KindOf(err), in)
	}
}

func TestParseFloat(t *testing.T) {
	v, ok := ParseFloat("1,234.5")
	require.True(t, ok)
	require.Equal(t, 1234.5, v)

	v, ok = ParseFloat("  -0.35 ")
	require.True(t, ok)
	require.Equal(t, -0.35, v)

	for _, in := range []string{"", "-", "--", "N/A", " -- ", "abc", "除權", "NaN", "nan", "Inf", "-Infinity", "+inf"} {
		_, ok := ParseFloat(in)
		require.False(t, ok, in)
	}
}

func TestParseInt(t *testing.T) {
	v, ok := ParseInt("1,234,000")
	require.True(t, ok)
	require.Equal(t, int64(1234000), v)

	v, ok = ParseInt("-12 345")
	require.True(t, ok)
	require.Equal(t, int64(-12345), v)

	v, ok = ParseInt("+7")
	require.True(t, ok)
	require.Equal(t, int64(7), v)

	for _, in := range []string{"", "-", "—", "1.5", "x12"} {
		_, ok := ParseInt(in)
		require.False(t, ok, in)
	}

	require.Nil(t, IntPtr("--"))
	require.Equal(t, int64(3), *IntPtr("3"))
}

func TestParseVolume(t *testing.T) {
	_, ok := ParseVolume("NaN")
	require.False(t, ok)

	v, ok := ParseVolume("1,200.0")
	require.True(t, ok)
	require.Equal(t, int64(1200), v)
}

func TestCellUnmarshal(t *testing.T) {
	var row []Cell
	err := json.Unmarshal([]byte(`["2330", 1234.5, null, " 台積電 "]`), &row)
	require.NoError(t, err)
	require.Equal(t, []Cell{"2330", "1234.5", "", " 台積電 "}, row)
	require.Equal(t, "台積電", row[3].String())
}
