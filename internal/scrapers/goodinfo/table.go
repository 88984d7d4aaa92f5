package goodinfo

import (
	"fmt"
	"strings"

	"skillbox/internal/components/fault"
	"skillbox/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// the five headers every candidate table must mention, in output order
var requiredHeaders = []string{"交易", "開盤", "最高", "最低", "收盤"}

// Fields are the column names of a Row.
var Fields = []string{"交易日期", "開盤", "最高", "最低", "收盤"}

// Row is [date, open, high, low, close] exactly as they appear in the table.
type Row []string

const headerRowClassPrefix = "bg_h2"

func tableHasHeaders(table *goquery.Selection) bool {
	text := table.Text()
	for _, h := range requiredHeaders {
		if !strings.Contains(text, h) {
			return false
		}
	}
	return true
}

// findDataTable picks the first table in document order that mentions every
// required header and has no nested table that does as well, so a layout
// table wrapping the data table is never selected over it.
func findDataTable(doc *goquery.Document) *goquery.Selection {
	var found *goquery.Selection
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		if !tableHasHeaders(table) {
			return true
		}
		nested := table.Find("table").FilterFunction(func(_ int, inner *goquery.Selection) bool {
			return tableHasHeaders(inner)
		})
		if nested.Length() > 0 {
			return true
		}
		found = table
		return false
	})
	return found
}

// ownRows are the rows of table excluding the rows of nested tables.
func ownRows(table *goquery.Selection) *goquery.Selection {
	return table.Find("tr").FilterFunction(func(_ int, tr *goquery.Selection) bool {
		return tr.Closest("table").IsSelection(table)
	})
}

func findHeaderRow(rows *goquery.Selection) *goquery.Selection {
	header := rows.FilterFunction(func(_ int, tr *goquery.Selection) bool {
		return strings.HasPrefix(tr.AttrOr("class", ""), headerRowClassPrefix)
	}).First()
	if header.Length() > 0 {
		return header
	}
	return rows.FilterFunction(func(_ int, tr *goquery.Selection) bool {
		return strings.Contains(tr.Text(), "開盤")
	}).First()
}

func headerCells(header *goquery.Selection) []string {
	cells := header.ChildrenFiltered("th")
	if cells.Length() == 0 {
		cells = header.ChildrenFiltered("td")
	}
	out := make([]string, 0, cells.Length())
	cells.Each(func(_ int, cell *goquery.Selection) {
		out = append(out, htmlutil.CellText(cell, ""))
	})
	return out
}

func columnIndex(headers []string, name string) int {
	for i, h := range headers {
		if strings.Contains(h, name) {
			return i
		}
	}
	return -1
}

// ParseOHLCTable finds the daily price table in the html fragment returned
// by the data endpoint and returns the row whose date cell equals
// targetShortDate (YY/MM/DD).
func ParseOHLCTable(fragment string, targetShortDate string) ([]string, Row, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, nil, fault.Wrap(fault.KindParse, err, "parse html")
	}

	table := findDataTable(doc)
	if table == nil {
		return nil, nil, fault.New(fault.KindParse, "cannot find the OHLC data table")
	}

	rows := ownRows(table)
	header := findHeaderRow(rows)
	if header.Length() == 0 {
		return nil, nil, fault.New(fault.KindParse, "cannot locate header row")
	}

	headers := headerCells(header)
	indices := make([]int, len(requiredHeaders))
	widest := 0
	for i, name := range requiredHeaders {
		indices[i] = columnIndex(headers, name)
		if indices[i] < 0 {
			return nil, nil, fault.New(
				fault.KindParse,
				"missing required columns: [%s]", strings.Join(headers, ", "),
			).WithDetails(headers)
		}
		if indices[i] > widest {
			widest = indices[i]
		}
	}

	var result Row
	rows.EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		tds := tr.ChildrenFiltered("td")
		if tds.Length() == 0 || tds.Length() <= widest {
			return true
		}
		cells := make([]string, tds.Length())
		tds.Each(func(i int, td *goquery.Selection) {
			cells[i] = htmlutil.CellText(td, " ")
		})

		date := strings.TrimLeft(cells[indices[0]], "'")
		if date != targetShortDate {
			return true
		}
		result = Row{date}
		for _, idx := range indices[1:] {
			result = append(result, cells[idx])
		}
		return false
	})
	if result == nil {
		return nil, nil, fault.New(fault.KindNotFound, "date %s not found", targetShortDate)
	}

	fields := make([]string, len(Fields))
	copy(fields, Fields)
	return fields, result, nil
}

func (r Row) String() string {
	return fmt.Sprintf("[%s]", strings.Join(r, ", "))
}
