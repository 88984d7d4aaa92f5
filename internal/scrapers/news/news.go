// Package news collects the latest Taiwan stock headlines of the financial
// news sites a research task reads (cnyes, statementdog and moneydj).
package news

import (
	"strings"

	"skillbox/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Item is a single headline.
type Item struct {
	Time  string `json:"time"`
	Title string `json:"title"`
	Link  string `json:"link"`
}

// text is the trimmed text of the first node of sel, "" when sel is empty.
func text(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(htmlutil.GetText(sel.Nodes[0]))
}

// absolute resolves a link found on a page of site, links that already carry
// a scheme are kept.
func absolute(site, link string) string {
	link = strings.TrimSpace(link)
	if link == "" || strings.HasPrefix(link, "http") {
		return link
	}
	if !strings.HasPrefix(link, "/") {
		link = "/" + link
	}
	return strings.TrimSuffix(site, "/") + link
}
