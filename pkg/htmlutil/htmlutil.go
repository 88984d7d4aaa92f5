package htmlutil

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// GetText returns the concatenated text of node and its descendants, entities
// are already unescaped by the parser.
func GetText(node *html.Node) string {
	return GetTextWithBreaks(node, "")
}

// GetTextWithBreaks is GetText but every <br> element is replaced with `br`.
func GetTextWithBreaks(node *html.Node, br string) string {
	var buffer bytes.Buffer
	getTextRecursive(node, br, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, br string, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	switch node.Type {
	case html.TextNode:
		buffer.WriteString(node.Data)
		return
	case html.ElementNode:
		if node.Data == "br" {
			buffer.WriteString(br)
			return
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		getTextRecursive(child, br, buffer)
	}
}

// SelectionText is GetTextWithBreaks over every node of the selection.
func SelectionText(sel *goquery.Selection, br string) string {
	var out strings.Builder
	for _, n := range sel.Nodes {
		out.WriteString(GetTextWithBreaks(n, br))
	}
	return out.String()
}

// CellText is the trimmed text of a table cell where line breaks become
// `sep`.
func CellText(sel *goquery.Selection, sep string) string {
	text := strings.TrimSpace(SelectionText(sel, "\n"))
	return strings.ReplaceAll(text, "\n", sep)
}

// OuterHTML renders the selection's nodes, it returns "" on a render failure.
func OuterHTML(sel *goquery.Selection) string {
	var buffer bytes.Buffer
	for _, n := range sel.Nodes {
		if err := html.Render(&buffer, n); err != nil {
			return ""
		}
	}
	return buffer.String()
}
