package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLText flattens an HTML fragment to text, joining text nodes with a
// single space and dropping script and style content.
func HTMLText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	doc.Find("script, style, noscript").Remove()
	return SelectionText(doc.Selection)
}

// SelectionText is HTMLText for an already parsed selection.
func SelectionText(sel *goquery.Selection) string {
	var parts []string
	var walk func(s *goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			if goquery.NodeName(c) == "#text" {
				if t := strings.TrimSpace(c.Text()); t != "" {
					parts = append(parts, t)
				}
				return
			}
			walk(c)
		})
	}
	walk(sel)
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
