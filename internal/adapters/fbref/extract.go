package fbref

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/okian/touchline/internal/domain/table"
)

// Extract returns the candidate tables of an FBref page. Tables wrapped in
// HTML comments are preferred; visible tables are used only when the page
// has none. Each candidate is named by its id attribute when present.
func Extract(page []byte) ([]table.RawTable, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	var out []table.RawTable
	for _, frag := range commentedTables(doc.Nodes) {
		sub, err := goquery.NewDocumentFromReader(strings.NewReader(frag))
		if err != nil {
			continue
		}
		out = append(out, readTables(sub.Selection)...)
	}
	if len(out) > 0 {
		return out, nil
	}
	return readTables(doc.Selection), nil
}

// commentedTables collects the text of every comment that holds a table.
func commentedTables(roots []*html.Node) []string {
	var out []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.CommentNode && strings.Contains(n.Data, "<table") {
			out = append(out, n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range roots {
		walk(n)
	}
	return out
}

func readTables(sel *goquery.Selection) []table.RawTable {
	var out []table.RawTable
	sel.Find("table").Each(func(i int, t *goquery.Selection) {
		name := t.AttrOr("id", "table_"+strconv.Itoa(i))
		raw := table.RawTable{Name: name}

		headRows := t.Find("thead tr")
		bodyRows := t.Find("tbody tr")
		if headRows.Length() == 0 {
			all := t.Find("tr")
			headRows = all.First()
			bodyRows = all.Slice(1, all.Length())
		}

		headRows.Each(func(_ int, tr *goquery.Selection) {
			var level []string
			cells(tr, func(text string, span int) {
				for k := 0; k < span; k++ {
					level = append(level, text)
				}
			})
			raw.Header = append(raw.Header, level)
		})
		bodyRows.Each(func(_ int, tr *goquery.Selection) {
			var row []table.Cell
			cells(tr, func(text string, span int) {
				row = append(row, table.ParseCell(text))
				for k := 1; k < span; k++ {
					row = append(row, table.Missing())
				}
			})
			if len(row) > 0 {
				raw.Rows = append(raw.Rows, row)
			}
		})

		if raw.Width() > 0 {
			out = append(out, raw)
		}
	})
	return out
}

func cells(tr *goquery.Selection, fn func(text string, span int)) {
	tr.ChildrenFiltered("th,td").Each(func(_ int, c *goquery.Selection) {
		span := 1
		if v, err := strconv.Atoi(c.AttrOr("colspan", "1")); err == nil && v > 1 {
			span = v
		}
		fn(strings.TrimSpace(c.Text()), span)
	})
}
