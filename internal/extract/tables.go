package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Table is one <table> element reduced to its header names and the rows whose
// cell count matches them.
type Table struct {
	ID      string   `json:"-"`
	Headers []string `json:"headers"`
	Rows    []Row    `json:"rows"`
}

// Extracted holds every table of a page in document order. It encodes as a JSON
// object keyed by table ID, keeping that order.
type Extracted []Table

// TableID is the positional identifier of the idx-th table on a page.
func TableID(idx int) string { return fmt.Sprintf("table_%d", idx) }

// Tables parses every table in input. Header names come from all <th> cells of
// the table; each <tr> after the first becomes a row only when its <td> count
// equals the header count. Rows that do not match are dropped.
func Tables(input []byte) (Extracted, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	out := Extracted{}
	doc.Find("table").Each(func(i int, table *goquery.Selection) {
		t := Table{ID: TableID(i), Headers: []string{}, Rows: []Row{}}
		table.Find("th").Each(func(_ int, th *goquery.Selection) {
			t.Headers = append(t.Headers, cellText(th))
		})
		table.Find("tr").Each(func(j int, tr *goquery.Selection) {
			if j == 0 {
				return
			}
			cells := tr.Find("td")
			if cells.Length() != len(t.Headers) {
				return
			}
			var row Row
			cells.Each(func(k int, td *goquery.Selection) {
				row.Set(t.Headers[k], cellText(td))
			})
			t.Rows = append(t.Rows, row)
		})
		out = append(out, t)
	})
	return out, nil
}

// cellText joins the trimmed, non-empty text pieces under s with no separator.
func cellText(s *goquery.Selection) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(strings.TrimSpace(n.Data))
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return b.String()
}

func (e Extracted) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, t := range e {
		if i > 0 {
			buf.WriteByte(',')
		}
		if t.Headers == nil {
			t.Headers = []string{}
		}
		if t.Rows == nil {
			t.Rows = []Row{}
		}
		kb, err := json.Marshal(t.ID)
		if err != nil {
			return nil, err
		}
		tb, err := json.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", t.ID, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(tb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (e *Extracted) UnmarshalJSON(data []byte) error {
	*e = Extracted{}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		id, ok := tok.(string)
		if !ok {
			return fmt.Errorf("tables: unexpected key %v", tok)
		}
		var t Table
		if err := dec.Decode(&t); err != nil {
			return fmt.Errorf("tables: %s: %w", id, err)
		}
		t.ID = id
		*e = append(*e, t)
	}
	return expectDelim(dec, '}')
}
