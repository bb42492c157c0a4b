package primenet

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	resultsBodyStart = "<tbody>"
	resultsBodyEnd   = "</tbody>"
	resultsCellCount = 7
)

// the listing links to full results with an unescaped `&full`
var resultsEntityRepair = strings.NewReplacer("&full", "&amp;full")

var receivedLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
}

type resultsTable struct {
	Rows []resultsTableRow `xml:"tr"`
}

type resultsTableRow struct {
	Cells []cellText `xml:"td"`
}

// cellText collects every piece of character data inside a cell, including the
// text of nested links.
type cellText string

func (c *cellText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var b strings.Builder
	depth := 0
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				*c = cellText(strings.TrimSpace(b.String()))
				return nil
			}
			depth--
		}
	}
}

// ExtractResultRows parses the results listing table. Pages without a table
// body yield no rows and no error, a table body that is not well formed yields
// no rows and the parse error.
func ExtractResultRows(response string) ([]ResultRow, error) {
	start := strings.Index(response, resultsBodyStart)
	if start < 0 {
		return nil, nil
	}
	end := strings.Index(response[start:], resultsBodyEnd)
	if end < 0 {
		return nil, nil
	}
	fragment := response[start : start+end+len(resultsBodyEnd)]
	fragment = resultsEntityRepair.Replace(fragment)

	var table resultsTable
	decoder := xml.NewDecoder(strings.NewReader(fragment))
	decoder.Entity = xml.HTMLEntity
	err := decoder.Decode(&table)
	if err != nil {
		return nil, fmt.Errorf("parse results table: %w", err)
	}

	rows := []ResultRow{}
	for _, tr := range table.Rows {
		if len(tr.Cells) < resultsCellCount {
			continue
		}
		rows = append(rows, parseResultRow(tr.Cells))
	}
	return rows, nil
}

func parseResultRow(cells []cellText) ResultRow {
	text := func(i int) string {
		return string(cells[i])
	}

	row := ResultRow{
		CpuName:    text(0),
		ResultType: text(2),
		Result:     text(5),
	}
	exponent, err := strconv.ParseInt(text(1), 10, 64)
	if err == nil {
		row.Exponent = exponent
	}
	row.Received = parseReceived(text(3))
	row.Age = parseAge(text(4))
	row.Credit = parseCredit(text(6))
	return row
}

func parseReceived(s string) time.Time {
	for _, layout := range receivedLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// parseAge reads an age given in (fractional) days, or as a Go duration.
func parseAge(s string) time.Duration {
	days, err := strconv.ParseFloat(s, 64)
	if err == nil {
		return time.Duration(days * float64(24*time.Hour))
	}
	d, err := time.ParseDuration(s)
	if err == nil {
		return d
	}
	return 0
}
