package primenet

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	reportTableStart   = `<pre id="report">`
	reportTableEnd     = "</pre>"
	reportLineBreak    = "<br>"
	reportCountsHeader = "Successes"
	// everything past it on a row is a rule or padding column
	reportRowSeparator = "|"
)

// anchor forms a member name may be wrapped in, opener and closer pairs
var reportAnchors = [][2]string{
	{"<a ", "</a>"},
	{"<A ", "</A>"},
}

// ExtractReportRows parses the leaderboard table of a report page. It returns
// false when the page has no report table at all.
//
// Rows are laid out as `rank member credit [attempts successes]`, the two count
// columns are present on every row when the page header mentions them. Fields are
// read from the right so member names may contain whitespace.
func ExtractReportRows(response string) ([]ReportRow, bool) {
	start := strings.Index(response, reportTableStart)
	if start < 0 {
		return nil, false
	}
	counted := strings.Contains(response, reportCountsHeader)

	body := response[start+len(reportTableStart):]
	end := strings.Index(body, reportTableEnd)
	if end >= 0 {
		body = body[:end]
	}

	rows := []ReportRow{}
	for _, line := range strings.Split(body, reportLineBreak) {
		row, ok := parseReportRow(line, counted)
		if !ok {
			continue
		}
		rows = append(rows, row)
	}
	return rows, true
}

func parseReportRow(line string, counted bool) (ReportRow, bool) {
	line, _, _ = strings.Cut(line, reportRowSeparator)
	line = strings.TrimSpace(line)

	minFields := 3
	if counted {
		minFields = 5
	}
	if len(strings.Fields(line)) < minFields {
		return ReportRow{}, false
	}

	row := ReportRow{Counted: counted}
	rest := line
	var tok string

	if counted {
		rest, tok = popLastField(rest)
		row.Successes = atoiOrZero(tok)
		rest, tok = popLastField(rest)
		row.Attempts = atoiOrZero(tok)
	}
	rest, tok = popLastField(rest)
	row.Credit = parseCredit(tok)

	tok, rest = popFirstField(rest)
	row.Rank = atoiOrZero(tok)
	row.Member = memberName(strings.TrimSpace(rest))

	return row, true
}

// popLastField splits off the last whitespace delimited token of s.
func popLastField(s string) (rest, field string) {
	s = strings.TrimRightFunc(s, unicode.IsSpace)
	i := strings.LastIndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return "", s
	}
	_, size := utf8.DecodeRuneInString(s[i:])
	return s[:i], s[i+size:]
}

// popFirstField splits off the first whitespace delimited token of s.
func popFirstField(s string) (field, rest string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}

func memberName(s string) string {
	for _, anchor := range reportAnchors {
		if !strings.HasPrefix(s, anchor[0]) {
			continue
		}
		gt := strings.IndexByte(s, '>')
		if gt < 0 {
			return s
		}
		inner := s[gt+1:]
		end := strings.Index(inner, anchor[1])
		if end < 0 {
			return s
		}
		return strings.TrimSpace(inner[:end])
	}
	return s
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return 0
	}
	return n
}

func parseCredit(s string) float64 {
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return f
}
