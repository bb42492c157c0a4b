package primenet

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestExtractReportRowsThreeFields(t *testing.T) {
	page := `<html><h2>Top producers</h2>
<pre id="report">  42  <a href=/account/?id=42>Alice</a>  17.250<br>----</pre></html>`

	rows, ok := ExtractReportRows(page)
	require.True(t, ok)
	if diff := cmp.Diff([]ReportRow{
		{Rank: 42, Member: "Alice", Credit: 17.25},
	}, rows); diff != "" {
		t.Fatal(diff)
	}
}

func TestExtractReportRowsTrailingRule(t *testing.T) {
	rows, ok := ExtractReportRows(`<pre id="report">  42  <a href=x>Alice</a>  17.250|----</pre>`)
	require.True(t, ok)
	if diff := cmp.Diff([]ReportRow{
		{Rank: 42, Member: "Alice", Credit: 17.25},
	}, rows); diff != "" {
		t.Fatal(diff)
	}

	rows, ok = ExtractReportRows(`<p>Attempts Successes</p><pre id="report">
    7  dave  3.5  4  2 | ------<br>
  ---------|---------<br></pre>`)
	require.True(t, ok)
	if diff := cmp.Diff([]ReportRow{
		{Rank: 7, Member: "dave", Credit: 3.5, Counted: true, Attempts: 4, Successes: 2},
	}, rows); diff != "" {
		t.Fatal(diff)
	}
}

func TestExtractReportRowsFiveFields(t *testing.T) {
	page := `<table><tr><th>Rank</th><th>Member</th><th>GHz-days</th><th>Attempts</th><th>Successes</th></tr></table>
<pre id="report">
    1  <a href="/account/?id=1" title="top">Curtis Cooper</a>  1,234.5  120  7<br>
    2  <A HREF="/account/?id=2">Bob</A>  99.000  12  0<br>
    3  carol smith  5.5  x  1<br>
</pre>`

	rows, ok := ExtractReportRows(page)
	require.True(t, ok)
	if diff := cmp.Diff([]ReportRow{
		{Rank: 1, Member: "Curtis Cooper", Credit: 1234.5, Counted: true, Attempts: 120, Successes: 7},
		{Rank: 2, Member: "Bob", Credit: 99, Counted: true, Attempts: 12, Successes: 0},
		{Rank: 3, Member: "carol smith", Credit: 5.5, Counted: true, Attempts: 0, Successes: 1},
	}, rows); diff != "" {
		t.Fatal(diff)
	}
}

func TestExtractReportRowsDefaults(t *testing.T) {
	page := `<pre id="report">
#7  <a href="x">Dave</a>  n/a<br>
   8  Erin<br>
   9  <a href="y">Frank  2.5
</pre>`

	rows, ok := ExtractReportRows(page)
	require.True(t, ok)
	if diff := cmp.Diff([]ReportRow{
		// unparsable rank and credit default to zero
		{Rank: 0, Member: "Dave", Credit: 0},
		// an anchor without its closing tag is kept verbatim
		{Rank: 9, Member: `<a href="y">Frank`, Credit: 2.5},
	}, rows); diff != "" {
		t.Fatal(diff)
	}
}

func TestExtractReportRowsWithoutTable(t *testing.T) {
	rows, ok := ExtractReportRows("<html>Please login</html>")
	require.False(t, ok)
	require.Nil(t, rows)

	rows, ok = ExtractReportRows(`<pre id="report"></pre>`)
	require.True(t, ok)
	require.Empty(t, rows)
}

func TestPopFields(t *testing.T) {
	rest, field := popLastField("  1  Alice Smith   2.5  ")
	require.Equal(t, "  1  Alice Smith  ", rest)
	require.Equal(t, "2.5", field)

	field, rest = popFirstField(rest)
	require.Equal(t, "1", field)
	require.Equal(t, "  Alice Smith  ", rest)

	rest, field = popLastField("single")
	require.Equal(t, "", rest)
	require.Equal(t, "single", field)
}
