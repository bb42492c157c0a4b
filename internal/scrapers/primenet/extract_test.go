package primenet

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func assignmentPage(lines ...string) string {
	return "<html><body>\r\n" +
		"PROCESSING_VALIDATION:ASSIGNED TO alice\r\n" +
		"<!--BEGIN_ASSIGNMENTS_BLOCK-->\r\n" +
		strings.Join(lines, "\r\n") +
		"\r\n<!--END_ASSIGNMENTS_BLOCK-->\r\n</body></html>"
}

func TestExtractAssignments(t *testing.T) {
	lines, ok := ExtractAssignments(assignmentPage(
		"Test=A1B2C3,77936867,75,1",
		"",
		"  DoubleCheck=D4E5F6,48611933,72,1  ",
	))
	require.True(t, ok)
	require.Equal(t, []string{
		"Test=A1B2C3,77936867,75,1",
		"DoubleCheck=D4E5F6,48611933,72,1",
	}, lines)

	lines, ok = ExtractAssignments(assignmentPage())
	require.True(t, ok)
	require.Empty(t, lines)
}

func TestExtractAssignmentsMissingMarker(t *testing.T) {
	page := assignmentPage("Test=A1B2C3,77936867,75,1")
	markers := []string{assignmentsBegin, assignmentsEnd, assignmentsValidation}

	for _, marker := range markers {
		lines, ok := ExtractAssignments(strings.Replace(page, marker, "", 1))
		require.False(t, ok, "marker %q removed", marker)
		require.Nil(t, lines)
	}

	// an end marker that only appears before the block start is no block
	swapped := "PROCESSING_VALIDATION:ASSIGNED TO alice" + assignmentsEnd + "Test=x" + assignmentsBegin
	_, ok := ExtractAssignments(swapped)
	require.False(t, ok)
}

func TestExtractAssignmentsProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	lineGen := gen.RegexMatch(`(Test|DoubleCheck|Factor)=[A-F0-9]{8},[0-9]{8},7[0-9],1`)

	properties.Property("a missing marker never yields lines", prop.ForAll(
		func(lines []string, drop int) bool {
			markers := []string{assignmentsBegin, assignmentsEnd, assignmentsValidation}
			page := strings.ReplaceAll(assignmentPage(lines...), markers[drop], "")
			out, ok := ExtractAssignments(page)
			return !ok && out == nil
		},
		gen.SliceOf(lineGen),
		gen.IntRange(0, 2),
	))

	properties.Property("extraction recovers the block and is stable", prop.ForAll(
		func(lines []string) bool {
			page := assignmentPage(lines...)
			first, ok := ExtractAssignments(page)
			if !ok || len(first) != len(lines) {
				return false
			}
			for i := range lines {
				if first[i] != lines[i] {
					return false
				}
			}
			second, ok := ExtractAssignments(page)
			return ok && fmt.Sprint(first) == fmt.Sprint(second)
		},
		gen.SliceOf(lineGen),
	))

	properties.TestingRun(t)
}

func TestExtractCreditTotal(t *testing.T) {
	table := []struct {
		name     string
		input    string
		expected float64
	}{
		{
			name:     "two occurrences",
			input:    "M1 CPU credit is 12.5 GHz-days.<br>M2 CPU credit is 12.5 GHz-days.",
			expected: 25,
		},
		{
			name:     "none",
			input:    "<html>Done processing: nothing</html>",
			expected: 0,
		},
		{
			name:     "malformed figure is skipped",
			input:    "CPU credit is abc GHz-days. CPU credit is 3.25 GHz-days.",
			expected: 3.25,
		},
		{
			name:     "missing suffix stops the scan",
			input:    "CPU credit is 1 GHz-days. CPU credit is 7",
			expected: 1,
		},
		{
			name:     "whitespace around the figure",
			input:    "CPU credit is  0.75  GHz-days.",
			expected: 0.75,
		},
	}

	for _, row := range table {
		require.InDelta(t, row.expected, ExtractCreditTotal(row.input), 1e-9, row.name)
	}
}

func TestExtractCreditTotalProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("sums every well formed figure", prop.ForAll(
		func(credits []float64) bool {
			var b strings.Builder
			expected := 0.0
			for i, c := range credits {
				figure := fmt.Sprintf("%.4f", c)
				fmt.Fprintf(&b, "result %d: CPU credit is %s GHz-days.\n", i, figure)
				parsed, _ := strconv.ParseFloat(figure, 64)
				expected += parsed
			}
			b.WriteString("CPU credit is ??? GHz-days.")
			got := ExtractCreditTotal(b.String())
			diff := got - expected
			return diff < 1e-6 && diff > -1e-6
		},
		gen.SliceOf(gen.Float64Range(0, 500)),
	))

	properties.TestingRun(t)
}

func TestExtractUserId(t *testing.T) {
	id, ok := extractUserId(`<form><input type="hidden" name="was_logged_in_as" value="ab12cd"></form>`)
	require.True(t, ok)
	require.Equal(t, "ab12cd", id)

	_, ok = extractUserId(`<form><input type="hidden" name="other" value="ab12cd"></form>`)
	require.False(t, ok)

	_, ok = extractUserId(`<input name="was_logged_in_as" value="unterminated`)
	require.False(t, ok)
}

func TestLoginAndUploadPhrases(t *testing.T) {
	require.True(t, loginSucceeded("Welcome ALICE<BR>Logged In!", "alice"))
	require.False(t, loginSucceeded("Welcome alice, <br>logged in", "alice"))
	require.False(t, loginSucceeded("bob<br>logged in", "alice"))

	require.True(t, uploadCompleted("<p>done processing: 2 results</p>"))
	require.False(t, uploadCompleted("<p>Error processing</p>"))
}
