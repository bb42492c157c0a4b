package primenet

import (
	"strconv"
	"strings"
)

const (
	assignmentsBegin       = "<!--BEGIN_ASSIGNMENTS_BLOCK-->"
	assignmentsEnd         = "<!--END_ASSIGNMENTS_BLOCK-->"
	assignmentsValidation  = "PROCESSING_VALIDATION:ASSIGNED TO "
	userIdMarker           = `name="was_logged_in_as" value="`
	creditPrefix           = "CPU credit is "
	creditSuffix           = " GHz-days."
	loginConfirmation      = "<br>logged in"
	uploadCompletionPhrase = "Done processing:"
)

// ExtractAssignments returns the assignment lines between the assignment block
// markers. It returns false when any of the block markers or the validation phrase
// is missing, which means the request was not authenticated or the page changed.
func ExtractAssignments(response string) ([]string, bool) {
	if !strings.Contains(response, assignmentsBegin) ||
		!strings.Contains(response, assignmentsEnd) ||
		!strings.Contains(response, assignmentsValidation) {
		return nil, false
	}

	beg := strings.Index(response, assignmentsBegin) + len(assignmentsBegin)
	end := strings.Index(response[beg:], assignmentsEnd)
	if end < 0 {
		// the only end marker precedes the begin marker
		return nil, false
	}

	block := strings.TrimSpace(response[beg : beg+end])
	lines := []string{}
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, true
}

// ExtractCreditTotal sums every "CPU credit is <n> GHz-days." figure in the
// response. Figures that fail to parse count as zero.
func ExtractCreditTotal(response string) float64 {
	total := 0.0
	pos := 0

	for {
		idx := strings.Index(response[pos:], creditPrefix)
		if idx < 0 {
			break
		}
		beg := pos + idx + len(creditPrefix)

		end := strings.Index(response[beg:], creditSuffix)
		if end < 0 {
			break
		}

		credit, err := strconv.ParseFloat(strings.TrimSpace(response[beg:beg+end]), 64)
		if err == nil {
			total += credit
		}

		pos = beg + end + len(creditSuffix)
	}

	return total
}

// extractUserId returns the session scoped user id from the manual results page.
func extractUserId(response string) (string, bool) {
	beg := strings.Index(response, userIdMarker)
	if beg < 0 {
		return "", false
	}
	beg += len(userIdMarker)

	end := strings.IndexByte(response[beg:], '"')
	if end < 0 {
		return "", false
	}
	return response[beg : beg+end], true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToUpper(s), strings.ToUpper(substr))
}

// loginSucceeded checks for the account name immediately followed by the login
// confirmation, case insensitively.
func loginSucceeded(response, username string) bool {
	return containsFold(response, username+loginConfirmation)
}

func uploadCompleted(response string) bool {
	return containsFold(response, uploadCompletionPhrase)
}
