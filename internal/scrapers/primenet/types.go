package primenet

import (
	"fmt"
	"time"
)

// WorkType is the category of assignment requested from the portal, its value is
// the code the assignment endpoint expects.
type WorkType int

const (
	WorkTypeNone                WorkType = 0
	WorkTypeTrialFactoring      WorkType = 2
	WorkTypeP1Factoring         WorkType = 4
	WorkTypeECMFactoring        WorkType = 5
	WorkTypeSmallestFirstTime   WorkType = 100
	WorkTypeDoubleCheck         WorkType = 101
	WorkTypeWorldRecord         WorkType = 102
	WorkTypeHundredMillionDigit WorkType = 104
)

var workTypeNames = map[string]WorkType{
	"trial_factoring":       WorkTypeTrialFactoring,
	"p1_factoring":          WorkTypeP1Factoring,
	"ecm_factoring":         WorkTypeECMFactoring,
	"smallest_first_time":   WorkTypeSmallestFirstTime,
	"double_check":          WorkTypeDoubleCheck,
	"world_record":          WorkTypeWorldRecord,
	"hundred_million_digit": WorkTypeHundredMillionDigit,
}

// ParseWorkType maps a configuration name like "world_record" to its WorkType.
func ParseWorkType(name string) (WorkType, error) {
	wt, ok := workTypeNames[name]
	if !ok {
		return WorkTypeNone, fmt.Errorf("unknown work type %q", name)
	}
	return wt, nil
}

// ReportType selects which leaderboard the report endpoint renders.
type ReportType int

const (
	ReportAll ReportType = iota
	ReportTrialFactoring
	ReportP1Factoring
	ReportFirstLL
	ReportDoubleCheck
	ReportECMMersenne
	ReportECMFermat
)

var reportTypeNames = []string{
	"all",
	"trial_factoring",
	"p1_factoring",
	"first_ll",
	"double_check",
	"ecm_mersenne",
	"ecm_fermat",
}

// AllReportTypes lists every leaderboard in the order they are downloaded.
func AllReportTypes() []ReportType {
	out := make([]ReportType, len(reportTypeNames))
	for i := range reportTypeNames {
		out[i] = ReportType(i)
	}
	return out
}

func (r ReportType) String() string {
	if r < 0 || int(r) >= len(reportTypeNames) {
		return fmt.Sprintf("report_type(%d)", int(r))
	}
	return reportTypeNames[r]
}

// Code is the value of the report endpoint's `type` parameter.
func (r ReportType) Code() int {
	return 1000 + int(r)
}

// ParseReportType maps a configuration name like "double_check" to its ReportType.
func ParseReportType(name string) (ReportType, error) {
	for i, n := range reportTypeNames {
		if n == name {
			return ReportType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown report type %q", name)
}

// AssignmentRequest describes one request to the assignment endpoint.
type AssignmentRequest struct {
	Cores    int
	PerCore  int
	WorkType WorkType
	// ExponentLow and ExponentHigh are optional bounds, zero means unbounded.
	ExponentLow  int
	ExponentHigh int
}

// ReportRow is one leaderboard row. Attempts and Successes are only meaningful
// when Counted is set, which happens for pages using the five field layout.
type ReportRow struct {
	Rank      int
	Member    string
	Credit    float64
	Counted   bool
	Attempts  int
	Successes int
}

// ReportQuery parameterizes a leaderboard download.
type ReportQuery struct {
	Team   bool
	Type   ReportType
	RankLo int
	RankHi int
	Start  time.Time
	// End is optional, the zero time leaves the range open.
	End time.Time
}

// ResultRow is one row of the results listing.
type ResultRow struct {
	CpuName    string
	Exponent   int64
	ResultType string
	Received   time.Time
	Age        time.Duration
	Result     string
	Credit     float64
}

// ResultsQuery parameterizes a results listing download.
type ResultsQuery struct {
	ExcludeFactoring   bool
	ExcludeP1          bool
	ExcludeECM         bool
	ExcludeDoubleCheck bool
	ExcludeFirstTime   bool
	ExponentLow        int
	ExponentHigh       int
	Limit              int
}
