// client.go contains the request sequencing against the portal, the parsing of
// the pages it returns lives in extract.go, report.go and results.go.

package primenet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"primenet-sync/internal/components/audit"
	"primenet-sync/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("primenet-sync/scrapers/primenet")

const DefaultBaseUrl = "https://www.mersenne.org"

const (
	assignmentPath   = "/manual_assignment/misfit.php"
	loginPath        = "/login.php"
	manualResultPath = "/manual_result/default.php"
	reportPath       = "/report_top_500_custom/"
	resultsPath      = "/results/"
)

const (
	report_client_request_assignments = "client.request-assignments"
	report_client_login               = "client.login"
	report_client_get_user_id         = "client.get-user-id"
	report_client_upload_results      = "client.upload-results"
	report_client_fetch_report        = "client.fetch-report"
	report_client_fetch_results       = "client.fetch-results"
)

var (
	// ErrFormatMismatch means a page no longer contains the markers it is parsed by.
	ErrFormatMismatch = errors.New("page does not match the expected format")
	ErrLoginFailed    = errors.New("failed to login to your account")
	ErrUserIdMissing  = errors.New("could not find the session user id")
	ErrUploadRejected = errors.New("results were not accepted")
)

type ClientOptions struct {
	// BaseUrl defaults to DefaultBaseUrl.
	BaseUrl  string
	Username string
	Password string
	// Audit receives every page fetched, it defaults to discarding them.
	Audit audit.Output
	// RequestsPerSecond bounds the request rate, defaults to 2.
	RequestsPerSecond float64
	Timeout           time.Duration
}

// Client talks to the portal on behalf of one account. It is not safe for
// concurrent use, each upload replaces the cookie jar with a fresh session.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	username string
	password string
	audit    audit.Output
	tel      telemetry.API
}

func NewClient(opts ClientOptions, tel telemetry.API) (*Client, error) {
	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.Audit == nil {
		opts.Audit = audit.Discard{}
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 2
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Second * 60
	}
	tel = telemetry.NewScopedAPI("primenet", tel)

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(opts.BaseUrl)
	jar, err := newJar()
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)

	httpClient.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	httpClient.SetHeader("accept", "text/html, application/xhtml+xml, */*")
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	httpClient.SetTimeout(opts.Timeout)

	limiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return limiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(httpClient, "primenet-sync/scrapers/primenet/http", tel)

	return &Client{
		BaseUrl:  baseUrl,
		Http:     httpClient,
		username: opts.Username,
		password: opts.Password,
		audit:    opts.Audit,
		tel:      tel,
	}, nil
}

func newJar() (*cookiejar.Jar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}

// send performs one request and stores the page under logId and tag. Statuses
// outside 2xx are treated like transport failures.
func (c *Client) send(ctx context.Context, logId, tag string, do func(req *resty.Request) (*resty.Response, error)) (string, error) {
	res, err := do(c.Http.R().SetContext(ctx))
	if err != nil {
		return "", err
	}
	body := res.String()
	c.audit.Write(logId, tag, body)
	if res.IsError() {
		return body, fmt.Errorf("%s: unexpected status %s", tag, res.Status())
	}
	return body, nil
}

func optionalInt(n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprint(n)
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// RequestAssignments asks the portal for req.Cores*req.PerCore new assignment lines.
func (c *Client) RequestAssignments(ctx context.Context, logId string, req AssignmentRequest) ([]string, error) {
	ctx, span := tracer.Start(ctx, "RequestAssignments")
	defer span.End()

	body, err := c.send(ctx, logId, "assign", func(r *resty.Request) (*resty.Response, error) {
		return r.SetQueryParams(map[string]string{
			"uid":           c.username,
			"user_password": c.password,
			"cores":         fmt.Sprint(req.Cores),
			"num_to_get":    fmt.Sprint(req.PerCore),
			"pref":          fmt.Sprint(int(req.WorkType)),
			"exp_lo":        optionalInt(req.ExponentLow),
			"exp_hi":        optionalInt(req.ExponentHigh),
			"B1":            "Get Assignments",
		}).Get(assignmentPath)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		c.tel.ReportBroken(report_client_request_assignments, fmt.Errorf("request: %w", err))
		return nil, err
	}

	lines, ok := ExtractAssignments(body)
	if !ok {
		span.SetStatus(codes.Error, ErrFormatMismatch.Error())
		c.tel.ReportWarning(report_client_request_assignments, ErrFormatMismatch, logId)
		return nil, ErrFormatMismatch
	}
	return lines, nil
}

// UploadResults logs in with a fresh session, looks up the session user id and
// submits the lines. Any failing step ends the sequence.
func (c *Client) UploadResults(ctx context.Context, logId string, lines []string) error {
	ctx, span := tracer.Start(ctx, "UploadResults")
	defer span.End()

	err := c.login(ctx, logId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		return err
	}

	userId, err := c.getUserId(ctx, logId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "user id lookup failed")
		return err
	}

	body, err := c.send(ctx, logId, "upload", func(r *resty.Request) (*resty.Response, error) {
		return r.
			SetMultipartField("data_file", "", "application/octet-stream", bytes.NewReader(nil)).
			SetMultipartFormData(map[string]string{
				"was_logged_in_as": userId,
				"data":             strings.Join(lines, "\n"),
			}).
			Post(manualResultPath)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		c.tel.ReportBroken(report_client_upload_results, fmt.Errorf("submit: %w", err))
		return err
	}
	if !uploadCompleted(body) {
		span.SetStatus(codes.Error, ErrUploadRejected.Error())
		c.tel.ReportWarning(report_client_upload_results, ErrUploadRejected, logId)
		return ErrUploadRejected
	}
	return nil
}

func (c *Client) login(ctx context.Context, logId string) error {
	jar, err := newJar()
	if err != nil {
		return err
	}
	c.Http.SetCookieJar(jar)

	body, err := c.send(ctx, logId, "login", func(r *resty.Request) (*resty.Response, error) {
		return r.
			SetHeader("referer", c.BaseUrl.JoinPath(loginPath).String()).
			SetFormData(map[string]string{
				"user_login":    c.username,
				"user_password": c.password,
			}).
			Post(loginPath)
	})
	if err != nil {
		c.tel.ReportBroken(report_client_login, fmt.Errorf("request: %w", err))
		return err
	}
	if !loginSucceeded(body, c.username) {
		c.tel.ReportWarning(report_client_login, ErrLoginFailed, c.username)
		return ErrLoginFailed
	}
	return nil
}

func (c *Client) getUserId(ctx context.Context, logId string) (string, error) {
	body, err := c.send(ctx, logId, "userid", func(r *resty.Request) (*resty.Response, error) {
		return r.Get(manualResultPath)
	})
	if err != nil {
		c.tel.ReportBroken(report_client_get_user_id, fmt.Errorf("request: %w", err))
		return "", err
	}
	userId, ok := extractUserId(body)
	if !ok {
		c.tel.ReportWarning(report_client_get_user_id, ErrUserIdMissing)
		return "", ErrUserIdMissing
	}
	return userId, nil
}

// FetchReport downloads one leaderboard, the page is stored under the tag
// `report-<type>`.
func (c *Client) FetchReport(ctx context.Context, logId string, q ReportQuery) ([]ReportRow, error) {
	ctx, span := tracer.Start(ctx, "FetchReport")
	defer span.End()

	endDate := ""
	if !q.End.IsZero() {
		endDate = q.End.Format(time.DateOnly)
	}

	body, err := c.send(ctx, logId, "report-"+q.Type.String(), func(r *resty.Request) (*resty.Response, error) {
		return r.SetQueryParams(map[string]string{
			"team_flag":  flag(q.Team),
			"type":       fmt.Sprint(q.Type.Code()),
			"rank_lo":    fmt.Sprint(q.RankLo),
			"rank_hi":    fmt.Sprint(q.RankHi),
			"start_date": q.Start.Format(time.DateOnly),
			"end_date":   endDate,
		}).Get(reportPath)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		c.tel.ReportBroken(report_client_fetch_report, fmt.Errorf("request: %w", err), q.Type.String())
		return nil, err
	}

	rows, ok := ExtractReportRows(body)
	if !ok {
		span.SetStatus(codes.Error, ErrFormatMismatch.Error())
		c.tel.ReportWarning(report_client_fetch_report, ErrFormatMismatch, q.Type.String())
		return nil, ErrFormatMismatch
	}
	return rows, nil
}

// FetchResults logs in and downloads the account's results listing. A listing
// that cannot be parsed is reported and yields no rows.
func (c *Client) FetchResults(ctx context.Context, logId string, q ResultsQuery) ([]ResultRow, error) {
	ctx, span := tracer.Start(ctx, "FetchResults")
	defer span.End()

	err := c.login(ctx, logId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		return nil, err
	}

	body, err := c.send(ctx, logId, "results", func(r *resty.Request) (*resty.Response, error) {
		return r.SetQueryParams(map[string]string{
			"extf":    flag(q.ExcludeFactoring),
			"exp1":    flag(q.ExcludeP1),
			"execm":   flag(q.ExcludeECM),
			"exdchk":  flag(q.ExcludeDoubleCheck),
			"exfirst": flag(q.ExcludeFirstTime),
			"exp_lo":  optionalInt(q.ExponentLow),
			"exp_hi":  optionalInt(q.ExponentHigh),
			"limit":   fmt.Sprint(q.Limit),
		}).Get(resultsPath)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		c.tel.ReportBroken(report_client_fetch_results, fmt.Errorf("request: %w", err))
		return nil, err
	}

	rows, err := ExtractResultRows(body)
	if err != nil {
		c.tel.ReportWarning(report_client_fetch_results, err, logId)
		return []ResultRow{}, nil
	}
	return rows, nil
}
