// Package primenettest provides an in-process portal for exercising the client
// and everything built on it.
package primenettest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

const sessionCookie = "primenet_session"

// Portal serves the pages the client scrapes. Zero values of the failure
// switches make every endpoint behave.
type Portal struct {
	Username string
	Password string
	UserId   string

	// CreditPerResult is the credit the upload page reports per submitted line.
	CreditPerResult float64
	ReportPage      string
	ResultsPage     string

	BreakAssignments bool
	RejectLogin      bool
	HideUserId       bool
	RejectUpload     bool

	mutex          sync.Mutex
	server         *httptest.Server
	hits           map[string]int
	uploads        [][]string
	reportTypes    []string
	nextAssignment int
}

// NewPortal starts a portal accepting username and password.
func NewPortal(username, password string) *Portal {
	p := &Portal{
		Username:        username,
		Password:        password,
		UserId:          "0f3c9a",
		CreditPerResult: 1.5,
		hits:            map[string]int{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/manual_assignment/misfit.php", p.assign)
	mux.HandleFunc("/login.php", p.login)
	mux.HandleFunc("/manual_result/default.php", p.manualResult)
	mux.HandleFunc("/report_top_500_custom/", p.report)
	mux.HandleFunc("/results/", p.results)
	p.server = httptest.NewServer(mux)
	return p
}

func (p *Portal) URL() string {
	return p.server.URL
}

func (p *Portal) Close() {
	p.server.Close()
}

// Hits returns how many requests reached path.
func (p *Portal) Hits(path string) int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.hits[path]
}

// Uploads returns the result lines of every accepted or rejected submission.
func (p *Portal) Uploads() [][]string {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return append([][]string(nil), p.uploads...)
}

// ReportTypes returns the `type` parameter of every report request.
func (p *Portal) ReportTypes() []string {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return append([]string(nil), p.reportTypes...)
}

func (p *Portal) hit(r *http.Request) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	key := r.URL.Path
	if r.Method == http.MethodPost {
		key = "POST " + key
	}
	p.hits[key]++
}

func (p *Portal) loggedIn(r *http.Request) bool {
	c, err := r.Cookie(sessionCookie)
	return err == nil && c.Value == p.UserId
}

func (p *Portal) assign(w http.ResponseWriter, r *http.Request) {
	p.hit(r)
	q := r.URL.Query()
	if p.BreakAssignments || q.Get("uid") != p.Username || q.Get("user_password") != p.Password {
		fmt.Fprint(w, "<html><body>Please login to get assignments.</body></html>")
		return
	}
	cores, _ := strconv.Atoi(q.Get("cores"))
	perCore, _ := strconv.Atoi(q.Get("num_to_get"))

	var b strings.Builder
	fmt.Fprintf(&b, "<html><body>\nPROCESSING_VALIDATION:ASSIGNED TO %s\n", p.Username)
	b.WriteString("<!--BEGIN_ASSIGNMENTS_BLOCK-->\n")
	p.mutex.Lock()
	for i := 0; i < cores*perCore; i++ {
		p.nextAssignment++
		fmt.Fprintf(&b, "Test=%032X,%d,76,1\n", p.nextAssignment, 332192831+p.nextAssignment*2)
	}
	p.mutex.Unlock()
	b.WriteString("<!--END_ASSIGNMENTS_BLOCK-->\n</body></html>")
	fmt.Fprint(w, b.String())
}

func (p *Portal) login(w http.ResponseWriter, r *http.Request) {
	p.hit(r)
	err := r.ParseForm()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if p.RejectLogin || r.PostForm.Get("user_login") != p.Username || r.PostForm.Get("user_password") != p.Password {
		fmt.Fprint(w, "<html><body>Incorrect login or password.</body></html>")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: p.UserId, Path: "/"})
	fmt.Fprintf(w, "<html><body>%s<br>logged in</body></html>", p.Username)
}

func (p *Portal) manualResult(w http.ResponseWriter, r *http.Request) {
	p.hit(r)
	if r.Method != http.MethodPost {
		if !p.loggedIn(r) || p.HideUserId {
			fmt.Fprint(w, "<html><body><form></form></body></html>")
			return
		}
		fmt.Fprintf(w, `<html><body><form><input type="hidden" name="was_logged_in_as" value="%s"></form></body></html>`, p.UserId)
		return
	}

	err := r.ParseMultipartForm(1 << 20)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !p.loggedIn(r) || r.FormValue("was_logged_in_as") != p.UserId {
		http.Error(w, "session mismatch", http.StatusForbidden)
		return
	}
	lines := strings.Split(r.FormValue("data"), "\n")

	p.mutex.Lock()
	p.uploads = append(p.uploads, lines)
	p.mutex.Unlock()

	if p.RejectUpload {
		fmt.Fprint(w, "<html><body>Error: results could not be parsed.</body></html>")
		return
	}
	var b strings.Builder
	b.WriteString("<html><body>Done processing:<br>\n")
	for _, line := range lines {
		fmt.Fprintf(&b, "%s<br>CPU credit is %.4f GHz-days.<br>\n", line, p.CreditPerResult)
	}
	b.WriteString("</body></html>")
	fmt.Fprint(w, b.String())
}

func (p *Portal) report(w http.ResponseWriter, r *http.Request) {
	p.hit(r)
	p.mutex.Lock()
	p.reportTypes = append(p.reportTypes, r.URL.Query().Get("type"))
	p.mutex.Unlock()
	fmt.Fprint(w, p.ReportPage)
}

func (p *Portal) results(w http.ResponseWriter, r *http.Request) {
	p.hit(r)
	if !p.loggedIn(r) {
		http.Redirect(w, r, "/login.php", http.StatusFound)
		return
	}
	fmt.Fprint(w, p.ResultsPage)
}
