package jobs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const usaJobsPayload = `{"SearchResult":{"SearchResultItems":[
 {"MatchedObjectDescriptor":{
  "PositionID":"DOI-123","PositionTitle":"IT Specialist","PositionURI":"https://www.usajobs.gov/job/123",
  "ApplyURI":["https://www.usajobs.gov/job/123/apply"],"OrganizationName":"Department of the Interior",
  "PositionLocation":[{"CityName":"Denver","StateCode":"CO"}],
  "PositionRemoteIndicator":"True","PositionSchedule":[{"Name":"Full-time"}],
  "PositionRemumerationMinimumAmount":"85000","PositionRemumerationMaximumAmount":"110000",
  "PublicationStartDate":"2025-01-15T00:00:00.0000",
  "UserArea":{"Details":{"JobSummary":"Manage cloud systems."}}}},
 {"MatchedObjectDescriptor":{
  "PositionID":456,"PositionTitle":"Analyst","PositionURI":"https://www.usajobs.gov/job/456",
  "PositionRemoteIndicator":false,"PositionRemumerationMinimumAmount":"50000",
  "PublicationStartDate":"not a date"}}
]}}`

func TestUSAJobsFetch(t *testing.T) {
	var gotKey, gotUA, gotPerPage, gotRemote string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Authorization-Key")
		gotUA = r.Header.Get("User-Agent")
		gotPerPage = r.URL.Query().Get("ResultsPerPage")
		gotRemote = r.URL.Query().Get("RemoteIndicator")
		w.Write([]byte(usaJobsPayload))
	}))
	defer srv.Close()

	a := &USAJobs{APIKey: "k", BaseURL: srv.URL}
	jobs, err := a.Fetch(context.Background(), Filters{Keyword: "it", Remote: true, Limit: 900})
	if err != nil {
		t.Fatal(err)
	}
	if gotKey != "k" || gotUA != usaJobsDefaultEmail {
		t.Errorf("headers: key=%q ua=%q", gotKey, gotUA)
	}
	if gotPerPage != "500" || gotRemote != "True" {
		t.Errorf("params: per_page=%q remote=%q", gotPerPage, gotRemote)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want 2", len(jobs))
	}

	j := jobs[0]
	if j.ApplyURL != "https://www.usajobs.gov/job/123/apply" {
		t.Errorf("apply_url = %q", j.ApplyURL)
	}
	if Deref(j.Location) != "Denver, CO" || Deref(j.SalaryText) != "$85000 - $110000" {
		t.Errorf("location=%q salary=%q", Deref(j.Location), Deref(j.SalaryText))
	}
	if j.Remote == nil || !*j.Remote {
		t.Error("expected remote=true from string indicator")
	}
	if j.PostedAt == nil || !j.PostedAt.Equal(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("posted_at = %v", j.PostedAt)
	}

	j = jobs[1]
	if j.ApplyURL != "https://www.usajobs.gov/job/456" {
		t.Errorf("apply_url should fall back to PositionURI, got %q", j.ApplyURL)
	}
	if j.PostedAt != nil {
		t.Errorf("malformed date must become nil, got %v", j.PostedAt)
	}
	if Deref(j.SalaryText) != "From $50000" || Deref(j.SourceJobID) != "456" {
		t.Errorf("salary=%q id=%q", Deref(j.SalaryText), Deref(j.SourceJobID))
	}
	if j.Location != nil || j.Company != nil {
		t.Error("empty strings must be nil")
	}
}

func TestUSAJobsPostingSalaryAndRemote(t *testing.T) {
	tests := []struct {
		name       string
		descriptor string
		salary     string
		remote     *bool
	}{
		{"range", `{"PositionRemumerationMinimumAmount":"50000","PositionRemumerationMaximumAmount":"70000"}`, "$50000 - $70000", nil},
		{"min only", `{"PositionRemumerationMinimumAmount":"50000"}`, "From $50000", nil},
		{"max only", `{"PositionRemumerationMaximumAmount":120000}`, "Up to $120000", nil},
		{"no bounds", `{}`, "", nil},
		{"indicator false", `{"PositionRemoteIndicator":false}`, "", Bool(false)},
		{"indicator string", `{"PositionRemoteIndicator":"Yes"}`, "", Bool(true)},
		{"remote in summary", `{"UserArea":{"Details":{"JobSummary":"Fully remote, telework eligible."}}}`, "", Bool(true)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d usaJobsDescriptor
			if err := json.Unmarshal([]byte(tt.descriptor), &d); err != nil {
				t.Fatal(err)
			}
			p := d.posting()
			if got := Deref(p.SalaryText); got != tt.salary {
				t.Errorf("salary = %q, want %q", got, tt.salary)
			}
			switch {
			case tt.remote == nil && p.Remote != nil:
				t.Errorf("remote = %v, want nil", *p.Remote)
			case tt.remote != nil && (p.Remote == nil || *p.Remote != *tt.remote):
				t.Errorf("remote = %v, want %v", p.Remote, *tt.remote)
			}
		})
	}
}

func TestUnconfiguredAdaptersSkip(t *testing.T) {
	for _, a := range []Adapter{&USAJobs{}, &Adzuna{AppID: "only-id"}} {
		if a.Configured() {
			t.Errorf("%s: expected unconfigured", a.Name())
		}
		jobs, err := a.Fetch(context.Background(), Filters{})
		if err != nil || len(jobs) != 0 {
			t.Errorf("%s: got %d jobs, err %v", a.Name(), len(jobs), err)
		}
	}
}

const adzunaPayload = `{"results":[
 {"id":"4012","title":"Go Developer","description":"Fully remote role building APIs",
  "company":{"display_name":"Acme"},"location":{"display_name":"Austin, Texas"},
  "contract_type":"permanent","salary_min":90000,"salary_max":120000.5,
  "created":"2025-02-01T10:00:00Z","redirect_url":"https://www.adzuna.com/land/ad/4012"},
 {"id":4013,"title":"Analyst","description":"On-site","salary_max":70000,
  "created":"","redirect_url":"https://www.adzuna.com/land/ad/4013"}
]}`

func TestAdzunaFetch(t *testing.T) {
	var path, perPage, appKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		perPage = r.URL.Query().Get("results_per_page")
		appKey = r.URL.Query().Get("app_key")
		w.Write([]byte(adzunaPayload))
	}))
	defer srv.Close()

	a := &Adzuna{AppID: "id", AppKey: "key", Country: "gb", BaseURL: srv.URL}
	jobs, err := a.Fetch(context.Background(), Filters{Keyword: "go", Limit: 80})
	if err != nil {
		t.Fatal(err)
	}
	if path != "/gb/search/1" || perPage != "50" || appKey != "key" {
		t.Errorf("path=%q per_page=%q app_key=%q", path, perPage, appKey)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs", len(jobs))
	}
	if Deref(jobs[0].SalaryText) != "$90,000 - $120,000" {
		t.Errorf("salary = %q", Deref(jobs[0].SalaryText))
	}
	if jobs[0].Remote == nil || !*jobs[0].Remote {
		t.Error("remote should be inferred from description")
	}
	if Deref(jobs[1].SalaryText) != "Up to $70,000" || *jobs[1].Remote {
		t.Errorf("second job: salary=%q remote=%v", Deref(jobs[1].SalaryText), *jobs[1].Remote)
	}
	if Deref(jobs[1].SourceJobID) != "4013" || jobs[1].PostedAt != nil {
		t.Errorf("second job: id=%q posted=%v", Deref(jobs[1].SourceJobID), jobs[1].PostedAt)
	}
}

func TestRemotiveFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("category") != "software-dev" {
			t.Errorf("category = %q", r.URL.Query().Get("category"))
		}
		if r.URL.Query().Get("search") != "golang" {
			t.Errorf("search = %q", r.URL.Query().Get("search"))
		}
		w.Write([]byte(`{"jobs":[
		 {"id":1,"url":"https://remotive.com/remote-jobs/1","title":"SRE","company_name":"Beta",
		  "category":"Software Development","job_type":"","candidate_required_location":"",
		  "salary":"","publication_date":"2025-03-01T08:30:00"},
		 {"id":2,"url":"https://remotive.com/remote-jobs/2","title":"Dev"},
		 {"id":3,"url":"https://remotive.com/remote-jobs/3","title":"PM"}]}`))
	}))
	defer srv.Close()

	a := &Remotive{BaseURL: srv.URL}
	jobs, err := a.Fetch(context.Background(), Filters{Keyword: "golang", Category: "software-dev", Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 2 {
		t.Fatalf("limit not applied: %d", len(jobs))
	}
	j := jobs[0]
	if Deref(j.Location) != "Remote" || Deref(j.EmploymentType) != "Full-time - Software Development" {
		t.Errorf("location=%q type=%q", Deref(j.Location), Deref(j.EmploymentType))
	}
	if j.SalaryText != nil || j.Remote == nil || !*j.Remote {
		t.Error("expected null salary and remote=true")
	}
	if j.PostedAt == nil || j.PostedAt.Hour() != 8 {
		t.Errorf("posted_at = %v", j.PostedAt)
	}
}

const wwrFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>WWR</title>
<item><title>Acme: Backend Dev</title><link>https://weworkremotely.com/remote-jobs/acme-backend-dev</link>
<description>&lt;p&gt;Location: Europe Only&lt;/p&gt; This is a contract role.</description>
<pubDate>Wed, 15 Jan 2025 12:00:00 +0000</pubDate></item>
<item><title>No Company Title</title><link>https://weworkremotely.com/remote-jobs/plain</link>
<description>Part-time gig</description><pubDate>garbage</pubDate></item>
<item><title></title><link>https://weworkremotely.com/remote-jobs/empty</link></item>
</channel></rss>`

func TestWeWorkRemotelyFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(wwrFeed))
	}))
	defer srv.Close()

	a := &WeWorkRemotely{FeedURL: srv.URL}
	jobs, err := a.Fetch(context.Background(), Filters{Category: "customer-support"})
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want 2 (untitled item skipped)", len(jobs))
	}
	j := jobs[0]
	if Deref(j.Company) != "Acme" || Deref(j.Title) != "Backend Dev" {
		t.Errorf("company=%q title=%q", Deref(j.Company), Deref(j.Title))
	}
	if Deref(j.Location) != "Europe Only" {
		t.Errorf("location = %q", Deref(j.Location))
	}
	if Deref(j.EmploymentType) != "Contract - Customer-Support" {
		t.Errorf("type = %q", Deref(j.EmploymentType))
	}
	if Deref(j.SourceJobID) != "acme-backend-dev" {
		t.Errorf("id = %q", Deref(j.SourceJobID))
	}
	if j.PostedAt == nil || j.PostedAt.Day() != 15 {
		t.Errorf("posted_at = %v", j.PostedAt)
	}

	j = jobs[1]
	if j.Company != nil || Deref(j.Title) != "No Company Title" {
		t.Errorf("company=%v title=%q", j.Company, Deref(j.Title))
	}
	if !strings.HasPrefix(Deref(j.EmploymentType), "Part-time") || j.PostedAt != nil {
		t.Errorf("type=%q posted=%v", Deref(j.EmploymentType), j.PostedAt)
	}
}

func TestSplitCompanyTitle(t *testing.T) {
	tests := []struct{ in, company, title string }{
		{"Acme: Backend Dev", "Acme", "Backend Dev"},
		{"Acme: Lead: Platform", "Acme", "Lead: Platform"},
		{"Just a title", "", "Just a title"},
		{"Ratio:NoSpace", "", "Ratio:NoSpace"},
	}
	for _, tt := range tests {
		c, ti := SplitCompanyTitle(tt.in)
		if c != tt.company || ti != tt.title {
			t.Errorf("SplitCompanyTitle(%q) = %q, %q", tt.in, c, ti)
		}
	}
}

func TestAdapterHTTPErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := (&Remotive{BaseURL: srv.URL}).Fetch(context.Background(), Filters{}); err == nil {
		t.Error("expected error on 404")
	}
}
