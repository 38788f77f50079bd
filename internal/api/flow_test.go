package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"jobverse/internal/database"
	"jobverse/internal/tasks"
)

type flowFixture struct {
	env       *testEnv
	recruiter string
	candidate string
	companyID uint
	jobID     uint
}

func newFlowFixture(t *testing.T) *flowFixture {
	t.Helper()
	env := newTestEnv(t)
	env.register(t, "Rita", "rita@example.com", database.RoleRecruiter)
	env.register(t, "Cody", "cody@example.com", database.RoleCandidate)

	f := &flowFixture{
		env:       env,
		recruiter: env.login(t, "rita@example.com", database.RoleRecruiter),
		candidate: env.login(t, "cody@example.com", database.RoleCandidate),
	}

	w := env.do(t, http.MethodPost, "/api/v1/company/register", map[string]any{"companyName": "Acme"}, f.recruiter)
	f.companyID = idOf(t, expectStatus(t, w, http.StatusCreated), "company")
	f.jobID = f.postJob(t, "Backend Engineer", f.companyID)
	return f
}

func (f *flowFixture) postJob(t *testing.T, title string, companyID uint) uint {
	t.Helper()
	w := f.env.do(t, http.MethodPost, "/api/v1/job/post", map[string]any{
		"title":        title,
		"description":  "Build APIs in Go",
		"requirements": "React, Node, SQL",
		"salary":       "12",
		"location":     "Remote",
		"jobType":      "Full-time",
		"experience":   2,
		"position":     3,
		"companyId":    companyID,
	}, f.recruiter)
	return idOf(t, expectStatus(t, w, http.StatusCreated), "job")
}

func TestApplicationFlow(t *testing.T) {
	f := newFlowFixture(t)
	env := f.env

	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/job/get/%d", f.jobID), nil, "")
	job := expectStatus(t, w, http.StatusOK)["job"].(map[string]any)
	reqs := job["requirements"].([]any)
	if len(reqs) != 3 || reqs[0] != "React" || reqs[1] != "Node" || reqs[2] != "SQL" {
		t.Fatalf("unexpected requirements %v", reqs)
	}
	if job["company"].(map[string]any)["name"] != "Acme" || job["salary"] != float64(12) {
		t.Fatalf("unexpected job %v", job)
	}

	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/application/apply/%d", f.jobID), nil, f.candidate)
	body := expectStatus(t, w, http.StatusCreated)
	appID := idOf(t, body, "application")
	if body["application"].(map[string]any)["status"] != "pending" {
		t.Fatalf("new application must be pending: %v", body)
	}

	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/application/apply/%d", f.jobID), nil, f.candidate)
	body = expectStatus(t, w, http.StatusConflict)
	if body["message"] != "You have already applied for this job." {
		t.Fatalf("unexpected body %v", body)
	}
	var count int64
	env.db.Model(&database.Application{}).Where("job_id = ?", f.jobID).Count(&count)
	if count != 1 {
		t.Fatalf("expected one application, got %d", count)
	}

	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/application/status/%d/update", appID), map[string]any{"status": "ACCEPTED"}, f.recruiter)
	body = expectStatus(t, w, http.StatusOK)
	if body["application"].(map[string]any)["status"] != "accepted" {
		t.Fatalf("status must be stored lower-case: %v", body)
	}

	if len(env.enqueuer.tasks) != 1 || env.enqueuer.tasks[0].Type() != tasks.TypeApplicationStatusChanged {
		t.Fatalf("expected one status task, got %v", env.enqueuer.tasks)
	}
	var payload tasks.ApplicationStatusChangedPayload
	if err := json.Unmarshal(env.enqueuer.tasks[0].Payload(), &payload); err != nil {
		t.Fatalf("decode task payload: %v", err)
	}
	if payload.ApplicationID != appID || payload.Status != "accepted" || payload.CorrelationID == "" {
		t.Fatalf("unexpected payload %+v", payload)
	}

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/application/%d/applicants", f.jobID), nil, f.recruiter)
	applicants := expectStatus(t, w, http.StatusOK)["applicants"].([]any)
	if len(applicants) != 1 {
		t.Fatalf("expected one applicant, got %v", applicants)
	}
	first := applicants[0].(map[string]any)
	if first["status"] != "accepted" || first["applicant"].(map[string]any)["fullname"] != "Cody" {
		t.Fatalf("unexpected applicant %v", first)
	}
	if strings.Contains(w.Body.String(), "$2a$") {
		t.Fatal("applicants listing leaks password hashes")
	}

	w = env.do(t, http.MethodGet, "/api/v1/application/get", nil, f.candidate)
	mine := expectStatus(t, w, http.StatusOK)["applications"].([]any)
	if len(mine) != 1 {
		t.Fatalf("expected one application, got %v", mine)
	}
	appliedJob := mine[0].(map[string]any)["job"].(map[string]any)
	if appliedJob["company"].(map[string]any)["name"] != "Acme" {
		t.Fatalf("expected populated company, got %v", appliedJob)
	}
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	f := newFlowFixture(t)
	env := f.env

	w := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/application/apply/%d", f.jobID), nil, f.candidate)
	appID := idOf(t, expectStatus(t, w, http.StatusCreated), "application")

	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/application/status/%d/update", appID), map[string]any{"status": "hired"}, f.recruiter)
	body := expectStatus(t, w, http.StatusBadRequest)
	if body["message"] != "Invalid or missing status. Must be one of: pending, accepted, rejected." {
		t.Fatalf("unexpected body %v", body)
	}
	if len(env.enqueuer.tasks) != 0 {
		t.Fatal("rejected update must not enqueue a task")
	}
}

func TestUpdateStatusSucceedsWhenEnqueueFails(t *testing.T) {
	f := newFlowFixture(t)
	env := f.env
	env.enqueuer.err = errors.New("redis down")

	w := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/application/apply/%d", f.jobID), nil, f.candidate)
	appID := idOf(t, expectStatus(t, w, http.StatusCreated), "application")

	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/application/status/%d/update", appID), map[string]any{"status": "rejected"}, f.recruiter)
	expectStatus(t, w, http.StatusOK)
}

func TestRoleGates(t *testing.T) {
	f := newFlowFixture(t)
	env := f.env

	w := env.do(t, http.MethodPost, "/api/v1/company/register", map[string]any{"companyName": "Cody Inc"}, f.candidate)
	expectStatus(t, w, http.StatusForbidden)

	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/application/apply/%d", f.jobID), nil, f.recruiter)
	expectStatus(t, w, http.StatusForbidden)

	w = env.do(t, http.MethodPost, "/api/v1/application/apply/abc", nil, f.candidate)
	body := expectStatus(t, w, http.StatusBadRequest)
	if body["message"] != "Job ID is required." {
		t.Fatalf("unexpected body %v", body)
	}

	w = env.do(t, http.MethodPost, "/api/v1/application/apply/9999", nil, f.candidate)
	expectStatus(t, w, http.StatusNotFound)
}

func TestJobMutationsRequireCreator(t *testing.T) {
	f := newFlowFixture(t)
	env := f.env
	env.register(t, "Other", "other@example.com", database.RoleRecruiter)
	other := env.login(t, "other@example.com", database.RoleRecruiter)

	w := env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/job/delete/%d", f.jobID), nil, other)
	expectStatus(t, w, http.StatusForbidden)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/job/get/%d", f.jobID), nil, "")
	expectStatus(t, w, http.StatusOK)

	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/job/update/%d", f.jobID), map[string]any{"salary": "abc"}, f.recruiter)
	body := expectStatus(t, w, http.StatusBadRequest)
	if body["message"] != "Salary must be a valid number." {
		t.Fatalf("unexpected body %v", body)
	}

	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/job/update/%d", f.jobID), map[string]any{"title": "Staff Engineer"}, f.recruiter)
	job := expectStatus(t, w, http.StatusOK)["job"].(map[string]any)
	if job["title"] != "Staff Engineer" || job["location"] != "Remote" {
		t.Fatalf("partial update lost fields: %v", job)
	}

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/application/%d/applicants", f.jobID), nil, other)
	expectStatus(t, w, http.StatusForbidden)

	w = env.do(t, http.MethodGet, "/api/v1/job/getadminjobs", nil, other)
	if jobs := expectStatus(t, w, http.StatusOK)["jobs"].([]any); len(jobs) != 0 {
		t.Fatalf("expected no jobs for other recruiter, got %v", jobs)
	}
}

func TestJobSearch(t *testing.T) {
	f := newFlowFixture(t)
	env := f.env
	f.postJob(t, "Data Analyst", f.companyID)

	w := env.do(t, http.MethodGet, "/api/v1/job/all-jobs", nil, "")
	if jobs := expectStatus(t, w, http.StatusOK)["jobs"].([]any); len(jobs) != 2 {
		t.Fatalf("expected all jobs, got %d", len(jobs))
	}

	w = env.do(t, http.MethodGet, "/api/v1/job/all-jobs?keyword=ENGINEER", nil, "")
	jobs := expectStatus(t, w, http.StatusOK)["jobs"].([]any)
	if len(jobs) != 1 || jobs[0].(map[string]any)["title"] != "Backend Engineer" {
		t.Fatalf("unexpected keyword result %v", jobs)
	}

	w = env.do(t, http.MethodGet, "/api/v1/job/all-jobs?role=analyst&salaryMin=10&salaryMax=infinity", nil, "")
	jobs = expectStatus(t, w, http.StatusOK)["jobs"].([]any)
	if len(jobs) != 1 || jobs[0].(map[string]any)["title"] != "Data Analyst" {
		t.Fatalf("unexpected filter result %v", jobs)
	}

	w = env.do(t, http.MethodGet, "/api/v1/job/all-jobs?salaryMin=abc", nil, "")
	expectStatus(t, w, http.StatusBadRequest)
}

func TestCompanyLifecycle(t *testing.T) {
	f := newFlowFixture(t)
	env := f.env

	w := env.do(t, http.MethodPost, "/api/v1/company/register", map[string]any{"companyName": "Acme"}, f.recruiter)
	body := expectStatus(t, w, http.StatusConflict)
	if body["message"] != "Company already exists." {
		t.Fatalf("unexpected body %v", body)
	}

	w = env.do(t, http.MethodPost, "/api/v1/company/register", map[string]any{"companyName": "Globex"}, f.recruiter)
	otherCompany := idOf(t, expectStatus(t, w, http.StatusCreated), "company")
	otherJob := f.postJob(t, "Support Engineer", otherCompany)

	w = env.do(t, http.MethodGet, "/api/v1/company/get", nil, f.recruiter)
	companies := expectStatus(t, w, http.StatusOK)["companies"].([]any)
	if len(companies) != 2 || companies[0].(map[string]any)["name"] != "Globex" {
		t.Fatalf("expected newest first, got %v", companies)
	}

	w = env.doMultipart(t, http.MethodPut, fmt.Sprintf("/api/v1/company/update/%d", f.companyID), map[string]string{
		"description": "Widgets",
		"website":     "https://acme.example",
	}, map[string]string{"file": "logo.png"}, f.recruiter)
	company := expectStatus(t, w, http.StatusOK)["company"].(map[string]any)
	if company["name"] != "Acme" || company["description"] != "Widgets" {
		t.Fatalf("unexpected company %v", company)
	}
	if !strings.Contains(company["logo"].(string), fmt.Sprintf("logos/%d/", f.companyID)) {
		t.Fatalf("expected logo under company prefix, got %v", company["logo"])
	}

	env.register(t, "Mallory", "mallory@example.com", database.RoleRecruiter)
	mallory := env.login(t, "mallory@example.com", database.RoleRecruiter)
	w = env.doMultipart(t, http.MethodPut, fmt.Sprintf("/api/v1/company/update/%d", f.companyID), map[string]string{"name": "Stolen"}, nil, mallory)
	expectStatus(t, w, http.StatusForbidden)
	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/company/delete/%d", f.companyID), nil, mallory)
	expectStatus(t, w, http.StatusForbidden)

	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/application/apply/%d", f.jobID), nil, f.candidate)
	expectStatus(t, w, http.StatusCreated)

	w = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/company/delete/%d", f.companyID), nil, f.recruiter)
	expectStatus(t, w, http.StatusOK)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/job/get/%d", f.jobID), nil, "")
	expectStatus(t, w, http.StatusNotFound)
	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/job/get/%d", otherJob), nil, "")
	expectStatus(t, w, http.StatusOK)
	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/company/get/%d", f.companyID), nil, f.recruiter)
	expectStatus(t, w, http.StatusNotFound)

	var apps int64
	env.db.Unscoped().Model(&database.Application{}).Where("job_id = ?", f.jobID).Count(&apps)
	if apps != 0 {
		t.Fatalf("expected cascaded applications, got %d", apps)
	}
	if len(env.storage.prefixes) != 1 || env.storage.prefixes[0] != fmt.Sprintf("logos/%d/", f.companyID) {
		t.Fatalf("expected logo prefix cleanup, got %v", env.storage.prefixes)
	}
}

func TestCompanyUpdateAcceptsJSON(t *testing.T) {
	f := newFlowFixture(t)
	env := f.env

	w := env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/company/update/%d", f.companyID), map[string]any{
		"name":    "Acme2",
		"website": "https://a.example",
	}, f.recruiter)
	company := expectStatus(t, w, http.StatusOK)["company"].(map[string]any)
	if company["name"] != "Acme2" || company["website"] != "https://a.example" || company["logo"] != "" {
		t.Fatalf("unexpected company %v", company)
	}

	var stored database.Company
	if err := env.db.First(&stored, f.companyID).Error; err != nil {
		t.Fatalf("load company: %v", err)
	}
	if stored.Name != "Acme2" || stored.Website != "https://a.example" {
		t.Fatalf("update not persisted: %+v", stored)
	}
	if len(env.storage.uploaded) != 0 {
		t.Fatalf("JSON update must not upload, got %v", env.storage.uploaded)
	}

	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/company/update/%d", f.companyID), map[string]any{"name": 7}, f.recruiter)
	expectStatus(t, w, http.StatusBadRequest)
}

func TestHealthAndUnknownRoute(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/health", nil, "")
	expectStatus(t, w, http.StatusOK)

	w = env.do(t, http.MethodGet, "/api/v1/nope", nil, "")
	expectStatus(t, w, http.StatusNotFound)
}
