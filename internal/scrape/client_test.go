package scrape

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"example.com/actuaryjobs/internal/domain"
)

func TestFetchListings(t *testing.T) {
	page, err := os.ReadFile("testdata/listings.html")
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing User-Agent")
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write(page)
	}))
	defer srv.Close()

	jobs, err := NewClient("").FetchListings(context.Background(), srv.URL+"/")
	if err != nil {
		t.Fatalf("FetchListings: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs", len(jobs))
	}
	if !strings.HasPrefix(jobs[0].Description, srv.URL+"/actuarial-jobs/") {
		t.Errorf("link not resolved against page url: %q", jobs[0].Description)
	}
}

func TestFetchListingsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	if _, err := NewClient("").FetchListings(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 403")
	}
}

func TestPostBatch(t *testing.T) {
	var received []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/jobs/bulk" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"jobsStored":1,"message":"1 jobs stored successfully"}`))
	}))
	defer srv.Close()

	jt := "Full-time"
	batch := []domain.RawJob{{
		Title: "Actuary I", Company: "Acme", Location: "NY", Salary: "$100k",
		JobType: &jt, Tags: "Life, Pricing", PostingDate: "3d ago",
	}}
	resp, err := NewClient(srv.URL+"/").PostBatch(context.Background(), batch)
	if err != nil {
		t.Fatalf("PostBatch: %v", err)
	}
	if resp.JobsStored != 1 {
		t.Errorf("jobsStored = %d", resp.JobsStored)
	}
	if len(received) != 1 {
		t.Fatalf("server received %d records", len(received))
	}
	rec := received[0]
	if rec["posting_date"] != "3d ago" || rec["job_type"] != "Full-time" || rec["tags"] != "Life, Pricing" {
		t.Errorf("wire record = %v", rec)
	}
}

func TestPostBatchRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"title":"database error"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).PostBatch(context.Background(), nil)
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Fatalf("err = %v, want status 500 error", err)
	}
}
