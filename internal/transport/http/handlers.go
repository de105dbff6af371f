package transporthttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"example.com/actuaryjobs/internal/config"
	"example.com/actuaryjobs/internal/domain"
	apperrors "example.com/actuaryjobs/internal/errors"
)

// JobStore is the single-record side of storage used by the CRUD endpoints.
type JobStore interface {
	Ready(ctx context.Context) error
	CreateJob(ctx context.Context, j domain.Job) (domain.Job, error)
	GetJob(ctx context.Context, id int64) (domain.Job, error)
	UpdateJob(ctx context.Context, id int64, patch domain.JobPatch) (domain.Job, error)
	DeleteJob(ctx context.Context, id int64) error
	ListJobs(ctx context.Context, f domain.JobFilter) ([]domain.Job, error)
}

// BatchLoader ingests one scraped batch and reports how many jobs were stored.
type BatchLoader interface {
	Load(ctx context.Context, batch []domain.RawJob) (int64, error)
}

type ServerDeps struct {
	Cfg    config.Config
	Store  JobStore
	Loader BatchLoader
	Logger *zap.Logger
	Now    func() time.Time
}

// jobView is the external record shape.
type jobView struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Location    string   `json:"location"`
	Salary      *string  `json:"salary"`
	Description *string  `json:"description"`
	PostingDate string   `json:"postingDate"`
	JobType     *string  `json:"jobType"`
	Tags        []string `json:"tags"`
}

func toView(j domain.Job) jobView {
	return jobView{
		ID:          j.ID,
		Title:       j.Title,
		Company:     j.Company,
		Location:    j.Location,
		Salary:      optional(j.Salary),
		Description: optional(j.Description),
		PostingDate: j.PostingDate.UTC().Format(domain.PostingDateLayout),
		JobType:     optional(j.JobType),
		Tags:        domain.SplitTags(j.Tags),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type createJobReq struct {
	Title       string          `json:"title"`
	Company     string          `json:"company"`
	Location    string          `json:"location"`
	Salary      string          `json:"salary"`
	Description string          `json:"description"`
	JobType     string          `json:"job_type"`
	Tags        domain.TextList `json:"tags"`
}

type updateJobReq struct {
	Title       domain.Optional[string]          `json:"title"`
	Company     domain.Optional[string]          `json:"company"`
	Location    domain.Optional[string]          `json:"location"`
	Salary      domain.Optional[string]          `json:"salary"`
	Description domain.Optional[string]          `json:"description"`
	JobType     domain.Optional[string]          `json:"job_type"`
	Tags        domain.Optional[domain.TextList] `json:"tags"`
}

func (u updateJobReq) patch() domain.JobPatch {
	p := domain.JobPatch{
		Title:       u.Title,
		Company:     u.Company,
		Location:    u.Location,
		Salary:      u.Salary,
		Description: u.Description,
		JobType:     u.JobType,
	}
	if u.Tags.Set {
		p.Tags.Set = true
		if u.Tags.Value != nil {
			s := string(*u.Tags.Value)
			p.Tags.Value = &s
		}
	}
	return p
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("job id must be an integer: %q", r.PathValue("id"))
	}
	return id, nil
}

// --- Health ---

func (d *ServerDeps) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (d *ServerDeps) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := d.Store.Ready(r.Context()); err != nil {
		WriteProblem(w, http.StatusServiceUnavailable, "not ready", "database not reachable", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}

// --- Jobs (bulk) ---

func (d *ServerDeps) HandleBulkInsert(w http.ResponseWriter, r *http.Request) {
	defer DrainBody(r)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		WriteProblem(w, http.StatusBadRequest, "invalid body", err.Error(), nil)
		return
	}
	if trimmed := bytes.TrimSpace(body); len(trimmed) == 0 || trimmed[0] != '[' {
		WriteError(w, apperrors.MalformedBatch("Expected a list of job objects", nil))
		return
	}
	var batch []domain.RawJob
	if err := json.Unmarshal(body, &batch); err != nil {
		WriteError(w, apperrors.MalformedBatch("Expected a list of job objects", err))
		return
	}

	stored, err := d.Loader.Load(r.Context(), batch)
	if err != nil {
		d.Logger.Error("bulk insert failed", zap.Int("received", len(batch)), zap.Error(err))
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"jobsStored": stored,
		"message":    fmt.Sprintf("%d jobs stored successfully", stored),
	})
}

// --- Jobs (single) ---

func (d *ServerDeps) HandleCreateJob(w http.ResponseWriter, r *http.Request) {
	defer DrainBody(r)
	var req createJobReq
	if err := decodeJSON(r, &req); err != nil {
		WriteProblem(w, http.StatusBadRequest, "invalid json", "Request body must be JSON", nil)
		return
	}
	job := domain.Job{
		Title:       req.Title,
		Company:     req.Company,
		Location:    req.Location,
		Salary:      req.Salary,
		Description: req.Description,
		JobType:     req.JobType,
		Tags:        string(req.Tags),
		PostingDate: d.Now().UTC(),
	}
	if errs := domain.ValidateNewJob(&job); len(errs) > 0 {
		fields := map[string][]string{}
		for _, fe := range errs {
			fields[fe.Field] = append(fields[fe.Field], fe.Msg)
		}
		WriteError(w, apperrors.Validation(domain.MissingFieldsMessage(errs), fields))
		return
	}

	created, err := d.Store.CreateJob(r.Context(), job)
	if err != nil {
		d.Logger.Error("create job failed", zap.Error(err))
		WriteError(w, err)
		return
	}
	d.Logger.Info("job created", zap.Int64("id", created.ID))
	writeJSON(w, http.StatusCreated, toView(created))
}

func (d *ServerDeps) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		WriteProblem(w, http.StatusBadRequest, "invalid id", err.Error(), nil)
		return
	}
	job, err := d.Store.GetJob(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toView(job))
}

func (d *ServerDeps) HandleUpdateJob(w http.ResponseWriter, r *http.Request) {
	defer DrainBody(r)
	id, err := pathID(r)
	if err != nil {
		WriteProblem(w, http.StatusBadRequest, "invalid id", err.Error(), nil)
		return
	}
	var req updateJobReq
	if err := decodeJSON(r, &req); err != nil {
		WriteProblem(w, http.StatusBadRequest, "invalid json", "Request body must be JSON", nil)
		return
	}
	job, err := d.Store.UpdateJob(r.Context(), id, req.patch())
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrTypeNotFound) {
			d.Logger.Error("update job failed", zap.Int64("id", id), zap.Error(err))
		}
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toView(job))
}

func (d *ServerDeps) HandleDeleteJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		WriteProblem(w, http.StatusBadRequest, "invalid id", err.Error(), nil)
		return
	}
	if err := d.Store.DeleteJob(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Job deleted successfully"})
}

func (d *ServerDeps) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.JobFilter{
		JobType:  q.Get("job_type"),
		Location: q.Get("location"),
		Tag:      q.Get("tag"),
		Sort:     domain.ParseSortOrder(q.Get("sort")),
	}
	jobs, err := d.Store.ListJobs(r.Context(), filter)
	if err != nil {
		WriteError(w, err)
		return
	}
	out := make([]jobView, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toView(j))
	}
	writeJSON(w, http.StatusOK, out)
}

// --- Serve OpenAPI (convenience) ---

func (d *ServerDeps) HandleOpenAPI(w http.ResponseWriter, r *http.Request) {
	wd, _ := os.Getwd()
	p := filepath.Join(wd, "api", "openapi.yaml")
	http.ServeFile(w, r, p)
}

// --- Router ---

func (d *ServerDeps) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", d.HandleHealthz)
	mux.HandleFunc("GET /readyz", d.HandleReadyz)
	mux.HandleFunc("GET /openapi.yaml", d.HandleOpenAPI)

	withBody := func(h http.HandlerFunc) http.Handler {
		var out http.Handler = h
		out = BodyLimit(d.Cfg.MaxBodyBytes)(out)
		out = RequireJSON(out)
		return out
	}

	mux.Handle("POST /api/jobs/bulk", withBody(d.HandleBulkInsert))
	mux.Handle("POST /api/createJob", withBody(d.HandleCreateJob))
	mux.Handle("PUT /api/updateJob/{id}", withBody(d.HandleUpdateJob))
	mux.HandleFunc("GET /api/getJobById/{id}", d.HandleGetJob)
	mux.HandleFunc("DELETE /api/removeJob/{id}", d.HandleDeleteJob)
	mux.HandleFunc("GET /api/getAllJobs", d.HandleListJobs)

	var h http.Handler = mux
	h = CORS(d.Cfg.CORSAllowedOrigins)(h)
	h = RequestLogger(d.Logger)(h)
	return h
}
