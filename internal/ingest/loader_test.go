package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"example.com/actuaryjobs/internal/domain"
	apperrors "example.com/actuaryjobs/internal/errors"
)

// --- Fakes ---

// memStore is an in-memory BatchStore with all-or-nothing InsertBatch.
type memStore struct {
	jobs      []domain.Job
	nextID    int64
	insertErr error
	findErr   error
	lookups   int
}

func (s *memStore) FindByTitleAndCompany(_ context.Context, title, company string) (*domain.Job, error) {
	s.lookups++
	if s.findErr != nil {
		return nil, s.findErr
	}
	for i := range s.jobs {
		if s.jobs[i].Title == title && s.jobs[i].Company == company {
			j := s.jobs[i]
			return &j, nil
		}
	}
	return nil, nil
}

func (s *memStore) InsertBatch(_ context.Context, jobs []domain.Job) (int64, error) {
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	for _, j := range jobs {
		s.nextID++
		j.ID = s.nextID
		s.jobs = append(s.jobs, j)
	}
	return int64(len(jobs)), nil
}

// --- Helpers ---

var fixedNow = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

func newTestLoader(store BatchStore) *Loader {
	return NewLoader(store, time.Second, func() time.Time { return fixedNow }, zap.NewNop())
}

func loadFixture(t *testing.T, name string) []domain.RawJob {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	var batch []domain.RawJob
	if err := json.Unmarshal(b, &batch); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return batch
}

// --- Tests ---

func TestLoad_ScenarioTwice(t *testing.T) {
	var batch []domain.RawJob
	raw := `[{"title":"Actuary I","company":"Acme","location":"NY, N/A","salary":"$100k 😀","posting_date":"3d ago"}]`
	if err := json.Unmarshal([]byte(raw), &batch); err != nil {
		t.Fatal(err)
	}

	store := &memStore{}
	loader := newTestLoader(store)

	n, err := loader.Load(context.Background(), batch)
	if err != nil {
		t.Fatalf("first Load: %v", err)
	}
	if n != 1 || len(store.jobs) != 1 {
		t.Fatalf("first Load stored %d (store has %d), want 1", n, len(store.jobs))
	}
	got := store.jobs[0]
	if got.Location != "NY" {
		t.Errorf("Location = %q, want NY", got.Location)
	}
	if got.Salary != "$100k" {
		t.Errorf("Salary = %q, want $100k", got.Salary)
	}
	if want := fixedNow.Add(-3 * 24 * time.Hour); !got.PostingDate.Equal(want) {
		t.Errorf("PostingDate = %v, want %v", got.PostingDate, want)
	}
	if got.JobType != "Full-time" {
		t.Errorf("JobType = %q, want Full-time default", got.JobType)
	}

	n, err = loader.Load(context.Background(), batch)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if n != 0 || len(store.jobs) != 1 {
		t.Errorf("second Load stored %d (store has %d), want 0 and 1", n, len(store.jobs))
	}
}

func TestLoad_FixtureIsIdempotent(t *testing.T) {
	batch := loadFixture(t, "actuarylist_batch.json")
	store := &memStore{}
	loader := newTestLoader(store)

	first, err := loader.Load(context.Background(), batch)
	if err != nil {
		t.Fatalf("first Load: %v", err)
	}
	if first != int64(len(batch)) {
		t.Fatalf("first Load = %d, want %d", first, len(batch))
	}
	second, err := loader.Load(context.Background(), batch)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if second != 0 || len(store.jobs) != len(batch) {
		t.Errorf("second Load = %d, store size %d; want 0, %d", second, len(store.jobs), len(batch))
	}
}

func TestLoad_NormalizesFixtureFields(t *testing.T) {
	store := &memStore{}
	if _, err := newTestLoader(store).Load(context.Background(), loadFixture(t, "actuarylist_batch.json")); err != nil {
		t.Fatal(err)
	}
	byTitle := map[string]domain.Job{}
	for _, j := range store.jobs {
		byTitle[j.Title] = j
	}

	intern := byTitle["Actuarial Intern"]
	if intern.JobType != "Intern" || intern.Location != "Chicago, IL, Remote" || intern.Tags != "Intern, Reinsurance" {
		t.Errorf("intern = %+v", intern)
	}
	if !intern.PostingDate.Equal(fixedNow.Add(-10 * time.Hour)) {
		t.Errorf("intern PostingDate = %v", intern.PostingDate)
	}

	pricing := byTitle["Pricing Actuary"]
	if pricing.Location != "" || pricing.Salary != "N/A" || pricing.Tags != "" || pricing.JobType != "Full-time" {
		t.Errorf("pricing = %+v", pricing)
	}
	if !pricing.PostingDate.Equal(fixedNow) {
		t.Errorf("pricing PostingDate = %v, want now", pricing.PostingDate)
	}
	if pricing.Description != "https://www.actuarylist.com/actuarial-jobs/1003-pricing-actuary-northwind" {
		t.Errorf("description should carry the source URL, got %q", pricing.Description)
	}

	senior := byTitle["Senior Actuarial Analyst"]
	if senior.Salary != "$90,000 - $110,000" || senior.Tags != "Health, Valuation" {
		t.Errorf("senior = %+v", senior)
	}
}

func TestLoad_SkipsExistingAndInBatchDuplicates(t *testing.T) {
	store := &memStore{jobs: []domain.Job{{ID: 7, Title: "Actuary I", Company: "Acme"}}, nextID: 7}
	batch := []domain.RawJob{
		{Title: "Actuary I", Company: "Acme", Location: "Boston"},
		{Title: "Actuary II", Company: "Acme", Location: "NY"},
		{Title: "Actuary II", Company: "Acme", Location: "LA"},
		{Title: "actuary i", Company: "Acme", Location: "NY"},
	}

	n, err := newTestLoader(store).Load(context.Background(), batch)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("inserted %d, want 2", n)
	}
	if store.jobs[1].Location != "NY" {
		t.Errorf("first-seen record should win, got location %q", store.jobs[1].Location)
	}
	if store.jobs[0].Location != "" {
		t.Errorf("existing record must not be updated, got %+v", store.jobs[0])
	}
	if store.lookups != 3 {
		t.Errorf("lookups = %d, want 3 (in-batch duplicate skipped before lookup)", store.lookups)
	}
}

func TestLoad_InsertFailureIsAtomicStorageError(t *testing.T) {
	store := &memStore{jobs: []domain.Job{{ID: 1, Title: "Existing", Company: "Acme"}}}
	store.insertErr = errors.New("connection reset")

	n, err := newTestLoader(store).Load(context.Background(), loadFixture(t, "actuarylist_batch.json"))
	if err == nil {
		t.Fatal("expected error")
	}
	if n != 0 {
		t.Errorf("n = %d, want 0", n)
	}
	if !apperrors.Is(err, apperrors.ErrTypeStorage) {
		t.Errorf("error type = %q, want STORAGE", apperrors.TypeOf(err))
	}
	if len(store.jobs) != 1 {
		t.Errorf("store size = %d, want unchanged 1", len(store.jobs))
	}
}

func TestLoad_LookupFailureIsStorageError(t *testing.T) {
	store := &memStore{findErr: errors.New("db down")}
	_, err := newTestLoader(store).Load(context.Background(), []domain.RawJob{{Title: "a", Company: "b"}})
	if !apperrors.Is(err, apperrors.ErrTypeStorage) {
		t.Fatalf("err = %v, want STORAGE", err)
	}
	if len(store.jobs) != 0 {
		t.Error("nothing should be stored")
	}
}

func TestLoad_EmptyBatch(t *testing.T) {
	store := &memStore{}
	n, err := newTestLoader(store).Load(context.Background(), nil)
	if err != nil || n != 0 {
		t.Errorf("Load(nil) = %d, %v", n, err)
	}
}

func TestLoad_MissingTitlePassesThrough(t *testing.T) {
	store := &memStore{}
	n, err := newTestLoader(store).Load(context.Background(), []domain.RawJob{{Company: "Acme", Location: "NY"}})
	if err != nil || n != 1 {
		t.Fatalf("Load = %d, %v; the loader does not validate required fields", n, err)
	}
}

func TestLoad_TimeoutBoundsContext(t *testing.T) {
	var deadline time.Time
	var hasDeadline bool
	store := &deadlineStore{check: func(ctx context.Context) { deadline, hasDeadline = ctx.Deadline() }}

	start := time.Now()
	if _, err := newTestLoader(store).Load(context.Background(), []domain.RawJob{{Title: "a", Company: "b"}}); err != nil {
		t.Fatal(err)
	}
	if !hasDeadline {
		t.Fatal("expected the batch context to carry a deadline")
	}
	if deadline.Sub(start) > 2*time.Second {
		t.Errorf("deadline %v too far from start %v", deadline, start)
	}
}

type deadlineStore struct {
	memStore
	check func(ctx context.Context)
}

func (s *deadlineStore) InsertBatch(ctx context.Context, jobs []domain.Job) (int64, error) {
	s.check(ctx)
	return s.memStore.InsertBatch(ctx, jobs)
}
