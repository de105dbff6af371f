package ingest

import (
	"context"
	"time"

	"go.uber.org/zap"

	"example.com/actuaryjobs/internal/domain"
	apperrors "example.com/actuaryjobs/internal/errors"
	"example.com/actuaryjobs/internal/idempotency"
)

// BatchStore is what the loader needs from storage.
type BatchStore interface {
	// FindByTitleAndCompany returns nil, nil when no job has that exact key.
	FindByTitleAndCompany(ctx context.Context, title, company string) (*domain.Job, error)
	// InsertBatch stores all jobs in one transaction or none of them.
	InsertBatch(ctx context.Context, jobs []domain.Job) (int64, error)
}

// Loader normalizes scraped batches and inserts the postings not stored yet.
//
// Existence checks happen before the insert transaction opens. Two batches
// racing on the same (title, company) can both pass the check and both insert;
// there is no unique index on the natural key to stop it.
type Loader struct {
	store   BatchStore
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

func NewLoader(store BatchStore, timeout time.Duration, now func() time.Time, logger *zap.Logger) *Loader {
	return &Loader{
		store:   store,
		timeout: timeout,
		now:     now,
		logger:  logger,
	}
}

// Load ingests one batch and returns how many postings were inserted.
// Any storage failure aborts the whole batch and is returned as a STORAGE error.
func (l *Loader) Load(ctx context.Context, batch []domain.RawJob) (int64, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	now := l.now().UTC()
	accepted := make(map[idempotency.Key]struct{}, len(batch))
	jobs := make([]domain.Job, 0, len(batch))
	var skipped, defaultedDates int

	for _, raw := range batch {
		job, defaulted := normalize(raw, now)
		if defaulted {
			defaultedDates++
		}

		key := idempotency.NaturalKeyOf(job)
		if _, dup := accepted[key]; dup {
			skipped++
			continue
		}
		existing, err := l.store.FindByTitleAndCompany(ctx, key.Title, key.Company)
		if err != nil {
			return 0, apperrors.Storage("look up existing job", err)
		}
		if existing != nil {
			l.logger.Debug("skipping known job", zap.String("key", key.Digest()), zap.Int64("existing_id", existing.ID))
			skipped++
			continue
		}
		accepted[key] = struct{}{}
		jobs = append(jobs, job)
	}

	inserted, err := l.store.InsertBatch(ctx, jobs)
	if err != nil {
		l.logger.Error("batch insert failed", zap.Int("size", len(jobs)), zap.Error(err))
		return 0, apperrors.Storage("insert batch", err)
	}

	l.logger.Info("batch ingested",
		zap.Int("received", len(batch)),
		zap.Int64("inserted", inserted),
		zap.Int("skipped", skipped),
		zap.Int("defaulted_dates", defaultedDates),
	)
	return inserted, nil
}

// normalize cleans one raw record for storage. Title and company pass through untouched.
func normalize(raw domain.RawJob, now time.Time) (domain.Job, bool) {
	postedAt, defaulted := domain.ResolvePostingDate(raw.PostingDate, now)

	jobType := domain.DefaultJobType
	if raw.JobType != nil && *raw.JobType != "" {
		jobType = *raw.JobType
	}

	return domain.Job{
		Title:       raw.Title,
		Company:     raw.Company,
		Location:    domain.CleanTags(string(raw.Location)),
		Salary:      domain.StripNonASCII(raw.Salary),
		Description: raw.Description,
		JobType:     jobType,
		Tags:        domain.CleanTags(string(raw.Tags)),
		PostingDate: postedAt,
	}, defaulted
}
