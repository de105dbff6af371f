package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"example.com/actuaryjobs/internal/domain"
	apperrors "example.com/actuaryjobs/internal/errors"
)

const jobColumns = "id, title, company, location, salary, description, job_type, tags, posting_date"

// timeLayout is fixed-width so that text order matches time order.
const timeLayout = "2006-01-02 15:04:05.000000000"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (domain.Job, error) {
	var j domain.Job
	var salary, description, jobType, tags sql.NullString
	var posted string
	if err := row.Scan(&j.ID, &j.Title, &j.Company, &j.Location, &salary, &description, &jobType, &tags, &posted); err != nil {
		return j, err
	}
	t, err := time.Parse(timeLayout, posted)
	if err != nil {
		return j, fmt.Errorf("parse posting_date %q: %w", posted, err)
	}
	j.PostingDate = t.UTC()
	j.Salary = salary.String
	j.Description = description.String
	j.JobType = jobType.String
	j.Tags = tags.String
	return j, nil
}

// nullable maps "" to SQL NULL for optional text columns.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (s *DB) CreateJob(ctx context.Context, j domain.Job) (domain.Job, error) {
	row := s.db.QueryRowContext(ctx, `
INSERT INTO jobs (title, company, location, salary, description, job_type, tags, posting_date)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING `+jobColumns,
		j.Title, j.Company, j.Location,
		nullable(j.Salary), nullable(j.Description), nullable(j.JobType), nullable(j.Tags),
		formatTime(j.PostingDate))
	created, err := scanJob(row)
	if err != nil {
		return domain.Job{}, apperrors.Storage("create job", err)
	}
	return created, nil
}

func (s *DB) GetJob(ctx context.Context, id int64) (domain.Job, error) {
	j, err := scanJob(s.db.QueryRowContext(ctx, "SELECT "+jobColumns+" FROM jobs WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Job{}, apperrors.NotFound("Job not found", err)
	}
	if err != nil {
		return domain.Job{}, apperrors.Storage("get job", err)
	}
	return j, nil
}

// UpdateJob writes only the fields set in patch. An empty patch returns the job unchanged.
func (s *DB) UpdateJob(ctx context.Context, id int64, patch domain.JobPatch) (domain.Job, error) {
	if patch.Empty() {
		return s.GetJob(ctx, id)
	}

	var sets []string
	var args []any
	add := func(col string, o domain.Optional[string]) {
		if !o.Set {
			return
		}
		if o.Value == nil {
			args = append(args, nil)
		} else {
			args = append(args, *o.Value)
		}
		sets = append(sets, col+" = ?")
	}
	add("title", patch.Title)
	add("company", patch.Company)
	add("location", patch.Location)
	add("salary", patch.Salary)
	add("description", patch.Description)
	add("job_type", patch.JobType)
	add("tags", patch.Tags)
	args = append(args, id)

	query := "UPDATE jobs SET " + strings.Join(sets, ", ") + " WHERE id = ? RETURNING " + jobColumns
	j, err := scanJob(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Job{}, apperrors.NotFound("Job not found", err)
	}
	if err != nil {
		return domain.Job{}, apperrors.Storage("update job", err)
	}
	return j, nil
}

func (s *DB) DeleteJob(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM jobs WHERE id = ?", id)
	if err != nil {
		return apperrors.Storage("delete job", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.Storage("delete job", err)
	}
	if n == 0 {
		return apperrors.NotFound("Job not found", nil)
	}
	return nil
}

// ListJobs returns every job matching f. LIKE is case-insensitive for ASCII in SQLite.
func (s *DB) ListJobs(ctx context.Context, f domain.JobFilter) ([]domain.Job, error) {
	var conds []string
	var args []any

	if f.JobType != "" {
		conds = append(conds, "job_type = ?")
		args = append(args, f.JobType)
	}
	if f.Location != "" {
		conds = append(conds, "location LIKE ?")
		args = append(args, "%"+f.Location+"%")
	}
	if f.Tag != "" {
		conds = append(conds, "tags LIKE ?")
		args = append(args, "%"+f.Tag+"%")
	}

	query := "SELECT " + jobColumns + " FROM jobs"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	if f.Sort == domain.SortOldestFirst {
		query += " ORDER BY posting_date ASC, id ASC"
	} else {
		query += " ORDER BY posting_date DESC, id DESC"
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Storage("list jobs", err)
	}
	defer rows.Close()

	out := []domain.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, apperrors.Storage("scan job", err)
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage("list jobs", err)
	}
	return out, nil
}
