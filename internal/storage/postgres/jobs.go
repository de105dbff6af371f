package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"example.com/actuaryjobs/internal/domain"
	apperrors "example.com/actuaryjobs/internal/errors"
)

const jobColumns = "id, title, company, location, salary, description, job_type, tags, posting_date"

func scanJob(row pgx.Row) (domain.Job, error) {
	var j domain.Job
	var salary, description, jobType, tags *string
	if err := row.Scan(&j.ID, &j.Title, &j.Company, &j.Location, &salary, &description, &jobType, &tags, &j.PostingDate); err != nil {
		return j, err
	}
	j.Salary = deref(salary)
	j.Description = deref(description)
	j.JobType = deref(jobType)
	j.Tags = deref(tags)
	j.PostingDate = j.PostingDate.UTC()
	return j, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (db *DB) CreateJob(ctx context.Context, j domain.Job) (domain.Job, error) {
	row := db.Pool.QueryRow(ctx, `
INSERT INTO jobs (title, company, location, salary, description, job_type, tags, posting_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING `+jobColumns,
		j.Title, j.Company, j.Location,
		nullable(j.Salary), nullable(j.Description), nullable(j.JobType), nullable(j.Tags),
		j.PostingDate.UTC())
	created, err := scanJob(row)
	if err != nil {
		return domain.Job{}, apperrors.Storage("create job", err)
	}
	return created, nil
}

func (db *DB) GetJob(ctx context.Context, id int64) (domain.Job, error) {
	j, err := scanJob(db.Pool.QueryRow(ctx, "SELECT "+jobColumns+" FROM jobs WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Job{}, apperrors.NotFound("Job not found", err)
	}
	if err != nil {
		return domain.Job{}, apperrors.Storage("get job", err)
	}
	return j, nil
}

// UpdateJob writes only the fields set in patch. An empty patch returns the job unchanged.
func (db *DB) UpdateJob(ctx context.Context, id int64, patch domain.JobPatch) (domain.Job, error) {
	if patch.Empty() {
		return db.GetJob(ctx, id)
	}

	var sets []string
	var args []any
	add := func(col string, o domain.Optional[string]) {
		if !o.Set {
			return
		}
		args = append(args, o.Value)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	add("title", patch.Title)
	add("company", patch.Company)
	add("location", patch.Location)
	add("salary", patch.Salary)
	add("description", patch.Description)
	add("job_type", patch.JobType)
	add("tags", patch.Tags)

	args = append(args, id)
	sql := fmt.Sprintf("UPDATE jobs SET %s WHERE id = $%d RETURNING %s", strings.Join(sets, ", "), len(args), jobColumns)

	j, err := scanJob(db.Pool.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Job{}, apperrors.NotFound("Job not found", err)
	}
	if err != nil {
		return domain.Job{}, apperrors.Storage("update job", err)
	}
	return j, nil
}

func (db *DB) DeleteJob(ctx context.Context, id int64) error {
	ct, err := db.Pool.Exec(ctx, "DELETE FROM jobs WHERE id = $1", id)
	if err != nil {
		return apperrors.Storage("delete job", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("Job not found", nil)
	}
	return nil
}

// ListJobs returns every job matching f; empty filter fields mean "no filter".
func (db *DB) ListJobs(ctx context.Context, f domain.JobFilter) ([]domain.Job, error) {
	var conds []string
	var args []any

	if f.JobType != "" {
		args = append(args, f.JobType)
		conds = append(conds, fmt.Sprintf("job_type = $%d", len(args)))
	}
	if f.Location != "" {
		args = append(args, "%"+f.Location+"%")
		conds = append(conds, fmt.Sprintf("location ILIKE $%d", len(args)))
	}
	if f.Tag != "" {
		args = append(args, "%"+f.Tag+"%")
		conds = append(conds, fmt.Sprintf("tags ILIKE $%d", len(args)))
	}

	sql := "SELECT " + jobColumns + " FROM jobs"
	if len(conds) > 0 {
		sql += " WHERE " + strings.Join(conds, " AND ")
	}
	if f.Sort == domain.SortOldestFirst {
		sql += " ORDER BY posting_date ASC, id ASC"
	} else {
		sql += " ORDER BY posting_date DESC, id DESC"
	}

	rows, err := db.Pool.Query(ctx, sql, args...)
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
