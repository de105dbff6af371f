package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"example.com/actuaryjobs/internal/domain"
)

// Writer is the batch path of the SQLite store.
// SQLite transactions are always serializable, so no isolation level is configured.
type Writer struct {
	db        *DB
	chunkSize int
}

func NewWriter(db *DB, chunkSize int) *Writer {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	return &Writer{db: db, chunkSize: chunkSize}
}

// FindByTitleAndCompany is an exact, case-sensitive lookup on the natural key.
func (w *Writer) FindByTitleAndCompany(ctx context.Context, title, company string) (*domain.Job, error) {
	row := w.db.db.QueryRowContext(ctx,
		"SELECT "+jobColumns+" FROM jobs WHERE title = ? AND company = ? ORDER BY id LIMIT 1",
		title, company)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find job by natural key: %w", err)
	}
	return &j, nil
}

// InsertBatch inserts all jobs inside one transaction; on any error nothing is kept.
func (w *Writer) InsertBatch(ctx context.Context, items []domain.Job) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}

	tx, err := w.db.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var total int64
	for start := 0; start < len(items); start += w.chunkSize {
		end := min(start+w.chunkSize, len(items))
		query, args := buildInsert(items[start:end])
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("insert rows %d-%d: %w", start, end-1, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return total, nil
}

var insertColumns = []string{"title", "company", "location", "salary", "description", "job_type", "tags", "posting_date"}

func buildInsert(items []domain.Job) (string, []any) {
	row := "(" + strings.TrimSuffix(strings.Repeat("?,", len(insertColumns)), ",") + ")"
	placeholders := make([]string, len(items))
	args := make([]any, 0, len(items)*len(insertColumns))
	for i, j := range items {
		placeholders[i] = row
		args = append(args,
			j.Title, j.Company, j.Location,
			nullable(j.Salary), nullable(j.Description), nullable(j.JobType), nullable(j.Tags),
			formatTime(j.PostingDate),
		)
	}
	query := "INSERT INTO jobs (" + strings.Join(insertColumns, ",") + ") VALUES " +
		strings.Join(placeholders, ",")
	return query, args
}
