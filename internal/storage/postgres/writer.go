package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"example.com/actuaryjobs/internal/domain"
)

type Writer struct {
	db        *DB
	isoLevel  pgx.TxIsoLevel
	chunkSize int
}

// NewWriter returns the batch path of the store. isolation is one of the
// Postgres level names ("serializable", "read committed", ...); chunkSize
// caps the rows per INSERT statement.
func NewWriter(db *DB, isolation string, chunkSize int) *Writer {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	return &Writer{db: db, isoLevel: pgx.TxIsoLevel(isolation), chunkSize: chunkSize}
}

// FindByTitleAndCompany is an exact, case-sensitive lookup on the natural key.
func (w *Writer) FindByTitleAndCompany(ctx context.Context, title, company string) (*domain.Job, error) {
	row := w.db.Pool.QueryRow(ctx,
		"SELECT "+jobColumns+" FROM jobs WHERE title = $1 AND company = $2 ORDER BY id LIMIT 1",
		title, company)
	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
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

	tx, err := w.db.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: w.isoLevel})
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var total int64
	for start := 0; start < len(items); start += w.chunkSize {
		end := min(start+w.chunkSize, len(items))
		sql, args := buildInsert(items[start:end])
		ct, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return 0, fmt.Errorf("insert rows %d-%d: %w", start, end-1, err)
		}
		total += ct.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return total, nil
}

var insertColumns = []string{"title", "company", "location", "salary", "description", "job_type", "tags", "posting_date"}

func buildInsert(items []domain.Job) (string, []any) {
	placeholders := make([]string, 0, len(items))
	args := make([]any, 0, len(items)*len(insertColumns))

	argi := 1
	for _, j := range items {
		ph := make([]string, 0, len(insertColumns))
		for _, v := range []any{
			j.Title, j.Company, j.Location,
			nullable(j.Salary), nullable(j.Description), nullable(j.JobType), nullable(j.Tags),
			j.PostingDate.UTC(),
		} {
			args = append(args, v)
			ph = append(ph, fmt.Sprintf("$%d", argi))
			argi++
		}
		placeholders = append(placeholders, "("+strings.Join(ph, ",")+")")
	}

	sql := "INSERT INTO jobs (" + strings.Join(insertColumns, ",") + ") VALUES " +
		strings.Join(placeholders, ",")
	return sql, args
}

// nullable maps "" to SQL NULL for optional text columns.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
