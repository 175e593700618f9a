package runs

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store journals runs in the report_runs table.
type Store struct {
	DB Querier
}

func NewStore(db Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) Insert(ctx context.Context, run Run) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO report_runs (id, kind, period, session_id, status, grid_rows, archive_rows, merged_rows, report_rows, error, created_at)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
  `, run.ID, run.Kind, run.Period, run.SessionID, run.Status, run.GridRows, run.ArchiveRows, run.MergedRows, run.ReportRows, run.Error, run.CreatedAt)
	return err
}

func (s *Store) Complete(ctx context.Context, id, status, errMsg string, at time.Time) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE report_runs
    SET status = $1, error = $2, completed_at = $3
    WHERE id = $4
  `, status, errMsg, at, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRunNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]Run, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, kind, period, session_id, status, grid_rows, archive_rows, merged_rows, report_rows, error, created_at, completed_at
    FROM report_runs
    ORDER BY created_at DESC
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Run{}
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Kind, &run.Period, &run.SessionID, &run.Status, &run.GridRows, &run.ArchiveRows,
			&run.MergedRows, &run.ReportRows, &run.Error, &run.CreatedAt, &run.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
