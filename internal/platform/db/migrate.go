package db

import (
  "context"
  "embed"
  "fmt"
  "io/fs"
  "os"
  "path"
  "sort"
  "strings"

  "github.com/jackc/pgx/v5"
  "github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var embedded embed.FS

// Migrations returns dir as a filesystem, or the migrations built into the
// binary when dir is empty.
func Migrations(dir string) fs.FS {
  if dir != "" {
    return os.DirFS(dir)
  }
  sub, err := fs.Sub(embedded, "migrations")
  if err != nil {
    panic(err)
  }
  return sub
}

// Migrate applies every *.sql file of fsys not yet recorded in
// schema_migrations, in name order, each inside its own transaction.
func Migrate(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS) error {
  if err := ensureMigrationsTable(ctx, pool); err != nil {
    return err
  }

  files, err := migrationFiles(fsys)
  if err != nil {
    return err
  }

  for _, file := range files {
    version := strings.TrimSuffix(file, ".sql")
    applied, err := migrationApplied(ctx, pool, version)
    if err != nil {
      return err
    }
    if applied {
      continue
    }

    sqlBytes, err := fs.ReadFile(fsys, file)
    if err != nil {
      return err
    }

    tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
    if err != nil {
      return err
    }

    if _, err := tx.Exec(ctx, string(sqlBytes)); err != nil {
      _ = tx.Rollback(ctx)
      return fmt.Errorf("migration %s failed: %w", version, err)
    }

    if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", version); err != nil {
      _ = tx.Rollback(ctx)
      return err
    }

    if err := tx.Commit(ctx); err != nil {
      return err
    }
  }

  return nil
}

func migrationFiles(fsys fs.FS) ([]string, error) {
  entries, err := fs.ReadDir(fsys, ".")
  if err != nil {
    return nil, err
  }
  var files []string
  for _, entry := range entries {
    if entry.IsDir() || path.Ext(entry.Name()) != ".sql" {
      continue
    }
    files = append(files, entry.Name())
  }
  sort.Strings(files)
  return files, nil
}

func ensureMigrationsTable(ctx context.Context, pool *pgxpool.Pool) error {
  _, err := pool.Exec(ctx, "CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY, applied_at TIMESTAMPTZ NOT NULL DEFAULT now())")
  return err
}

func migrationApplied(ctx context.Context, pool *pgxpool.Pool, version string) (bool, error) {
  var count int
  err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM schema_migrations WHERE version = $1", version).Scan(&count)
  if err != nil {
    return false, err
  }
  return count > 0, nil
}
