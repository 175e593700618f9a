package db

import (
  "context"
  "time"

  "github.com/jackc/pgx/v5/pgxpool"
)

func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
  poolCfg, err := pgxpool.ParseConfig(databaseURL)
  if err != nil {
    return nil, err
  }
  poolCfg.MaxConnLifetime = time.Hour
  poolCfg.MaxConns = 4
  poolCfg.MinConns = 1
  pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
  if err != nil {
    return nil, err
  }
  if err := pool.Ping(ctx); err != nil {
    pool.Close()
    return nil, err
  }
  return pool, nil
}
