package main

import (
  "context"
  "log"
  "log/slog"
  "os"
  "os/signal"
  "strings"
  "syscall"

  "github.com/joho/godotenv"

  "designreport/internal/app/server"
  "designreport/internal/platform/config"
)

func main() {
  if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
    log.Printf("skipping .env: %v", err)
  }

  cfg, err := config.Load()
  if err != nil {
    log.Fatalf("config load failed: %v", err)
  }
  if err := cfg.Validate(); err != nil {
    log.Fatalf("invalid config: %v", err)
  }

  logger := newLogger(cfg)
  slog.SetDefault(logger)

  ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
  defer stop()

  app, err := server.New(ctx, cfg, logger)
  if err != nil {
    logger.Error("server init failed", "err", err)
    os.Exit(1)
  }
  defer app.Close()

  if err := app.Run(ctx); err != nil {
    logger.Error("server failed", "err", err)
    app.Close()
    os.Exit(1)
  }
}

func newLogger(cfg config.Config) *slog.Logger {
  var level slog.Level
  if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
    level = slog.LevelInfo
  }
  opts := &slog.HandlerOptions{Level: level}
  if strings.EqualFold(cfg.LogFormat, "text") {
    return slog.New(slog.NewTextHandler(os.Stdout, opts))
  }
  return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
