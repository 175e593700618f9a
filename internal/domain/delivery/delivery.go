// Package delivery turns a finished report session into background push jobs
// for the task tracker and the team chat.
package delivery

import (
	"context"
	"fmt"
	"log/slog"

	"designreport/internal/domain/export"
	"designreport/internal/domain/runs"
	"designreport/internal/integrations/kaiten"
	"designreport/internal/integrations/slack"
	"designreport/internal/platform/jobs"
	"designreport/internal/platform/metrics"
)

type Tracker interface {
	AttachFiles(ctx context.Context, cardID string, files []kaiten.File) error
	Comment(ctx context.Context, cardID, text string) error
}

type Chat interface {
	Announce(ctx context.Context, text string, files []slack.Attachment) error
}

type Artifacts interface {
	Open(id string, kind export.Kind) ([]byte, error)
}

type Options struct {
	Tracker Tracker
	CardID  string
	Chat    Chat
	Metrics *metrics.Collector
	Logger  *slog.Logger
}

type Service struct {
	artifacts Artifacts
	tracker   Tracker
	cardID    string
	chat      Chat
	metrics   *metrics.Collector
	logger    *slog.Logger
}

func New(artifacts Artifacts, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		artifacts: artifacts,
		tracker:   opts.Tracker,
		cardID:    opts.CardID,
		chat:      opts.Chat,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
	}
}

// Enabled reports whether any push target is configured.
func (s *Service) Enabled() bool {
	return s != nil && (s.tracker != nil || s.chat != nil)
}

// Jobs snapshots the session's artifacts and returns one job per configured
// target. Artifacts are read up front so that a cleanup racing the queue does
// not lose the push.
func (s *Service) Jobs(session *export.Session) ([]jobs.Job, error) {
	if !s.Enabled() {
		return nil, nil
	}
	files := make(map[export.Kind][]byte, len(export.Kinds))
	for _, kind := range []export.Kind{export.KindXLSX, export.KindPDF} {
		data, err := s.artifacts.Open(session.ID, kind)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", kind, err)
		}
		files[kind] = data
	}

	period := session.Period.String()
	text := session.TextReport
	var out []jobs.Job
	if s.tracker != nil {
		upload := []kaiten.File{
			{Name: session.DownloadName(export.KindXLSX), ContentType: export.KindXLSX.ContentType(), Data: files[export.KindXLSX]},
			{Name: session.DownloadName(export.KindPDF), ContentType: export.KindPDF.ContentType(), Data: files[export.KindPDF]},
		}
		out = append(out, jobs.Job{
			Kind:      runs.KindKaitenPush,
			Period:    period,
			SessionID: session.ID,
			Run: s.observe(runs.KindKaitenPush, session.ID, func(ctx context.Context) error {
				if err := s.tracker.AttachFiles(ctx, s.cardID, upload); err != nil {
					return err
				}
				return s.tracker.Comment(ctx, s.cardID, text)
			}),
		})
	}
	if s.chat != nil {
		attachment := []slack.Attachment{{
			Name:  session.DownloadName(export.KindXLSX),
			Title: "Report " + period,
			Data:  files[export.KindXLSX],
		}}
		out = append(out, jobs.Job{
			Kind:      runs.KindSlackPush,
			Period:    period,
			SessionID: session.ID,
			Run: s.observe(runs.KindSlackPush, session.ID, func(ctx context.Context) error {
				return s.chat.Announce(ctx, text, attachment)
			}),
		})
	}
	return out, nil
}

func (s *Service) observe(kind, sessionID string, fn func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		err := fn(ctx)
		if err != nil {
			if s.metrics != nil {
				s.metrics.PushFailed()
			}
			s.logger.Warn("report push failed", "target", kind, "sessionId", sessionID, "err", err)
			return err
		}
		s.logger.Info("report pushed", "target", kind, "sessionId", sessionID)
		return nil
	}
}
