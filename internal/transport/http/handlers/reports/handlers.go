package reportshandler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"designreport/internal/auth"
	"designreport/internal/domain/delivery"
	"designreport/internal/domain/export"
	"designreport/internal/domain/report"
	"designreport/internal/domain/runs"
	"designreport/internal/platform/jobs"
	"designreport/internal/platform/metrics"
	"designreport/internal/platform/sheet"
	"designreport/internal/requestctx"
	"designreport/internal/transport/http/api"
	"designreport/internal/transport/http/middleware"
	"designreport/internal/transport/http/shared"
)

const multipartMemory = 8 << 20

type Enqueuer interface {
	Enqueue(j jobs.Job) error
}

type Handler struct {
	Generator *report.Generator
	Sessions  *export.SessionStore
	Secret    []byte
	TokenTTL  time.Duration
	Runs      *runs.Service
	Jobs      Enqueuer
	Delivery  *delivery.Service
	Metrics   *metrics.Collector
	Logger    *slog.Logger
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Post("/", h.handleGenerate)
		r.Get("/{sessionID}/download/{kind}", h.handleDownload)
		r.Delete("/{sessionID}", h.handleDelete)
	})
}

// RegisterLegacyRoutes mounts the unversioned paths older upload pages call.
func (h *Handler) RegisterLegacyRoutes(r chi.Router) {
	r.Post("/generate_report", h.handleLegacyGenerate)
	r.Get("/download/{kind}/{sessionID}", h.handleDownload)
	r.Get("/cleanup/{sessionID}", h.handleDelete)
}

type generateResponse struct {
	SessionID  string                 `json:"sessionId"`
	Period     report.Period          `json:"period"`
	TextReport string                 `json:"textReport"`
	Report     []report.ReportRow     `json:"report"`
	Stats      report.Stats           `json:"stats"`
	Downloads  map[export.Kind]string `json:"downloads"`
	ExpiresAt  time.Time              `json:"expiresAt"`
}

// legacyGenerateResponse is the flat shape older upload pages read.
type legacyGenerateResponse struct {
	Success    bool                   `json:"success"`
	SessionID  string                 `json:"session_id"`
	TextReport string                 `json:"text_report"`
	Report     []report.ReportRow     `json:"report"`
	Downloads  map[export.Kind]string `json:"downloads"`
}

type legacyError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// replier writes the outcome of an upload in one response shape.
type replier interface {
	ok(w http.ResponseWriter, resp generateResponse, requestID string)
	fail(w http.ResponseWriter, status int, code, message, requestID string)
	invalid(w http.ResponseWriter, v *shared.Validator, requestID string)
}

type envelopeReplier struct{}

func (envelopeReplier) ok(w http.ResponseWriter, resp generateResponse, requestID string) {
	api.Success(w, resp, requestID)
}

func (envelopeReplier) fail(w http.ResponseWriter, status int, code, message, requestID string) {
	api.Fail(w, status, code, message, requestID)
}

func (envelopeReplier) invalid(w http.ResponseWriter, v *shared.Validator, requestID string) {
	v.Reject(w, requestID)
}

type legacyReplier struct{}

func (legacyReplier) ok(w http.ResponseWriter, resp generateResponse, _ string) {
	api.JSON(w, http.StatusOK, legacyGenerateResponse{
		Success:    true,
		SessionID:  resp.SessionID,
		TextReport: resp.TextReport,
		Report:     resp.Report,
		Downloads:  resp.Downloads,
	})
}

func (legacyReplier) fail(w http.ResponseWriter, status int, _, message, _ string) {
	api.JSON(w, status, legacyError{Error: message})
}

func (legacyReplier) invalid(w http.ResponseWriter, v *shared.Validator, _ string) {
	issues := v.Issues()
	parts := make([]string, 0, len(issues))
	for _, issue := range issues {
		parts = append(parts, issue.Field+" "+issue.Reason)
	}
	api.JSON(w, http.StatusBadRequest, legacyError{Error: strings.Join(parts, "; ")})
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, envelopeReplier{})
}

func (h *Handler) handleLegacyGenerate(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, legacyReplier{})
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request, reply replier) {
	requestID := middleware.GetRequestID(r.Context())
	logger := requestctx.Logger(r.Context(), h.Logger)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.reject()
			reply.fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "upload exceeds the size limit", requestID)
			return
		}
		h.reject()
		reply.fail(w, http.StatusBadRequest, "validation_error", "multipart form expected", requestID)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logger.Warn("multipart cleanup failed", "err", err)
		}
	}()

	v := shared.NewValidator()
	gridHeader := formFile(r, "grid_file")
	archiveHeader := formFile(r, "archive_file")
	if gridHeader == nil {
		v.Add("grid_file", "is required")
	}
	if archiveHeader == nil {
		v.Add("archive_file", "is required")
	}
	month := monthName(r.FormValue("month"))
	v.Required("month", month, "is required")
	year, _ := v.Int("year", r.FormValue("year"))
	if v.HasIssues() {
		h.reject()
		reply.invalid(w, v, requestID)
		return
	}

	var grid, archive sheet.Table
	g, _ := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		grid, err = readUpload(gridHeader)
		return err
	})
	g.Go(func() (err error) {
		archive, err = readUpload(archiveHeader)
		return err
	})
	if err := g.Wait(); err != nil {
		h.reject()
		if errors.Is(err, sheet.ErrInvalidWorkbook) {
			reply.fail(w, http.StatusBadRequest, "invalid_workbook", err.Error(), requestID)
			return
		}
		logger.Error("read uploads failed", "err", err)
		reply.fail(w, http.StatusInternalServerError, "server_error", "failed to read uploads", requestID)
		return
	}

	out, err := h.Generator.Generate(grid.Rows, archive.Rows, month, year)
	if err != nil {
		h.reject()
		switch {
		case errors.Is(err, report.ErrInvalidMonth):
			reply.fail(w, http.StatusBadRequest, "invalid_month", report.ErrInvalidMonth.Error(), requestID)
		case errors.Is(err, report.ErrInvalidYear):
			reply.fail(w, http.StatusBadRequest, "invalid_year", report.ErrInvalidYear.Error(), requestID)
		default:
			logger.Error("report generation failed", "err", err)
			reply.fail(w, http.StatusInternalServerError, "server_error", "failed to generate report", requestID)
		}
		return
	}

	journal := runs.Run{
		Kind:        runs.KindGenerate,
		Period:      out.Period.String(),
		GridRows:    out.Stats.GridRows,
		ArchiveRows: out.Stats.ArchiveRows,
		MergedRows:  out.Stats.MergedRows,
		ReportRows:  len(out.Report),
	}
	session, err := h.Sessions.Create(out, grid, archive)
	if err != nil {
		h.Runs.Record(context.WithoutCancel(r.Context()), journal, err)
		logger.Error("report session failed", "err", err)
		reply.fail(w, http.StatusInternalServerError, "server_error", "failed to store report files", requestID)
		return
	}
	journal.SessionID = session.ID
	h.Runs.Record(context.WithoutCancel(r.Context()), journal, nil)
	if h.Metrics != nil {
		h.Metrics.ReportGenerated()
	}
	h.enqueuePushes(logger, session)

	downloads, err := h.downloadLinks(session)
	if err != nil {
		logger.Error("download token failed", "err", err)
		reply.fail(w, http.StatusInternalServerError, "server_error", "failed to sign download links", requestID)
		return
	}

	reply.ok(w, generateResponse{
		SessionID:  session.ID,
		Period:     out.Period,
		TextReport: out.TextReport,
		Report:     out.Report,
		Stats:      out.Stats,
		Downloads:  downloads,
		ExpiresAt:  session.ExpiresAt,
	}, requestID)
}

func (h *Handler) enqueuePushes(logger *slog.Logger, session *export.Session) {
	if !h.Delivery.Enabled() || h.Jobs == nil {
		return
	}
	pending, err := h.Delivery.Jobs(session)
	if err != nil {
		logger.Warn("report push skipped", "sessionId", session.ID, "err", err)
		return
	}
	for _, j := range pending {
		if err := h.Jobs.Enqueue(j); err != nil {
			if h.Metrics != nil {
				h.Metrics.PushFailed()
			}
			logger.Warn("report push not queued", "target", j.Kind, "sessionId", session.ID, "err", err)
		}
	}
}

func (h *Handler) downloadLinks(session *export.Session) (map[export.Kind]string, error) {
	links := make(map[export.Kind]string, len(export.Kinds))
	for _, kind := range export.Kinds {
		token, err := auth.GenerateToken(h.Secret, auth.DownloadClaims{SessionID: session.ID, Kind: string(kind)}, h.TokenTTL)
		if err != nil {
			return nil, err
		}
		q := url.Values{}
		q.Set("token", token)
		q.Set("filename", session.DownloadName(kind))
		links[kind] = fmt.Sprintf("/api/v1/reports/%s/download/%s?%s", session.ID, kind, q.Encode())
	}
	return links, nil
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	sessionID := chi.URLParam(r, "sessionID")
	kind, err := export.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		api.Fail(w, http.StatusNotFound, "unknown_artifact", "unknown file type", requestID)
		return
	}

	claims, err := auth.ParseToken(h.Secret, r.URL.Query().Get("token"))
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_token", "download link is invalid or expired", requestID)
		return
	}
	if !claims.Allows(sessionID, string(kind)) {
		api.Fail(w, http.StatusForbidden, "forbidden", "download link does not match the file", requestID)
		return
	}

	session, err := h.Sessions.Get(sessionID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "session_not_found", "session not found", requestID)
		return
	}
	data, err := h.Sessions.Open(sessionID, kind)
	if err != nil {
		if errors.Is(err, export.ErrSessionNotFound) {
			api.Fail(w, http.StatusNotFound, "session_not_found", "session not found", requestID)
			return
		}
		requestctx.Logger(r.Context(), h.Logger).Error("open artifact failed", "sessionId", sessionID, "kind", kind, "err", err)
		api.Fail(w, http.StatusInternalServerError, "server_error", "failed to read file", requestID)
		return
	}

	name := downloadName(r.URL.Query().Get("filename"))
	if name == "" {
		name = session.DownloadName(kind)
	}
	api.Attachment(w, name, kind.ContentType(), data)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.Sessions.Delete(sessionID); err != nil {
		if errors.Is(err, export.ErrSessionNotFound) {
			api.Fail(w, http.StatusNotFound, "session_not_found", "session not found", requestID)
			return
		}
		requestctx.Logger(r.Context(), h.Logger).Error("session cleanup failed", "sessionId", sessionID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "server_error", "failed to remove files", requestID)
		return
	}
	api.Success(w, map[string]any{"sessionId": sessionID, "deleted": true}, requestID)
}

func (h *Handler) reject() {
	if h.Metrics != nil {
		h.Metrics.ReportRejected()
	}
}

func formFile(r *http.Request, field string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	files := r.MultipartForm.File[field]
	if len(files) == 0 || files[0].Filename == "" {
		return nil
	}
	return files[0]
}

func readUpload(header *multipart.FileHeader) (sheet.Table, error) {
	file, err := header.Open()
	if err != nil {
		return sheet.Table{}, fmt.Errorf("open %s: %w", header.Filename, err)
	}
	defer file.Close()
	table, err := sheet.ReadTable(file)
	if err != nil {
		return sheet.Table{}, fmt.Errorf("%s: %w", header.Filename, err)
	}
	return table, nil
}

// monthName lets the upload form send 1..12 next to month names.
func monthName(raw string) string {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		if n < 1 || n > 12 {
			return "invalid"
		}
		return report.RussianMonthName(time.Month(n))
	}
	return raw
}

// downloadName keeps only the last path element of a caller-supplied name.
func downloadName(raw string) string {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "\\", "/"))
	if raw == "" {
		return ""
	}
	name := path.Base(raw)
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
