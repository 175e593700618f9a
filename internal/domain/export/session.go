package export

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"designreport/internal/domain/report"
	"designreport/internal/platform/crypto"
	"designreport/internal/platform/sheet"
)

type Kind string

const (
	KindXLSX   Kind = "xlsx"
	KindText   Kind = "text"
	KindPDF    Kind = "pdf"
	KindMerged Kind = "merged"
)

// Kinds lists every artifact a session holds, in download-list order.
var Kinds = []Kind{KindXLSX, KindText, KindPDF, KindMerged}

type artifact struct {
	file        string
	prefix      string
	ext         string
	contentType string
}

var artifacts = map[Kind]artifact{
	KindXLSX:   {"report.xlsx", "Отчет", ".xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	KindText:   {"report.txt", "Статистика", ".txt", "text/plain; charset=utf-8"},
	KindPDF:    {"report.pdf", "Отчет", ".pdf", "application/pdf"},
	KindMerged: {"merged.xlsx", "Объединенный_файл", ".xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
}

// ParseKind accepts the artifact names used in download links, including the
// "excel" and "txt" spellings of older links.
func ParseKind(raw string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(raw))); k {
	case KindXLSX, KindText, KindPDF, KindMerged:
		return k, nil
	case "excel":
		return KindXLSX, nil
	case "txt":
		return KindText, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownArtifact, raw)
}

func (k Kind) ContentType() string {
	return artifacts[k].contentType
}

type Session struct {
	ID         string
	Period     report.Period
	TextReport string
	CreatedAt  time.Time
	ExpiresAt  time.Time

	dir string
}

// DownloadName is the default attachment name, e.g. "Отчет_Январь_2024.xlsx".
func (s Session) DownloadName(kind Kind) string {
	a := artifacts[kind]
	return fmt.Sprintf("%s_%s_%d%s", a.prefix, report.RussianMonthName(s.Period.Month), s.Period.Year, a.ext)
}

type StoreOptions struct {
	Root   string
	TTL    time.Duration
	Crypto *crypto.Service
	PDF    PDFOptions
	Logger *slog.Logger
}

// SessionStore keeps generated artifacts on disk, one directory per session,
// until they are deleted or expire. Files are sealed with Crypto when it is
// configured.
type SessionStore struct {
	root   string
	ttl    time.Duration
	crypto *crypto.Service
	pdf    PDFOptions
	logger *slog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionStore(opts StoreOptions) (*SessionStore, error) {
	if opts.Root == "" {
		return nil, errors.New("session root is required")
	}
	if err := os.MkdirAll(opts.Root, 0o700); err != nil {
		return nil, fmt.Errorf("create session root: %w", err)
	}
	if opts.TTL <= 0 {
		opts.TTL = 2 * time.Hour
	}
	if opts.Crypto == nil {
		opts.Crypto = &crypto.Service{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &SessionStore{
		root:     opts.Root,
		ttl:      opts.TTL,
		crypto:   opts.Crypto,
		pdf:      opts.PDF,
		logger:   opts.Logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}, nil
}

// Create renders every artifact of out into a fresh session directory.
func (s *SessionStore) Create(out report.Output, grid, archive sheet.Table) (*Session, error) {
	dir, err := os.MkdirTemp(s.root, "report-")
	if err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	render := map[Kind]func(*bytes.Buffer) error{
		KindXLSX:   func(b *bytes.Buffer) error { return WriteWorkbook(b, out.Report) },
		KindText:   func(b *bytes.Buffer) error { return WriteText(b, out.TextReport) },
		KindPDF:    func(b *bytes.Buffer) error { return WritePDF(b, out, s.pdf) },
		KindMerged: func(b *bytes.Buffer) error { return WriteMergedWorkbook(b, grid, archive) },
	}
	for _, kind := range Kinds {
		var buf bytes.Buffer
		if err := render[kind](&buf); err != nil {
			_ = os.RemoveAll(dir)
			return nil, fmt.Errorf("render %s: %w", kind, err)
		}
		sealed, err := s.crypto.Encrypt(buf.Bytes())
		if err != nil {
			_ = os.RemoveAll(dir)
			return nil, fmt.Errorf("seal %s: %w", kind, err)
		}
		if err := os.WriteFile(filepath.Join(dir, artifacts[kind].file), sealed, 0o600); err != nil {
			_ = os.RemoveAll(dir)
			return nil, fmt.Errorf("write %s: %w", kind, err)
		}
	}

	now := s.now()
	session := &Session{
		ID:         uuid.NewString(),
		Period:     out.Period,
		TextReport: out.TextReport,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
		dir:        dir,
	}
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	s.logger.Info("report session created", "sessionId", session.ID, "period", out.Period.String())
	return session, nil
}

func (s *SessionStore) Get(id string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok || !s.now().Before(session.ExpiresAt) {
		return nil, ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

// Open returns the plaintext bytes of one artifact.
func (s *SessionStore) Open(id string, kind Kind) ([]byte, error) {
	a, ok := artifacts[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownArtifact, kind)
	}
	session, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	sealed, err := os.ReadFile(filepath.Join(session.dir, a.file))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	plain, err := s.crypto.Decrypt(sealed)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", kind, err)
	}
	return plain, nil
}

// Delete removes the session and its files.
func (s *SessionStore) Delete(id string) error {
	s.mu.Lock()
	session, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	if err := os.RemoveAll(session.dir); err != nil {
		return fmt.Errorf("remove session %s: %w", id, err)
	}
	s.logger.Info("report session deleted", "sessionId", id)
	return nil
}

// Sweep deletes every session expired at now and returns how many were removed.
func (s *SessionStore) Sweep(now time.Time) int {
	s.mu.Lock()
	var expired []*Session
	for id, session := range s.sessions {
		if !now.Before(session.ExpiresAt) {
			expired = append(expired, session)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, session := range expired {
		if err := os.RemoveAll(session.dir); err != nil {
			s.logger.Warn("session cleanup failed", "sessionId", session.ID, "err", err)
		}
	}
	if len(expired) > 0 {
		s.logger.Info("expired report sessions swept", "count", len(expired))
	}
	return len(expired)
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close removes every session. The store stays usable.
func (s *SessionStore) Close() error {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	var errs []error
	for _, session := range sessions {
		if err := os.RemoveAll(session.dir); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
