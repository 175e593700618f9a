package export

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"designreport/internal/domain/report"
	"designreport/internal/platform/crypto"
	"designreport/internal/platform/sheet"
)

func sampleOutput(t *testing.T) report.Output {
	t.Helper()
	out, err := report.Generate([]report.RawRow{
		{"Ответственный": "Ivanova", "Выполнена": "15.01.2024", "Оценка работы": "9,0", "Количество макетов": "2"},
	}, []report.RawRow{
		{"Выполнена": "20.01.2024", "Количество макетов": 1},
	}, "January", 2024)
	require.NoError(t, err)
	return out
}

func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, sampleOutput(t).Report))

	table, err := sheet.ReadTable(&buf)
	require.NoError(t, err)
	assert.Equal(t, ReportHeaders, table.Header)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, "Ivanova", table.Rows[0]["Ответственный"])
	assert.Equal(t, float64(9), table.Rows[0]["Оценка"])
	assert.Equal(t, report.NoScoreMarker, table.Rows[1]["Оценка"])
	assert.Equal(t, report.TotalLabel, table.Rows[2]["Ответственный"])
	assert.Equal(t, float64(3), table.Rows[2]["Макеты"])
}

func TestWriteMergedWorkbookProjectsGrid(t *testing.T) {
	grid := sheet.Table{
		Header: []string{"Ответственный", "Только в гриде", "Выполнена"},
		Rows:   []report.RawRow{{"Ответственный": "Ivanova", "Только в гриде": "x", "Выполнена": "15.01.2024"}},
	}
	archive := sheet.Table{
		Header: []string{"Название", "Выполнена", "Ответственный"},
		Rows:   []report.RawRow{{"Название": "Banner", "Ответственный": "Petrova"}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteMergedWorkbook(&buf, grid, archive))
	table, err := sheet.ReadTable(&buf)
	require.NoError(t, err)

	assert.Equal(t, archive.Header, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Petrova", table.Rows[0]["Ответственный"])
	assert.Equal(t, report.RawRow{"Ответственный": "Ivanova", "Выполнена": "15.01.2024"}, table.Rows[1])
}

func TestWriteMergedWorkbookWithoutCommonColumns(t *testing.T) {
	grid := sheet.Table{Header: []string{"A"}, Rows: []report.RawRow{{"A": "1"}}}
	archive := sheet.Table{Header: []string{"B"}, Rows: []report.RawRow{{"B": "2"}}}

	var buf bytes.Buffer
	require.NoError(t, WriteMergedWorkbook(&buf, grid, archive))
	table, err := sheet.ReadTable(&buf)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "2", table.Rows[0]["B"])
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, sampleOutput(t), PDFOptions{}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestWritePDFCyrillic(t *testing.T) {
	out, err := report.Generate([]report.RawRow{
		{"Ответственный": "Иванова", "Выполнена": "15.01.2024", "Оценка работы": "9,0", "Количество макетов": "2"},
	}, nil, "Январь", 2024)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, out, PDFOptions{uncompressed: true}))
	assert.True(t, bytes.Contains(buf.Bytes(), utf16BE("Иванова")), "responsible name missing from content stream")
	assert.True(t, bytes.Contains(buf.Bytes(), utf16BE("Ответственный")))
}

func TestWritePDFMissingFont(t *testing.T) {
	err := WritePDF(&bytes.Buffer{}, sampleOutput(t), PDFOptions{FontPath: filepath.Join(t.TempDir(), "absent.ttf")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read pdf font")
}

func utf16BE(s string) []byte {
	var b []byte
	for _, u := range utf16.Encode([]rune(s)) {
		b = append(b, byte(u>>8), byte(u))
	}
	return b
}

func TestParseKind(t *testing.T) {
	for raw, want := range map[string]Kind{"xlsx": KindXLSX, "excel": KindXLSX, "TEXT": KindText, "txt": KindText, "pdf": KindPDF, "merged": KindMerged} {
		got, err := ParseKind(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}
	_, err := ParseKind("csv")
	assert.True(t, errors.Is(err, ErrUnknownArtifact))
}

func newStore(t *testing.T, key string) *SessionStore {
	t.Helper()
	svc, err := crypto.New(key)
	require.NoError(t, err)
	store, err := NewSessionStore(StoreOptions{Root: t.TempDir(), TTL: time.Hour, Crypto: svc})
	require.NoError(t, err)
	return store
}

func TestSessionLifecycle(t *testing.T) {
	store := newStore(t, "")
	out := sampleOutput(t)

	session, err := store.Create(out, sheet.Table{}, sheet.Table{})
	require.NoError(t, err)
	assert.Equal(t, "Отчет_Январь_2024.xlsx", session.DownloadName(KindXLSX))
	assert.Equal(t, "Статистика_Январь_2024.txt", session.DownloadName(KindText))
	assert.Equal(t, "Объединенный_файл_Январь_2024.xlsx", session.DownloadName(KindMerged))

	text, err := store.Open(session.ID, KindText)
	require.NoError(t, err)
	assert.Equal(t, out.TextReport, string(text))

	for _, kind := range Kinds {
		data, err := store.Open(session.ID, kind)
		require.NoError(t, err, kind)
		assert.NotEmpty(t, data, kind)
	}

	_, err = store.Open(session.ID, Kind("csv"))
	assert.ErrorIs(t, err, ErrUnknownArtifact)

	require.NoError(t, store.Delete(session.ID))
	_, err = store.Open(session.ID, KindText)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, store.Delete(session.ID), ErrSessionNotFound)

	_, err = os.Stat(session.dir)
	assert.True(t, os.IsNotExist(err))
}

func TestSessionEncryptedAtRest(t *testing.T) {
	store := newStore(t, "at-rest secret")
	out := sampleOutput(t)
	session, err := store.Create(out, sheet.Table{}, sheet.Table{})
	require.NoError(t, err)

	raw, err := os.ReadFile(session.dir + "/" + artifacts[KindText].file)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(raw), "REPORT FOR"))

	plain, err := store.Open(session.ID, KindText)
	require.NoError(t, err)
	assert.Equal(t, out.TextReport, string(plain))
}

func TestSessionSweep(t *testing.T) {
	store := newStore(t, "")
	start := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return start }

	old, err := store.Create(sampleOutput(t), sheet.Table{}, sheet.Table{})
	require.NoError(t, err)
	store.now = func() time.Time { return start.Add(30 * time.Minute) }
	fresh, err := store.Create(sampleOutput(t), sheet.Table{}, sheet.Table{})
	require.NoError(t, err)

	assert.Equal(t, 0, store.Sweep(start.Add(59*time.Minute)))
	assert.Equal(t, 1, store.Sweep(start.Add(time.Hour)))
	assert.Equal(t, 1, store.Len())

	_, err = store.Get(old.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.Get(fresh.ID)
	assert.NoError(t, err)

	require.NoError(t, store.Close())
	assert.Equal(t, 0, store.Len())
}
