package delivery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"designreport/internal/domain/export"
	"designreport/internal/domain/report"
	"designreport/internal/domain/runs"
	"designreport/internal/integrations/kaiten"
	"designreport/internal/integrations/slack"
	"designreport/internal/platform/metrics"
)

type fakeArtifacts map[export.Kind][]byte

func (f fakeArtifacts) Open(_ string, kind export.Kind) ([]byte, error) {
	data, ok := f[kind]
	if !ok {
		return nil, export.ErrSessionNotFound
	}
	return data, nil
}

type fakeTracker struct {
	files    []kaiten.File
	comments []string
	err      error
}

func (f *fakeTracker) AttachFiles(_ context.Context, _ string, files []kaiten.File) error {
	if f.err != nil {
		return f.err
	}
	f.files = append(f.files, files...)
	return nil
}

func (f *fakeTracker) Comment(_ context.Context, _ string, text string) error {
	f.comments = append(f.comments, text)
	return nil
}

type fakeChat struct {
	text  string
	files []slack.Attachment
}

func (f *fakeChat) Announce(_ context.Context, text string, files []slack.Attachment) error {
	f.text = text
	f.files = files
	return nil
}

func testSession() *export.Session {
	return &export.Session{
		ID:         "s1",
		Period:     report.Period{Year: 2024, Month: time.January},
		TextReport: "summary",
	}
}

func TestJobsDisabled(t *testing.T) {
	svc := New(fakeArtifacts{}, Options{})
	assert.False(t, svc.Enabled())
	jobs, err := svc.Jobs(testSession())
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestJobsPushToBothTargets(t *testing.T) {
	tracker := &fakeTracker{}
	chat := &fakeChat{}
	artifacts := fakeArtifacts{export.KindXLSX: []byte("xlsx"), export.KindPDF: []byte("pdf")}
	svc := New(artifacts, Options{Tracker: tracker, CardID: "42", Chat: chat})

	jobs, err := svc.Jobs(testSession())
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, runs.KindKaitenPush, jobs[0].Kind)
	assert.Equal(t, runs.KindSlackPush, jobs[1].Kind)
	assert.Equal(t, "2024-01", jobs[0].Period)

	for _, j := range jobs {
		require.NoError(t, j.Run(context.Background()))
	}
	require.Len(t, tracker.files, 2)
	assert.Equal(t, "Отчет_Январь_2024.xlsx", tracker.files[0].Name)
	assert.Equal(t, []byte("pdf"), tracker.files[1].Data)
	assert.Equal(t, []string{"summary"}, tracker.comments)
	assert.Equal(t, "summary", chat.text)
	require.Len(t, chat.files, 1)
}

func TestJobsCountFailures(t *testing.T) {
	tracker := &fakeTracker{err: errors.New("boom")}
	collector := metrics.New()
	artifacts := fakeArtifacts{export.KindXLSX: []byte("xlsx"), export.KindPDF: []byte("pdf")}
	svc := New(artifacts, Options{Tracker: tracker, CardID: "42", Metrics: collector})

	jobs, err := svc.Jobs(testSession())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Error(t, jobs[0].Run(context.Background()))
	assert.Empty(t, tracker.comments)
	assert.Equal(t, uint64(1), collector.Snapshot()["pushesFailedTotal"])
}

func TestJobsMissingArtifacts(t *testing.T) {
	svc := New(fakeArtifacts{}, Options{Chat: &fakeChat{}})
	_, err := svc.Jobs(testSession())
	require.ErrorIs(t, err, export.ErrSessionNotFound)
}
