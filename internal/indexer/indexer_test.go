package indexer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/user/ytlearn/internal/db"
	"github.com/user/ytlearn/internal/youtube"
)

type fakeTranscripts struct {
	text  string
	err   error
	calls int
}

func (f *fakeTranscripts) Fetch(ctx context.Context, videoID string) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeSummarizer struct {
	result     *SummaryResult
	calls      int
	credential string
}

func (f *fakeSummarizer) Summarize(ctx context.Context, transcript, credential string) *SummaryResult {
	f.calls++
	f.credential = credential
	return f.result
}

type fakeMetadata struct {
	meta youtube.Metadata
	err  error
}

func (f *fakeMetadata) Fetch(ctx context.Context, videoID string) (youtube.Metadata, error) {
	return f.meta, f.err
}

func okSummary() *SummaryResult {
	return &SummaryResult{Status: StatusOK, Summary: "- point", Keywords: "go, testing"}
}

func newTestStore(t *testing.T) *db.Store {
	t.Helper()
	store, err := db.NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestIngestStoresRecord(t *testing.T) {
	store := newTestStore(t)
	transcripts := &fakeTranscripts{text: "hello world"}
	summarizer := &fakeSummarizer{result: okSummary()}
	meta := &fakeMetadata{meta: youtube.Metadata{Title: "Intro", Channel: "Gophers"}}
	ix := NewIndexer(store, transcripts, summarizer, meta, zaptest.NewLogger(t))

	res, err := ix.Ingest(context.Background(), "https://www.youtube.com/watch?v=abc123", "sk-test")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.False(t, res.Duplicate)
	assert.False(t, res.Degraded())
	assert.Equal(t, "sk-test", summarizer.credential)

	got, err := store.GetByReference("https://www.youtube.com/watch?v=abc123")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, res.Record.ID, got.ID)
	assert.Equal(t, "abc123", got.VideoID)
	assert.Equal(t, "Intro", got.Title)
	assert.Equal(t, "Gophers", got.Channel)
	assert.Equal(t, "hello world", got.Transcript)
	assert.Equal(t, "- point", got.Summary)
	assert.Equal(t, "go, testing", got.Keywords)
}

func TestIngestIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	transcripts := &fakeTranscripts{text: "hello world"}
	summarizer := &fakeSummarizer{result: okSummary()}
	ix := NewIndexer(store, transcripts, summarizer, nil, zaptest.NewLogger(t))

	first, err := ix.Ingest(context.Background(), "https://youtu.be/abc123", "key")
	require.NoError(t, err)

	second, err := ix.Ingest(context.Background(), "https://youtu.be/abc123", "key")
	require.Error(t, err)
	assert.True(t, errors.Is(err, db.ErrDuplicate))
	require.NotNil(t, second)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Record.ID, second.Record.ID)

	assert.Equal(t, 1, transcripts.calls, "duplicate must not refetch")
	assert.Equal(t, 1, summarizer.calls, "duplicate must not resummarize")

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIngestSameVideoDifferentReference(t *testing.T) {
	store := newTestStore(t)
	ix := NewIndexer(store, &fakeTranscripts{text: "t"}, &fakeSummarizer{result: okSummary()}, nil, zaptest.NewLogger(t))

	_, err := ix.Ingest(context.Background(), "https://youtu.be/abc123", "key")
	require.NoError(t, err)
	_, err = ix.Ingest(context.Background(), "https://www.youtube.com/watch?v=abc123", "key")
	require.NoError(t, err)

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestIngestTranscriptsDisabled(t *testing.T) {
	store := newTestStore(t)
	transcripts := &fakeTranscripts{err: &youtube.FetchError{Reason: youtube.ReasonTranscriptsDisabled, VideoID: "abc123"}}
	summarizer := &fakeSummarizer{result: okSummary()}
	ix := NewIndexer(store, transcripts, summarizer, nil, zaptest.NewLogger(t))

	res, err := ix.Ingest(context.Background(), "https://youtu.be/abc123", "key")
	assert.Nil(t, res)
	require.Error(t, err)
	assert.Equal(t, "Transcripts are disabled for this video by the creator.", err.Error())

	var fe *youtube.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, youtube.ReasonTranscriptsDisabled, fe.Reason)
	assert.Equal(t, 0, summarizer.calls)

	got, err := store.GetByReference("https://youtu.be/abc123")
	require.NoError(t, err)
	assert.Nil(t, got, "nothing may be written")
}

func TestIngestStoresDegradedSummary(t *testing.T) {
	store := newTestStore(t)
	summarizer := &fakeSummarizer{result: &SummaryResult{
		Status:  StatusDegraded,
		Summary: DegradedSummary,
		Err:     &SummarizeError{Provider: "openai", Err: errors.New("quota exceeded")},
	}}
	meta := &fakeMetadata{err: errors.New("oembed down")}
	ix := NewIndexer(store, &fakeTranscripts{text: "transcript"}, summarizer, meta, zaptest.NewLogger(t))

	res, err := ix.Ingest(context.Background(), "https://youtu.be/xyz789", "key")
	require.NoError(t, err)
	assert.True(t, res.Degraded())

	got, err := store.GetByReference("https://youtu.be/xyz789")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Summary generation failed", got.Summary)
	assert.Empty(t, got.Keywords)
	assert.Equal(t, "transcript", got.Transcript)
	assert.Equal(t, "Video xyz789", got.Title)
	assert.Equal(t, "Unknown Channel", got.Channel)
}

func TestIngestRejectsUnrecognizedReference(t *testing.T) {
	store := newTestStore(t)
	transcripts := &fakeTranscripts{text: "t"}
	ix := NewIndexer(store, transcripts, &fakeSummarizer{result: okSummary()}, nil, zaptest.NewLogger(t))

	res, err := ix.Ingest(context.Background(), "https://vimeo.com/1234", "key")
	assert.Nil(t, res)
	require.Error(t, err)
	assert.True(t, errors.Is(err, youtube.ErrNotRecognized))
	assert.Equal(t, 0, transcripts.calls)

	count, err := store.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

// racingStore reports no existing record but rejects the insert, as happens
// when another writer stores the same reference in between.
type racingStore struct{}

func (racingStore) GetByReference(string) (*db.VideoRecord, error) { return nil, nil }
func (racingStore) Insert(*db.VideoRecord) error                   { return db.ErrDuplicate }

func TestIngestLostInsertRace(t *testing.T) {
	ix := NewIndexer(racingStore{}, &fakeTranscripts{text: "t"}, &fakeSummarizer{result: okSummary()}, nil, zaptest.NewLogger(t))

	res, err := ix.Ingest(context.Background(), "https://youtu.be/abc123", "key")
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, db.ErrDuplicate))
}

func TestIngestRejectsMissingCredential(t *testing.T) {
	store := newTestStore(t)
	transcripts := &fakeTranscripts{text: "t"}
	summarizer := &fakeSummarizer{result: okSummary()}
	ix := NewIndexer(store, transcripts, summarizer, nil, zaptest.NewLogger(t))

	res, err := ix.Ingest(context.Background(), "https://youtu.be/abc123", "")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Equal(t, 0, transcripts.calls)
	assert.Equal(t, 0, summarizer.calls)

	// Nothing was stored, so the same reference goes through once a key is set.
	res, err = ix.Ingest(context.Background(), "https://youtu.be/abc123", "sk-real")
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
	assert.Equal(t, "sk-real", summarizer.credential)
}
