package indexer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/user/ytlearn/internal/config"
	"github.com/user/ytlearn/internal/db"
	"github.com/user/ytlearn/internal/youtube"
)

const unknownChannel = "Unknown Channel"

// ErrMissingCredential is returned by Ingest when no API key was supplied.
// Nothing is fetched or written, so the reference can be added again once a
// key is configured.
var ErrMissingCredential = errors.New("no API key for the LLM provider; pass --api-key or set it in the config or environment")

// TranscriptFetcher returns the full transcript of a video.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoID string) (string, error)
}

// TextSummarizer turns a transcript into a summary. It never fails; problems
// are reported through a degraded result.
type TextSummarizer interface {
	Summarize(ctx context.Context, transcript, credential string) *SummaryResult
}

// MetadataFetcher looks up display metadata for a video.
type MetadataFetcher interface {
	Fetch(ctx context.Context, videoID string) (youtube.Metadata, error)
}

// RecordStore is the part of db.Store the pipeline writes through.
type RecordStore interface {
	GetByReference(reference string) (*db.VideoRecord, error)
	Insert(r *db.VideoRecord) error
}

// IngestResult is the outcome of a successful or duplicate ingestion.
type IngestResult struct {
	Record *db.VideoRecord
	// Duplicate is set when the reference was already stored. Record is then
	// the existing record and nothing was written.
	Duplicate bool
	// Summary is nil for duplicates.
	Summary *SummaryResult
}

// Degraded reports whether the stored summary is the failure placeholder.
func (r *IngestResult) Degraded() bool {
	return r.Summary != nil && r.Summary.Degraded()
}

// Indexer runs the resolve, fetch, summarize, store pipeline for one
// reference at a time.
type Indexer struct {
	store       RecordStore
	transcripts TranscriptFetcher
	summarizer  TextSummarizer
	metadata    MetadataFetcher
	logger      *zap.Logger
}

func NewIndexer(store RecordStore, transcripts TranscriptFetcher, summarizer TextSummarizer, metadata MetadataFetcher, logger *zap.Logger) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{
		store:       store,
		transcripts: transcripts,
		summarizer:  summarizer,
		metadata:    metadata,
		logger:      logger,
	}
}

// New wires the YouTube clients and the configured summarizer around store.
func New(cfg *config.Config, store RecordStore, logger *zap.Logger) *Indexer {
	return NewIndexer(
		store,
		youtube.NewTranscriptClient(cfg.Transcript.Languages, cfg.Transcript.Timeout, logger),
		NewSummarizer(cfg, logger),
		youtube.NewMetadataClient(cfg.Transcript.Timeout),
		logger,
	)
}

// Ingest stores a summarized record for reference. A reference that is
// already stored returns the existing record with an error wrapping
// db.ErrDuplicate. Resolution and transcript failures abort before anything
// is written; a failed summary does not. An empty credential is rejected up
// front with ErrMissingCredential.
func (ix *Indexer) Ingest(ctx context.Context, reference, credential string) (*IngestResult, error) {
	log := ix.logger.With(zap.String("reference", reference))

	if credential == "" {
		return nil, ErrMissingCredential
	}

	videoID, err := youtube.ResolveVideoID(reference)
	if err != nil {
		return nil, err
	}

	existing, err := ix.store.GetByReference(reference)
	if err != nil {
		return nil, fmt.Errorf("failed to look up reference: %w", err)
	}
	if existing != nil {
		log.Info("reference already stored", zap.String("id", existing.ID))
		return &IngestResult{Record: existing, Duplicate: true}, fmt.Errorf("%s: %w", reference, db.ErrDuplicate)
	}

	log.Debug("fetching transcript", zap.String("video_id", videoID))
	transcript, err := ix.transcripts.Fetch(ctx, videoID)
	if err != nil {
		return nil, err
	}

	summary := ix.summarizer.Summarize(ctx, transcript, credential)
	if summary.Degraded() {
		log.Warn("storing degraded summary", zap.Error(summary.Err))
	}

	title, channel := ix.lookupMetadata(ctx, videoID)

	record := &db.VideoRecord{
		Reference:  reference,
		VideoID:    videoID,
		Title:      title,
		Channel:    channel,
		Transcript: transcript,
		Summary:    summary.Summary,
		Keywords:   summary.Keywords,
	}
	if err := ix.store.Insert(record); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, fmt.Errorf("%s: %w", reference, err)
		}
		return nil, err
	}

	log.Info("video ingested", zap.String("id", record.ID), zap.Bool("degraded", summary.Degraded()))
	return &IngestResult{Record: record, Summary: summary}, nil
}

// lookupMetadata falls back to placeholders when the lookup fails or comes
// back empty.
func (ix *Indexer) lookupMetadata(ctx context.Context, videoID string) (title, channel string) {
	title = "Video " + videoID
	channel = unknownChannel
	if ix.metadata == nil {
		return title, channel
	}

	meta, err := ix.metadata.Fetch(ctx, videoID)
	if err != nil {
		ix.logger.Debug("metadata lookup failed", zap.String("video_id", videoID), zap.Error(err))
		return title, channel
	}
	if meta.Title != "" {
		title = meta.Title
	}
	if meta.Channel != "" {
		channel = meta.Channel
	}
	return title, channel
}

// AddVideo opens the store in cfg.DataDir, ingests reference and closes the
// store again.
func AddVideo(ctx context.Context, cfg *config.Config, reference, credential string, logger *zap.Logger) (*IngestResult, error) {
	store, err := db.NewStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	return New(cfg, store, logger).Ingest(ctx, reference, credential)
}
