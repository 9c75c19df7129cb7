package youtube

import (
	"fmt"
	"strings"
)

// Reason classifies why no transcript could be fetched. None of them are
// worth retrying within a session.
type Reason string

const (
	ReasonTranscriptsDisabled Reason = "transcripts_disabled"
	ReasonNotFound            Reason = "not_found"
	ReasonUnavailable         Reason = "unavailable"
	ReasonUnknown             Reason = "unknown"
)

// FetchError is returned by TranscriptClient.Fetch. Its message is meant to be
// shown to the user as is.
type FetchError struct {
	Reason  Reason
	VideoID string
	// Languages lists the transcript languages the video does offer. Only set
	// for ReasonNotFound, and only when they could be listed.
	Languages []string
	// Detail is the service's own explanation for ReasonUnavailable.
	Detail string
	Err    error
}

func (e *FetchError) Error() string {
	switch e.Reason {
	case ReasonTranscriptsDisabled:
		return "Transcripts are disabled for this video by the creator."
	case ReasonNotFound:
		if len(e.Languages) == 0 {
			return "No transcript found in the requested language; no languages could be listed."
		}
		return "No transcript found in the requested language. Available languages: " + strings.Join(e.Languages, ", ")
	case ReasonUnavailable:
		if e.Detail == "" {
			return "Video is unavailable."
		}
		return "Video is unavailable: " + e.Detail
	default:
		return fmt.Sprintf("Could not fetch transcript: %v", e.Err)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func unknownError(videoID string, err error) *FetchError {
	return &FetchError{Reason: ReasonUnknown, VideoID: videoID, Err: err}
}
