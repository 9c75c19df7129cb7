package youtube

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrNotRecognized means no known YouTube URL shape matched the reference.
var ErrNotRecognized = errors.New("not a recognized YouTube URL")

// ResolutionError reports a reference that could not be resolved to a video
// ID. It is a user input problem and should not be retried.
type ResolutionError struct {
	Reference string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("invalid YouTube URL %q: %v", e.Reference, ErrNotRecognized)
}

func (e *ResolutionError) Unwrap() error {
	return ErrNotRecognized
}

// Checked in order; the first match wins. The ID runs up to the next query
// separator, fragment or line break.
var referencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([^&\n?#]+)`),
	regexp.MustCompile(`youtube\.com/embed/([^&\n?#]+)`),
}

// ResolveVideoID extracts the video ID from a watch URL, a youtu.be short
// link or an embed URL. The reference is not normalized in any other way.
func ResolveVideoID(reference string) (string, error) {
	for _, re := range referencePatterns {
		if m := re.FindStringSubmatch(reference); len(m) == 2 && m[1] != "" {
			return m[1], nil
		}
	}
	return "", &ResolutionError{Reference: reference}
}
