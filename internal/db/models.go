package db

import "time"

// VideoRecord is one ingested video. Transcript is only populated by the
// single-record lookups (Get, GetByReference); Search and List leave it empty.
type VideoRecord struct {
	ID         string    `json:"id"`
	Reference  string    `json:"reference"`
	VideoID    string    `json:"video_id"`
	Title      string    `json:"title"`
	Channel    string    `json:"channel"`
	Transcript string    `json:"transcript,omitempty"`
	Summary    string    `json:"summary"`
	Keywords   string    `json:"keywords"`
	CreatedAt  time.Time `json:"created_at"`
}
