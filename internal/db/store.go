package db

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// ErrDuplicate is returned by Insert when a record with the same reference
// already exists.
var ErrDuplicate = errors.New("video already in repository")

// StoreError wraps an underlying persistence failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(dataDir string) (*Store, error) {
	return Open(filepath.Join(dataDir, "ytlearn.db"))
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, &StoreError{Op: "open", Err: err}
	}

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, &StoreError{Op: "migrate", Err: err}
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS videos (
		id TEXT PRIMARY KEY,
		video_url TEXT NOT NULL UNIQUE,
		video_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		channel TEXT NOT NULL DEFAULT '',
		transcript TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL DEFAULT '',
		keywords TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_videos_created_at ON videos(created_at);
	CREATE INDEX IF NOT EXISTS idx_videos_video_id ON videos(video_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Insert writes r as a new record. ID and CreatedAt are assigned here and
// copied back into r. The write is a single statement, so a record is either
// stored whole or not at all.
func (s *Store) Insert(r *VideoRecord) error {
	id := uuid.New().String()
	createdAt := s.now().UTC()

	_, err := s.db.Exec(`
		INSERT INTO videos (id, video_url, video_id, title, channel, transcript, summary, keywords, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, r.Reference, r.VideoID, r.Title, r.Channel, r.Transcript, r.Summary, r.Keywords, createdAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return &StoreError{Op: "insert", Err: err}
	}

	r.ID = id
	r.CreatedAt = createdAt
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

const fullColumns = `id, video_url, video_id, title, channel, transcript, summary, keywords, created_at`

// listColumns leaves out the transcript, which can be very large.
const listColumns = `id, video_url, video_id, title, channel, summary, keywords, created_at`

// Get returns the full record with the given surrogate ID, or nil when none exists.
func (s *Store) Get(id string) (*VideoRecord, error) {
	return s.getOne(`SELECT `+fullColumns+` FROM videos WHERE id = ?`, id)
}

// GetByReference returns the full record stored under the exact reference
// string, or nil when none exists.
func (s *Store) GetByReference(reference string) (*VideoRecord, error) {
	return s.getOne(`SELECT `+fullColumns+` FROM videos WHERE video_url = ?`, reference)
}

func (s *Store) getOne(query string, arg string) (*VideoRecord, error) {
	var r VideoRecord
	err := s.db.QueryRow(query, arg).Scan(
		&r.ID, &r.Reference, &r.VideoID, &r.Title, &r.Channel, &r.Transcript, &r.Summary, &r.Keywords, &r.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &StoreError{Op: "get", Err: err}
	}
	return &r, nil
}

// DefaultListLimit is used by List when the caller passes a non-positive limit.
const DefaultListLimit = 50

// List returns records newest first, without transcripts.
func (s *Store) List(limit int) ([]VideoRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.db.Query(`SELECT `+listColumns+` FROM videos ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}
	return scanRecords(rows, "list")
}

func (s *Store) Count() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM videos`).Scan(&count); err != nil {
		return 0, &StoreError{Op: "count", Err: err}
	}
	return count, nil
}

func scanRecords(rows *sql.Rows, op string) ([]VideoRecord, error) {
	defer rows.Close()

	records := []VideoRecord{}
	for rows.Next() {
		var r VideoRecord
		if err := rows.Scan(&r.ID, &r.Reference, &r.VideoID, &r.Title, &r.Channel, &r.Summary, &r.Keywords, &r.CreatedAt); err != nil {
			return nil, &StoreError{Op: op, Err: err}
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: op, Err: err}
	}
	return records, nil
}
