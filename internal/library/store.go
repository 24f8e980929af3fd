// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Store provides SQLite persistence for the video library.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore wraps an open database and creates missing tables.
func NewStore(ctx context.Context, db *sql.DB) (*Store, error) {
	s := &Store{db: db, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the schema. Existing tables are left untouched.
func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		is_admin INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS videos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		filename TEXT NOT NULL UNIQUE,
		ext TEXT NOT NULL,
		original_name TEXT NOT NULL,
		thumb_filename TEXT,
		uploaded_at TEXT NOT NULL,
		uploader_id INTEGER NOT NULL REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		video_id INTEGER NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
		user_id INTEGER NOT NULL REFERENCES users(id),
		body TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ratings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		video_id INTEGER NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
		user_id INTEGER NOT NULL REFERENCES users(id),
		stars INTEGER NOT NULL CHECK(stars BETWEEN 1 AND 5),
		UNIQUE(video_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS favorites (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		video_id INTEGER NOT NULL REFERENCES videos(id) ON DELETE CASCADE,
		user_id INTEGER NOT NULL REFERENCES users(id),
		created_at TEXT NOT NULL,
		UNIQUE(video_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sender_id INTEGER NOT NULL REFERENCES users(id),
		recipient_id INTEGER NOT NULL REFERENCES users(id),
		subject TEXT NOT NULL,
		body TEXT NOT NULL,
		created_at TEXT NOT NULL,
		is_read INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_videos_uploaded_at ON videos(uploaded_at);
	CREATE INDEX IF NOT EXISTS idx_videos_uploader ON videos(uploader_id);
	CREATE INDEX IF NOT EXISTS idx_favorites_user ON favorites(user_id);
	CREATE INDEX IF NOT EXISTS idx_messages_recipient ON messages(recipient_id);
	CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender_id);
	CREATE INDEX IF NOT EXISTS idx_comments_video ON comments(video_id, created_at);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *Store) timestamp() string {
	return s.now().UTC().Truncate(time.Second).Format(time.RFC3339)
}

func parseTime(v string) time.Time {
	t, _ := time.Parse(time.RFC3339, v)
	return t
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch code := se.Code(); {
	case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	case code&0xff == sqlite3.SQLITE_CONSTRAINT:
		// Extended result codes disabled on this connection.
		return strings.Contains(se.Error(), "UNIQUE")
	}
	return false
}

// CreateVideo inserts v and returns it with ID and UploadedAt populated.
func (s *Store) CreateVideo(ctx context.Context, v Video) (Video, error) {
	v.Title = strings.TrimSpace(v.Title)
	if v.Title == "" || v.Filename == "" || v.Ext == "" || v.UploaderID <= 0 {
		return Video{}, fmt.Errorf("%w: video requires title, filename, ext and uploader", ErrInvalidInput)
	}
	if v.UploadedAt.IsZero() {
		v.UploadedAt = parseTime(s.timestamp())
	}

	var thumb sql.NullString
	if v.ThumbFilename != "" {
		thumb = sql.NullString{String: v.ThumbFilename, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
	INSERT INTO videos (title, filename, ext, original_name, thumb_filename, uploaded_at, uploader_id)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`, v.Title, v.Filename, v.Ext, v.OriginalName, thumb, v.UploadedAt.UTC().Format(time.RFC3339), v.UploaderID)
	if err != nil {
		if isUniqueViolation(err) {
			return Video{}, fmt.Errorf("video %s: %w", v.Filename, ErrConflict)
		}
		return Video{}, fmt.Errorf("insert video: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Video{}, fmt.Errorf("insert video id: %w", err)
	}
	v.ID = id
	return v, nil
}

const videoColumns = `v.id, v.title, v.filename, v.ext, v.original_name, v.thumb_filename, v.uploaded_at, v.uploader_id, u.username`

func scanVideo(scan func(dest ...any) error) (Video, error) {
	var v Video
	var thumb sql.NullString
	var uploadedAt string
	if err := scan(&v.ID, &v.Title, &v.Filename, &v.Ext, &v.OriginalName, &thumb, &uploadedAt, &v.UploaderID, &v.Uploader); err != nil {
		return Video{}, err
	}
	v.ThumbFilename = thumb.String
	v.UploadedAt = parseTime(uploadedAt)
	return v, nil
}

// GetVideo returns the video with id.
func (s *Store) GetVideo(ctx context.Context, id int64) (Video, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT `+videoColumns+`
	FROM videos v JOIN users u ON u.id = v.uploader_id
	WHERE v.id = ?
	`, id)
	v, err := scanVideo(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Video{}, ErrNotFound
	}
	if err != nil {
		return Video{}, fmt.Errorf("get video %d: %w", id, err)
	}
	return v, nil
}

// ListVideos returns up to limit videos, newest first.
func (s *Store) ListVideos(ctx context.Context, limit int) ([]Video, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.queryVideos(ctx, `
	SELECT `+videoColumns+`
	FROM videos v JOIN users u ON u.id = v.uploader_id
	ORDER BY v.uploaded_at DESC, v.id DESC
	LIMIT ?
	`, limit)
}

// ListVideosByUploader returns up to limit videos uploaded by userID,
// newest first.
func (s *Store) ListVideosByUploader(ctx context.Context, userID int64, limit int) ([]Video, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.queryVideos(ctx, `
	SELECT `+videoColumns+`
	FROM videos v JOIN users u ON u.id = v.uploader_id
	WHERE v.uploader_id = ?
	ORDER BY v.id DESC
	LIMIT ?
	`, userID, limit)
}

func (s *Store) queryVideos(ctx context.Context, query string, args ...any) ([]Video, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer func() { _ = rows.Close() }()

	videos := make([]Video, 0)
	for rows.Next() {
		v, err := scanVideo(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// DeleteVideo removes the record with id together with its ratings and
// comments, and returns the deleted record so callers can remove files.
func (s *Store) DeleteVideo(ctx context.Context, id int64) (Video, error) {
	v, err := s.GetVideo(ctx, id)
	if err != nil {
		return Video{}, err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM videos WHERE id = ?`, id)
	if err != nil {
		return Video{}, fmt.Errorf("delete video %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Video{}, ErrNotFound
	}
	return v, nil
}
