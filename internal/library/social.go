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
	"unicode/utf8"
)

func (s *Store) videoExists(ctx context.Context, id int64) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM videos WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup video %d: %w", id, err)
	}
	return nil
}

// RateVideo records (or replaces) userID's star rating for videoID and
// returns the updated summary.
func (s *Store) RateVideo(ctx context.Context, videoID, userID int64, stars int) (RatingSummary, error) {
	if stars < MinStars || stars > MaxStars {
		return RatingSummary{}, fmt.Errorf("%w: stars must be between %d and %d", ErrInvalidInput, MinStars, MaxStars)
	}
	if err := s.videoExists(ctx, videoID); err != nil {
		return RatingSummary{}, err
	}
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO ratings (video_id, user_id, stars) VALUES (?, ?, ?)
	ON CONFLICT(video_id, user_id) DO UPDATE SET stars = excluded.stars
	`, videoID, userID, stars)
	if err != nil {
		return RatingSummary{}, fmt.Errorf("rate video %d: %w", videoID, err)
	}
	return s.Ratings(ctx, videoID)
}

// Ratings returns the rating count and average for videoID.
func (s *Store) Ratings(ctx context.Context, videoID int64) (RatingSummary, error) {
	var sum RatingSummary
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(AVG(stars), 0) FROM ratings WHERE video_id = ?`, videoID,
	).Scan(&sum.Count, &sum.Average)
	if err != nil {
		return RatingSummary{}, fmt.Errorf("rating summary %d: %w", videoID, err)
	}
	return sum, nil
}

// AddComment attaches body to videoID. Bodies are trimmed and must hold
// between 1 and MaxCommentLen characters.
func (s *Store) AddComment(ctx context.Context, videoID, userID int64, body string) (Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" || utf8.RuneCountInString(body) > MaxCommentLen {
		return Comment{}, fmt.Errorf("%w: comment must be 1-%d characters", ErrInvalidInput, MaxCommentLen)
	}
	if err := s.videoExists(ctx, videoID); err != nil {
		return Comment{}, err
	}
	created := s.timestamp()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO comments (video_id, user_id, body, created_at) VALUES (?, ?, ?, ?)`,
		videoID, userID, body, created)
	if err != nil {
		return Comment{}, fmt.Errorf("add comment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Comment{}, fmt.Errorf("add comment id: %w", err)
	}
	c := Comment{ID: id, VideoID: videoID, UserID: userID, Body: body, CreatedAt: parseTime(created)}
	_ = s.db.QueryRowContext(ctx, `SELECT username FROM users WHERE id = ?`, userID).Scan(&c.Username)
	return c, nil
}

// ListComments returns up to limit comments on videoID, newest first.
func (s *Store) ListComments(ctx context.Context, videoID int64, limit int) ([]Comment, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.db.QueryContext(ctx, `
	SELECT c.id, c.video_id, c.user_id, u.username, c.body, c.created_at
	FROM comments c JOIN users u ON u.id = c.user_id
	WHERE c.video_id = ?
	ORDER BY c.created_at DESC, c.id DESC
	LIMIT ?
	`, videoID, limit)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	comments := make([]Comment, 0)
	for rows.Next() {
		var c Comment
		var created string
		if err := rows.Scan(&c.ID, &c.VideoID, &c.UserID, &c.Username, &c.Body, &created); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		c.CreatedAt = parseTime(created)
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
