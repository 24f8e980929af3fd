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

const extrasPageSize = 200

// ToggleFavorite adds videoID to userID's favorites, or removes it when it
// is already there. It reports whether the video is a favorite afterwards.
func (s *Store) ToggleFavorite(ctx context.Context, videoID, userID int64) (bool, error) {
	if err := s.videoExists(ctx, videoID); err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE video_id = ? AND user_id = ?`, videoID, userID)
	if err != nil {
		return false, fmt.Errorf("remove favorite: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return false, nil
	}
	_, err = s.db.ExecContext(ctx, `
	INSERT INTO favorites (video_id, user_id, created_at) VALUES (?, ?, ?)
	ON CONFLICT(video_id, user_id) DO NOTHING
	`, videoID, userID, s.timestamp())
	if err != nil {
		return false, fmt.Errorf("add favorite: %w", err)
	}
	return true, nil
}

// ListFavorites returns up to limit of userID's favorite videos, most
// recently added first.
func (s *Store) ListFavorites(ctx context.Context, userID int64, limit int) ([]Video, error) {
	if limit <= 0 {
		limit = extrasPageSize
	}
	return s.queryVideos(ctx, `
	SELECT `+videoColumns+`
	FROM favorites f
	JOIN videos v ON v.id = f.video_id
	JOIN users u ON u.id = v.uploader_id
	WHERE f.user_id = ?
	ORDER BY f.id DESC
	LIMIT ?
	`, userID, limit)
}

// SendMessage stores a message from senderID to the user named to.
// Subject and body are trimmed; both are required and bounded by
// MaxSubjectLen and MaxMessageLen. An unknown recipient is invalid input.
func (s *Store) SendMessage(ctx context.Context, senderID int64, to, subject, body string) (Message, error) {
	to = strings.TrimSpace(to)
	subject = strings.TrimSpace(subject)
	body = strings.TrimSpace(body)
	switch {
	case to == "" || subject == "" || body == "":
		return Message{}, fmt.Errorf("%w: to, subject and body are required", ErrInvalidInput)
	case utf8.RuneCountInString(subject) > MaxSubjectLen:
		return Message{}, fmt.Errorf("%w: subject too long (max %d)", ErrInvalidInput, MaxSubjectLen)
	case utf8.RuneCountInString(body) > MaxMessageLen:
		return Message{}, fmt.Errorf("%w: message too long (max %d)", ErrInvalidInput, MaxMessageLen)
	}

	recipient, err := s.UserByName(ctx, to)
	if errors.Is(err, ErrNotFound) {
		return Message{}, fmt.Errorf("%w: user %s not found", ErrInvalidInput, to)
	}
	if err != nil {
		return Message{}, err
	}

	created := s.timestamp()
	res, err := s.db.ExecContext(ctx, `
	INSERT INTO messages (sender_id, recipient_id, subject, body, created_at)
	VALUES (?, ?, ?, ?, ?)
	`, senderID, recipient.ID, subject, body, created)
	if err != nil {
		return Message{}, fmt.Errorf("send message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Message{}, fmt.Errorf("send message id: %w", err)
	}
	return s.message(ctx, id)
}

const messageColumns = `m.id, m.sender_id, su.username, m.recipient_id, ru.username,
	m.subject, m.body, m.is_read, m.created_at`

const messageFrom = `FROM messages m
	JOIN users su ON su.id = m.sender_id
	JOIN users ru ON ru.id = m.recipient_id`

func scanMessage(scan func(...any) error) (Message, error) {
	var m Message
	var created string
	if err := scan(&m.ID, &m.SenderID, &m.Sender, &m.RecipientID, &m.Recipient,
		&m.Subject, &m.Body, &m.Read, &created); err != nil {
		return Message{}, err
	}
	m.CreatedAt = parseTime(created)
	return m, nil
}

func (s *Store) message(ctx context.Context, id int64) (Message, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+messageColumns+` `+messageFrom+` WHERE m.id = ?`, id)
	m, err := scanMessage(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Message{}, ErrNotFound
	}
	if err != nil {
		return Message{}, fmt.Errorf("get message %d: %w", id, err)
	}
	return m, nil
}

// Inbox returns up to limit messages received by userID, newest first.
func (s *Store) Inbox(ctx context.Context, userID int64, limit int) ([]Message, error) {
	return s.queryMessages(ctx, "m.recipient_id", userID, limit)
}

// Sent returns up to limit messages sent by userID, newest first.
func (s *Store) Sent(ctx context.Context, userID int64, limit int) ([]Message, error) {
	return s.queryMessages(ctx, "m.sender_id", userID, limit)
}

// column is one of two constants above, never user input.
func (s *Store) queryMessages(ctx context.Context, column string, userID int64, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = extrasPageSize
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+messageColumns+` `+messageFrom+` WHERE `+column+` = ? ORDER BY m.id DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	msgs := make([]Message, 0)
	for rows.Next() {
		m, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// ReadMessage returns message id to its sender or recipient. Anyone else
// gets ErrForbidden. The first read by the recipient marks it read.
func (s *Store) ReadMessage(ctx context.Context, id, userID int64) (Message, error) {
	m, err := s.message(ctx, id)
	if err != nil {
		return Message{}, err
	}
	if m.SenderID != userID && m.RecipientID != userID {
		return Message{}, ErrForbidden
	}
	if m.RecipientID == userID && !m.Read {
		if _, err := s.db.ExecContext(ctx, `UPDATE messages SET is_read = 1 WHERE id = ?`, id); err != nil {
			return Message{}, fmt.Errorf("mark message %d read: %w", id, err)
		}
		m.Read = true
	}
	return m, nil
}

// ProfileByName returns the named user's public profile with their latest
// uploads and activity counts.
func (s *Store) ProfileByName(ctx context.Context, username string) (Profile, error) {
	u, err := s.UserByName(ctx, strings.TrimSpace(username))
	if err != nil {
		return Profile{}, err
	}
	videos, err := s.ListVideosByUploader(ctx, u.ID, 100)
	if err != nil {
		return Profile{}, err
	}
	p := Profile{User: u, Videos: videos}
	err = s.db.QueryRowContext(ctx, `
	SELECT
		(SELECT COUNT(*) FROM comments WHERE user_id = ?),
		(SELECT COUNT(*) FROM ratings WHERE user_id = ?)
	`, u.ID, u.ID).Scan(&p.Comments, &p.Ratings)
	if err != nil {
		return Profile{}, fmt.Errorf("profile counts %s: %w", u.Username, err)
	}
	return p, nil
}
