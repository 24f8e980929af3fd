// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package library persists users, uploaded videos and their ratings and
// comments in SQLite.
package library

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique constraint would be violated.
	ErrConflict = errors.New("already exists")
	// ErrInvalidInput is returned for values outside their documented domain.
	ErrInvalidInput = errors.New("invalid input")
	// ErrForbidden is returned when a user may not see a record.
	ErrForbidden = errors.New("forbidden")
)

const (
	MaxUsernameLen = 32
	MaxCommentLen  = 500
	MinStars       = 1
	MaxStars       = 5
	MaxSubjectLen  = 120
	MaxMessageLen  = 1200
)

// User is an account that can upload, rate and comment.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// Video is an uploaded media asset. Filename is always a generated storage
// name; OriginalName keeps what the uploader sent.
type Video struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Filename      string    `json:"filename"`
	Ext           string    `json:"ext"`
	OriginalName  string    `json:"original_name"`
	ThumbFilename string    `json:"thumb_filename,omitempty"`
	UploaderID    int64     `json:"uploader_id"`
	Uploader      string    `json:"uploader,omitempty"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

// Comment is a short text attached to a video.
type Comment struct {
	ID        int64     `json:"id"`
	VideoID   int64     `json:"video_id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// RatingSummary aggregates the star ratings of a video.
type RatingSummary struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

// Message is a private note between two users.
type Message struct {
	ID          int64     `json:"id"`
	SenderID    int64     `json:"sender_id"`
	Sender      string    `json:"sender"`
	RecipientID int64     `json:"recipient_id"`
	Recipient   string    `json:"recipient"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}

// Profile is the public view of a user.
type Profile struct {
	User     User    `json:"user"`
	Videos   []Video `json:"videos"`
	Comments int     `json:"comments"`
	Ratings  int     `json:"ratings"`
}
