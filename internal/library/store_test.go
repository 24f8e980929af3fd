// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package library

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ManuGH/oldtube/internal/persistence/sqlite"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "library.db"), sqlite.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s, err := NewStore(ctx, db)
	require.NoError(t, err)
	return s
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.migrate(context.Background()))
	require.NoError(t, s.Ping(context.Background()))
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	alice, err := s.CreateUser(ctx, "alice", false)
	require.NoError(t, err)
	require.NotZero(t, alice.ID)

	_, err = s.CreateUser(ctx, "alice", false)
	require.ErrorIs(t, err, ErrConflict)

	for _, bad := range []string{"", "has space", strings.Repeat("x", 33), "semi;colon"} {
		_, err = s.CreateUser(ctx, bad, false)
		require.ErrorIs(t, err, ErrInvalidInput, bad)
	}

	got, err := s.UserByName(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, alice.ID, got.ID)
	require.False(t, got.IsAdmin)

	_, err = s.UserByName(ctx, "bob")
	require.ErrorIs(t, err, ErrNotFound)

	promoted, err := s.EnsureUser(ctx, "alice", true)
	require.NoError(t, err)
	require.Equal(t, alice.ID, promoted.ID)
	require.True(t, promoted.IsAdmin)

	kept, err := s.EnsureUser(ctx, "alice", false)
	require.NoError(t, err)
	require.True(t, kept.IsAdmin)

	admin, err := s.EnsureUser(ctx, "admin", true)
	require.NoError(t, err)
	require.True(t, admin.IsAdmin)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, "admin", users[0].Username)
}

func TestVideos(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u, err := s.CreateUser(ctx, "uploader", false)
	require.NoError(t, err)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	first, err := s.CreateVideo(ctx, Video{
		Title: "  First  ", Filename: "first-1.mp4", Ext: "mp4",
		OriginalName: "First.mp4", UploaderID: u.ID, UploadedAt: base,
	})
	require.NoError(t, err)
	require.Equal(t, "First", first.Title)

	second, err := s.CreateVideo(ctx, Video{
		Title: "Second", Filename: "second-1.webm", Ext: "webm", OriginalName: "second.webm",
		ThumbFilename: "second-thumb-1.jpg", UploaderID: u.ID, UploadedAt: base.Add(time.Minute),
	})
	require.NoError(t, err)

	_, err = s.CreateVideo(ctx, Video{Title: "Dup", Filename: "first-1.mp4", Ext: "mp4", UploaderID: u.ID})
	require.ErrorIs(t, err, ErrConflict)

	_, err = s.CreateVideo(ctx, Video{Title: " ", Filename: "x.mp4", Ext: "mp4", UploaderID: u.ID})
	require.ErrorIs(t, err, ErrInvalidInput)

	got, err := s.GetVideo(ctx, second.ID)
	require.NoError(t, err)
	require.Equal(t, "second-thumb-1.jpg", got.ThumbFilename)
	require.Equal(t, "uploader", got.Uploader)
	require.True(t, got.UploadedAt.Equal(base.Add(time.Minute)))

	list, err := s.ListVideos(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, second.ID, list[0].ID)
	require.Equal(t, first.ID, list[1].ID)

	list, err = s.ListVideos(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)

	deleted, err := s.DeleteVideo(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, "first-1.mp4", deleted.Filename)

	_, err = s.GetVideo(ctx, first.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.DeleteVideo(ctx, first.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRatingsAndComments(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a, err := s.CreateUser(ctx, "a", false)
	require.NoError(t, err)
	b, err := s.CreateUser(ctx, "b", false)
	require.NoError(t, err)
	v, err := s.CreateVideo(ctx, Video{Title: "V", Filename: "v.mp4", Ext: "mp4", UploaderID: a.ID})
	require.NoError(t, err)

	sum, err := s.Ratings(ctx, v.ID)
	require.NoError(t, err)
	require.Equal(t, RatingSummary{}, sum)

	_, err = s.RateVideo(ctx, v.ID, a.ID, 5)
	require.NoError(t, err)
	sum, err = s.RateVideo(ctx, v.ID, b.ID, 2)
	require.NoError(t, err)
	require.Equal(t, RatingSummary{Count: 2, Average: 3.5}, sum)

	sum, err = s.RateVideo(ctx, v.ID, a.ID, 4)
	require.NoError(t, err)
	require.Equal(t, RatingSummary{Count: 2, Average: 3}, sum)

	_, err = s.RateVideo(ctx, v.ID, a.ID, 6)
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = s.RateVideo(ctx, 999, a.ID, 3)
	require.ErrorIs(t, err, ErrNotFound)

	c, err := s.AddComment(ctx, v.ID, b.ID, "  nice clip ")
	require.NoError(t, err)
	require.Equal(t, "nice clip", c.Body)
	require.Equal(t, "b", c.Username)

	_, err = s.AddComment(ctx, v.ID, b.ID, strings.Repeat("x", MaxCommentLen+1))
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = s.AddComment(ctx, v.ID, b.ID, "   ")
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = s.AddComment(ctx, 999, b.ID, "hi")
	require.ErrorIs(t, err, ErrNotFound)

	comments, err := s.ListComments(ctx, v.ID, 0)
	require.NoError(t, err)
	require.Len(t, comments, 1)

	// Deleting the video cascades to its ratings and comments.
	_, err = s.DeleteVideo(ctx, v.ID)
	require.NoError(t, err)
	comments, err = s.ListComments(ctx, v.ID, 0)
	require.NoError(t, err)
	require.Empty(t, comments)
	sum, err = s.Ratings(ctx, v.ID)
	require.NoError(t, err)
	require.Zero(t, sum.Count)
}
