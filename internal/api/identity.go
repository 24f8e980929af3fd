// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ManuGH/oldtube/internal/library"
)

// HeaderUser names the acting user. There is no authentication; the
// header only has to name an existing account.
const HeaderUser = "X-OldTube-User"

// currentUser resolves the acting user. ok is false when a response has
// already been written.
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) (library.User, bool) {
	name := strings.TrimSpace(r.Header.Get(HeaderUser))
	if name == "" {
		writeUnauthorized(w)
		return library.User{}, false
	}
	u, err := s.deps.Library.UserByName(r.Context(), name)
	if errors.Is(err, library.ErrNotFound) {
		writeUnauthorized(w)
		return library.User{}, false
	}
	if err != nil {
		respondError(w, r, err)
		return library.User{}, false
	}
	return u, true
}

// adminUser is currentUser restricted to administrators.
func (s *Server) adminUser(w http.ResponseWriter, r *http.Request) (library.User, bool) {
	u, ok := s.currentUser(w, r)
	if !ok {
		return library.User{}, false
	}
	if !u.IsAdmin {
		writeForbidden(w)
		return library.User{}, false
	}
	return u, true
}
