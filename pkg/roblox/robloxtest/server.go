// Package robloxtest provides an in-process fake of the groups and inventory
// APIs for tests.
package robloxtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"anoa.com/communitywealth/pkg/roblox"
)

type Server struct {
	srv *httptest.Server

	mu          sync.Mutex
	groups      map[int64]bool
	members     map[int64][][]roblox.GroupMember
	collectible map[int64][][]roblox.Collectible
	failures    map[string]int
	endless     bool
	hits        map[string]int
}

// NewServer starts a fake API and closes it when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		groups:      make(map[int64]bool),
		members:     make(map[int64][][]roblox.GroupMember),
		collectible: make(map[int64][][]roblox.Collectible),
		failures:    make(map[string]int),
		hits:        make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/groups/{id}", s.handleGroup)
	mux.HandleFunc("GET /v1/groups/{id}/users", s.handleMembers)
	mux.HandleFunc("GET /v1/users/{id}/assets/collectibles", s.handleCollectibles)
	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.srv.Close)
	return s
}

func (s *Server) URL() string { return s.srv.URL }

// RobloxClient returns a client pointed at the fake for both hosts.
func (s *Server) RobloxClient() *roblox.Client {
	return roblox.NewClient(
		roblox.WithHTTPClient(s.srv.Client()),
		roblox.WithBaseURLs(s.srv.URL, s.srv.URL),
	)
}

func (s *Server) AddGroup(groupID int64, pages ...[]roblox.GroupMember) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[groupID] = true
	s.members[groupID] = pages
}

func (s *Server) SetCollectibles(userID int64, pages ...[]roblox.Collectible) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collectible[userID] = pages
}

// FailMembersPage makes the zero-based page of a group's membership answer with status.
func (s *Server) FailMembersPage(groupID int64, page, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[fmt.Sprintf("members/%d/%d", groupID, page)] = status
}

// FailCollectiblesPage makes the zero-based page of a user's collectibles answer with status.
func (s *Server) FailCollectiblesPage(userID int64, page, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[fmt.Sprintf("collectibles/%d/%d", userID, page)] = status
}

// SetEndless makes every paged endpoint return a next cursor forever.
func (s *Server) SetEndless(endless bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endless = endless
}

// Hits returns how many requests reached a path, e.g. "/v1/users/1/assets/collectibles".
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// TotalHits returns the number of requests served.
func (s *Server) TotalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.hits {
		total += n
	}
	return total
}

func (s *Server) record(r *http.Request) {
	s.mu.Lock()
	s.hits[r.URL.Path]++
	s.mu.Unlock()
}

func (s *Server) handleGroup(w http.ResponseWriter, r *http.Request) {
	s.record(r)
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, `{"errors":[{"code":1,"message":"Group is invalid or does not exist."}]}`, http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	ok := s.groups[id]
	s.mu.Unlock()
	if !ok {
		http.Error(w, `{"errors":[{"code":1,"message":"Group is invalid or does not exist."}]}`, http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]any{"id": id, "name": fmt.Sprintf("group %d", id)})
}

func (s *Server) handleMembers(w http.ResponseWriter, r *http.Request) {
	s.record(r)
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	page := pageIndex(r.URL.Query().Get("cursor"))

	s.mu.Lock()
	status, failed := s.failures[fmt.Sprintf("members/%d/%d", id, page)]
	pages := s.members[id]
	endless := s.endless
	s.mu.Unlock()

	if failed {
		http.Error(w, "upstream failure", status)
		return
	}
	writePage(w, pages, page, endless)
}

func (s *Server) handleCollectibles(w http.ResponseWriter, r *http.Request) {
	s.record(r)
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	page := pageIndex(r.URL.Query().Get("cursor"))

	s.mu.Lock()
	status, failed := s.failures[fmt.Sprintf("collectibles/%d/%d", id, page)]
	pages := s.collectible[id]
	endless := s.endless
	s.mu.Unlock()

	if failed {
		http.Error(w, "upstream failure", status)
		return
	}
	writePage(w, pages, page, endless)
}

func writePage[T any](w http.ResponseWriter, pages [][]T, page int, endless bool) {
	out := roblox.Page[T]{Data: []T{}}
	if page < len(pages) {
		out.Data = pages[page]
	}
	if endless || page+1 < len(pages) {
		next := fmt.Sprintf("page-%d", page+1)
		out.NextPageCursor = &next
	}
	writeJSON(w, out)
}

func pageIndex(cursor string) int {
	if cursor == "" {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimPrefix(cursor, "page-"))
	if err != nil {
		return 0
	}
	return n
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// Member builds a membership entry.
func Member(userID int64, username string) roblox.GroupMember {
	return roblox.GroupMember{User: roblox.GroupUser{UserID: userID, Username: username, DisplayName: username}}
}

// Item builds a collectible with the given recent average price.
func Item(price int64) roblox.Collectible {
	return roblox.Collectible{RecentAveragePrice: &price}
}

// UnpricedItem builds a collectible without a recent average price.
func UnpricedItem() roblox.Collectible {
	return roblox.Collectible{}
}
