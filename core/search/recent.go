package search

import (
	"strings"
	"sync"
)

// MaxRecent is how many recent searches are remembered.
const MaxRecent = 5

// Recent is a most-recent-first list of distinct queries.
type Recent struct {
	queries []string
}

func NewRecent() *Recent { return &Recent{queries: make([]string, 0, MaxRecent)} }

// Add puts query at the front of the list. Blank queries are ignored; a query already in
// the list is moved to the front instead of duplicated.
func (r *Recent) Add(query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		return
	}
	queries := make([]string, 0, MaxRecent)
	queries = append(queries, query)
	for _, q := range r.queries {
		if q != query && len(queries) < MaxRecent {
			queries = append(queries, q)
		}
	}
	r.queries = queries
}

func (r *Recent) List() []string {
	out := make([]string, len(r.queries))
	copy(out, r.queries)
	return out
}

// RecentStore keeps the recent searches of every user.
type RecentStore struct {
	mu    sync.Mutex
	users map[string]*Recent
}

func NewRecentStore() *RecentStore {
	return &RecentStore{users: make(map[string]*Recent)}
}

func (s *RecentStore) Add(userID, query string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.users[userID]
	if !ok {
		r = NewRecent()
		s.users[userID] = r
	}
	r.Add(query)
	return r.List()
}

func (s *RecentStore) List(userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.users[userID]; ok {
		return r.List()
	}
	return []string{}
}
