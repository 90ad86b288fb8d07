package search

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"anoa.com/communitywealth/internal/modules/ranking/dto"
	"github.com/meilisearch/meilisearch-go"
)

type fakeMeili struct {
	mu       sync.Mutex
	requests map[string][]byte
}

func newFakeMeili(t *testing.T) (*fakeMeili, *httptest.Server) {
	f := &fakeMeili{requests: make(map[string][]byte)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.requests[r.Method+" "+r.URL.Path] = body
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/search") {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"hits":[{"id":"9_1","community_id":9,"user_id":1,"username":"Alice","wealth":20000,"rank":1}],"query":"ali","processingTimeMs":1,"limit":20,"offset":0,"estimatedTotalHits":1}`))
			return
		}
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"taskUid":7,"indexUid":"community_members","status":"enqueued","type":"documentAdditionOrUpdate","enqueuedAt":"2026-01-01T00:00:00Z"}`))
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeMeili) body(key string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[key]
}

func TestIndexRankingSanitizesAndRanks(t *testing.T) {
	fake, srv := newFakeMeili(t)
	idx := NewMeiliMemberIndex(meilisearch.New(srv.URL))

	err := idx.IndexRanking(9, []dto.RankedEntry{
		{Username: "<b>Alice</b>", UserID: 1, Wealth: 20000},
		{Username: "Bob", UserID: 2, Wealth: 0},
	})
	if err != nil {
		t.Fatalf("IndexRanking: %v", err)
	}

	var docs []memberDoc
	if err := json.Unmarshal(fake.body("POST /indexes/community_members/documents"), &docs); err != nil {
		t.Fatalf("decode documents: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].ID != "9_1" || docs[0].Username != "Alice" || docs[0].Rank != 1 {
		t.Errorf("unexpected first document %+v", docs[0])
	}
	if docs[1].Rank != 2 || docs[1].CommunityID != 9 {
		t.Errorf("unexpected second document %+v", docs[1])
	}
}

func TestIndexRankingSkipsEmpty(t *testing.T) {
	fake, srv := newFakeMeili(t)
	idx := NewMeiliMemberIndex(meilisearch.New(srv.URL))

	if err := idx.IndexRanking(9, nil); err != nil {
		t.Fatalf("IndexRanking: %v", err)
	}
	if fake.body("POST /indexes/community_members/documents") != nil {
		t.Error("expected no documents request")
	}
}

func TestSearchMembersFiltersByCommunity(t *testing.T) {
	fake, srv := newFakeMeili(t)
	idx := NewMeiliMemberIndex(meilisearch.New(srv.URL))

	hits, err := idx.SearchMembers(9, "ali", 10)
	if err != nil {
		t.Fatalf("SearchMembers: %v", err)
	}
	if len(hits) != 1 || hits[0].Username != "Alice" || hits[0].Wealth != 20000 {
		t.Errorf("unexpected hits %+v", hits)
	}

	var req map[string]any
	if err := json.Unmarshal(fake.body("POST /indexes/community_members/search"), &req); err != nil {
		t.Fatalf("decode search request: %v", err)
	}
	if req["filter"] != "community_id = 9" || req["q"] != "ali" {
		t.Errorf("unexpected search request %v", req)
	}
}
