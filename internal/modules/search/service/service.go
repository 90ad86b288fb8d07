package search

import (
	"encoding/json"
	"fmt"
	"html"
	"log"
	"strings"

	"anoa.com/communitywealth/internal/modules/ranking/dto"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
)

const IndexName = "community_members"

type MemberHit struct {
	CommunityID int64  `json:"community_id"`
	UserID      int64  `json:"user_id"`
	Username    string `json:"username"`
	Wealth      int64  `json:"wealth"`
	Rank        int    `json:"rank"`
}

// MemberIndex keeps ranked members searchable by username.
type MemberIndex interface {
	IndexRanking(communityID int64, entries []dto.RankedEntry) error
	SearchMembers(communityID int64, query string, limit int) ([]MemberHit, error)
}

type meiliMemberIndex struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

func NewMeiliMemberIndex(client meilisearch.ServiceManager) MemberIndex {
	s := &meiliMemberIndex{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndex()
	return s
}

func (s *meiliMemberIndex) initIndex() {
	filterable := []any{"community_id"}
	if _, err := s.client.Index(IndexName).UpdateFilterableAttributes(&filterable); err != nil {
		log.Printf("Failed to update %s filterable attributes: %v", IndexName, err)
	}

	sortable := []string{"wealth"}
	if _, err := s.client.Index(IndexName).UpdateSortableAttributes(&sortable); err != nil {
		log.Printf("Failed to update %s sortable attributes: %v", IndexName, err)
	}
}

type memberDoc struct {
	ID string `json:"id"`
	MemberHit
}

func (s *meiliMemberIndex) cleanUsername(name string) string {
	cleaned := html.UnescapeString(s.sanitizer.Sanitize(name))
	return strings.Join(strings.Fields(cleaned), " ")
}

// IndexRanking upserts one document per member. Members who left since an
// earlier run keep their old document.
func (s *meiliMemberIndex) IndexRanking(communityID int64, entries []dto.RankedEntry) error {
	if len(entries) == 0 {
		return nil
	}

	docs := make([]memberDoc, 0, len(entries))
	for i, e := range entries {
		docs = append(docs, memberDoc{
			ID: fmt.Sprintf("%d_%d", communityID, e.UserID),
			MemberHit: MemberHit{
				CommunityID: communityID,
				UserID:      e.UserID,
				Username:    s.cleanUsername(e.Username),
				Wealth:      e.Wealth,
				Rank:        i + 1,
			},
		})
	}

	task, err := s.client.Index(IndexName).AddDocuments(docs, strPtr("id"))
	if err != nil {
		return fmt.Errorf("index community %d: %w", communityID, err)
	}
	log.Printf("Indexed %d members of community %d, task id: %d", len(docs), communityID, task.TaskUID)
	return nil
}

func (s *meiliMemberIndex) SearchMembers(communityID int64, query string, limit int) ([]MemberHit, error) {
	raw, err := s.client.Index(IndexName).SearchRaw(query, &meilisearch.SearchRequest{
		Filter: fmt.Sprintf("community_id = %d", communityID),
		Limit:  int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("search members: %w", err)
	}

	var resp struct {
		Hits []MemberHit `json:"hits"`
	}
	if err := json.Unmarshal(*raw, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return resp.Hits, nil
}

func strPtr(s string) *string {
	return &s
}
