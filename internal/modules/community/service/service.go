package community

import (
	"context"
	"fmt"
	"iter"
	"log"
	"regexp"
	"strconv"
	"strings"

	"anoa.com/communitywealth/internal/modules/community/dto"
	"anoa.com/communitywealth/pkg/apperror"
	"anoa.com/communitywealth/pkg/roblox"
)

const DefaultMaxMemberPages = 100

var communityLinkPattern = regexp.MustCompile(`/communities/(\d+)`)

// ExtractCommunityID pulls the numeric id out of a link such as
// https://www.roblox.com/communities/123/name. It reports false when the link
// has no /communities/<digits> segment or the id is not a positive int64.
func ExtractCommunityID(link string) (int64, bool) {
	match := communityLinkPattern.FindStringSubmatch(strings.TrimSpace(link))
	if match == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// CommunityLink is the canonical link for a community id.
func CommunityLink(id int64) string {
	return fmt.Sprintf("https://www.roblox.com/communities/%d", id)
}

type GroupSource interface {
	GroupExists(ctx context.Context, groupID int64) (bool, error)
	GroupMembers(ctx context.Context, groupID int64, maxPages int) iter.Seq2[roblox.Page[roblox.GroupMember], error]
}

type Service interface {
	ValidateCommunity(ctx context.Context, id int64) bool
	EnumerateMembers(ctx context.Context, id int64) ([]dto.Member, error)
}

type service struct {
	source   GroupSource
	maxPages int
}

func NewService(source GroupSource, maxPages int) Service {
	if maxPages <= 0 {
		maxPages = DefaultMaxMemberPages
	}
	return &service{source: source, maxPages: maxPages}
}

func (s *service) ValidateCommunity(ctx context.Context, id int64) bool {
	ok, err := s.source.GroupExists(ctx, id)
	if err != nil {
		log.Printf("Validation error for community %d: %v", id, err)
		return false
	}
	return ok
}

// EnumerateMembers collects every member of the community. Any failed page
// aborts the enumeration with apperror.ErrMemberFetch.
func (s *service) EnumerateMembers(ctx context.Context, id int64) ([]dto.Member, error) {
	var members []dto.Member
	for page, err := range s.source.GroupMembers(ctx, id, s.maxPages) {
		if err != nil {
			return nil, fmt.Errorf("%w: community %d: %w", apperror.ErrMemberFetch, id, err)
		}
		for _, entry := range page.Data {
			members = append(members, dto.Member{
				UserID:      entry.User.UserID,
				Username:    entry.User.Username,
				DisplayName: entry.User.DisplayName,
			})
		}
	}
	return members, nil
}
