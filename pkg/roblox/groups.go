package roblox

import (
	"context"
	"fmt"
	"io"
	"iter"
	"net/url"
)

// GroupUser is the nested user object of a group membership entry.
type GroupUser struct {
	UserID      int64  `json:"userId"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

type GroupMember struct {
	User GroupUser `json:"user"`
}

// GroupExists reports whether GET /v1/groups/{id} answers with a 2xx status.
// A transport failure is returned as an error.
func (c *Client) GroupExists(ctx context.Context, groupID int64) (bool, error) {
	resp, err := c.get(ctx, fmt.Sprintf("%s/v1/groups/%d", c.groupsURL, groupID))
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
}

// GroupMembersURL builds the membership page URL, ascending, 100 per page.
func (c *Client) GroupMembersURL(groupID int64) URLBuilder {
	return func(cursor string) string {
		u := fmt.Sprintf("%s/v1/groups/%d/users?limit=100&sortOrder=Asc", c.groupsURL, groupID)
		if cursor != "" {
			u += "&cursor=" + url.QueryEscape(cursor)
		}
		return u
	}
}

func (c *Client) GroupMembers(ctx context.Context, groupID int64, maxPages int) iter.Seq2[Page[GroupMember], error] {
	return Paginate[GroupMember](ctx, c, c.GroupMembersURL(groupID), maxPages)
}
