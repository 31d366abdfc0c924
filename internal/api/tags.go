package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

// CreateTag attaches a tag to a file.
func (c *Client) CreateTag(ctx context.Context, token string, t Tag) (*TagResult, error) {
	if strings.TrimSpace(t.Tag) == "" {
		return nil, ErrEmptyTag
	}
	r, err := jsonRequest(http.MethodPost, "tags", token, true, tagRequest(t))
	if err != nil {
		return nil, err
	}
	var resp tagResponse
	if err := c.do(ctx, r, &resp); err != nil {
		return nil, err
	}
	return &TagResult{Message: resp.Message, TagID: resp.TagID}, nil
}

// AppTag is carried by every posting of the application.
func (c *Client) AppTag() string { return c.appID }

// RoleTag marks a posting as made by an employer or an employee.
func (c *Client) RoleTag(role Role) string {
	return c.appID + "_" + string(role)
}

// AvatarTag marks the avatar images of a user.
func (c *Client) AvatarTag(userID int) string {
	return c.appID + "_avatar_" + strconv.Itoa(userID)
}
