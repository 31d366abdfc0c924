package api

import (
	"context"
	"fmt"
	"strings"
)

// LoadPostings lists the items carrying tag and attaches each uploader.
// Either every item comes back enriched or the call fails.
func (c *Client) LoadPostings(ctx context.Context, token, tag string) ([]MediaItem, error) {
	// uploader lookups are authenticated; fail before listing
	if strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}
	items, err := c.ListByTag(ctx, tag)
	if err != nil {
		return nil, err
	}
	if err := c.attachUploaders(ctx, token, items); err != nil {
		return nil, err
	}
	return items, nil
}

// ListPostings lists every posting of the application, or only those of one
// role when role is set.
func (c *Client) ListPostings(ctx context.Context, token string, role Role) ([]MediaItem, error) {
	tag := c.AppTag()
	if role != "" {
		if _, err := ParseRole(string(role)); err != nil {
			return nil, err
		}
		tag = c.RoleTag(role)
	}
	return c.LoadPostings(ctx, token, tag)
}

// GetPosting fetches one posting with its uploader.
func (c *Client) GetPosting(ctx context.Context, token string, id int) (*MediaItem, error) {
	item, err := c.GetMedia(ctx, id)
	if err != nil {
		return nil, err
	}
	u, err := c.GetUser(ctx, token, item.UserID)
	if err != nil {
		return nil, &EnrichmentError{Step: EnrichUploader, ID: item.ID, Err: err}
	}
	item.Uploader = u
	return item, nil
}

// PublishPosting uploads a posting for poster, then tags it with the
// poster's role tag and the app tag, in that order. Employees do not state
// pay terms, so those fields are cleared for them.
func (c *Client) PublishPosting(ctx context.Context, token string, poster User, up Upload) (*UploadResult, error) {
	up.Details.SetJob(poster.Employer)
	if !poster.Employer {
		up.Details.PayMethod = ""
		up.Details.Wage = ""
	}

	res, err := c.UploadMedia(ctx, token, up)
	if err != nil {
		return nil, &PostingError{Op: OpPublishPosting, Step: PostUpload, Err: err}
	}

	steps := []struct {
		step string
		tag  string
	}{
		{PostRoleTag, c.RoleTag(poster.Role())},
		{PostAppTag, c.AppTag()},
	}
	for _, s := range steps {
		if _, err := c.CreateTag(ctx, token, Tag{FileID: res.FileID, Tag: s.tag}); err != nil {
			return nil, &PostingError{Op: OpPublishPosting, Step: s.step, FileID: res.FileID, Err: fmt.Errorf("tag %q: %w", s.tag, err)}
		}
	}
	return res, nil
}

// UploadAvatar uploads an image and tags it as the newest avatar of userID.
// Older avatar images are left in place; lookups pick the latest tag.
func (c *Client) UploadAvatar(ctx context.Context, token string, userID int, up Upload) (*UploadResult, error) {
	if up.Title == "" {
		up.Title = "avatar"
	}

	res, err := c.UploadMedia(ctx, token, up)
	if err != nil {
		return nil, &PostingError{Op: OpUploadAvatar, Step: PostUpload, Err: err}
	}
	if _, err := c.CreateTag(ctx, token, Tag{FileID: res.FileID, Tag: c.AvatarTag(userID)}); err != nil {
		return nil, &PostingError{Op: OpUploadAvatar, Step: PostAvatar, FileID: res.FileID, Err: err}
	}
	return res, nil
}
