package api

import (
	"context"
	"net/http"
	"strings"
)

// ListComments returns the comments on a file with each author attached.
func (c *Client) ListComments(ctx context.Context, token string, fileID int) ([]Comment, error) {
	var resp []commentResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: "comments/file/" + itoa(fileID), token: token}, &resp); err != nil {
		return nil, err
	}

	comments := make([]Comment, len(resp))
	for i, w := range resp {
		comments[i] = toComment(w)
	}

	err := c.fanOut(ctx, "authors", len(comments), func(ctx context.Context, i int) error {
		u, err := c.GetUser(ctx, token, comments[i].UserID)
		if err != nil {
			return &EnrichmentError{Step: EnrichAuthor, ID: comments[i].ID, Err: err}
		}
		comments[i].User = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// CreateComment posts a comment on a file. Blank text is rejected locally.
func (c *Client) CreateComment(ctx context.Context, token string, fileID int, text string) (*CommentResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyComment
	}
	r, err := jsonRequest(http.MethodPost, "comments", token, true, commentRequest{FileID: fileID, Comment: text})
	if err != nil {
		return nil, err
	}
	var resp commentCreateResponse
	if err := c.do(ctx, r, &resp); err != nil {
		return nil, err
	}
	return &CommentResult{Message: resp.Message, CommentID: resp.CommentID}, nil
}

// DeleteComment removes a comment owned by the token's user.
func (c *Client) DeleteComment(ctx context.Context, token string, id int) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "comments/" + itoa(id), token: token, auth: true}, nil)
}
