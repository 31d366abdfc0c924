package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
)

// ListByTag returns the media items carrying tag. A tag nothing carries
// yields an empty, non-nil slice.
func (c *Client) ListByTag(ctx context.Context, tag string) ([]MediaItem, error) {
	if strings.TrimSpace(tag) == "" {
		return nil, ErrEmptyTag
	}

	var resp []mediaResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: "tags/" + escapePath(tag)}, &resp); err != nil {
		return nil, err
	}

	items := make([]MediaItem, len(resp))
	for i, m := range resp {
		items[i] = c.toMediaItem(m)
	}
	return items, nil
}

// GetMedia fetches a single item. No token is needed.
func (c *Client) GetMedia(ctx context.Context, id int) (*MediaItem, error) {
	var resp mediaResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: "media/" + itoa(id)}, &resp); err != nil {
		return nil, err
	}
	item := c.toMediaItem(resp)
	return &item, nil
}

// UploadMedia posts a file with its title and encoded details as multipart
// form data.
func (c *Client) UploadMedia(ctx context.Context, token string, up Upload) (*UploadResult, error) {
	if up.File == nil || strings.TrimSpace(up.FileName) == "" {
		return nil, ErrMissingFile
	}
	description, err := EncodeDetails(up.Details)
	if err != nil {
		return nil, fmt.Errorf("encode details: %w", err)
	}

	body, contentType, err := multipartBody(up, description)
	if err != nil {
		return nil, err
	}

	var resp uploadResponse
	r := request{
		method:      http.MethodPost,
		path:        "media",
		token:       token,
		auth:        true,
		body:        body,
		contentType: contentType,
	}
	if err := c.do(ctx, r, &resp); err != nil {
		return nil, err
	}
	return &UploadResult{Message: resp.Message, FileID: resp.FileID}, nil
}

// UpdateMedia replaces the title and details of an item.
func (c *Client) UpdateMedia(ctx context.Context, token string, id int, upd MediaUpdate) (*MessageResponse, error) {
	description, err := EncodeDetails(upd.Details)
	if err != nil {
		return nil, fmt.Errorf("encode details: %w", err)
	}

	r, err := jsonRequest(http.MethodPut, "media/"+itoa(id), token, true, updateMediaRequest{
		Title:       upd.Title,
		Description: description,
	})
	if err != nil {
		return nil, err
	}
	var resp MessageResponse
	if err := c.do(ctx, r, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteMedia removes an item owned by the token's user.
func (c *Client) DeleteMedia(ctx context.Context, token string, id int) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "media/" + itoa(id), token: token, auth: true}, nil)
}

func multipartBody(up Upload, description string) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("title", up.Title); err != nil {
		return nil, "", fmt.Errorf("write title: %w", err)
	}
	if err := mw.WriteField("description", description); err != nil {
		return nil, "", fmt.Errorf("write description: %w", err)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(up.FileName)))
	h.Set("Content-Type", uploadContentType(up))
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, up.File); err != nil {
		return nil, "", fmt.Errorf("copy file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

func uploadContentType(up Upload) string {
	ct := up.ContentType
	if ct == "" {
		ct = mime.TypeByExtension(strings.ToLower(filepath.Ext(up.FileName)))
	}
	if ct == "" {
		return "application/octet-stream"
	}
	// Camera libraries report "image/jpg", which the API rejects.
	if ct == "image/jpg" {
		return "image/jpeg"
	}
	return ct
}
