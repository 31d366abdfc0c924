package api

import (
	"fmt"
	"strings"
)

// AvatarPolicy decides what happens when the avatar lookup after a user
// fetch fails.
type AvatarPolicy int

const (
	// AvatarRequired fails the whole operation.
	AvatarRequired AvatarPolicy = iota
	// AvatarOptional returns the user without an avatar and records the
	// failure in User.AvatarErr.
	AvatarOptional
)

// ParseAvatarPolicy maps "required" (or empty) and "optional" to a policy.
func ParseAvatarPolicy(s string) (AvatarPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "required":
		return AvatarRequired, nil
	case "optional":
		return AvatarOptional, nil
	}
	return AvatarRequired, fmt.Errorf("unknown avatar policy %q", s)
}

func (p AvatarPolicy) String() string {
	if p == AvatarOptional {
		return "optional"
	}
	return "required"
}

// decodeProfile reads the full_name field. Accounts created by the mobile
// client store {"full_name":..., "employer":...} there; older accounts hold
// a plain name.
func decodeProfile(raw string) Profile {
	var p Profile
	if decodeEmbedded(raw, &p) {
		return p
	}
	return Profile{FullName: raw}
}

func encodeProfile(p Profile) (string, error) {
	return encodeEmbedded(p)
}

func toUser(w userResponse) User {
	p := decodeProfile(w.FullName)
	return User{
		ID:          w.UserID,
		Username:    w.Username,
		Email:       w.Email,
		FullName:    p.FullName,
		Employer:    p.Employer,
		TimeCreated: w.TimeCreated,
	}
}

func (c *Client) toMediaItem(w mediaResponse) MediaItem {
	return MediaItem{
		ID:        w.FileID,
		Filename:  w.Filename,
		Filesize:  w.Filesize,
		URL:       c.fileURL(w.Filename),
		Title:     w.Title,
		Details:   DecodeDetails(w.Description),
		UserID:    w.UserID,
		MediaType: w.MediaType,
		MimeType:  w.MimeType,
		TimeAdded: w.TimeAdded,
		TagID:     w.TagID,
		Tag:       w.Tag,
	}
}

func toComment(w commentResponse) Comment {
	return Comment{
		ID:        w.CommentID,
		FileID:    w.FileID,
		UserID:    w.UserID,
		Comment:   w.Comment,
		TimeAdded: w.TimeAdded,
	}
}

func (c *Client) fileURL(filename string) string {
	if filename == "" {
		return ""
	}
	return c.uploadsURL + filename
}
