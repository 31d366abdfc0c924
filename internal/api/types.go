package api

import (
	"bytes"
	"encoding/json"
)

// Wire shapes of the media API. They are converted to the exported models in
// transform.go and never leave the package.

type userResponse struct {
	UserID      int    `json:"user_id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
	TimeCreated string `json:"time_created"`
}

type loginResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    userResponse `json:"user"`
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
}

type createUserResponse struct {
	Message string `json:"message"`
	UserID  int    `json:"user_id"`
}

type updateUserRequest struct {
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
}

type usernameResponse struct {
	Username  string `json:"username"`
	Available bool   `json:"available"`
}

// mediaResponse is returned by GET /media/{id} and, with the tag columns
// filled in, by GET /tags/{tag}.
type mediaResponse struct {
	FileID      int    `json:"file_id"`
	Filename    string `json:"filename"`
	Filesize    int64  `json:"filesize"`
	Title       string `json:"title"`
	Description string `json:"description"`
	UserID      int    `json:"user_id"`
	MediaType   string `json:"media_type"`
	MimeType    string `json:"mime_type"`
	TimeAdded   string `json:"time_added"`
	TagID       int    `json:"tag_id"`
	Tag         string `json:"tag"`
}

type updateMediaRequest struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description"`
}

type uploadResponse struct {
	Message string `json:"message"`
	FileID  int    `json:"file_id"`
}

type tagRequest struct {
	FileID int    `json:"file_id"`
	Tag    string `json:"tag"`
}

type tagResponse struct {
	Message string `json:"message"`
	TagID   int    `json:"tag_id"`
}

type favouriteRequest struct {
	FileID int `json:"file_id"`
}

type favouriteResponse struct {
	FavouriteID int `json:"favourite_id"`
	FileID      int `json:"file_id"`
	UserID      int `json:"user_id"`
}

type favouriteCreateResponse struct {
	Message     string `json:"message"`
	FavouriteID int    `json:"favourite_id"`
}

type commentRequest struct {
	FileID  int    `json:"file_id"`
	Comment string `json:"comment"`
}

type commentResponse struct {
	CommentID int    `json:"comment_id"`
	FileID    int    `json:"file_id"`
	UserID    int    `json:"user_id"`
	Comment   string `json:"comment"`
	TimeAdded string `json:"time_added"`
}

type commentCreateResponse struct {
	Message   string `json:"message"`
	CommentID int    `json:"comment_id"`
}

// errorEnvelope is the structured failure body: {"message": ..., "error": ...}.
// error is usually a string but is kept raw because some endpoints send objects.
type errorEnvelope struct {
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
}

func (e errorEnvelope) hasError() bool {
	raw := bytes.TrimSpace(e.Error)
	switch string(raw) {
	case "", "null", "false", `""`:
		return false
	}
	return true
}

func (e errorEnvelope) detail() string {
	raw := bytes.TrimSpace(e.Error)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}
