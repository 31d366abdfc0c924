package api

import (
	"io"
	"strings"
)

// Role is the account type a user registers with.
type Role string

const (
	RoleEmployer Role = "employer"
	RoleEmployee Role = "employee"
)

// ParseRole accepts "employer" or "employee" in any case.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleEmployer:
		return RoleEmployer, nil
	case RoleEmployee:
		return RoleEmployee, nil
	}
	return "", ErrInvalidRole
}

// RoleOf returns the role implied by the employer flag.
func RoleOf(employer bool) Role {
	if employer {
		return RoleEmployer
	}
	return RoleEmployee
}

// Credentials are sent once by Login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Session is the result of a successful login.
type Session struct {
	Token   string `json:"token"`
	Message string `json:"message,omitempty"`
	User    User   `json:"user"`
}

// User is an account of the media API with its embedded profile decoded.
type User struct {
	ID          int    `json:"user_id"`
	Username    string `json:"username"`
	Email       string `json:"email,omitempty"`
	FullName    string `json:"full_name"`
	Employer    bool   `json:"employer"`
	Avatar      string `json:"avatar,omitempty"`
	TimeCreated string `json:"time_created,omitempty"`

	// AvatarErr holds the avatar lookup failure when the client runs with
	// AvatarOptional. It is always nil under AvatarRequired.
	AvatarErr error `json:"-"`
}

// Role returns the user's account type.
func (u User) Role() Role { return RoleOf(u.Employer) }

// Profile is the structured content of the full_name field.
type Profile struct {
	FullName string `json:"full_name"`
	Employer bool   `json:"employer"`
}

// NewUser is the registration payload.
type NewUser struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name"`
	Employer bool   `json:"employer"`
}

// CreatedUser is the result of Register.
type CreatedUser struct {
	Message string `json:"message"`
	UserID  int    `json:"user_id"`
}

// UserUpdate changes the current user. Empty fields are left untouched;
// Profile, when set, replaces both the name and the employer flag.
type UserUpdate struct {
	Username string   `json:"username,omitempty"`
	Password string   `json:"password,omitempty"`
	Email    string   `json:"email,omitempty"`
	Profile  *Profile `json:"profile,omitempty"`
}

// MessageResponse is the body of most write endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

// MediaItem is a job offer or an availability notice.
type MediaItem struct {
	ID        int        `json:"file_id"`
	Filename  string     `json:"filename"`
	Filesize  int64      `json:"filesize,omitempty"`
	URL       string     `json:"url"`
	Title     string     `json:"title"`
	Details   JobDetails `json:"details"`
	UserID    int        `json:"user_id"`
	MediaType string     `json:"media_type,omitempty"`
	MimeType  string     `json:"mime_type,omitempty"`
	TimeAdded string     `json:"time_added,omitempty"`
	TagID     int        `json:"tag_id,omitempty"`
	Tag       string     `json:"tag,omitempty"`
	Uploader  *User      `json:"uploader,omitempty"`
}

// Upload is a new posting: a file plus its title and details.
type Upload struct {
	Title       string
	Details     JobDetails
	FileName    string
	ContentType string // derived from FileName when empty
	File        io.Reader
}

// UploadResult is returned by UploadMedia.
type UploadResult struct {
	Message string `json:"message"`
	FileID  int    `json:"file_id"`
}

// MediaUpdate replaces the title and details of a posting.
type MediaUpdate struct {
	Title   string     `json:"title"`
	Details JobDetails `json:"details"`
}

// Tag links a file to a label.
type Tag struct {
	FileID int    `json:"file_id"`
	Tag    string `json:"tag"`
}

// TagResult is returned by CreateTag.
type TagResult struct {
	Message string `json:"message"`
	TagID   int    `json:"tag_id"`
}

// Favourite marks a file for the current user.
type Favourite struct {
	ID     int `json:"favourite_id"`
	FileID int `json:"file_id"`
	UserID int `json:"user_id,omitempty"`
}

// Comment is a comment on a posting with its author attached.
type Comment struct {
	ID        int    `json:"comment_id"`
	FileID    int    `json:"file_id"`
	UserID    int    `json:"user_id"`
	Comment   string `json:"comment"`
	TimeAdded string `json:"time_added,omitempty"`
	User      *User  `json:"user,omitempty"`
}

// CommentResult is returned by CreateComment.
type CommentResult struct {
	Message   string `json:"message"`
	CommentID int    `json:"comment_id"`
}
