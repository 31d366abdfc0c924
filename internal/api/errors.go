package api

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrRequestFailed is matched by every *TransportError.
	ErrRequestFailed      = errors.New("request failed")
	ErrMissingToken       = errors.New("bearer token is required")
	ErrMissingCredentials = errors.New("username and password are required")
	ErrEmptyToken         = errors.New("server returned an empty token")
	ErrEmptyTag           = errors.New("tag is required")
	ErrEmptyComment       = errors.New("comment text is required")
	ErrMissingFile        = errors.New("upload needs a file and a file name")
	ErrInvalidRole        = errors.New("role must be \"employer\" or \"employee\"")
	ErrInvalidBaseURL     = errors.New("base URL must be an absolute http(s) URL")
)

// TransportError is a failure below the application protocol: the network call
// failed, the response status was not 2xx and the body carried no error field,
// or the body could not be decoded.
type TransportError struct {
	Method     string
	Path       string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Method, e.Path, ErrRequestFailed)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRequestFailed}
	}
	return []error{ErrRequestFailed, e.Err}
}

// ApplicationError is a structured {message, error} body returned by the media API.
type ApplicationError struct {
	StatusCode int
	Message    string
	Detail     string
}

func (e *ApplicationError) Error() string {
	if e.Message == "" {
		return e.Detail
	}
	return e.Message + ": " + e.Detail
}

// Auth flow steps reported by AuthError.
const (
	StepLogin   = "login"
	StepSession = "session"
	StepAvatar  = "avatar"
)

// AuthError wraps a failure of Login or ValidateSession and names the step
// that failed, so a primary-call failure can be told apart from a failed
// avatar lookup.
type AuthError struct {
	Step string
	Err  error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth %s: %v", e.Step, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Enrichment steps reported by EnrichmentError.
const (
	EnrichAvatar   = "avatar"
	EnrichUploader = "uploader"
	EnrichAuthor   = "author"
	EnrichMedia    = "media"
)

// EnrichmentError is a failed secondary lookup. ID is the id of the record
// being enriched (user id for avatars, file id for uploaders, comment id for
// authors).
type EnrichmentError struct {
	Step string
	ID   int
	Err  error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("enrich %s for %d: %v", e.Step, e.ID, e.Err)
}

func (e *EnrichmentError) Unwrap() error { return e.Err }

// Operations reported by PostingError.
const (
	OpPublishPosting = "publish posting"
	OpUploadAvatar   = "upload avatar"
)

// Posting steps reported by PostingError.
const (
	PostUpload  = "upload"
	PostRoleTag = "role tag"
	PostAppTag  = "app tag"
	PostAvatar  = "avatar tag"
)

// PostingError is a failed step of PublishPosting or UploadAvatar. FileID is
// set once the upload succeeded, so the caller can clean up an untagged file.
type PostingError struct {
	Op     string // OpPublishPosting or OpUploadAvatar
	Step   string
	FileID int
	Err    error
}

func (e *PostingError) Error() string {
	op := e.Op
	if op == "" {
		op = OpPublishPosting
	}
	if e.FileID == 0 {
		return fmt.Sprintf("%s: %s: %v", op, e.Step, e.Err)
	}
	return fmt.Sprintf("%s: %s (file %d): %v", op, e.Step, e.FileID, e.Err)
}

func (e *PostingError) Unwrap() error { return e.Err }
