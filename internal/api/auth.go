package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/EmpoweredVote/jobmarket/internal/logger"
)

// Login exchanges credentials for a session and resolves the user's avatar.
// A failure of either step is an *AuthError naming the step.
func (c *Client) Login(ctx context.Context, creds Credentials) (*Session, error) {
	if strings.TrimSpace(creds.Username) == "" || creds.Password == "" {
		return nil, ErrMissingCredentials
	}

	r, err := jsonRequest(http.MethodPost, "login", "", false, creds)
	if err != nil {
		return nil, err
	}
	var resp loginResponse
	if err := c.do(ctx, r, &resp); err != nil {
		return nil, &AuthError{Step: StepLogin, Err: err}
	}
	if resp.Token == "" {
		return nil, &AuthError{Step: StepLogin, Err: ErrEmptyToken}
	}

	user := toUser(resp.User)
	if err := c.attachAvatar(ctx, &user); err != nil {
		return nil, &AuthError{Step: StepAvatar, Err: err}
	}

	return &Session{Token: resp.Token, Message: resp.Message, User: user}, nil
}

// Register creates an account. The employer flag travels inside full_name.
func (c *Client) Register(ctx context.Context, nu NewUser) (*CreatedUser, error) {
	if strings.TrimSpace(nu.Username) == "" || nu.Password == "" {
		return nil, ErrMissingCredentials
	}
	fullName, err := encodeProfile(Profile{FullName: nu.FullName, Employer: nu.Employer})
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}

	r, err := jsonRequest(http.MethodPost, "users", "", false, createUserRequest{
		Username: nu.Username,
		Password: nu.Password,
		Email:    nu.Email,
		FullName: fullName,
	})
	if err != nil {
		return nil, err
	}
	var resp createUserResponse
	if err := c.do(ctx, r, &resp); err != nil {
		return nil, err
	}
	return &CreatedUser{Message: resp.Message, UserID: resp.UserID}, nil
}

// ValidateSession returns the user a token belongs to.
func (c *Client) ValidateSession(ctx context.Context, token string) (*User, error) {
	var resp userResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: "users/user", token: token, auth: true}, &resp); err != nil {
		return nil, &AuthError{Step: StepSession, Err: err}
	}

	user := toUser(resp)
	if err := c.attachAvatar(ctx, &user); err != nil {
		return nil, &AuthError{Step: StepAvatar, Err: err}
	}
	return &user, nil
}

// GetUser fetches a user by id with the avatar attached.
func (c *Client) GetUser(ctx context.Context, token string, id int) (*User, error) {
	var resp userResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: "users/" + itoa(id), token: token, auth: true}, &resp); err != nil {
		return nil, err
	}

	user := toUser(resp)
	if err := c.attachAvatar(ctx, &user); err != nil {
		return nil, &EnrichmentError{Step: EnrichAvatar, ID: id, Err: err}
	}
	return &user, nil
}

// CheckUsernameAvailable reports whether username is still free.
func (c *Client) CheckUsernameAvailable(ctx context.Context, username string) (bool, error) {
	if strings.TrimSpace(username) == "" {
		return false, ErrMissingCredentials
	}
	var resp usernameResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: "users/username/" + escapePath(username)}, &resp); err != nil {
		return false, err
	}
	return resp.Available, nil
}

// UpdateUser modifies the account the token belongs to.
func (c *Client) UpdateUser(ctx context.Context, token string, upd UserUpdate) (*MessageResponse, error) {
	body := updateUserRequest{
		Username: upd.Username,
		Password: upd.Password,
		Email:    upd.Email,
	}
	if upd.Profile != nil {
		fullName, err := encodeProfile(*upd.Profile)
		if err != nil {
			return nil, fmt.Errorf("encode profile: %w", err)
		}
		body.FullName = fullName
	}

	r, err := jsonRequest(http.MethodPut, "users", token, true, body)
	if err != nil {
		return nil, err
	}
	var resp MessageResponse
	if err := c.do(ctx, r, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// attachAvatar resolves the user's avatar from the avatar tag. Under
// AvatarOptional a failed lookup is recorded on the user instead of returned.
func (c *Client) attachAvatar(ctx context.Context, u *User) error {
	avatar, err := c.lookupAvatar(ctx, u.ID)
	if err != nil {
		if c.avatarPolicy == AvatarOptional {
			logger.LogWarn(providerName, "avatar", err)
			u.AvatarErr = err
			return nil
		}
		return err
	}
	u.Avatar = avatar
	return nil
}

// lookupAvatar returns the URL of the most recently tagged avatar image, or
// "" when the user has none.
func (c *Client) lookupAvatar(ctx context.Context, userID int) (string, error) {
	images, err := c.ListByTag(ctx, c.AvatarTag(userID))
	if err != nil {
		return "", err
	}
	latest, ok := latestTagged(images)
	if !ok {
		return "", nil
	}
	return latest.URL, nil
}

// latestTagged picks the item with the highest tag id. On equal ids the one
// listed later wins, which is also what the API's insertion order implies.
func latestTagged(items []MediaItem) (MediaItem, bool) {
	if len(items) == 0 {
		return MediaItem{}, false
	}
	best := items[0]
	for _, it := range items[1:] {
		if it.TagID >= best.TagID {
			best = it
		}
	}
	return best, true
}
