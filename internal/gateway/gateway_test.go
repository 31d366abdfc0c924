package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EmpoweredVote/jobmarket/internal/api"
	"github.com/EmpoweredVote/jobmarket/internal/apitest"
	"github.com/EmpoweredVote/jobmarket/internal/geocoding"
	"github.com/EmpoweredVote/jobmarket/internal/session"
)

type testEnv struct {
	fake   *apitest.Server
	store  *session.MemoryStore
	server *httptest.Server
	http   *http.Client
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	fake := apitest.New(t)
	client, err := api.NewClient(api.Options{BaseURL: fake.BaseURL(), AppID: "app123"})
	require.NoError(t, err)

	store := session.NewMemoryStore()
	h := NewHandler(Options{Client: client, Store: store, SessionTTL: time.Hour})
	srv := httptest.NewServer(h.SetupRoutes())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testEnv{fake: fake, store: store, server: srv, http: &http.Client{Jar: jar}}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.server.URL+path, rdr)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.http.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (e *testEnv) login(t *testing.T, username, password string) loginResponse {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/auth/login", api.Credentials{Username: username, Password: password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[loginResponse](t, resp)
}

func TestLoginAndMe(t *testing.T) {
	env := newTestEnv(t)
	uid, _ := env.fake.AddUser("jane", "secret", `{"full_name":"Jane Doe","employer":true}`)

	resp := env.do(t, http.MethodPost, "/auth/login", api.Credentials{Username: "jane", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decode[errorBody](t, resp)
	assert.Equal(t, "Incorrect username or password", body.Detail)

	lr := env.login(t, "jane", "secret")
	assert.NotEmpty(t, lr.SessionID)
	assert.Equal(t, uid, lr.User.ID)
	assert.True(t, lr.ExpiresAt.After(time.Now()))

	stored, err := env.store.Find(context.Background(), lr.SessionID)
	require.NoError(t, err)
	assert.True(t, stored.Employer)
	assert.NotEmpty(t, stored.Token)

	resp = env.do(t, http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decode[api.User](t, resp)
	assert.Equal(t, "Jane Doe", me.FullName)

	resp = env.do(t, http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, err = env.store.Find(context.Background(), lr.SessionID)
	assert.ErrorIs(t, err, session.ErrNotFound)

	resp = env.do(t, http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestBearerSessionAndExpiry(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.fake.AddUser("jane", "secret", "Jane Doe")
	ctx := context.Background()
	require.NoError(t, env.store.Create(ctx, session.Session{SessionID: "live", UserID: 1, Token: token, ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, env.store.Create(ctx, session.Session{SessionID: "old", UserID: 1, Token: token, ExpiresAt: time.Now().Add(-time.Hour)}))

	get := func(id string) *http.Response {
		req, err := http.NewRequest(http.MethodGet, env.server.URL+"/auth/me", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+id)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	assert.Equal(t, http.StatusOK, get("live").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, get("old").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, get("nope").StatusCode)
}

func TestJobsFlow(t *testing.T) {
	env := newTestEnv(t)
	boss, _ := env.fake.AddUser("boss", "pw", `{"full_name":"Big Boss","employer":true}`)
	env.fake.AddUser("worker", "pw", `{"full_name":"Willing Worker","employer":false}`)
	existing := env.fake.AddMedia(boss, "fence.jpg", "Fence", `{"description":"Paint","job":true}`, "app123", "app123_employer")

	resp := env.do(t, http.MethodGet, "/jobs", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	env.login(t, "worker", "pw")

	resp = env.do(t, http.MethodGet, "/jobs?role=employer", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	jobs := decode[[]api.MediaItem](t, resp)
	require.Len(t, jobs, 1)
	assert.Equal(t, existing, jobs[0].ID)
	assert.Equal(t, "Big Boss", jobs[0].Uploader.FullName)

	resp = env.do(t, http.MethodGet, "/jobs?role=manager", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// publish an availability notice
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "Weekend help"))
	require.NoError(t, mw.WriteField("details", `{"description":"Free on weekends","place_name":"Oulu, Finland","wage":"99"}`))
	part, err := mw.CreateFormFile("file", "me.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/jobs", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err = env.http.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[api.UploadResult](t, resp)

	assert.Equal(t, []string{"app123_employee", "app123"}, env.fake.TagsOf(created.FileID))
	stored, ok := env.fake.Media(created.FileID)
	require.True(t, ok)
	assert.Equal(t, `{"description":"Free on weekends","place_name":"Oulu, Finland","job":false}`, stored.Description)

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/jobs/%d", created.FileID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	job := decode[api.MediaItem](t, resp)
	assert.Equal(t, "Willing Worker", job.Uploader.FullName)

	resp = env.do(t, http.MethodPut, fmt.Sprintf("/jobs/%d", existing), api.MediaUpdate{Title: "mine"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "only the owner may update")

	resp = env.do(t, http.MethodDelete, fmt.Sprintf("/jobs/%d", created.FileID), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestFavouritesAndComments(t *testing.T) {
	env := newTestEnv(t)
	boss, _ := env.fake.AddUser("boss", "pw", "Big Boss")
	env.fake.AddUser("worker", "pw", "Willing Worker")
	job := env.fake.AddMedia(boss, "fence.jpg", "Fence", "{}", "app123")
	env.login(t, "worker", "pw")

	resp := env.do(t, http.MethodPost, fmt.Sprintf("/favourites/%d", job), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/favourites", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	favs := decode[[]api.MediaItem](t, resp)
	require.Len(t, favs, 1)
	assert.Equal(t, boss, favs[0].Uploader.ID)

	resp = env.do(t, http.MethodDelete, fmt.Sprintf("/favourites/%d", job), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = env.do(t, http.MethodDelete, fmt.Sprintf("/favourites/%d", job), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodPost, fmt.Sprintf("/jobs/%d/comments", job), map[string]string{"comment": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, fmt.Sprintf("/jobs/%d/comments", job), map[string]string{"comment": "Interested!"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	cr := decode[api.CommentResult](t, resp)

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/jobs/%d/comments", job), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	comments := decode[[]api.Comment](t, resp)
	require.Len(t, comments, 1)
	assert.Equal(t, "Willing Worker", comments[0].User.FullName)

	resp = env.do(t, http.MethodDelete, fmt.Sprintf("/comments/%d", cr.CommentID), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/jobs/abc/comments", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPublicRoutes(t *testing.T) {
	env := newTestEnv(t)
	env.fake.AddUser("taken", "pw", "Taken")

	resp := env.do(t, http.MethodGet, "/users/available/taken", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[map[string]any](t, resp)
	assert.Equal(t, false, got["available"])

	resp = env.do(t, http.MethodPost, "/auth/register", api.NewUser{Username: "fresh", Password: "pw", FullName: "Fresh Face"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/locations?q=Espoo", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	appErr := func(status int) error {
		return &api.ApplicationError{StatusCode: status, Message: "m", Detail: "d"}
	}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"application 404", appErr(404), http.StatusNotFound},
		{"application on 200", appErr(200), http.StatusBadRequest},
		{"application 500", appErr(500), http.StatusBadGateway},
		{"login rejected", &api.AuthError{Step: api.StepLogin, Err: appErr(401)}, http.StatusUnauthorized},
		{"avatar lookup failed", &api.AuthError{Step: api.StepAvatar, Err: &api.TransportError{StatusCode: 500}}, http.StatusBadGateway},
		{"transport", &api.TransportError{Method: "GET", Path: "x"}, http.StatusBadGateway},
		{"enrichment", &api.EnrichmentError{Step: api.EnrichUploader, Err: &api.TransportError{}}, http.StatusBadGateway},
		{"third party", &geocoding.ThirdPartyError{Provider: "mapbox", Err: errors.New("down")}, http.StatusBadGateway},
		{"missing token", api.ErrMissingToken, http.StatusUnauthorized},
		{"blank comment", api.ErrEmptyComment, http.StatusBadRequest},
		{"empty query", geocoding.ErrEmptyQuery, http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestUploadAvatar(t *testing.T) {
	env := newTestEnv(t)
	uid, _ := env.fake.AddUser("jane", "secret", "Jane Doe")
	env.login(t, "jane", "secret")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "face.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/users/avatar", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := env.http.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[api.UploadResult](t, resp)

	assert.Equal(t, []string{fmt.Sprintf("app123_avatar_%d", uid)}, env.fake.TagsOf(created.FileID))
	assert.Equal(t, "image/jpeg", env.fake.LastUpload().ContentType)

	resp = env.do(t, http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decode[api.User](t, resp)
	assert.Contains(t, me.Avatar, "face.jpg")
}

func TestUpdateJob_KeepsPostingKind(t *testing.T) {
	env := newTestEnv(t)
	boss, _ := env.fake.AddUser("boss", "pw", `{"full_name":"Big Boss","employer":true}`)
	job := env.fake.AddMedia(boss, "fence.jpg", "Fence", `{"description":"Paint","job":true}`, "app123")
	env.login(t, "boss", "pw")

	// the body leaves out "job"
	resp := env.do(t, http.MethodPut, fmt.Sprintf("/jobs/%d", job), map[string]any{
		"title":   "Fence",
		"details": map[string]any{"description": "Paint the fence", "wage": "20"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stored, ok := env.fake.Media(job)
	require.True(t, ok)
	assert.Equal(t, `{"description":"Paint the fence","job":true,"wage":"20"}`, stored.Description)
}
