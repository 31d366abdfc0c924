// Package apitest serves an in-memory imitation of the media API for tests.
package apitest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const tokenHeader = "x-access-token"

// User is an account held by the fake.
type User struct {
	UserID      int    `json:"user_id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
	TimeCreated string `json:"time_created"`
	password    string
}

// Media is a file held by the fake.
type Media struct {
	FileID      int    `json:"file_id"`
	Filename    string `json:"filename"`
	Filesize    int64  `json:"filesize"`
	Title       string `json:"title"`
	Description string `json:"description"`
	UserID      int    `json:"user_id"`
	MediaType   string `json:"media_type"`
	MimeType    string `json:"mime_type"`
	TimeAdded   string `json:"time_added"`
}

type taggedMedia struct {
	Media
	TagID int    `json:"tag_id"`
	Tag   string `json:"tag"`
}

type tagRow struct {
	TagID  int
	FileID int
	Tag    string
}

type favouriteRow struct {
	FavouriteID int `json:"favourite_id"`
	FileID      int `json:"file_id"`
	UserID      int `json:"user_id"`
}

type commentRow struct {
	CommentID int    `json:"comment_id"`
	FileID    int    `json:"file_id"`
	UserID    int    `json:"user_id"`
	Comment   string `json:"comment"`
	TimeAdded string `json:"time_added"`
}

// Upload records the last multipart upload the fake received.
type Upload struct {
	Title       string
	Description string
	FileName    string
	ContentType string
	Data        []byte
}

// Server is the fake media API. Its URL ends without a slash.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	nextID     int
	users      map[int]*User
	tokens     map[string]int
	media      map[int]*Media
	tags       []tagRow
	favourites []favouriteRow
	comments   []commentRow
	failUsers  map[int]bool
	failTags   map[string]bool
	lastUpload *Upload
	requests   []string
}

// New starts a fake and closes it when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		nextID:    1,
		users:     make(map[int]*User),
		tokens:    make(map[string]int),
		media:     make(map[int]*Media),
		failUsers: make(map[int]bool),
		failTags:  make(map[string]bool),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the URL to hand to the client under test.
func (s *Server) BaseURL() string { return s.URL + "/" }

func (s *Server) id() int {
	id := s.nextID
	s.nextID++
	return id
}

// AddUser creates an account and returns its id and a valid token.
func (s *Server) AddUser(username, password, fullName string) (int, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.users[id] = &User{
		UserID:      id,
		Username:    username,
		Email:       username + "@example.com",
		FullName:    fullName,
		TimeCreated: "2024-01-01T00:00:00.000Z",
		password:    password,
	}
	token := uuid.NewString()
	s.tokens[token] = id
	return id, token
}

// AddMedia stores a file owned by userID and tags it with tags.
func (s *Server) AddMedia(userID int, filename, title, description string, tags ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.media[id] = &Media{
		FileID:      id,
		Filename:    filename,
		Title:       title,
		Description: description,
		UserID:      userID,
		MediaType:   "image",
		MimeType:    "image/jpeg",
		TimeAdded:   "2024-01-02T00:00:00.000Z",
	}
	for _, tag := range tags {
		s.tags = append(s.tags, tagRow{TagID: s.id(), FileID: id, Tag: tag})
	}
	return id
}

// AddTag tags an existing file and returns the tag id.
func (s *Server) AddTag(fileID int, tag string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.tags = append(s.tags, tagRow{TagID: id, FileID: fileID, Tag: tag})
	return id
}

// AddFavourite marks fileID as a favourite of userID.
func (s *Server) AddFavourite(userID, fileID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.favourites = append(s.favourites, favouriteRow{FavouriteID: id, FileID: fileID, UserID: userID})
	return id
}

// AddComment stores a comment by userID on fileID.
func (s *Server) AddComment(fileID, userID int, text string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.comments = append(s.comments, commentRow{
		CommentID: id,
		FileID:    fileID,
		UserID:    userID,
		Comment:   text,
		TimeAdded: "2024-01-03T00:00:00.000Z",
	})
	return id
}

// FailUser makes GET /users/{id} answer 500 with an unstructured body.
func (s *Server) FailUser(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failUsers[id] = true
}

// FailTag makes listing or creating tag answer 500 with an unstructured body.
func (s *Server) FailTag(tag string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failTags[tag] = true
}

// Media returns a copy of a stored file.
func (s *Server) Media(id int) (Media, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.media[id]
	if !ok {
		return Media{}, false
	}
	return *m, true
}

// User returns a copy of a stored account.
func (s *Server) User(id int) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, false
	}
	return *u, true
}

// TagsOf returns the tags of a file in the order they were added.
func (s *Server) TagsOf(fileID int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, t := range s.tags {
		if t.FileID == fileID {
			out = append(out, t.Tag)
		}
	}
	return out
}

// Favourites returns the number of stored favourite records.
func (s *Server) Favourites() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.favourites)
}

// LastUpload returns the last multipart upload, or nil.
func (s *Server) LastUpload() *Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUpload
}

// Requests lists "METHOD /path" for every request received so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// CountRequests counts received requests whose "METHOD /path" has prefix.
func (s *Server) CountRequests(prefix string) int {
	n := 0
	for _, r := range s.Requests() {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Post("/login", s.login)
	r.Post("/users", s.createUser)
	r.With(s.auth).Get("/users/user", s.currentUser)
	r.Get("/users/username/{name}", s.usernameAvailable)
	r.With(s.auth).Get("/users/{id}", s.getUser)
	r.With(s.auth).Put("/users", s.updateUser)

	r.Get("/tags/{tag}", s.listByTag)
	r.With(s.auth).Post("/tags", s.createTag)

	r.With(s.auth).Post("/media", s.upload)
	r.Get("/media/{id}", s.getMedia)
	r.With(s.auth).Put("/media/{id}", s.updateMedia)
	r.With(s.auth).Delete("/media/{id}", s.deleteMedia)

	r.With(s.auth).Get("/favourites", s.listFavourites)
	r.With(s.auth).Post("/favourites", s.createFavourite)
	r.With(s.auth).Delete("/favourites/file/{id}", s.deleteFavourite)

	r.Get("/comments/file/{id}", s.listComments)
	r.With(s.auth).Post("/comments", s.createComment)
	r.With(s.auth).Delete("/comments/{id}", s.deleteComment)
	return r
}

type ctxUserKey struct{}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.EscapedPath())
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		uid, ok := s.tokens[r.Header.Get(tokenHeader)]
		s.mu.Unlock()
		if !ok {
			apiError(w, http.StatusUnauthorized, "Authentication failed", "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, uid)))
	})
}

func userOf(r *http.Request) int {
	id, _ := r.Context().Value(ctxUserKey{}).(int)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func apiError(w http.ResponseWriter, status int, message, detail string) {
	writeJSON(w, status, map[string]string{"message": message, "error": detail})
}

func plainFailure(w http.ResponseWriter) {
	http.Error(w, "upstream exploded", http.StatusInternalServerError)
}

func intParam(r *http.Request, name string) int {
	id, _ := strconv.Atoi(chi.URLParam(r, name))
	return id
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apiError(w, http.StatusBadRequest, "Bad request", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username != body.Username || u.password != body.Password {
			continue
		}
		token := uuid.NewString()
		s.tokens[token] = u.UserID
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Logged in successfully",
			"token":   token,
			"user":    u,
		})
		return
	}
	apiError(w, http.StatusUnauthorized, "Login error", "Incorrect username or password")
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Email    string `json:"email"`
		FullName string `json:"full_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apiError(w, http.StatusBadRequest, "Bad request", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == body.Username {
			apiError(w, http.StatusConflict, "Username taken", "username "+body.Username+" is already in use")
			return
		}
	}
	id := s.id()
	s.users[id] = &User{
		UserID:   id,
		Username: body.Username,
		Email:    body.Email,
		FullName: body.FullName,
		password: body.Password,
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "user created", "user_id": id})
}

func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.users[userOf(r)])
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id := intParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUsers[id] {
		plainFailure(w)
		return
	}
	u, ok := s.users[id]
	if !ok {
		apiError(w, http.StatusNotFound, "User not found", "no user with id "+strconv.Itoa(id))
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) usernameAvailable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	s.mu.Lock()
	defer s.mu.Unlock()
	available := true
	for _, u := range s.users {
		if u.Username == name {
			available = false
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"username": name, "available": available})
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Email    string `json:"email"`
		FullName string `json:"full_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apiError(w, http.StatusBadRequest, "Bad request", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[userOf(r)]
	if body.Username != "" {
		u.Username = body.Username
	}
	if body.Password != "" {
		u.password = body.Password
	}
	if body.Email != "" {
		u.Email = body.Email
	}
	if body.FullName != "" {
		u.FullName = body.FullName
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "user data updated"})
}

func (s *Server) listByTag(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "tag")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failTags[tag] {
		plainFailure(w)
		return
	}
	out := []taggedMedia{}
	for _, t := range s.tags {
		if t.Tag != tag {
			continue
		}
		if m, ok := s.media[t.FileID]; ok {
			out = append(out, taggedMedia{Media: *m, TagID: t.TagID, Tag: t.Tag})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createTag(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FileID int    `json:"file_id"`
		Tag    string `json:"tag"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apiError(w, http.StatusBadRequest, "Bad request", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failTags[body.Tag] {
		plainFailure(w)
		return
	}
	if _, ok := s.media[body.FileID]; !ok {
		apiError(w, http.StatusNotFound, "Tag not added", "file not found")
		return
	}
	id := s.id()
	s.tags = append(s.tags, tagRow{TagID: id, FileID: body.FileID, Tag: body.Tag})
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Tag added", "tag_id": id})
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		apiError(w, http.StatusBadRequest, "Upload failed", err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		apiError(w, http.StatusBadRequest, "Upload failed", "file missing")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		apiError(w, http.StatusBadRequest, "Upload failed", err.Error())
		return
	}

	up := &Upload{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.media[id] = &Media{
		FileID:      id,
		Filename:    strconv.Itoa(id) + "_" + header.Filename,
		Filesize:    int64(len(data)),
		Title:       up.Title,
		Description: up.Description,
		UserID:      userOf(r),
		MediaType:   strings.Split(up.ContentType, "/")[0],
		MimeType:    up.ContentType,
	}
	s.lastUpload = up
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Upload OK", "file_id": id})
}

func (s *Server) getMedia(w http.ResponseWriter, r *http.Request) {
	id := intParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.media[id]
	if !ok {
		apiError(w, http.StatusNotFound, "Media not found", "no file with id "+strconv.Itoa(id))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) updateMedia(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apiError(w, http.StatusBadRequest, "Bad request", err.Error())
		return
	}
	id := intParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.media[id]
	if !ok || m.UserID != userOf(r) {
		apiError(w, http.StatusNotFound, "Update failed", "file not found or not owned")
		return
	}
	if body.Title != "" {
		m.Title = body.Title
	}
	m.Description = body.Description
	writeJSON(w, http.StatusOK, map[string]string{"message": "file info updated"})
}

func (s *Server) deleteMedia(w http.ResponseWriter, r *http.Request) {
	id := intParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.media[id]
	if !ok || m.UserID != userOf(r) {
		apiError(w, http.StatusNotFound, "Delete failed", "file not found or not owned")
		return
	}
	delete(s.media, id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "file deleted"})
}

func (s *Server) listFavourites(w http.ResponseWriter, r *http.Request) {
	uid := userOf(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []favouriteRow{}
	for _, f := range s.favourites {
		if f.UserID == uid {
			out = append(out, f)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createFavourite(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FileID int `json:"file_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apiError(w, http.StatusBadRequest, "Bad request", err.Error())
		return
	}
	uid := userOf(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.favourites {
		if f.UserID == uid && f.FileID == body.FileID {
			apiError(w, http.StatusBadRequest, "Favourite not added", "already a favourite")
			return
		}
	}
	id := s.id()
	s.favourites = append(s.favourites, favouriteRow{FavouriteID: id, FileID: body.FileID, UserID: uid})
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Favourite added", "favourite_id": id})
}

func (s *Server) deleteFavourite(w http.ResponseWriter, r *http.Request) {
	fileID := intParam(r, "id")
	uid := userOf(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, f := range s.favourites {
		if f.UserID == uid && f.FileID == fileID {
			s.favourites = append(s.favourites[:i], s.favourites[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Favourite deleted"})
			return
		}
	}
	apiError(w, http.StatusNotFound, "Delete failed", "favourite not found")
}

func (s *Server) listComments(w http.ResponseWriter, r *http.Request) {
	fileID := intParam(r, "id")

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []commentRow{}
	for _, c := range s.comments {
		if c.FileID == fileID {
			out = append(out, c)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createComment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FileID  int    `json:"file_id"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apiError(w, http.StatusBadRequest, "Bad request", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.comments = append(s.comments, commentRow{
		CommentID: id,
		FileID:    body.FileID,
		UserID:    userOf(r),
		Comment:   body.Comment,
	})
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Comment added", "comment_id": id})
}

func (s *Server) deleteComment(w http.ResponseWriter, r *http.Request) {
	id := intParam(r, "id")
	uid := userOf(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.comments {
		if c.CommentID == id && c.UserID == uid {
			s.comments = append(s.comments[:i], s.comments[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Comment deleted"})
			return
		}
	}
	apiError(w, http.StatusNotFound, "Delete failed", "comment not found")
}
