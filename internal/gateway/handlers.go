package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/EmpoweredVote/jobmarket/internal/api"
	"github.com/EmpoweredVote/jobmarket/internal/middleware"
	"github.com/EmpoweredVote/jobmarket/internal/session"
	"github.com/EmpoweredVote/jobmarket/internal/utils"
)

const maxUploadSize = 16 << 20

type loginResponse struct {
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
	User      api.User  `json:"user"`
}

func (h *Handler) sessionCookie(value string, maxAge int) *http.Cookie {
	c := &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secureCookies,
	}
	if h.secureCookies {
		c.SameSite = http.SameSiteNoneMode
	}
	return c
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds api.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid Request Format")
		return
	}

	sess, err := h.client.Login(r.Context(), creds)
	if err != nil {
		respondAPIError(w, "login", err)
		return
	}

	now := h.now()
	s := session.Session{
		SessionID: utils.GenerateUUID(),
		UserID:    sess.User.ID,
		Employer:  sess.User.Employer,
		Token:     sess.Token,
		ExpiresAt: session.ExpiryFromToken(sess.Token, h.ttl, now),
		CreatedAt: now,
	}
	if err := h.store.Create(r.Context(), s); err != nil {
		respondAPIError(w, "create session", err)
		return
	}

	http.SetCookie(w, h.sessionCookie(s.SessionID, int(s.ExpiresAt.Sub(now).Seconds())))
	writeJSON(w, loginResponse{SessionID: s.SessionID, ExpiresAt: s.ExpiresAt, User: sess.User})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var nu api.NewUser
	if err := json.NewDecoder(r.Body).Decode(&nu); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid Request Format")
		return
	}

	created, err := h.client.Register(r.Context(), nu)
	if err != nil {
		respondAPIError(w, "register", err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, created)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	s, _ := utils.SessionFromContext(r.Context())

	user, err := h.client.ValidateSession(r.Context(), s.Token)
	if err != nil {
		respondAPIError(w, "me", err)
		return
	}
	writeJSON(w, user)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	s, _ := utils.SessionFromContext(r.Context())

	if err := h.store.Delete(r.Context(), s.SessionID); err != nil && !errors.Is(err, session.ErrNotFound) {
		respondAPIError(w, "logout", err)
		return
	}

	http.SetCookie(w, h.sessionCookie("", -1))
	writeJSON(w, api.MessageResponse{Message: "Logout successful"})
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	s, _ := utils.SessionFromContext(r.Context())

	user, err := h.client.GetUser(r.Context(), s.Token, id)
	if err != nil {
		respondAPIError(w, "get user", err)
		return
	}
	writeJSON(w, user)
}

func (h *Handler) UsernameAvailable(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	available, err := h.client.CheckUsernameAvailable(r.Context(), username)
	if err != nil {
		respondAPIError(w, "username available", err)
		return
	}
	writeJSON(w, map[string]any{"username": username, "available": available})
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var upd api.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid Request Format")
		return
	}
	s, _ := utils.SessionFromContext(r.Context())

	resp, err := h.client.UpdateUser(r.Context(), s.Token, upd)
	if err != nil {
		respondAPIError(w, "update user", err)
		return
	}
	writeJSON(w, resp)
}

// UploadAvatar expects multipart form data with a "file" image.
func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	s, _ := utils.SessionFromContext(r.Context())
	userID, _ := utils.GetUserIDFromContext(r.Context())

	res, err := h.client.UploadAvatar(r.Context(), s.Token, userID, api.Upload{
		FileName:    header.Filename,
		ContentType: formContentType(header.Header.Get("Content-Type")),
		File:        file,
	})
	if err != nil {
		respondAPIError(w, "upload avatar", err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, res)
}

func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	var role api.Role
	if q := r.URL.Query().Get("role"); q != "" {
		parsed, err := api.ParseRole(q)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		role = parsed
	}
	s, _ := utils.SessionFromContext(r.Context())

	items, err := h.client.ListPostings(r.Context(), s.Token, role)
	if err != nil {
		respondAPIError(w, "list jobs", err)
		return
	}
	writeJSON(w, items)
}

func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	s, _ := utils.SessionFromContext(r.Context())

	item, err := h.client.GetPosting(r.Context(), s.Token, id)
	if err != nil {
		respondAPIError(w, "get job", err)
		return
	}
	writeJSON(w, item)
}

// CreateJob expects multipart form data with "title", "file" and either a
// "details" JSON object or a plain "description".
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	var details api.JobDetails
	if raw := r.FormValue("details"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &details); err != nil {
			respondError(w, http.StatusBadRequest, "details must be a JSON object")
			return
		}
	} else {
		details.Description = r.FormValue("description")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	s, _ := utils.SessionFromContext(r.Context())
	poster := api.User{ID: s.UserID, Employer: s.Employer}

	res, err := h.client.PublishPosting(r.Context(), s.Token, poster, api.Upload{
		Title:       r.FormValue("title"),
		Details:     details,
		FileName:    header.Filename,
		ContentType: formContentType(header.Header.Get("Content-Type")),
		File:        file,
	})
	if err != nil {
		respondAPIError(w, "create job", err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, res)
}

func (h *Handler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	var upd api.MediaUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid Request Format")
		return
	}
	s, _ := utils.SessionFromContext(r.Context())
	// the posting's kind follows the account, not the request body
	upd.Details.SetJob(s.Employer)

	resp, err := h.client.UpdateMedia(r.Context(), s.Token, id, upd)
	if err != nil {
		respondAPIError(w, "update job", err)
		return
	}
	writeJSON(w, resp)
}

func (h *Handler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	s, _ := utils.SessionFromContext(r.Context())

	if err := h.client.DeleteMedia(r.Context(), s.Token, id); err != nil {
		respondAPIError(w, "delete job", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	s, _ := utils.SessionFromContext(r.Context())

	comments, err := h.client.ListComments(r.Context(), s.Token, id)
	if err != nil {
		respondAPIError(w, "list comments", err)
		return
	}
	writeJSON(w, comments)
}

func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid Request Format")
		return
	}
	s, _ := utils.SessionFromContext(r.Context())

	res, err := h.client.CreateComment(r.Context(), s.Token, id, body.Comment)
	if err != nil {
		respondAPIError(w, "create comment", err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, res)
}

func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	s, _ := utils.SessionFromContext(r.Context())

	if err := h.client.DeleteComment(r.Context(), s.Token, id); err != nil {
		respondAPIError(w, "delete comment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListFavourites(w http.ResponseWriter, r *http.Request) {
	s, _ := utils.SessionFromContext(r.Context())

	items, err := h.client.ListFavourites(r.Context(), s.Token)
	if err != nil {
		respondAPIError(w, "list favourites", err)
		return
	}
	writeJSON(w, items)
}

func (h *Handler) AddFavourite(w http.ResponseWriter, r *http.Request) {
	fileID, ok := intParam(w, r, "fileID")
	if !ok {
		return
	}
	s, _ := utils.SessionFromContext(r.Context())

	fav, err := h.client.AddFavourite(r.Context(), s.Token, fileID)
	if err != nil {
		respondAPIError(w, "add favourite", err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, fav)
}

func (h *Handler) RemoveFavourite(w http.ResponseWriter, r *http.Request) {
	fileID, ok := intParam(w, r, "fileID")
	if !ok {
		return
	}
	s, _ := utils.SessionFromContext(r.Context())

	if err := h.client.RemoveFavourite(r.Context(), s.Token, fileID); err != nil {
		respondAPIError(w, "remove favourite", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SearchLocations(w http.ResponseWriter, r *http.Request) {
	if h.geo == nil {
		respondError(w, http.StatusServiceUnavailable, "location search is not configured")
		return
	}

	results, err := h.geo.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondAPIError(w, "search locations", err)
		return
	}
	writeJSON(w, results)
}

// browsers send octet-stream for unknown types; let the file name decide
func formContentType(ct string) string {
	if ct == "application/octet-stream" {
		return ""
	}
	return ct
}

func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}
