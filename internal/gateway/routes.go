package gateway

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/EmpoweredVote/jobmarket/internal/api"
	"github.com/EmpoweredVote/jobmarket/internal/config"
	"github.com/EmpoweredVote/jobmarket/internal/geocoding"
	"github.com/EmpoweredVote/jobmarket/internal/middleware"
	"github.com/EmpoweredVote/jobmarket/internal/session"
)

// Handler serves the gateway API. It keeps the upstream bearer token in a
// server-side session and passes it explicitly to every client call.
type Handler struct {
	client        *api.Client
	geo           *geocoding.Client // nil when location search is disabled
	store         session.Store
	ttl           time.Duration
	secureCookies bool
	now           func() time.Time
}

// Options configures a Handler.
type Options struct {
	Client        *api.Client
	Geocoder      *geocoding.Client
	Store         session.Store
	SessionTTL    time.Duration
	SecureCookies bool
}

func NewHandler(opts Options) *Handler {
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = config.DefaultSessionTTL
	}
	return &Handler{
		client:        opts.Client,
		geo:           opts.Geocoder,
		store:         opts.Store,
		ttl:           ttl,
		secureCookies: opts.SecureCookies,
		now:           time.Now,
	}
}

func (h *Handler) SetupRoutes() http.Handler {
	r := chi.NewRouter()
	requireSession := middleware.SessionMiddleware(session.Fetcher{Store: h.store})

	// Public routes
	r.Post("/auth/login", h.Login)
	r.Post("/auth/register", h.Register)
	r.Get("/users/available/{username}", h.UsernameAvailable)
	r.Get("/locations", h.SearchLocations)

	r.Group(func(r chi.Router) {
		r.Use(requireSession)

		r.Get("/auth/me", h.Me)
		r.Post("/auth/logout", h.Logout)

		r.Get("/users/{id}", h.GetUser)
		r.Put("/users", h.UpdateUser)
		r.Post("/users/avatar", h.UploadAvatar)

		r.Get("/jobs", h.ListJobs)
		r.Post("/jobs", h.CreateJob)
		r.Get("/jobs/{id}", h.GetJob)
		r.Put("/jobs/{id}", h.UpdateJob)
		r.Delete("/jobs/{id}", h.DeleteJob)

		r.Get("/jobs/{id}/comments", h.ListComments)
		r.Post("/jobs/{id}/comments", h.CreateComment)
		r.Delete("/comments/{id}", h.DeleteComment)

		r.Get("/favourites", h.ListFavourites)
		r.Post("/favourites/{fileID}", h.AddFavourite)
		r.Delete("/favourites/{fileID}", h.RemoveFavourite)
	})

	return r
}
