package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/EmpoweredVote/jobmarket/internal/api"
	"github.com/EmpoweredVote/jobmarket/internal/geocoding"
	"github.com/EmpoweredVote/jobmarket/internal/logger"
)

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

// helper: write JSON with a specific HTTP status code
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func respondError(w http.ResponseWriter, status int, msg string) {
	writeJSONStatus(w, status, errorBody{Error: msg})
}

// respondAPIError maps a client-layer error to a gateway response.
func respondAPIError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.LogError("gateway", op, err)
	}

	body := errorBody{Error: http.StatusText(status), Detail: err.Error()}
	var appErr *api.ApplicationError
	if errors.As(err, &appErr) {
		body.Error = appErr.Message
		body.Detail = appErr.Detail
		if body.Error == "" {
			body.Error = http.StatusText(status)
		}
	}
	writeJSONStatus(w, status, body)
}

func statusFor(err error) int {
	var (
		thirdParty *geocoding.ThirdPartyError
		authErr    *api.AuthError
		appErr     *api.ApplicationError
		transport  *api.TransportError
	)

	switch {
	case errors.As(err, &thirdParty):
		return http.StatusBadGateway
	case errors.Is(err, api.ErrMissingToken):
		return http.StatusUnauthorized
	case errors.Is(err, api.ErrMissingCredentials),
		errors.Is(err, api.ErrEmptyTag),
		errors.Is(err, api.ErrEmptyComment),
		errors.Is(err, api.ErrMissingFile),
		errors.Is(err, api.ErrInvalidRole),
		errors.Is(err, geocoding.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.As(err, &authErr) && authErr.Step != api.StepAvatar && errors.As(err, &appErr):
		return http.StatusUnauthorized
	case errors.As(err, &appErr):
		switch {
		case appErr.StatusCode >= 500:
			return http.StatusBadGateway
		case appErr.StatusCode >= 400:
			return appErr.StatusCode
		default:
			return http.StatusBadRequest
		}
	case errors.As(err, &transport):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
