package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/SachinRathod0101/Time-left-backend/internal/logging"
	"github.com/SachinRathod0101/Time-left-backend/internal/query"
	"github.com/SachinRathod0101/Time-left-backend/internal/services"
	"github.com/SachinRathod0101/Time-left-backend/pkg/utils"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Response is the JSON envelope every endpoint answers with.
type Response struct {
	Success    bool                     `json:"success"`
	Message    string                   `json:"message,omitempty"`
	Token      string                   `json:"token,omitempty"`
	ExpiresAt  *time.Time               `json:"expiresAt,omitempty"`
	User       interface{}              `json:"user,omitempty"`
	Count      *int                     `json:"count,omitempty"`
	Total      *int64                   `json:"total,omitempty"`
	Pagination *query.Pagination        `json:"pagination,omitempty"`
	Data       interface{}              `json:"data,omitempty"`
	Errors     []*utils.ValidationError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, Response{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Response{Success: status < 400, Message: message})
}

func writeList(w http.ResponseWriter, data interface{}, count int, total int64, p query.Pagination) {
	writeJSON(w, http.StatusOK, Response{
		Success:    true,
		Count:      &count,
		Total:      &total,
		Pagination: &p,
		Data:       data,
	})
}

func writeAuth(w http.ResponseWriter, status int, res *services.AuthResult) {
	writeJSON(w, status, Response{
		Success:   true,
		Token:     res.Token,
		ExpiresAt: &res.ExpiresAt,
		User:      res.User,
	})
}

// writeError maps a service error onto its status code and public message.
// Faults are logged with their full chain and answered generically.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *utils.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, Response{Message: verr.Message, Errors: []*utils.ValidationError{verr}})
	case services.IsBusinessRule(err):
		writeMessage(w, http.StatusBadRequest, publicMessage(err, nil, "Request rejected"))
	case errors.Is(err, services.ErrUnauthorized):
		writeMessage(w, http.StatusUnauthorized, publicMessage(err, services.ErrUnauthorized, "Not authorized to access this route"))
	case errors.Is(err, services.ErrForbidden):
		writeMessage(w, http.StatusForbidden, publicMessage(err, services.ErrForbidden, "Not authorized to perform this action"))
	case errors.Is(err, services.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrEmailTaken):
		writeMessage(w, http.StatusConflict, "User already exists")
	case errors.Is(err, services.ErrBusy):
		logging.FromContext(r.Context()).Warn("conditional update contended", "error", err)
		w.Header().Set("Retry-After", "1")
		writeMessage(w, http.StatusServiceUnavailable, capitalize(services.ErrBusy.Error()))
	case errors.Is(err, services.ErrUpstreamTimeout):
		logging.FromContext(r.Context()).Error("upstream timeout", "error", err)
		writeMessage(w, http.StatusGatewayTimeout, "An external service timed out, please retry")
	default:
		logging.FromContext(r.Context()).Error("request failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Server error")
	}
}

// publicMessage returns the text a client may see for err. Sentinel rules
// report their own text; wrapped authn/authz errors report the prefix the
// service put in front of the sentinel ("invalid credentials: unauthorized").
func publicMessage(err error, sentinel error, fallback string) string {
	for _, target := range []error{
		services.ErrCapacityExceeded, services.ErrAlreadyRegistered, services.ErrNotRegistered,
		services.ErrAlreadyAttached, services.ErrNotAttached, services.ErrInvalidTransition,
	} {
		if errors.Is(err, target) {
			return capitalize(target.Error())
		}
	}
	if sentinel != nil {
		if prefix, ok := strings.CutSuffix(err.Error(), ": "+sentinel.Error()); ok && prefix != "" {
			return capitalize(prefix)
		}
	}
	return fallback
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

// decodeJSON reads a JSON body into dst, reporting malformed input as a
// validation error.
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return utils.NewValidationError("body", "Invalid request body")
	}
	return nil
}

// pathID parses the chi URL param name as an ObjectID. A malformed id cannot
// match any document, so it is reported as resource not found.
func pathID(r *http.Request, name, resource string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, notFoundError(resource)
	}
	return id, nil
}

type notFoundError string

func (e notFoundError) Error() string { return string(e) + " not found" }

func (e notFoundError) Is(target error) bool { return target == services.ErrNotFound }
