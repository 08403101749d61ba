package handlers

import (
	"context"
	"net/http"
	"net/url"

	"github.com/SachinRathod0101/Time-left-backend/internal/middleware"
	"github.com/SachinRathod0101/Time-left-backend/internal/models"
	"github.com/SachinRathod0101/Time-left-backend/internal/services"
	"github.com/SachinRathod0101/Time-left-backend/pkg/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserService is the account workflow the HTTP layer drives.
type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string, requireAdmin bool) (*services.AuthResult, error)
	Logout(ctx context.Context, claims *services.Claims) error
	Get(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	List(ctx context.Context, values url.Values) (*services.UserPage, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, in services.ProfileInput) (*models.User, error)
	UpdatePhoto(ctx context.Context, id primitive.ObjectID, img *services.Image) (*models.User, error)
}

type UserHandler struct {
	users UserService
}

func NewUserHandler(users UserService) *UserHandler {
	return &UserHandler{users: users}
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	City     string `json:"city"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ProfileRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Bio      *string `json:"bio"`
	City     *string `json:"city"`
	Password *string `json:"password"`
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.users.Register(r.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		City:     req.City,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAuth(w, http.StatusCreated, res)
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, false)
}

// AdminLogin is Login restricted to accounts with the admin role.
func (h *UserHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, true)
}

func (h *UserHandler) login(w http.ResponseWriter, r *http.Request, requireAdmin bool) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.users.Login(r.Context(), req.Email, req.Password, requireAdmin)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeAuth(w, http.StatusOK, res)
}

func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.users.Logout(r.Context(), middleware.ClaimsFrom(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Logged out")
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), actorFrom(r).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.users.UpdateProfile(r.Context(), actorFrom(r).ID, services.ProfileInput{
		Name:     req.Name,
		Email:    req.Email,
		Bio:      req.Bio,
		City:     req.City,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, user)
}

// UpdatePhoto replaces the profile photo from the multipart "photo" field.
func (h *UserHandler) UpdatePhoto(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		writeError(w, r, utils.NewValidationError("photo", "Failed to parse form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	img, closer, err := formImage(r, "photo")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if img == nil {
		writeError(w, r, utils.NewValidationError("photo", "Please upload a photo"))
		return
	}
	defer closer.Close()

	user, err := h.users.UpdatePhoto(r.Context(), actorFrom(r).ID, img)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, user)
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := h.users.List(r.Context(), r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	users := page.Users
	if users == nil {
		users = []models.User{}
	}
	writeList(w, users, len(users), page.Total, page.Pagination)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "User")
	if err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, user)
}
