package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/SachinRathod0101/Time-left-backend/internal/logging"
	"github.com/SachinRathod0101/Time-left-backend/internal/models"
	"github.com/SachinRathod0101/Time-left-backend/internal/query"
	"github.com/SachinRathod0101/Time-left-backend/internal/store"
	"github.com/SachinRathod0101/Time-left-backend/pkg/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, q query.ListQuery) ([]models.User, int64, error)
	Update(ctx context.Context, id primitive.ObjectID, patch models.UserPatch) (*models.User, error)
	SetRole(ctx context.Context, id primitive.ObjectID, role models.Role) error
}

const profilePhotoFolder = "profiles"

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	City     string
}

// ProfileInput carries the fields a user may change on their own profile;
// nil means not sent.
type ProfileInput struct {
	Name     *string
	Email    *string
	Bio      *string
	City     *string
	Password *string
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

type UserPage struct {
	Users      []models.User
	Total      int64
	Pagination query.Pagination
}

type UserService struct {
	users       UserStore
	tokens      *TokenManager
	revocations RevocationList
	uploader    ImageUploader
	timeout     time.Duration
}

func NewUserService(users UserStore, tokens *TokenManager, revocations RevocationList, uploader ImageUploader, timeout time.Duration) *UserService {
	return &UserService{
		users:       users,
		tokens:      tokens,
		revocations: revocations,
		uploader:    uploader,
		timeout:     timeout,
	}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, utils.NewValidationError("name", "Name is required")
	}
	email := utils.NormalizeEmail(in.Email)
	if err := utils.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := utils.ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	user := &models.User{Name: name, Email: email, Role: models.RoleUser, City: strings.TrimSpace(in.City)}
	if err := s.createUser(ctx, user, in.Password); err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("user registered", "user_id", user.ID.Hex())
	return s.issue(user)
}

// Login checks credentials. With requireAdmin only admin accounts may sign
// in; this is the single policy behind both login routes.
func (s *UserService) Login(ctx context.Context, email, password string, requireAdmin bool) (*AuthResult, error) {
	email = utils.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, utils.NewValidationError("email", "Please provide email and password")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	ok, err := utils.VerifyPassword(password, user.Password)
	if err != nil || !ok {
		return nil, fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
	}
	if requireAdmin && !user.IsAdmin() {
		return nil, fmt.Errorf("invalid credentials or not an admin: %w", ErrUnauthorized)
	}
	return s.issue(user)
}

// Logout revokes the presented token until it would have expired anyway.
func (s *UserService) Logout(ctx context.Context, claims *Claims) error {
	if err := s.revocations.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Authenticate verifies a bearer token and loads its user. Unknown users and
// revoked tokens are ErrUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, *Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, nil, err
	}
	revoked, err := s.revocations.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return nil, nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, nil, fmt.Errorf("token revoked: %w", ErrUnauthorized)
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, fmt.Errorf("user no longer exists: %w", ErrUnauthorized)
		}
		return nil, nil, fmt.Errorf("load user: %w", err)
	}
	return user, claims, nil
}

func (s *UserService) Get(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("User")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context, values url.Values) (*UserPage, error) {
	q, err := query.Parse(values, store.UserFields)
	if err != nil {
		return nil, err
	}
	users, total, err := s.users.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return &UserPage{Users: users, Total: total, Pagination: q.Paginate(total)}, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id primitive.ObjectID, in ProfileInput) (*models.User, error) {
	var patch models.UserPatch
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, utils.NewValidationError("name", "Name is required")
		}
		patch.Name = &name
	}
	if in.Email != nil {
		email := utils.NormalizeEmail(*in.Email)
		if err := utils.ValidateEmail(email); err != nil {
			return nil, err
		}
		patch.Email = &email
	}
	if in.Bio != nil {
		bio := strings.TrimSpace(*in.Bio)
		patch.Bio = &bio
	}
	if in.City != nil {
		city := strings.TrimSpace(*in.City)
		patch.City = &city
	}
	if in.Password != nil {
		if err := utils.ValidatePassword(*in.Password); err != nil {
			return nil, err
		}
		hash, err := utils.HashPassword(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		patch.Password = &hash
	}
	return s.update(ctx, id, patch)
}

func (s *UserService) UpdatePhoto(ctx context.Context, id primitive.ObjectID, img *Image) (*models.User, error) {
	if err := img.Validate("photo"); err != nil {
		return nil, err
	}
	if s.uploader == nil {
		return nil, fmt.Errorf("photo upload: %w: no image store configured", ErrUpstream)
	}
	var photoURL string
	err := callExternal(ctx, s.timeout, "image upload", func(ctx context.Context) error {
		var err error
		photoURL, err = s.uploader.Upload(ctx, img, profilePhotoFolder)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.update(ctx, id, models.UserPatch{Photo: &photoURL})
}

// CreateAdmin creates an admin account, or promotes the existing account
// with that email.
func (s *UserService) CreateAdmin(ctx context.Context, name, email, password string) (*models.User, error) {
	email = utils.NormalizeEmail(email)
	if err := utils.ValidateEmail(email); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.users.SetRole(ctx, existing.ID, models.RoleAdmin); err != nil {
			return nil, fmt.Errorf("promote user: %w", err)
		}
		existing.Role = models.RoleAdmin
		return existing, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("load user: %w", err)
	}

	if strings.TrimSpace(name) == "" {
		return nil, utils.NewValidationError("name", "Name is required")
	}
	if err := utils.ValidatePassword(password); err != nil {
		return nil, err
	}
	user := &models.User{Name: strings.TrimSpace(name), Email: email, Role: models.RoleAdmin}
	if err := s.createUser(ctx, user, password); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) createUser(ctx context.Context, user *models.User, password string) error {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.Password = hash
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *UserService) update(ctx context.Context, id primitive.ObjectID, patch models.UserPatch) (*models.User, error) {
	user, err := s.users.Update(ctx, id, patch)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, notFound("User")
		case errors.Is(err, store.ErrDuplicate):
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (s *UserService) issue(user *models.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}
