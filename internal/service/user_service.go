package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/singleflight"

	"github.com/wilmerjaviers/T387-IS-PROYECTO/internal/domain"
	"github.com/wilmerjaviers/T387-IS-PROYECTO/internal/repo"
	"github.com/wilmerjaviers/T387-IS-PROYECTO/internal/utils"
)

var (
	// ErrInvalidCredentials is returned for unknown usernames and wrong
	// passwords alike; the two cases are indistinguishable on purpose.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateUser      = errors.New("username or email already exists")
	ErrUnknownRole        = errors.New("unknown role")
	ErrUserNotFound       = errors.New("user not found")
	ErrValidation         = errors.New("invalid input")
)

// UserCache is the slice of the read cache the user service needs.
// *cache.TaskCache satisfies it.
type UserCache interface {
	GetActiveUsers(ctx context.Context) ([]domain.User, error)
	SetActiveUsers(ctx context.Context, users []domain.User) error
	InvalidateActiveUsers(ctx context.Context) error
	InvalidateList(ctx context.Context, userID int64) error
}

// UserService handles credentials, registration and user administration.
type UserService struct {
	repo  repo.UserRepo
	cache UserCache
	sf    singleflight.Group
}

// NewUserService creates a UserService. If c is nil, caching is disabled.
func NewUserService(r repo.UserRepo, c UserCache) *UserService {
	return &UserService{repo: r, cache: c}
}

// Authenticate verifies username and password against the stored hash and
// returns the user if valid. Only active accounts can log in.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	u, err := s.repo.GetActiveByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// Register creates a new user with a hashed password. The plaintext is
// never stored or logged.
func (s *UserService) Register(ctx context.Context, username, email, password, role string) (domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if len(username) < 3 {
		return domain.User{}, fmt.Errorf("%w: username must be at least 3 characters", ErrValidation)
	}
	if len(password) < 6 {
		return domain.User{}, fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.User{}, fmt.Errorf("%w: email must be valid", ErrValidation)
	}
	r := domain.Role(role)
	if !r.Valid() {
		return domain.User{}, ErrUnknownRole
	}
	known, err := s.repo.RoleExists(ctx, r)
	if err != nil {
		return domain.User{}, err
	}
	if !known {
		return domain.User{}, ErrUnknownRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}
	u, err := s.repo.Create(ctx, username, email, string(hash), r)
	if err != nil {
		if utils.IsPGUniqueViolation(err) {
			return domain.User{}, ErrDuplicateUser
		}
		return domain.User{}, err
	}
	s.invalidateActiveUsers(ctx)
	return u, nil
}

// ListUsers returns all users; callers gate this behind the admin role.
func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.repo.List(ctx)
}

// ActiveUsers returns the active users for assignment pickers, cached.
func (s *UserService) ActiveUsers(ctx context.Context) ([]domain.User, error) {
	if s.cache == nil {
		return s.repo.ListActive(ctx)
	}
	v, err, _ := s.sf.Do("users:active", func() (interface{}, error) {
		if users, err := s.cache.GetActiveUsers(ctx); err == nil && users != nil {
			return users, nil
		}
		users, err := s.repo.ListActive(ctx)
		if err != nil {
			return nil, err
		}
		_ = s.cache.SetActiveUsers(ctx, users)
		return users, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.User), nil
}

// SetActive flips the account's active flag. Deactivation invalidates the
// user's outstanding tokens on their next request, since the session
// middleware re-fetches the live row.
func (s *UserService) SetActive(ctx context.Context, id int64, active bool) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	s.invalidateActiveUsers(ctx)
	if s.cache != nil {
		// The user's cached listing is scoped to their old account state.
		_ = s.cache.InvalidateList(ctx, id)
	}
	return nil
}

func (s *UserService) invalidateActiveUsers(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.InvalidateActiveUsers(ctx)
	}
}
