package app

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"cocreview/domain/core"
	"cocreview/internal"
	apperrors "cocreview/internal/errors"
	"cocreview/models"
	"cocreview/ports"
)

const minPasswordLength = 8

// AuthService handles login sessions and account creation.
type AuthService struct {
	users    ports.UserRepository
	labs     ports.LabRepository
	sessions ports.SessionRepository
	ttl      time.Duration
	cost     int
	now      func() time.Time
	logger   *internal.Logger
}

// NewAuthService creates an auth service. A zero ttl defaults to 12 hours and
// a zero cost to bcrypt.DefaultCost.
func NewAuthService(users ports.UserRepository, labs ports.LabRepository, sessions ports.SessionRepository, ttl time.Duration, cost int, logger *internal.Logger) *AuthService {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &AuthService{
		users:    users,
		labs:     labs,
		sessions: sessions,
		ttl:      ttl,
		cost:     cost,
		now:      core.Now,
		logger:   logger,
	}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", core.NewValidationError("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash password")
	}
	return string(h), nil
}

// Login checks credentials and opens a session. The returned token is shown
// to the client once; only its hash is stored.
func (s *AuthService) Login(ctx context.Context, login, password string) (string, *models.User, error) {
	user, err := s.users.GetByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		if core.IsNotFoundError(err) {
			return "", nil, apperrors.WithCode(apperrors.CodeUnauthorized, core.ErrInvalidCredentials)
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperrors.WithCode(apperrors.CodeUnauthorized, core.ErrInvalidCredentials)
	}
	if err := s.checkActive(ctx, user); err != nil {
		return "", nil, err
	}

	token, err := core.NewToken()
	if err != nil {
		return "", nil, apperrors.Wrap(err, "failed to create session token")
	}
	now := s.now()
	session := &models.Session{
		TokenHash: core.HashToken(token),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", nil, apperrors.Wrap(err, "failed to create session")
	}
	s.logger.Info("user %s logged in", user.Username)
	return token, user, nil
}

func (s *AuthService) checkActive(ctx context.Context, user *models.User) error {
	if !user.IsActive {
		return apperrors.WithCode(apperrors.CodeUnauthorized, core.ErrInactiveAccount)
	}
	lab, err := s.labs.GetByID(ctx, user.LabID)
	if err != nil {
		return err
	}
	if !lab.IsActive {
		return apperrors.WithCode(apperrors.CodeUnauthorized, core.ErrInactiveAccount)
	}
	return nil
}

// Authenticate resolves a session token to its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperrors.WithCode(apperrors.CodeUnauthorized, core.ErrSessionNotFound)
	}
	hash := core.HashToken(token)
	session, err := s.sessions.Get(ctx, hash)
	if err != nil {
		if core.IsNotFoundError(err) {
			return nil, apperrors.WithCode(apperrors.CodeUnauthorized, core.ErrSessionNotFound)
		}
		return nil, err
	}
	if session.Expired(s.now()) {
		_ = s.sessions.Delete(ctx, hash)
		return nil, apperrors.WithCode(apperrors.CodeUnauthorized, core.ErrSessionExpired)
	}
	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if core.IsNotFoundError(err) {
			return nil, apperrors.WithCode(apperrors.CodeUnauthorized, core.ErrSessionNotFound)
		}
		return nil, err
	}
	if err := s.checkActive(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Logout ends the session of token. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	err := s.sessions.Delete(ctx, core.HashToken(token))
	if err != nil && !core.IsNotFoundError(err) {
		return err
	}
	return nil
}

// PurgeExpired removes expired sessions.
func (s *AuthService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.now())
}

// NewUserRequest describes an account to create.
type NewUserRequest struct {
	LabID    core.LabID  `json:"lab_id"`
	Email    string      `json:"email"`
	Username string      `json:"username"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9._-]{3,64}$`)

// Register creates a user without an authorization check. It backs the admin
// API, the bootstrap admin and the CLI.
func (s *AuthService) Register(ctx context.Context, req NewUserRequest) (*models.User, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil {
		return nil, core.NewValidationError("email", "is not a valid address")
	}
	username := strings.TrimSpace(req.Username)
	if !usernameRe.MatchString(username) {
		return nil, core.NewValidationError("username", "must be 3-64 letters, digits, dots, dashes or underscores")
	}
	role, ok := models.ParseRole(string(req.Role))
	if !ok {
		return nil, core.NewValidationError("role", fmt.Sprintf("unknown role %q", req.Role))
	}
	if _, err := s.labs.GetByID(ctx, req.LabID); err != nil {
		return nil, err
	}
	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &models.User{
		ID:           core.NewUserID(),
		LabID:        req.LabID,
		Email:        strings.ToLower(addr.Address),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("created %s user %s in lab %s", role, user.Username, user.LabID)
	return user, nil
}

// BootstrapRequest seeds the first lab and admin of an empty install.
type BootstrapRequest struct {
	LabName  string
	Email    string
	Password string
}

// Bootstrap creates the first lab and an admin user when no user exists yet.
// It reports whether anything was created.
func (s *AuthService) Bootstrap(ctx context.Context, req BootstrapRequest) (bool, error) {
	n, err := s.users.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 || req.Email == "" || req.Password == "" {
		return false, nil
	}

	name := strings.TrimSpace(req.LabName)
	if name == "" {
		name = "Default Lab"
	}
	now := s.now()
	lab := &models.Lab{
		ID:        core.NewLabID(),
		Name:      name,
		Code:      LabCode(name),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.labs.Create(ctx, lab); err != nil && !errors.Is(err, core.ErrAlreadyExists) {
		return false, err
	} else if err != nil {
		existing, gerr := s.labs.GetByCode(ctx, lab.Code)
		if gerr != nil {
			return false, gerr
		}
		lab = existing
	}

	username := strings.SplitN(req.Email, "@", 2)[0]
	if _, err := s.Register(ctx, NewUserRequest{
		LabID:    lab.ID,
		Email:    req.Email,
		Username: username,
		Password: req.Password,
		Role:     models.RoleAdmin,
	}); err != nil {
		return false, err
	}
	s.logger.Info("bootstrapped lab %s with admin %s", lab.Code, username)
	return true, nil
}

var nonCodeRe = regexp.MustCompile(`[^a-z0-9]+`)

// LabCode derives a lab's short code from its name.
func LabCode(name string) string {
	code := strings.Trim(nonCodeRe.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if code == "" {
		return "lab"
	}
	return code
}
