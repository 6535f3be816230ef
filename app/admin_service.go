package app

import (
	"context"
	"strings"

	"cocreview/domain/core"
	"cocreview/models"
	"cocreview/ports"
)

// AdminService manages labs and user accounts. Every method requires an
// admin actor.
type AdminService struct {
	labs     ports.LabRepository
	users    ports.UserRepository
	sessions ports.SessionRepository
	auth     *AuthService
}

// NewAdminService creates an admin service
func NewAdminService(labs ports.LabRepository, users ports.UserRepository, sessions ports.SessionRepository, auth *AuthService) *AdminService {
	return &AdminService{labs: labs, users: users, sessions: sessions, auth: auth}
}

func requireAdmin(actor *models.User) error {
	if !actor.IsAdmin() {
		return core.ErrForbidden
	}
	return nil
}

// CreateLab adds a lab. The code is derived from the name when empty.
func (s *AdminService) CreateLab(ctx context.Context, actor *models.User, name, code string) (*models.Lab, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, core.NewValidationError("name", "is required")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		code = name
	}
	now := core.Now()
	lab := &models.Lab{
		ID:        core.NewLabID(),
		Name:      name,
		Code:      LabCode(code),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.labs.Create(ctx, lab); err != nil {
		return nil, err
	}
	return lab, nil
}

// ListLabs returns every lab.
func (s *AdminService) ListLabs(ctx context.Context, actor *models.User) ([]*models.Lab, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.labs.List(ctx)
}

// SetLabActive enables or disables a lab. An admin cannot disable their
// own lab.
func (s *AdminService) SetLabActive(ctx context.Context, actor *models.User, id core.LabID, active bool) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if !active && id == actor.LabID {
		return core.NewValidationError("lab", "cannot deactivate your own lab")
	}
	return s.labs.SetActive(ctx, id, active)
}

// CreateUser adds an account. An empty lab id means the actor's lab.
func (s *AdminService) CreateUser(ctx context.Context, actor *models.User, req NewUserRequest) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if req.LabID == "" {
		req.LabID = actor.LabID
	}
	if req.Role == "" {
		req.Role = models.RoleReviewer
	}
	return s.auth.Register(ctx, req)
}

// ListUsers returns the users of a lab; an empty id means the actor's lab.
func (s *AdminService) ListUsers(ctx context.Context, actor *models.User, labID core.LabID) ([]*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if labID == "" {
		labID = actor.LabID
	}
	return s.users.ListByLab(ctx, labID)
}

// DeactivateUser disables an account and ends its sessions.
func (s *AdminService) DeactivateUser(ctx context.Context, actor *models.User, id core.UserID) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if id == actor.ID {
		return core.NewValidationError("user", "cannot deactivate yourself")
	}
	if err := s.users.SetActive(ctx, id, false); err != nil {
		return err
	}
	return s.sessions.DeleteForUser(ctx, id)
}
