package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cocreview/domain/core"
	"cocreview/models"
)

func newAdminFixture(t *testing.T) (*AdminService, *authFixture, *models.User) {
	t.Helper()
	f := newAuthFixture(t)
	admin := &models.User{ID: core.NewUserID(), LabID: f.lab.ID, Username: "root", Role: models.RoleAdmin, IsActive: true}
	return NewAdminService(f.labs, f.users, f.sessions, f.svc), f, admin
}

func TestAdminService_RequiresAdmin(t *testing.T) {
	svc, f, _ := newAdminFixture(t)
	reviewer := &models.User{ID: core.NewUserID(), LabID: f.lab.ID, Role: models.RoleReviewer}
	ctx := context.Background()

	_, err := svc.CreateLab(ctx, reviewer, "Other", "")
	assert.ErrorIs(t, err, core.ErrForbidden)
	_, err = svc.ListLabs(ctx, nil)
	assert.ErrorIs(t, err, core.ErrForbidden)
	_, err = svc.CreateUser(ctx, reviewer, NewUserRequest{})
	assert.ErrorIs(t, err, core.ErrForbidden)
	_, err = svc.ListUsers(ctx, reviewer, "")
	assert.ErrorIs(t, err, core.ErrForbidden)
	assert.ErrorIs(t, svc.DeactivateUser(ctx, reviewer, core.NewUserID()), core.ErrForbidden)
	assert.ErrorIs(t, svc.SetLabActive(ctx, reviewer, f.lab.ID, false), core.ErrForbidden)

	f.labs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAdminService_CreateLab(t *testing.T) {
	svc, f, admin := newAdminFixture(t)
	f.labs.On("Create", mock.Anything, mock.AnythingOfType("*models.Lab")).Return(nil)

	lab, err := svc.CreateLab(context.Background(), admin, "Bayou Labs", "BAYOU 2")
	require.NoError(t, err)
	assert.Equal(t, "bayou-2", lab.Code)
	assert.True(t, lab.IsActive)

	_, err = svc.CreateLab(context.Background(), admin, " ", "")
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestAdminService_CreateUserDefaultsToActorLab(t *testing.T) {
	svc, f, admin := newAdminFixture(t)
	f.users.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)

	u, err := svc.CreateUser(context.Background(), admin, NewUserRequest{
		Email: "new@acme.test", Username: "newbie", Password: "long enough",
	})
	require.NoError(t, err)
	assert.Equal(t, admin.LabID, u.LabID)
	assert.Equal(t, models.RoleReviewer, u.Role)
}

func TestAdminService_DeactivateUserEndsSessions(t *testing.T) {
	svc, f, admin := newAdminFixture(t)
	target := core.NewUserID()
	f.users.On("SetActive", mock.Anything, target, false).Return(nil)
	f.sessions.On("DeleteForUser", mock.Anything, target).Return(nil)

	require.NoError(t, svc.DeactivateUser(context.Background(), admin, target))
	f.users.AssertExpectations(t)
	f.sessions.AssertExpectations(t)

	assert.ErrorIs(t, svc.DeactivateUser(context.Background(), admin, admin.ID), core.ErrValidation)
	assert.ErrorIs(t, svc.SetLabActive(context.Background(), admin, admin.LabID, false), core.ErrValidation)
}

func TestAdminService_Lists(t *testing.T) {
	svc, f, admin := newAdminFixture(t)
	f.labs.On("List", mock.Anything).Return([]*models.Lab{f.lab}, nil)
	f.users.On("ListByLab", mock.Anything, admin.LabID).Return([]*models.User{admin}, nil)

	labs, err := svc.ListLabs(context.Background(), admin)
	require.NoError(t, err)
	assert.Len(t, labs, 1)

	users, err := svc.ListUsers(context.Background(), admin, "")
	require.NoError(t, err)
	assert.Equal(t, []*models.User{admin}, users)
}
