package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"cocreview/domain/core"
	"cocreview/internal"
	apperrors "cocreview/internal/errors"
	"cocreview/models"
)

type authFixture struct {
	svc      *AuthService
	users    *MockUserRepository
	labs     *MockLabRepository
	sessions *MockSessionRepository
	lab      *models.Lab
	now      time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		users:    new(MockUserRepository),
		labs:     new(MockLabRepository),
		sessions: new(MockSessionRepository),
		lab:      &models.Lab{ID: core.NewLabID(), Name: "Acme", Code: "acme", IsActive: true},
		now:      time.Date(2024, 4, 6, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewAuthService(f.users, f.labs, f.sessions, time.Hour, bcrypt.MinCost,
		internal.NewLoggerWith(zap.NewNop(), internal.LogLevelError))
	f.svc.now = func() time.Time { return f.now }
	f.labs.On("GetByID", mock.Anything, f.lab.ID).Return(f.lab, nil).Maybe()
	return f
}

func (f *authFixture) user(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := f.svc.HashPassword(password)
	require.NoError(t, err)
	return &models.User{
		ID:           core.NewUserID(),
		LabID:        f.lab.ID,
		Email:        "pat@acme.test",
		Username:     "pat",
		PasswordHash: hash,
		Role:         models.RoleReviewer,
		IsActive:     true,
	}
}

func TestAuthService_LoginAndAuthenticate(t *testing.T) {
	f := newAuthFixture(t)
	u := f.user(t, "correct horse")
	f.users.On("GetByLogin", mock.Anything, "pat").Return(u, nil)
	f.users.On("GetByID", mock.Anything, u.ID).Return(u, nil)

	var stored *models.Session
	f.sessions.On("Create", mock.Anything, mock.AnythingOfType("*models.Session")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*models.Session) }).
		Return(nil)

	token, got, err := f.svc.Login(context.Background(), " pat ", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, u, got)
	require.NotEmpty(t, token)
	require.NotNil(t, stored)
	assert.Equal(t, core.HashToken(token), stored.TokenHash)
	assert.Equal(t, f.now.Add(time.Hour), stored.ExpiresAt)

	f.sessions.On("Get", mock.Anything, core.HashToken(token)).Return(stored, nil)
	authed, err := f.svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, authed.ID)
}

func TestAuthService_LoginFailures(t *testing.T) {
	f := newAuthFixture(t)
	u := f.user(t, "correct horse")
	inactive := *u
	inactive.Username = "gone"
	inactive.IsActive = false
	f.users.On("GetByLogin", mock.Anything, "pat").Return(u, nil)
	f.users.On("GetByLogin", mock.Anything, "gone").Return(&inactive, nil)
	f.users.On("GetByLogin", mock.Anything, "nobody").Return(nil, core.ErrUserNotFound)

	tests := []struct {
		name, login, password string
		want                  error
	}{
		{"wrong password", "pat", "battery staple", core.ErrInvalidCredentials},
		{"unknown user", "nobody", "whatever1", core.ErrInvalidCredentials},
		{"inactive user", "gone", "correct horse", core.ErrInactiveAccount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.svc.Login(context.Background(), tt.login, tt.password)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, apperrors.CodeUnauthorized, apperrors.GetCode(err))
		})
	}
	f.sessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_ExpiredSession(t *testing.T) {
	f := newAuthFixture(t)
	hash := core.HashToken("tok")
	f.sessions.On("Get", mock.Anything, hash).
		Return(&models.Session{TokenHash: hash, UserID: core.NewUserID(), ExpiresAt: f.now}, nil)
	f.sessions.On("Delete", mock.Anything, hash).Return(nil)

	_, err := f.svc.Authenticate(context.Background(), "tok")
	assert.ErrorIs(t, err, core.ErrSessionExpired)
	f.sessions.AssertCalled(t, "Delete", mock.Anything, hash)

	_, err = f.svc.Authenticate(context.Background(), "")
	assert.Equal(t, apperrors.CodeUnauthorized, apperrors.GetCode(err))
}

func TestAuthService_Logout(t *testing.T) {
	f := newAuthFixture(t)
	f.sessions.On("Delete", mock.Anything, core.HashToken("tok")).Return(core.ErrSessionNotFound)

	assert.NoError(t, f.svc.Logout(context.Background(), "tok"))
	assert.NoError(t, f.svc.Logout(context.Background(), ""))
}

func TestAuthService_Register(t *testing.T) {
	f := newAuthFixture(t)
	f.users.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)

	u, err := f.svc.Register(context.Background(), NewUserRequest{
		LabID: f.lab.ID, Email: "Pat <PAT@Acme.test>", Username: "pat", Password: "long enough", Role: "Reviewer",
	})
	require.NoError(t, err)
	assert.Equal(t, "pat@acme.test", u.Email)
	assert.Equal(t, models.RoleReviewer, u.Role)
	assert.True(t, u.IsActive)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("long enough")))

	bad := []NewUserRequest{
		{LabID: f.lab.ID, Email: "not-an-email", Username: "pat", Password: "long enough", Role: "reviewer"},
		{LabID: f.lab.ID, Email: "a@b.test", Username: "p", Password: "long enough", Role: "reviewer"},
		{LabID: f.lab.ID, Email: "a@b.test", Username: "pat", Password: "short", Role: "reviewer"},
		{LabID: f.lab.ID, Email: "a@b.test", Username: "pat", Password: "long enough", Role: "owner"},
	}
	for _, req := range bad {
		_, err := f.svc.Register(context.Background(), req)
		assert.ErrorIs(t, err, core.ErrValidation, req)
	}
}

func TestAuthService_Bootstrap(t *testing.T) {
	f := newAuthFixture(t)
	f.users.On("Count", mock.Anything).Return(0, nil).Once()

	var lab *models.Lab
	f.labs.On("Create", mock.Anything, mock.AnythingOfType("*models.Lab")).
		Run(func(args mock.Arguments) {
			lab = args.Get(1).(*models.Lab)
			f.labs.On("GetByID", mock.Anything, lab.ID).Return(lab, nil)
		}).
		Return(nil)
	f.users.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)

	created, err := f.svc.Bootstrap(context.Background(), BootstrapRequest{
		LabName: "Gulf Coast Analytical", Email: "admin@gcal.test", Password: "changeme!",
	})
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, lab)
	assert.Equal(t, "gulf-coast-analytical", lab.Code)

	createdUser := f.users.Calls[len(f.users.Calls)-1].Arguments.Get(1).(*models.User)
	assert.Equal(t, models.RoleAdmin, createdUser.Role)
	assert.Equal(t, "admin", createdUser.Username)

	f.users.On("Count", mock.Anything).Return(1, nil)
	created, err = f.svc.Bootstrap(context.Background(), BootstrapRequest{Email: "x@y.test", Password: "changeme!"})
	require.NoError(t, err)
	assert.False(t, created)
}

func TestLabCode(t *testing.T) {
	assert.Equal(t, "acme-labs", LabCode("  Acme Labs! "))
	assert.Equal(t, "lab", LabCode("!!!"))
}
