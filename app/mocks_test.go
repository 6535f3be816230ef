package app

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"cocreview/domain/core"
	"cocreview/models"
	"cocreview/ports"
)

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) Get(ctx context.Context, labID core.LabID, id core.DocumentID) (*models.Document, error) {
	args := m.Called(ctx, labID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Document), args.Error(1)
}

func (m *MockDocumentRepository) List(ctx context.Context, labID core.LabID, filter ports.DocumentFilter) ([]*models.Document, error) {
	args := m.Called(ctx, labID, filter)
	return args.Get(0).([]*models.Document), args.Error(1)
}

func (m *MockDocumentRepository) Save(ctx context.Context, doc *models.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) UpdateStatus(ctx context.Context, labID core.LabID, id core.DocumentID, status models.DocumentStatus, errMsg string) error {
	args := m.Called(ctx, labID, id, status, errMsg)
	return args.Error(0)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, labID core.LabID, id core.DocumentID) error {
	args := m.Called(ctx, labID, id)
	return args.Error(0)
}

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, filename string, pdf []byte) (*ports.ExtractionResult, error) {
	args := m.Called(ctx, filename, pdf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.ExtractionResult), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id core.UserID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	args := m.Called(ctx, login)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) ListByLab(ctx context.Context, labID core.LabID) ([]*models.User, error) {
	args := m.Called(ctx, labID)
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserRepository) SetActive(ctx context.Context, id core.UserID, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id core.UserID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUserRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockLabRepository struct {
	mock.Mock
}

func (m *MockLabRepository) Create(ctx context.Context, lab *models.Lab) error {
	args := m.Called(ctx, lab)
	return args.Error(0)
}

func (m *MockLabRepository) GetByID(ctx context.Context, id core.LabID) (*models.Lab, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lab), args.Error(1)
}

func (m *MockLabRepository) GetByCode(ctx context.Context, code string) (*models.Lab, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lab), args.Error(1)
}

func (m *MockLabRepository) List(ctx context.Context) ([]*models.Lab, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Lab), args.Error(1)
}

func (m *MockLabRepository) SetActive(ctx context.Context, id core.LabID, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) Get(ctx context.Context, tokenHash core.Hash) (*models.Session, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionRepository) Delete(ctx context.Context, tokenHash core.Hash) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *MockSessionRepository) DeleteForUser(ctx context.Context, userID core.UserID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}
