package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Jayme2002/docusave/internal/docuseal"
	"github.com/Jayme2002/docusave/internal/models"
	"github.com/Jayme2002/docusave/internal/utils"
)

// --- Mocks shared by service tests ---

// MockDocusealClient implements docuseal.IDocusealClient.
type MockDocusealClient struct {
	mock.Mock
}

func (m *MockDocusealClient) IssueBuilderToken(ctx context.Context, accountEmail string) (string, error) {
	args := m.Called(ctx, accountEmail)
	return args.String(0), args.Error(1)
}

func (m *MockDocusealClient) FetchTemplateDetail(ctx context.Context, externalID string) (*docuseal.TemplateDetail, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*docuseal.TemplateDetail), args.Error(1)
}

func (m *MockDocusealClient) DispatchSignatureRequest(ctx context.Context, req docuseal.DispatchRequest) (*docuseal.DispatchReceipt, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*docuseal.DispatchReceipt), args.Error(1)
}

func (m *MockDocusealClient) ArchiveTemplate(ctx context.Context, externalID string) error {
	args := m.Called(ctx, externalID)
	return args.Error(0)
}

// MockTemplateService implements ITemplateService.
type MockTemplateService struct {
	mock.Mock
}

func (m *MockTemplateService) Save(ctx context.Context, draft *models.PendingTemplateDraft, ownerID utils.SixID) (*models.Template, error) {
	args := m.Called(ctx, draft, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Template), args.Error(1)
}

func (m *MockTemplateService) List(ctx context.Context, ownerID utils.SixID) ([]models.Template, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Template), args.Error(1)
}

func (m *MockTemplateService) FindByID(ctx context.Context, templateID utils.SixID) (*models.Template, error) {
	args := m.Called(ctx, templateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Template), args.Error(1)
}

func (m *MockTemplateService) Delete(ctx context.Context, templateID, requesterID utils.SixID) error {
	args := m.Called(ctx, templateID, requesterID)
	return args.Error(0)
}

func (m *MockTemplateService) SetArchive(ctx context.Context, templateID utils.SixID, previewImageURL, archiveKey *string) error {
	args := m.Called(ctx, templateID, previewImageURL, archiveKey)
	return args.Error(0)
}

// MockAccountService implements IAccountService.
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) FindByID(ctx context.Context, accountID utils.SixID) (*models.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}
