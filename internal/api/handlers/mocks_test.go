package handlers_test

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"

	"github.com/Jayme2002/docusave/internal/docuseal"
	"github.com/Jayme2002/docusave/internal/models"
	"github.com/Jayme2002/docusave/internal/services"
	"github.com/Jayme2002/docusave/internal/utils"
)

// --- Mocks ---

// MockDocusealClient
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

// MockBuilderService
type MockBuilderService struct {
	mock.Mock
}

func (m *MockBuilderService) HandleBuilderSave(ctx context.Context, accountID utils.SixID, event models.BuilderSaveEvent) (*models.PendingTemplateDraft, error) {
	args := m.Called(ctx, accountID, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PendingTemplateDraft), args.Error(1)
}

func (m *MockBuilderService) PendingDraft(accountID utils.SixID) (*models.PendingTemplateDraft, bool) {
	args := m.Called(accountID)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*models.PendingTemplateDraft), args.Bool(1)
}

func (m *MockBuilderService) Commit(ctx context.Context, accountID utils.SixID) (*models.Template, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Template), args.Error(1)
}

func (m *MockBuilderService) Discard(accountID utils.SixID) error {
	args := m.Called(accountID)
	return args.Error(0)
}

// MockTemplateService
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

// MockSendService
type MockSendService struct {
	mock.Mock
}

func (m *MockSendService) Send(ctx context.Context, accountID, templateID utils.SixID, submitters *models.SubmitterList, message models.EmailMessage) (*services.SendResult, error) {
	args := m.Called(ctx, accountID, templateID, submitters, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SendResult), args.Error(1)
}

// MockAccountService
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

// MockAsynqClient implements handlers.IAsynqClient
type MockAsynqClient struct {
	mock.Mock
}

func (m *MockAsynqClient) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	mockArgs := []interface{}{ctx, task}
	for _, opt := range opts {
		mockArgs = append(mockArgs, opt)
	}
	args := m.Called(mockArgs...)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*asynq.TaskInfo), args.Error(1)
}
