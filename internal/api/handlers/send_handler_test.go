package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Jayme2002/docusave/internal/api/handlers"
	"github.com/Jayme2002/docusave/internal/docuseal"
	"github.com/Jayme2002/docusave/internal/models"
	"github.com/Jayme2002/docusave/internal/services"
	"github.com/Jayme2002/docusave/internal/tasks"
	"github.com/Jayme2002/docusave/internal/utils"
)

func setupSendRouter(accountID utils.SixID, h *handlers.SendHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/v1", authAs(accountID))
	g.POST("/templates/:id/send", h.SendSignatureRequest)
	return r
}

func sendBody(t *testing.T, submitters []models.Submitter, message models.EmailMessage) *bytes.Reader {
	t.Helper()
	bodyBytes, err := json.Marshal(handlers.SendRequestBody{Submitters: submitters, Message: message})
	assert.NoError(t, err)
	return bytes.NewReader(bodyBytes)
}

func TestSendHandler_Success(t *testing.T) {
	mockSend := new(MockSendService)
	mockAccounts := new(MockAccountService)
	mockTasks := new(MockAsynqClient)
	h := handlers.NewSendHandler(mockSend, mockAccounts, mockTasks)

	accountID := utils.NewSixID()
	templateID := utils.NewSixID()
	account := &models.Account{Email: "owner@example.com"}
	account.ID = accountID

	result := &services.SendResult{SubmissionID: 9001, SubmittersCount: 2, TemplateName: "NDA"}
	mockSend.On("Send", mock.Anything, accountID, templateID, mock.Anything, mock.Anything).Return(result, nil)
	mockAccounts.On("FindByID", mock.Anything, accountID).Return(account, nil)

	var emailTask *asynq.Task
	mockTasks.On("EnqueueContext", mock.Anything, mock.MatchedBy(func(task *asynq.Task) bool {
		return task.Type() == tasks.TypeEmailDelivery
	})).Run(func(args mock.Arguments) {
		emailTask = args.Get(1).(*asynq.Task)
	}).Return(&asynq.TaskInfo{}, nil)

	submitters := []models.Submitter{
		{Email: "a@example.com"},
		{Email: "b@example.com", Role: "Witness"},
	}
	r := setupSendRouter(accountID, h)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/templates/"+templateID.String()+"/send", sendBody(t, submitters, models.EmailMessage{}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var respBody map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &respBody))
	assert.Equal(t, float64(9001), respBody["submission_id"])
	assert.Equal(t, float64(2), respBody["submitters_count"])

	// The notification payload uses the name carried on the send result;
	// no second template lookup happens.
	if assert.NotNil(t, emailTask) {
		var payload tasks.EmailTaskPayload
		assert.NoError(t, json.Unmarshal(emailTask.Payload(), &payload))
		assert.Equal(t, "signature_request_sent", payload.TemplateID)
		assert.Equal(t, "NDA", payload.Data["template_name"])
	}
	mockSend.AssertExpectations(t)
}

func TestSendHandler_ValidationFailure(t *testing.T) {
	mockSend := new(MockSendService)
	mockAccounts := new(MockAccountService)
	mockTasks := new(MockAsynqClient)
	h := handlers.NewSendHandler(mockSend, mockAccounts, mockTasks)

	accountID := utils.NewSixID()
	templateID := utils.NewSixID()
	mockSend.On("Send", mock.Anything, accountID, templateID, mock.Anything, mock.Anything).
		Return(nil, &models.SendValidationError{Index: 1, Reason: "email is required"})

	submitters := []models.Submitter{{Email: "a@example.com"}, {Email: ""}}
	r := setupSendRouter(accountID, h)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/templates/"+templateID.String()+"/send", sendBody(t, submitters, models.EmailMessage{}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var respBody map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &respBody))
	assert.Equal(t, float64(1), respBody["submitter_index"])
	mockTasks.AssertNotCalled(t, "EnqueueContext", mock.Anything, mock.Anything)
}

func TestSendHandler_DispatchFailure(t *testing.T) {
	mockSend := new(MockSendService)
	mockAccounts := new(MockAccountService)
	mockTasks := new(MockAsynqClient)
	h := handlers.NewSendHandler(mockSend, mockAccounts, mockTasks)

	accountID := utils.NewSixID()
	templateID := utils.NewSixID()
	mockSend.On("Send", mock.Anything, accountID, templateID, mock.Anything, mock.Anything).
		Return(nil, &docuseal.DispatchError{ExternalID: "ds-1", Cause: assert.AnError})

	submitters := []models.Submitter{{Email: "a@example.com"}}
	r := setupSendRouter(accountID, h)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/templates/"+templateID.String()+"/send", sendBody(t, submitters, models.EmailMessage{}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	// One dispatch attempt, no retry from the handler either.
	mockSend.AssertNumberOfCalls(t, "Send", 1)
	mockTasks.AssertNotCalled(t, "EnqueueContext", mock.Anything, mock.Anything)
}

func TestSendHandler_ForbiddenAndNotFound(t *testing.T) {
	accountID := utils.NewSixID()
	templateID := utils.NewSixID()
	submitters := []models.Submitter{{Email: "a@example.com"}}

	cases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"not owner", services.ErrNotTemplateOwner, http.StatusForbidden},
		{"not found", services.ErrTemplateNotFound, http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mockSend := new(MockSendService)
			mockAccounts := new(MockAccountService)
			mockTasks := new(MockAsynqClient)
			h := handlers.NewSendHandler(mockSend, mockAccounts, mockTasks)

			mockSend.On("Send", mock.Anything, accountID, templateID, mock.Anything, mock.Anything).Return(nil, tc.err)

			r := setupSendRouter(accountID, h)
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("POST", "/v1/templates/"+templateID.String()+"/send", sendBody(t, submitters, models.EmailMessage{}))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.wantCode, w.Code)
		})
	}
}

func TestSendHandler_MissingSubmitters(t *testing.T) {
	mockSend := new(MockSendService)
	mockAccounts := new(MockAccountService)
	mockTasks := new(MockAsynqClient)
	h := handlers.NewSendHandler(mockSend, mockAccounts, mockTasks)

	accountID := utils.NewSixID()
	templateID := utils.NewSixID()

	r := setupSendRouter(accountID, h)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/templates/"+templateID.String()+"/send", bytes.NewReader([]byte(`{"message":{"subject":"hi"}}`)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSend.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
