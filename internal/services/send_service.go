package services

import (
	"context"
	"log"

	"github.com/Jayme2002/docusave/internal/docuseal"
	"github.com/Jayme2002/docusave/internal/models"
	"github.com/Jayme2002/docusave/internal/utils"
)

// SubmitterOrderPreserved tells the signing service that submitter order is
// signing order.
const SubmitterOrderPreserved = "preserved"

// SendResult reports an accepted signature request back to the caller,
// carrying the template name already looked up during the send so callers
// do not have to fetch the record again.
type SendResult struct {
	SubmissionID    int64
	SubmittersCount int
	TemplateName    string
}

// ISendService composes and dispatches signature requests.
type ISendService interface {
	Send(ctx context.Context, accountID, templateID utils.SixID, submitters *models.SubmitterList, message models.EmailMessage) (*SendResult, error)
}

// sendService implements ISendService.
type sendService struct {
	docuseal        docuseal.IDocusealClient
	templateService ITemplateService
	accountService  IAccountService
}

// NewSendService creates a new SendService.
func NewSendService(client docuseal.IDocusealClient, templateService ITemplateService, accountService IAccountService) ISendService {
	return &sendService{
		docuseal:        client,
		templateService: templateService,
		accountService:  accountService,
	}
}

// Send validates the submitter list, renders the message, and issues one
// dispatch to the signing service. All validation happens before any
// network call; a dispatch failure is returned as-is and never retried,
// since the request may already have been accepted remotely.
func (s *sendService) Send(ctx context.Context, accountID, templateID utils.SixID, submitters *models.SubmitterList, message models.EmailMessage) (*SendResult, error) {
	tpl, err := s.templateService.FindByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if tpl.OwnerID != accountID {
		return nil, ErrNotTemplateOwner
	}

	if err := submitters.Validate(); err != nil {
		return nil, err
	}

	vars := map[string]string{
		"template.name": tpl.Name,
	}
	// Sender details are best-effort: a missing account record falls back
	// to the raw placeholders rather than blocking the send.
	if account, accErr := s.accountService.FindByID(ctx, accountID); accErr == nil {
		vars["account.name"] = account.Name
		vars["sender.name"] = account.Name
	} else {
		log.Printf("could not resolve account %s for message vars: %v", accountID.String(), accErr)
	}

	rendered := RenderMessage(message, vars)

	receipt, err := s.docuseal.DispatchSignatureRequest(ctx, docuseal.DispatchRequest{
		TemplateExternalID: tpl.ExternalID,
		Submitters:         submitters.Entries(),
		Order:              SubmitterOrderPreserved,
		Message:            rendered,
	})
	if err != nil {
		return nil, err
	}
	return &SendResult{
		SubmissionID:    receipt.SubmissionID,
		SubmittersCount: receipt.SubmittersCount,
		TemplateName:    tpl.Name,
	}, nil
}
