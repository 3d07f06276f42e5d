package docuseal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"

	"github.com/Jayme2002/docusave/internal/config"
	"github.com/Jayme2002/docusave/internal/models"
)

// IDocusealClient is the narrow interface to the external document builder
// and signing service. One method per consumed contract, so orchestration
// code can be tested with substitutes that simulate latency and failure.
type IDocusealClient interface {
	IssueBuilderToken(ctx context.Context, accountEmail string) (string, error)
	FetchTemplateDetail(ctx context.Context, externalID string) (*TemplateDetail, error)
	DispatchSignatureRequest(ctx context.Context, req DispatchRequest) (*DispatchReceipt, error)
	ArchiveTemplate(ctx context.Context, externalID string) error
}

// TemplateDetail is the authoritative render detail DocuSeal holds for a
// builder draft.
type TemplateDetail struct {
	Name       string
	PdfURL     *string
	PreviewURL *string
	// Definition is the raw template document as returned by the service.
	Definition map[string]interface{}
}

// DispatchRequest is one signature request, ready for the wire.
type DispatchRequest struct {
	TemplateExternalID string
	Submitters         []models.Submitter
	Order              string // always "preserved": submitter order is signing order
	Message            models.EmailMessage
}

// DispatchReceipt acknowledges an accepted signature request.
type DispatchReceipt struct {
	SubmissionID    int64
	SubmittersCount int
}

// client implements IDocusealClient over DocuSeal's HTTP API.
type client struct {
	cfg        *config.Config
	httpClient *http.Client
}

// NewClient creates a DocuSeal API client.
func NewClient(cfg *config.Config) IDocusealClient {
	return &client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.DocusealHTTPTimeout},
	}
}

type tokenResponse struct {
	Token string `json:"token"`
	Error string `json:"error"`
}

// IssueBuilderToken requests a single-session builder token scoped to the
// account. Tokens are not cached: one token, one builder session.
func (c *client) IssueBuilderToken(ctx context.Context, accountEmail string) (string, error) {
	payload := map[string]string{"user_email": accountEmail}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.DocusealTokenURL, bytes.NewBuffer(body))
	if err != nil {
		return "", &TokenIssuanceError{Cause: err}
	}
	c.setHeaders(req)

	respBody, err := c.do(req)
	if err != nil {
		return "", &TokenIssuanceError{Cause: err}
	}

	var tr tokenResponse
	if err := json.Unmarshal(respBody, &tr); err != nil {
		return "", &TokenIssuanceError{Cause: fmt.Errorf("malformed token response: %w", err)}
	}
	if tr.Error != "" {
		return "", &TokenIssuanceError{Cause: fmt.Errorf("service error: %s", tr.Error)}
	}
	if tr.Token == "" {
		return "", &TokenIssuanceError{Cause: fmt.Errorf("service returned an empty token")}
	}
	return tr.Token, nil
}

type templateDetailResponse struct {
	Name      string `json:"name"`
	Error     string `json:"error"`
	Documents []struct {
		URL             string `json:"url"`
		PreviewImageURL string `json:"preview_image_url"`
	} `json:"documents"`
}

// FetchTemplateDetail loads the authoritative detail for a builder draft:
// the source PDF URL, the rendered preview URL, and the raw definition.
func (c *client) FetchTemplateDetail(ctx context.Context, externalID string) (*TemplateDetail, error) {
	endpoint := fmt.Sprintf("%s/templates/%s", c.cfg.DocusealBaseURL, url.PathEscape(externalID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &TemplateFetchError{ExternalID: externalID, Cause: err}
	}
	c.setHeaders(req)

	respBody, err := c.do(req)
	if err != nil {
		return nil, &TemplateFetchError{ExternalID: externalID, Cause: err}
	}

	var tdr templateDetailResponse
	if err := json.Unmarshal(respBody, &tdr); err != nil {
		return nil, &TemplateFetchError{ExternalID: externalID, Cause: fmt.Errorf("malformed detail response: %w", err)}
	}
	if tdr.Error != "" {
		return nil, &TemplateFetchError{ExternalID: externalID, Cause: fmt.Errorf("service error: %s", tdr.Error)}
	}

	detail := &TemplateDetail{Name: tdr.Name}
	if len(tdr.Documents) > 0 {
		if u := tdr.Documents[0].URL; u != "" {
			detail.PdfURL = &u
		}
		if p := tdr.Documents[0].PreviewImageURL; p != "" {
			detail.PreviewURL = &p
		}
	}
	// Keep the full raw definition alongside the extracted fields.
	if err := json.Unmarshal(respBody, &detail.Definition); err != nil {
		return nil, &TemplateFetchError{ExternalID: externalID, Cause: fmt.Errorf("malformed detail response: %w", err)}
	}
	return detail, nil
}

type dispatchResponseEntry struct {
	SubmissionID int64  `json:"submission_id"`
	Email        string `json:"email"`
}

// DispatchSignatureRequest issues one signature request. The submitter
// sequence is sent as-is with order preserved. Failures are returned without
// retry: the request may already have been accepted on the other side.
func (c *client) DispatchSignatureRequest(ctx context.Context, dreq DispatchRequest) (*DispatchReceipt, error) {
	payload := map[string]interface{}{
		"template_id": dreq.TemplateExternalID,
		"order":       dreq.Order,
		"submitters":  dreq.Submitters,
		"message": map[string]string{
			"subject": dreq.Message.Subject,
			"body":    dreq.Message.Body,
		},
	}
	body, _ := json.Marshal(payload)

	endpoint := c.cfg.DocusealBaseURL + "/submissions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, &DispatchError{ExternalID: dreq.TemplateExternalID, Cause: err}
	}
	c.setHeaders(req)

	respBody, err := c.do(req)
	if err != nil {
		return nil, &DispatchError{ExternalID: dreq.TemplateExternalID, Cause: err}
	}

	var entries []dispatchResponseEntry
	if err := json.Unmarshal(respBody, &entries); err != nil || len(entries) == 0 {
		return nil, &DispatchError{ExternalID: dreq.TemplateExternalID, Cause: fmt.Errorf("malformed dispatch response")}
	}
	return &DispatchReceipt{
		SubmissionID:    entries[0].SubmissionID,
		SubmittersCount: len(entries),
	}, nil
}

// ArchiveTemplate archives the template on the signing service. Used after
// a local delete so the external record does not linger.
func (c *client) ArchiveTemplate(ctx context.Context, externalID string) error {
	endpoint := fmt.Sprintf("%s/templates/%s", c.cfg.DocusealBaseURL, url.PathEscape(externalID))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create archive request: %w", err)
	}
	c.setHeaders(req)

	if _, err := c.do(req); err != nil {
		return fmt.Errorf("failed to archive template %s: %w", externalID, err)
	}
	return nil
}

func (c *client) setHeaders(req *http.Request) {
	req.Header.Set("X-Auth-Token", c.cfg.DocusealApiKey)
	req.Header.Set("Content-Type", "application/json")
}

// do runs the request and returns the body for 2xx responses. Non-2xx
// statuses become errors carrying the status and a body excerpt.
func (c *client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt := string(body)
		if len(excerpt) > 256 {
			excerpt = excerpt[:256]
		}
		log.Printf("DocuSeal %s %s returned %d: %s", req.Method, req.URL.Path, resp.StatusCode, excerpt)
		return nil, fmt.Errorf("service returned status %d: %s", resp.StatusCode, excerpt)
	}
	return body, nil
}
