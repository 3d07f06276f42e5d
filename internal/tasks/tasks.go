package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // preview images may be PNG
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"
	"github.com/redis/go-redis/v9"

	"github.com/Jayme2002/docusave/internal/config"
	"github.com/Jayme2002/docusave/internal/email"
	"github.com/Jayme2002/docusave/internal/services"
	"github.com/Jayme2002/docusave/internal/storage"
	"github.com/Jayme2002/docusave/internal/utils"
)

// TaskType defines the type of a background task.
const (
	TypeEmailDelivery   = "email:deliver"
	TypeTemplateArchive = "template:archive"
)

// MaxAssetDownloadBytes bounds how large a remote PDF or preview image the
// archive task will accept.
const MaxAssetDownloadBytes = 32 * 1024 * 1024

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	clientOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}
	return asynq.NewClient(clientOpt)
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
// It holds dependencies needed by task handlers.
type TaskProcessor struct {
	cfg                  *config.Config
	emailSender          email.Sender
	emailTemplateService services.IEmailTemplateService
	templateService      services.ITemplateService
	storageService       storage.IS3Storage
	httpClient           *http.Client
}

func NewTaskProcessor(
	cfg *config.Config,
	emailSender email.Sender,
	emailTemplateService services.IEmailTemplateService,
	templateService services.ITemplateService,
	storageService storage.IS3Storage,
) *TaskProcessor {
	return &TaskProcessor{
		cfg:                  cfg,
		emailSender:          emailSender,
		emailTemplateService: emailTemplateService,
		templateService:      templateService,
		storageService:       storageService,
		httpClient:           &http.Client{Timeout: 60 * time.Second},
	}
}

// SetupServer configures an Asynq server and the mux with the handlers the
// requested worker modes need. The caller runs the server.
func SetupServer(rdb *redis.Client, processor *TaskProcessor, isBgWorker, isArchiveWorker bool) (*asynq.Server, *asynq.ServeMux) {
	serverOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}

	srv := asynq.NewServer(
		serverOpt,
		asynq.Config{
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
				"archive":  5, // separate queue for archive downloads
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				fmt.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v\n", task.Type(), string(task.Payload()), err)
			}),
		},
	)

	mux := asynq.NewServeMux()

	if isBgWorker {
		mux.HandleFunc(TypeEmailDelivery, processor.HandleEmailDeliveryTask)
		fmt.Println("Registered background task handlers.")
	}

	if isArchiveWorker {
		mux.HandleFunc(TypeTemplateArchive, processor.HandleTemplateArchiveTask)
		fmt.Println("Registered template archive task handlers.")
	}

	if !isBgWorker && !isArchiveWorker {
		fmt.Println("Running in API mode, no task server started.")
		return nil, nil
	}

	return srv, mux
}

// --- Task Handlers ---

// EmailTaskPayload carries a notification email to deliver.
type EmailTaskPayload struct {
	To         string                 `json:"to"`
	TemplateID string                 `json:"template_id"`
	Locale     string                 `json:"locale,omitempty"` // Optional locale
	Data       map[string]interface{} `json:"data"`
}

func (p *TaskProcessor) HandleEmailDeliveryTask(ctx context.Context, t *asynq.Task) error {
	var payload EmailTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal email task payload: %v: %w", err, asynq.SkipRetry)
	}

	fmt.Printf("Sending email task: To=%s, Template=%s\n", payload.To, payload.TemplateID)

	locale := payload.Locale
	if locale == "" {
		locale = "en-US"
	}

	tmpl, err := p.emailTemplateService.GetTemplate(ctx, payload.TemplateID, locale)
	if err != nil {
		log.Printf("Error getting email template %s/%s: %v", payload.TemplateID, locale, err)
		// Non-retryable if template not found
		return fmt.Errorf("email template not found: %w", asynq.SkipRetry)
	}

	// Simple placeholder replacement (replace {{.key}})
	subjectRendered := tmpl.Subject
	bodyRendered := tmpl.Body
	for key, val := range payload.Data {
		placeholder := fmt.Sprintf("{{.%s}}", key)
		valueStr := fmt.Sprintf("%v", val)
		subjectRendered = strings.ReplaceAll(subjectRendered, placeholder, valueStr)
		bodyRendered = strings.ReplaceAll(bodyRendered, placeholder, valueStr)
	}

	fromAddress := p.cfg.SmtpFromAddress
	if fromAddress == "" {
		fromAddress = "noreply@example.com"
		log.Printf("Warning: SmtpFromAddress not configured, using fallback %s for email to %s", fromAddress, payload.To)
	}

	// Basic email structure with essential headers.
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("To: %s\r\n", payload.To))
	sb.WriteString(fmt.Sprintf("From: %s\r\n", fromAddress))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subjectRendered))
	sb.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(bodyRendered)
	sb.WriteString("\r\n")

	rawMessage := []byte(sb.String())

	err = p.emailSender.Send(ctx, []string{payload.To}, subjectRendered, rawMessage)
	if err != nil {
		fmt.Printf("Email sending failed (will retry): %v\n", err)
		return err
	}

	fmt.Printf("Email task processed successfully: To=%s, Template=%s\n", payload.To, payload.TemplateID)
	return nil
}

// TemplateArchivePayload identifies the committed template to archive.
type TemplateArchivePayload struct {
	TemplateID string `json:"template_id"`
}

// HandleTemplateArchiveTask copies a committed template's source PDF into
// the archive bucket and builds a preview thumbnail. Both assets live on
// DocuSeal-hosted URLs that can expire, which is why the copy happens soon
// after commit rather than lazily.
func (p *TaskProcessor) HandleTemplateArchiveTask(ctx context.Context, t *asynq.Task) error {
	var payload TemplateArchivePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal archive task payload: %v: %w", err, asynq.SkipRetry)
	}

	templateID, err := utils.ParseSixID(payload.TemplateID)
	if err != nil {
		log.Printf("Invalid TemplateID in archive task payload: %s", payload.TemplateID)
		return fmt.Errorf("invalid template ID in payload: %w", asynq.SkipRetry)
	}

	log.Printf("Processing archive task: TemplateID=%s", payload.TemplateID)

	tpl, err := p.templateService.FindByID(ctx, templateID)
	if err != nil {
		log.Printf("Error fetching template %s for archive task: %v", payload.TemplateID, err)
		if errors.Is(err, services.ErrTemplateNotFound) {
			// Deleted before the task ran, nothing to archive.
			return fmt.Errorf("template not found: %w", asynq.SkipRetry)
		}
		return err
	}

	var archiveKey *string
	if tpl.PdfURL != nil && *tpl.PdfURL != "" {
		pdfData, err := p.downloadAsset(ctx, *tpl.PdfURL)
		if err != nil {
			log.Printf("Error downloading PDF for template %s: %v", payload.TemplateID, err)
			return fmt.Errorf("failed to download template PDF: %w", err)
		}
		key := p.storageService.ArchiveKey(templateID.String(), "pdf", "pdf")
		if err := p.storageService.UploadObject(ctx, key, "application/pdf", pdfData); err != nil {
			log.Printf("Error archiving PDF for template %s: %v", payload.TemplateID, err)
			return err
		}
		archiveKey = &key
		log.Printf("Archived PDF for template %s at %s (%d bytes)", payload.TemplateID, key, len(pdfData))
	}

	var previewImageURL *string
	if tpl.PreviewURL != nil && *tpl.PreviewURL != "" {
		imgData, err := p.downloadAsset(ctx, *tpl.PreviewURL)
		if err != nil {
			log.Printf("Error downloading preview for template %s: %v", payload.TemplateID, err)
			return fmt.Errorf("failed to download template preview: %w", err)
		}

		img, format, err := image.Decode(bytes.NewReader(imgData))
		if err != nil {
			log.Printf("Error decoding preview image for template %s: %v", payload.TemplateID, err)
			return fmt.Errorf("unsupported preview image format or corrupt image: %w", asynq.SkipRetry)
		}
		log.Printf("Decoded preview for template %s, format: %s, size: %dx%d", payload.TemplateID, format, img.Bounds().Dx(), img.Bounds().Dy())

		maxWidth := uint(p.cfg.ThumbnailMaxWidth)
		if uint(img.Bounds().Dx()) > maxWidth {
			img = resize.Resize(maxWidth, 0, img, resize.Lanczos3)
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
			log.Printf("Error encoding thumbnail for template %s: %v", payload.TemplateID, err)
			return fmt.Errorf("failed to encode thumbnail: %w", err)
		}

		thumbKey := p.storageService.ArchiveKey(templateID.String(), "thumb", "jpg")
		if err := p.storageService.UploadObject(ctx, thumbKey, "image/jpeg", buf.Bytes()); err != nil {
			log.Printf("Error uploading thumbnail for template %s: %v", payload.TemplateID, err)
			return err
		}
		url := p.storageService.ObjectURL(thumbKey)
		previewImageURL = &url
		log.Printf("Built thumbnail for template %s at %s (%dx%d)", payload.TemplateID, thumbKey, img.Bounds().Dx(), img.Bounds().Dy())
	}

	if archiveKey == nil && previewImageURL == nil {
		log.Printf("Template %s has no assets to archive.", payload.TemplateID)
		return nil
	}

	if err := p.templateService.SetArchive(ctx, templateID, previewImageURL, archiveKey); err != nil {
		log.Printf("Error recording archive results for template %s: %v", payload.TemplateID, err)
		if errors.Is(err, services.ErrTemplateNotFound) {
			// Deleted while we were archiving, drop the results.
			return fmt.Errorf("template deleted during archive: %w", asynq.SkipRetry)
		}
		return err
	}

	log.Printf("Archive task processed successfully: TemplateID=%s", payload.TemplateID)
	return nil
}

// downloadAsset fetches a DocuSeal-hosted asset, bounding the read size.
func (p *TaskProcessor) downloadAsset(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", url, err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received status %d for %s", resp.StatusCode, url)
	}

	// Read one byte past the cap so an oversized asset is detected instead
	// of uploaded truncated. The size will not shrink on retry.
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxAssetDownloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body from %s: %w", url, err)
	}
	if len(data) > MaxAssetDownloadBytes {
		return nil, fmt.Errorf("asset at %s exceeds the %d byte limit: %w", url, MaxAssetDownloadBytes, asynq.SkipRetry)
	}
	return data, nil
}
