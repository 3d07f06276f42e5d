package models

import (
	"time"

	"github.com/Jayme2002/docusave/internal/utils"
)

// Template is a committed document template, scoped to the owning account.
// Records are immutable after creation except for the archive fields, which
// the background archive task fills in.
type Template struct {
	Base            `bson:",inline"`
	OwnerID         utils.SixID `bson:"owner_id" json:"owner_id"`
	Name            string      `bson:"name" json:"name"`
	ExternalID      string      `bson:"external_id" json:"external_id"` // DocuSeal template id
	PreviewURL      *string     `bson:"preview_url,omitempty" json:"preview_url,omitempty"`
	PreviewImageURL *string     `bson:"preview_image_url,omitempty" json:"preview_image_url,omitempty"` // S3 thumbnail, set by archive task
	PdfURL          *string     `bson:"pdf_url,omitempty" json:"pdf_url,omitempty"`
	ArchiveKey      *string     `bson:"archive_key,omitempty" json:"archive_key,omitempty"` // S3 key of the archived source PDF
	CreatedAt       time.Time   `bson:"created_at" json:"created_at"`
}

// PendingTemplateDraft is the transient merge of a builder save event with
// the detail fetched from DocuSeal. It lives only in the builder session
// between the save event and an explicit commit or discard; it is never
// persisted as-is.
type PendingTemplateDraft struct {
	ExternalID string  `json:"external_id"`
	Name       string  `json:"name"`
	PdfURL     *string `json:"pdf_url,omitempty"`
	PreviewURL *string `json:"preview_url,omitempty"`
	// Raw template definition returned by DocuSeal, kept verbatim.
	Definition map[string]interface{} `json:"definition,omitempty"`
}

// BuilderSaveEvent is the payload DocuSeal's builder widget posts when the
// user saves a draft.
type BuilderSaveEvent struct {
	ExternalID string `json:"external_id" binding:"required"`
	Name       string `json:"name"`
}
