package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Jayme2002/docusave/internal/db"
	"github.com/Jayme2002/docusave/internal/models"
	"github.com/Jayme2002/docusave/internal/utils"
)

// ITemplateService defines the interface for the template store.
type ITemplateService interface {
	Save(ctx context.Context, draft *models.PendingTemplateDraft, ownerID utils.SixID) (*models.Template, error)
	List(ctx context.Context, ownerID utils.SixID) ([]models.Template, error)
	FindByID(ctx context.Context, templateID utils.SixID) (*models.Template, error)
	Delete(ctx context.Context, templateID, requesterID utils.SixID) error
	SetArchive(ctx context.Context, templateID utils.SixID, previewImageURL, archiveKey *string) error
}

const templatesCollection = "templates"

// templateService implements ITemplateService over MongoDB.
type templateService struct {
	db *mongo.Database
}

// NewTemplateService creates a new TemplateService.
func NewTemplateService(db *mongo.Database) ITemplateService {
	return &templateService{db: db}
}

// Save turns a pending draft into a durable template record owned by
// ownerID. The record is written with a single insert, so a failed save
// never leaves a partial record visible to List.
func (s *templateService) Save(ctx context.Context, draft *models.PendingTemplateDraft, ownerID utils.SixID) (*models.Template, error) {
	if draft == nil {
		return nil, fmt.Errorf("cannot save a nil draft")
	}
	if ownerID.IsZero() {
		return nil, fmt.Errorf("cannot save template without an owner")
	}
	if draft.ExternalID == "" {
		return nil, fmt.Errorf("cannot save template without an external ID")
	}
	if draft.Name == "" {
		return nil, fmt.Errorf("cannot save template without a name")
	}

	collection := s.db.Collection(templatesCollection)

	var tpl *models.Template
	operation := func() error {
		tpl = &models.Template{
			Base:       models.NewBase(),
			OwnerID:    ownerID,
			Name:       draft.Name,
			ExternalID: draft.ExternalID,
			PreviewURL: draft.PreviewURL,
			PdfURL:     draft.PdfURL,
			CreatedAt:  time.Now().UTC(),
		}
		_, insertErr := collection.InsertOne(ctx, tpl)
		return insertErr
	}

	if err := db.Try(operation); err != nil {
		return nil, fmt.Errorf("failed to save template for owner %s: %w", ownerID.String(), err)
	}
	return tpl, nil
}

// List returns all templates owned by ownerID, most recent first. Recency
// ordering is part of the contract: it is the primary discovery signal for
// accounts with many templates.
func (s *templateService) List(ctx context.Context, ownerID utils.SixID) ([]models.Template, error) {
	collection := s.db.Collection(templatesCollection)
	filter := bson.M{"owner_id": ownerID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates for owner %s: %w", ownerID.String(), err)
	}
	defer cursor.Close(ctx)

	templates := []models.Template{}
	if err := cursor.All(ctx, &templates); err != nil {
		return nil, fmt.Errorf("failed to decode templates: %w", err)
	}
	return templates, nil
}

// FindByID finds a template by its ID regardless of requester; callers
// enforce ownership where it matters.
func (s *templateService) FindByID(ctx context.Context, templateID utils.SixID) (*models.Template, error) {
	collection := s.db.Collection(templatesCollection)

	var tpl models.Template
	err := collection.FindOne(ctx, bson.M{"_id": templateID}).Decode(&tpl)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("error finding template %s: %w", templateID.String(), err)
	}
	return &tpl, nil
}

// Delete removes a template the requester owns. The ownership check and the
// delete are a single filtered operation, so a mismatched requester can
// never remove the record.
func (s *templateService) Delete(ctx context.Context, templateID, requesterID utils.SixID) error {
	collection := s.db.Collection(templatesCollection)

	res, err := collection.DeleteOne(ctx, bson.M{"_id": templateID, "owner_id": requesterID})
	if err != nil {
		return fmt.Errorf("failed to delete template %s: %w", templateID.String(), err)
	}
	if res.DeletedCount > 0 {
		return nil
	}

	// Nothing deleted: distinguish "absent" from "not yours".
	count, err := collection.CountDocuments(ctx, bson.M{"_id": templateID})
	if err != nil {
		return fmt.Errorf("failed to check template %s: %w", templateID.String(), err)
	}
	if count == 0 {
		return ErrTemplateNotFound
	}
	return ErrNotTemplateOwner
}

// SetArchive records the background archive results on a committed
// template. The only mutation templates ever see.
func (s *templateService) SetArchive(ctx context.Context, templateID utils.SixID, previewImageURL, archiveKey *string) error {
	collection := s.db.Collection(templatesCollection)

	set := bson.M{}
	if previewImageURL != nil {
		set["preview_image_url"] = *previewImageURL
	}
	if archiveKey != nil {
		set["archive_key"] = *archiveKey
	}
	if len(set) == 0 {
		return nil
	}

	res, err := collection.UpdateByID(ctx, templateID, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to set archive fields on template %s: %w", templateID.String(), err)
	}
	if res.MatchedCount == 0 {
		return ErrTemplateNotFound
	}
	return nil
}
