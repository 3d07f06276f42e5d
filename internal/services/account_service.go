package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Jayme2002/docusave/internal/models"
	"github.com/Jayme2002/docusave/internal/utils"
)

// IAccountService defines the read-only account lookups this backend needs.
type IAccountService interface {
	FindByID(ctx context.Context, accountID utils.SixID) (*models.Account, error)
}

const accountsCollection = "accounts"

type accountService struct {
	db *mongo.Database
}

// NewAccountService creates a new AccountService.
func NewAccountService(db *mongo.Database) IAccountService {
	return &accountService{db: db}
}

// FindByID looks up an account record.
func (s *accountService) FindByID(ctx context.Context, accountID utils.SixID) (*models.Account, error) {
	var account models.Account
	err := s.db.Collection(accountsCollection).FindOne(ctx, bson.M{"_id": accountID}).Decode(&account)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("error finding account %s: %w", accountID.String(), err)
	}
	return &account, nil
}
