package databases

// go generate: mockery --name FormDraftDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aerogenv/aero-club-api/models"
)

// FormDraftDatabase contains the methods to use with the formDraft database
type FormDraftDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.FormDraft, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error)
}

type formDraftDatabase struct {
	db DatabaseHelper
}

// NewFormDraftDatabase initializes a new instance of formDraft database with the provided db connection
func NewFormDraftDatabase(db DatabaseHelper) FormDraftDatabase {
	return &formDraftDatabase{
		db: db,
	}
}

func (f *formDraftDatabase) FindOne(ctx context.Context, filter interface{}) (*models.FormDraft, error) {
	draft := &models.FormDraft{}
	err := f.db.Collection(FormDraftCollection).FindOne(ctx, filter).Decode(draft)
	if err != nil {
		return nil, err
	}
	return draft, nil
}

func (f *formDraftDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return f.db.Collection(FormDraftCollection).UpdateOne(ctx, filter, update, opts...)
}

func (f *formDraftDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return f.db.Collection(FormDraftCollection).DeleteOne(ctx, filter, opts...)
}
