package databases

// go generate: mockery --name FormEntryDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aerogenv/aero-club-api/models"
)

// FormEntryDatabase contains the methods to use with the formEntry database
type FormEntryDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.FormEntry, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.FormEntry, error)
	InsertOne(ctx context.Context, entry models.FormEntry, opts ...*options.InsertOneOptions) (interface{}, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

type formEntryDatabase struct {
	db DatabaseHelper
}

// NewFormEntryDatabase initializes a new instance of formEntry database with the provided db connection
func NewFormEntryDatabase(db DatabaseHelper) FormEntryDatabase {
	return &formEntryDatabase{
		db: db,
	}
}

func (f *formEntryDatabase) FindOne(ctx context.Context, filter interface{}) (*models.FormEntry, error) {
	entry := &models.FormEntry{}
	err := f.db.Collection(FormEntryCollection).FindOne(ctx, filter).Decode(entry)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (f *formEntryDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.FormEntry, error) {
	cursor, err := f.db.Collection(FormEntryCollection).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var entries []models.FormEntry
	if err := cursor.Decode(&entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (f *formEntryDatabase) InsertOne(ctx context.Context, entry models.FormEntry, opts ...*options.InsertOneOptions) (interface{}, error) {
	return f.db.Collection(FormEntryCollection).InsertOne(ctx, entry, opts...)
}

func (f *formEntryDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return f.db.Collection(FormEntryCollection).UpdateOne(ctx, filter, update, opts...)
}
