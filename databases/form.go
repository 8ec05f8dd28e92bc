package databases

// go generate: mockery --name FormDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aerogenv/aero-club-api/models"
)

// FormDatabase contains the methods to use with the form database
type FormDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Form, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Form, error)
}

type formDatabase struct {
	db DatabaseHelper
}

// NewFormDatabase initializes a new instance of form database with the provided db connection
func NewFormDatabase(db DatabaseHelper) FormDatabase {
	return &formDatabase{
		db: db,
	}
}

func (f *formDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Form, error) {
	form := &models.Form{}
	err := f.db.Collection(FormCollection).FindOne(ctx, filter).Decode(form)
	if err != nil {
		return nil, err
	}
	return form, nil
}

func (f *formDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Form, error) {
	cursor, err := f.db.Collection(FormCollection).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var forms []models.Form
	if err := cursor.Decode(&forms); err != nil {
		return nil, err
	}
	return forms, nil
}
