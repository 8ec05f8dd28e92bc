package databases

// go generate: mockery --name PasscodeDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aerogenv/aero-club-api/models"
)

// PasscodeDatabase contains the methods to use with the passcode database
type PasscodeDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Passcode, error)
	InsertOne(ctx context.Context, passcode models.Passcode, opts ...*options.InsertOneOptions) (interface{}, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error)
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error)
}

type passcodeDatabase struct {
	db DatabaseHelper
}

// NewPasscodeDatabase initializes a new instance of passcode database with the provided db connection
func NewPasscodeDatabase(db DatabaseHelper) PasscodeDatabase {
	return &passcodeDatabase{
		db: db,
	}
}

func (p *passcodeDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Passcode, error) {
	passcode := &models.Passcode{}
	err := p.db.Collection(PasscodeCollection).FindOne(ctx, filter).Decode(passcode)
	if err != nil {
		return nil, err
	}
	return passcode, nil
}

func (p *passcodeDatabase) InsertOne(ctx context.Context, passcode models.Passcode, opts ...*options.InsertOneOptions) (interface{}, error) {
	return p.db.Collection(PasscodeCollection).InsertOne(ctx, passcode, opts...)
}

func (p *passcodeDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return p.db.Collection(PasscodeCollection).DeleteOne(ctx, filter, opts...)
}

func (p *passcodeDatabase) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return p.db.Collection(PasscodeCollection).DeleteMany(ctx, filter, opts...)
}
