package databases

// go generate: mockery --name PendingUserDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aerogenv/aero-club-api/models"
)

// PendingUserDatabase contains the methods to use with the pendingUser database
type PendingUserDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.PendingUser, error)
	InsertOne(ctx context.Context, pending models.PendingUser, opts ...*options.InsertOneOptions) (interface{}, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error)
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error)
}

type pendingUserDatabase struct {
	db DatabaseHelper
}

// NewPendingUserDatabase initializes a new instance of pendingUser database with the provided db connection
func NewPendingUserDatabase(db DatabaseHelper) PendingUserDatabase {
	return &pendingUserDatabase{
		db: db,
	}
}

func (p *pendingUserDatabase) FindOne(ctx context.Context, filter interface{}) (*models.PendingUser, error) {
	pending := &models.PendingUser{}
	err := p.db.Collection(PendingCollection).FindOne(ctx, filter).Decode(pending)
	if err != nil {
		return nil, err
	}
	return pending, nil
}

func (p *pendingUserDatabase) InsertOne(ctx context.Context, pending models.PendingUser, opts ...*options.InsertOneOptions) (interface{}, error) {
	return p.db.Collection(PendingCollection).InsertOne(ctx, pending, opts...)
}

func (p *pendingUserDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return p.db.Collection(PendingCollection).DeleteOne(ctx, filter, opts...)
}

func (p *pendingUserDatabase) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return p.db.Collection(PendingCollection).DeleteMany(ctx, filter, opts...)
}
