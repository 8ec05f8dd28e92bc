package scheduler

import (
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/aerogenv/aero-club-api/databases"
	"github.com/aerogenv/aero-club-api/databases/mocks"
)

func TestSweepExpiredPasscodes(t *testing.T) {
	db := &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}

	conn.On("DeleteMany", mock.Anything, mock.Anything).Return(int64(3), nil)
	db.On("Collection", databases.PasscodeCollection).Return(conn)

	s := NewScheduler(databases.NewPasscodeDatabase(db), databases.NewPendingUserDatabase(db))
	s.sweepExpiredPasscodes()

	conn.AssertCalled(t, "DeleteMany", mock.Anything, mock.Anything)
}

func TestSweepStalePendingSignups(t *testing.T) {
	db := &mocks.DatabaseHelper{}
	conn := &mocks.CollectionHelper{}

	conn.On("DeleteMany", mock.Anything, mock.Anything).Return(int64(0), nil)
	db.On("Collection", databases.PendingCollection).Return(conn)

	s := NewScheduler(databases.NewPasscodeDatabase(db), databases.NewPendingUserDatabase(db))
	s.sweepStalePendingSignups()

	conn.AssertCalled(t, "DeleteMany", mock.Anything, mock.Anything)
}

func TestStartAndStop(t *testing.T) {
	db := &mocks.DatabaseHelper{}
	s := NewScheduler(databases.NewPasscodeDatabase(db), databases.NewPendingUserDatabase(db))

	s.Start()
	s.Stop()
}
