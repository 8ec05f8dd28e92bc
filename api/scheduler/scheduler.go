package scheduler

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/aerogenv/aero-club-api/databases"
)

// Scheduler sweeps expired verification codes and stale pending signups.
// Mongo TTL indexes already expire these documents; the sweeps keep the
// collections tidy when TTL monitoring lags or is disabled.
type Scheduler struct {
	cron       *cron.Cron
	PDB        databases.PasscodeDatabase
	PendDB     databases.PendingUserDatabase
	instanceID string
}

// pendingSignupTTL mirrors the TTL index on the pendingUsers collection
const pendingSignupTTL = 24 * time.Hour

// NewScheduler creates a new scheduler instance
func NewScheduler(pDB databases.PasscodeDatabase, pendDB databases.PendingUserDatabase) *Scheduler {
	instanceID := os.Getenv("DYNO")
	if instanceID == "" {
		instanceID = uuid.NewString()
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		PDB:        pDB,
		PendDB:     pendDB,
		instanceID: instanceID,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	_, err := s.cron.AddFunc("*/10 * * * *", s.sweepExpiredPasscodes)
	if err != nil {
		zap.S().Errorw("failed to register passcode sweep job", "error", err)
	}

	_, err = s.cron.AddFunc("0 * * * *", s.sweepStalePendingSignups)
	if err != nil {
		zap.S().Errorw("failed to register pending signup sweep job", "error", err)
	}

	s.cron.Start()
	zap.S().Infow("cleanup scheduler started", "instance", s.instanceID)
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("cleanup scheduler stopped")
}

// sweepExpiredPasscodes deletes verification codes past their expiry
func (s *Scheduler) sweepExpiredPasscodes() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deleted, err := s.PDB.DeleteMany(ctx, bson.M{
		"expires_at": bson.M{"$lt": time.Now().UTC()},
	})
	if err != nil {
		zap.S().Errorw("failed to sweep expired passcodes", "error", err)
		return
	}
	if deleted > 0 {
		zap.S().Infow("swept expired passcodes", "deleted", deleted, "instance", s.instanceID)
	}
}

// sweepStalePendingSignups deletes pending signups older than the signup TTL
func (s *Scheduler) sweepStalePendingSignups() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().Add(-pendingSignupTTL)
	deleted, err := s.PendDB.DeleteMany(ctx, bson.M{
		"created_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		zap.S().Errorw("failed to sweep stale pending signups", "error", err)
		return
	}
	if deleted > 0 {
		zap.S().Infow("swept stale pending signups", "deleted", deleted, "instance", s.instanceID)
	}
}
