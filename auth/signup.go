package auth

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/aerogenv/aero-club-api/databases"
	"github.com/aerogenv/aero-club-api/models"
)

// DefaultPasscodeTTL is how long an issued passcode stays valid.
const DefaultPasscodeTTL = 10 * time.Minute

// Notifier delivers a passcode to a user out of band. Delivery is best
// effort: the state machine never fails an operation because of it.
type Notifier interface {
	SendPasscode(ctx context.Context, email, name, code string) error
}

// GoogleTokenVerifier validates a federated sign-in token and returns the
// profile it asserts.
type GoogleTokenVerifier interface {
	Verify(ctx context.Context, accessToken string) (*GoogleUser, error)
}

// Service is the signup state machine. Per email, the states are
// NONE -> PENDING -> VERIFIED, where PENDING self-loops on resend and falls
// back to NONE after 24 hours unverified. Promotion to a verified account
// consumes the passcode and the pending record; the unique index on
// users.email turns any concurrent double-promotion into a rejected insert.
type Service struct {
	Users     databases.UserDatabase
	Pending   databases.PendingUserDatabase
	Passcodes databases.PasscodeDatabase
	Notifier  Notifier
	Tokens    *TokenService
	Google    GoogleTokenVerifier

	PasscodeTTL time.Duration

	// now is swappable in tests.
	now func() time.Time
}

// NewService wires a signup service with the default passcode lifetime.
func NewService(users databases.UserDatabase, pending databases.PendingUserDatabase, passcodes databases.PasscodeDatabase, notifier Notifier, tokens *TokenService, google GoogleTokenVerifier) *Service {
	return &Service{
		Users:       users,
		Pending:     pending,
		Passcodes:   passcodes,
		Notifier:    notifier,
		Tokens:      tokens,
		Google:      google,
		PasscodeTTL: DefaultPasscodeTTL,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// NormalizeEmail lowercases and trims an email address. All store keys go
// through this so "A@x.com " and "a@x.com" address the same records.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// InitiateSignup validates the request, records a pending signup, issues a
// passcode, and triggers delivery. The passcode is never returned to the
// caller.
func (s *Service) InitiateSignup(ctx context.Context, email, password, fullName string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return invalidInput("email is required")
	}
	if len(password) < MinPasswordLength {
		return invalidInput("password must be at least 8 characters long")
	}

	if err := s.checkEmailFree(ctx, email); err != nil {
		return err
	}

	hashed, err := HashPassword(password)
	if err != nil {
		return err
	}

	// Last writer wins: a second initiate for the same email replaces the
	// earlier pending record wholesale.
	if _, err := s.Pending.DeleteMany(ctx, bson.M{"email": email}); err != nil {
		return err
	}
	if _, err := s.Pending.InsertOne(ctx, models.PendingUser{
		ID:             primitive.NewObjectID(),
		Email:          email,
		FullName:       fullName,
		HashedPassword: hashed,
		CreatedAt:      s.now(),
	}); err != nil {
		return err
	}

	code, err := s.issuePasscode(ctx, email)
	if err != nil {
		return err
	}
	s.notify(email, fullName, code)
	return nil
}

// ResendOTP issues a fresh passcode for an in-flight signup, superseding any
// earlier one, and re-notifies the user.
func (s *Service) ResendOTP(ctx context.Context, email string) error {
	email = NormalizeEmail(email)

	pending, err := s.Pending.FindOne(ctx, bson.M{"email": email})
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return notFound("no pending signup found for this email")
		}
		return err
	}

	code, err := s.issuePasscode(ctx, email)
	if err != nil {
		return err
	}
	s.notify(email, pending.FullName, code)
	return nil
}

// VerifySignup consumes the passcode and promotes the pending signup into a
// verified account, returning a fresh session. The passcode gate runs first;
// a pending record that expired in the meantime still fails the promotion
// even when the code itself was valid.
func (s *Service) VerifySignup(ctx context.Context, email, code string) (*models.SessionTokens, error) {
	email = NormalizeEmail(email)

	ok, err := s.consumePasscode(ctx, email, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, invalidOrExpired()
	}

	pending, err := s.Pending.FindOne(ctx, bson.M{"email": email})
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, notFound("pending signup not found, please restart the signup process")
		}
		return nil, err
	}

	// An account may have appeared through a concurrent path, e.g. Google
	// sign-in. The pending record is useless then; clean it up.
	if _, err := s.Users.FindOne(ctx, bson.M{"email": email}); err == nil {
		_, _ = s.Pending.DeleteOne(ctx, bson.M{"email": email})
		return nil, conflict("email already registered")
	} else if err != mongo.ErrNoDocuments {
		return nil, err
	}

	now := s.now()
	user := models.User{
		ID:             primitive.NewObjectID(),
		Email:          pending.Email,
		FullName:       pending.FullName,
		HashedPassword: pending.HashedPassword,
		IsActive:       true,
		IsVerified:     true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := s.Users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Lost the promotion race; the unique email index is the
			// arbiter.
			_, _ = s.Pending.DeleteOne(ctx, bson.M{"email": email})
			return nil, conflict("email already registered")
		}
		return nil, err
	}

	if _, err := s.Pending.DeleteOne(ctx, bson.M{"email": email}); err != nil {
		zap.S().Warnw("failed to delete promoted pending signup", "email", email, "error", err)
	}

	return s.Tokens.IssuePair(user.ID.Hex(), user.Email)
}

// Login authenticates a local-credential account and returns a session.
func (s *Service) Login(ctx context.Context, email, password string) (*models.SessionTokens, error) {
	email = NormalizeEmail(email)

	user, err := s.Users.FindOne(ctx, bson.M{"email": email})
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, unauthorized("incorrect email or password")
		}
		return nil, err
	}
	if !user.HasPassword() {
		return nil, conflict("this account was created using Google Sign-In, please sign in with Google")
	}
	if !CheckPassword(password, user.HashedPassword) {
		return nil, unauthorized("incorrect email or password")
	}
	if !user.IsActive {
		return nil, unauthorized("account is inactive")
	}

	return s.Tokens.IssuePair(user.ID.Hex(), user.Email)
}

// Refresh exchanges a valid refresh token for a new session pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*models.SessionTokens, error) {
	claims, err := s.Tokens.Verify(refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, unauthorized("invalid refresh token")
	}

	user, err := s.UserByID(ctx, claims.UserID)
	if err != nil {
		return nil, unauthorized("invalid refresh token")
	}

	return s.Tokens.IssuePair(user.ID.Hex(), user.Email)
}

// UserByID fetches an account by its object ID hex.
func (s *Service) UserByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, notFound("user not found")
	}
	user, err := s.Users.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, notFound("user not found")
		}
		return nil, err
	}
	return user, nil
}

// GoogleSignIn verifies a federated token and signs the user in, creating a
// verified account without a local credential on first login.
func (s *Service) GoogleSignIn(ctx context.Context, accessToken string) (*models.SessionTokens, error) {
	profile, err := s.Google.Verify(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	email := NormalizeEmail(profile.Email)

	user, err := s.Users.FindOne(ctx, bson.M{"google_id": profile.ID})
	if err != nil && err != mongo.ErrNoDocuments {
		return nil, err
	}
	if err == mongo.ErrNoDocuments {
		// First federated login. An existing password account with the same
		// email stays untouched; mixing methods is rejected.
		if _, err := s.Users.FindOne(ctx, bson.M{"email": email}); err == nil {
			return nil, conflict("email already registered with different method")
		} else if err != mongo.ErrNoDocuments {
			return nil, err
		}

		now := s.now()
		created := models.User{
			ID:             primitive.NewObjectID(),
			Email:          email,
			FullName:       profile.Name,
			GoogleID:       profile.ID,
			ProfilePicture: profile.Picture,
			IsActive:       true,
			IsVerified:     true,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if _, err := s.Users.InsertOne(ctx, created); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, conflict("email already registered with different method")
			}
			return nil, err
		}
		user = &created
	}

	return s.Tokens.IssuePair(user.ID.Hex(), user.Email)
}

// InitiateForgotPassword issues a reset passcode for an existing
// local-credential account. Unknown emails get an explicit not-found error.
func (s *Service) InitiateForgotPassword(ctx context.Context, email string) error {
	email = NormalizeEmail(email)

	user, err := s.Users.FindOne(ctx, bson.M{"email": email})
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return notFound("no account found with this email")
		}
		return err
	}
	if !user.HasPassword() {
		return conflict("this account uses Google Sign-In, password reset is not available")
	}

	code, err := s.issuePasscode(ctx, email)
	if err != nil {
		return err
	}
	s.notify(email, user.FullName, code)
	return nil
}

// VerifyForgotPassword consumes the passcode and replaces the account's
// password credential, discarding any passcodes still outstanding for the
// email.
func (s *Service) VerifyForgotPassword(ctx context.Context, email, code, newPassword string) error {
	email = NormalizeEmail(email)
	if len(newPassword) < MinPasswordLength {
		return invalidInput("password must be at least 8 characters long")
	}

	ok, err := s.consumePasscode(ctx, email, code)
	if err != nil {
		return err
	}
	if !ok {
		return invalidOrExpired()
	}

	user, err := s.Users.FindOne(ctx, bson.M{"email": email})
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return notFound("user not found")
		}
		return err
	}

	hashed, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if _, err := s.Users.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{
		"$set": bson.M{"hashed_password": hashed, "updated_at": s.now()},
	}); err != nil {
		return err
	}

	if _, err := s.Passcodes.DeleteMany(ctx, bson.M{"email": email}); err != nil {
		zap.S().Warnw("failed to discard outstanding passcodes", "email", email, "error", err)
	}
	return nil
}

// issuePasscode generates a new passcode for the email, superseding any
// prior one, and stores it with its expiry.
func (s *Service) issuePasscode(ctx context.Context, email string) (string, error) {
	code := GeneratePasscode()

	if _, err := s.Passcodes.DeleteMany(ctx, bson.M{"email": email}); err != nil {
		return "", err
	}

	now := s.now()
	if _, err := s.Passcodes.InsertOne(ctx, models.Passcode{
		ID:        primitive.NewObjectID(),
		Email:     email,
		Code:      code,
		ExpiresAt: now.Add(s.PasscodeTTL),
		CreatedAt: now,
	}); err != nil {
		return "", err
	}
	return code, nil
}

// consumePasscode looks up the exact (email, code) pair and deletes it
// whether it verified or merely expired; a passcode is single use either
// way. Expiry is decided here, not left to the background sweeps.
func (s *Service) consumePasscode(ctx context.Context, email, code string) (bool, error) {
	record, err := s.Passcodes.FindOne(ctx, bson.M{"email": email, "code": code})
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return false, nil
		}
		return false, err
	}

	if _, err := s.Passcodes.DeleteOne(ctx, bson.M{"email": email, "code": code}); err != nil {
		return false, err
	}
	if record.Expired(s.now()) {
		return false, nil
	}
	return true, nil
}

// checkEmailFree rejects signup for an email that already has an account,
// distinguishing local-credential accounts from federated-only ones.
func (s *Service) checkEmailFree(ctx context.Context, email string) error {
	user, err := s.Users.FindOne(ctx, bson.M{"email": email})
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil
		}
		return err
	}
	if user.HasPassword() {
		return conflict("email already registered")
	}
	return conflict("this email is registered with Google, please sign in with Google")
}

// notify fires delivery in the background. Storage already succeeded by the
// time this runs, so a broken delivery channel degrades to a log line
// instead of failing the caller's request.
func (s *Service) notify(email, name, code string) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				zap.S().Errorw("panic in passcode delivery", "email", email, "panic", r)
			}
		}()
		if err := s.Notifier.SendPasscode(context.Background(), email, name, code); err != nil {
			zap.S().Warnw("passcode delivery degraded", "email", email, "error", err)
		}
	}()
}
