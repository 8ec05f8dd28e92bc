package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aerogenv/aero-club-api/auth"
	"github.com/aerogenv/aero-club-api/models"
)

// In-memory stores standing in for the mongo collections. They interpret
// the same bson filters the service issues against the real driver.

type fakeUserStore struct {
	mu    sync.Mutex
	users []models.User
}

func (f *fakeUserStore) FindOne(ctx context.Context, filter interface{}) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fm := filter.(bson.M)
	for i := range f.users {
		u := f.users[i]
		if email, ok := fm["email"]; ok && u.Email != email {
			continue
		}
		if id, ok := fm["_id"]; ok && u.ID != id {
			continue
		}
		if gid, ok := fm["google_id"]; ok && u.GoogleID != gid {
			continue
		}
		return &u, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeUserStore) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.User(nil), f.users...), nil
}

func (f *fakeUserStore) InsertOne(ctx context.Context, user models.User) (interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return nil, mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}
		}
	}
	f.users = append(f.users, user)
	return user.ID, nil
}

func (f *fakeUserStore) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fm := filter.(bson.M)
	set := update.(bson.M)["$set"].(bson.M)
	for i := range f.users {
		if id, ok := fm["_id"]; ok && f.users[i].ID != id {
			continue
		}
		if hashed, ok := set["hashed_password"].(string); ok {
			f.users[i].HashedPassword = hashed
		}
		if at, ok := set["updated_at"].(time.Time); ok {
			f.users[i].UpdatedAt = at
		}
		return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
	}
	return &mongo.UpdateResult{}, nil
}

func (f *fakeUserStore) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.users)), nil
}

type fakePendingStore struct {
	mu      sync.Mutex
	pending []models.PendingUser
}

func (f *fakePendingStore) FindOne(ctx context.Context, filter interface{}) (*models.PendingUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email := filter.(bson.M)["email"]
	for i := range f.pending {
		if f.pending[i].Email == email {
			p := f.pending[i]
			return &p, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakePendingStore) InsertOne(ctx context.Context, pending models.PendingUser, opts ...*options.InsertOneOptions) (interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, pending)
	return pending.ID, nil
}

func (f *fakePendingStore) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return f.delete(filter, true)
}

func (f *fakePendingStore) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return f.delete(filter, false)
}

func (f *fakePendingStore) delete(filter interface{}, one bool) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email := filter.(bson.M)["email"]
	var kept []models.PendingUser
	var deleted int64
	for _, p := range f.pending {
		if p.Email == email && (!one || deleted == 0) {
			deleted++
			continue
		}
		kept = append(kept, p)
	}
	f.pending = kept
	return deleted, nil
}

type fakePasscodeStore struct {
	mu    sync.Mutex
	codes []models.Passcode
}

func (f *fakePasscodeStore) FindOne(ctx context.Context, filter interface{}) (*models.Passcode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fm := filter.(bson.M)
	for i := range f.codes {
		c := f.codes[i]
		if c.Email != fm["email"] {
			continue
		}
		if code, ok := fm["code"]; ok && c.Code != code {
			continue
		}
		return &c, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakePasscodeStore) InsertOne(ctx context.Context, passcode models.Passcode, opts ...*options.InsertOneOptions) (interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes = append(f.codes, passcode)
	return passcode.ID, nil
}

func (f *fakePasscodeStore) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return f.delete(filter, true)
}

func (f *fakePasscodeStore) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return f.delete(filter, false)
}

func (f *fakePasscodeStore) delete(filter interface{}, one bool) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fm := filter.(bson.M)
	var kept []models.Passcode
	var deleted int64
	for _, c := range f.codes {
		match := c.Email == fm["email"]
		if code, ok := fm["code"]; ok && c.Code != code {
			match = false
		}
		if match && (!one || deleted == 0) {
			deleted++
			continue
		}
		kept = append(kept, c)
	}
	f.codes = kept
	return deleted, nil
}

// current returns the live passcode for an email, if any.
func (f *fakePasscodeStore) current(email string) (models.Passcode, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.codes {
		if c.Email == email {
			return c, true
		}
	}
	return models.Passcode{}, false
}

type recordingNotifier struct {
	mu    sync.Mutex
	sends []string
	err   error
}

func (n *recordingNotifier) SendPasscode(ctx context.Context, email, name, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sends = append(n.sends, email)
	return n.err
}

type fakeGoogleVerifier struct {
	user *auth.GoogleUser
	err  error
}

func (g *fakeGoogleVerifier) Verify(ctx context.Context, accessToken string) (*auth.GoogleUser, error) {
	return g.user, g.err
}

type fixture struct {
	service   *auth.Service
	users     *fakeUserStore
	pending   *fakePendingStore
	passcodes *fakePasscodeStore
	notifier  *recordingNotifier
	google    *fakeGoogleVerifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tokens, err := auth.NewTokenService("0123456789abcdef0123456789abcdef", 30*time.Minute, 7*24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	f := &fixture{
		users:     &fakeUserStore{},
		pending:   &fakePendingStore{},
		passcodes: &fakePasscodeStore{},
		notifier:  &recordingNotifier{},
		google:    &fakeGoogleVerifier{},
	}
	f.service = auth.NewService(f.users, f.pending, f.passcodes, f.notifier, tokens, f.google)
	return f
}

func (f *fixture) initiate(t *testing.T, email string) string {
	t.Helper()
	err := f.service.InitiateSignup(context.Background(), email, "password123", "Test Pilot")
	assert.NoError(t, err)
	code, ok := f.passcodes.current(auth.NormalizeEmail(email))
	assert.True(t, ok, "expected a stored passcode after initiate")
	return code.Code
}

func TestInitiateSignupStoresPendingAndPasscode(t *testing.T) {
	f := newFixture(t)

	code := f.initiate(t, "Pilot@Example.com ")

	assert.Len(t, code, auth.PasscodeLength)
	pending, err := f.pending.FindOne(context.Background(), bson.M{"email": "pilot@example.com"})
	assert.NoError(t, err)
	assert.Equal(t, "Test Pilot", pending.FullName)
	assert.NotEqual(t, "password123", pending.HashedPassword)
}

func TestInitiateSignupRejectsShortPassword(t *testing.T) {
	f := newFixture(t)

	err := f.service.InitiateSignup(context.Background(), "pilot@example.com", "short", "Test Pilot")
	assert.ErrorIs(t, err, auth.ErrInvalidInput)
}

func TestInitiateSignupRejectsMissingEmail(t *testing.T) {
	f := newFixture(t)

	err := f.service.InitiateSignup(context.Background(), "   ", "password123", "Test Pilot")
	assert.ErrorIs(t, err, auth.ErrInvalidInput)
}

func TestInitiateSignupRejectsRegisteredEmail(t *testing.T) {
	f := newFixture(t)
	f.users.users = append(f.users.users, models.User{
		ID:             primitive.NewObjectID(),
		Email:          "pilot@example.com",
		HashedPassword: "x",
	})

	err := f.service.InitiateSignup(context.Background(), "pilot@example.com", "password123", "Test Pilot")
	assert.ErrorIs(t, err, auth.ErrConflict)
}

func TestInitiateSignupRejectsGoogleOnlyEmail(t *testing.T) {
	f := newFixture(t)
	f.users.users = append(f.users.users, models.User{
		ID:       primitive.NewObjectID(),
		Email:    "pilot@example.com",
		GoogleID: "g-123",
	})

	err := f.service.InitiateSignup(context.Background(), "pilot@example.com", "password123", "Test Pilot")
	assert.ErrorIs(t, err, auth.ErrConflict)
	assert.Contains(t, err.Error(), "Google")
}

func TestVerifySignupPromotesPendingUser(t *testing.T) {
	f := newFixture(t)
	code := f.initiate(t, "pilot@example.com")

	tokens, err := f.service.VerifySignup(context.Background(), "pilot@example.com", code)
	assert.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, "bearer", tokens.TokenType)

	user, err := f.users.FindOne(context.Background(), bson.M{"email": "pilot@example.com"})
	assert.NoError(t, err)
	assert.True(t, user.IsVerified)
	assert.True(t, user.IsActive)

	_, err = f.pending.FindOne(context.Background(), bson.M{"email": "pilot@example.com"})
	assert.Equal(t, mongo.ErrNoDocuments, err)
}

func TestVerifySignupPasscodeIsSingleUse(t *testing.T) {
	f := newFixture(t)
	code := f.initiate(t, "pilot@example.com")

	_, err := f.service.VerifySignup(context.Background(), "pilot@example.com", code)
	assert.NoError(t, err)

	_, err = f.service.VerifySignup(context.Background(), "pilot@example.com", code)
	assert.ErrorIs(t, err, auth.ErrInvalidOrExpired)
}

func TestVerifySignupWrongCode(t *testing.T) {
	f := newFixture(t)
	code := f.initiate(t, "pilot@example.com")

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	_, err := f.service.VerifySignup(context.Background(), "pilot@example.com", wrong)
	assert.ErrorIs(t, err, auth.ErrInvalidOrExpired)

	// the stored code survives a failed guess
	_, ok := f.passcodes.current("pilot@example.com")
	assert.True(t, ok)
}

func TestVerifySignupWrongEmailDoesNotConsume(t *testing.T) {
	f := newFixture(t)
	code := f.initiate(t, "pilot@example.com")

	_, err := f.service.VerifySignup(context.Background(), "other@example.com", code)
	assert.ErrorIs(t, err, auth.ErrInvalidOrExpired)

	_, err = f.service.VerifySignup(context.Background(), "pilot@example.com", code)
	assert.NoError(t, err)
}

func TestVerifySignupExpiredCodeIsConsumed(t *testing.T) {
	f := newFixture(t)
	f.service.PasscodeTTL = -time.Minute
	code := f.initiate(t, "pilot@example.com")

	_, err := f.service.VerifySignup(context.Background(), "pilot@example.com", code)
	assert.ErrorIs(t, err, auth.ErrInvalidOrExpired)

	// consumed on the failed attempt even though it was expired
	_, ok := f.passcodes.current("pilot@example.com")
	assert.False(t, ok)
}

func TestReinitiateSupersedesPasscode(t *testing.T) {
	f := newFixture(t)
	first := f.initiate(t, "pilot@example.com")

	var second string
	// codes are random six digit strings, loop until they differ
	for i := 0; i < 50; i++ {
		second = f.initiate(t, "pilot@example.com")
		if second != first {
			break
		}
	}
	if second == first {
		t.Skip("could not draw a distinct passcode")
	}

	_, err := f.service.VerifySignup(context.Background(), "pilot@example.com", first)
	assert.ErrorIs(t, err, auth.ErrInvalidOrExpired)

	_, err = f.service.VerifySignup(context.Background(), "pilot@example.com", second)
	assert.NoError(t, err)
}

func TestReinitiateReplacesPendingDetails(t *testing.T) {
	f := newFixture(t)
	f.initiate(t, "pilot@example.com")

	err := f.service.InitiateSignup(context.Background(), "pilot@example.com", "newpassword", "New Name")
	assert.NoError(t, err)

	pending, err := f.pending.FindOne(context.Background(), bson.M{"email": "pilot@example.com"})
	assert.NoError(t, err)
	assert.Equal(t, "New Name", pending.FullName)
	assert.Len(t, f.pending.pending, 1)
}

func TestResendOTPRequiresPendingSignup(t *testing.T) {
	f := newFixture(t)

	err := f.service.ResendOTP(context.Background(), "pilot@example.com")
	assert.ErrorIs(t, err, auth.ErrNotFound)
}

func TestResendOTPIssuesFreshCode(t *testing.T) {
	f := newFixture(t)
	f.initiate(t, "pilot@example.com")

	err := f.service.ResendOTP(context.Background(), "pilot@example.com")
	assert.NoError(t, err)

	_, ok := f.passcodes.current("pilot@example.com")
	assert.True(t, ok)
	assert.Len(t, f.passcodes.codes, 1)
}

func TestVerifySignupWithoutPendingRecord(t *testing.T) {
	f := newFixture(t)
	code := f.initiate(t, "pilot@example.com")

	// pending record expired out from under the passcode
	_, _ = f.pending.DeleteMany(context.Background(), bson.M{"email": "pilot@example.com"})

	_, err := f.service.VerifySignup(context.Background(), "pilot@example.com", code)
	assert.ErrorIs(t, err, auth.ErrNotFound)
}

func TestVerifySignupConcurrentAccountWins(t *testing.T) {
	f := newFixture(t)
	code := f.initiate(t, "pilot@example.com")

	// an account for the email appeared through another path
	f.users.users = append(f.users.users, models.User{
		ID:       primitive.NewObjectID(),
		Email:    "pilot@example.com",
		GoogleID: "g-123",
	})

	_, err := f.service.VerifySignup(context.Background(), "pilot@example.com", code)
	assert.ErrorIs(t, err, auth.ErrConflict)

	// the now useless pending record is cleaned up
	_, err = f.pending.FindOne(context.Background(), bson.M{"email": "pilot@example.com"})
	assert.Equal(t, mongo.ErrNoDocuments, err)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	code := f.initiate(t, "pilot@example.com")
	_, err := f.service.VerifySignup(context.Background(), "pilot@example.com", code)
	assert.NoError(t, err)

	tokens, err := f.service.Login(context.Background(), "Pilot@Example.com", "password123")
	assert.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)

	_, err = f.service.Login(context.Background(), "pilot@example.com", "wrongpassword")
	assert.ErrorIs(t, err, auth.ErrUnauthorized)

	_, err = f.service.Login(context.Background(), "nobody@example.com", "password123")
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestLoginGoogleOnlyAccount(t *testing.T) {
	f := newFixture(t)
	f.users.users = append(f.users.users, models.User{
		ID:       primitive.NewObjectID(),
		Email:    "pilot@example.com",
		GoogleID: "g-123",
		IsActive: true,
	})

	_, err := f.service.Login(context.Background(), "pilot@example.com", "password123")
	assert.ErrorIs(t, err, auth.ErrConflict)
}

func TestLoginInactiveAccount(t *testing.T) {
	f := newFixture(t)
	hashed, err := auth.HashPassword("password123")
	assert.NoError(t, err)
	f.users.users = append(f.users.users, models.User{
		ID:             primitive.NewObjectID(),
		Email:          "pilot@example.com",
		HashedPassword: hashed,
		IsActive:       false,
	})

	_, err = f.service.Login(context.Background(), "pilot@example.com", "password123")
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestRefresh(t *testing.T) {
	f := newFixture(t)
	code := f.initiate(t, "pilot@example.com")
	tokens, err := f.service.VerifySignup(context.Background(), "pilot@example.com", code)
	assert.NoError(t, err)

	refreshed, err := f.service.Refresh(context.Background(), tokens.RefreshToken)
	assert.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	// an access token is not accepted as a refresh token
	_, err = f.service.Refresh(context.Background(), tokens.AccessToken)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestGoogleSignInCreatesAccount(t *testing.T) {
	f := newFixture(t)
	f.google.user = &auth.GoogleUser{ID: "g-123", Email: "Pilot@Example.com", Name: "Test Pilot"}

	tokens, err := f.service.GoogleSignIn(context.Background(), "token")
	assert.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)

	user, err := f.users.FindOne(context.Background(), bson.M{"google_id": "g-123"})
	assert.NoError(t, err)
	assert.Equal(t, "pilot@example.com", user.Email)
	assert.True(t, user.IsVerified)
	assert.False(t, user.HasPassword())

	// second sign-in reuses the account
	_, err = f.service.GoogleSignIn(context.Background(), "token")
	assert.NoError(t, err)
	assert.Len(t, f.users.users, 1)
}

func TestGoogleSignInRejectsPasswordAccountEmail(t *testing.T) {
	f := newFixture(t)
	f.users.users = append(f.users.users, models.User{
		ID:             primitive.NewObjectID(),
		Email:          "pilot@example.com",
		HashedPassword: "x",
	})
	f.google.user = &auth.GoogleUser{ID: "g-123", Email: "pilot@example.com"}

	_, err := f.service.GoogleSignIn(context.Background(), "token")
	assert.ErrorIs(t, err, auth.ErrConflict)
}

func TestGoogleSignInVerifierError(t *testing.T) {
	f := newFixture(t)
	f.google.err = errors.New("bad token")

	_, err := f.service.GoogleSignIn(context.Background(), "token")
	assert.Error(t, err)
}

func TestForgotPasswordFlow(t *testing.T) {
	f := newFixture(t)
	code := f.initiate(t, "pilot@example.com")
	_, err := f.service.VerifySignup(context.Background(), "pilot@example.com", code)
	assert.NoError(t, err)

	err = f.service.InitiateForgotPassword(context.Background(), "pilot@example.com")
	assert.NoError(t, err)

	reset, ok := f.passcodes.current("pilot@example.com")
	assert.True(t, ok)

	err = f.service.VerifyForgotPassword(context.Background(), "pilot@example.com", reset.Code, "newpassword123")
	assert.NoError(t, err)

	_, err = f.service.Login(context.Background(), "pilot@example.com", "newpassword123")
	assert.NoError(t, err)
	_, err = f.service.Login(context.Background(), "pilot@example.com", "password123")
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	f := newFixture(t)

	err := f.service.InitiateForgotPassword(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, auth.ErrNotFound)
}

func TestForgotPasswordGoogleOnlyAccount(t *testing.T) {
	f := newFixture(t)
	f.users.users = append(f.users.users, models.User{
		ID:       primitive.NewObjectID(),
		Email:    "pilot@example.com",
		GoogleID: "g-123",
	})

	err := f.service.InitiateForgotPassword(context.Background(), "pilot@example.com")
	assert.ErrorIs(t, err, auth.ErrConflict)
}

func TestForgotPasswordShortNewPasswordDoesNotConsumeCode(t *testing.T) {
	f := newFixture(t)
	code := f.initiate(t, "pilot@example.com")
	_, err := f.service.VerifySignup(context.Background(), "pilot@example.com", code)
	assert.NoError(t, err)

	err = f.service.InitiateForgotPassword(context.Background(), "pilot@example.com")
	assert.NoError(t, err)
	reset, _ := f.passcodes.current("pilot@example.com")

	err = f.service.VerifyForgotPassword(context.Background(), "pilot@example.com", reset.Code, "short")
	assert.ErrorIs(t, err, auth.ErrInvalidInput)

	// validation failed before the code was touched
	err = f.service.VerifyForgotPassword(context.Background(), "pilot@example.com", reset.Code, "newpassword123")
	assert.NoError(t, err)
}

func TestUserByID(t *testing.T) {
	f := newFixture(t)
	id := primitive.NewObjectID()
	f.users.users = append(f.users.users, models.User{ID: id, Email: "pilot@example.com"})

	user, err := f.service.UserByID(context.Background(), id.Hex())
	assert.NoError(t, err)
	assert.Equal(t, "pilot@example.com", user.Email)

	_, err = f.service.UserByID(context.Background(), "not-a-hex-id")
	assert.ErrorIs(t, err, auth.ErrNotFound)

	_, err = f.service.UserByID(context.Background(), primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, auth.ErrNotFound)
}
