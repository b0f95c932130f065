package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/booktrade/backend/pkg/auth"
	"github.com/booktrade/backend/pkg/auth/session"
	"github.com/booktrade/backend/pkg/config"
	"github.com/booktrade/backend/pkg/db/models"
	pkgerrors "github.com/booktrade/backend/pkg/errors"
	"github.com/booktrade/backend/pkg/security"
)

type fakeUserRepo struct {
	users     map[string]*models.User
	lastLogin map[uuid.UUID]time.Time
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:     map[string]*models.User{},
		lastLogin: map[uuid.UUID]time.Time{},
	}
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if user, ok := f.users[email]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	f.lastLogin[id] = at
	return nil
}

type fakeSession struct {
	generated   []string
	revoked     []string
	rotateErr   error
	newAccessID string
	newRefresh  string
}

func (f *fakeSession) Generate(_ context.Context, accessID string) (string, error) {
	f.generated = append(f.generated, accessID)
	return "refresh-" + accessID, nil
}

func (f *fakeSession) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	if f.rotateErr != nil {
		return "", "", f.rotateErr
	}
	return f.newAccessID, f.newRefresh, nil
}

func (f *fakeSession) Revoke(_ context.Context, accessID string) error {
	f.revoked = append(f.revoked, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret",
		Issuer:                 "booktrade-test",
		ExpirationMinutes:      15,
		RefreshTokenTTLMinutes: 10080,
	}
}

func seedUser(t *testing.T, repo *fakeUserRepo, email, password string, active bool) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		DisplayName:  "Test User",
		IsActive:     active,
	}
	repo.users[email] = user
	return user
}

func newTestService(t *testing.T, repo *fakeUserRepo, sess *fakeSession) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sess,
		JWTConfig:      testJWTConfig(),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestLoginIssuesTokenPair(t *testing.T) {
	repo := newFakeUserRepo()
	user := seedUser(t, repo, "buyer@campus.edu", "s3cret-pass", true)
	sess := &fakeSession{}
	svc := newTestService(t, repo, sess)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "Buyer@Campus.edu",
		Password: "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected access and refresh tokens")
	}
	if resp.User == nil || resp.User.ID != user.ID {
		t.Fatalf("unexpected user in response: %+v", resp.User)
	}
	if len(sess.generated) != 1 {
		t.Fatalf("expected one session, got %d", len(sess.generated))
	}
	if _, ok := repo.lastLogin[user.ID]; !ok {
		t.Fatal("expected last login to be recorded")
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("claims user mismatch: %s", claims.UserID)
	}
	if claims.ID != sess.generated[0] {
		t.Fatal("jti must match the session access id")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "buyer@campus.edu", "correct-pass", true)
	svc := newTestService(t, repo, &fakeSession{})

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "buyer@campus.edu",
		Password: "wrong-pass",
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	svc := newTestService(t, newFakeUserRepo(), &fakeSession{})

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "nobody@campus.edu",
		Password: "whatever",
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginInactiveUser(t *testing.T) {
	repo := newFakeUserRepo()
	seedUser(t, repo, "gone@campus.edu", "s3cret-pass", false)
	svc := newTestService(t, repo, &fakeSession{})

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "gone@campus.edu",
		Password: "s3cret-pass",
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	repo := newFakeUserRepo()
	user := seedUser(t, repo, "buyer@campus.edu", "s3cret-pass", true)
	sess := &fakeSession{newAccessID: session.NewAccessID(), newRefresh: "rotated-refresh"}
	svc := newTestService(t, repo, sess)

	login, err := svc.Login(context.Background(), LoginRequest{
		Email:    "buyer@campus.edu",
		Password: "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	resp, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if resp.RefreshToken != "rotated-refresh" {
		t.Fatalf("unexpected refresh token %q", resp.RefreshToken)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("claims user mismatch: %s", claims.UserID)
	}
	if claims.ID != sess.newAccessID {
		t.Fatal("new jti must match the rotated access id")
	}
}

func TestRefreshInvalidToken(t *testing.T) {
	sess := &fakeSession{rotateErr: session.ErrInvalidRefreshToken}
	repo := newFakeUserRepo()
	seedUser(t, repo, "buyer@campus.edu", "s3cret-pass", true)
	svc := newTestService(t, repo, sess)

	login, err := svc.Login(context.Background(), LoginRequest{
		Email:    "buyer@campus.edu",
		Password: "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	_, err = svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: "stolen",
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestRefreshGarbageAccessToken(t *testing.T) {
	svc := newTestService(t, newFakeUserRepo(), &fakeSession{})

	_, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  "not-a-jwt",
		RefreshToken: "whatever",
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	sess := &fakeSession{}
	svc := newTestService(t, newFakeUserRepo(), sess)

	if err := svc.Logout(context.Background(), "access-123"); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if len(sess.revoked) != 1 || sess.revoked[0] != "access-123" {
		t.Fatalf("expected revoke of access-123, got %v", sess.revoked)
	}
}

func TestLogoutRequiresAccessID(t *testing.T) {
	svc := newTestService(t, newFakeUserRepo(), &fakeSession{})

	err := svc.Logout(context.Background(), "  ")
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
