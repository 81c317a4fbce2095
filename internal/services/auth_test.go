package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/docuchat/docuchat-backend/internal/domain"
	"github.com/docuchat/docuchat-backend/internal/requestdata"
)

type fakeUserRepo struct {
	byEmail map[string]*domain.User
	byID    map[uuid.UUID]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	r := &fakeUserRepo{byEmail: map[string]*domain.User{}, byID: map[uuid.UUID]*domain.User{}}
	for _, u := range users {
		r.byEmail[u.Email] = u
		r.byID[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, users []*domain.User) ([]*domain.User, error) {
	for _, u := range users {
		r.byEmail[u.Email] = u
		r.byID[u.ID] = u
	}
	return users, nil
}

func (r *fakeUserRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.User, error) {
	var out []*domain.User
	for _, id := range ids {
		if u, ok := r.byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) GetByEmails(ctx context.Context, tx *gorm.DB, emails []string) ([]*domain.User, error) {
	var out []*domain.User
	for _, e := range emails {
		if u, ok := r.byEmail[e]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

type fakeUserTokenRepo struct {
	rows        map[string]*domain.UserToken
	loginTokens map[string]*domain.LoginToken
	deleteCalls int
}

func newFakeUserTokenRepo() *fakeUserTokenRepo {
	return &fakeUserTokenRepo{
		rows:        map[string]*domain.UserToken{},
		loginTokens: map[string]*domain.LoginToken{},
	}
}

func (r *fakeUserTokenRepo) Create(ctx context.Context, tx *gorm.DB, tokens []*domain.UserToken) ([]*domain.UserToken, error) {
	for _, t := range tokens {
		r.rows[t.AccessToken] = t
	}
	return tokens, nil
}

func (r *fakeUserTokenRepo) GetByUserIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.UserToken, error) {
	var out []*domain.UserToken
	for _, row := range r.rows {
		for _, id := range ids {
			if row.UserID == id {
				out = append(out, row)
			}
		}
	}
	return out, nil
}

func (r *fakeUserTokenRepo) GetByAccessTokens(ctx context.Context, tx *gorm.DB, accessTokens []string) ([]*domain.UserToken, error) {
	var out []*domain.UserToken
	for _, t := range accessTokens {
		if row, ok := r.rows[t]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *fakeUserTokenRepo) GetByRefreshTokens(ctx context.Context, tx *gorm.DB, refreshTokens []string) ([]*domain.UserToken, error) {
	var out []*domain.UserToken
	for _, row := range r.rows {
		for _, t := range refreshTokens {
			if row.RefreshToken == t {
				out = append(out, row)
			}
		}
	}
	return out, nil
}

func (r *fakeUserTokenRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	r.deleteCalls++
	for key, row := range r.rows {
		for _, id := range ids {
			if row.ID == id {
				delete(r.rows, key)
			}
		}
	}
	return nil
}

func (r *fakeUserTokenRepo) CreateLoginToken(ctx context.Context, tx *gorm.DB, token *domain.LoginToken) error {
	r.loginTokens[token.Token] = token
	return nil
}

func (r *fakeUserTokenRepo) ConsumeLoginToken(ctx context.Context, tx *gorm.DB, token string, now time.Time) (*domain.LoginToken, error) {
	lt, ok := r.loginTokens[token]
	if !ok || lt.UsedAt != nil || lt.ExpiresAt.Before(now) {
		return nil, gorm.ErrRecordNotFound
	}
	lt.UsedAt = &now
	return lt, nil
}

type fakeMailer struct {
	sent []string
}

func (m *fakeMailer) SendLoginLink(ctx context.Context, email, token string) error {
	m.sent = append(m.sent, email)
	return nil
}

func newTestAuthService(t *testing.T, userRepo *fakeUserRepo, tokenRepo *fakeUserTokenRepo, mailer Mailer) AuthService {
	t.Helper()
	hub := NewSessionHub(testLogger(t))
	return NewAuthService(nil, testLogger(t), userRepo, tokenRepo, hub, nil, mailer,
		nil, "test-secret", time.Hour, 24*time.Hour)
}

func signTestToken(t *testing.T, secret string, userID uuid.UUID, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID.String(),
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestSetContextFromTokenAcceptsLiveToken(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Email: "a@b.com"}
	tokenRepo := newFakeUserTokenRepo()
	as := newTestAuthService(t, newFakeUserRepo(user), tokenRepo, nil)

	tokenString := signTestToken(t, "test-secret", user.ID, time.Hour)
	tokenRepo.rows[tokenString] = &domain.UserToken{ID: uuid.New(), UserID: user.ID, AccessToken: tokenString}

	ctx, err := as.SetContextFromToken(context.Background(), tokenString)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID != user.ID {
		t.Fatalf("request data: %+v", rd)
	}
}

func TestSetContextFromTokenRejectsRevokedToken(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Email: "a@b.com"}
	as := newTestAuthService(t, newFakeUserRepo(user), newFakeUserTokenRepo(), nil)

	tokenString := signTestToken(t, "test-secret", user.ID, time.Hour)

	if _, err := as.SetContextFromToken(context.Background(), tokenString); err == nil {
		t.Fatalf("token with no live row must be rejected")
	}
}

func TestSetContextFromTokenRejectsWrongSignature(t *testing.T) {
	user := &domain.User{ID: uuid.New()}
	as := newTestAuthService(t, newFakeUserRepo(user), newFakeUserTokenRepo(), nil)

	tokenString := signTestToken(t, "other-secret", user.ID, time.Hour)

	if _, err := as.SetContextFromToken(context.Background(), tokenString); err == nil {
		t.Fatalf("token signed with another key must be rejected")
	}
}

func TestLogoutDeletesRowsAndPublishesSignedOut(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Email: "a@b.com"}
	tokenRepo := newFakeUserTokenRepo()
	hub := NewSessionHub(testLogger(t))
	as := NewAuthService(nil, testLogger(t), newFakeUserRepo(user), tokenRepo, hub, nil, nil,
		nil, "test-secret", time.Hour, 24*time.Hour)

	var events []domain.SessionEvent
	hub.Subscribe(func(ev domain.SessionEvent) { events = append(events, ev) })

	tokenString := signTestToken(t, "test-secret", user.ID, time.Hour)
	tokenRepo.rows[tokenString] = &domain.UserToken{ID: uuid.New(), UserID: user.ID, AccessToken: tokenString}
	ctx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      user.ID,
	})

	if err := as.LogoutUser(ctx); err != nil {
		t.Fatalf("LogoutUser: %v", err)
	}

	if len(tokenRepo.rows) != 0 {
		t.Fatalf("token rows should be deleted, %d remain", len(tokenRepo.rows))
	}
	if len(events) != 1 || events[0].Type != domain.SessionSignedOut || events[0].UserID != user.ID {
		t.Fatalf("signed-out event: %+v", events)
	}
}

func TestGetCurrentSessionResolvesIdentity(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Email: "a@b.com", Name: "Ada"}
	as := newTestAuthService(t, newFakeUserRepo(user), newFakeUserTokenRepo(), nil)

	ctx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: user.ID})
	identity, err := as.GetCurrentSession(ctx)
	if err != nil {
		t.Fatalf("GetCurrentSession: %v", err)
	}
	if identity == nil || identity.UserID != user.ID || identity.Email != "a@b.com" {
		t.Fatalf("identity: %+v", identity)
	}
}

func TestGetCurrentSessionWithoutRequestDataIsSignedOut(t *testing.T) {
	as := newTestAuthService(t, newFakeUserRepo(), newFakeUserTokenRepo(), nil)

	identity, err := as.GetCurrentSession(context.Background())
	if err != nil || identity != nil {
		t.Fatalf("want (nil, nil), got (%+v, %v)", identity, err)
	}
}

func TestSendEmailLinkStoresTokenAndMails(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Email: "a@b.com"}
	tokenRepo := newFakeUserTokenRepo()
	mailer := &fakeMailer{}
	as := newTestAuthService(t, newFakeUserRepo(user), tokenRepo, mailer)

	if err := as.SendEmailLink(context.Background(), " A@B.com "); err != nil {
		t.Fatalf("SendEmailLink: %v", err)
	}

	if len(mailer.sent) != 1 || mailer.sent[0] != "a@b.com" {
		t.Fatalf("mailer deliveries: %v", mailer.sent)
	}
	if len(tokenRepo.loginTokens) != 1 {
		t.Fatalf("login token rows: %d", len(tokenRepo.loginTokens))
	}
	for tok := range tokenRepo.loginTokens {
		if len(strings.TrimSpace(tok)) < 32 {
			t.Fatalf("login token too short: %q", tok)
		}
	}
}

func TestSendEmailLinkUnknownAddressSendsNothing(t *testing.T) {
	mailer := &fakeMailer{}
	as := newTestAuthService(t, newFakeUserRepo(), newFakeUserTokenRepo(), mailer)

	if err := as.SendEmailLink(context.Background(), "nobody@b.com"); err != nil {
		t.Fatalf("SendEmailLink: %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("unknown address must not trigger mail, sent=%v", mailer.sent)
	}
}
