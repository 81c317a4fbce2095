package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/docuchat/docuchat-backend/internal/clients/redis"
	"github.com/docuchat/docuchat-backend/internal/data/repos"
	"github.com/docuchat/docuchat-backend/internal/domain"
	"github.com/docuchat/docuchat-backend/internal/platform/logger"
	"github.com/docuchat/docuchat-backend/internal/requestdata"
	"github.com/docuchat/docuchat-backend/internal/workspace"
)

const loginTokenTTL = 15 * time.Minute

// AuthService owns credentials, token issuance, and session-change fan-out.
// It satisfies the workspace identity provider contract, so session stores
// consume it directly.
type AuthService interface {
	RegisterUser(ctx context.Context, email, password, name string) (*domain.User, error)
	LoginUser(ctx context.Context, email, password string) (string, string, error)
	RefreshUser(ctx context.Context) (string, string, error)
	LogoutUser(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration

	SendEmailLink(ctx context.Context, email string) error
	CompleteEmailLink(ctx context.Context, token string) (string, string, error)
	OAuthSignInURL(state string) string
	CompleteOAuth(ctx context.Context, code string) (string, string, error)

	GetCurrentSession(ctx context.Context) (*domain.Identity, error)
	OnSessionChange(fn func(ev domain.SessionEvent)) workspace.Subscription
	SignOut(ctx context.Context) error
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	hub           *SessionHub
	bus           redis.SessionBus
	mailer        Mailer
	oauthConfig   *oauth2.Config
	jwtSecretKey  string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	hub *SessionHub,
	bus redis.SessionBus,
	mailer Mailer,
	oauthConfig *oauth2.Config,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	serviceLog := log.With("service", "AuthService")
	return &authService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		hub:           hub,
		bus:           bus,
		mailer:        mailer,
		oauthConfig:   oauthConfig,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (as *authService) RegisterUser(ctx context.Context, email, password, name string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email required", domain.ErrValidation)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", domain.ErrValidation)
	}

	existing, geErr := as.userRepo.GetByEmails(ctx, nil, []string{email})
	if geErr != nil {
		return nil, fmt.Errorf("check existing user: %w", geErr)
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: email already registered", domain.ErrValidation)
	}

	hash, hErr := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if hErr != nil {
		return nil, fmt.Errorf("hash password: %w", hErr)
	}

	user := &domain.User{
		ID:       uuid.New(),
		Email:    email,
		Password: string(hash),
		Name:     name,
	}
	if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, ucErr := as.userRepo.Create(ctx, tx, []*domain.User{user})
		return ucErr
	}); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	as.log.Info("user registered", "user_id", user.ID.String())
	return user, nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (string, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", "", fmt.Errorf("%w: email and password required", domain.ErrValidation)
	}

	users, usErr := as.userRepo.GetByEmails(ctx, nil, []string{email})
	if usErr != nil {
		return "", "", fmt.Errorf("retrieve user by email: %w", usErr)
	}
	if len(users) == 0 {
		return "", "", fmt.Errorf("invalid email or password")
	}
	user := users[0]
	if user.Password == "" {
		return "", "", fmt.Errorf("invalid email or password")
	}
	if cErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); cErr != nil {
		return "", "", fmt.Errorf("invalid email or password")
	}

	return as.issueTokens(ctx, user)
}

func (as *authService) RefreshUser(ctx context.Context) (string, string, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.RefreshToken == "" {
		return "", "", fmt.Errorf("%w: refresh token required", domain.ErrValidation)
	}

	var accessToken, refreshToken string
	if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, grErr := as.userTokenRepo.GetByRefreshTokens(ctx, tx, []string{rd.RefreshToken})
		if grErr != nil {
			return fmt.Errorf("look up refresh token: %w", grErr)
		}
		if len(rows) == 0 {
			return fmt.Errorf("unknown refresh token")
		}
		row := rows[0]
		if row.ExpiresAt.Before(time.Now()) {
			_ = as.userTokenRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{row.ID})
			return fmt.Errorf("refresh token expired")
		}
		users, guErr := as.userRepo.GetByIDs(ctx, tx, []uuid.UUID{row.UserID})
		if guErr != nil || len(users) == 0 {
			return fmt.Errorf("resolve token owner: %w", guErr)
		}
		if dErr := as.userTokenRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{row.ID}); dErr != nil {
			return fmt.Errorf("rotate refresh token: %w", dErr)
		}
		access, refresh, mErr := as.mintTokenPair(ctx, tx, users[0])
		if mErr != nil {
			return mErr
		}
		accessToken = access
		refreshToken = refresh
		as.publish(ctx, domain.SessionEvent{
			Type:     domain.SessionRefreshed,
			UserID:   users[0].ID,
			Identity: users[0].Identity(),
		})
		return nil
	}); err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func (as *authService) LogoutUser(ctx context.Context) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		return fmt.Errorf("%w: access token required", domain.ErrValidation)
	}
	rows, grErr := as.userTokenRepo.GetByAccessTokens(ctx, nil, []string{rd.TokenString})
	if grErr != nil {
		return fmt.Errorf("look up access token: %w", grErr)
	}
	if len(rows) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	if dErr := as.userTokenRepo.FullDeleteByIDs(ctx, nil, ids); dErr != nil {
		return fmt.Errorf("delete user tokens: %w", dErr)
	}
	as.publish(ctx, domain.SessionEvent{Type: domain.SessionSignedOut, UserID: rows[0].UserID})
	return nil
}

// SetContextFromToken verifies the bearer token and attaches the caller's
// request data. The token must both carry a valid signature and still exist
// as a live row, so revoked sessions fail even before expiry.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	claims := jwt.MapClaims{}
	token, pErr := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if pErr != nil || !token.Valid {
		return ctx, fmt.Errorf("invalid token: %w", pErr)
	}

	sub, sErr := claims.GetSubject()
	if sErr != nil {
		return ctx, fmt.Errorf("token missing subject: %w", sErr)
	}
	userID, uErr := uuid.Parse(sub)
	if uErr != nil {
		return ctx, fmt.Errorf("token subject is not a user id: %w", uErr)
	}

	rows, grErr := as.userTokenRepo.GetByAccessTokens(ctx, nil, []string{tokenString})
	if grErr != nil {
		return ctx, fmt.Errorf("look up access token: %w", grErr)
	}
	if len(rows) == 0 {
		return ctx, fmt.Errorf("token revoked")
	}

	return requestdata.WithRequestData(ctx, &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      userID,
	}), nil
}

func (as *authService) GetAccessTTL() time.Duration { return as.accessTTL }

// SendEmailLink issues a one-time login token and hands it to the mailer.
// Unknown addresses get the same nil response as known ones.
func (as *authService) SendEmailLink(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: valid email required", domain.ErrValidation)
	}

	users, usErr := as.userRepo.GetByEmails(ctx, nil, []string{email})
	if usErr != nil {
		return fmt.Errorf("retrieve user by email: %w", usErr)
	}
	if len(users) == 0 {
		as.log.Debug("email link requested for unknown address", "email", email)
		return nil
	}

	token, tErr := randomToken()
	if tErr != nil {
		return fmt.Errorf("generate login token: %w", tErr)
	}
	lt := &domain.LoginToken{
		ID:        uuid.New(),
		Email:     email,
		Token:     token,
		ExpiresAt: time.Now().Add(loginTokenTTL),
	}
	if cErr := as.userTokenRepo.CreateLoginToken(ctx, nil, lt); cErr != nil {
		return fmt.Errorf("store login token: %w", cErr)
	}
	return as.mailer.SendLoginLink(ctx, email, token)
}

func (as *authService) CompleteEmailLink(ctx context.Context, token string) (string, string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", "", fmt.Errorf("%w: token required", domain.ErrValidation)
	}

	var accessToken, refreshToken string
	if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lt, cErr := as.userTokenRepo.ConsumeLoginToken(ctx, tx, token, time.Now())
		if cErr != nil {
			return fmt.Errorf("invalid or expired login token")
		}
		users, usErr := as.userRepo.GetByEmails(ctx, tx, []string{lt.Email})
		if usErr != nil || len(users) == 0 {
			return fmt.Errorf("resolve login token owner: %w", usErr)
		}
		access, refresh, mErr := as.mintTokenPair(ctx, tx, users[0])
		if mErr != nil {
			return mErr
		}
		accessToken = access
		refreshToken = refresh
		as.publish(ctx, domain.SessionEvent{
			Type:     domain.SessionSignedIn,
			UserID:   users[0].ID,
			Identity: users[0].Identity(),
		})
		return nil
	}); err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func (as *authService) OAuthSignInURL(state string) string {
	if as.oauthConfig == nil {
		return ""
	}
	return as.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// CompleteOAuth exchanges the provider code, pulls the profile, and signs the
// user in, creating the account on first contact.
func (as *authService) CompleteOAuth(ctx context.Context, code string) (string, string, error) {
	if as.oauthConfig == nil {
		return "", "", fmt.Errorf("oauth not configured")
	}
	if strings.TrimSpace(code) == "" {
		return "", "", fmt.Errorf("%w: code required", domain.ErrValidation)
	}

	tok, exErr := as.oauthConfig.Exchange(ctx, code)
	if exErr != nil {
		return "", "", fmt.Errorf("exchange oauth code: %w", exErr)
	}

	client := as.oauthConfig.Client(ctx, tok)
	resp, piErr := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if piErr != nil {
		return "", "", fmt.Errorf("fetch oauth profile: %w", piErr)
	}
	defer resp.Body.Close()
	var profile struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if dErr := json.NewDecoder(resp.Body).Decode(&profile); dErr != nil {
		return "", "", fmt.Errorf("decode oauth profile: %w", dErr)
	}
	email := strings.ToLower(strings.TrimSpace(profile.Email))
	if email == "" {
		return "", "", fmt.Errorf("oauth profile missing email")
	}

	users, usErr := as.userRepo.GetByEmails(ctx, nil, []string{email})
	if usErr != nil {
		return "", "", fmt.Errorf("retrieve user by email: %w", usErr)
	}
	var user *domain.User
	if len(users) > 0 {
		user = users[0]
	} else {
		user = &domain.User{
			ID:        uuid.New(),
			Email:     email,
			Name:      profile.Name,
			AvatarURL: profile.Picture,
		}
		if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			_, ucErr := as.userRepo.Create(ctx, tx, []*domain.User{user})
			return ucErr
		}); err != nil {
			return "", "", fmt.Errorf("create oauth user: %w", err)
		}
	}

	return as.issueTokens(ctx, user)
}

// GetCurrentSession resolves the caller's identity from the request data
// already attached by token verification.
func (as *authService) GetCurrentSession(ctx context.Context) (*domain.Identity, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, nil
	}
	users, usErr := as.userRepo.GetByIDs(ctx, nil, []uuid.UUID{rd.UserID})
	if usErr != nil {
		return nil, fmt.Errorf("resolve session user: %w", usErr)
	}
	if len(users) == 0 {
		return nil, nil
	}
	return users[0].Identity(), nil
}

func (as *authService) OnSessionChange(fn func(ev domain.SessionEvent)) workspace.Subscription {
	return as.hub.Subscribe(fn)
}

func (as *authService) SignOut(ctx context.Context) error {
	return as.LogoutUser(ctx)
}

func (as *authService) issueTokens(ctx context.Context, user *domain.User) (string, string, error) {
	var accessToken, refreshToken string
	if err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		access, refresh, mErr := as.mintTokenPair(ctx, tx, user)
		if mErr != nil {
			return mErr
		}
		accessToken = access
		refreshToken = refresh
		return nil
	}); err != nil {
		return "", "", err
	}
	as.publish(ctx, domain.SessionEvent{
		Type:     domain.SessionSignedIn,
		UserID:   user.ID,
		Identity: user.Identity(),
	})
	return accessToken, refreshToken, nil
}

func (as *authService) mintTokenPair(ctx context.Context, tx *gorm.DB, user *domain.User) (string, string, error) {
	accessToken, genErr := as.generateAccessToken(user)
	if genErr != nil {
		return "", "", fmt.Errorf("generate access token: %w", genErr)
	}
	refreshToken := uuid.New().String()
	userToken := &domain.UserToken{
		ID:           uuid.New(),
		UserID:       user.ID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(as.refreshTTL),
	}
	if _, ctErr := as.userTokenRepo.Create(ctx, tx, []*domain.UserToken{userToken}); ctErr != nil {
		return "", "", fmt.Errorf("store user token: %w", ctErr)
	}
	return accessToken, refreshToken, nil
}

func (as *authService) generateAccessToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": user.ID.String(),
		"iat": now.Unix(),
		"exp": now.Add(as.accessTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) publish(ctx context.Context, ev domain.SessionEvent) {
	if as.hub != nil {
		as.hub.Publish(ev)
	}
	if as.bus != nil {
		if err := as.bus.Publish(ctx, ev); err != nil {
			as.log.Warn("session event bus publish failed", "error", err)
		}
	}
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
