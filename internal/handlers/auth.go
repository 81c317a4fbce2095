package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docuchat/docuchat-backend/internal/requestdata"
	"github.com/docuchat/docuchat-backend/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (ah *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	user, err := ah.authService.RegisterUser(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		RespondError(c, statusFor(err), codeFor(err), err)
		return
	}
	RespondOK(c, gin.H{"user": user.Identity()})
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	accessToken, refreshToken, err := ah.authService.LoginUser(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	ah.respondTokens(c, accessToken, refreshToken)
}

func (ah *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh_token required"})
		return
	}
	ctx := requestdata.WithRequestData(c.Request.Context(), &requestdata.RequestData{
		RefreshToken: req.RefreshToken,
	})
	accessToken, refreshToken, err := ah.authService.RefreshUser(ctx)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	ah.respondTokens(c, accessToken, refreshToken)
}

func (ah *AuthHandler) Logout(c *gin.Context) {
	if err := ah.authService.LogoutUser(c.Request.Context()); err != nil {
		RespondError(c, statusFor(err), codeFor(err), err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}

// Session resolves the caller's identity. A missing or stale session is a
// plain signed-out answer, not an error.
func (ah *AuthHandler) Session(c *gin.Context) {
	identity, err := ah.authService.GetCurrentSession(c.Request.Context())
	if err != nil {
		RespondOK(c, gin.H{"signed_in": false})
		return
	}
	if identity == nil {
		RespondOK(c, gin.H{"signed_in": false})
		return
	}
	RespondOK(c, gin.H{"signed_in": true, "user": identity})
}

func (ah *AuthHandler) SendEmailLink(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := ah.authService.SendEmailLink(c.Request.Context(), req.Email); err != nil {
		RespondError(c, statusFor(err), codeFor(err), err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}

func (ah *AuthHandler) CompleteEmailLink(c *gin.Context) {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
		return
	}
	accessToken, refreshToken, err := ah.authService.CompleteEmailLink(c.Request.Context(), req.Token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	ah.respondTokens(c, accessToken, refreshToken)
}

func (ah *AuthHandler) OAuthStart(c *gin.Context) {
	url := ah.authService.OAuthSignInURL(c.Query("state"))
	if url == "" {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "oauth not configured"})
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, url)
}

func (ah *AuthHandler) OAuthCallback(c *gin.Context) {
	code := c.Query("code")
	accessToken, refreshToken, err := ah.authService.CompleteOAuth(c.Request.Context(), code)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	ah.respondTokens(c, accessToken, refreshToken)
}

func (ah *AuthHandler) respondTokens(c *gin.Context, accessToken, refreshToken string) {
	expiresIn := int(ah.authService.GetAccessTTL().Seconds())
	c.JSON(http.StatusOK, gin.H{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"expires_in":    expiresIn,
	})
}
