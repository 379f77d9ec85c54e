package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/schoolauth/internal/common"
	"github.com/gin-gonic/gin"
)

const (
	msgBadCredentials = "Incorrect username or password"
	msgUnavailable    = "Authentication service unavailable"
	msgInternal       = "Internal server error"
	msgThrottled      = "Too many login attempts"
	msgNotAuth        = "Not authenticated"
	msgLoggedOut      = "User has been logged out"
)

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Role        string `json:"role"`
	Name        string `json:"name"`
}

type meResponse struct {
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

func respondDetail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

func unauthorized(c *gin.Context, detail string) {
	c.Header("WWW-Authenticate", "Bearer")
	respondDetail(c, http.StatusUnauthorized, detail)
}

func (s *HTTPServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *HTTPServer) handleLogin(c *gin.Context) {
	ctx := c.Request.Context()

	session, err := s.auth.Login(ctx, c.Param("name"), c.Param("password"))
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorUnauthorized):
			unauthorized(c, msgBadCredentials)
		case errors.Is(err, common.ErrStoreUnavailable):
			respondDetail(c, http.StatusServiceUnavailable, msgUnavailable)
		case ctx.Err() != nil:
			respondDetail(c, http.StatusServiceUnavailable, msgUnavailable)
		default:
			s.logger.Error(ctx, "login failed", "error", err)
			respondDetail(c, http.StatusInternalServerError, msgInternal)
		}
		return
	}

	tok := session.Token
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     common.AccessTokenCookieName,
		Value:    tok.Value,
		Path:     "/",
		MaxAge:   int(tok.ExpiresAt.Sub(tok.IssuedAt).Seconds()),
		Expires:  tok.ExpiresAt.UTC(),
		HttpOnly: true,
		Secure:   s.cookie.Secure,
		SameSite: s.cookie.SameSite,
	})

	c.JSON(http.StatusOK, loginResponse{
		AccessToken: tok.Value,
		TokenType:   common.TokenTypeBearer,
		Role:        string(session.User.Role),
		Name:        session.User.UserName,
	})
}

// handleLogout always succeeds. The token itself stays valid until it
// expires; only the browser cookie is removed.
func (s *HTTPServer) handleLogout(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     common.AccessTokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookie.Secure,
		SameSite: s.cookie.SameSite,
	})
	c.JSON(http.StatusOK, gin.H{"message": msgLoggedOut})
}

func (s *HTTPServer) handleMe(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		unauthorized(c, msgNotAuth)
		return
	}

	claims, err := s.auth.Identify(c.Request.Context(), token)
	if err != nil {
		unauthorized(c, msgNotAuth)
		return
	}

	c.JSON(http.StatusOK, meResponse{
		Name:      claims.Subject,
		Role:      string(claims.Role),
		ExpiresAt: claims.ExpiresAt.UTC(),
	})
}

// bearerToken prefers the access_token cookie and falls back to an
// "Authorization: Bearer" header.
func bearerToken(c *gin.Context) string {
	if v, err := c.Cookie(common.AccessTokenCookieName); err == nil && v != "" {
		return v
	}
	scheme, value, ok := strings.Cut(c.GetHeader("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(value)
}
