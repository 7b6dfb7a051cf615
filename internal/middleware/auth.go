package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"catatuang/api/internal/config"
	"catatuang/api/internal/models"
	"catatuang/api/internal/repository"
	"catatuang/api/internal/security"
	"catatuang/api/internal/session"
)

const (
	ContextSession = "current_session"
	ContextAccount = "current_account"
	ContextClaims  = "access_claims"
)

// Auth resolves the bearer token to a live session. "Never logged in"
// (missing_token) and "was logged in, session gone or timed out"
// (session_expired) are distinct responses; the client reacts
// differently to each.
func Auth(cfg *config.AppConfig, accounts *repository.AccountRepository, sessions *repository.SessionRepository, manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := security.ParseAccessToken(tokenStr, cfg.Security.JWTSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}

		sess, err := sessions.GetByID(c.Request.Context(), claims.SessionID)
		if err != nil {
			// Valid token for a session that no longer exists: it was
			// replaced, logged out, or reclaimed after expiry.
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session_expired"})
			return
		}

		if sess.AccountID != claims.AccountID {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session_mismatch"})
			return
		}

		if !manager.Validate(c.Request.Context(), sess) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session_expired"})
			return
		}

		account, err := accounts.GetByID(c.Request.Context(), claims.AccountID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account_not_found"})
			return
		}

		if account.Status != models.AccountStatusActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account_inactive"})
			return
		}

		c.Set(ContextClaims, *claims)
		c.Set(ContextSession, sess)
		c.Set(ContextAccount, account)

		c.Next()
	}
}

// CurrentSession returns the session installed by Auth.
func CurrentSession(c *gin.Context) (models.Session, bool) {
	val, exists := c.Get(ContextSession)
	if !exists {
		return models.Session{}, false
	}
	sess, ok := val.(models.Session)
	return sess, ok
}

// CurrentAccount returns the account installed by Auth.
func CurrentAccount(c *gin.Context) (models.Account, bool) {
	val, exists := c.Get(ContextAccount)
	if !exists {
		return models.Account{}, false
	}
	account, ok := val.(models.Account)
	return account, ok
}
