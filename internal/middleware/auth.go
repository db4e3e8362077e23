package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mateuscastro5/gym-api/internal/account"
	"github.com/mateuscastro5/gym-api/internal/audit"
	"github.com/mateuscastro5/gym-api/internal/models"
	"github.com/mateuscastro5/gym-api/internal/util"

	"github.com/gin-gonic/gin"
)

const (
	// TokenCookie is the cookie a browser session may carry the token in.
	TokenCookie = "gym_token"

	currentAccountKey = "currentAccount"
)

// TokenVerifier checks a session token.
type TokenVerifier interface {
	Verify(token string) (*util.Claims, error)
}

// AccountLoader returns the live account behind a session, failing unless it
// is ACTIVE.
type AccountLoader interface {
	Current(ctx context.Context, accountID uint) (*account.Summary, error)
}

func tokenFrom(c *gin.Context) string {
	// Authorization: Bearer xxx
	if h := c.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	// ?token=xxx for downloads that cannot set headers
	if t := c.Query("token"); t != "" {
		return t
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie
	}
	return ""
}

// AuthMiddleware verifies the session token, reloads the account and stores
// it in the context. Rejections are audited as AUTH_FAILED.
func AuthMiddleware(tokens TokenVerifier, accounts AccountLoader, rec audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		deny := func(accountID *uint, detail, msg string) {
			rec.Record(ctx, audit.Event{
				AccountID: accountID,
				Action:    audit.ActionAuthFailed,
				Resource:  audit.ResourceAccounts,
				Outcome:   models.OutcomeError,
				Detail:    detail + ". Path: " + c.Request.URL.Path,
			})
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, msg)
			c.Abort()
		}

		tokenStr := tokenFrom(c)
		if tokenStr == "" {
			deny(nil, "Missing token", "authentication required")
			return
		}

		claims, err := tokens.Verify(tokenStr)
		if err != nil {
			deny(nil, "Invalid or expired token", "invalid or expired token")
			return
		}

		acc, err := accounts.Current(ctx, claims.AccountID)
		switch {
		case err == nil:
		case errors.Is(err, account.ErrNotFound):
			deny(&claims.AccountID, "Account not found", "invalid or expired token")
			return
		case errors.Is(err, account.ErrAccountLocked), errors.Is(err, account.ErrAccountInactive):
			deny(&claims.AccountID, "Account not active: "+err.Error(), err.Error())
			return
		default:
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load account")
			c.Abort()
			return
		}

		c.Set(currentAccountKey, acc)
		c.Next()
	}
}

// CurrentAccount returns the account stored by AuthMiddleware.
func CurrentAccount(c *gin.Context) (*account.Summary, bool) {
	v, ok := c.Get(currentAccountKey)
	if !ok {
		return nil, false
	}
	acc, ok := v.(*account.Summary)
	return acc, ok && acc != nil
}

// RequireLevel rejects accounts below min with 403. It must run after
// AuthMiddleware.
func RequireLevel(min models.AccessLevel, rec audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		acc, ok := CurrentAccount(c)
		if !ok {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "authentication required")
			c.Abort()
			return
		}
		if acc.AccessLevel < min {
			rec.Record(c.Request.Context(), audit.Event{
				AccountID: &acc.ID,
				Action:    audit.ActionAccessDenied,
				Resource:  audit.ResourceAccounts,
				Outcome:   models.OutcomeError,
				Detail: fmt.Sprintf("Required level %d, current %d. Path: %s",
					min, acc.AccessLevel, c.Request.URL.Path),
			})
			util.Error(c, http.StatusForbidden, util.CodeForbidden, "insufficient access level")
			c.Abort()
			return
		}
		c.Next()
	}
}
