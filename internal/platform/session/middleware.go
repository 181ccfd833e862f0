package session

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mediq/mediq/internal/platform/api"
)

// CookieName is the session cookie set on login.
const CookieName = "mediq_token"

// Middleware verifies the session cookie on each request. Valid sessions get
// the account ID and username stored on the echo context; anything else is
// rejected with a 401 envelope.
func Middleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				return api.Fail(c, api.Unauthorized("認証が必要です"))
			}

			claims, err := ParseToken(secret, cookie.Value)
			if err != nil {
				return api.Fail(c, api.Unauthorized("セッションが無効です"))
			}

			c.Set("account_id", claims.Subject)
			c.Set("username", claims.Username)

			return next(c)
		}
	}
}

// NewCookie builds the session cookie for a signed token. MaxAge matches the
// token TTL; secure toggles the Secure flag for production deployments.
func NewCookie(token string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ExpiredCookie returns a cookie that clears the session.
func ExpiredCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
