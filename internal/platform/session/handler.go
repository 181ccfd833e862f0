package session

import (
	"github.com/labstack/echo/v4"

	"github.com/mediq/mediq/internal/platform/api"
)

type Handler struct {
	svc           *Service
	secureCookies bool
}

func NewHandler(svc *Service, secureCookies bool) *Handler {
	return &Handler{svc: svc, secureCookies: secureCookies}
}

// RegisterRoutes mounts the auth endpoints. Login and logout are public;
// session lookup and password change require a valid session.
func (h *Handler) RegisterRoutes(g *echo.Group, guard echo.MiddlewareFunc) {
	g.POST("/auth/session", h.Login)
	g.POST("/auth/logout", h.Logout)
	g.GET("/auth/session", h.GetSession, guard)
	g.PUT("/auth/password", h.ChangePassword, guard)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type accountResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return api.Fail(c, api.Validation("リクエストの形式が正しくありません"))
	}

	token, account, err := h.svc.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return api.Fail(c, err)
	}

	c.SetCookie(NewCookie(token, h.secureCookies))
	return api.OK(c, accountResponse{ID: account.ID.String(), Username: account.Username})
}

func (h *Handler) Logout(c echo.Context) error {
	c.SetCookie(ExpiredCookie(h.secureCookies))
	return api.OK(c, nil)
}

func (h *Handler) GetSession(c echo.Context) error {
	accountID, _ := c.Get("account_id").(string)

	account, err := h.svc.Current(c.Request().Context(), accountID)
	if err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, accountResponse{ID: account.ID.String(), Username: account.Username})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *Handler) ChangePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return api.Fail(c, api.Validation("リクエストの形式が正しくありません"))
	}

	accountID, _ := c.Get("account_id").(string)
	if err := h.svc.ChangePassword(c.Request().Context(), accountID, req.CurrentPassword, req.NewPassword); err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, nil)
}
