package reception

import (
	"github.com/labstack/echo/v4"

	"github.com/mediq/mediq/internal/platform/api"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the kiosk endpoint. It is public: the kiosk has
// no session.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/reception/checkin", h.CheckIn)
}

type checkinRequest struct {
	PatientCode string `json:"patientCode"`
}

func (h *Handler) CheckIn(c echo.Context) error {
	var req checkinRequest
	if err := c.Bind(&req); err != nil {
		return api.Fail(c, api.Validation("リクエストの形式が正しくありません"))
	}
	out, err := h.svc.CheckIn(c.Request().Context(), req.PatientCode)
	if err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, out)
}
