package patient

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mediq/mediq/internal/platform/api"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/patients", h.List)
	g.POST("/patients", h.Create)
	g.GET("/patients/:id", h.Get)
	g.PUT("/patients/:id", h.Update)
	g.DELETE("/patients/:id", h.Delete)
}

type createRequest struct {
	PatientCode   string `json:"patientCode"`
	Name          string `json:"name"`
	NameKana      string `json:"nameKana"`
	VoiceTemplate string `json:"voiceTemplate"`
	PrintTemplate string `json:"printTemplate"`
}

type updateRequest struct {
	PatientCode   *string `json:"patientCode"`
	Name          *string `json:"name"`
	NameKana      *string `json:"nameKana"`
	VoiceTemplate *string `json:"voiceTemplate"`
	PrintTemplate *string `json:"printTemplate"`
}

func (h *Handler) List(c echo.Context) error {
	out, err := h.svc.List(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, out)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return api.Fail(c, err)
	}
	out, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, out)
}

func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return api.Fail(c, api.Validation("リクエストの形式が正しくありません"))
	}
	out, err := h.svc.Create(c.Request().Context(), CreateInput{
		PatientCode:   req.PatientCode,
		Name:          req.Name,
		NameKana:      req.NameKana,
		VoiceTemplate: req.VoiceTemplate,
		PrintTemplate: req.PrintTemplate,
	})
	if err != nil {
		return api.Fail(c, err)
	}
	return api.Created(c, out)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return api.Fail(c, err)
	}
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return api.Fail(c, api.Validation("リクエストの形式が正しくありません"))
	}
	out, err := h.svc.Update(c.Request().Context(), id, UpdateInput{
		PatientCode:   req.PatientCode,
		Name:          req.Name,
		NameKana:      req.NameKana,
		VoiceTemplate: req.VoiceTemplate,
		PrintTemplate: req.PrintTemplate,
	})
	if err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, out)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return api.Fail(c, err)
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, echo.Map{"deleted": true})
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, api.Validation("IDの形式が正しくありません")
	}
	return id, nil
}
