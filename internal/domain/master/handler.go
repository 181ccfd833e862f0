package master

import (
	"context"

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

// RegisterRoutes mounts the reference-data CRUD on the admin group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/masters", h.GetMasters)

	registerNamed(g, "/departments", namedOps{
		list:   h.svc.ListDepartments,
		get:    h.svc.GetDepartment,
		create: h.svc.CreateDepartment,
		update: h.svc.UpdateDepartment,
		delete: h.svc.DeleteDepartment,
	})
	registerNamed(g, "/waiting-areas", namedOps{
		list:   h.svc.ListWaitingAreas,
		get:    h.svc.GetWaitingArea,
		create: h.svc.CreateWaitingArea,
		update: h.svc.UpdateWaitingArea,
		delete: h.svc.DeleteWaitingArea,
	})
	registerNamed(g, "/examinations", namedOps{
		list:   h.svc.ListExaminations,
		get:    h.svc.GetExamination,
		create: h.svc.CreateExamination,
		update: h.svc.UpdateExamination,
		delete: h.svc.DeleteExamination,
	})

	g.GET("/doctors", h.ListDoctors)
	g.POST("/doctors", h.CreateDoctor)
	g.GET("/doctors/:id", h.GetDoctor)
	g.PUT("/doctors/:id", h.UpdateDoctor)
	g.DELETE("/doctors/:id", h.DeleteDoctor)
}

type namedRequest struct {
	Name *string `json:"name"`
}

type namedOps struct {
	list   func(ctx context.Context) ([]*NamedEntity, error)
	get    func(ctx context.Context, id uuid.UUID) (*NamedEntity, error)
	create func(ctx context.Context, name string) (*NamedEntity, error)
	update func(ctx context.Context, id uuid.UUID, name *string) (*NamedEntity, error)
	delete func(ctx context.Context, id uuid.UUID) error
}

func registerNamed(g *echo.Group, prefix string, ops namedOps) {
	g.GET(prefix, func(c echo.Context) error {
		out, err := ops.list(c.Request().Context())
		if err != nil {
			return api.Fail(c, err)
		}
		return api.OK(c, out)
	})

	g.POST(prefix, func(c echo.Context) error {
		var req namedRequest
		if err := c.Bind(&req); err != nil {
			return api.Fail(c, api.Validation("リクエストの形式が正しくありません"))
		}
		name := ""
		if req.Name != nil {
			name = *req.Name
		}
		out, err := ops.create(c.Request().Context(), name)
		if err != nil {
			return api.Fail(c, err)
		}
		return api.Created(c, out)
	})

	g.GET(prefix+"/:id", func(c echo.Context) error {
		id, err := parseID(c)
		if err != nil {
			return api.Fail(c, err)
		}
		out, err := ops.get(c.Request().Context(), id)
		if err != nil {
			return api.Fail(c, err)
		}
		return api.OK(c, out)
	})

	g.PUT(prefix+"/:id", func(c echo.Context) error {
		id, err := parseID(c)
		if err != nil {
			return api.Fail(c, err)
		}
		var req namedRequest
		if err := c.Bind(&req); err != nil {
			return api.Fail(c, api.Validation("リクエストの形式が正しくありません"))
		}
		out, err := ops.update(c.Request().Context(), id, req.Name)
		if err != nil {
			return api.Fail(c, err)
		}
		return api.OK(c, out)
	})

	g.DELETE(prefix+"/:id", func(c echo.Context) error {
		id, err := parseID(c)
		if err != nil {
			return api.Fail(c, err)
		}
		if err := ops.delete(c.Request().Context(), id); err != nil {
			return api.Fail(c, err)
		}
		return api.OK(c, echo.Map{"deleted": true})
	})
}

type doctorRequest struct {
	Name         *string `json:"name"`
	DepartmentID *string `json:"departmentId"`
}

func (h *Handler) ListDoctors(c echo.Context) error {
	out, err := h.svc.ListDoctors(c.Request().Context())
	if err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, out)
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return api.Fail(c, err)
	}
	out, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, out)
}

func (h *Handler) CreateDoctor(c echo.Context) error {
	var req doctorRequest
	if err := c.Bind(&req); err != nil {
		return api.Fail(c, api.Validation("リクエストの形式が正しくありません"))
	}
	name := ""
	if req.Name != nil {
		name = *req.Name
	}
	departmentID := uuid.Nil
	if req.DepartmentID != nil {
		parsed, err := uuid.Parse(*req.DepartmentID)
		if err != nil {
			return api.Fail(c, api.Validation("診療科IDの形式が正しくありません"))
		}
		departmentID = parsed
	}
	out, err := h.svc.CreateDoctor(c.Request().Context(), name, departmentID)
	if err != nil {
		return api.Fail(c, err)
	}
	return api.Created(c, out)
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return api.Fail(c, err)
	}
	var req doctorRequest
	if err := c.Bind(&req); err != nil {
		return api.Fail(c, api.Validation("リクエストの形式が正しくありません"))
	}
	var departmentID *uuid.UUID
	if req.DepartmentID != nil {
		parsed, err := uuid.Parse(*req.DepartmentID)
		if err != nil {
			return api.Fail(c, api.Validation("診療科IDの形式が正しくありません"))
		}
		departmentID = &parsed
	}
	out, err := h.svc.UpdateDoctor(c.Request().Context(), id, req.Name, departmentID)
	if err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, out)
}

func (h *Handler) DeleteDoctor(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return api.Fail(c, err)
	}
	if err := h.svc.DeleteDoctor(c.Request().Context(), id); err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, echo.Map{"deleted": true})
}

func (h *Handler) GetMasters(c echo.Context) error {
	out, err := h.svc.Masters(c.Request().Context())
	if err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, out)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, api.Validation("IDの形式が正しくありません")
	}
	return id, nil
}
