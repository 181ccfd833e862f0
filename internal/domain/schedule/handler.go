package schedule

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
	g.GET("/schedules", h.List)
	g.POST("/schedules", h.Create)
	g.GET("/schedules/:id", h.Get)
	g.PUT("/schedules/:id", h.Update)
	g.DELETE("/schedules/:id", h.Delete)
}

type createRequest struct {
	PatientID      string   `json:"patientId"`
	VisitDate      string   `json:"visitDate"`
	StartTime      string   `json:"startTime"`
	EndTime        string   `json:"endTime"`
	DepartmentID   string   `json:"departmentId"`
	DoctorID       string   `json:"doctorId"`
	WaitingAreaID  string   `json:"waitingAreaId"`
	Note           string   `json:"note"`
	ExaminationIDs []string `json:"examinationIds"`
}

type updateRequest struct {
	PatientID      *string   `json:"patientId"`
	VisitDate      *string   `json:"visitDate"`
	StartTime      *string   `json:"startTime"`
	EndTime        *string   `json:"endTime"`
	DepartmentID   *string   `json:"departmentId"`
	DoctorID       *string   `json:"doctorId"`
	WaitingAreaID  *string   `json:"waitingAreaId"`
	Note           *string   `json:"note"`
	Status         *string   `json:"status"`
	ExaminationIDs *[]string `json:"examinationIds"`
}

func (h *Handler) List(c echo.Context) error {
	f := Filter{
		StartDate: c.QueryParam("startDate"),
		EndDate:   c.QueryParam("endDate"),
		Status:    c.QueryParam("status"),
	}
	for _, bind := range []struct {
		param string
		dst   *uuid.UUID
	}{
		{"patientId", &f.PatientID},
		{"departmentId", &f.DepartmentID},
		{"doctorId", &f.DoctorID},
	} {
		raw := c.QueryParam(bind.param)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return api.Fail(c, api.Validation("IDの形式が正しくありません"))
		}
		*bind.dst = id
	}

	out, err := h.svc.List(c.Request().Context(), f)
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

	in := CreateInput{
		VisitDate: req.VisitDate,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Note:      req.Note,
	}
	for _, bind := range []struct {
		raw string
		dst *uuid.UUID
	}{
		{req.PatientID, &in.PatientID},
		{req.DepartmentID, &in.DepartmentID},
		{req.DoctorID, &in.DoctorID},
		{req.WaitingAreaID, &in.WaitingAreaID},
	} {
		if bind.raw == "" {
			continue
		}
		id, err := uuid.Parse(bind.raw)
		if err != nil {
			return api.Fail(c, api.Validation("IDの形式が正しくありません"))
		}
		*bind.dst = id
	}
	examIDs, err := parseUUIDs(req.ExaminationIDs)
	if err != nil {
		return api.Fail(c, err)
	}
	in.ExaminationIDs = examIDs

	out, err := h.svc.Create(c.Request().Context(), in)
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

	in := UpdateInput{
		VisitDate: req.VisitDate,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Note:      req.Note,
		Status:    req.Status,
	}
	for _, bind := range []struct {
		raw *string
		dst **uuid.UUID
	}{
		{req.PatientID, &in.PatientID},
		{req.DepartmentID, &in.DepartmentID},
		{req.DoctorID, &in.DoctorID},
		{req.WaitingAreaID, &in.WaitingAreaID},
	} {
		if bind.raw == nil {
			continue
		}
		parsed, err := uuid.Parse(*bind.raw)
		if err != nil {
			return api.Fail(c, api.Validation("IDの形式が正しくありません"))
		}
		*bind.dst = &parsed
	}
	if req.ExaminationIDs != nil {
		examIDs, err := parseUUIDs(*req.ExaminationIDs)
		if err != nil {
			return api.Fail(c, err)
		}
		in.ExaminationIDs = &examIDs
	}

	out, err := h.svc.Update(c.Request().Context(), id, in)
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

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, api.Validation("検査IDの形式が正しくありません")
		}
		out = append(out, id)
	}
	return out, nil
}
