package waitlist

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the API on e. Middleware in m wraps only these
// routes, so unmatched paths never reach it.
func (h *Handler) RegisterRoutes(e *echo.Echo, m ...echo.MiddlewareFunc) {
	e.POST("/login", h.Login, m...)

	// Admin dashboard
	e.GET("/admin/patients", h.ListPatients, m...)
	e.POST("/admin/patients", h.AdmitPatient, m...)
	e.PUT("/admin/patients/assign", h.AssignCareTeam, m...)
	e.POST("/admin/patients/treated", h.MarkTreated, m...)

	// Patient-facing
	e.GET("/user/wait-time", h.GetWaitTime, m...)
}

// -- Admin Handlers --

type loginResponse struct {
	Status  string `json:"status"`
	Role    string `json:"role,omitempty"`
	Message string `json:"message,omitempty"`
}

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, loginResponse{Status: "fail", Message: "Username and password are required."})
	}
	res, err := h.svc.AuthenticateAdmin(c.Request().Context(), req)
	var verr *ValidationError
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, loginResponse{Status: "success", Role: res.Role})
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, loginResponse{Status: "fail", Message: "Username and password are required."})
	case errors.Is(err, ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, loginResponse{Status: "fail", Message: "Invalid credentials"})
	default:
		c.Set("error", err.Error())
		return c.JSON(http.StatusInternalServerError, loginResponse{Status: "error", Message: "Internal server error"})
	}
}

// -- Patient Handlers --

func (h *Handler) AdmitPatient(c echo.Context) error {
	var req AdmissionRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, err)
	}
	p, err := h.svc.AdmitPatient(c.Request().Context(), req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	items, err := h.svc.ListPatients(c.Request().Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) AssignCareTeam(c echo.Context) error {
	var req AssignmentRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, err)
	}
	p, err := h.svc.AssignCareTeam(c.Request().Context(), req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) MarkTreated(c echo.Context) error {
	var req TreatmentRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, err)
	}
	p, err := h.svc.MarkTreated(c.Request().Context(), string(req.PatientID))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetWaitTime(c echo.Context) error {
	id := c.QueryParam("patient_id")
	if id == "" {
		// Older patient pages send userId.
		id = c.QueryParam("userId")
	}
	est, err := h.svc.EstimateWaitTime(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, est)
}

// bindError answers a body the binder rejected. A field of the wrong JSON
// type is reported as a validation problem on that field, and 413 is kept when
// the body limit tripped while the binder was reading.
func bindError(c echo.Context, err error) error {
	for err != nil {
		var he *echo.HTTPError
		if !errors.As(err, &he) {
			break
		}
		if he.Code == http.StatusRequestEntityTooLarge {
			return he
		}
		err = he.Internal
	}
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) {
		field := ute.Field
		if field == "" {
			field = "body"
		}
		verr := &ValidationError{}
		verr.add(field, "has the wrong type")
		return errorResponse(c, verr)
	}
	return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
}

type validationResponse struct {
	Message string         `json:"message"`
	Fields  []FieldProblem `json:"fields"`
}

// errorResponse maps service errors onto HTTP. Storage faults are reported
// generically; the cause travels as the internal error for the request log.
func errorResponse(c echo.Context, err error) error {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, validationResponse{Message: "invalid input", Fields: verr.Problems})
	case errors.Is(err, ErrPatientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
}
