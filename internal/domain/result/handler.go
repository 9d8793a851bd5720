package result

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/introspect-health/introspect/internal/platform/auth"
	"github.com/introspect-health/introspect/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the test-result endpoints. The analyze routes
// run inference and may take longer than a typical request; extra
// middleware such as a timeout can be attached via analyzeMw.
func (h *Handler) RegisterRoutes(api *echo.Group, analyzeMw ...echo.MiddlewareFunc) {
	g := api.Group("", auth.RequireRole("health_worker", "supervisor"))
	g.POST("/results/analyze", h.Analyze, analyzeMw...)
	g.POST("/results/capture-and-analyze", h.CaptureAndAnalyze, analyzeMw...)
	g.GET("/results", h.List)
	g.GET("/results/pending-sync", h.PendingSync)
	g.GET("/results/:id", h.Get)
	g.PUT("/results/:id", h.Update)
	g.POST("/results/:id/sync", h.MarkSynced)
	g.POST("/results/:id/confirm", h.Confirm)
}

type analysisResponse struct {
	TestResultID     uuid.UUID `json:"test_result_id"`
	Result           string    `json:"result"`
	ConfidenceScore  float64   `json:"confidence_score"`
	ProcessingTimeMs float64   `json:"processing_time_ms"`
	Message          string    `json:"message"`
	ImagePath        string    `json:"image_path"`
}

func newAnalysisResponse(t *TestResult, message string) analysisResponse {
	resp := analysisResponse{
		TestResultID: t.ID,
		Result:       t.Result,
		Message:      message,
		ImagePath:    t.ImagePath,
	}
	if t.ConfidenceScore != nil {
		resp.ConfidenceScore = *t.ConfidenceScore
	}
	if t.ProcessingTimeMs != nil {
		resp.ProcessingTimeMs = *t.ProcessingTimeMs
	}
	return resp
}

func optionalForm(c echo.Context, name string) *string {
	v := c.FormValue(name)
	if v == "" {
		return nil
	}
	return &v
}

func bindCreateRequest(c echo.Context) (CreateRequest, error) {
	patientID, err := uuid.Parse(c.FormValue("patient_id"))
	if err != nil {
		return CreateRequest{}, echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
	}
	clinicID, err := uuid.Parse(c.FormValue("clinic_id"))
	if err != nil {
		return CreateRequest{}, echo.NewHTTPError(http.StatusBadRequest, "invalid clinic_id")
	}
	return CreateRequest{
		PatientID: patientID,
		ClinicID:  clinicID,
		Notes:     optionalForm(c, "notes"),
		Symptoms:  optionalForm(c, "symptoms"),
	}, nil
}

func mapCreateError(err error) error {
	switch {
	case errors.Is(err, ErrPatientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	case errors.Is(err, ErrClinicNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "clinic not found")
	}
	var ce *CreationError
	if errors.As(err, &ce) {
		return echo.NewHTTPError(http.StatusInternalServerError, ce.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func (h *Handler) Analyze(c echo.Context) error {
	req, err := bindCreateRequest(c)
	if err != nil {
		return err
	}
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "image file is required")
	}
	f, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read image file")
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read image file")
	}

	actor := auth.UserIDFromContext(c.Request().Context())
	t, err := h.svc.AnalyzeAndCreate(c.Request().Context(), actor, req, content, fileHeader.Filename)
	if err != nil {
		return mapCreateError(err)
	}
	return c.JSON(http.StatusCreated, newAnalysisResponse(t, "Analysis completed successfully"))
}

func (h *Handler) CaptureAndAnalyze(c echo.Context) error {
	req, err := bindCreateRequest(c)
	if err != nil {
		return err
	}
	actor := auth.UserIDFromContext(c.Request().Context())
	t, err := h.svc.CaptureAndCreate(c.Request().Context(), actor, req)
	if err != nil {
		return mapCreateError(err)
	}
	return c.JSON(http.StatusCreated, newAnalysisResponse(t, "Image captured and analyzed successfully"))
}

func (h *Handler) List(c echo.Context) error {
	var f Filter
	if raw := c.QueryParam("clinic_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid clinic_id")
		}
		f.ClinicID = id
	}
	if raw := c.QueryParam("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		f.PatientID = id
	}
	if raw := c.QueryParam("status"); raw != "" {
		if !validStatuses[raw] {
			return echo.NewHTTPError(http.StatusBadRequest, "status must be one of positive, negative, inconclusive")
		}
		f.Status = raw
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) PendingSync(c echo.Context) error {
	items, err := h.svc.PendingSync(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*TestResult{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	t, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "test result "+id.String()+" not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var upd Update
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t, err := h.svc.Update(c.Request().Context(), id, upd)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "test result "+id.String()+" not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) MarkSynced(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	t, err := h.svc.MarkSynced(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "test result "+id.String()+" not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, t)
}

type confirmRequest struct {
	ConfirmedResult   string  `json:"confirmed_result"`
	ConfirmationNotes *string `json:"confirmation_notes,omitempty"`
}

type confirmResponse struct {
	TestResultID uuid.UUID `json:"test_result_id"`
	IsConfirmed  bool      `json:"is_confirmed"`
	ConfirmedBy  uuid.UUID `json:"confirmed_by"`
	ConfirmedAt  time.Time `json:"confirmed_at"`
	Message      string    `json:"message"`
}

func (h *Handler) Confirm(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req confirmRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actor := auth.UserIDFromContext(c.Request().Context())
	t, err := h.svc.Confirm(c.Request().Context(), id, req.ConfirmedResult, req.ConfirmationNotes, actor)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "test result "+id.String()+" not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, confirmResponse{
		TestResultID: t.ID,
		IsConfirmed:  t.IsConfirmed,
		ConfirmedBy:  *t.ConfirmedBy,
		ConfirmedAt:  *t.ConfirmedAt,
		Message:      "Test result confirmed",
	})
}
