package controllers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"dream100/prospect-intel-worker/internal/dto"
	"dream100/prospect-intel-worker/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	callbackPath   = "/api/callback"
	statusPath     = "/api/status/"
	maxSubmitBytes = 10 << 20
)

// ProspectController accepts submissions and reports job status
type ProspectController struct {
	coordinator *services.Coordinator
	publicURL   string
	logger      *zap.Logger
}

// NewProspectController creates a new ProspectController instance.
// publicURL overrides the callback base derived from the incoming request.
func NewProspectController(coordinator *services.Coordinator, publicURL string) *ProspectController {
	return &ProspectController{
		coordinator: coordinator,
		publicURL:   strings.TrimRight(strings.TrimSpace(publicURL), "/"),
		logger:      zap.L().Named("ProspectController"),
	}
}

// Submit godoc
// @Summary      Submit prospects for processing
// @Description  Accepts a single prospect record or {"items": [...]}. Processing runs in the background; poll the returned status URL.
// @Tags         prospects
// @Accept       json
// @Produce      json
// @Param        mode    query  string              false  "Processing mode (test or prod)"
// @Param        request body   dto.SubmitEnvelope  true   "Prospect record or batch envelope"
// @Success      202 {object} dto.SubmitResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /submit [post]
func (ctrl *ProspectController) Submit(c *gin.Context) {
	ctrl.submit(c, c.Query("mode"))
}

// Process godoc
// @Summary      Submit prospects with the mode in the path
// @Tags         prospects
// @Accept       json
// @Produce      json
// @Param        mode    path   string              true  "Processing mode (test or prod)"
// @Param        request body   dto.SubmitEnvelope  true  "Prospect record or batch envelope"
// @Success      202 {object} dto.SubmitResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /process/{mode} [post]
func (ctrl *ProspectController) Process(c *gin.Context) {
	ctrl.submit(c, c.Param("mode"))
}

func (ctrl *ProspectController) submit(c *gin.Context, requestedMode string) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSubmitBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "failed to read request body"})
		return
	}

	sub, err := services.ParseSubmission(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: services.PublicMessage(err)})
		return
	}

	// A mode inside the body wins over the query or path
	if sub.Mode == "" {
		mode, ok := dto.ParseMode(requestedMode)
		if !ok {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid mode. Use 'test' or 'prod'"})
			return
		}
		sub.Mode = mode
	}
	sub.CallbackURL = ctrl.callbackURL(c)

	job, err := ctrl.coordinator.Submit(c.Request.Context(), sub)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: services.PublicMessage(err)})
			return
		}
		ctrl.logger.Error("submission failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: services.PublicMessage(err)})
		return
	}

	c.JSON(http.StatusAccepted, dto.SubmitResponse{
		Success:   true,
		JobID:     job.ID,
		IsBatch:   job.IsBatch,
		Total:     len(job.Prospects),
		Mode:      string(job.Mode),
		StatusURL: statusPath + job.ID,
		Message:   "Processing started",
	})
}

// callbackURL is where the workflow engine posts the document links
func (ctrl *ProspectController) callbackURL(c *gin.Context) string {
	if ctrl.publicURL != "" {
		return ctrl.publicURL + callbackPath
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme, _, _ = strings.Cut(proto, ",")
		scheme = strings.TrimSpace(scheme)
	}
	host := c.Request.Host
	if fwd := c.GetHeader("X-Forwarded-Host"); fwd != "" {
		host = fwd
	}
	return scheme + "://" + host + callbackPath
}

// Status godoc
// @Summary      Get job status
// @Description  Returns the current state of a submitted job, including per-member detail for batches
// @Tags         prospects
// @Produce      json
// @Param        job_id path string true "Job ID"
// @Success      200 {object} dto.StatusResponse
// @Failure      404 {object} dto.ErrorResponse
// @Router       /status/{job_id} [get]
func (ctrl *ProspectController) Status(c *gin.Context) {
	status, err := ctrl.coordinator.Status(c.Param("job_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Job not found"})
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{Success: true, Status: status})
}
