package controllers

import (
	"errors"
	"net/http"

	"dream100/prospect-intel-worker/internal/dto"
	"dream100/prospect-intel-worker/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CallbackController receives document links from the workflow engine
type CallbackController struct {
	coordinator *services.Coordinator
	logger      *zap.Logger
}

// NewCallbackController creates a new CallbackController instance
func NewCallbackController(coordinator *services.Coordinator) *CallbackController {
	return &CallbackController{
		coordinator: coordinator,
		logger:      zap.L().Named("CallbackController"),
	}
}

// Callback godoc
// @Summary      Workflow engine callback
// @Description  Records the document links for a job or batch member. Replays are acknowledged as duplicates.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        Authorization header string              false "Bearer token with the callback secret, when one is configured"
// @Param        payload       body   dto.CallbackRequest true  "Document links"
// @Success      200 {object} dto.CallbackResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      401 {object} dto.ErrorResponse
// @Router       /callback [post]
func (ctrl *CallbackController) Callback(c *gin.Context) {
	var req dto.CallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.logger.Warn("invalid callback payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "No job_id provided"})
		return
	}

	outcome, err := ctrl.coordinator.HandleCallback(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrUnknownJob) || errors.Is(err, services.ErrValidation) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: services.PublicMessage(err)})
			return
		}
		ctrl.logger.Error("callback failed", zap.String("job_id", req.JobID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to record callback"})
		return
	}

	resp := dto.CallbackResponse{Success: true, JobID: req.JobID, Status: outcome}
	switch outcome {
	case services.CallbackDuplicate:
		resp.Message = "Callback already recorded"
	case services.CallbackIgnored:
		resp.Message = "Callback does not match a pending job"
	default:
		resp.Message = "Callback recorded"
	}
	c.JSON(http.StatusOK, resp)
}
