package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"dream100/prospect-intel-worker/internal/dto"
	"dream100/prospect-intel-worker/internal/handlers"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Forwarder posts raw payloads to the workflow engine
type Forwarder interface {
	Forward(ctx context.Context, mode dto.Mode, payload any) (*handlers.ForwardResult, error)
}

// ForwardController passes records straight through to the workflow engine
type ForwardController struct {
	forwarder Forwarder
	logger    *zap.Logger
}

// NewForwardController creates a new ForwardController instance
func NewForwardController(forwarder Forwarder) *ForwardController {
	return &ForwardController{
		forwarder: forwarder,
		logger:    zap.L().Named("ForwardController"),
	}
}

// Send godoc
// @Summary      Forward one record
// @Description  Posts an arbitrary JSON record to the forwarding webhook for the given mode
// @Tags         forward
// @Accept       json
// @Produce      json
// @Param        mode    path string true "Forwarding mode (test or prod)"
// @Param        payload body object true "Record to forward"
// @Success      200 {object} dto.ForwardResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ForwardResponse
// @Router       /send/{mode} [post]
func (ctrl *ForwardController) Send(c *gin.Context) {
	mode, ok := dto.ParseMode(c.Param("mode"))
	if !ok {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid mode. Use 'test' or 'prod'"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSubmitBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "failed to read request body"})
		return
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) || bytes.Equal(body, []byte("{}")) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "No data provided"})
		return
	}
	if !json.Valid(body) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "request body must be valid JSON"})
		return
	}

	ctrl.forward(c, mode, json.RawMessage(body), "Data forwarded to n8n successfully", 0)
}

// ForwardBatch godoc
// @Summary      Forward a list of records
// @Description  Posts {"items": [...]} to the forwarding webhook in one request
// @Tags         forward
// @Accept       json
// @Produce      json
// @Param        request body dto.ForwardBatchRequest true "Records to forward"
// @Success      200 {object} dto.ForwardResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ForwardResponse
// @Router       /forward/batch [post]
func (ctrl *ForwardController) ForwardBatch(c *gin.Context) {
	var req dto.ForwardBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "No items provided"})
		return
	}
	if len(req.Items) == 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "No items provided"})
		return
	}
	mode, ok := dto.ParseMode(req.Mode)
	if !ok {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid mode. Use 'test' or 'prod'"})
		return
	}

	payload := map[string]any{"items": req.Items}
	msg := fmt.Sprintf("Forwarded %d items to n8n successfully", len(req.Items))
	ctrl.forward(c, mode, payload, msg, len(req.Items))
}

func (ctrl *ForwardController) forward(c *gin.Context, mode dto.Mode, payload any, okMessage string, total int) {
	result, err := ctrl.forwarder.Forward(c.Request.Context(), mode, payload)
	resp := dto.ForwardResponse{Mode: string(mode), TotalItems: total}
	if result != nil {
		resp.Response = result.Body
	}
	if err != nil {
		ctrl.logger.Warn("forward failed", zap.String("mode", string(mode)), zap.Error(err))
		resp.Message = "Failed to forward data to n8n"
		resp.Error = err.Error()
		c.JSON(http.StatusInternalServerError, resp)
		return
	}

	resp.Success = true
	resp.Message = okMessage
	c.JSON(http.StatusOK, resp)
}
