package handler

import (
	"net/http"

	"anoa.com/forumguard/internal/model"
	gate "anoa.com/forumguard/internal/modules/gate/service"
	"anoa.com/forumguard/pkg/response"
	"github.com/gin-gonic/gin"
)

type checkWriteRequest struct {
	Text string           `json:"text"`
	Kind model.ActionKind `json:"kind" binding:"required,oneof=post thread reaction"`
}

// GateHandler exposes the pre-write check to the CRUD layer over HTTP when
// it runs as a separate service.
type GateHandler struct {
	service gate.GateService
}

func NewGateHandler(service gate.GateService) *GateHandler {
	return &GateHandler{service: service}
}

func (h *GateHandler) CheckWrite(c *gin.Context) {
	var req checkWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.CheckWrite(c.Request.Context(), userID, req.Text, req.Kind); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"allowed": true})
}
