package handler

import (
	"net/http"

	trust "anoa.com/forumguard/internal/modules/trust/service"
	"anoa.com/forumguard/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TrustHandler struct {
	service trust.TrustService
}

func NewTrustHandler(service trust.TrustService) *TrustHandler {
	return &TrustHandler{service: service}
}

func (h *TrustHandler) GetMyTierInfo(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	info, err := h.service.GetTierInfo(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

// Promote re-evaluates a single user's tier. Moderator-only.
func (h *TrustHandler) Promote(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	result, err := h.service.Promote(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"old_tier": result.OldTier,
		"new_tier": result.NewTier,
		"changed":  result.Changed,
	})
}
