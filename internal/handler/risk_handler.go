package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/insuregenie/internal/model"
	"github.com/xxxsen/insuregenie/internal/pkg/errcode"
	"github.com/xxxsen/insuregenie/internal/pkg/response"
	"github.com/xxxsen/insuregenie/internal/service"
)

// RiskAPI is implemented by service.RiskService.
type RiskAPI interface {
	Assess(ctx context.Context, assetID string) (*model.AssessmentResult, error)
	History(ctx context.Context, assetID string) ([]service.HistoryItem, error)
	AssetWithRisk(ctx context.Context, assetID string) (*service.EnrichedAsset, error)
}

type RiskHandler struct {
	risk RiskAPI
}

func NewRiskHandler(risk RiskAPI) *RiskHandler {
	return &RiskHandler{risk: risk}
}

type assessRequest struct {
	AssetID string `json:"asset_id"`
}

func (h *RiskHandler) Assess(c *gin.Context) {
	var req assessRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.AssetID) == "" {
		response.Error(c, errcode.ErrInvalid, "asset_id is required")
		return
	}
	res, err := h.risk.Assess(c.Request.Context(), strings.TrimSpace(req.AssetID))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, res)
}

func (h *RiskHandler) History(c *gin.Context) {
	items, err := h.risk.History(c.Request.Context(), c.Param("asset_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, items)
}

func (h *RiskHandler) Asset(c *gin.Context) {
	out, err := h.risk.AssetWithRisk(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, out)
}
