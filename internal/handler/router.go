package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/insuregenie/internal/middleware"
)

type RouterDeps struct {
	Risk          *RiskHandler
	Chat          *ChatHandler
	ChatRateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.Use(middleware.UserIdentity())

	api.POST("/risk/assess", deps.Risk.Assess)
	api.GET("/risk/history/:asset_id", deps.Risk.History)
	api.GET("/assets/:id", deps.Risk.Asset)

	api.POST("/chat/message", middleware.RateLimit(deps.ChatRateLimit), deps.Chat.Message)
}
