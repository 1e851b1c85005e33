package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medvault-backend/internal/shared/server/middleware"
	"medvault-backend/internal/shared/server/respond"
)

type meResponse struct {
	UserID  string `json:"userId"`
	IsGuest bool   `json:"isGuest"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

func registerMeRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", func(c *gin.Context) {
		id, ok := middleware.IdentityFromContext(c)
		if !ok || id.UserID == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing identity", nil)
			return
		}
		respond.OK(c, meResponse{
			UserID:  id.UserID,
			IsGuest: id.Guest,
			Email:   id.Email,
			Name:    id.Name,
			Picture: id.Picture,
		})
	})
}
