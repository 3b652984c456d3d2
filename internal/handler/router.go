package handler

import (
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Search *SearchHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	authGroup := api.Group("")
	authGroup.Use(RequireUser())
	authGroup.POST("/search", deps.Search.Search)
	authGroup.PUT("/bookmarks/:id/index", deps.Search.Index)
	authGroup.DELETE("/bookmarks/:id/index", deps.Search.Remove)
}
