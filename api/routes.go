package api

import (
	"github.com/gin-gonic/gin"

	"github.com/BioMeshLabs/foldswarm/api/handlers"
)

// SetupRoutes initializes all API endpoints
func SetupRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.POST("/fold", handlers.FoldSequence)
		api.POST("/merge", handlers.MergeStructures)
		api.POST("/align", handlers.AlignStructures)
		api.POST("/validate", handlers.ValidateStructure)
		api.GET("/results/:sequenceId", handlers.GetResults)
		api.GET("/agents", handlers.GetAgents)
		api.POST("/agents", handlers.RegisterAgent)
	}
	router.GET("/ws", handlers.HandleWebSocket)
}
