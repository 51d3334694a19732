package handlers

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts every API endpoint on router.
func RegisterRoutes(router gin.IRouter, health *HealthHandler, dossiers *DossierHandler, deletions *DeletionHandler) {
	router.GET("/health", health.Health)
	router.GET("/health/ready", health.Ready)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/info", health.Info)
		v1.GET("/localidades", dossiers.Localidades)

		d := v1.Group("/dossiers")
		{
			d.GET("", dossiers.List)
			d.GET("/export", dossiers.Export)
			d.GET("/:id", dossiers.Get)
			d.POST("/reconcile", dossiers.Reconcile)
			d.PATCH("/lote-medido", dossiers.SetLoteMedidoBulk)
			d.PATCH("/:id/lote-medido", dossiers.SetLoteMedido)
		}

		v1.DELETE("/documents/:id", deletions.DeleteDocument)

		dr := v1.Group("/deletion-requests")
		{
			dr.GET("", deletions.List)
			dr.POST("", deletions.Create)
			dr.POST("/:id/decision", deletions.Decide)
			dr.POST("/:id/execute", deletions.Execute)
		}
	}
}
