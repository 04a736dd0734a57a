package routes

import (
	"github.com/gin-gonic/gin"

	"food_routes/internal/controllers"
	"food_routes/internal/middleware"
)

func AdminRoutes(r *gin.Engine) {
	admin := r.Group("/admin")
	admin.Use(middleware.RequireAuthWithRole("admin"))
	{
		admin.GET("/routes", controllers.ListRoutes)
		admin.POST("/routes", controllers.CreateRoute)
		admin.GET("/routes/:id", controllers.GetRoute)
		admin.PUT("/routes/:id", controllers.UpdateRoute)
		admin.DELETE("/routes/:id", controllers.DeleteRoute)
		admin.PUT("/routes/:id/reorder", controllers.ReorderRoute)
		admin.GET("/routes/:id/export", controllers.ExportRoute)
		admin.POST("/routes/:id/archive", controllers.ArchiveRoute)

		admin.POST("/import", controllers.ImportRoutes)
		admin.POST("/import/validate", controllers.ValidateImport)

		admin.GET("/drivers", controllers.ListDrivers)
		admin.GET("/drivers/:id", controllers.GetDriver)
		admin.PUT("/drivers/:id", controllers.UpdateDriver)

		admin.PUT("/addresses/:id", controllers.UpdateAddress)

		ReportRoutes(admin)
	}
}
